/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textmetrics

// Approximate text extents for placing and hit-testing text elements.
// Measurement is isolated behind Provider so tests stay deterministic with
// the built-in bitmap face while real layouts can use an OpenType font.

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Metrics are font metrics in points for the requested size.
type Metrics struct {
	Ascent, Descent, LineGap float64
}

// LineHeight is the distance between consecutive baselines.
func (m Metrics) LineHeight() float64 { return m.Ascent + m.Descent + m.LineGap }

// Provider measures single lines of text.
type Provider interface {
	// Advance returns the width of s in points at the given size.
	Advance(s string, sizePt float64, bold bool) float64
	Metrics(sizePt float64) Metrics
}

// BasicProvider scales x/image/basicfont Face7x13 linearly. Deterministic and
// good enough for bounds checks.
type BasicProvider struct{}

const basicSize = 13.0

func (BasicProvider) Advance(s string, sizePt float64, bold bool) float64 {
	d := &font.Drawer{Face: basicfont.Face7x13}
	w := fixedToFloat(d.MeasureString(s)) * sizePt / basicSize
	if bold {
		// synthetic bold widens each glyph slightly
		w *= 1.05
	}
	return w
}

func (BasicProvider) Metrics(sizePt float64) Metrics {
	m := basicfont.Face7x13.Metrics()
	k := sizePt / basicSize
	return Metrics{
		Ascent:  fixedToFloat(m.Ascent) * k,
		Descent: fixedToFloat(m.Descent) * k,
		LineGap: fixedToFloat(m.Height-m.Ascent-m.Descent) * k,
	}
}

// OTProvider measures with a parsed OpenType font and falls back to
// BasicProvider when no font is loaded.
type OTProvider struct {
	font *opentype.Font

	mu    sync.Mutex
	faces map[float64]font.Face
}

// LoadOpenType parses a TTF/OTF file.
func LoadOpenType(path string) (*OTProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read font %s: %w", path, err)
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", path, err)
	}
	return &OTProvider{font: f, faces: make(map[float64]font.Face)}, nil
}

func (p *OTProvider) face(sizePt float64) font.Face {
	p.mu.Lock()
	defer p.mu.Unlock()
	if f, ok := p.faces[sizePt]; ok {
		return f
	}
	f, err := opentype.NewFace(p.font, &opentype.FaceOptions{Size: sizePt, DPI: 72, Hinting: font.HintingNone})
	if err != nil {
		return nil
	}
	p.faces[sizePt] = f
	return f
}

func (p *OTProvider) Advance(s string, sizePt float64, bold bool) float64 {
	if p == nil || p.font == nil {
		return BasicProvider{}.Advance(s, sizePt, bold)
	}
	f := p.face(sizePt)
	if f == nil {
		return BasicProvider{}.Advance(s, sizePt, bold)
	}
	return fixedToFloat((&font.Drawer{Face: f}).MeasureString(s))
}

func (p *OTProvider) Metrics(sizePt float64) Metrics {
	if p == nil || p.font == nil {
		return BasicProvider{}.Metrics(sizePt)
	}
	f := p.face(sizePt)
	if f == nil {
		return BasicProvider{}.Metrics(sizePt)
	}
	m := f.Metrics()
	return Metrics{
		Ascent:  fixedToFloat(m.Ascent),
		Descent: fixedToFloat(m.Descent),
		LineGap: fixedToFloat(m.Height - m.Ascent - m.Descent),
	}
}

// Measure returns the extent of text, which may span several lines.
func Measure(p Provider, text string, sizePt float64, bold bool) (w, h float64) {
	if p == nil {
		p = BasicProvider{}
	}
	lines := strings.Split(text, "\n")
	for _, ln := range lines {
		if lw := p.Advance(ln, sizePt, bold); lw > w {
			w = lw
		}
	}
	m := p.Metrics(sizePt)
	h = float64(len(lines)-1)*m.LineHeight() + m.Ascent + m.Descent
	return w, h
}

func fixedToFloat(v fixed.Int26_6) float64 { return float64(v) / 64 }
