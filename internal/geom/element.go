/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

import (
	"math"
	"strings"

	"pdfdesigner/internal/element"
	"pdfdesigner/internal/textmetrics"
)

// Page sizes in points, portrait.
var (
	A4     = Rect{W: 595, H: 842}
	Letter = Rect{W: 612, H: 792}
	Legal  = Rect{W: 612, H: 1008}
)

// PageSize looks up a named page size (case-insensitive). Unknown names
// yield A4 and false.
func PageSize(name string) (Rect, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "a4", "":
		return A4, true
	case "letter":
		return Letter, true
	case "legal":
		return Legal, true
	}
	return A4, false
}

// localShape returns the element's unrotated outline, and whether the shape
// is elliptical (for hit testing).
func localShape(el element.Element, tm textmetrics.Provider) (Rect, bool, bool) {
	switch s := el.Shape.(type) {
	case *element.Text:
		size := s.FontSize
		if size == 0 {
			size = 12
		}
		w, h := textmetrics.Measure(tm, s.Content, size, s.Bold)
		return Rect{X: el.X, Y: el.Y, W: w, H: h}, false, true
	case *element.Rect:
		return Rect{X: el.X, Y: el.Y, W: s.Width, H: s.Height}, false, true
	case *element.Image:
		return Rect{X: el.X, Y: el.Y, W: s.Width, H: s.Height}, false, true
	case *element.Circle:
		return Rect{X: el.X - s.Radius, Y: el.Y - s.Radius, W: 2 * s.Radius, H: 2 * s.Radius}, true, true
	case *element.Line:
		x1, y1 := el.X+s.Points[0], el.Y+s.Points[1]
		x2, y2 := el.X+s.Points[2], el.Y+s.Points[3]
		half := math.Max(s.Stroke.Width, 1) / 2
		r := Rect{X: math.Min(x1, x2), Y: math.Min(y1, y2), W: math.Abs(x2 - x1), H: math.Abs(y2 - y1)}
		return Rect{X: r.X - half, Y: r.Y - half, W: r.W + 2*half, H: r.H + 2*half}, false, true
	}
	return Rect{}, false, false
}

// ElementBounds returns the page-space bounding box of el including its
// rotation about (X, Y). Unknown kinds report false.
func ElementBounds(el element.Element, tm textmetrics.Provider) (Rect, bool) {
	r, _, ok := localShape(el, tm)
	if !ok {
		return Rect{}, false
	}
	if el.Rotation == 0 {
		return r, true
	}
	return TransformedBounds(r, RotateAbout(Pt{el.X, el.Y}, el.Rotation)), true
}

// Hit reports whether p lies on el.
func Hit(el element.Element, p Pt, tm textmetrics.Provider) bool {
	r, ellipse, ok := localShape(el, tm)
	if !ok {
		return false
	}
	q := p
	if el.Rotation != 0 {
		q = RotateAbout(Pt{el.X, el.Y}, el.Rotation).Invert().Apply(p)
	}
	if !ellipse {
		return r.Contains(q)
	}
	rx, ry := r.W/2, r.H/2
	if rx == 0 || ry == 0 {
		return false
	}
	dx := (q.X - (r.X + rx)) / rx
	dy := (q.Y - (r.Y + ry)) / ry
	return dx*dx+dy*dy <= 1
}

// TopmostAt returns the id of the last element in paint order that contains
// p, or "" when none does.
func TopmostAt(doc element.Document, p Pt, tm textmetrics.Provider) string {
	for i := len(doc) - 1; i >= 0; i-- {
		if Hit(doc[i], p, tm) {
			return doc[i].ID
		}
	}
	return ""
}

// OffPage lists ids of elements whose bounds are not fully inside page.
func OffPage(doc element.Document, page Rect, tm textmetrics.Provider) []string {
	var out []string
	for _, el := range doc {
		b, ok := ElementBounds(el, tm)
		if !ok {
			continue
		}
		if !b.Inside(page) {
			out = append(out, el.ID)
		}
	}
	return out
}
