/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"pdfdesigner/internal/compile"
	"pdfdesigner/internal/geom"
	"pdfdesigner/internal/imageload"
)

// PNG rasterizes tree as a preview image. Text uses a bitmap face scaled to
// the requested size, so glyph shapes are approximate.
func PNG(w io.Writer, tree compile.ContentTree, opt Options) error {
	img := Raster(tree, opt)
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("write png: %w", err)
	}
	return nil
}

// Raster draws tree onto a white page image. Opt.DPI sets the pixel density.
func Raster(tree compile.ContentTree, opt Options) *image.RGBA {
	page := opt.page()
	dpi := opt.DPI
	if dpi <= 0 {
		dpi = 72
	}
	k := float64(dpi) / 72
	img := image.NewRGBA(image.Rect(0, 0, int(math.Round(page.W*k)), int(math.Round(page.H*k))))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	base := geom.Scale(k, k)

	for _, n := range tree.Nodes {
		switch n := n.(type) {
		case *compile.RectNode:
			xf := base.Mul(rotation(n.Rotation, n.Pos.X, n.Pos.Y))
			r := geom.R(n.Pos.X, n.Pos.Y, n.W, n.H)
			if c, ok := fillColor(n.Color); ok {
				fillRings(img, c, xf, rectRing(r))
			}
			hw := n.LineWidth / 2
			outer := geom.R(r.X-hw, r.Y-hw, r.W+2*hw, r.H+2*hw)
			rings := [][]geom.Pt{rectRing(outer)}
			if r.W > 2*hw && r.H > 2*hw {
				rings = append(rings, reversed(rectRing(geom.R(r.X+hw, r.Y+hw, r.W-2*hw, r.H-2*hw))))
			}
			fillRings(img, colorOr(n.LineColor, black), xf, rings...)
		case *compile.EllipseNode:
			xf := base.Mul(rotation(n.Rotation, n.Center.X, n.Center.Y))
			if c, ok := fillColor(n.Color); ok {
				fillRings(img, c, xf, ellipseRing(n.Center, n.R1, n.R2))
			}
			hw := n.LineWidth / 2
			rings := [][]geom.Pt{ellipseRing(n.Center, n.R1+hw, n.R2+hw)}
			if n.R1 > hw && n.R2 > hw {
				rings = append(rings, reversed(ellipseRing(n.Center, n.R1-hw, n.R2-hw)))
			}
			fillRings(img, colorOr(n.LineColor, black), xf, rings...)
		case *compile.LineNode:
			xf := base.Mul(rotation(n.Rotation, n.Origin.X, n.Origin.Y))
			if ring := segmentRing(n.From, n.To, n.LineWidth/2); ring != nil {
				fillRings(img, colorOr(n.LineColor, black), xf, ring)
			}
		case *compile.TextNode:
			drawText(img, n, base)
		case *compile.ImageNode:
			drawImage(img, n, base)
		}
	}
	return img
}

func rotation(deg, x, y float64) geom.Affine2D {
	if deg == 0 {
		return geom.Identity
	}
	return geom.RotateAbout(geom.Pt{X: x, Y: y}, deg)
}

func fillColor(s string) (color.RGBA, bool) {
	if s == "" {
		return color.RGBA{}, false
	}
	c, err := ParseColor(s)
	if err != nil || c.A == 0 {
		return color.RGBA{}, false
	}
	return c, true
}

// fillRings rasterizes closed rings with opposite-winding rings as holes.
func fillRings(img *image.RGBA, c color.RGBA, xf geom.Affine2D, rings ...[]geom.Pt) {
	b := img.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	for _, ring := range rings {
		for i, p := range ring {
			q := xf.Apply(p)
			if i == 0 {
				z.MoveTo(float32(q.X), float32(q.Y))
			} else {
				z.LineTo(float32(q.X), float32(q.Y))
			}
		}
		z.ClosePath()
	}
	z.Draw(img, b, image.NewUniform(c), image.Point{})
}

func rectRing(r geom.Rect) []geom.Pt {
	return []geom.Pt{{X: r.X, Y: r.Y}, {X: r.X + r.W, Y: r.Y}, {X: r.X + r.W, Y: r.Y + r.H}, {X: r.X, Y: r.Y + r.H}}
}

func ellipseRing(c compile.Point, rx, ry float64) []geom.Pt {
	const steps = 72
	out := make([]geom.Pt, steps)
	for i := range out {
		a := 2 * math.Pi * float64(i) / steps
		out[i] = geom.Pt{X: c.X + rx*math.Cos(a), Y: c.Y + ry*math.Sin(a)}
	}
	return out
}

func segmentRing(a, b compile.Point, hw float64) []geom.Pt {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := math.Hypot(dx, dy)
	if l == 0 || hw <= 0 {
		return nil
	}
	nx, ny := -dy/l*hw, dx/l*hw
	return []geom.Pt{{X: a.X + nx, Y: a.Y + ny}, {X: b.X + nx, Y: b.Y + ny}, {X: b.X - nx, Y: b.Y - ny}, {X: a.X - nx, Y: a.Y - ny}}
}

func reversed(ring []geom.Pt) []geom.Pt {
	out := make([]geom.Pt, len(ring))
	for i, p := range ring {
		out[len(ring)-1-i] = p
	}
	return out
}

func aff3(m geom.Affine2D) f64.Aff3 { return f64.Aff3{m.A, m.C, m.E, m.B, m.D, m.F} }

// drawText renders lines with basicfont into a scratch image at its native
// 13px size and maps that onto the page.
func drawText(img *image.RGBA, n *compile.TextNode, base geom.Affine2D) {
	face := basicfont.Face7x13
	lines := strings.Split(n.Text, "\n")
	lineH := int(math.Ceil(13 * lineSpacing))
	width := 1
	for _, ln := range lines {
		if w := font.MeasureString(face, ln).Ceil(); w > width {
			width = w
		}
	}
	scratch := image.NewRGBA(image.Rect(0, 0, width, lineH*len(lines)))
	d := &font.Drawer{Dst: scratch, Src: image.Black, Face: face}
	for i, ln := range lines {
		d.Dot = fixed.P(0, face.Ascent+i*lineH)
		d.DrawString(ln)
		if n.Bold {
			d.Dot = fixed.P(1, face.Ascent+i*lineH)
			d.DrawString(ln)
		}
	}
	s := n.FontSize / 13
	xf := base.Mul(rotation(n.Rotation, n.Pos.X, n.Pos.Y)).Mul(geom.Translate(n.Pos.X, n.Pos.Y)).Mul(geom.Scale(s, s))
	xdraw.ApproxBiLinear.Transform(img, aff3(xf), scratch, scratch.Bounds(), xdraw.Over, nil)
}

func drawImage(img *image.RGBA, n *compile.ImageNode, base geom.Affine2D) {
	_, data, err := imageload.ParseDataURI(n.Src)
	if err != nil {
		return
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return
	}
	sb := src.Bounds()
	if sb.Dx() == 0 || sb.Dy() == 0 {
		return
	}
	xf := base.Mul(rotation(n.Rotation, n.Pos.X, n.Pos.Y)).
		Mul(geom.Translate(n.Pos.X, n.Pos.Y)).
		Mul(geom.Scale(n.W/float64(sb.Dx()), n.H/float64(sb.Dy()))).
		Mul(geom.Translate(-float64(sb.Min.X), -float64(sb.Min.Y)))
	xdraw.CatmullRom.Transform(img, aff3(xf), src, sb, xdraw.Over, nil)
}
