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
	"hash/fnv"
	"image/color"
	"io"
	"log/slog"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"pdfdesigner/internal/compile"
	"pdfdesigner/internal/imageload"
	applog "pdfdesigner/internal/log"
)

const utf8Family = "body"

// PDF writes tree as a single-page PDF to w.
// Without a FontFile, text uses the built-in Helvetica with a cp1252
// translation; runes outside that code page are lost. Images that cannot be
// embedded are skipped with a warning.
func PDF(w io.Writer, tree compile.ContentTree, opt Options) error {
	page := opt.page()
	l := applog.WithOperation(applog.WithComponent("render"), "pdf")

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: page.W, Ht: page.H},
	})
	if opt.Title != "" {
		pdf.SetTitle(opt.Title, true)
	}
	pdf.SetCreator("pdfdesigner", false)
	pdf.SetAutoPageBreak(false, 0)

	family, tr := "Helvetica", pdf.UnicodeTranslatorFromDescriptor("")
	if opt.FontFile != "" {
		pdf.AddUTF8Font(utf8Family, "", opt.FontFile)
		pdf.AddUTF8Font(utf8Family, "B", opt.FontFile)
		if !pdf.Ok() {
			return fmt.Errorf("load font %s: %w", opt.FontFile, pdf.Error())
		}
		family, tr = utf8Family, func(s string) string { return s }
	}
	pdf.AddPage()

	for _, n := range tree.Nodes {
		switch n := n.(type) {
		case *compile.TextNode:
			style := ""
			if n.Bold {
				style = "B"
			}
			pdf.SetFont(family, style, n.FontSize)
			pdf.SetTextColor(0, 0, 0)
			rotated(pdf, n.Rotation, n.Pos.X, n.Pos.Y, func() {
				y := n.Pos.Y + n.FontSize*ascentRatio
				for _, line := range strings.Split(n.Text, "\n") {
					pdf.Text(n.Pos.X, y, tr(line))
					y += n.FontSize * lineSpacing
				}
			})
		case *compile.RectNode:
			style := stroke(pdf, n.Color, n.LineColor, n.LineWidth)
			rotated(pdf, n.Rotation, n.Pos.X, n.Pos.Y, func() {
				pdf.Rect(n.Pos.X, n.Pos.Y, n.W, n.H, style)
			})
		case *compile.EllipseNode:
			style := stroke(pdf, n.Color, n.LineColor, n.LineWidth)
			rotated(pdf, n.Rotation, n.Center.X, n.Center.Y, func() {
				pdf.Ellipse(n.Center.X, n.Center.Y, n.R1, n.R2, 0, style)
			})
		case *compile.LineNode:
			stroke(pdf, "", n.LineColor, n.LineWidth)
			rotated(pdf, n.Rotation, n.Origin.X, n.Origin.Y, func() {
				pdf.Line(n.From.X, n.From.Y, n.To.X, n.To.Y)
			})
		case *compile.ImageNode:
			name, ok := registerImage(pdf, n.Src)
			if !ok {
				l.Warn("image not embeddable, skipped", slog.String("id", n.ID))
				continue
			}
			rotated(pdf, n.Rotation, n.Pos.X, n.Pos.Y, func() {
				pdf.ImageOptions(name, n.Pos.X, n.Pos.Y, n.W, n.H, false, gofpdf.ImageOptions{}, 0, "")
			})
		}
		if !pdf.Ok() {
			return fmt.Errorf("render %s: %w", n.ElementID(), pdf.Error())
		}
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	l.Info("pdf rendered", slog.Int("nodes", tree.Len()))
	return nil
}

// rotated runs draw inside a rotation about (x, y). gofpdf angles are
// counter-clockwise, so the clockwise page rotation is negated.
func rotated(pdf *gofpdf.Fpdf, deg, x, y float64, draw func()) {
	if deg == 0 {
		draw()
		return
	}
	pdf.TransformBegin()
	pdf.TransformRotate(-deg, x, y)
	draw()
	pdf.TransformEnd()
}

// stroke sets draw and fill state and returns the gofpdf style string.
func stroke(pdf *gofpdf.Fpdf, fill, line string, width float64) string {
	lc := colorOr(line, black)
	pdf.SetDrawColor(int(lc.R), int(lc.G), int(lc.B))
	pdf.SetLineWidth(width)
	if fill == "" {
		return "D"
	}
	fc, err := ParseColor(fill)
	if err != nil || fc.A == 0 {
		return "D"
	}
	setFill(pdf, fc)
	return "FD"
}

func setFill(pdf *gofpdf.Fpdf, c color.RGBA) {
	pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
}

var pdfImageTypes = map[string]string{"image/png": "PNG", "image/jpeg": "JPG", "image/jpg": "JPG", "image/gif": "GIF"}

// registerImage embeds a data URI once per distinct payload and returns the
// gofpdf image name.
func registerImage(pdf *gofpdf.Fpdf, src string) (string, bool) {
	mime, data, err := imageload.ParseDataURI(src)
	if err != nil {
		return "", false
	}
	tp, ok := pdfImageTypes[mime]
	if !ok {
		// formats gofpdf cannot read are converted to PNG first
		ref, err := imageload.Decode(data)
		if err != nil {
			return "", false
		}
		if _, data, err = imageload.ParseDataURI(ref.URI); err != nil {
			return "", false
		}
		tp = "PNG"
	}
	h := fnv.New64a()
	_, _ = h.Write(data)
	name := fmt.Sprintf("img-%x", h.Sum64())
	if pdf.GetImageInfo(name) != nil {
		return name, true
	}
	pdf.RegisterImageOptionsReader(name, gofpdf.ImageOptions{ImageType: tp}, bytes.NewReader(data))
	if !pdf.Ok() {
		pdf.ClearError()
		return "", false
	}
	return name, true
}
