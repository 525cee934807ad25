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
	"html"
	"io"
	"strings"

	"pdfdesigner/internal/compile"
)

// SVG writes tree as a standalone SVG document sized to the page. The
// coordinate system matches the model (points).
func SVG(w io.Writer, tree compile.ContentTree, opt Options) error {
	page := opt.page()
	var buf bytes.Buffer
	wf := func(format string, args ...any) { fmt.Fprintf(&buf, format, args...) }

	wf("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	wf("<svg xmlns=\"http://www.w3.org/2000/svg\" version=\"1.1\" width=\"%gpt\" height=\"%gpt\" viewBox=\"0 0 %g %g\">\n", page.W, page.H, page.W, page.H)
	if opt.Title != "" {
		wf("  <title>%s</title>\n", html.EscapeString(opt.Title))
	}
	wf("  <rect x=\"0\" y=\"0\" width=\"%g\" height=\"%g\" fill=\"#ffffff\"/>\n", page.W, page.H)

	for _, n := range tree.Nodes {
		switch n := n.(type) {
		case *compile.TextNode:
			weight := "normal"
			if n.Bold {
				weight = "bold"
			}
			wf("  <text id=\"%s\" x=\"%g\" y=\"%g\" font-family=\"Helvetica, Arial, sans-serif\" font-size=\"%g\" font-weight=\"%s\" fill=\"#000000\"%s>",
				attr(n.ID), n.Pos.X, n.Pos.Y+n.FontSize*ascentRatio, n.FontSize, weight, rotateAttr(n.Rotation, n.Pos.X, n.Pos.Y))
			for i, line := range strings.Split(n.Text, "\n") {
				if i == 0 {
					wf("%s", html.EscapeString(line))
					continue
				}
				wf("<tspan x=\"%g\" dy=\"%g\">%s</tspan>", n.Pos.X, n.FontSize*lineSpacing, html.EscapeString(line))
			}
			wf("</text>\n")
		case *compile.RectNode:
			wf("  <rect id=\"%s\" x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" fill=\"%s\" stroke=\"%s\" stroke-width=\"%g\"%s/>\n",
				attr(n.ID), n.Pos.X, n.Pos.Y, n.W, n.H, fillAttr(n.Color), svgColor(colorOr(n.LineColor, black)), n.LineWidth, rotateAttr(n.Rotation, n.Pos.X, n.Pos.Y))
		case *compile.EllipseNode:
			wf("  <ellipse id=\"%s\" cx=\"%g\" cy=\"%g\" rx=\"%g\" ry=\"%g\" fill=\"%s\" stroke=\"%s\" stroke-width=\"%g\"%s/>\n",
				attr(n.ID), n.Center.X, n.Center.Y, n.R1, n.R2, fillAttr(n.Color), svgColor(colorOr(n.LineColor, black)), n.LineWidth, rotateAttr(n.Rotation, n.Center.X, n.Center.Y))
		case *compile.LineNode:
			wf("  <line id=\"%s\" x1=\"%g\" y1=\"%g\" x2=\"%g\" y2=\"%g\" stroke=\"%s\" stroke-width=\"%g\"%s/>\n",
				attr(n.ID), n.From.X, n.From.Y, n.To.X, n.To.Y, svgColor(colorOr(n.LineColor, black)), n.LineWidth, rotateAttr(n.Rotation, n.Origin.X, n.Origin.Y))
		case *compile.ImageNode:
			wf("  <image id=\"%s\" x=\"%g\" y=\"%g\" width=\"%g\" height=\"%g\" preserveAspectRatio=\"none\" href=\"%s\"%s/>\n",
				attr(n.ID), n.Pos.X, n.Pos.Y, n.W, n.H, attr(n.Src), rotateAttr(n.Rotation, n.Pos.X, n.Pos.Y))
		}
	}
	wf("</svg>\n")

	if _, err := w.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}

func attr(s string) string { return html.EscapeString(s) }

func fillAttr(s string) string {
	if s == "" {
		return "none"
	}
	c, err := ParseColor(s)
	if err != nil || c.A == 0 {
		return "none"
	}
	return svgColor(c)
}

func rotateAttr(deg, x, y float64) string {
	if deg == 0 {
		return ""
	}
	return fmt.Sprintf(" transform=\"rotate(%g %g %g)\"", deg, x, y)
}
