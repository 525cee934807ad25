/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package render draws compiled content trees as PDF, SVG or PNG.
//
// Coordinates:
// - Page origin is top-left, units are points, y grows downwards.
// - Rotation is in degrees, clockwise on the page, about the node's anchor
//   (top-left for text, rectangles and images, center for ellipses, the
//   element position for lines).
package render

import (
	"pdfdesigner/internal/geom"
)

// ascentRatio positions the first baseline below a text node's top edge.
// It is Helvetica's ascender height per unit of font size.
const ascentRatio = 0.718

// lineSpacing is the distance between baselines of multi-line text, per unit
// of font size.
const lineSpacing = 1.2

// Options controls rendering. Zero values select an A4 page.
//
//nolint:revive // clarity is preferred
type Options struct {
	Page     geom.Rect // page size in points; zero means A4
	FontFile string    // optional TTF with Unicode coverage for text
	Title    string
	DPI      int // PNG only; 0 means 72
}

func (o Options) page() geom.Rect {
	if o.Page.W <= 0 || o.Page.H <= 0 {
		return geom.A4
	}
	return o.Page
}
