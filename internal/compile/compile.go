/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package compile turns an ordered element list into a renderer-neutral
// content tree.
//
// The tree's JSON form follows the document-definition shape of common
// declarative PDF engines: a "content" array where text and images are placed
// with "absolutePosition" and vector shapes are "canvas" items. Renderers in
// this module consume the Go values directly.
package compile

import (
	"pdfdesigner/internal/element"
	"pdfdesigner/internal/placeholder"
)

// Defaults applied to elements that leave the corresponding field unset.
const (
	DefaultFontSize  = 12
	DefaultLineColor = "black"
	DefaultLineWidth = 1
)

// Node is one compiled element. The set of implementations is closed.
type Node interface {
	ElementID() string
	node()
}

// Point is an absolute page position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TextNode is resolved text placed with its top-left corner at Pos.
type TextNode struct {
	ID       string
	Text     string
	FontSize float64
	Bold     bool
	Pos      Point
	Rotation float64
}

// RectNode is a rectangle with its top-left corner at Pos. An empty Color
// means no fill.
type RectNode struct {
	ID        string
	Pos       Point
	W, H      float64
	Color     string
	LineColor string
	LineWidth float64
	Rotation  float64
}

// EllipseNode is centered at Center.
type EllipseNode struct {
	ID        string
	Center    Point
	R1, R2    float64
	Color     string
	LineColor string
	LineWidth float64
	Rotation  float64
}

// LineNode is a segment between two absolute endpoints. Rotation turns the
// segment around Origin, the element position.
type LineNode struct {
	ID        string
	From, To  Point
	Origin    Point
	LineColor string
	LineWidth float64
	Rotation  float64
}

// ImageNode places embedded image data with its top-left corner at Pos.
type ImageNode struct {
	ID       string
	Src      string
	W, H     float64
	Pos      Point
	Rotation float64
}

func (n *TextNode) ElementID() string    { return n.ID }
func (n *RectNode) ElementID() string    { return n.ID }
func (n *EllipseNode) ElementID() string { return n.ID }
func (n *LineNode) ElementID() string    { return n.ID }
func (n *ImageNode) ElementID() string   { return n.ID }

func (*TextNode) node()    {}
func (*RectNode) node()    {}
func (*EllipseNode) node() {}
func (*LineNode) node()    {}
func (*ImageNode) node()   {}

// ContentTree is the compiled document. Skipped lists ids of elements whose
// kind has no compiled form; it is informational and not part of the output.
type ContentTree struct {
	Nodes   []Node
	Skipped []string
}

// Len returns the number of nodes.
func (t ContentTree) Len() int { return len(t.Nodes) }

// Compile maps elements, already in paint order, to content nodes, resolving
// placeholders in text against ctx. Elements of unknown kind are left out.
// The result depends only on the arguments.
func Compile(elements element.Document, ctx placeholder.Context) ContentTree {
	tree := ContentTree{Nodes: make([]Node, 0, len(elements))}
	for _, el := range elements {
		n := compileElement(el, ctx)
		if n == nil {
			tree.Skipped = append(tree.Skipped, el.ID)
			continue
		}
		tree.Nodes = append(tree.Nodes, n)
	}
	return tree
}

func compileElement(el element.Element, ctx placeholder.Context) Node {
	pos := Point{X: el.X, Y: el.Y}
	switch s := el.Shape.(type) {
	case *element.Text:
		return &TextNode{
			ID:       el.ID,
			Text:     placeholder.Resolve(s.Content, ctx),
			FontSize: orFloat(s.FontSize, DefaultFontSize),
			Bold:     s.Bold,
			Pos:      pos,
			Rotation: el.Rotation,
		}
	case *element.Rect:
		return &RectNode{
			ID: el.ID, Pos: pos, W: s.Width, H: s.Height, Color: s.Fill,
			LineColor: orString(s.Stroke.Color, DefaultLineColor),
			LineWidth: orFloat(s.Stroke.Width, DefaultLineWidth),
			Rotation:  el.Rotation,
		}
	case *element.Circle:
		return &EllipseNode{
			ID: el.ID, Center: pos, R1: s.Radius, R2: s.Radius, Color: s.Fill,
			LineColor: orString(s.Stroke.Color, DefaultLineColor),
			LineWidth: orFloat(s.Stroke.Width, DefaultLineWidth),
			Rotation:  el.Rotation,
		}
	case *element.Line:
		return &LineNode{
			ID:        el.ID,
			From:      Point{X: el.X + s.Points[0], Y: el.Y + s.Points[1]},
			To:        Point{X: el.X + s.Points[2], Y: el.Y + s.Points[3]},
			Origin:    pos,
			LineColor: orString(s.Stroke.Color, DefaultLineColor),
			LineWidth: orFloat(s.Stroke.Width, DefaultLineWidth),
			Rotation:  el.Rotation,
		}
	case *element.Image:
		return &ImageNode{ID: el.ID, Src: s.Src, W: s.Width, H: s.Height, Pos: pos, Rotation: el.Rotation}
	}
	return nil
}

func orFloat(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func orString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
