/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package element defines the canonical data model of a printable template:
// the elements a user places on the page and the documents built from them.
//
// An Element carries the fields every element has (id, position, z-order,
// rotation) and a Shape holding the kind-specific fields. Shape is a closed
// set of variants; code that needs per-kind behavior type-switches on it.
// Records whose type is not known to this package decode to *Unknown so they
// survive a load/save round trip untouched.
package element

import "errors"

// ErrInvalid marks malformed elements, records and patches.
var ErrInvalid = errors.New("invalid element")

// Kind identifies an element variant. The string value is the wire "type".
type Kind string

const (
	KindText   Kind = "text"
	KindRect   Kind = "rect"
	KindCircle Kind = "circle"
	KindLine   Kind = "line"
	KindImage  Kind = "image"
)

// Known reports whether k is one of the built-in kinds.
func (k Kind) Known() bool {
	switch k {
	case KindText, KindRect, KindCircle, KindLine, KindImage:
		return true
	}
	return false
}

// Shape is the kind-specific part of an element.
type Shape interface {
	Kind() Kind
	clone() Shape
}

// Stroke is an outline color and width. An empty color means "renderer default".
type Stroke struct {
	Color string
	Width float64
}

// Text is a run of text that may embed {{key}} placeholders.
type Text struct {
	Content  string
	FontSize float64
	Bold     bool
}

// Rect is an axis-aligned rectangle anchored at the element position.
type Rect struct {
	Width, Height float64
	Fill          string
	Stroke        Stroke
}

// Circle is centered at the element position.
type Circle struct {
	Radius float64
	Fill   string
	Stroke Stroke
}

// Line is a segment; Points holds x1, y1, x2, y2 relative to the element position.
type Line struct {
	Points [4]float64
	Stroke Stroke
}

// Image references embeddable image data, usually a data URI.
type Image struct {
	Width, Height float64
	Src           string
}

// Unknown keeps a record of an unrecognized type verbatim.
type Unknown struct {
	Type   string
	Fields map[string][]byte
}

func (*Text) Kind() Kind     { return KindText }
func (*Rect) Kind() Kind     { return KindRect }
func (*Circle) Kind() Kind   { return KindCircle }
func (*Line) Kind() Kind     { return KindLine }
func (*Image) Kind() Kind    { return KindImage }
func (u *Unknown) Kind() Kind { return Kind(u.Type) }

func (s *Text) clone() Shape   { c := *s; return &c }
func (s *Rect) clone() Shape   { c := *s; return &c }
func (s *Circle) clone() Shape { c := *s; return &c }
func (s *Line) clone() Shape   { c := *s; return &c }
func (s *Image) clone() Shape  { c := *s; return &c }
func (u *Unknown) clone() Shape {
	c := &Unknown{Type: u.Type}
	if u.Fields != nil {
		c.Fields = make(map[string][]byte, len(u.Fields))
		for k, v := range u.Fields {
			c.Fields[k] = append([]byte(nil), v...)
		}
	}
	return c
}

// Element is one printable primitive.
// Seq is the insertion sequence assigned by the store; it breaks z-order ties
// and is not part of the wire format.
type Element struct {
	ID       string
	X, Y     float64
	Z        int
	Rotation float64
	Shape    Shape
	Seq      uint64
}

// Kind returns the element's kind, or "" for an element without a shape.
func (e Element) Kind() Kind {
	if e.Shape == nil {
		return ""
	}
	return e.Shape.Kind()
}

// Clone returns a deep copy of e.
func (e Element) Clone() Element {
	if e.Shape != nil {
		e.Shape = e.Shape.clone()
	}
	return e
}

// Validate checks the invariants every stored element must satisfy.
func (e Element) Validate() error {
	if e.ID == "" {
		return invalidf("element without id")
	}
	if e.Shape == nil {
		return invalidf("element %q has no shape", e.ID)
	}
	check := func(name string, v float64) error {
		if v < 0 {
			return invalidf("element %q: %s must not be negative (got %g)", e.ID, name, v)
		}
		return nil
	}
	switch s := e.Shape.(type) {
	case *Text:
		return check("fontSize", s.FontSize)
	case *Rect:
		return errors.Join(check("width", s.Width), check("height", s.Height), check("strokeWidth", s.Stroke.Width))
	case *Circle:
		return errors.Join(check("radius", s.Radius), check("strokeWidth", s.Stroke.Width))
	case *Line:
		return check("strokeWidth", s.Stroke.Width)
	case *Image:
		return errors.Join(check("width", s.Width), check("height", s.Height))
	}
	return nil
}

// Spec describes an element to add. The store assigns id and sequence.
// A nil Z means "on top of the current elements".
type Spec struct {
	X, Y     float64
	Z        *int
	Rotation float64
	Shape    Shape
}

// Document is an ordered sequence of elements.
type Document []Element

// Clone deep-copies the document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for i, e := range d {
		out[i] = e.Clone()
	}
	return out
}

// Index returns the position of the element with the given id, or -1.
func (d Document) Index(id string) int {
	for i := range d {
		if d[i].ID == id {
			return i
		}
	}
	return -1
}

// IDs lists element ids in document order.
func (d Document) IDs() []string {
	out := make([]string, len(d))
	for i := range d {
		out[i] = d[i].ID
	}
	return out
}

// Ptr returns a pointer to v; handy for building patches and specs.
func Ptr[T any](v T) *T { return &v }
