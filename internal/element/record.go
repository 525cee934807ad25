/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package element

import (
	"bytes"
	"encoding/json"
)

// Record is the flat wire form of an element, shared by the JSON and msgpack
// encodings. Kind-specific fields are pointers so that "absent" survives a
// round trip; the editing surface relies on that for optional strokes.
type Record struct {
	ID          string            `json:"id" msgpack:"id"`
	Type        Kind              `json:"type" msgpack:"type"`
	X           float64           `json:"x" msgpack:"x"`
	Y           float64           `json:"y" msgpack:"y"`
	ZIndex      int               `json:"zIndex" msgpack:"zIndex"`
	Rotation    float64           `json:"rotation,omitempty" msgpack:"rotation,omitempty"`
	Content     *string           `json:"content,omitempty" msgpack:"content,omitempty"`
	FontSize    *float64          `json:"fontSize,omitempty" msgpack:"fontSize,omitempty"`
	Bold        *bool             `json:"bold,omitempty" msgpack:"bold,omitempty"`
	Width       *float64          `json:"width,omitempty" msgpack:"width,omitempty"`
	Height      *float64          `json:"height,omitempty" msgpack:"height,omitempty"`
	Radius      *float64          `json:"radius,omitempty" msgpack:"radius,omitempty"`
	Fill        *string           `json:"fill,omitempty" msgpack:"fill,omitempty"`
	Stroke      *string           `json:"stroke,omitempty" msgpack:"stroke,omitempty"`
	StrokeWidth *float64          `json:"strokeWidth,omitempty" msgpack:"strokeWidth,omitempty"`
	Points      []float64         `json:"points,omitempty" msgpack:"points,omitempty"`
	Src         *string           `json:"src,omitempty" msgpack:"src,omitempty"`
	Extra       map[string][]byte `json:"-" msgpack:"extra,omitempty"`
}

// commonKeys are the record keys owned by Element itself.
var commonKeys = map[string]bool{"id": true, "type": true, "x": true, "y": true, "zIndex": true, "rotation": true}

// Record converts e to its wire form.
func (e Element) Record() Record {
	r := Record{ID: e.ID, Type: e.Kind(), X: e.X, Y: e.Y, ZIndex: e.Z, Rotation: e.Rotation}
	stroke := func(s Stroke) {
		if s.Color != "" {
			r.Stroke = Ptr(s.Color)
		}
		r.StrokeWidth = Ptr(s.Width)
	}
	switch s := e.Shape.(type) {
	case *Text:
		r.Content, r.FontSize, r.Bold = Ptr(s.Content), Ptr(s.FontSize), Ptr(s.Bold)
	case *Rect:
		r.Width, r.Height, r.Fill = Ptr(s.Width), Ptr(s.Height), Ptr(s.Fill)
		stroke(s.Stroke)
	case *Circle:
		r.Radius, r.Fill = Ptr(s.Radius), Ptr(s.Fill)
		stroke(s.Stroke)
	case *Line:
		r.Points = []float64{s.Points[0], s.Points[1], s.Points[2], s.Points[3]}
		stroke(s.Stroke)
	case *Image:
		r.Width, r.Height, r.Src = Ptr(s.Width), Ptr(s.Height), Ptr(s.Src)
	case *Unknown:
		r.Extra = s.clone().(*Unknown).Fields
	}
	return r
}

// FromRecord builds an element from its wire form. Seq is left zero.
func FromRecord(r Record) (Element, error) {
	if r.Type == "" {
		return Element{}, invalidf("record %q has no type", r.ID)
	}
	e := Element{ID: r.ID, X: r.X, Y: r.Y, Z: r.ZIndex, Rotation: r.Rotation}
	stroke := Stroke{Color: deref(r.Stroke), Width: deref(r.StrokeWidth)}
	switch r.Type {
	case KindText:
		e.Shape = &Text{Content: deref(r.Content), FontSize: deref(r.FontSize), Bold: deref(r.Bold)}
	case KindRect:
		e.Shape = &Rect{Width: deref(r.Width), Height: deref(r.Height), Fill: deref(r.Fill), Stroke: stroke}
	case KindCircle:
		e.Shape = &Circle{Radius: deref(r.Radius), Fill: deref(r.Fill), Stroke: stroke}
	case KindLine:
		if len(r.Points) != 4 {
			return Element{}, invalidf("line %q needs 4 point coordinates, got %d", r.ID, len(r.Points))
		}
		l := &Line{Stroke: stroke}
		copy(l.Points[:], r.Points)
		e.Shape = l
	case KindImage:
		e.Shape = &Image{Width: deref(r.Width), Height: deref(r.Height), Src: deref(r.Src)}
	default:
		u := &Unknown{Type: string(r.Type), Fields: r.Extra}
		e.Shape = u.clone()
	}
	return e, nil
}

// MarshalJSON writes the flat record form.
func (e Element) MarshalJSON() ([]byte, error) {
	r := e.Record()
	b, err := json.Marshal(r)
	if err != nil || len(r.Extra) == 0 {
		return b, err
	}
	m := make(map[string]json.RawMessage)
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	for k, v := range r.Extra {
		if _, taken := m[k]; !taken {
			m[k] = json.RawMessage(v)
		}
	}
	return json.Marshal(m)
}

// UnmarshalJSON reads the flat record form. Keys of records with an unknown
// type are kept in Unknown.Fields.
func (e *Element) UnmarshalJSON(data []byte) error {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return invalidf("%v", err)
	}
	if r.Type != "" && !r.Type.Known() {
		var raw map[string]json.RawMessage
		if err := json.Unmarshal(data, &raw); err != nil {
			return invalidf("%v", err)
		}
		r.Extra = make(map[string][]byte)
		for k, v := range raw {
			if !commonKeys[k] {
				r.Extra[k] = bytes.Clone(v)
			}
		}
	}
	out, err := FromRecord(r)
	if err != nil {
		return err
	}
	*e = out
	return nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
