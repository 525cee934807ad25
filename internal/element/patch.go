/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package element

import (
	"fmt"
	"strings"
)

// Patch is a partial update. Nil fields are left untouched.
// ID and Type may be present (clients often send the whole record back) but
// must match the target element: neither can change after creation.
type Patch struct {
	ID          *string     `json:"id,omitempty"`
	Type        *Kind       `json:"type,omitempty"`
	X           *float64    `json:"x,omitempty"`
	Y           *float64    `json:"y,omitempty"`
	Z           *int        `json:"zIndex,omitempty"`
	Rotation    *float64    `json:"rotation,omitempty"`
	Content     *string     `json:"content,omitempty"`
	FontSize    *float64    `json:"fontSize,omitempty"`
	Bold        *bool       `json:"bold,omitempty"`
	Width       *float64    `json:"width,omitempty"`
	Height      *float64    `json:"height,omitempty"`
	Radius      *float64    `json:"radius,omitempty"`
	Fill        *string     `json:"fill,omitempty"`
	Stroke      *string     `json:"stroke,omitempty"`
	StrokeWidth *float64    `json:"strokeWidth,omitempty"`
	Points      *[4]float64 `json:"points,omitempty"`
	Src         *string     `json:"src,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool { return p == Patch{} }

// Apply merges p into e and returns the result. e is not modified.
// Fields that do not exist on e's kind are rejected, as is any attempt to
// change id or kind. The result is validated.
func Apply(e Element, p Patch) (Element, error) {
	if p.ID != nil && *p.ID != e.ID {
		return e, invalidf("element %q: id is immutable", e.ID)
	}
	if p.Type != nil && *p.Type != e.Kind() {
		return e, invalidf("element %q: kind %s is immutable", e.ID, e.Kind())
	}
	out := e.Clone()
	if p.X != nil {
		out.X = *p.X
	}
	if p.Y != nil {
		out.Y = *p.Y
	}
	if p.Z != nil {
		out.Z = *p.Z
	}
	if p.Rotation != nil {
		out.Rotation = *p.Rotation
	}

	var stray []string
	reject := func(name string, set bool) {
		if set {
			stray = append(stray, name)
		}
	}
	switch s := out.Shape.(type) {
	case *Text:
		setIf(&s.Content, p.Content)
		setIf(&s.FontSize, p.FontSize)
		setIf(&s.Bold, p.Bold)
		reject("width", p.Width != nil)
		reject("height", p.Height != nil)
		reject("radius", p.Radius != nil)
		reject("fill", p.Fill != nil)
		reject("stroke", p.Stroke != nil)
		reject("strokeWidth", p.StrokeWidth != nil)
		reject("points", p.Points != nil)
		reject("src", p.Src != nil)
	case *Rect:
		setIf(&s.Width, p.Width)
		setIf(&s.Height, p.Height)
		setIf(&s.Fill, p.Fill)
		setIf(&s.Stroke.Color, p.Stroke)
		setIf(&s.Stroke.Width, p.StrokeWidth)
		rejectText(reject, p)
		reject("radius", p.Radius != nil)
		reject("points", p.Points != nil)
		reject("src", p.Src != nil)
	case *Circle:
		setIf(&s.Radius, p.Radius)
		setIf(&s.Fill, p.Fill)
		setIf(&s.Stroke.Color, p.Stroke)
		setIf(&s.Stroke.Width, p.StrokeWidth)
		rejectText(reject, p)
		reject("width", p.Width != nil)
		reject("height", p.Height != nil)
		reject("points", p.Points != nil)
		reject("src", p.Src != nil)
	case *Line:
		setIf(&s.Points, p.Points)
		setIf(&s.Stroke.Color, p.Stroke)
		setIf(&s.Stroke.Width, p.StrokeWidth)
		rejectText(reject, p)
		reject("width", p.Width != nil)
		reject("height", p.Height != nil)
		reject("radius", p.Radius != nil)
		reject("fill", p.Fill != nil)
		reject("src", p.Src != nil)
	case *Image:
		setIf(&s.Width, p.Width)
		setIf(&s.Height, p.Height)
		setIf(&s.Src, p.Src)
		rejectText(reject, p)
		reject("radius", p.Radius != nil)
		reject("fill", p.Fill != nil)
		reject("stroke", p.Stroke != nil)
		reject("strokeWidth", p.StrokeWidth != nil)
		reject("points", p.Points != nil)
	case *Unknown:
		// only the common fields are understood
		if !(Patch{Content: p.Content, FontSize: p.FontSize, Bold: p.Bold, Width: p.Width, Height: p.Height,
			Radius: p.Radius, Fill: p.Fill, Stroke: p.Stroke, StrokeWidth: p.StrokeWidth, Points: p.Points, Src: p.Src}).Empty() {
			stray = append(stray, "kind-specific fields")
		}
	}
	if len(stray) > 0 {
		return e, invalidf("element %q (%s): %s not applicable", e.ID, e.Kind(), strings.Join(stray, ", "))
	}
	if err := out.Validate(); err != nil {
		return e, err
	}
	return out, nil
}

func rejectText(reject func(string, bool), p Patch) {
	reject("content", p.Content != nil)
	reject("fontSize", p.FontSize != nil)
	reject("bold", p.Bold != nil)
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}
