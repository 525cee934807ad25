/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package transform turns the final state of an interactive move/resize/rotate
// gesture into a geometry patch for the element it targets.
package transform

import (
	"errors"
	"log/slog"
	"math"

	"pdfdesigner/internal/element"
	applog "pdfdesigner/internal/log"
	"pdfdesigner/internal/store"
)

// Gesture is the end-of-gesture state reported by the editing surface.
// Scale factors are relative to the element's stored size; zero means 1.
type Gesture struct {
	ID       string  `json:"id"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	ScaleX   float64 `json:"scaleX"`
	ScaleY   float64 `json:"scaleY"`
	Rotation float64 `json:"rotation"`
}

func scale(f float64) float64 {
	if f == 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 1
	}
	// a mirrored handle drag reports a negative factor; sizes stay positive
	return math.Abs(f)
}

// PatchFor derives the canonical patch for el from g. Position and rotation
// are copied through for every kind. Rectangles and images scale width and
// height; circles scale the radius by ScaleX only, ignoring ScaleY.
func PatchFor(el element.Element, g Gesture) element.Patch {
	p := element.Patch{X: element.Ptr(g.X), Y: element.Ptr(g.Y), Rotation: element.Ptr(g.Rotation)}
	sx, sy := scale(g.ScaleX), scale(g.ScaleY)
	switch s := el.Shape.(type) {
	case *element.Rect:
		p.Width, p.Height = element.Ptr(s.Width*sx), element.Ptr(s.Height*sy)
	case *element.Image:
		p.Width, p.Height = element.Ptr(s.Width*sx), element.Ptr(s.Height*sy)
	case *element.Circle:
		p.Radius = element.Ptr(s.Radius * sx)
	}
	return p
}

// Apply commits g to the store as exactly one history entry. A gesture whose
// target no longer exists is dropped without error and without a commit.
func Apply(s *store.Store, g Gesture) (element.Element, bool, error) {
	l := applog.WithOperation(applog.WithComponent("transform"), "apply")
	el, err := s.Get(g.ID)
	if errors.Is(err, store.ErrNotFound) {
		l.Warn("gesture targets missing element, dropped", slog.String("id", g.ID))
		return element.Element{}, false, nil
	}
	if err != nil {
		return element.Element{}, false, err
	}
	updated, err := s.Update(g.ID, PatchFor(el, g))
	if errors.Is(err, store.ErrNotFound) {
		// removed between Get and Update
		l.Warn("gesture targets missing element, dropped", slog.String("id", g.ID))
		return element.Element{}, false, nil
	}
	if err != nil {
		return element.Element{}, false, err
	}
	return updated, true, nil
}
