/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package transform

import (
	"testing"

	"pdfdesigner/internal/element"
	"pdfdesigner/internal/store"
)

func TestPatchForKinds(t *testing.T) {
	g := Gesture{X: 10, Y: 20, ScaleX: 2, ScaleY: 1.5, Rotation: 45}
	tests := []struct {
		name  string
		shape element.Shape
		check func(t *testing.T, p element.Patch)
	}{
		{"rect", &element.Rect{Width: 100, Height: 60}, func(t *testing.T, p element.Patch) {
			if *p.Width != 200 || *p.Height != 90 || p.Radius != nil {
				t.Fatalf("rect patch: %+v", p)
			}
		}},
		{"image", &element.Image{Width: 150, Height: 150}, func(t *testing.T, p element.Patch) {
			if *p.Width != 300 || *p.Height != 225 {
				t.Fatalf("image patch: %+v", p)
			}
		}},
		{"circle", &element.Circle{Radius: 40}, func(t *testing.T, p element.Patch) {
			// only the horizontal factor applies
			if *p.Radius != 80 || p.Width != nil || p.Height != nil {
				t.Fatalf("circle patch: %+v", p)
			}
		}},
		{"text", &element.Text{Content: "x", FontSize: 18}, func(t *testing.T, p element.Patch) {
			if p.FontSize != nil || p.Width != nil {
				t.Fatalf("text patch must carry no size fields: %+v", p)
			}
		}},
		{"line", &element.Line{Points: [4]float64{0, 0, 10, 0}}, func(t *testing.T, p element.Patch) {
			if p.Points != nil || p.Width != nil {
				t.Fatalf("line patch must carry no size fields: %+v", p)
			}
		}},
	}
	for _, tc := range tests {
		p := PatchFor(element.Element{ID: "x", Shape: tc.shape}, g)
		if *p.X != 10 || *p.Y != 20 || *p.Rotation != 45 {
			t.Fatalf("%s: position/rotation not copied: %+v", tc.name, p)
		}
		tc.check(t, p)
	}
}

func TestPatchForDegenerateScale(t *testing.T) {
	el := element.Element{ID: "r", Shape: &element.Rect{Width: 10, Height: 10}}
	p := PatchFor(el, Gesture{ScaleX: 0, ScaleY: -2})
	if *p.Width != 10 || *p.Height != 20 {
		t.Fatalf("expected 10x20, got %vx%v", *p.Width, *p.Height)
	}
}

func TestApplyIsOneHistoryEntry(t *testing.T) {
	s := store.New(store.Options{})
	id := s.Add(element.Spec{X: 100, Y: 100, Shape: &element.Rect{Width: 100, Height: 60, Fill: "#87ceeb"}})
	before, _ := s.History().Stats()

	el, ok, err := Apply(s, Gesture{ID: id, X: 100, Y: 100, ScaleX: 2, ScaleY: 1.5})
	if err != nil || !ok {
		t.Fatalf("apply: ok=%v err=%v", ok, err)
	}
	r := el.Shape.(*element.Rect)
	if r.Width != 200 || r.Height != 90 {
		t.Fatalf("expected 200x90, got %vx%v", r.Width, r.Height)
	}
	if after, _ := s.History().Stats(); after != before+1 {
		t.Fatalf("expected exactly one history entry, got %d", after-before)
	}
	if !s.Undo() {
		t.Fatalf("undo failed")
	}
	got, _ := s.Get(id)
	if r := got.Shape.(*element.Rect); r.Width != 100 || r.Height != 60 {
		t.Fatalf("undo should restore 100x60 in one step, got %vx%v", r.Width, r.Height)
	}
}

func TestApplyMissingTargetIsDropped(t *testing.T) {
	s := store.New(store.Options{})
	id := s.Add(element.Spec{Shape: &element.Circle{Radius: 40}})
	s.Remove(id)
	before, _ := s.History().Stats()
	_, ok, err := Apply(s, Gesture{ID: id, ScaleX: 3})
	if err != nil || ok {
		t.Fatalf("expected silent drop, got ok=%v err=%v", ok, err)
	}
	if after, _ := s.History().Stats(); after != before {
		t.Fatalf("dropped gesture must not commit")
	}
}
