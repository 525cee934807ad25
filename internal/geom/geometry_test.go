/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package geom

import (
	"math"
	"reflect"
	"testing"

	"pdfdesigner/internal/element"
)

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestRectContainsAndUnion(t *testing.T) {
	r := R(10, 20, 100, 50)
	if !r.Contains(Pt{10, 20}) || !r.Contains(Pt{110, 70}) {
		t.Fatalf("expected edge points to be contained")
	}
	u := r.Union(R(0, 0, 5, 5))
	if u != R(0, 0, 110, 70) {
		t.Fatalf("unexpected union: %+v", u)
	}
	if !R(1, 1, 2, 2).Inside(r.Union(R(0, 0, 1, 1))) {
		t.Fatalf("expected inside")
	}
}

func TestAffineBasicAndInvert(t *testing.T) {
	m := Translate(10, 5).Mul(Scale(2, 3))
	p := m.Apply(Pt{1, 1})
	if p.X != 12 || p.Y != 8 {
		t.Fatalf("unexpected transform result: %+v", p)
	}
	q := m.Invert().Apply(p)
	if !near(q.X, 1) || !near(q.Y, 1) {
		t.Fatalf("invert round trip: %+v", q)
	}
}

func TestRotateAboutIsClockwiseOnScreen(t *testing.T) {
	p := RotateAbout(Pt{100, 100}, 90).Apply(Pt{110, 100})
	if !near(p.X, 100) || !near(p.Y, 110) {
		t.Fatalf("expected (100,110), got %+v", p)
	}
}

func TestElementBounds(t *testing.T) {
	circle := element.Element{ID: "c", X: 200, Y: 200, Shape: &element.Circle{Radius: 40}}
	if b, _ := ElementBounds(circle, nil); b != R(160, 160, 80, 80) {
		t.Fatalf("circle bounds %+v", b)
	}
	rect := element.Element{ID: "r", X: 0, Y: 0, Rotation: 90, Shape: &element.Rect{Width: 100, Height: 60}}
	b, _ := ElementBounds(rect, nil)
	if !near(b.X, -60) || !near(b.Y, 0) || !near(b.W, 60) || !near(b.H, 100) {
		t.Fatalf("rotated rect bounds %+v", b)
	}
	if _, ok := ElementBounds(element.Element{ID: "u", Shape: &element.Unknown{Type: "star"}}, nil); ok {
		t.Fatalf("unknown kinds have no bounds")
	}
}

func TestHitAndTopmost(t *testing.T) {
	doc := element.Document{
		{ID: "rect-1", X: 100, Y: 100, Shape: &element.Rect{Width: 100, Height: 60}},
		{ID: "circle-1", X: 150, Y: 130, Shape: &element.Circle{Radius: 20}},
	}
	if id := TopmostAt(doc, Pt{150, 130}, nil); id != "circle-1" {
		t.Fatalf("expected circle on top, got %q", id)
	}
	if id := TopmostAt(doc, Pt{105, 105}, nil); id != "rect-1" {
		t.Fatalf("expected rect, got %q", id)
	}
	// corner of the circle's bbox is outside the circle itself
	if Hit(doc[1], Pt{131, 111}, nil) {
		t.Fatalf("bbox corner should miss the circle")
	}
	if id := TopmostAt(doc, Pt{0, 0}, nil); id != "" {
		t.Fatalf("expected miss, got %q", id)
	}
}

func TestOffPageAndPageSize(t *testing.T) {
	doc := element.Document{
		{ID: "in", X: 10, Y: 10, Shape: &element.Rect{Width: 10, Height: 10}},
		{ID: "out", X: 590, Y: 10, Shape: &element.Rect{Width: 10, Height: 10}},
		{ID: "line", Shape: &element.Line{Points: [4]float64{300, 300, 400, 300}, Stroke: element.Stroke{Width: 2}}},
	}
	if got := OffPage(doc, A4, nil); !reflect.DeepEqual(got, []string{"out"}) {
		t.Fatalf("OffPage = %v", got)
	}
	if p, ok := PageSize("Letter"); !ok || p != Letter {
		t.Fatalf("letter lookup failed")
	}
	if p, ok := PageSize("tabloid"); ok || p != A4 {
		t.Fatalf("unknown page size should fall back to A4")
	}
}
