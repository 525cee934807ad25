/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package history

import (
	"reflect"
	"testing"

	"pdfdesigner/internal/element"
)

func doc(ids ...string) element.Document {
	d := element.Document{}
	for _, id := range ids {
		d = append(d, element.Element{ID: id, Shape: &element.Rect{Width: 1, Height: 1}})
	}
	return d
}

func TestUndoRedoBasic(t *testing.T) {
	m := NewManager(Config{})
	m.Commit(doc())
	m.Commit(doc("a"))
	current := doc("a", "b")

	prev, ok := m.Undo(current)
	if !ok || !reflect.DeepEqual(prev.IDs(), []string{"a"}) {
		t.Fatalf("undo expected [a], got ok=%v %v", ok, prev.IDs())
	}
	next, ok := m.Redo(prev)
	if !ok || !reflect.DeepEqual(next, current) {
		t.Fatalf("redo expected %v, got ok=%v %v", current.IDs(), ok, next.IDs())
	}
	if u, r := m.Stats(); u != 2 || r != 0 {
		t.Fatalf("expected depths 2/0, got %d/%d", u, r)
	}
}

func TestEmptyStacksAreNoOps(t *testing.T) {
	m := NewManager(Config{})
	if _, ok := m.Undo(doc("x")); ok {
		t.Fatalf("undo on empty history should report false")
	}
	if _, ok := m.Redo(doc("x")); ok {
		t.Fatalf("redo on empty history should report false")
	}
	if m.CanUndo() || m.CanRedo() {
		t.Fatalf("fresh manager should have nothing to undo or redo")
	}
}

func TestCommitClearsFuture(t *testing.T) {
	m := NewManager(Config{})
	m.Commit(doc())
	cur, _ := m.Undo(doc("a"))
	if !m.CanRedo() {
		t.Fatalf("expected redo after undo")
	}
	m.Commit(cur)
	if m.CanRedo() {
		t.Fatalf("commit after undo must discard the redo branch")
	}
	if _, ok := m.Redo(doc("b")); ok {
		t.Fatalf("redo after fresh commit should be a no-op")
	}
}

func TestUndoAllRedoAllRestoresFinal(t *testing.T) {
	m := NewManager(Config{})
	states := []element.Document{doc(), doc("a"), doc("a", "b"), doc("a", "b", "c")}
	for _, s := range states[:len(states)-1] {
		m.Commit(s)
	}
	cur := states[len(states)-1]
	for i := 0; i < 3; i++ {
		var ok bool
		if cur, ok = m.Undo(cur); !ok {
			t.Fatalf("undo %d failed", i)
		}
	}
	if len(cur) != 0 {
		t.Fatalf("expected initial empty document, got %v", cur.IDs())
	}
	for i := 0; i < 3; i++ {
		var ok bool
		if cur, ok = m.Redo(cur); !ok {
			t.Fatalf("redo %d failed", i)
		}
	}
	if !reflect.DeepEqual(cur, states[3]) {
		t.Fatalf("expected final state, got %v", cur.IDs())
	}
}

func TestMaxDepthDropsOldest(t *testing.T) {
	m := NewManager(Config{MaxDepth: 2})
	m.Commit(doc())
	m.Commit(doc("a"))
	m.Commit(doc("a", "b"))
	if u, _ := m.Stats(); u != 2 {
		t.Fatalf("expected cap of 2, got %d", u)
	}
	cur := doc("a", "b", "c")
	cur, _ = m.Undo(cur)
	cur, _ = m.Undo(cur)
	if !reflect.DeepEqual(cur.IDs(), []string{"a"}) {
		t.Fatalf("oldest snapshot should have been dropped, got %v", cur.IDs())
	}
	if _, ok := m.Undo(cur); ok {
		t.Fatalf("expected history exhausted")
	}
	m.Clear()
	if m.CanRedo() {
		t.Fatalf("clear should drop redo entries")
	}
}
