/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package store owns the canonical, z-ordered element list of a template and
// reports every committed mutation to the undo history.
//
// The current document is treated as immutable: every mutation builds a new
// slice and hands the previous one to history, so snapshots never alias live
// state.
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"pdfdesigner/internal/element"
	"pdfdesigner/internal/history"
	applog "pdfdesigner/internal/log"
	"pdfdesigner/internal/selection"
)

// ErrNotFound is returned by operations that require an existing element.
var ErrNotFound = errors.New("not found")

// IDScheme selects how new element ids are generated.
type IDScheme string

const (
	// IDSequential yields "<kind>-<n>" with a per-kind counter.
	IDSequential IDScheme = "sequential"
	// IDUUID yields random UUIDs.
	IDUUID IDScheme = "uuid"
)

// CommitFunc observes committed documents (after the mutation).
type CommitFunc func(op string, doc element.Document)

// Options configures a Store. Zero values are usable.
type Options struct {
	IDs       IDScheme
	History   *history.Manager     // nil creates an unbounded manager
	Selection *selection.Selection // nil creates a private selection
	OnCommit  CommitFunc
}

// Store is the single writer of a template's elements. Methods are safe for
// concurrent use; mutations are serialized.
type Store struct {
	mu       sync.Mutex
	doc      element.Document
	seq      uint64
	counters map[element.Kind]int
	used     map[string]bool
	ids      IDScheme
	hist     *history.Manager
	sel      *selection.Selection
	onCommit CommitFunc
	log      *slog.Logger
}

func New(opts Options) *Store {
	s := &Store{
		doc:      element.Document{},
		counters: make(map[element.Kind]int),
		used:     make(map[string]bool),
		ids:      opts.IDs,
		hist:     opts.History,
		sel:      opts.Selection,
		onCommit: opts.OnCommit,
		log:      applog.WithComponent("store"),
	}
	if s.ids == "" {
		s.ids = IDSequential
	}
	if s.hist == nil {
		s.hist = history.NewManager(history.Config{})
	}
	if s.sel == nil {
		s.sel = &selection.Selection{}
	}
	return s
}

// History exposes the undo manager backing the store.
func (s *Store) History() *history.Manager { return s.hist }

// Selection exposes the selection the store keeps consistent.
func (s *Store) Selection() *selection.Selection { return s.sel }

// List returns the elements ordered by (z-order, insertion order). The
// result is a deep copy.
func (s *Store) List() element.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// Len returns the number of elements.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.doc)
}

// Get returns a copy of the element with the given id.
func (s *Store) Get(id string) (element.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.doc.Index(id)
	if i < 0 {
		return element.Element{}, notFound(id)
	}
	return s.doc[i].Clone(), nil
}

// Add inserts a new element built from spec and returns its id. Z defaults to
// the current element count. A nil shape is a programming error and panics.
func (s *Store) Add(spec element.Spec) string {
	if spec.Shape == nil {
		panic("store: Add with nil shape")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	el := element.Element{
		ID:       s.nextIDLocked(spec.Shape.Kind()),
		X:        spec.X,
		Y:        spec.Y,
		Z:        len(s.doc),
		Rotation: spec.Rotation,
		Shape:    element.Element{Shape: spec.Shape}.Clone().Shape,
	}
	if spec.Z != nil {
		el.Z = *spec.Z
	}
	s.seq++
	el.Seq = s.seq
	next := make(element.Document, 0, len(s.doc)+1)
	next = append(next, s.doc...)
	next = append(next, el)
	s.commitLocked("add", next)
	s.log.Debug("element added", slog.String("id", el.ID), slog.String("kind", string(el.Kind())), slog.Int("z", el.Z))
	return el.ID
}

// Update merges patch into the element with the given id and returns the
// updated copy. It fails with ErrNotFound for unknown ids and with
// element.ErrInvalid when the patch is not applicable; the store is unchanged
// on failure. An empty patch is not committed.
func (s *Store) Update(id string, patch element.Patch) (element.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.doc.Index(id)
	if i < 0 {
		return element.Element{}, notFound(id)
	}
	if patch.Empty() {
		return s.doc[i].Clone(), nil
	}
	updated, err := element.Apply(s.doc[i], patch)
	if err != nil {
		return element.Element{}, err
	}
	next := make(element.Document, len(s.doc))
	copy(next, s.doc)
	next[i] = updated
	s.commitLocked("update", next)
	s.log.Debug("element updated", slog.String("id", id))
	return updated.Clone(), nil
}

// Remove deletes the element with the given id. Unknown ids are ignored.
// A selection pointing at id is cleared.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.doc.Index(id)
	if i < 0 {
		return
	}
	next := make(element.Document, 0, len(s.doc)-1)
	next = append(next, s.doc[:i]...)
	next = append(next, s.doc[i+1:]...)
	s.commitLocked("remove", next)
	s.sel.ClearIf(id)
	s.log.Debug("element removed", slog.String("id", id))
}

// Reorder shifts the element's z-order by delta without renumbering its
// siblings. Unknown ids and a zero delta are ignored.
func (s *Store) Reorder(id string, delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.doc.Index(id)
	if i < 0 || delta == 0 {
		return
	}
	next := make(element.Document, len(s.doc))
	copy(next, s.doc)
	next[i].Z += delta
	s.commitLocked("reorder", next)
	s.log.Debug("element reordered", slog.String("id", id), slog.Int("delta", delta), slog.Int("z", next[i].Z))
}

// Replace swaps the whole document for doc as one history entry. Ids must be
// unique and every element valid; insertion order is taken from doc.
func (s *Store) Replace(doc element.Document) error {
	seen := make(map[string]bool, len(doc))
	for _, e := range doc {
		if seen[e.ID] {
			return fmt.Errorf("%w: duplicate id %q", element.ErrInvalid, e.ID)
		}
		seen[e.ID] = true
		if err := e.Validate(); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make(element.Document, len(doc))
	for i, e := range doc {
		e = e.Clone()
		s.seq++
		e.Seq = s.seq
		s.reserveLocked(e.ID)
		next[i] = e
	}
	s.commitLocked("replace", next)
	s.sel.Retain(func(id string) bool { return next.Index(id) >= 0 })
	s.log.Debug("document replaced", slog.Int("elements", len(next)))
	return nil
}

// Undo restores the previous document. It reports false when history is
// exhausted.
func (s *Store) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.hist.Undo(s.doc)
	if !ok {
		return false
	}
	s.restoreLocked("undo", prev)
	return true
}

// Redo re-applies the most recently undone document.
func (s *Store) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, ok := s.hist.Redo(s.doc)
	if !ok {
		return false
	}
	s.restoreLocked("redo", next)
	return true
}

func (s *Store) restoreLocked(op string, doc element.Document) {
	s.doc = doc
	s.sel.Retain(func(id string) bool { return doc.Index(id) >= 0 })
	if s.onCommit != nil {
		s.onCommit(op, doc.Clone())
	}
	s.log.Debug("history "+op, slog.Int("elements", len(doc)))
}

// commitLocked sorts next, records the current document in history and
// installs next as current.
func (s *Store) commitLocked(op string, next element.Document) {
	sortDocument(next)
	s.hist.Commit(s.doc)
	s.doc = next
	if s.onCommit != nil {
		s.onCommit(op, next.Clone())
	}
}

// sortDocument orders by z ascending then insertion sequence ascending.
func sortDocument(d element.Document) {
	sort.SliceStable(d, func(i, j int) bool {
		if d[i].Z != d[j].Z {
			return d[i].Z < d[j].Z
		}
		return d[i].Seq < d[j].Seq
	})
}

// nextIDLocked returns an id that was never handed out by this store, even
// for elements that have since been removed or undone.
func (s *Store) nextIDLocked(kind element.Kind) string {
	for {
		var id string
		if s.ids == IDUUID {
			id = uuid.NewString()
		} else {
			s.counters[kind]++
			id = string(kind) + "-" + strconv.Itoa(s.counters[kind])
		}
		if !s.used[id] {
			s.used[id] = true
			return id
		}
	}
}

func (s *Store) reserveLocked(id string) { s.used[id] = true }

func notFound(id string) error { return fmt.Errorf("element %q: %w", id, ErrNotFound) }
