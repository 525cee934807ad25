/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package history keeps the undo/redo stacks of document snapshots.
package history

import (
	"sync"

	"pdfdesigner/internal/element"
)

// Config controls depth caps.
type Config struct {
	// MaxDepth limits the number of undo entries kept (0 means unlimited).
	// Oldest entries are dropped first.
	MaxDepth int
}

// Manager provides linear (non-branching) undo/redo over document snapshots.
// Snapshots are stored as given; callers must not mutate a document after
// handing it over. It is safe for concurrent use.
type Manager struct {
	cfg    Config
	mu     sync.Mutex
	past   []element.Document // most recent last
	future []element.Document // most recent last; the next redo is future[len-1]
}

func NewManager(cfg Config) *Manager {
	if cfg.MaxDepth < 0 {
		cfg.MaxDepth = 0
	}
	return &Manager{cfg: cfg}
}

// Commit records the document as it was before a mutation and invalidates redo.
func (m *Manager) Commit(prev element.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.past = append(m.past, prev)
	m.future = nil
	m.enforceCapsLocked()
}

// Undo pops the most recent snapshot and remembers current for redo.
// It returns false when there is nothing to undo.
func (m *Manager) Undo(current element.Document) (element.Document, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.past)
	if n == 0 {
		return nil, false
	}
	prev := m.past[n-1]
	m.past[n-1] = nil
	m.past = m.past[:n-1]
	m.future = append(m.future, current)
	return prev, true
}

// Redo is the mirror of Undo.
func (m *Manager) Redo(current element.Document) (element.Document, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.future)
	if n == 0 {
		return nil, false
	}
	next := m.future[n-1]
	m.future[n-1] = nil
	m.future = m.future[:n-1]
	m.past = append(m.past, current)
	m.enforceCapsLocked()
	return next, true
}

func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.past) > 0
}

func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.future) > 0
}

// Stats returns current stack depths for diagnostics.
func (m *Manager) Stats() (undoDepth, redoDepth int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.past), len(m.future)
}

// Clear drops both stacks.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.past, m.future = nil, nil
}

func (m *Manager) enforceCapsLocked() {
	if m.cfg.MaxDepth > 0 && len(m.past) > m.cfg.MaxDepth {
		toDrop := len(m.past) - m.cfg.MaxDepth
		m.past = append([]element.Document{}, m.past[toDrop:]...)
	}
}
