/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package selection tracks the single selected element of an editor.
package selection

import "sync"

// Selection holds at most one element id. It does not own the element; the
// store clears it when the referenced element goes away.
type Selection struct {
	mu sync.RWMutex
	id string
}

// Get returns the selected id and whether one is set.
func (s *Selection) Get() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id, s.id != ""
}

// Set selects id. An empty id clears the selection.
func (s *Selection) Set(id string) {
	s.mu.Lock()
	s.id = id
	s.mu.Unlock()
}

func (s *Selection) Clear() { s.Set("") }

// ClearIf clears the selection only when it currently points at id.
func (s *Selection) ClearIf(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id == "" || s.id != id {
		return false
	}
	s.id = ""
	return true
}

// Retain clears the selection when keep reports the selected id is gone.
func (s *Selection) Retain(keep func(id string) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.id != "" && !keep(s.id) {
		s.id = ""
	}
}
