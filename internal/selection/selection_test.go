/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package selection

import "testing"

func TestSelection(t *testing.T) {
	var s Selection
	if _, ok := s.Get(); ok {
		t.Fatalf("zero selection should be empty")
	}
	s.Set("rect-1")
	if id, ok := s.Get(); !ok || id != "rect-1" {
		t.Fatalf("expected rect-1, got %q %v", id, ok)
	}
	if s.ClearIf("rect-2") {
		t.Fatalf("ClearIf with another id must not clear")
	}
	if !s.ClearIf("rect-1") {
		t.Fatalf("ClearIf with the selected id should clear")
	}
	if _, ok := s.Get(); ok {
		t.Fatalf("selection should be empty after ClearIf")
	}
}

func TestRetain(t *testing.T) {
	var s Selection
	s.Set("text-1")
	s.Retain(func(string) bool { return true })
	if _, ok := s.Get(); !ok {
		t.Fatalf("retain with keep=true must not clear")
	}
	s.Retain(func(id string) bool { return id != "text-1" })
	if _, ok := s.Get(); ok {
		t.Fatalf("retain should clear a vanished id")
	}
	s.Set("x")
	s.Clear()
	if _, ok := s.Get(); ok {
		t.Fatalf("clear should empty the selection")
	}
}
