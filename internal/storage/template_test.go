/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"pdfdesigner/internal/element"
)

func sampleDoc() element.Document {
	return element.Document{
		{ID: "text-1", X: 50, Y: 100, Shape: &element.Text{Content: "{{new_field}}", FontSize: 18}, Seq: 1},
		{ID: "rect-1", X: 100, Y: 100, Z: 1, Shape: &element.Rect{Width: 100, Height: 60, Fill: "#87ceeb", Stroke: element.Stroke{Color: "#000000", Width: 1}}, Seq: 2},
	}
}

// stripSeq clears store-assigned sequence numbers, which are not persisted.
func stripSeq(d element.Document) element.Document {
	out := d.Clone()
	for i := range out {
		out[i].Seq = 0
	}
	return out
}

func TestSaveAndOpenTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoice.json")
	if err := SaveTemplate(path, sampleDoc()); err != nil {
		t.Fatalf("save: %v", err)
	}
	doc, err := OpenTemplate(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if !reflect.DeepEqual(doc, stripSeq(sampleDoc())) {
		t.Fatalf("round trip mismatch: %+v", doc)
	}
	// no backup for the first save
	if b, _ := Backups(path); len(b) != 0 {
		t.Fatalf("unexpected backups %v", b)
	}
	// temp files are cleaned up
	ents, _ := os.ReadDir(filepath.Dir(path))
	for _, e := range ents {
		if e.Name() != "invoice.json" {
			t.Fatalf("unexpected file %s", e.Name())
		}
	}
}

func TestOpenTemplateFallsBackToBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoice.json")
	first := sampleDoc()[:1]
	if err := SaveTemplate(path, first); err != nil {
		t.Fatalf("save 1: %v", err)
	}
	if err := SaveTemplate(path, sampleDoc()); err != nil {
		t.Fatalf("save 2: %v", err)
	}
	backups, err := Backups(path)
	if err != nil || len(backups) != 1 {
		t.Fatalf("expected one backup, got %v (%v)", backups, err)
	}
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := OpenTemplate(path)
	if err != nil {
		t.Fatalf("open with backup: %v", err)
	}
	if !reflect.DeepEqual(doc, stripSeq(first)) {
		t.Fatalf("expected the backed-up document, got %+v", doc)
	}
}

func TestOpenTemplateErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := OpenTemplate(filepath.Join(dir, "missing.json")); err == nil {
		t.Fatalf("expected error for missing file without backups")
	}
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`[{"id":"r","type":"rect","x":0,"y":0}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := OpenTemplate(bad); err == nil {
		t.Fatalf("expected schema error")
	}
	if err := SaveTemplate("  ", nil); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestBackupsSortedByStamp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.json")
	bdir := filepath.Join(dir, BackupsDirName)
	if err := os.MkdirAll(bdir, 0o755); err != nil {
		t.Fatal(err)
	}
	older := time.Date(2025, 1, 2, 3, 4, 5, 0, time.Local).Format(backupStamp)
	newer := time.Date(2025, 7, 10, 0, 0, 0, 0, time.Local).Format(backupStamp)
	for _, name := range []string{"a.json." + newer + ".bak", "a.json." + older + ".bak", "b.json." + older + ".bak"} {
		if err := os.WriteFile(filepath.Join(bdir, name), []byte("[]"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	got, err := Backups(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || filepath.Base(got[1]) != "a.json."+newer+".bak" {
		t.Fatalf("unexpected backups %v", got)
	}
}
