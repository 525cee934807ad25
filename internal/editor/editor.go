/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor ties the element store, history, selection, image
// acquisition and the compiler into the object the CLI and HTTP surface
// drive. It owns no state of its own beyond wiring; the store remains the
// single writer of the document.
package editor

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"pdfdesigner/internal/compile"
	"pdfdesigner/internal/element"
	"pdfdesigner/internal/geom"
	"pdfdesigner/internal/history"
	"pdfdesigner/internal/imageload"
	applog "pdfdesigner/internal/log"
	"pdfdesigner/internal/placeholder"
	"pdfdesigner/internal/render"
	"pdfdesigner/internal/selection"
	"pdfdesigner/internal/store"
	"pdfdesigner/internal/textmetrics"
	"pdfdesigner/internal/transform"
)

// Options configures an Editor. Zero values give the defaults of the
// original desktop editor: A4, sequential ids, unbounded history, the
// built-in sample data.
type Options struct {
	IDs             store.IDScheme
	HistoryMaxDepth int
	Page            geom.Rect
	SampleData      placeholder.Context
	FontFile        string
	Title           string
	PreviewDPI      int
	OnCommit        store.CommitFunc
}

// Editor is safe for concurrent use to the extent its store is; image
// acquisitions commit from background goroutines.
type Editor struct {
	store    *store.Store
	acq      *imageload.Acquirer
	page     geom.Rect
	sample   placeholder.Context
	metrics  textmetrics.Provider
	fontFile string
	title    string
	dpi      int
	log      *slog.Logger
}

func New(opts Options) *Editor {
	e := &Editor{
		store: store.New(store.Options{
			IDs:       opts.IDs,
			History:   history.NewManager(history.Config{MaxDepth: opts.HistoryMaxDepth}),
			Selection: &selection.Selection{},
			OnCommit:  opts.OnCommit,
		}),
		acq:      imageload.NewAcquirer(),
		page:     opts.Page,
		sample:   opts.SampleData,
		metrics:  textmetrics.BasicProvider{},
		fontFile: opts.FontFile,
		title:    opts.Title,
		dpi:      opts.PreviewDPI,
		log:      applog.WithComponent("editor"),
	}
	if e.page.W <= 0 || e.page.H <= 0 {
		e.page = geom.A4
	}
	if e.sample == nil {
		e.sample = placeholder.SampleData()
	}
	if opts.FontFile != "" {
		if p, err := textmetrics.LoadOpenType(opts.FontFile); err != nil {
			e.log.Warn("font metrics unavailable, using built-in face", slog.String("file", opts.FontFile), slog.Any("err", err))
		} else {
			e.metrics = p
		}
	}
	return e
}

func (e *Editor) Store() *store.Store             { return e.store }
func (e *Editor) Selection() *selection.Selection { return e.store.Selection() }
func (e *Editor) Page() geom.Rect                 { return e.page }
func (e *Editor) Metrics() textmetrics.Provider   { return e.metrics }
func (e *Editor) SampleData() placeholder.Context { return e.sample }
func (e *Editor) Elements() element.Document      { return e.store.List() }
func (e *Editor) Undo() bool                      { return e.store.Undo() }
func (e *Editor) Redo() bool                      { return e.store.Redo() }
func (e *Editor) Remove(id string)                { e.store.Remove(id) }
func (e *Editor) Reorder(id string, delta int)    { e.store.Reorder(id, delta) }
func (e *Editor) BringForward(id string)          { e.store.Reorder(id, 1) }
func (e *Editor) SendBackward(id string)          { e.store.Reorder(id, -1) }

// Get returns a copy of the element with the given id.
func (e *Editor) Get(id string) (element.Element, error) { return e.store.Get(id) }

// Update applies patch to the element with the given id.
func (e *Editor) Update(id string, patch element.Patch) (element.Element, error) {
	return e.store.Update(id, patch)
}

// Add inserts an element built from spec.
func (e *Editor) Add(spec element.Spec) string { return e.store.Add(spec) }

// Transform commits the end state of a gesture as a single history entry.
func (e *Editor) Transform(g transform.Gesture) (element.Element, bool, error) {
	return transform.Apply(e.store, g)
}

// InsertField appends a {{key}} token to a text element's content.
func (e *Editor) InsertField(id, key string) (element.Element, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return element.Element{}, fmt.Errorf("%w: empty field key", element.ErrInvalid)
	}
	el, err := e.store.Get(id)
	if err != nil {
		return element.Element{}, err
	}
	t, ok := el.Shape.(*element.Text)
	if !ok {
		return element.Element{}, fmt.Errorf("%w: element %q is a %s, not text", element.ErrInvalid, id, el.Kind())
	}
	content := placeholder.AppendField(t.Content, key)
	return e.store.Update(id, element.Patch{Content: &content})
}

// DeleteSelected removes the selected element, if any.
func (e *Editor) DeleteSelected() bool {
	id, ok := e.Selection().Get()
	if !ok {
		return false
	}
	e.store.Remove(id)
	return true
}

// ElementAt returns the topmost element whose outline contains (x, y).
func (e *Editor) ElementAt(x, y float64) (string, bool) {
	id := geom.TopmostAt(e.store.List(), geom.Pt{X: x, Y: y}, e.metrics)
	return id, id != ""
}

// SelectAt selects the topmost element at (x, y), or clears the selection
// when the point hits nothing.
func (e *Editor) SelectAt(x, y float64) (string, bool) {
	id, ok := e.ElementAt(x, y)
	if !ok {
		e.Selection().Clear()
		return "", false
	}
	e.Selection().Set(id)
	return id, true
}

// OffPage lists elements whose rotated bounds leave the page.
func (e *Editor) OffPage() []string {
	return geom.OffPage(e.store.List(), e.page, e.metrics)
}

// Fields returns the placeholder keys referenced by text elements, in paint
// order, each once.
func (e *Editor) Fields() []string {
	seen := map[string]bool{}
	var keys []string
	for _, el := range e.store.List() {
		t, ok := el.Shape.(*element.Text)
		if !ok {
			continue
		}
		for _, k := range placeholder.Keys(t.Content) {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	return keys
}

// Compile compiles the current document. A nil ctx uses the sample data.
func (e *Editor) Compile(ctx placeholder.Context) compile.ContentTree {
	if ctx == nil {
		ctx = e.sample
	}
	tree := compile.Compile(e.store.List(), ctx)
	for _, id := range tree.Skipped {
		e.log.Warn("element of unknown kind skipped at compile", slog.String("id", id))
	}
	return tree
}

func (e *Editor) renderOptions() render.Options {
	return render.Options{Page: e.page, FontFile: e.fontFile, Title: e.title, DPI: e.dpi}
}

// ExportPDF compiles against ctx and writes a PDF.
func (e *Editor) ExportPDF(w io.Writer, ctx placeholder.Context) error {
	e.warnOffPage()
	return render.PDF(w, e.Compile(ctx), e.renderOptions())
}

// ExportSVG compiles against ctx and writes an SVG document.
func (e *Editor) ExportSVG(w io.Writer, ctx placeholder.Context) error {
	e.warnOffPage()
	return render.SVG(w, e.Compile(ctx), e.renderOptions())
}

// ExportPNG compiles against ctx and writes a raster preview.
func (e *Editor) ExportPNG(w io.Writer, ctx placeholder.Context) error {
	return render.PNG(w, e.Compile(ctx), e.renderOptions())
}

func (e *Editor) warnOffPage() {
	if ids := e.OffPage(); len(ids) > 0 {
		e.log.Warn("elements extend past the page", slog.Any("ids", ids))
	}
}

// ExportJSON returns the element list in its wire format.
func (e *Editor) ExportJSON() ([]byte, error) {
	return element.MarshalDocument(e.store.List())
}

// ImportJSON validates data and replaces the document as one history entry.
func (e *Editor) ImportJSON(data []byte) error {
	doc, err := element.ParseDocument(data)
	if err != nil {
		return err
	}
	if err := e.store.Replace(doc); err != nil {
		return err
	}
	e.log.Info("document imported", slog.Int("elements", len(doc)))
	return nil
}
