/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"pdfdesigner/internal/config"
	"pdfdesigner/internal/crash"
	"pdfdesigner/internal/editor"
	"pdfdesigner/internal/element"
	"pdfdesigner/internal/geom"
	applog "pdfdesigner/internal/log"
	"pdfdesigner/internal/placeholder"
	"pdfdesigner/internal/server"
	"pdfdesigner/internal/storage"
	"pdfdesigner/internal/store"
	"pdfdesigner/internal/version"
)

func usage(w io.Writer) {
	fmt.Fprintln(w, "PDF Designer")
	fmt.Fprintf(w, "Version: %s\n", version.String())
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  pdfdesigner version|-v|--version                  Show version")
	fmt.Fprintln(w, "  pdfdesigner validate <template.json>              Check a template against the element schema")
	fmt.Fprintln(w, "  pdfdesigner fields <template.json>                List the placeholder keys a template uses")
	fmt.Fprintln(w, "  pdfdesigner compile <template.json> [data] <out>  Render to .pdf, .svg, .png or .json (content tree)")
	fmt.Fprintln(w, "  pdfdesigner serve [template.json]                 Start the HTTP editing API")
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one CLI command and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	cfg, password, err := config.Load()
	if err != nil {
		cfg = config.Defaults()
	}
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	l := applog.WithComponent("cli")
	if err != nil {
		l.Warn("config not loaded, using defaults", slog.Any("err", err))
	}

	target := &crash.Target{}
	defer crash.Recover(target)

	l.Debug("start", slog.Int("args", len(args)))
	if len(args) == 0 {
		usage(stdout)
		return 0
	}
	switch args[0] {
	case "version", "--version", "-v":
		fmt.Fprintln(stdout, "PDF Designer")
		fmt.Fprintln(stdout, version.String())
		return 0
	case "validate":
		if len(args) < 2 {
			fmt.Fprintln(stderr, "validate requires <template.json>")
			usage(stderr)
			return 2
		}
		return cmdValidate(args[1], stdout, stderr)
	case "fields":
		if len(args) < 2 {
			fmt.Fprintln(stderr, "fields requires <template.json>")
			usage(stderr)
			return 2
		}
		doc, err := storage.OpenTemplate(args[1])
		if err != nil {
			return fail(l, stderr, "open failed", err)
		}
		ed := newEditor(cfg, l, args[1], nil)
		if err := ed.Store().Replace(doc); err != nil {
			return fail(l, stderr, "load failed", err)
		}
		for _, k := range ed.Fields() {
			fmt.Fprintln(stdout, k)
		}
		return 0
	case "compile":
		if len(args) < 3 {
			fmt.Fprintln(stderr, "compile requires <template.json> and <out>")
			usage(stderr)
			return 2
		}
		return cmdCompile(cfg, l, target, args[1:], stdout, stderr)
	case "serve":
		var path string
		if len(args) >= 2 {
			path = args[1]
		}
		return cmdServe(cfg, password, l, target, path, stderr)
	}
	usage(stderr)
	return 2
}

func fail(l *slog.Logger, w io.Writer, msg string, err error) int {
	l.Error(msg, slog.Any("err", err))
	fmt.Fprintln(w, "Error:", err)
	return 1
}

func cmdValidate(path string, stdout, stderr io.Writer) int {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	doc, err := element.ParseDocument(data)
	var ve *element.ValidationError
	if errors.As(err, &ve) {
		fmt.Fprintf(stderr, "%s: %d problem(s)\n", path, len(ve.Problems))
		for _, p := range ve.Problems {
			fmt.Fprintln(stderr, "  -", p)
		}
		return 1
	}
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	unknown := 0
	for _, e := range doc {
		if !e.Kind().Known() {
			unknown++
		}
	}
	fmt.Fprintf(stdout, "%s: ok, %d element(s)", path, len(doc))
	if unknown > 0 {
		fmt.Fprintf(stdout, ", %d of unknown kind (kept, not rendered)", unknown)
	}
	fmt.Fprintln(stdout)
	return 0
}

func cmdCompile(cfg config.AppConfig, l *slog.Logger, target *crash.Target, args []string, stdout, stderr io.Writer) int {
	tplPath, outPath := args[0], args[len(args)-1]
	var data placeholder.Context
	if len(args) >= 3 {
		raw, err := os.ReadFile(args[1])
		if err != nil {
			return fail(l, stderr, "read data failed", err)
		}
		if data, err = placeholder.ParseContext(raw); err != nil {
			return fail(l, stderr, "parse data failed", err)
		}
	}

	doc, err := storage.OpenTemplate(tplPath)
	if err != nil {
		return fail(l, stderr, "open failed", err)
	}
	ed := newEditor(cfg, l, tplPath, nil)
	target.Path, target.Snapshot = tplPath, ed.Elements
	if err := ed.Store().Replace(doc); err != nil {
		return fail(l, stderr, "load failed", err)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fail(l, stderr, "create output failed", err)
	}
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(outPath)), ".")
	switch format {
	case "pdf":
		err = ed.ExportPDF(f, data)
	case "svg":
		err = ed.ExportSVG(f, data)
	case "png":
		err = ed.ExportPNG(f, data)
	case "json":
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		err = enc.Encode(ed.Compile(data))
	default:
		err = fmt.Errorf("unsupported output format %q (want pdf, svg, png or json)", format)
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(outPath)
		return fail(l, stderr, "compile failed", err)
	}
	l.Info("compiled", slog.String("template", tplPath), slog.String("out", outPath), slog.String("format", format))
	fmt.Fprintln(stdout, "Wrote", outPath)
	return 0
}

func cmdServe(cfg config.AppConfig, password string, l *slog.Logger, target *crash.Target, path string, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var journal *storage.Journal
	var onCommit store.CommitFunc
	if path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fail(l, stderr, "resolve template path failed", err)
		}
		path = abs
		ctx = applog.ContextWithTemplate(ctx, path)
		if journal, err = storage.OpenJournal(storage.JournalPath(path)); err != nil {
			return fail(l, stderr, "open journal failed", err)
		}
		defer func() {
			if cfg.Editor.JournalKeep > 0 {
				if n, err := journal.Prune(context.Background(), path, cfg.Editor.JournalKeep); err != nil {
					l.Warn("journal prune failed", slog.Any("err", err))
				} else if n > 0 {
					l.Debug("journal pruned", slog.Int64("removed", n))
				}
			}
			_ = journal.Close()
		}()
		onCommit = journal.Recorder(path)
	}

	ed := newEditor(cfg, l, path, onCommit)
	target.Path, target.Snapshot = path, ed.Elements

	if path != "" {
		doc, err := loadForServe(ctx, journal, path)
		if err != nil {
			return fail(l, stderr, "open failed", err)
		}
		if doc != nil {
			if err := ed.Store().Replace(doc); err != nil {
				return fail(l, stderr, "load failed", err)
			}
			ed.Store().History().Clear()
		}
	}

	var catalog *storage.Catalog
	if cfg.Catalog.DSN != "" {
		var err error
		catalog, err = storage.OpenCatalog(ctx, cfg.Catalog.Driver, cfg.Catalog.DSNWithPassword(password))
		if err != nil {
			return fail(l, stderr, "open catalog failed", err)
		}
		defer catalog.Close()
	}

	e := server.New(ed, server.Options{
		BodyLimit:      cfg.Server.BodyLimit,
		RequestLogging: true,
		TemplatePath:   path,
		Catalog:        catalog,
	})
	if err := server.Run(ctx, e, cfg.Server.Addr); err != nil {
		return fail(l, stderr, "server failed", err)
	}
	ed.Wait()
	if path != "" {
		if err := storage.SaveTemplate(path, ed.Elements()); err != nil {
			return fail(l, stderr, "save on shutdown failed", err)
		}
		l.InfoContext(ctx, "template saved on shutdown")
	}
	return 0
}

// loadForServe opens the template file. A template that does not exist yet is
// recovered from its journal when possible, otherwise the editor starts empty.
func loadForServe(ctx context.Context, journal *storage.Journal, path string) (element.Document, error) {
	doc, err := storage.OpenTemplate(path)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	snap, ok, jerr := journal.Latest(ctx, path)
	if jerr != nil {
		return nil, jerr
	}
	if !ok {
		return nil, nil
	}
	applog.WithComponent("cli").InfoContext(ctx, "template restored from journal",
		slog.String("op", snap.Op), slog.Time("at", snap.TS))
	return snap.Doc, nil
}

func newEditor(cfg config.AppConfig, l *slog.Logger, path string, onCommit store.CommitFunc) *editor.Editor {
	page, ok := geom.PageSize(cfg.General.PageSize)
	if !ok {
		l.Warn("unknown page size, using A4", slog.String("page_size", cfg.General.PageSize))
	}
	var sample placeholder.Context
	if cfg.Editor.SampleData != "" {
		raw, err := os.ReadFile(cfg.Editor.SampleData)
		if err == nil {
			sample, err = placeholder.ParseContext(raw)
		}
		if err != nil {
			l.Warn("sample data not loaded, using built-in values", slog.Any("err", err))
			sample = nil
		}
	}
	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if path == "" {
		title = "Untitled"
	}
	return editor.New(editor.Options{
		IDs:             store.IDScheme(cfg.Editor.IDScheme),
		HistoryMaxDepth: cfg.Editor.HistoryMaxDepth,
		Page:            page,
		SampleData:      sample,
		FontFile:        cfg.Render.FontFile,
		Title:           title,
		PreviewDPI:      cfg.Render.DPI,
		OnCommit:        onCommit,
	})
}
