/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pdfdesigner/internal/element"
	applog "pdfdesigner/internal/log"
	"pdfdesigner/internal/store"
	"pdfdesigner/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// JournalDirName holds disposable per-template data next to the template file.
	JournalDirName  = ".pdd"
	JournalFileName = "journal.sqlite"

	// journalSchemaVersion tracks the local SQLite schema of the journal.
	journalSchemaVersion = 1
)

// language=SQL
// dialect=SQLite
const insertSnapshotSQL = `INSERT INTO snapshots(template, ts, op, doc_blob) VALUES (?, ?, ?, ?)`

// language=SQL
// dialect=SQLite
const selectLatestSnapshotSQL = `SELECT id, ts, op, doc_blob FROM snapshots WHERE template = ? ORDER BY id DESC LIMIT 1`

// language=SQL
// dialect=SQLite
const listSnapshotsSQL = `SELECT id, ts, op, doc_blob FROM snapshots WHERE template = ? ORDER BY id DESC LIMIT ?`

// language=SQL
// dialect=SQLite
const pruneOldSnapshotsSQL = `DELETE FROM snapshots WHERE template = ? AND id NOT IN (
	SELECT id FROM snapshots WHERE template = ? ORDER BY id DESC LIMIT ?
)`

// Snapshot is one journaled document state.
type Snapshot struct {
	ID  int64
	TS  time.Time
	Op  string
	Doc element.Document
}

// Journal records committed documents in an embedded SQLite database.
type Journal struct {
	db   *sql.DB
	path string
	log  *slog.Logger
}

// JournalPath returns the journal location for the template file at path.
func JournalPath(templatePath string) string {
	return filepath.Join(filepath.Dir(templatePath), JournalDirName, JournalFileName)
}

// OpenJournal ensures the journal database at path exists, enables WAL mode
// and the schema.
func OpenJournal(path string) (*Journal, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "journal_open").With(slog.String("path", path))
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("journal path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		l.Error("create journal dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create journal dir: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.ToSlash(path))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureJournalSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure journal schema failed", slog.Any("err", err))
		return nil, err
	}
	l.Debug("journal ready")
	return &Journal{db: db, path: path, log: applog.WithComponent("journal")}, nil
}

func ensureJournalSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS version (
			id          INTEGER PRIMARY KEY CHECK(id=1),
			schema      INTEGER NOT NULL,
			app         TEXT,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS snapshots (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			template  TEXT NOT NULL,
			ts        TEXT NOT NULL,
			op        TEXT NOT NULL,
			doc_blob  BLOB NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_template ON snapshots(template, id);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	now := time.Now().UTC().Format(time.RFC3339)
	var cur int
	err := db.QueryRowContext(ctx, `SELECT schema FROM version WHERE id=1`).Scan(&cur)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := db.ExecContext(ctx, `INSERT INTO version (id, schema, app, created_at, updated_at) VALUES(1, ?, ?, ?, ?)`, journalSchemaVersion, version.String(), now, now); err != nil {
			return fmt.Errorf("insert version: %w", err)
		}
	case err != nil:
		return fmt.Errorf("read version: %w", err)
	default:
		if _, err := db.ExecContext(ctx, `UPDATE version SET app=?, updated_at=? WHERE id=1`, version.String(), now); err != nil {
			return fmt.Errorf("update version: %w", err)
		}
	}
	return nil
}

func (j *Journal) Close() error { return j.db.Close() }

// Path is the database file backing the journal.
func (j *Journal) Path() string { return j.path }

// Append stores doc as the newest snapshot of template.
func (j *Journal) Append(ctx context.Context, template, op string, doc element.Document, ts time.Time) error {
	blob, err := element.EncodeMsgpack(doc)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if _, err := j.db.ExecContext(ctx, insertSnapshotSQL, template, ts.UTC().Format(time.RFC3339Nano), op, blob); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// Latest returns the newest snapshot of template; ok is false when there is none.
func (j *Journal) Latest(ctx context.Context, template string) (snap Snapshot, ok bool, err error) {
	row := j.db.QueryRowContext(ctx, selectLatestSnapshotSQL, template)
	snap, err = scanSnapshot(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, err
	}
	return snap, true, nil
}

// List returns up to limit most recent snapshots of template, newest first.
func (j *Journal) List(ctx context.Context, template string, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx, listSnapshotsSQL, template, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Snapshot
	for rows.Next() {
		s, err := scanSnapshot(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Prune keeps at most keepLast snapshots of template and deletes older ones.
func (j *Journal) Prune(ctx context.Context, template string, keepLast int) (int64, error) {
	if keepLast <= 0 {
		return 0, nil
	}
	res, err := j.db.ExecContext(ctx, pruneOldSnapshotsSQL, template, template, keepLast)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Recorder returns a commit hook that journals every committed document of
// template. Failures are logged, never returned: the edit already happened.
func (j *Journal) Recorder(template string) store.CommitFunc {
	return func(op string, doc element.Document) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := j.Append(ctx, template, op, doc, time.Now()); err != nil {
			j.log.Error("journal append failed", slog.String("template", template), slog.String("op", op), slog.Any("err", err))
		}
	}
}

func scanSnapshot(scan func(dest ...any) error) (Snapshot, error) {
	var (
		s     Snapshot
		tsStr string
		blob  []byte
	)
	if err := scan(&s.ID, &tsStr, &s.Op, &blob); err != nil {
		return Snapshot{}, err
	}
	s.TS, _ = time.Parse(time.RFC3339Nano, tsStr)
	doc, err := element.DecodeMsgpack(blob)
	if err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot %d: %w", s.ID, err)
	}
	s.Doc = doc
	return s, nil
}
