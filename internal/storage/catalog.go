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
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"pdfdesigner/internal/element"
	applog "pdfdesigner/internal/log"
)

// ErrTemplateNotFound is returned for catalog names that do not exist.
var ErrTemplateNotFound = errors.New("template not found")

// Catalog drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
)

// language=SQL
const upsertTemplateSQL = `INSERT INTO templates(id, name, body, elements, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT(name) DO UPDATE SET body = excluded.body, elements = excluded.elements, updated_at = excluded.updated_at`

// language=SQL
const selectTemplateSQL = `SELECT id, name, elements, created_at, updated_at, body FROM templates WHERE name = ?`

// language=SQL
const listTemplatesSQL = `SELECT id, name, elements, created_at, updated_at FROM templates ORDER BY updated_at DESC, name`

// language=SQL
const deleteTemplateSQL = `DELETE FROM templates WHERE name = ?`

// catalogTimeLayout is fixed width so that timestamps sort as text.
const catalogTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// CatalogEntry describes a stored template without its body.
type CatalogEntry struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Elements  int       `json:"elements"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Catalog stores named templates in a SQL database. Queries are written with
// '?' placeholders and rebound for Postgres.
type Catalog struct {
	db     *sql.DB
	driver string
	log    *slog.Logger
}

// OpenCatalog connects to dsn with driver ("sqlite" or "pgx"; "postgres" is
// an alias) and ensures the schema.
func OpenCatalog(ctx context.Context, driver, dsn string) (*Catalog, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverSQLite:
		driver = DriverSQLite
	case DriverPostgres, "postgres", "postgresql":
		driver = DriverPostgres
	default:
		return nil, fmt.Errorf("unsupported catalog driver %q", driver)
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("catalog dsn is required")
	}
	l := applog.WithComponent("catalog").With(slog.String("driver", driver))
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping catalog: %w", err)
	}
	// language=SQL
	ddl := `CREATE TABLE IF NOT EXISTS templates (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL UNIQUE,
		body        TEXT NOT NULL,
		elements    INTEGER NOT NULL,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`
	if _, err := db.ExecContext(pctx, ddl); err != nil {
		_ = db.Close()
		l.Error("ensure catalog schema failed", slog.Any("err", err))
		return nil, fmt.Errorf("ensure catalog schema: %w", err)
	}
	l.Info("catalog ready")
	return &Catalog{db: db, driver: driver, log: l}, nil
}

func (c *Catalog) Close() error { return c.db.Close() }

// rebind turns '?' placeholders into '$n' for Postgres.
func (c *Catalog) rebind(q string) string {
	if c.driver != DriverPostgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Save stores doc under name, replacing any earlier body.
func (c *Catalog) Save(ctx context.Context, name string, doc element.Document) (CatalogEntry, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return CatalogEntry{}, errors.New("template name is required")
	}
	body, err := element.MarshalDocument(doc)
	if err != nil {
		return CatalogEntry{}, fmt.Errorf("marshal template: %w", err)
	}
	now := time.Now().UTC().Format(catalogTimeLayout)
	if _, err := c.db.ExecContext(ctx, c.rebind(upsertTemplateSQL), uuid.NewString(), name, string(body), len(doc), now, now); err != nil {
		return CatalogEntry{}, fmt.Errorf("save template %q: %w", name, err)
	}
	_, entry, err := c.Get(ctx, name)
	if err != nil {
		return CatalogEntry{}, err
	}
	c.log.Info("template stored", slog.String("name", name), slog.Int("elements", len(doc)))
	return entry, nil
}

// Get loads the template stored under name.
func (c *Catalog) Get(ctx context.Context, name string) (element.Document, CatalogEntry, error) {
	var (
		e            CatalogEntry
		created, upd string
		body         string
	)
	err := c.db.QueryRowContext(ctx, c.rebind(selectTemplateSQL), name).Scan(&e.ID, &e.Name, &e.Elements, &created, &upd, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, CatalogEntry{}, fmt.Errorf("%q: %w", name, ErrTemplateNotFound)
	}
	if err != nil {
		return nil, CatalogEntry{}, fmt.Errorf("load template %q: %w", name, err)
	}
	e.CreatedAt, _ = time.Parse(catalogTimeLayout, created)
	e.UpdatedAt, _ = time.Parse(catalogTimeLayout, upd)
	doc, err := element.ParseDocument([]byte(body))
	if err != nil {
		return nil, CatalogEntry{}, fmt.Errorf("template %q: %w", name, err)
	}
	return doc, e, nil
}

// List returns all entries, most recently updated first.
func (c *Catalog) List(ctx context.Context) ([]CatalogEntry, error) {
	rows, err := c.db.QueryContext(ctx, c.rebind(listTemplatesSQL))
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []CatalogEntry
	for rows.Next() {
		var (
			e            CatalogEntry
			created, upd string
		)
		if err := rows.Scan(&e.ID, &e.Name, &e.Elements, &created, &upd); err != nil {
			return nil, err
		}
		e.CreatedAt, _ = time.Parse(catalogTimeLayout, created)
		e.UpdatedAt, _ = time.Parse(catalogTimeLayout, upd)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Delete removes the template stored under name.
func (c *Catalog) Delete(ctx context.Context, name string) error {
	res, err := c.db.ExecContext(ctx, c.rebind(deleteTemplateSQL), name)
	if err != nil {
		return fmt.Errorf("delete template %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%q: %w", name, ErrTemplateNotFound)
	}
	return nil
}
