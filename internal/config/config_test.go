/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zalando/go-keyring"
)

// isolate points the config path at a temp file and the keyring at the mock provider.
func isolate(t *testing.T) string {
	t.Helper()
	keyring.MockInit()
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(EnvConfigPath, path)
	return path
}

func TestDefaultsWithoutFile(t *testing.T) {
	isolate(t)
	cfg, pw, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if pw != "" {
		t.Fatalf("expected no password, got %q", pw)
	}
	if cfg.General.PageSize != "A4" || cfg.Editor.IDScheme != "sequential" || cfg.Editor.HistoryMaxDepth != 0 {
		t.Fatalf("unexpected defaults: %#v", cfg)
	}
}

func TestEnvOverridesServerAddr(t *testing.T) {
	isolate(t)
	t.Setenv(EnvServerAddr, "0.0.0.0:9090")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got, want := cfg.Server.Addr, "0.0.0.0:9090"; got != want {
		t.Fatalf("Server.Addr = %q, want %q", got, want)
	}
	if name, ok := EnvOverrideFor("server.addr"); !ok || name != EnvServerAddr {
		t.Fatalf("EnvOverrideFor(server.addr) = %q, %v", name, ok)
	}
	if _, ok := EnvOverrideFor("catalog.dsn"); ok {
		t.Fatalf("catalog.dsn is not overridden")
	}
}

func TestEnvOverridesEditor(t *testing.T) {
	isolate(t)
	t.Setenv(EnvHistoryMaxDepth, "25")
	t.Setenv(EnvIDScheme, "UUID")
	t.Setenv(EnvEnableServer, "yes")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Editor.HistoryMaxDepth != 25 || cfg.Editor.IDScheme != "uuid" || !cfg.General.EnableServer {
		t.Fatalf("editor overrides not applied: %#v", cfg)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := isolate(t)
	cfg := Defaults()
	cfg.Catalog = CatalogConfig{Driver: "pgx", DSN: "postgres://designer@db:5432/templates"}
	cfg.Render.FontFile = "/fonts/DejaVuSans.ttf"
	cfg.Editor.HistoryMaxDepth = 100
	if err := Save(cfg, "s3cret"); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) == "" || strings.Contains(string(data), "s3cret") {
		t.Fatalf("password must not be written to the config file")
	}
	got, pw, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if pw != "s3cret" {
		t.Fatalf("password from keyring = %q", pw)
	}
	if got.Catalog != cfg.Catalog || got.Render.FontFile != cfg.Render.FontFile || got.Editor.HistoryMaxDepth != 100 {
		t.Fatalf("round trip mismatch: %#v", got)
	}
	if err := ForgetPassword(); err != nil {
		t.Fatalf("ForgetPassword: %v", err)
	}
	if err := ForgetPassword(); err != nil {
		t.Fatalf("ForgetPassword twice: %v", err)
	}
	if _, pw, _ := Load(); pw != "" {
		t.Fatalf("password still present")
	}
}

func TestMergeIncludesEnableServer(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.General.EnableServer = true
	mergeInto(&dst, &src)
	if !dst.General.EnableServer {
		t.Fatalf("EnableServer was not merged from file config")
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "DEBUG"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = " /tmp/pdd.log "
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "/tmp/pdd.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	isolate(t)
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogSource, "1")
	t.Setenv(EnvLogFile, "X:/pdd.log")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "X:/pdd.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
}

func TestDSNWithPassword(t *testing.T) {
	tests := []struct {
		cfg  CatalogConfig
		want string
	}{
		{CatalogConfig{Driver: "pgx", DSN: "postgres://designer@db:5432/templates"}, "postgres://designer:pw@db:5432/templates"},
		{CatalogConfig{Driver: "pgx", DSN: "postgres://designer:other@db/templates"}, "postgres://designer:other@db/templates"},
		{CatalogConfig{Driver: "postgres", DSN: "host=db user=designer"}, "host=db user=designer password=pw"},
		{CatalogConfig{Driver: "sqlite", DSN: "file:catalog.sqlite"}, "file:catalog.sqlite"},
	}
	for _, tc := range tests {
		if got := tc.cfg.DSNWithPassword("pw"); got != tc.want {
			t.Errorf("DSNWithPassword(%q) = %q, want %q", tc.cfg.DSN, got, tc.want)
		}
	}
}
