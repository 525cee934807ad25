/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal.

type GeneralConfig struct {
	EnableServer bool   `yaml:"enable_server"`
	PageSize     string `yaml:"page_size"` // "A4" | "Letter" | "Legal"
}

type EditorConfig struct {
	HistoryMaxDepth int    `yaml:"history_max_depth"` // 0 keeps every undo step
	IDScheme        string `yaml:"id_scheme"`         // "sequential" | "uuid"
	SampleData      string `yaml:"sample_data"`       // JSON or YAML file with preview values
	JournalKeep     int    `yaml:"journal_keep"`      // snapshots kept per template, 0 keeps all
}

type ServerConfig struct {
	Addr      string `yaml:"addr"`
	BodyLimit string `yaml:"body_limit"` // echo size notation, e.g. "16M"
}

type CatalogConfig struct {
	Driver string `yaml:"driver"` // "sqlite" | "pgx"
	DSN    string `yaml:"dsn"`
	// Password is not stored on disk; it lives in the OS keychain.
}

type RenderConfig struct {
	FontFile string `yaml:"font_file"` // TTF used for PDF text and text metrics
	DPI      int    `yaml:"dpi"`       // PNG preview resolution
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int           `yaml:"config_version"`
	General       GeneralConfig `yaml:"general"`
	Editor        EditorConfig  `yaml:"editor"`
	Server        ServerConfig  `yaml:"server"`
	Catalog       CatalogConfig `yaml:"catalog"`
	Render        RenderConfig  `yaml:"render"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{EnableServer: false, PageSize: "A4"},
		Editor:        EditorConfig{HistoryMaxDepth: 0, IDScheme: "sequential", JournalKeep: 200},
		Server:        ServerConfig{Addr: "127.0.0.1:8080", BodyLimit: "16M"},
		Catalog:       CatalogConfig{Driver: "sqlite"},
		Render:        RenderConfig{DPI: 72},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvConfigPath      = "PDD_CONFIG"
	EnvEnableServer    = "PDD_ENABLE_SERVER"
	EnvPageSize        = "PDD_PAGE_SIZE"
	EnvHistoryMaxDepth = "PDD_HISTORY_MAX_DEPTH"
	EnvIDScheme        = "PDD_ID_SCHEME"
	EnvServerAddr      = "PDD_SERVER_ADDR"
	EnvCatalogDriver   = "PDD_CATALOG_DRIVER"
	EnvCatalogDSN      = "PDD_CATALOG_DSN"
	EnvFontFile        = "PDD_FONT_FILE"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "PDD_LOG_LEVEL"
	EnvLogFormat = "PDD_LOG_FORMAT"
	EnvLogSource = "PDD_LOG_SOURCE"
	EnvLogFile   = "PDD_LOG_FILE"
)

// Service/keys for OS keyring.
const (
	keyringService  = "PDFDesigner"
	keyringPassword = "catalog_password"
)

// secretStore abstracts the keyring so tests can stub it.
var secretStore SecretStore = osKeyring{}

type SecretStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// osKeyring implements SecretStore using the OS keyring via github.com/zalando/go-keyring.
type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (osKeyring) Set(service, key, value string) error    { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error        { return keyring.Delete(service, key) }

// ConfigPath returns the per-user config file path. PDD_CONFIG overrides it.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigPath)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "PDFDesigner")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "PDFDesigner")
	default: // linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = filepath.Join(xdg, "pdfdesigner")
		} else {
			base = filepath.Join(os.Getenv("HOME"), ".config", "pdfdesigner")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges environment overrides.
// It also loads the catalog password from the keyring (not kept inside the struct; returned separately).
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	pw, _ := secretStore.Get(keyringService, keyringPassword)
	return cfg, pw, nil
}

// Save writes the user config YAML and persists the password into the OS keyring (if non-empty).
func Save(cfg AppConfig, password string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if password != "" {
		if err := secretStore.Set(keyringService, keyringPassword, password); err != nil {
			return err
		}
	}
	return nil
}

// ForgetPassword removes the catalog password from the keyring.
func ForgetPassword() error {
	err := secretStore.Delete(keyringService, keyringPassword)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

// DSNWithPassword returns the catalog DSN with password injected: into the
// userinfo of URL-style DSNs, or as a password=... pair for key/value DSNs.
// A DSN that already carries a password, and SQLite DSNs, are left alone.
func (c CatalogConfig) DSNWithPassword(password string) string {
	if password == "" || !isPostgres(c.Driver) {
		return c.DSN
	}
	if u, err := url.Parse(c.DSN); err == nil && u.Scheme != "" && u.User != nil {
		if _, has := u.User.Password(); has {
			return c.DSN
		}
		u.User = url.UserPassword(u.User.Username(), password)
		return u.String()
	}
	if strings.Contains(c.DSN, "password=") || strings.Contains(c.DSN, "://") {
		return c.DSN
	}
	return strings.TrimSpace(c.DSN + " password=" + password)
}

func isPostgres(driver string) bool {
	switch strings.ToLower(driver) {
	case "pgx", "postgres", "postgresql":
		return true
	}
	return false
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.General.EnableServer = src.General.EnableServer
	if v := strings.TrimSpace(src.General.PageSize); v != "" {
		dst.General.PageSize = v
	}
	// editor
	if src.Editor.HistoryMaxDepth > 0 {
		dst.Editor.HistoryMaxDepth = src.Editor.HistoryMaxDepth
	}
	if v := strings.TrimSpace(src.Editor.IDScheme); v != "" {
		dst.Editor.IDScheme = strings.ToLower(v)
	}
	if v := strings.TrimSpace(src.Editor.SampleData); v != "" {
		dst.Editor.SampleData = v
	}
	if src.Editor.JournalKeep != 0 {
		dst.Editor.JournalKeep = src.Editor.JournalKeep
	}
	// server
	if v := strings.TrimSpace(src.Server.Addr); v != "" {
		dst.Server.Addr = v
	}
	if v := strings.TrimSpace(src.Server.BodyLimit); v != "" {
		dst.Server.BodyLimit = v
	}
	// catalog
	if v := strings.TrimSpace(src.Catalog.Driver); v != "" {
		dst.Catalog.Driver = strings.ToLower(v)
	}
	if v := strings.TrimSpace(src.Catalog.DSN); v != "" {
		dst.Catalog.DSN = v
	}
	// render
	if v := strings.TrimSpace(src.Render.FontFile); v != "" {
		dst.Render.FontFile = v
	}
	if src.Render.DPI > 0 {
		dst.Render.DPI = src.Render.DPI
	}
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func truthy(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvEnableServer)); v != "" {
		cfg.General.EnableServer = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvPageSize)); v != "" {
		cfg.General.PageSize = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvHistoryMaxDepth)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Editor.HistoryMaxDepth = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvIDScheme)); v != "" {
		cfg.Editor.IDScheme = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvServerAddr)); v != "" {
		cfg.Server.Addr = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCatalogDriver)); v != "" {
		cfg.Catalog.Driver = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvCatalogDSN)); v != "" {
		cfg.Catalog.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvFontFile)); v != "" {
		cfg.Render.FontFile = v
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = truthy(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

var envKeys = map[string]string{
	"general.enable_server":    EnvEnableServer,
	"general.page_size":        EnvPageSize,
	"editor.history_max_depth": EnvHistoryMaxDepth,
	"editor.id_scheme":         EnvIDScheme,
	"server.addr":              EnvServerAddr,
	"catalog.driver":           EnvCatalogDriver,
	"catalog.dsn":              EnvCatalogDSN,
	"render.font_file":         EnvFontFile,
	"logging.level":            EnvLogLevel,
	"logging.format":           EnvLogFormat,
	"logging.source":           EnvLogSource,
	"logging.file":             EnvLogFile,
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	name, ok := envKeys[key]
	if !ok || os.Getenv(name) == "" {
		return "", false
	}
	return name, true
}
