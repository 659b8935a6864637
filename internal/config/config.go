/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
// Minimal schema to start; can evolve with config_version migrations.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields should be preserved when possible (yaml handles this by ignoring extras on unmarshal).

// BackendConfig describes the optional Postgres case-store backend.
// Datasets can live either in a local sqlite case file or in a warehouse
// reachable through this DSN.
type BackendConfig struct {
	DSN       string `yaml:"dsn"` // without password; the password lives in the OS keychain
	TimeoutMs int    `yaml:"timeout_ms"`
}

type GeneralConfig struct {
	TelemetryOptIn bool   `yaml:"telemetry_opt_in"`
	Theme          string `yaml:"theme"` // "system" | "light" | "dark" (informational for now)
}

// GridConfig holds the sheet defaults applied when a dataset view is opened.
// All sizes are in pixels.
type GridConfig struct {
	RowHeight      int  `yaml:"row_height"`
	ColumnWidth    int  `yaml:"column_width"`
	Prefetch       int  `yaml:"prefetch"` // extra rows/columns realized beyond the viewport
	Gridlines      bool `yaml:"gridlines"`
	Editable       bool `yaml:"editable"`
	ColumnDrag     bool `yaml:"column_drag"`
	MinColumnWidth int  `yaml:"min_column_width"`
	MaxColumnWidth int  `yaml:"max_column_width"`
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
	Grid          GridConfig    `yaml:"grid"`
	Backend       BackendConfig `yaml:"backend"`
	Logging       LoggingConfig `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{TelemetryOptIn: false, Theme: "system"},
		Grid: GridConfig{
			RowHeight:      20,
			ColumnWidth:    75,
			Prefetch:       2,
			Gridlines:      true,
			Editable:       true,
			ColumnDrag:     true,
			MinColumnWidth: 20,
			MaxColumnWidth: 600,
		},
		Backend: BackendConfig{DSN: "", TimeoutMs: 15000},
		Logging: LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvBackendDSN       = "SST_BACKEND_DSN"
	EnvBackendTimeoutMs = "SST_BACKEND_TIMEOUT_MS"
	EnvTelemetryOptIn   = "SST_TELEMETRY_OPT_IN"
	EnvGridRowHeight    = "SST_GRID_ROW_HEIGHT"
	EnvGridColumnWidth  = "SST_GRID_COLUMN_WIDTH"
	EnvGridPrefetch     = "SST_GRID_PREFETCH"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "SST_LOG_LEVEL"
	EnvLogFormat = "SST_LOG_FORMAT"
	EnvLogSource = "SST_LOG_SOURCE"
	EnvLogFile   = "SST_LOG_FILE"
)

// Service/keys for OS keyring.
const (
	keyringService  = "StatSheet"
	keyringPassword = "backend_password"
)

// passwordStore abstracts keyring, so we can stub in tests.
var passwordStore PasswordStore = &osKeyring{}

type PasswordStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// osKeyring implements PasswordStore using the OS keyring via github.com/zalando/go-keyring.
type osKeyring struct{}

func (k *osKeyring) Get(service, key string) (string, error) {
	return keyringGet(service, key)
}
func (k *osKeyring) Set(service, key, value string) error {
	return keyringSet(service, key, value)
}
func (k *osKeyring) Delete(service, key string) error {
	return keyringDelete(service, key)
}

// The following vars are defined in keyring_real.go or keyring_stub.go depending on build tags.
var (
	keyringGet    func(service, key string) (string, error)
	keyringSet    func(service, key, value string) error
	keyringDelete func(service, key string) error
)

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "StatSheet")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "StatSheet")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "statsheet")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads user config file (if present), applies defaults, and merges environment overrides.
// It also loads the backend password from keyring (not kept inside the struct; returned separately).
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
	// password from keyring
	pw, _ := passwordStore.Get(keyringService, keyringPassword)
	return cfg, pw, nil
}

// Save writes the user config YAML and persists the password into OS keyring (if non-empty).
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
		if err := passwordStore.Set(keyringService, keyringPassword, password); err != nil {
			return err
		}
	}
	return nil
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.General.Theme != "" {
		dst.General.Theme = src.General.Theme
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.General.TelemetryOptIn = src.General.TelemetryOptIn
	// grid
	if src.Grid.RowHeight > 0 {
		dst.Grid.RowHeight = src.Grid.RowHeight
	}
	if src.Grid.ColumnWidth > 0 {
		dst.Grid.ColumnWidth = src.Grid.ColumnWidth
	}
	if src.Grid.Prefetch > 0 {
		dst.Grid.Prefetch = src.Grid.Prefetch
	}
	if src.Grid.MinColumnWidth > 0 {
		dst.Grid.MinColumnWidth = src.Grid.MinColumnWidth
	}
	if src.Grid.MaxColumnWidth > 0 {
		dst.Grid.MaxColumnWidth = src.Grid.MaxColumnWidth
	}
	dst.Grid.Gridlines = src.Grid.Gridlines
	dst.Grid.Editable = src.Grid.Editable
	dst.Grid.ColumnDrag = src.Grid.ColumnDrag
	// backend
	if src.Backend.DSN != "" {
		dst.Backend.DSN = src.Backend.DSN
	}
	if src.Backend.TimeoutMs != 0 {
		dst.Backend.TimeoutMs = src.Backend.TimeoutMs
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

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvBackendDSN)); v != "" {
		cfg.Backend.DSN = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBackendTimeoutMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Backend.TimeoutMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvTelemetryOptIn)); v != "" {
		lv := strings.ToLower(v)
		cfg.General.TelemetryOptIn = lv == "1" || lv == "true" || lv == "on" || lv == "yes"
	}
	if v := strings.TrimSpace(os.Getenv(EnvGridRowHeight)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Grid.RowHeight = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvGridColumnWidth)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Grid.ColumnWidth = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvGridPrefetch)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			cfg.Grid.Prefetch = n
		}
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		lv := strings.ToLower(v)
		cfg.Logging.Source = lv == "1" || lv == "true" || lv == "on" || lv == "yes"
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	switch key {
	case "backend.dsn":
		if os.Getenv(EnvBackendDSN) != "" {
			return EnvBackendDSN, true
		}
	case "backend.timeout_ms":
		if os.Getenv(EnvBackendTimeoutMs) != "" {
			return EnvBackendTimeoutMs, true
		}
	case "general.telemetry_opt_in":
		if os.Getenv(EnvTelemetryOptIn) != "" {
			return EnvTelemetryOptIn, true
		}
	case "grid.row_height":
		if os.Getenv(EnvGridRowHeight) != "" {
			return EnvGridRowHeight, true
		}
	case "grid.column_width":
		if os.Getenv(EnvGridColumnWidth) != "" {
			return EnvGridColumnWidth, true
		}
	case "grid.prefetch":
		if os.Getenv(EnvGridPrefetch) != "" {
			return EnvGridPrefetch, true
		}
	case "logging.level":
		if os.Getenv(EnvLogLevel) != "" {
			return EnvLogLevel, true
		}
	case "logging.format":
		if os.Getenv(EnvLogFormat) != "" {
			return EnvLogFormat, true
		}
	case "logging.source":
		if os.Getenv(EnvLogSource) != "" {
			return EnvLogSource, true
		}
	case "logging.file":
		if os.Getenv(EnvLogFile) != "" {
			return EnvLogFile, true
		}
	}
	return "", false
}

// EffectiveTimeout returns the backend timeout as a duration-like milliseconds string for database/sql drivers.
func (b BackendConfig) EffectiveTimeout() string {
	if b.TimeoutMs <= 0 {
		return fmt.Sprintf("%dms", Defaults().Backend.TimeoutMs)
	}
	return fmt.Sprintf("%dms", b.TimeoutMs)
}
