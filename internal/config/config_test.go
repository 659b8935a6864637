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
	"os"
	"testing"
)

func TestEnvOverridesBackendDSN(t *testing.T) {
	old := os.Getenv(EnvBackendDSN)
	_ = os.Setenv(EnvBackendDSN, "postgres://sst@warehouse.test:5432/cases")
	t.Cleanup(func() { _ = os.Setenv(EnvBackendDSN, old) })
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if got, want := cfg.Backend.DSN, "postgres://sst@warehouse.test:5432/cases"; got != want {
		t.Fatalf("Backend.DSN = %q, want %q", got, want)
	}
}

func TestEnvOverridesTelemetry(t *testing.T) {
	old := os.Getenv(EnvTelemetryOptIn)
	_ = os.Setenv(EnvTelemetryOptIn, "true")
	t.Cleanup(func() { _ = os.Setenv(EnvTelemetryOptIn, old) })
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if !cfg.General.TelemetryOptIn {
		t.Fatalf("General.TelemetryOptIn expected true from env override")
	}
}

func TestEnvOverridesGrid(t *testing.T) {
	t.Setenv(EnvGridRowHeight, "25")
	t.Setenv(EnvGridColumnWidth, "100")
	t.Setenv(EnvGridPrefetch, "4")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Grid.RowHeight != 25 || cfg.Grid.ColumnWidth != 100 || cfg.Grid.Prefetch != 4 {
		t.Fatalf("grid env overrides not applied: %#v", cfg.Grid)
	}
}

func TestMergeIncludesGridBooleans(t *testing.T) {
	// Given a file config that turns gridlines off, mergeInto should carry it through
	dst := Defaults()
	src := Defaults()
	src.Grid.Gridlines = false
	src.Grid.Editable = false
	mergeInto(&dst, &src)
	if dst.Grid.Gridlines || dst.Grid.Editable {
		t.Fatalf("grid booleans were not merged from file config: %#v", dst.Grid)
	}
}

func TestMergeIgnoresZeroGridSizes(t *testing.T) {
	dst := Defaults()
	src := AppConfig{} // zero values everywhere
	mergeInto(&dst, &src)
	if dst.Grid.RowHeight != Defaults().Grid.RowHeight || dst.Grid.ColumnWidth != Defaults().Grid.ColumnWidth {
		t.Fatalf("zero grid sizes must not clobber defaults: %#v", dst.Grid)
	}
}

func TestMergeIncludesLogging(t *testing.T) {
	dst := Defaults()
	src := Defaults()
	src.Logging.Level = "debug"
	src.Logging.Format = "json"
	src.Logging.Source = true
	src.Logging.File = "C:/tmp/sst.log"
	mergeInto(&dst, &src)
	if dst.Logging.Level != "debug" || dst.Logging.Format != "json" || !dst.Logging.Source || dst.Logging.File != "C:/tmp/sst.log" {
		t.Fatalf("logging fields not merged correctly: %#v", dst.Logging)
	}
}

func TestEnvOverridesLogging(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvLogSource, "1")
	t.Setenv(EnvLogFile, "X:/sst.log")
	cfg, _, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Logging.Level != "error" || cfg.Logging.Format != "json" || !cfg.Logging.Source || cfg.Logging.File != "X:/sst.log" {
		t.Fatalf("env overrides not applied to logging: %#v", cfg.Logging)
	}
}
