/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"statsheet/internal/crash"
	"statsheet/internal/data"
	"statsheet/internal/export"
	applog "statsheet/internal/log"
	"statsheet/internal/storage"
	"statsheet/internal/ui"
	"statsheet/internal/version"
)

func usage() {
	fmt.Println("StatSheet — virtualized dataset grid")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  statsheet version|-v|--version             Show version")
	fmt.Println("  statsheet init <dir> <name>                Create a new dataset at <dir> with name <name>")
	fmt.Println("  statsheet open <dir>                       Open dataset at <dir> and print summary")
	fmt.Println("  statsheet save <dir>                       Save dataset at <dir> (creates backup)")
	fmt.Println("  statsheet export <dir> <out.pdf|out.csv>   Export the case data to PDF or CSV")
	fmt.Println("  statsheet ui [<dir>]                       Launch desktop UI (build with -tags fyne for full UI)")
}

func main() {
	// initialize structured logging using environment defaults
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("cli")
	var h *storage.DatasetHandle
	defer func() { crash.Recover(h) }()

	args := os.Args
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) > 1 {
		switch args[1] {
		case "version", "--version", "-v":
			fmt.Println("StatSheet — virtualized dataset grid")
			fmt.Println(version.String())
			return
		case "init":
			if len(args) < 4 {
				fmt.Println("init requires <dir> and <name>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			name := args[3]
			l.Info("init dataset", slog.String("root", abs), slog.String("name", name))
			ds := storage.Dataset{
				Name: name,
				Variables: []data.Variable{
					{Name: "var1", Kind: data.Numeric, Decimals: 2, Measure: data.MeasureScale},
				},
				CaseFile: storage.CaseDBFileName,
			}
			handle, err := storage.InitDataset(abs, ds)
			if err != nil {
				l.Error("init failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			h = handle
			fmt.Println("Created dataset at", abs)
			return
		case "open":
			if len(args) < 3 {
				fmt.Println("open requires <dir>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			l.Info("open dataset", slog.String("root", abs))
			handle, err := storage.Open(abs)
			if err != nil {
				l.Error("open failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			h = handle
			fmt.Printf("Opened dataset: %s\n", handle.Dataset.Name)
			fmt.Printf("Variables: %d\n", len(handle.Dataset.Variables))
			if handle.Dataset.CaseFile != "" {
				fmt.Println("Case store:", handle.CaseDBPath())
			}
			fmt.Println("Root:", handle.Root)
			return
		case "save":
			if len(args) < 3 {
				fmt.Println("save requires <dir>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			l.Info("save dataset", slog.String("root", abs))
			handle, err := storage.Open(abs)
			if err != nil {
				l.Error("open before save failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			h = handle
			if err := storage.Save(handle); err != nil {
				l.Error("save failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			fmt.Println("Saved dataset and created a backup of previous manifest (if any).")
			return
		case "export":
			if len(args) < 4 {
				fmt.Println("export requires <dir> and <out.pdf|out.csv>")
				usage()
				os.Exit(2)
			}
			abs, _ := filepath.Abs(args[2])
			out := args[3]
			handle, err := storage.Open(abs)
			if err != nil {
				l.Error("open before export failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			h = handle
			if err := runExport(handle, out); err != nil {
				l.Error("export failed", slog.Any("err", err))
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			fmt.Println("Exported", out)
			return
		case "ui":
			var dir string
			if len(args) >= 3 {
				dir = args[2]
			}
			if err := ui.Run(dir); err != nil {
				fmt.Println("Error:", err)
				os.Exit(1)
			}
			return
		}
	}

	usage()
}

// runExport opens the dataset's case store and writes the full case range to
// out; the extension picks the format.
func runExport(h *storage.DatasetHandle, out string) error {
	dict, err := h.Dictionary()
	if err != nil {
		return err
	}
	path := h.CaseDBPath()
	if path == "" {
		return fmt.Errorf("dataset has no case store to export")
	}
	store, err := data.OpenSQLStore(path, dict)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			applog.WithComponent("cli").Error("close case store", slog.Any("err", cerr))
		}
	}()

	rng := export.Range{Col1: -1, Row1: -1}
	switch filepath.Ext(out) {
	case ".pdf":
		return export.ExportPDF(h, store, rng, out, export.PDFOptions{
			Headers:     dict,
			Codecs:      dict.CodecFor,
			CaseNumbers: true,
		})
	case ".csv":
		return export.ExportCSV(h, store, rng, out, export.CSVOptions{
			Headers: dict,
			Codecs:  dict.CodecFor,
		})
	default:
		return fmt.Errorf("unsupported export format %q (use .pdf or .csv)", filepath.Ext(out))
	}
}
