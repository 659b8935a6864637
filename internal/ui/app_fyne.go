//go:build fyne && cgo

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package ui

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"statsheet/internal/config"
	"statsheet/internal/crash"
	"statsheet/internal/data"
	"statsheet/internal/export"
	applog "statsheet/internal/log"
	"statsheet/internal/sheet"
	"statsheet/internal/storage"
	"statsheet/internal/undo"
)

// Run starts the Fyne desktop shell hosting the case-data grid and the
// variable grid over one dataset. Pass an optional dataset directory to
// open immediately.
func Run(datasetDir string) error {
	applog.Init(applog.FromEnv())
	l := applog.WithComponent("ui")
	l.Info("starting UI")

	cfg, cfgPath, err := config.Load()
	if err != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", err))
		cfg = config.Defaults()
	} else if cfgPath != "" {
		l.Info("config loaded", slog.String("path", cfgPath))
	}

	var h *storage.DatasetHandle
	defer func() { crash.Recover(h) }()

	fyneApp := app.NewWithID("statsheet")
	w := fyneApp.NewWindow("StatSheet")
	prefs := fyneApp.Preferences()
	winW := prefs.IntWithFallback("window.width", 1200)
	winH := prefs.IntWithFallback("window.height", 800)
	if winW < 800 {
		winW = 800
	}
	if winH < 600 {
		winH = 600
	}
	w.Resize(fyne.NewSize(float32(winW), float32(winH)))

	status := widget.NewLabel("Ready")
	undoMgr := undo.NewManager(undo.Config{})

	// The codec selector closes over the open dataset's dictionary so both
	// grids can be built once and rebound on open/close.
	var dict *data.Dictionary
	var caseStore sheet.DataSource
	var closeStore func() error

	dataView := newSheetView(l)
	dataView.onStatus = func(s string) { status.SetText(s) }
	dataSheet := sheet.New(sheet.Config{
		Host:               dataView,
		DefaultRowHeight:   cfg.Grid.RowHeight,
		DefaultColumnWidth: cfg.Grid.ColumnWidth,
		MinColumnWidth:     cfg.Grid.MinColumnWidth,
		MaxColumnWidth:     cfg.Grid.MaxColumnWidth,
		Prefetch:           cfg.Grid.Prefetch,
		Options: sheet.Options{
			Editable:   cfg.Grid.Editable,
			Gridlines:  cfg.Grid.Gridlines,
			ColumnDrag: cfg.Grid.ColumnDrag,
		},
		Codecs: func(col int) sheet.Codec {
			if dict == nil {
				return nil
			}
			return dict.CodecFor(col)
		},
		Logger: applog.WithComponent("sheet"),
	})
	dataView.bind(dataSheet)
	dataView.onCommitted = func(col, row int, old, cur sheet.Value) {
		undoMgr.Push(undo.Edit{Col: col, Row: row, Old: old, New: cur, TS: time.Now()})
	}

	varView := newSheetView(l)
	varView.onStatus = func(s string) { status.SetText(s) }
	varSheet := sheet.New(sheet.Config{
		Host:               varView,
		DefaultRowHeight:   cfg.Grid.RowHeight,
		DefaultColumnWidth: 110,
		Prefetch:           cfg.Grid.Prefetch,
		Options:            sheet.Options{Editable: true, Gridlines: cfg.Grid.Gridlines},
		Logger:             applog.WithComponent("sheet"),
	})
	varView.bind(varSheet)

	// Double-clicking a column header auto-fits the column to its content.
	dataSheet.OnHeaderDoubleClicked(func(o sheet.Orientation, index int) {
		if o != sheet.Columns {
			return
		}
		if err := dataSheet.AutoFitColumn(index); err != nil {
			l.Warn("auto-fit failed", slog.Int("col", index), slog.Any("err", err))
		}
	})
	dataSheet.OnColumnMoved(func(from, to int) {
		if dict == nil {
			return
		}
		status.SetText(fmt.Sprintf("Moved variable to position %d", to+1))
	})

	closeDataset := func() {
		if closeStore != nil {
			if err := closeStore(); err != nil {
				l.Error("close case store", slog.Any("err", err))
			}
			closeStore = nil
		}
		h = nil
		dict = nil
		caseStore = nil
		undoMgr.Clear()
		w.SetTitle("StatSheet")
	}

	bindDataset := func(handle *storage.DatasetHandle) error {
		d, err := handle.Dictionary()
		if err != nil {
			return err
		}
		var src sheet.DataSource
		if path := handle.CaseDBPath(); path != "" {
			st, err := data.OpenSQLStore(path, d)
			if err != nil {
				return err
			}
			src = st
			closeStore = st.Close
		} else {
			src = data.NewMemStore(d)
			closeStore = nil
		}
		h = handle
		dict = d
		caseStore = src

		dataSheet.SetSource(src)
		dataSheet.SetHeaderSources(d, nil)
		vv := data.NewVariableView(d)
		varSheet.SetSource(vv)
		varSheet.SetHeaderSources(vv.Headers(), nil)

		for name, width := range handle.Dataset.Layout.ColumnWidths {
			if col := d.IndexOf(name); col >= 0 {
				_ = dataSheet.Columns().SetSize(col, width)
			}
		}
		if rh := handle.Dataset.Layout.RowHeight; rh > 0 {
			dataSheet.Rows().SetDefaultSize(rh)
		}
		undoMgr.Clear()
		w.SetTitle(fmt.Sprintf("StatSheet — %s", handle.Dataset.Name))
		status.SetText(fmt.Sprintf("Opened %s (%d variables, %d cases)", handle.Dataset.Name, d.Len(), src.RowCount()))
		return nil
	}

	saveDataset := func() {
		if h == nil || dict == nil {
			dialog.ShowInformation("Save", "No dataset open.", w)
			return
		}
		h.SetDictionary(dict)
		widths := make(map[string]int, dict.Len())
		for i, v := range dict.Vars() {
			if sz, err := dataSheet.Columns().SizeOf(i); err == nil && sz != cfg.Grid.ColumnWidth {
				widths[v.Name] = sz
			}
		}
		h.Dataset.Layout = storage.Layout{ColumnWidths: widths, RowHeight: dataSheet.Rows().DefaultSize()}
		if err := storage.Save(h); err != nil {
			l.Error("save failed", slog.Any("err", err))
			dialog.ShowError(err, w)
			return
		}
		status.SetText("Saved dataset.")
	}

	openDataset := func(root string) {
		closeDataset()
		handle, err := storage.Open(root)
		if err != nil {
			l.Error("open dataset failed", slog.String("root", root), slog.Any("err", err))
			dialog.ShowError(err, w)
			return
		}
		if err := bindDataset(handle); err != nil {
			l.Error("bind dataset failed", slog.Any("err", err))
			dialog.ShowError(err, w)
		}
	}

	// Split view: four panes over the shared data-grid models. Scrolling one
	// pane drags its row and column siblings along.
	var split *sheet.Split
	dataContent := container.NewMax(dataView)
	toggleSplit := func() {
		if split != nil {
			split.Close()
			split = nil
			dataContent.Objects = []fyne.CanvasObject{dataView}
			dataContent.Refresh()
			status.SetText("Split view off.")
			return
		}
		hosts := [2][2]sheet.CellHost{}
		views := [2][2]*sheetView{}
		for c := 0; c < 2; c++ {
			for r := 0; r < 2; r++ {
				v := newSheetView(l)
				v.bind(dataSheet)
				views[c][r] = v
				hosts[c][r] = v
			}
		}
		split = sheet.NewSplit(dataSheet, hosts)
		grid := container.NewGridWithColumns(2,
			views[0][0], views[1][0],
			views[0][1], views[1][1],
		)
		dataContent.Objects = []fyne.CanvasObject{grid}
		dataContent.Refresh()
		status.SetText("Split view on.")
	}

	tabs := container.NewAppTabs(
		container.NewTabItem("Data", dataContent),
		container.NewTabItem("Variables", container.NewMax(varView)),
	)
	w.SetContent(container.NewBorder(nil, status, nil, nil, tabs))

	// Menus
	newItem := fyne.NewMenuItem("New…", func() {
		fd := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
			if err != nil || uri == nil {
				return
			}
			nameEntry := widget.NewEntry()
			nameEntry.SetPlaceHolder("Dataset Name")
			form := dialog.NewForm("New Dataset", "Create", "Cancel", []*widget.FormItem{
				widget.NewFormItem("Name", nameEntry),
			}, func(ok bool) {
				if !ok {
					return
				}
				name := strings.TrimSpace(nameEntry.Text)
				if name == "" {
					dialog.ShowInformation("New Dataset", "Please enter a dataset name.", w)
					return
				}
				handle, ierr := storage.InitDataset(uri.Path(), storage.Dataset{
					Name: name,
					Variables: []data.Variable{
						{Name: "var1", Kind: data.Numeric, Decimals: 2, Measure: data.MeasureScale},
					},
				})
				if ierr != nil {
					dialog.ShowError(ierr, w)
					return
				}
				closeDataset()
				if berr := bindDataset(handle); berr != nil {
					dialog.ShowError(berr, w)
				}
			}, w)
			form.Show()
		}, w)
		fd.Show()
	})
	openItem := fyne.NewMenuItem("Open…", func() {
		fd := dialog.NewFolderOpen(func(uri fyne.ListableURI, err error) {
			if err != nil || uri == nil {
				return
			}
			openDataset(uri.Path())
		}, w)
		fd.Show()
	})
	saveItem := fyne.NewMenuItem("Save", saveDataset)
	closeItem := fyne.NewMenuItem("Close Dataset", func() {
		closeDataset()
		status.SetText("Dataset closed.")
	})
	newItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyN, Modifier: fyne.KeyModifierControl}
	openItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyO, Modifier: fyne.KeyModifierControl}
	saveItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyS, Modifier: fyne.KeyModifierControl}

	fullRange := func() export.Range { return export.Range{Col1: -1, Row1: -1} }
	exportPDFItem := fyne.NewMenuItem("Export PDF", func() {
		if h == nil || caseStore == nil {
			dialog.ShowInformation("Export", "No dataset open.", w)
			return
		}
		err := export.ExportPDF(h, caseStore, fullRange(), "cases.pdf", export.PDFOptions{
			Headers:     dict,
			Codecs:      dict.CodecFor,
			CaseNumbers: true,
		})
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		status.SetText("Exported cases.pdf into the exports folder.")
	})
	exportCSVItem := fyne.NewMenuItem("Export CSV", func() {
		if h == nil || caseStore == nil {
			dialog.ShowInformation("Export", "No dataset open.", w)
			return
		}
		err := export.ExportCSV(h, caseStore, fullRange(), "cases.csv", export.CSVOptions{
			Headers: dict,
			Codecs:  dict.CodecFor,
		})
		if err != nil {
			dialog.ShowError(err, w)
			return
		}
		status.SetText("Exported cases.csv into the exports folder.")
	})

	applyEdit := func(col, row int, v sheet.Value) {
		if caseStore == nil {
			return
		}
		if err := caseStore.Set(col, row, v); err != nil {
			status.SetText(err.Error())
			return
		}
		dataSheet.RefreshCell(col, row)
	}
	undoItem := fyne.NewMenuItem("Undo", func() {
		if e, ok := undoMgr.Undo(); ok {
			applyEdit(e.Col, e.Row, e.Old)
		}
	})
	redoItem := fyne.NewMenuItem("Redo", func() {
		if e, ok := undoMgr.Redo(); ok {
			applyEdit(e.Col, e.Row, e.New)
		}
	})
	undoItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyZ, Modifier: fyne.KeyModifierControl}
	redoItem.Shortcut = &desktop.CustomShortcut{KeyName: fyne.KeyY, Modifier: fyne.KeyModifierControl}

	insertCaseItem := fyne.NewMenuItem("Insert Case", func() {
		mut, ok := caseStore.(sheet.RowMutator)
		if !ok {
			dialog.ShowInformation("Insert Case", "The open case store does not support row insertion.", w)
			return
		}
		at := dataSheet.Selection().Active().Row
		if at < 0 {
			at = 0
		}
		if err := mut.InsertRows(at, 1); err != nil {
			dialog.ShowError(err, w)
		}
	})
	deleteCaseItem := fyne.NewMenuItem("Delete Case", func() {
		mut, ok := caseStore.(sheet.RowMutator)
		if !ok {
			dialog.ShowInformation("Delete Case", "The open case store does not support row deletion.", w)
			return
		}
		if err := mut.DeleteRows(dataSheet.Selection().Active().Row, 1); err != nil {
			dialog.ShowError(err, w)
		}
	})
	splitItem := fyne.NewMenuItem("Split View", toggleSplit)

	w.SetMainMenu(fyne.NewMainMenu(
		fyne.NewMenu("File", newItem, openItem, saveItem, closeItem),
		fyne.NewMenu("Edit", undoItem, redoItem, fyne.NewMenuItemSeparator(), insertCaseItem, deleteCaseItem),
		fyne.NewMenu("Export", exportPDFItem, exportCSVItem),
		fyne.NewMenu("View", splitItem),
	))

	w.SetCloseIntercept(func() {
		sz := w.Canvas().Size()
		prefs.SetInt("window.width", int(sz.Width))
		prefs.SetInt("window.height", int(sz.Height))
		closeDataset()
		w.Close()
	})

	if datasetDir != "" {
		openDataset(datasetDir)
	}

	w.ShowAndRun()
	l.Info("UI stopped")
	return nil
}
