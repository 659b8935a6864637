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
	"errors"
	"fmt"
	"image/color"
	"log/slog"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	applog "statsheet/internal/log"
	"statsheet/internal/sheet"
)

var (
	gridlineColor = color.NRGBA{R: 0xc8, G: 0xc8, B: 0xc8, A: 0xff}
	cellTextColor = color.NRGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff}
	selectedFill  = color.NRGBA{R: 0xd0, G: 0xe2, B: 0xf8, A: 0xff}
)

const (
	cellTextSize = 12
	cellPadX     = 3
	cellPadY     = 2
)

type cellKey struct{ col, row int }

type renderedCell struct {
	box  *canvas.Rectangle
	text *canvas.Text
}

// sheetView is the Fyne realization target of one grid engine. The engine
// decides which cells exist; the view only creates, moves and destroys
// canvas primitives for them. It implements sheet.CellHost.
type sheetView struct {
	widget.BaseWidget

	eng     *sheet.Sheet
	content *fyne.Container
	cells   map[cellKey]*renderedCell
	editor  *widget.Entry

	log *slog.Logger

	// onStatus surfaces edit errors and selection changes to the shell.
	onStatus func(string)
	// onCommitted reports a successful cell write with the value it replaced.
	onCommitted func(col, row int, old, new sheet.Value)
}

func newSheetView(l *slog.Logger) *sheetView {
	if l == nil {
		l = applog.WithComponent("ui")
	}
	v := &sheetView{
		content: container.NewWithoutLayout(),
		cells:   make(map[cellKey]*renderedCell),
		log:     l,
	}
	v.ExtendBaseWidget(v)
	return v
}

// bind attaches the engine after construction; the engine needs the view as
// its host before the view can know the engine.
func (v *sheetView) bind(eng *sheet.Sheet) { v.eng = eng }

func (v *sheetView) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(v.content)
}

func (v *sheetView) Resize(size fyne.Size) {
	v.BaseWidget.Resize(size)
	if v.eng != nil {
		v.eng.Resize(int(size.Width), int(size.Height))
		v.repositionAll()
	}
}

// CreateCell satisfies sheet.CellHost.
func (v *sheetView) CreateCell(col, row int, _ sheet.RendererID, display string, bounds sheet.Rect) {
	box := canvas.NewRectangle(color.Transparent)
	if v.eng != nil && v.eng.Options().Gridlines {
		box.StrokeColor = gridlineColor
		box.StrokeWidth = 1
	}
	txt := canvas.NewText(display, cellTextColor)
	txt.TextSize = cellTextSize
	c := &renderedCell{box: box, text: txt}
	v.cells[cellKey{col, row}] = c
	v.place(col, row, c, bounds)
	v.content.Add(box)
	v.content.Add(txt)
}

// UpdateCell satisfies sheet.CellHost.
func (v *sheetView) UpdateCell(col, row int, _ sheet.RendererID, display string, bounds sheet.Rect) {
	c, ok := v.cells[cellKey{col, row}]
	if !ok {
		return
	}
	c.text.Text = display
	v.place(col, row, c, bounds)
	c.box.Refresh()
	c.text.Refresh()
}

// DestroyCell satisfies sheet.CellHost.
func (v *sheetView) DestroyCell(col, row int) {
	k := cellKey{col, row}
	c, ok := v.cells[k]
	if !ok {
		return
	}
	v.content.Remove(c.box)
	v.content.Remove(c.text)
	delete(v.cells, k)
}

func (v *sheetView) place(col, row int, c *renderedCell, b sheet.Rect) {
	vp := v.eng.Viewport()
	x := float32(b.X - vp.ScrollX)
	y := float32(b.Y - vp.ScrollY)
	c.box.Resize(fyne.NewSize(float32(b.W), float32(b.H)))
	c.box.Move(fyne.NewPos(x, y))
	c.text.Move(fyne.NewPos(x+cellPadX, y+cellPadY))
	if sel := v.eng.Selection().Get(); sel.Contains(col, row) {
		c.box.FillColor = selectedFill
	} else {
		c.box.FillColor = color.Transparent
	}
}

func (v *sheetView) repositionAll() {
	if v.eng == nil {
		return
	}
	for k, c := range v.cells {
		bounds, err := v.eng.CellBounds(k.col, k.row)
		if err != nil {
			continue
		}
		v.place(k.col, k.row, c, bounds)
	}
	v.content.Refresh()
}

// Scrolled satisfies fyne.Scrollable; wheel deltas move the viewport.
func (v *sheetView) Scrolled(ev *fyne.ScrollEvent) {
	if v.eng == nil {
		return
	}
	vp := v.eng.Viewport()
	v.setScroll(vp.ScrollX-int(ev.Scrolled.DX), vp.ScrollY-int(ev.Scrolled.DY))
}

func (v *sheetView) setScroll(x, y int) {
	v.eng.SetScroll(x, y)
	v.repositionAll()
}

func (v *sheetView) cellAt(pos fyne.Position) (col, row int, ok bool) {
	vp := v.eng.Viewport()
	col, err := v.eng.Columns().IndexAt(int(pos.X) + vp.ScrollX)
	if err != nil {
		return 0, 0, false
	}
	row, err = v.eng.Rows().IndexAt(int(pos.Y) + vp.ScrollY)
	if err != nil {
		return 0, 0, false
	}
	return col, row, true
}

// Tapped selects the cell under the pointer, committing any open edit first.
func (v *sheetView) Tapped(ev *fyne.PointEvent) {
	if v.eng == nil {
		return
	}
	if v.editor != nil {
		v.commitEdit(v.editor.Text)
		if v.editor != nil { // parse failure keeps the editor open
			return
		}
	}
	col, row, ok := v.cellAt(ev.Position)
	if !ok {
		return
	}
	v.eng.Selection().SetActive(col, row)
	v.repositionAll()
	if v.onStatus != nil {
		v.onStatus(fmt.Sprintf("Cell %d:%d", row+1, col+1))
	}
}

// DoubleTapped opens the inline editor on the tapped cell.
func (v *sheetView) DoubleTapped(ev *fyne.PointEvent) {
	if v.eng == nil {
		return
	}
	col, row, ok := v.cellAt(ev.Position)
	if !ok {
		return
	}
	v.eng.Selection().SetActive(col, row)
	v.beginEdit()
}

func (v *sheetView) beginEdit() {
	if v.editor != nil {
		return
	}
	if err := v.eng.BeginEdit(); err != nil {
		if v.onStatus != nil {
			v.onStatus(err.Error())
		}
		return
	}
	cell := v.eng.Editor().Cell()
	bounds, err := v.eng.CellBounds(cell.Col, cell.Row)
	if err != nil {
		v.eng.CancelEdit()
		return
	}
	entry := widget.NewEntry()
	entry.SetText(v.eng.Editor().Text())
	entry.OnSubmitted = func(s string) { v.commitEdit(s) }
	vp := v.eng.Viewport()
	entry.Resize(fyne.NewSize(float32(bounds.W), float32(bounds.H)))
	entry.Move(fyne.NewPos(float32(bounds.X-vp.ScrollX), float32(bounds.Y-vp.ScrollY)))
	v.editor = entry
	v.content.Add(entry)
	if c := fyne.CurrentApp().Driver().CanvasForObject(v); c != nil {
		c.Focus(entry)
	}
}

func (v *sheetView) commitEdit(text string) {
	cell := v.eng.Editor().Cell()
	var old sheet.Value
	if src := v.eng.Source(); src != nil {
		old, _ = src.Get(cell.Col, cell.Row)
	}
	v.eng.SetEditText(text)
	err := v.eng.CommitEdit()
	var pe *sheet.ParseError
	if errors.As(err, &pe) {
		// Editing continues with the text retained; let the user correct it.
		if v.onStatus != nil {
			v.onStatus(fmt.Sprintf("Cannot interpret %q: %v", pe.Text, pe.Err))
		}
		return
	}
	v.closeEditor()
	if err != nil {
		v.log.Warn("cell write rejected", slog.Int("col", cell.Col), slog.Int("row", cell.Row), slog.Any("err", err))
		if v.onStatus != nil {
			v.onStatus(err.Error())
		}
		return
	}
	if v.onCommitted != nil {
		var cur sheet.Value
		if src := v.eng.Source(); src != nil {
			cur, _ = src.Get(cell.Col, cell.Row)
		}
		v.onCommitted(cell.Col, cell.Row, old, cur)
	}
}

func (v *sheetView) cancelEdit() {
	if v.editor == nil {
		return
	}
	v.eng.CancelEdit()
	v.closeEditor()
}

func (v *sheetView) closeEditor() {
	if v.editor == nil {
		return
	}
	v.content.Remove(v.editor)
	v.editor = nil
	v.content.Refresh()
}
