/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package sheet

import (
	"fmt"
	"log/slog"

	applog "statsheet/internal/log"
)

// Modifiers is a bitmask of keyboard modifiers accompanying a pointer event.
type Modifiers uint

const (
	ModShift Modifiers = 1 << iota
	ModCtrl
	ModAlt
)

// Options are the grid-observable configuration switches.
type Options struct {
	Editable   bool
	Gridlines  bool
	ColumnDrag bool
}

// Config assembles a Sheet. Host is required; everything else has
// serviceable defaults.
type Config struct {
	Host CellHost

	DefaultRowHeight   int
	DefaultColumnWidth int
	MinColumnWidth     int
	MaxColumnWidth     int
	Prefetch           int

	Options Options

	// Codecs selects the parse/format codec per column; nil binds a plain
	// string codec everywhere.
	Codecs CodecSelector
	// Renderers selects the renderer per column; nil selects
	// DefaultRenderer everywhere.
	Renderers RendererSelector
	// Measurer provides content-width measurement for auto-fit; nil uses
	// the deterministic basicfont measurer.
	Measurer *TextMeasurer

	Logger *slog.Logger
}

// Sheet composes the two axis models, the selection, the viewport windower
// and the data-source binding into one virtualized grid. It owns the axes
// and the selection outright; the data and header sources are referenced,
// never owned, and can be swapped at runtime.
type Sheet struct {
	cols *Axis
	rows *Axis
	sel  *Selection
	win  *Windower

	src        DataSource
	unsubSrc   func()
	rowHeaders HeaderSource
	colHeaders HeaderSource

	host      CellHost
	codecs    CodecSelector
	renderers RendererSelector
	registry  map[RendererID]CellRenderer
	measurer  *TextMeasurer
	opts      Options

	vp      Viewport
	editor  Editor
	hinted  map[int]bool // columns whose content minimum was resolved
	syncing bool         // guards against re-entrant window updates

	valueChanged  signalList[func(col, row int)]
	columnMoved   signalList[func(from, to int)]
	rowMoved      signalList[func(from, to int)]
	headerPressed signalList[func(o Orientation, index, button int, mods Modifiers)]
	headerDouble  signalList[func(o Orientation, index int)]

	log *slog.Logger
}

// New creates an unbound Sheet. Bind a data source with SetSource before
// driving the viewport.
func New(cfg Config) *Sheet {
	if cfg.Host == nil {
		panic("sheet: Config.Host is required")
	}
	if cfg.DefaultRowHeight <= 0 {
		cfg.DefaultRowHeight = 20
	}
	if cfg.DefaultColumnWidth <= 0 {
		cfg.DefaultColumnWidth = 75
	}
	if cfg.Logger == nil {
		cfg.Logger = applog.WithComponent("sheet")
	}
	if cfg.Measurer == nil {
		cfg.Measurer = NewTextMeasurer(nil, 3)
	}
	s := &Sheet{
		cols:      NewAxis(0, cfg.DefaultColumnWidth),
		rows:      NewAxis(0, cfg.DefaultRowHeight),
		sel:       NewSelection(),
		host:      cfg.Host,
		codecs:    cfg.Codecs,
		renderers: cfg.Renderers,
		registry:  map[RendererID]CellRenderer{DefaultRenderer: nil},
		measurer:  cfg.Measurer,
		opts:      cfg.Options,
		hinted:    make(map[int]bool),
		log:       cfg.Logger,
	}
	if cfg.MinColumnWidth > 0 || cfg.MaxColumnWidth > 0 {
		s.cols.SetLimits(cfg.MinColumnWidth, cfg.MaxColumnWidth)
	}
	s.win = NewWindower(s, cfg.Prefetch)
	s.cols.OnChange(s.axisChanged)
	s.rows.OnChange(s.axisChanged)
	return s
}

// axisChanged re-derives the visible range and realized geometry after any
// axis mutation, including ones made directly through Columns()/Rows().
// Hint resolution during cell realization mutates the axis mid-update; the
// guard keeps that from recursing.
func (s *Sheet) axisChanged(AxisChange) {
	if s.syncing {
		return
	}
	s.updateWindow()
	s.refreshVisible()
}

func (s *Sheet) updateWindow() {
	if s.syncing {
		return
	}
	s.syncing = true
	s.win.Update(s.cols, s.rows, s.vp)
	s.syncing = false
}

// Columns returns the column axis model. The Sheet owns it; callers may
// mutate sizes but must not retain it past the Sheet's lifetime.
func (s *Sheet) Columns() *Axis { return s.cols }

// Rows returns the row axis model.
func (s *Sheet) Rows() *Axis { return s.rows }

// Selection returns the selection model.
func (s *Sheet) Selection() *Selection { return s.sel }

// Windower returns the viewport windower, mainly for tests and hosts that
// need the realized-set bound.
func (s *Sheet) Windower() *Windower { return s.win }

// Options returns the current configuration switches.
func (s *Sheet) Options() Options { return s.opts }

// SetEditable toggles cell editing.
func (s *Sheet) SetEditable(v bool) { s.opts.Editable = v }

// SetGridlines toggles gridline visibility (interpreted by the host).
func (s *Sheet) SetGridlines(v bool) { s.opts.Gridlines = v }

// SetColumnDrag toggles horizontal drag-reorder.
func (s *Sheet) SetColumnDrag(v bool) { s.opts.ColumnDrag = v }

// RegisterRenderer installs a host display strategy under an ID. The
// registry belongs to this Sheet instance; there is no process-global
// renderer cache.
func (s *Sheet) RegisterRenderer(id RendererID, r CellRenderer) {
	s.registry[id] = r
}

// Renderer looks a registered renderer up by ID.
func (s *Sheet) Renderer(id RendererID) (CellRenderer, bool) {
	r, ok := s.registry[id]
	return r, ok
}

// CellRenderer is a host display strategy; opaque to the engine.
type CellRenderer any

// SetSource binds the sheet to a data source, discarding every realized
// cell and all cached axis state from the previous binding. src may be nil
// to unbind.
func (s *Sheet) SetSource(src DataSource) {
	if s.unsubSrc != nil {
		s.unsubSrc()
		s.unsubSrc = nil
	}
	s.win.Reset()
	s.editor.Cancel()
	s.src = src
	s.hinted = make(map[int]bool)
	if src == nil {
		s.cols.Reset(0)
		s.rows.Reset(0)
		return
	}
	s.cols.Reset(src.ColumnCount())
	s.rows.Reset(src.RowCount())
	s.sel.ClampTo(s.cols.Count(), s.rows.Count())
	if n, ok := src.(ChangeNotifier); ok {
		s.unsubSrc = n.OnItemsChanged(s.sourceItemsChanged)
	}
	s.log.Debug("source bound",
		slog.Int("rows", src.RowCount()), slog.Int("columns", src.ColumnCount()))
	s.updateWindow()
}

// Source returns the bound data source, if any.
func (s *Sheet) Source() DataSource { return s.src }

// SetHeaderSources binds the per-axis label providers. Column content
// minimums are resolved lazily as columns become visible.
func (s *Sheet) SetHeaderSources(colHeaders, rowHeaders HeaderSource) {
	s.colHeaders = colHeaders
	s.rowHeaders = rowHeaders
	s.hinted = make(map[int]bool)
	s.refreshVisible()
}

// ColumnHeaders returns the bound column header source.
func (s *Sheet) ColumnHeaders() HeaderSource { return s.colHeaders }

// RowHeaders returns the bound row header source.
func (s *Sheet) RowHeaders() HeaderSource { return s.rowHeaders }

// sourceItemsChanged reacts to the data source's change notification by
// mutating the matching axis with the same bounds and re-clamping the
// selection, then re-deriving the visible range.
func (s *Sheet) sourceItemsChanged(o Orientation, start, removed, inserted int) {
	ax := s.rows
	if o == Columns {
		ax = s.cols
	}
	if removed > 0 {
		if max := ax.Count() - start; removed > max {
			s.log.Warn("items-changed span clamped to axis extent",
				slog.String("axis", o.String()), slog.Int("start", start), slog.Int("removed", removed))
			removed = max
		}
		if removed > 0 {
			if err := ax.Delete(start, removed); err != nil {
				s.log.Warn("items-changed delete out of bounds",
					slog.String("axis", o.String()), slog.Int("start", start), slog.Int("removed", removed))
			}
		}
	}
	if inserted > 0 {
		if start > ax.Count() {
			start = ax.Count()
		}
		if err := ax.Insert(start, inserted); err != nil {
			s.log.Warn("items-changed insert out of bounds",
				slog.String("axis", o.String()), slog.Int("start", start), slog.Int("inserted", inserted))
		}
	}
	s.sel.ClampTo(s.cols.Count(), s.rows.Count())
	if active := s.editor.State(); active != EditIdle {
		// The edited cell may no longer exist; abandon rather than write
		// into a shifted index.
		s.editor.Cancel()
	}
	s.updateWindow()
	s.refreshVisible()
}

// Viewport returns the current scroll state and pixel size.
func (s *Sheet) Viewport() Viewport { return s.vp }

// Resize sets the viewport pixel size and re-derives the visible range.
func (s *Sheet) Resize(width, height int) {
	s.vp.Width = width
	s.vp.Height = height
	s.updateWindow()
}

// SetScroll sets the pixel scroll offsets and re-derives the visible range.
func (s *Sheet) SetScroll(x, y int) {
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	s.vp.ScrollX = x
	s.vp.ScrollY = y
	s.updateWindow()
}

// ScrollTo adjusts the scroll offsets just enough that the addressed cell's
// bounds fall within the viewport, then re-derives the visible range.
// Either coordinate may be -1 to leave that axis alone.
func (s *Sheet) ScrollTo(col, row int) error {
	x, y := s.vp.ScrollX, s.vp.ScrollY
	if col >= 0 {
		w, err := s.cols.SizeOf(col)
		if err != nil {
			return err
		}
		off, _ := s.cols.OffsetOf(col)
		if off < x {
			x = off
		} else if off+w > x+s.vp.Width {
			x = off + w - s.vp.Width
		}
	}
	if row >= 0 {
		h, err := s.rows.SizeOf(row)
		if err != nil {
			return err
		}
		off, _ := s.rows.OffsetOf(row)
		if off < y {
			y = off
		} else if off+h > y+s.vp.Height {
			y = off + h - s.vp.Height
		}
	}
	s.SetScroll(x, y)
	return nil
}

// CellBounds returns the pixel rectangle of a cell in content coordinates.
func (s *Sheet) CellBounds(col, row int) (Rect, error) {
	x, err := s.cols.OffsetOf(col)
	if err != nil {
		return Rect{}, err
	}
	y, err := s.rows.OffsetOf(row)
	if err != nil {
		return Rect{}, err
	}
	w, err := s.cols.SizeOf(col)
	if err != nil {
		return Rect{}, err
	}
	h, err := s.rows.SizeOf(row)
	if err != nil {
		return Rect{}, err
	}
	return Rect{X: x, Y: y, W: w, H: h}, nil
}

// RealizeCell satisfies CellRealizer: fetch, format, and hand the cell to
// the host. Only the windower calls this.
func (s *Sheet) RealizeCell(col, row int) {
	s.resolveColumnHint(col)
	bounds, err := s.CellBounds(col, row)
	if err != nil {
		return
	}
	s.host.CreateCell(col, row, s.rendererFor(col), s.displayFor(col, row), bounds)
}

// ReleaseCell satisfies CellRealizer.
func (s *Sheet) ReleaseCell(col, row int) {
	s.host.DestroyCell(col, row)
}

// refreshVisible pushes fresh display strings and geometry into every
// realized cell without tearing any down.
func (s *Sheet) refreshVisible() {
	s.win.EachRealized(func(col, row int) {
		bounds, err := s.CellBounds(col, row)
		if err != nil {
			return
		}
		s.host.UpdateCell(col, row, s.rendererFor(col), s.displayFor(col, row), bounds)
	})
}

// RefreshCell re-displays one cell if it is currently realized.
func (s *Sheet) RefreshCell(col, row int) {
	if !s.win.IsRealized(col, row) {
		return
	}
	bounds, err := s.CellBounds(col, row)
	if err != nil {
		return
	}
	s.host.UpdateCell(col, row, s.rendererFor(col), s.displayFor(col, row), bounds)
}

func (s *Sheet) displayFor(col, row int) string {
	if s.src == nil {
		return ""
	}
	v, err := s.src.Get(col, row)
	if err != nil {
		s.log.Debug("get failed", slog.Int("col", col), slog.Int("row", row), slog.Any("err", err))
		return ""
	}
	return s.codecFor(col).Format(v)
}

func (s *Sheet) codecFor(col int) Codec {
	if s.codecs != nil {
		if c := s.codecs(col); c != nil {
			return c
		}
	}
	return stringCodec{}
}

func (s *Sheet) rendererFor(col int) RendererID {
	if s.renderers != nil {
		if id := s.renderers(col); id != "" {
			if _, ok := s.registry[id]; ok {
				return id
			}
		}
	}
	return DefaultRenderer
}

// resolveColumnHint folds the header label width and the header's own size
// hint into the column's content minimum, once per column.
func (s *Sheet) resolveColumnHint(col int) {
	if s.hinted[col] || s.colHeaders == nil || col >= s.colHeaders.Count() {
		return
	}
	s.hinted[col] = true
	hint := s.colHeaders.SizeHint(col)
	if w := s.measurer.Width(s.colHeaders.Label(col)); w > hint {
		hint = w
	}
	if hint > 0 {
		_ = s.cols.SetSizeHint(col, hint)
	}
}

// AutoFitColumn grows a column's content minimum to the widest display
// string among its realized cells and its header label.
func (s *Sheet) AutoFitColumn(col int) error {
	if col < 0 || col >= s.cols.Count() {
		return ErrOutOfRange
	}
	width := 0
	if s.colHeaders != nil && col < s.colHeaders.Count() {
		width = s.measurer.Width(s.colHeaders.Label(col))
	}
	s.win.EachRealized(func(c, r int) {
		if c != col {
			return
		}
		if w := s.measurer.Width(s.displayFor(c, r)); w > width {
			width = w
		}
	})
	if width == 0 {
		return nil
	}
	if err := s.cols.SetSizeHint(col, width); err != nil {
		return err
	}
	_ = s.cols.ClearSize(col)
	s.updateWindow()
	s.refreshVisible()
	return nil
}

// SetValue writes a parsed value straight through the source (programmatic
// edits, paste), refreshing the cell and emitting value-changed.
func (s *Sheet) SetValue(col, row int, v Value) error {
	if s.src == nil {
		return fmt.Errorf("sheet: no data source bound")
	}
	if err := s.src.Set(col, row, v); err != nil {
		return err
	}
	s.RefreshCell(col, row)
	s.valueChanged.emit(func(fn func(col, row int)) { fn(col, row) })
	return nil
}

// Editor returns the edit state machine for inspection.
func (s *Sheet) Editor() *Editor { return &s.editor }

// BeginEdit enters Editing on the active cell, snapshotting its value.
func (s *Sheet) BeginEdit() error {
	if !s.opts.Editable {
		return fmt.Errorf("sheet: not editable")
	}
	if s.src == nil {
		return fmt.Errorf("sheet: no data source bound")
	}
	cell := s.sel.Active()
	if cell.Col >= s.src.ColumnCount() || cell.Row >= s.src.RowCount() {
		return ErrOutOfRange
	}
	v, err := s.src.Get(cell.Col, cell.Row)
	if err != nil {
		return err
	}
	s.editor.Begin(cell, v, s.codecFor(cell.Col))
	return nil
}

// SetEditText replaces the text under edit.
func (s *Sheet) SetEditText(text string) { s.editor.SetText(text) }

// CommitEdit parses the edit text and writes it through the source.
// A *ParseError keeps the editor open with the text retained; a rejected
// write reverts the cell and surfaces the reason unchanged. On success the
// cell refreshes and value-changed fires.
func (s *Sheet) CommitEdit() error {
	if s.editor.State() != EditEditing {
		return nil
	}
	cell := s.editor.Cell()
	err := s.editor.Commit(s.codecFor(cell.Col), func(v Value) error {
		return s.src.Set(cell.Col, cell.Row, v)
	})
	if err != nil {
		if _, ok := err.(*ParseError); !ok {
			// Write rejected: the displayed value reverts to the snapshot.
			s.RefreshCell(cell.Col, cell.Row)
		}
		return err
	}
	s.RefreshCell(cell.Col, cell.Row)
	s.valueChanged.emit(func(fn func(col, row int)) { fn(cell.Col, cell.Row) })
	return nil
}

// CancelEdit abandons the edit; the prior value stays displayed.
func (s *Sheet) CancelEdit() {
	cell := s.editor.Cell()
	wasEditing := s.editor.State() != EditIdle
	s.editor.Cancel()
	if wasEditing {
		s.RefreshCell(cell.Col, cell.Row)
	}
}

// DropColumn completes a column drag: from is the dragged column, slot is
// the insertion slot the pointer was released over (0..ColumnCount). The
// destination adjusts for the vacated source slot, the source performs the
// reorder, and the grid merely re-derives the visible range.
func (s *Sheet) DropColumn(from, slot int) error {
	if !s.opts.ColumnDrag {
		return fmt.Errorf("sheet: column drag disabled")
	}
	mover, ok := s.src.(ColumnMover)
	if !ok {
		return fmt.Errorf("sheet: data source cannot reorder columns")
	}
	n := s.cols.Count()
	if from < 0 || from >= n || slot < 0 || slot > n {
		return ErrOutOfRange
	}
	to := slot
	if slot > from {
		to = slot - 1
	}
	if to == from {
		return nil
	}
	if err := mover.MoveColumn(from, to); err != nil {
		return fmt.Errorf("reorder column: %w", err)
	}
	s.log.Debug("column moved", slog.Int("from", from), slog.Int("to", to))
	s.refreshVisible()
	s.columnMoved.emit(func(fn func(from, to int)) { fn(from, to) })
	return nil
}

// HeaderPress routes a pointer press on an axis header: the whole row or
// column is selected and the header-pressed signal fires with the button
// and modifiers for the host's popup logic.
func (s *Sheet) HeaderPress(o Orientation, index, button int, mods Modifiers) {
	switch o {
	case Columns:
		if index >= 0 && index < s.cols.Count() {
			if n := s.rows.Count(); n > 0 {
				s.sel.Set(index, 0, index, n-1)
			}
		}
	case Rows:
		if index >= 0 && index < s.rows.Count() {
			if n := s.cols.Count(); n > 0 {
				s.sel.Set(0, index, n-1, index)
			}
		}
	}
	s.headerPressed.emit(func(fn func(o Orientation, index, button int, mods Modifiers)) {
		fn(o, index, button, mods)
	})
}

// HeaderDoubleClick emits the header-double-clicked signal (hosts map it to
// auto-fit or variable editing).
func (s *Sheet) HeaderDoubleClick(o Orientation, index int) {
	s.headerDouble.emit(func(fn func(o Orientation, index int)) { fn(o, index) })
}

// OnValueChanged registers a value-changed observer.
func (s *Sheet) OnValueChanged(fn func(col, row int)) (cancel func()) {
	return s.valueChanged.add(fn)
}

// OnColumnMoved registers a column-moved observer.
func (s *Sheet) OnColumnMoved(fn func(from, to int)) (cancel func()) {
	return s.columnMoved.add(fn)
}

// OnHeaderPressed registers a header-press observer.
func (s *Sheet) OnHeaderPressed(fn func(o Orientation, index, button int, mods Modifiers)) (cancel func()) {
	return s.headerPressed.add(fn)
}

// OnHeaderDoubleClicked registers a header-double-click observer.
func (s *Sheet) OnHeaderDoubleClicked(fn func(o Orientation, index int)) (cancel func()) {
	return s.headerDouble.add(fn)
}

// OnSelectionChanged registers a selection observer.
func (s *Sheet) OnSelectionChanged(fn func(Range, Cell)) (cancel func()) {
	return s.sel.OnChange(fn)
}

// stringCodec is the identity codec bound when no selector is installed.
type stringCodec struct{}

func (stringCodec) Format(v Value) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func (stringCodec) Parse(text string) (Value, error) { return text, nil }

// signalList is a tiny observer list with stable removal handles.
type signalList[F any] struct {
	entries []signalEntry[F]
	nextID  int
}

type signalEntry[F any] struct {
	id int
	fn F
}

func (l *signalList[F]) add(fn F) (cancel func()) {
	l.nextID++
	id := l.nextID
	l.entries = append(l.entries, signalEntry[F]{id: id, fn: fn})
	return func() {
		for i, e := range l.entries {
			if e.id == id {
				l.entries = append(l.entries[:i], l.entries[i+1:]...)
				return
			}
		}
	}
}

func (l *signalList[F]) emit(call func(F)) {
	for _, e := range l.entries {
		call(e.fn)
	}
}
