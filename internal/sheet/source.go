/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package sheet implements the virtualized grid engine behind the data view
// and the variable view: axis models mapping item indices to pixel extents,
// a viewport windower that realizes only the visible cells, a selection and
// active-cell model, and a parse/format edit protocol decoupled from the
// concrete data source.
//
// The engine never materializes more cells than fit the viewport plus a
// fixed prefetch margin, so datasets with millions of rows stay cheap to
// display. It is single-threaded by design: all mutations must run on the
// UI event loop.
package sheet

import (
	"errors"
	"fmt"
)

// ErrOutOfRange reports an index or pixel position outside the current axis
// extent. It always indicates a caller bug; boundaries clamp rather than
// propagate it.
var ErrOutOfRange = errors.New("sheet: out of range")

// ErrWriteRejected reports that the data source refused a Set. The cell
// reverts visually; the rejection reason is surfaced to the host unchanged.
var ErrWriteRejected = errors.New("sheet: data source rejected write")

// ParseError reports user-entered text that does not convert to a valid
// value. It is recovered locally by keeping the editor open with the text
// retained; it is never fatal.
type ParseError struct {
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("sheet: cannot parse %q: %v", e.Text, e.Err)
	}
	return fmt.Sprintf("sheet: cannot parse %q", e.Text)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Value is a cell value as exchanged with a data source. Its concrete type
// is private business between the source and the codec bound to the column;
// the engine only moves it around.
type Value any

// Orientation selects one of the two grid axes.
type Orientation int

const (
	Rows Orientation = iota
	Columns
)

func (o Orientation) String() string {
	if o == Rows {
		return "rows"
	}
	return "columns"
}

// DataSource is the external tabular provider the grid displays and edits
// but does not own. Implementations live outside the engine (case stores,
// variable dictionaries). Get and Set use (column, row) coordinates.
type DataSource interface {
	RowCount() int
	ColumnCount() int
	Get(col, row int) (Value, error)
	// Set writes a parsed value. A rejected write must return an error
	// (wrapping ErrWriteRejected where no more specific reason exists);
	// the engine reverts the cell and surfaces the reason to the host.
	Set(col, row int, v Value) error
}

// ItemsChangedFunc is the change notification contract: the source reports
// that items of one axis were replaced, i.e. removed items were deleted at
// start and inserted items added in their place. The engine reacts by
// mutating the matching axis model and re-clamping the selection.
type ItemsChangedFunc func(o Orientation, start, removed, inserted int)

// ChangeNotifier is implemented by sources that mutate behind the grid's
// back. OnItemsChanged registers an observer and returns its removal
// function.
type ChangeNotifier interface {
	OnItemsChanged(fn ItemsChangedFunc) (cancel func())
}

// RowMutator is an optional data-source capability for inserting and
// deleting cases.
type RowMutator interface {
	InsertRows(at, n int) error
	DeleteRows(at, n int) error
}

// ColumnMover is an optional data-source capability backing drag-reorder.
// The engine performs no reordering of its own cached state; it asks the
// source and re-derives the visible range afterward.
type ColumnMover interface {
	MoveColumn(from, to int) error
}

// HeaderSource labels one axis. SizeHint may return a content-driven
// minimum size in pixels for the item, or 0 for no hint; the constraint
// resolver folds it into the effective item size.
type HeaderSource interface {
	Count() int
	Label(index int) string
	SizeHint(index int) int
}

// RendererID names a cell renderer in the sheet's registry. The registry is
// owned by the Sheet instance and populated at construction; there is no
// process-global renderer cache.
type RendererID string

// DefaultRenderer is used when no selector is installed or the selector
// returns an empty ID.
const DefaultRenderer RendererID = "default"

// RendererSelector picks a renderer per column (value cells of the same
// variable render uniformly).
type RendererSelector func(col int) RendererID

// CodecSelector picks the parse/format codec per column. Formatting rules
// (numeric widths, date formats) belong to the data source binding, not to
// the grid.
type CodecSelector func(col int) Codec

// Rect is a pixel rectangle in sheet content coordinates.
type Rect struct {
	X, Y, W, H int
}

// CellHost receives the engine's realization requests. Hosts create real
// display objects (toolkit widgets, canvas primitives) for exactly the
// cells the windower asks for and destroy them when released.
type CellHost interface {
	CreateCell(col, row int, rend RendererID, display string, bounds Rect)
	// UpdateCell refreshes an already realized cell in place (value change,
	// geometry change). No full repaint happens on scroll.
	UpdateCell(col, row int, rend RendererID, display string, bounds Rect)
	DestroyCell(col, row int)
}
