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

// Cell addresses a single grid cell.
type Cell struct {
	Col, Row int
}

// Range is a rectangular index range, inclusive on both ends. It is stored
// exactly as constructed: Start is the anchor corner and may lie below or
// right of End. Consumers normalize on read.
type Range struct {
	StartCol, StartRow int
	EndCol, EndRow     int
}

// Normalized returns the range with start <= end on both axes.
func (r Range) Normalized() Range {
	if r.StartCol > r.EndCol {
		r.StartCol, r.EndCol = r.EndCol, r.StartCol
	}
	if r.StartRow > r.EndRow {
		r.StartRow, r.EndRow = r.EndRow, r.StartRow
	}
	return r
}

// Contains reports whether the cell lies inside the normalized range.
func (r Range) Contains(col, row int) bool {
	n := r.Normalized()
	return col >= n.StartCol && col <= n.EndCol && row >= n.StartRow && row <= n.EndRow
}

// Cols returns the normalized column span width.
func (r Range) Cols() int {
	n := r.Normalized()
	return n.EndCol - n.StartCol + 1
}

// Rows returns the normalized row span height.
func (r Range) Rows() int {
	n := r.Normalized()
	return n.EndRow - n.StartRow + 1
}

// IsWholeRows reports whether the range spans every column, i.e. selects
// whole rows. Callers use this to enable clear-row operations.
func (r Range) IsWholeRows(nCols int) bool {
	n := r.Normalized()
	return nCols > 0 && n.StartCol == 0 && n.EndCol == nCols-1
}

// IsWholeColumns reports whether the range spans every row.
func (r Range) IsWholeColumns(nRows int) bool {
	n := r.Normalized()
	return nRows > 0 && n.StartRow == 0 && n.EndRow == nRows-1
}

// Selection is the rectangular selection plus the single active cell
// targeted for keyboard input. The active cell always lies within the
// selection. One Selection exists per Sheet and lives exactly as long as
// it does.
type Selection struct {
	rng    Range
	active Cell

	listeners []selListener
	nextID    int
}

type selListener struct {
	id int
	fn func(Range, Cell)
}

// NewSelection creates a selection covering the origin cell.
func NewSelection() *Selection {
	return &Selection{}
}

// Get returns the selection range as constructed (unnormalized).
func (s *Selection) Get() Range { return s.rng }

// Active returns the active cell.
func (s *Selection) Active() Cell { return s.active }

// Set replaces the selection range, keeping coordinates exactly as given.
// The active cell moves to the anchor corner.
func (s *Selection) Set(startCol, startRow, endCol, endRow int) {
	s.rng = Range{StartCol: startCol, StartRow: startRow, EndCol: endCol, EndRow: endRow}
	s.active = Cell{Col: startCol, Row: startRow}
	s.notify()
}

// SetActive collapses the selection onto a single cell.
func (s *Selection) SetActive(col, row int) {
	s.rng = Range{StartCol: col, StartRow: row, EndCol: col, EndRow: row}
	s.active = Cell{Col: col, Row: row}
	s.notify()
}

// ExtendTo keeps the anchor corner fixed and moves the opposite corner.
func (s *Selection) ExtendTo(col, row int) {
	s.rng.EndCol = col
	s.rng.EndRow = row
	s.notify()
}

// ClampTo forces every coordinate into [0, n-1] for the current axis
// extents. Invoked after any axis insert or delete so the selection never
// references a removed index. An empty axis collapses to index 0.
func (s *Selection) ClampTo(nCols, nRows int) {
	before := s.rng
	activeBefore := s.active
	s.rng.StartCol = clampIndex(s.rng.StartCol, nCols)
	s.rng.EndCol = clampIndex(s.rng.EndCol, nCols)
	s.rng.StartRow = clampIndex(s.rng.StartRow, nRows)
	s.rng.EndRow = clampIndex(s.rng.EndRow, nRows)
	s.active.Col = clampIndex(s.active.Col, nCols)
	s.active.Row = clampIndex(s.active.Row, nRows)
	if before != s.rng || activeBefore != s.active {
		s.notify()
	}
}

// OnChange registers a selection-changed observer (menu sensitivity, the
// reference-label display) and returns its removal function.
func (s *Selection) OnChange(fn func(Range, Cell)) (cancel func()) {
	s.nextID++
	id := s.nextID
	s.listeners = append(s.listeners, selListener{id: id, fn: fn})
	return func() {
		for i, l := range s.listeners {
			if l.id == id {
				s.listeners = append(s.listeners[:i], s.listeners[i+1:]...)
				return
			}
		}
	}
}

func (s *Selection) notify() {
	for _, l := range s.listeners {
		l.fn(s.rng, s.active)
	}
}

func clampIndex(i, n int) int {
	if n <= 0 {
		return 0
	}
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
