/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package data

import (
	"fmt"
	"time"

	"statsheet/internal/sheet"
)

// MemStore is the in-memory case store: the working dataset of an open
// document. It implements sheet.DataSource plus the optional row-mutation,
// column-move and change-notification capabilities, so a bound grid follows
// every structural edit.
type MemStore struct {
	dict     *Dictionary
	cases    [][]sheet.Value
	readOnly bool

	listeners []storeListener
	nextID    int
}

type storeListener struct {
	id int
	fn sheet.ItemsChangedFunc
}

// NewMemStore creates an empty case store over a dictionary. The store owns
// neither the dictionary nor its observers; callers add variables through
// the store so cases stay rectangular.
func NewMemStore(dict *Dictionary) *MemStore {
	return &MemStore{dict: dict}
}

// Dictionary returns the variable dictionary backing the columns.
func (m *MemStore) Dictionary() *Dictionary { return m.dict }

// SetReadOnly toggles write protection; rejected writes revert in the grid.
func (m *MemStore) SetReadOnly(v bool) { m.readOnly = v }

// RowCount satisfies sheet.DataSource.
func (m *MemStore) RowCount() int { return len(m.cases) }

// ColumnCount satisfies sheet.DataSource.
func (m *MemStore) ColumnCount() int { return m.dict.Len() }

// Get satisfies sheet.DataSource.
func (m *MemStore) Get(col, row int) (sheet.Value, error) {
	if row < 0 || row >= len(m.cases) || col < 0 || col >= m.dict.Len() {
		return nil, sheet.ErrOutOfRange
	}
	return m.cases[row][col], nil
}

// Set satisfies sheet.DataSource. The value must match the variable kind;
// a mismatch or a read-only store rejects the write.
func (m *MemStore) Set(col, row int, v sheet.Value) error {
	if m.readOnly {
		return fmt.Errorf("dataset is read-only: %w", sheet.ErrWriteRejected)
	}
	if row < 0 || row >= len(m.cases) || col < 0 || col >= m.dict.Len() {
		return sheet.ErrOutOfRange
	}
	va, _ := m.dict.Var(col)
	if err := checkKind(va, v); err != nil {
		return err
	}
	m.cases[row][col] = v
	return nil
}

func checkKind(va Variable, v sheet.Value) error {
	if v == nil {
		return nil
	}
	ok := false
	switch va.Kind {
	case Numeric:
		_, ok = v.(float64)
	case String:
		_, ok = v.(string)
	case Date:
		_, ok = v.(time.Time)
	}
	if !ok {
		return fmt.Errorf("value %T does not fit %s variable %s: %w",
			v, va.Kind, va.Name, sheet.ErrWriteRejected)
	}
	return nil
}

// InsertRows satisfies sheet.RowMutator: n blank cases appear at a row.
func (m *MemStore) InsertRows(at, n int) error {
	if at < 0 || at > len(m.cases) || n < 0 {
		return sheet.ErrOutOfRange
	}
	if n == 0 {
		return nil
	}
	blank := make([][]sheet.Value, n)
	for i := range blank {
		blank[i] = make([]sheet.Value, m.dict.Len())
	}
	m.cases = append(m.cases[:at], append(blank, m.cases[at:]...)...)
	m.notify(sheet.Rows, at, 0, n)
	return nil
}

// DeleteRows satisfies sheet.RowMutator.
func (m *MemStore) DeleteRows(at, n int) error {
	if at < 0 || n < 0 || at+n > len(m.cases) {
		return sheet.ErrOutOfRange
	}
	if n == 0 {
		return nil
	}
	m.cases = append(m.cases[:at], m.cases[at+n:]...)
	m.notify(sheet.Rows, at, n, 0)
	return nil
}

// AppendCase adds one case from already-typed values, padding or truncating
// to the dictionary width. Used by loaders and imports.
func (m *MemStore) AppendCase(vals []sheet.Value) error {
	row := make([]sheet.Value, m.dict.Len())
	copy(row, vals)
	for col, v := range row {
		va, _ := m.dict.Var(col)
		if err := checkKind(va, v); err != nil {
			return err
		}
	}
	m.cases = append(m.cases, row)
	m.notify(sheet.Rows, len(m.cases)-1, 0, 1)
	return nil
}

// MoveColumn satisfies sheet.ColumnMover: the variable and its cell column
// relocate together. The grid re-derives its visible range afterward; no
// items-changed fires for a pure move.
func (m *MemStore) MoveColumn(from, to int) error {
	if err := m.dict.Move(from, to); err != nil {
		return err
	}
	for _, c := range m.cases {
		v := c[from]
		if from < to {
			copy(c[from:to], c[from+1:to+1])
		} else {
			copy(c[to+1:from+1], c[to:from])
		}
		c[to] = v
	}
	return nil
}

// InsertVariable adds a variable at a column, with blank cells in every case.
func (m *MemStore) InsertVariable(at int, v Variable) error {
	if err := m.dict.Insert(at, v); err != nil {
		return err
	}
	for i, c := range m.cases {
		c = append(c, nil)
		copy(c[at+1:], c[at:])
		c[at] = nil
		m.cases[i] = c
	}
	m.notify(sheet.Columns, at, 0, 1)
	return nil
}

// DeleteVariables removes n variables starting at a column, dropping their
// cells from every case.
func (m *MemStore) DeleteVariables(at, n int) error {
	if err := m.dict.Delete(at, n); err != nil {
		return err
	}
	for i, c := range m.cases {
		m.cases[i] = append(c[:at], c[at+n:]...)
	}
	m.notify(sheet.Columns, at, n, 0)
	return nil
}

// OnItemsChanged satisfies sheet.ChangeNotifier.
func (m *MemStore) OnItemsChanged(fn sheet.ItemsChangedFunc) (cancel func()) {
	m.nextID++
	id := m.nextID
	m.listeners = append(m.listeners, storeListener{id: id, fn: fn})
	return func() {
		for i, l := range m.listeners {
			if l.id == id {
				m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
				return
			}
		}
	}
}

func (m *MemStore) notify(o sheet.Orientation, start, removed, inserted int) {
	for _, l := range m.listeners {
		l.fn(o, start, removed, inserted)
	}
}
