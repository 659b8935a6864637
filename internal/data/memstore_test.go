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
	"errors"
	"testing"

	"statsheet/internal/sheet"
)

func testStore(t *testing.T) *MemStore {
	t.Helper()
	m := NewMemStore(testDict(t))
	for i := 0; i < 5; i++ {
		err := m.AppendCase([]sheet.Value{float64(i), "case", float64(i) * 1.5})
		if err != nil {
			t.Fatalf("AppendCase: %v", err)
		}
	}
	return m
}

func TestMemStoreGetSet(t *testing.T) {
	m := testStore(t)
	v, err := m.Get(0, 3)
	if err != nil || v != 3.0 {
		t.Fatalf("Get = %v, %v", v, err)
	}
	if err := m.Set(1, 2, "renamed"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, _ = m.Get(1, 2)
	if v != "renamed" {
		t.Fatalf("value = %v", v)
	}
	if _, err := m.Get(0, 5); !errors.Is(err, sheet.ErrOutOfRange) {
		t.Fatalf("out of range: %v", err)
	}
}

func TestMemStoreRejectsKindMismatchAndReadOnly(t *testing.T) {
	m := testStore(t)
	err := m.Set(0, 0, "text in a numeric column")
	if !errors.Is(err, sheet.ErrWriteRejected) {
		t.Fatalf("kind mismatch: %v", err)
	}
	m.SetReadOnly(true)
	err = m.Set(0, 0, 1.0)
	if !errors.Is(err, sheet.ErrWriteRejected) {
		t.Fatalf("read-only write: %v", err)
	}
	m.SetReadOnly(false)
	if err := m.Set(0, 0, 1.0); err != nil {
		t.Fatalf("Set after reopen: %v", err)
	}
}

func TestMemStoreRowMutationNotifies(t *testing.T) {
	m := testStore(t)
	type ev struct {
		o                        sheet.Orientation
		start, removed, inserted int
	}
	var events []ev
	cancel := m.OnItemsChanged(func(o sheet.Orientation, start, removed, inserted int) {
		events = append(events, ev{o, start, removed, inserted})
	})
	defer cancel()

	if err := m.InsertRows(2, 3); err != nil {
		t.Fatalf("InsertRows: %v", err)
	}
	if m.RowCount() != 8 {
		t.Fatalf("row count = %d", m.RowCount())
	}
	// New cases are blank; old case 2 moved to 5.
	if v, _ := m.Get(0, 2); v != nil {
		t.Fatalf("inserted case not blank: %v", v)
	}
	if v, _ := m.Get(0, 5); v != 2.0 {
		t.Fatalf("shifted case = %v", v)
	}

	if err := m.DeleteRows(0, 4); err != nil {
		t.Fatalf("DeleteRows: %v", err)
	}
	if m.RowCount() != 4 {
		t.Fatalf("row count after delete = %d", m.RowCount())
	}
	want := []ev{{sheet.Rows, 2, 0, 3}, {sheet.Rows, 0, 4, 0}}
	if len(events) != 2 || events[0] != want[0] || events[1] != want[1] {
		t.Fatalf("events = %v, want %v", events, want)
	}
}

func TestMemStoreMoveColumnCarriesData(t *testing.T) {
	m := testStore(t)
	if err := m.MoveColumn(2, 0); err != nil {
		t.Fatalf("MoveColumn: %v", err)
	}
	// score moved to the front, id and name shifted right.
	if m.Dictionary().Label(0) != "score" {
		t.Fatalf("dictionary order: %s", m.Dictionary().Label(0))
	}
	if v, _ := m.Get(0, 2); v != 3.0 {
		t.Fatalf("score of case 2 = %v, want 3.0", v)
	}
	if v, _ := m.Get(1, 2); v != 2.0 {
		t.Fatalf("id of case 2 = %v, want 2.0", v)
	}
	if v, _ := m.Get(2, 2); v != "case" {
		t.Fatalf("name of case 2 = %v", v)
	}

	// Move it back and verify the other direction too.
	if err := m.MoveColumn(0, 2); err != nil {
		t.Fatalf("MoveColumn back: %v", err)
	}
	if v, _ := m.Get(0, 2); v != 2.0 {
		t.Fatalf("id of case 2 after back-move = %v", v)
	}
	if v, _ := m.Get(2, 2); v != 3.0 {
		t.Fatalf("score of case 2 after back-move = %v", v)
	}
}

func TestMemStoreVariableMutation(t *testing.T) {
	m := testStore(t)
	if err := m.InsertVariable(1, Variable{Name: "flag", Kind: String, Width: 1}); err != nil {
		t.Fatalf("InsertVariable: %v", err)
	}
	if m.ColumnCount() != 4 {
		t.Fatalf("column count = %d", m.ColumnCount())
	}
	if v, _ := m.Get(1, 0); v != nil {
		t.Fatalf("new column not blank: %v", v)
	}
	if v, _ := m.Get(2, 0); v != "case" {
		t.Fatalf("shifted column = %v", v)
	}
	if err := m.DeleteVariables(1, 1); err != nil {
		t.Fatalf("DeleteVariables: %v", err)
	}
	if m.ColumnCount() != 3 {
		t.Fatalf("column count after delete = %d", m.ColumnCount())
	}
	if v, _ := m.Get(1, 0); v != "case" {
		t.Fatalf("column restore = %v", v)
	}
}

// The store drives a real grid end to end: structural edits reach the bound
// sheet through the change notifications.
func TestMemStoreDrivesSheet(t *testing.T) {
	m := testStore(t)
	host := &countingHost{}
	s := sheet.New(sheet.Config{Host: host, Codecs: m.Dictionary().CodecFor,
		Options: sheet.Options{Editable: true}})
	s.SetSource(m)
	s.SetHeaderSources(m.Dictionary(), nil)
	s.Resize(600, 300)

	if s.Rows().Count() != 5 || s.Columns().Count() != 3 {
		t.Fatalf("axes = %dx%d", s.Columns().Count(), s.Rows().Count())
	}
	if err := m.InsertRows(0, 2); err != nil {
		t.Fatalf("InsertRows: %v", err)
	}
	if s.Rows().Count() != 7 {
		t.Fatalf("sheet did not follow insert: %d", s.Rows().Count())
	}

	// Edit through the grid with the dictionary's codec.
	s.Selection().SetActive(2, 3)
	if err := s.BeginEdit(); err != nil {
		t.Fatalf("BeginEdit: %v", err)
	}
	s.SetEditText("4.25")
	if err := s.CommitEdit(); err != nil {
		t.Fatalf("CommitEdit: %v", err)
	}
	if v, _ := m.Get(2, 3); v != 4.25 {
		t.Fatalf("committed = %v", v)
	}
}

type countingHost struct {
	live int
}

func (h *countingHost) CreateCell(int, int, sheet.RendererID, string, sheet.Rect) { h.live++ }
func (h *countingHost) UpdateCell(int, int, sheet.RendererID, string, sheet.Rect) {}
func (h *countingHost) DestroyCell(int, int)                                      { h.live-- }
