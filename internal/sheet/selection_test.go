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

import "testing"

func TestRangeNormalizedRegardlessOfConstructionOrder(t *testing.T) {
	cases := []Range{
		{StartCol: 1, StartRow: 2, EndCol: 5, EndRow: 7},
		{StartCol: 5, StartRow: 7, EndCol: 1, EndRow: 2},
		{StartCol: 5, StartRow: 2, EndCol: 1, EndRow: 7},
		{StartCol: 1, StartRow: 7, EndCol: 5, EndRow: 2},
	}
	for _, r := range cases {
		n := r.Normalized()
		if n.StartCol > n.EndCol || n.StartRow > n.EndRow {
			t.Fatalf("Normalized(%+v) = %+v not normalized", r, n)
		}
		if n.StartCol != 1 || n.EndCol != 5 || n.StartRow != 2 || n.EndRow != 7 {
			t.Fatalf("Normalized(%+v) = %+v", r, n)
		}
	}
}

func TestSelectionExtendKeepsAnchor(t *testing.T) {
	s := NewSelection()
	s.Set(4, 4, 4, 4)
	s.ExtendTo(1, 9)
	got := s.Get()
	if got.StartCol != 4 || got.StartRow != 4 || got.EndCol != 1 || got.EndRow != 9 {
		t.Fatalf("extend moved the anchor: %+v", got)
	}
	n := got.Normalized()
	if n.StartCol != 1 || n.EndCol != 4 || n.StartRow != 4 || n.EndRow != 9 {
		t.Fatalf("normalized = %+v", n)
	}
	if s.Active() != (Cell{Col: 4, Row: 4}) {
		t.Fatalf("active cell should stay at the anchor, got %+v", s.Active())
	}
}

func TestSelectionWholeRowColumn(t *testing.T) {
	s := NewSelection()
	s.Set(0, 3, 9, 5) // columns 0..9 of rows 3..5
	if !s.Get().IsWholeRows(10) {
		t.Fatalf("expected whole-row selection with 10 columns")
	}
	if s.Get().IsWholeRows(11) {
		t.Fatalf("not whole rows with 11 columns")
	}
	s.Set(2, 0, 2, 99)
	if !s.Get().IsWholeColumns(100) {
		t.Fatalf("expected whole-column selection with 100 rows")
	}
}

func TestSelectionClampAfterAxisShrink(t *testing.T) {
	s := NewSelection()
	s.Set(8, 50, 2, 80)
	s.ClampTo(5, 60)
	got := s.Get()
	if got.StartCol != 4 || got.EndCol != 2 || got.StartRow != 50 || got.EndRow != 59 {
		t.Fatalf("clamped = %+v", got)
	}
	if a := s.Active(); a.Col != 4 || a.Row != 50 {
		t.Fatalf("active clamped = %+v", a)
	}
	// Empty axes collapse everything onto 0.
	s.ClampTo(0, 0)
	if s.Get() != (Range{}) || s.Active() != (Cell{}) {
		t.Fatalf("empty-axis clamp: %+v %+v", s.Get(), s.Active())
	}
}

func TestSelectionChangeSignal(t *testing.T) {
	s := NewSelection()
	fired := 0
	var lastRange Range
	cancel := s.OnChange(func(r Range, _ Cell) { fired++; lastRange = r })
	s.Set(1, 1, 3, 3)
	s.ExtendTo(5, 5)
	if fired != 2 {
		t.Fatalf("want 2 notifications, got %d", fired)
	}
	if lastRange.EndCol != 5 || lastRange.EndRow != 5 {
		t.Fatalf("last range = %+v", lastRange)
	}
	// Clamping to extents that already contain the selection must not fire.
	s.ClampTo(100, 100)
	if fired != 2 {
		t.Fatalf("no-op clamp fired a notification")
	}
	cancel()
	s.Set(0, 0, 0, 0)
	if fired != 2 {
		t.Fatalf("observer fired after cancel")
	}
}
