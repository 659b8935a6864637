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
	"errors"
	"testing"
)

// sumSizes recomputes the total extent the slow way for invariant checks.
func sumSizes(t *testing.T, a *Axis) int {
	t.Helper()
	total := 0
	for i := 0; i < a.Count(); i++ {
		sz, err := a.SizeOf(i)
		if err != nil {
			t.Fatalf("SizeOf(%d): %v", i, err)
		}
		total += sz
	}
	return total
}

func TestAxisDefaults(t *testing.T) {
	a := NewAxis(10, 20)
	if a.Count() != 10 || a.DefaultSize() != 20 {
		t.Fatalf("count/default = %d/%d", a.Count(), a.DefaultSize())
	}
	sz, err := a.SizeOf(3)
	if err != nil || sz != 20 {
		t.Fatalf("SizeOf(3) = %d, %v", sz, err)
	}
	if _, err := a.SizeOf(10); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("SizeOf(10) expected ErrOutOfRange, got %v", err)
	}
	if got := a.TotalExtent(); got != 200 {
		t.Fatalf("TotalExtent = %d, want 200", got)
	}
}

func TestAxisOffsetIndexRoundTrip(t *testing.T) {
	a := NewAxis(100, 20)
	if err := a.SetSize(5, 50); err != nil {
		t.Fatalf("SetSize: %v", err)
	}
	if err := a.SetSize(6, 7); err != nil {
		t.Fatalf("SetSize: %v", err)
	}
	if err := a.SetSize(99, 120); err != nil {
		t.Fatalf("SetSize: %v", err)
	}
	for i := 0; i < a.Count(); i++ {
		off, err := a.OffsetOf(i)
		if err != nil {
			t.Fatalf("OffsetOf(%d): %v", i, err)
		}
		got, err := a.IndexAt(off)
		if err != nil {
			t.Fatalf("IndexAt(%d): %v", off, err)
		}
		if got != i {
			t.Fatalf("IndexAt(OffsetOf(%d)) = %d", i, got)
		}
	}
	// Last pixel of each item still maps back to it.
	for _, i := range []int{0, 5, 6, 50, 99} {
		off, _ := a.OffsetOf(i)
		sz, _ := a.SizeOf(i)
		got, err := a.IndexAt(off + sz - 1)
		if err != nil || got != i {
			t.Fatalf("IndexAt(last px of %d) = %d, %v", i, got, err)
		}
	}
}

func TestAxisIndexAtOutOfRange(t *testing.T) {
	a := NewAxis(4, 10)
	if _, err := a.IndexAt(-1); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("negative pixel should be out of range, got %v", err)
	}
	if _, err := a.IndexAt(40); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("pixel at total extent should be out of range, got %v", err)
	}
	if idx, err := a.IndexAt(39); err != nil || idx != 3 {
		t.Fatalf("IndexAt(39) = %d, %v", idx, err)
	}
}

func TestAxisPrefixSumInvariantUnderMutation(t *testing.T) {
	a := NewAxis(50, 10)
	steps := []func() error{
		func() error { return a.SetSize(4, 33) },
		func() error { return a.SetSize(20, 5) },
		func() error { return a.Insert(10, 7) },
		func() error { return a.Delete(0, 3) },
		func() error { return a.SetSize(40, 90) },
		func() error { return a.Delete(15, 10) },
		func() error { return a.Insert(0, 2) },
		func() error { return a.ClearSize(6) },
	}
	for i, step := range steps {
		if err := step(); err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		want := sumSizes(t, a)
		got, err := a.OffsetOf(a.Count())
		if err != nil {
			t.Fatalf("step %d OffsetOf(count): %v", i, err)
		}
		if got != want {
			t.Fatalf("step %d: OffsetOf(count) = %d, want Σ sizes = %d", i, got, want)
		}
	}
}

func TestAxisInsertShiftsOverrides(t *testing.T) {
	a := NewAxis(30, 10)
	if err := a.SetSize(5, 25); err != nil {
		t.Fatalf("SetSize: %v", err)
	}
	if err := a.SetSize(12, 40); err != nil {
		t.Fatalf("SetSize: %v", err)
	}
	before, _ := a.OffsetOf(20)
	extentBefore := a.TotalExtent()

	if err := a.Insert(10, 3); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if sz, _ := a.SizeOf(5); sz != 25 {
		t.Fatalf("override at 5 moved: size = %d", sz)
	}
	if sz, _ := a.SizeOf(12); sz != 10 {
		t.Fatalf("index 12 should be default after shift, got %d", sz)
	}
	if sz, _ := a.SizeOf(15); sz != 40 {
		t.Fatalf("override should have moved 12 -> 15, size(15) = %d", sz)
	}
	// The item formerly at 20 now sits at 23, pushed down by exactly the
	// inserted default extents.
	after, _ := a.OffsetOf(23)
	if after-before != 3*10 {
		t.Fatalf("shifted item moved by %d, want %d", after-before, 3*10)
	}
	if a.TotalExtent()-extentBefore != 3*10 {
		t.Fatalf("extent grew by %d, want %d", a.TotalExtent()-extentBefore, 3*10)
	}
}

func TestAxisDeleteDropsCoveredOverrides(t *testing.T) {
	a := NewAxis(30, 10)
	_ = a.SetSize(5, 25)
	_ = a.SetSize(12, 40)
	_ = a.SetSize(20, 60)

	if err := a.Delete(10, 5); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if a.Count() != 25 {
		t.Fatalf("count = %d", a.Count())
	}
	if sz, _ := a.SizeOf(5); sz != 25 {
		t.Fatalf("override before span must stay, size(5) = %d", sz)
	}
	// Override at 12 was inside [10,15): gone.
	if sz, _ := a.SizeOf(12); sz != 10 {
		t.Fatalf("override inside deleted span must drop, size(12) = %d", sz)
	}
	// Override at 20 shifts to 15.
	if sz, _ := a.SizeOf(15); sz != 60 {
		t.Fatalf("override should have moved 20 -> 15, size(15) = %d", sz)
	}
}

func TestAxisSetSizeClampsToLimits(t *testing.T) {
	a := NewAxis(10, 75)
	a.SetLimits(20, 600)
	_ = a.SetSize(0, 5)
	if sz, _ := a.SizeOf(0); sz != 20 {
		t.Fatalf("size should clamp up to 20, got %d", sz)
	}
	_ = a.SetSize(1, 9999)
	if sz, _ := a.SizeOf(1); sz != 600 {
		t.Fatalf("size should clamp down to 600, got %d", sz)
	}
}

func TestAxisHintRaisesDefaultButOverrideWins(t *testing.T) {
	a := NewAxis(10, 75)
	if err := a.SetSizeHint(2, 120); err != nil {
		t.Fatalf("SetSizeHint: %v", err)
	}
	if sz, _ := a.SizeOf(2); sz != 120 {
		t.Fatalf("hint above default should apply, got %d", sz)
	}
	if err := a.SetSizeHint(3, 40); err != nil {
		t.Fatalf("SetSizeHint: %v", err)
	}
	if sz, _ := a.SizeOf(3); sz != 75 {
		t.Fatalf("hint below default must not shrink, got %d", sz)
	}
	// Explicit user size wins over the content minimum.
	if err := a.SetSize(2, 50); err != nil {
		t.Fatalf("SetSize: %v", err)
	}
	if sz, _ := a.SizeOf(2); sz != 50 {
		t.Fatalf("override should win over hint, got %d", sz)
	}
	if err := a.ClearSize(2); err != nil {
		t.Fatalf("ClearSize: %v", err)
	}
	if sz, _ := a.SizeOf(2); sz != 120 {
		t.Fatalf("hint should apply again after ClearSize, got %d", sz)
	}
}

func TestAxisMillionRowsStaysCheap(t *testing.T) {
	a := NewAxis(1_000_000, 20)
	off, err := a.OffsetOf(1_000_000)
	if err != nil || off != 20_000_000 {
		t.Fatalf("total extent = %d, %v", off, err)
	}
	idx, err := a.IndexAt(5000)
	if err != nil || idx != 250 {
		t.Fatalf("IndexAt(5000) = %d, %v; want 250", idx, err)
	}
	_ = a.SetSize(999_999, 200)
	if got := a.TotalExtent(); got != 20_000_180 {
		t.Fatalf("extent after override = %d", got)
	}
}

func TestAxisObserverNotifiedAndRemovable(t *testing.T) {
	a := NewAxis(10, 20)
	var got []AxisChange
	cancel := a.OnChange(func(c AxisChange) { got = append(got, c) })
	_ = a.SetSize(3, 44)
	_ = a.Insert(0, 1)
	_ = a.Delete(0, 1)
	if len(got) != 3 {
		t.Fatalf("want 3 notifications, got %d", len(got))
	}
	if got[0].Kind != AxisResized || got[0].Index != 3 {
		t.Fatalf("unexpected first change: %+v", got[0])
	}
	if got[1].Kind != AxisInserted || got[2].Kind != AxisDeleted {
		t.Fatalf("unexpected change kinds: %+v %+v", got[1], got[2])
	}
	cancel()
	_ = a.SetSize(4, 44)
	if len(got) != 3 {
		t.Fatalf("observer fired after cancel")
	}
}

func TestAxisResetClearsEverything(t *testing.T) {
	a := NewAxis(10, 20)
	_ = a.SetSize(3, 44)
	_ = a.SetSizeHint(5, 99)
	a.Reset(4)
	if a.Count() != 4 {
		t.Fatalf("count = %d", a.Count())
	}
	if sz, _ := a.SizeOf(3); sz != 20 {
		t.Fatalf("override survived reset: %d", sz)
	}
	if got := a.TotalExtent(); got != 80 {
		t.Fatalf("extent = %d", got)
	}
}
