/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package undo

import (
	"testing"
	"time"
)

func TestUndoRedoCycle(t *testing.T) {
	m := NewManager(Config{})
	t0 := time.Now()
	m.Push(Edit{Col: 1, Row: 2, Old: 1.0, New: 2.0, TS: t0})
	m.Push(Edit{Col: 3, Row: 4, Old: "a", New: "b", TS: t0.Add(time.Second)})

	e, ok := m.Undo()
	if !ok || e.Col != 3 || e.Old != "a" {
		t.Fatalf("Undo = %+v, %v", e, ok)
	}
	e, ok = m.Undo()
	if !ok || e.Col != 1 || e.Old != 1.0 {
		t.Fatalf("Undo = %+v, %v", e, ok)
	}
	if _, ok := m.Undo(); ok {
		t.Fatalf("empty undo must report false")
	}

	e, ok = m.Redo()
	if !ok || e.Col != 1 || e.New != 2.0 {
		t.Fatalf("Redo = %+v, %v", e, ok)
	}
	u, r := m.Depths()
	if u != 1 || r != 1 {
		t.Fatalf("depths = %d/%d", u, r)
	}
}

func TestPushInvalidatesRedo(t *testing.T) {
	m := NewManager(Config{})
	t0 := time.Now()
	m.Push(Edit{Col: 0, Row: 0, Old: 1.0, New: 2.0, TS: t0})
	if _, ok := m.Undo(); !ok {
		t.Fatalf("Undo failed")
	}
	m.Push(Edit{Col: 0, Row: 1, Old: 3.0, New: 4.0, TS: t0.Add(time.Second)})
	if _, ok := m.Redo(); ok {
		t.Fatalf("redo must be cleared by a new edit")
	}
}

func TestCoalescingSameCell(t *testing.T) {
	m := NewManager(Config{MinInterval: time.Second})
	t0 := time.Now()
	m.Push(Edit{Col: 2, Row: 2, Old: "start", New: "s1", TS: t0})
	m.Push(Edit{Col: 2, Row: 2, Old: "s1", New: "s2", TS: t0.Add(100 * time.Millisecond)})
	m.Push(Edit{Col: 2, Row: 2, Old: "s2", New: "final", TS: t0.Add(200 * time.Millisecond)})

	u, _ := m.Depths()
	if u != 1 {
		t.Fatalf("rapid retyping should coalesce, depth = %d", u)
	}
	e, ok := m.Undo()
	if !ok || e.Old != "start" || e.New != "final" {
		t.Fatalf("coalesced edit = %+v", e)
	}

	// A different cell never coalesces, even inside the interval.
	m.Push(Edit{Col: 0, Row: 0, Old: 1.0, New: 2.0, TS: t0.Add(300 * time.Millisecond)})
	m.Push(Edit{Col: 0, Row: 1, Old: 1.0, New: 2.0, TS: t0.Add(400 * time.Millisecond)})
	if u, _ := m.Depths(); u != 2 {
		t.Fatalf("depth = %d, want 2", u)
	}
}

func TestDepthCapDropsOldest(t *testing.T) {
	m := NewManager(Config{MaxDepth: 3, MinInterval: time.Nanosecond})
	base := time.Now()
	for i := 0; i < 5; i++ {
		m.Push(Edit{Col: i, Row: 0, Old: float64(i), New: float64(i + 1),
			TS: base.Add(time.Duration(i) * time.Second)})
	}
	u, _ := m.Depths()
	if u != 3 {
		t.Fatalf("depth = %d, want 3", u)
	}
	e, _ := m.Undo()
	if e.Col != 4 {
		t.Fatalf("newest edit = %+v", e)
	}
	m.Clear()
	if u, r := m.Depths(); u != 0 || r != 0 {
		t.Fatalf("Clear left %d/%d", u, r)
	}
}
