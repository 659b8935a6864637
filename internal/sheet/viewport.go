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

// CellRealizer receives realize/release requests from the windower. The
// Sheet implements it by fetching the value from the data source and
// forwarding a display request to the host.
type CellRealizer interface {
	RealizeCell(col, row int)
	ReleaseCell(col, row int)
}

// Viewport is the current scroll state and pixel size of one sheet view.
type Viewport struct {
	ScrollX, ScrollY int
	Width, Height    int
}

// VisibleRange computes the inclusive index range of items visible in a
// window of extent pixels starting at scroll. ok is false when the axis is
// empty or the extent is not positive. A scroll position beyond the total
// extent clamps to the last item; a window larger than the content yields
// the full range.
func VisibleRange(a *Axis, scroll, extent int) (first, last int, ok bool) {
	n := a.Count()
	if n == 0 || extent <= 0 {
		return 0, -1, false
	}
	if scroll < 0 {
		scroll = 0
	}
	first, err := a.IndexAt(scroll)
	if err != nil {
		// Scrolled past the end.
		return n - 1, n - 1, true
	}
	last, err = a.IndexAt(scroll + extent - 1)
	if err != nil {
		last = n - 1
	}
	return first, last, true
}

// indexRect is a realized cell rectangle, inclusive; empty when last < first.
type indexRect struct {
	c0, c1 int
	r0, r1 int
}

func (r indexRect) empty() bool { return r.c1 < r.c0 || r.r1 < r.r0 }

func (r indexRect) contains(col, row int) bool {
	return col >= r.c0 && col <= r.c1 && row >= r.r0 && row <= r.r1
}

var emptyRect = indexRect{c0: 0, c1: -1, r0: 0, r1: -1}

// Windower recomputes the visible index range on every scroll, resize, or
// axis mutation and diffs it against the previously realized rectangle:
// cells leaving the range are released, cells entering it are realized,
// cells already realized are left untouched. It is the sole authority that
// may request cell realization, and the realized set stays proportional to
// the viewport, never the dataset.
//
// The windower borrows the axis models for the duration of a single Update
// call; it never stores them.
type Windower struct {
	realizer CellRealizer
	prefetch int
	realized indexRect
}

// NewWindower creates a windower delivering requests to r, realizing
// prefetch extra items beyond the visible range on each side of each axis.
func NewWindower(r CellRealizer, prefetch int) *Windower {
	if prefetch < 0 {
		prefetch = 0
	}
	return &Windower{realizer: r, prefetch: prefetch, realized: emptyRect}
}

// Prefetch returns the configured prefetch margin.
func (w *Windower) Prefetch() int { return w.prefetch }

// Realized returns how many cells are currently realized.
func (w *Windower) Realized() int {
	if w.realized.empty() {
		return 0
	}
	return (w.realized.c1 - w.realized.c0 + 1) * (w.realized.r1 - w.realized.r0 + 1)
}

// IsRealized reports whether the cell is inside the realized rectangle.
func (w *Windower) IsRealized(col, row int) bool {
	return !w.realized.empty() && w.realized.contains(col, row)
}

// EachRealized visits every currently realized cell in row-major order.
func (w *Windower) EachRealized(fn func(col, row int)) {
	if w.realized.empty() {
		return
	}
	for row := w.realized.r0; row <= w.realized.r1; row++ {
		for col := w.realized.c0; col <= w.realized.c1; col++ {
			fn(col, row)
		}
	}
}

// Update recomputes the visible rectangle for the viewport against the two
// borrowed axes and emits the realize/release delta.
func (w *Windower) Update(cols, rows *Axis, vp Viewport) {
	next := emptyRect
	c0, c1, okC := VisibleRange(cols, vp.ScrollX, vp.Width)
	r0, r1, okR := VisibleRange(rows, vp.ScrollY, vp.Height)
	if okC && okR {
		next = indexRect{
			c0: maxInt(0, c0-w.prefetch),
			c1: minInt(cols.Count()-1, c1+w.prefetch),
			r0: maxInt(0, r0-w.prefetch),
			r1: minInt(rows.Count()-1, r1+w.prefetch),
		}
	}
	w.apply(next)
}

// Reset releases every realized cell. Used when the data source is swapped:
// cached visible cells are discarded, not transferred.
func (w *Windower) Reset() {
	w.apply(emptyRect)
}

func (w *Windower) apply(next indexRect) {
	prev := w.realized
	if prev == next {
		return
	}
	// Release cells that left the rectangle.
	if !prev.empty() {
		for row := prev.r0; row <= prev.r1; row++ {
			for col := prev.c0; col <= prev.c1; col++ {
				if !next.contains(col, row) {
					w.realizer.ReleaseCell(col, row)
				}
			}
		}
	}
	// Realize cells that entered it.
	if !next.empty() {
		for row := next.r0; row <= next.r1; row++ {
			for col := next.c0; col <= next.c1; col++ {
				if !prev.contains(col, row) {
					w.realizer.RealizeCell(col, row)
				}
			}
		}
	}
	w.realized = next
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
