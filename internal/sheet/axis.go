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

import "sort"

// Axis maps between item indices and pixel positions along one grid
// dimension. Most items share the axis default size; per-item overrides and
// content-driven minimums are sparse. Offsets are served from a lazily
// rebuilt prefix-sum cache over the sparsely adjusted items only, so lookups
// stay logarithmic no matter how many rows the dataset has.
//
// Invariant: offset(i) == Σ size(j) for j < i, for every i in [0, count].
// The cache is never read while dirty beyond the requested position; it is
// rebuilt up to that position first.
//
// An Axis is owned by its Sheet and is not safe for concurrent use; every
// mutation runs on the UI event loop.
type Axis struct {
	count   int
	def     int
	minSize int
	maxSize int // 0 = unlimited

	overrides map[int]int // explicit user sizes, already clamped
	hints     map[int]int // content-driven minimums (header/content width)

	// entries lists, in index order, every item whose effective size
	// differs from the default. prefix[p] holds the accumulated deviation
	// Σ (size-def) over entries before position p and is valid only for
	// p <= cleanPos.
	entries  []adjEntry
	prefix   []int
	cleanPos int

	listeners []axisListener
	nextID    int
}

type adjEntry struct {
	index int
	size  int
}

// AxisChangeKind describes an axis mutation for observers.
type AxisChangeKind int

const (
	AxisResized AxisChangeKind = iota
	AxisInserted
	AxisDeleted
	AxisReset
)

// AxisChange is delivered to observers after every successful mutation.
// Index/Count locate the first affected item and how many were touched.
type AxisChange struct {
	Kind  AxisChangeKind
	Index int
	Count int
}

type axisListener struct {
	id int
	fn func(AxisChange)
}

// NewAxis creates an axis of count items with the given default item size
// in pixels. The minimum item size starts at 1 and the maximum is
// unlimited; adjust with SetLimits.
func NewAxis(count, defaultSize int) *Axis {
	if count < 0 {
		count = 0
	}
	if defaultSize < 1 {
		defaultSize = 1
	}
	return &Axis{
		count:     count,
		def:       defaultSize,
		minSize:   1,
		overrides: make(map[int]int),
		hints:     make(map[int]int),
		prefix:    []int{0},
	}
}

// Count returns the number of items.
func (a *Axis) Count() int { return a.count }

// DefaultSize returns the size used for items without overrides or hints.
func (a *Axis) DefaultSize() int { return a.def }

// SetLimits sets the clamp range applied by SetSize and by hint resolution.
// max == 0 means unlimited.
func (a *Axis) SetLimits(min, max int) {
	if min < 1 {
		min = 1
	}
	a.minSize = min
	a.maxSize = max
	a.rebuildEntries()
	a.notify(AxisChange{Kind: AxisReset, Index: 0, Count: a.count})
}

// SetDefaultSize changes the axis default and invalidates all cached
// offsets.
func (a *Axis) SetDefaultSize(size int) {
	if size < 1 {
		size = 1
	}
	if size == a.def {
		return
	}
	a.def = size
	a.rebuildEntries()
	a.notify(AxisChange{Kind: AxisReset, Index: 0, Count: a.count})
}

// SizeOf returns the effective size of an item: the explicit override if
// present, else the content minimum when it exceeds the default, else the
// default. Fails with ErrOutOfRange when index >= Count.
func (a *Axis) SizeOf(index int) (int, error) {
	if index < 0 || index >= a.count {
		return 0, ErrOutOfRange
	}
	return a.effective(index), nil
}

// OffsetOf returns the pixel offset of the leading edge of an item.
// index may equal Count, in which case the total extent is returned.
func (a *Axis) OffsetOf(index int) (int, error) {
	if index < 0 || index > a.count {
		return 0, ErrOutOfRange
	}
	return a.offset(index), nil
}

// TotalExtent returns the summed size of all items.
func (a *Axis) TotalExtent() int { return a.offset(a.count) }

// IndexAt returns the item whose extent contains the pixel position: the
// last index whose offset is <= px. Fails with ErrOutOfRange when px lies
// beyond the total extent (callers clamp to the last index) or is negative.
func (a *Axis) IndexAt(px int) (int, error) {
	if px < 0 || a.count == 0 || px >= a.TotalExtent() {
		return 0, ErrOutOfRange
	}
	// First index whose following edge lies beyond px.
	i := sort.Search(a.count, func(i int) bool { return a.offset(i+1) > px })
	return i, nil
}

// SetSize installs an explicit size override for an item, clamped to the
// axis limits, and invalidates cached offsets from the item onward.
func (a *Axis) SetSize(index, size int) error {
	if index < 0 || index >= a.count {
		return ErrOutOfRange
	}
	a.overrides[index] = a.clamp(size)
	a.updateEntry(index)
	a.notify(AxisChange{Kind: AxisResized, Index: index, Count: 1})
	return nil
}

// ClearSize removes an explicit override, letting the hint or default apply
// again.
func (a *Axis) ClearSize(index int) error {
	if index < 0 || index >= a.count {
		return ErrOutOfRange
	}
	if _, ok := a.overrides[index]; !ok {
		return nil
	}
	delete(a.overrides, index)
	a.updateEntry(index)
	a.notify(AxisChange{Kind: AxisResized, Index: index, Count: 1})
	return nil
}

// SetSizeHint records a content-driven minimum for an item (header label
// width, widest visible cell). A hint of 0 clears it. Hints only ever grow
// an item beyond the default; an explicit override wins over the hint.
func (a *Axis) SetSizeHint(index, size int) error {
	if index < 0 || index >= a.count {
		return ErrOutOfRange
	}
	if size <= 0 {
		if _, ok := a.hints[index]; !ok {
			return nil
		}
		delete(a.hints, index)
	} else {
		a.hints[index] = size
	}
	a.updateEntry(index)
	a.notify(AxisChange{Kind: AxisResized, Index: index, Count: 1})
	return nil
}

// Insert makes room for n new default-sized items starting at index.
// Overrides and hints at or after index shift up by n.
func (a *Axis) Insert(index, n int) error {
	if index < 0 || index > a.count || n < 0 {
		return ErrOutOfRange
	}
	if n == 0 {
		return nil
	}
	a.shiftKeys(index, n)
	for i := range a.entries {
		if a.entries[i].index >= index {
			a.entries[i].index += n
		}
	}
	a.count += n
	// Entry positions and sizes are unchanged by a pure shift, so the
	// prefix cache stays valid; offsets after index change through the
	// index*default term alone.
	a.notify(AxisChange{Kind: AxisInserted, Index: index, Count: n})
	return nil
}

// Delete removes n items starting at index. Overrides and hints inside the
// removed span are dropped; the rest shift down.
func (a *Axis) Delete(index, n int) error {
	if index < 0 || n < 0 || index+n > a.count {
		return ErrOutOfRange
	}
	if n == 0 {
		return nil
	}
	for k := range a.overrides {
		if k >= index && k < index+n {
			delete(a.overrides, k)
		}
	}
	for k := range a.hints {
		if k >= index && k < index+n {
			delete(a.hints, k)
		}
	}
	a.shiftKeys(index+n, -n)
	kept := a.entries[:0]
	for _, e := range a.entries {
		switch {
		case e.index < index:
			kept = append(kept, e)
		case e.index >= index+n:
			e.index -= n
			kept = append(kept, e)
		}
	}
	a.entries = kept
	a.prefix = a.prefix[:len(a.entries)+1]
	a.invalidateFromIndex(index)
	a.count -= n
	a.notify(AxisChange{Kind: AxisDeleted, Index: index, Count: n})
	return nil
}

// Reset discards every override and hint and sets a new item count. Used
// when the sheet is re-bound to a different data source.
func (a *Axis) Reset(count int) {
	if count < 0 {
		count = 0
	}
	a.count = count
	a.overrides = make(map[int]int)
	a.hints = make(map[int]int)
	a.entries = a.entries[:0]
	a.prefix = a.prefix[:1]
	a.cleanPos = 0
	a.notify(AxisChange{Kind: AxisReset, Index: 0, Count: count})
}

// OnChange registers an observer for axis mutations and returns its removal
// function. Observers are invoked synchronously, after the mutation applied.
func (a *Axis) OnChange(fn func(AxisChange)) (cancel func()) {
	a.nextID++
	id := a.nextID
	a.listeners = append(a.listeners, axisListener{id: id, fn: fn})
	return func() {
		for i, l := range a.listeners {
			if l.id == id {
				a.listeners = append(a.listeners[:i], a.listeners[i+1:]...)
				return
			}
		}
	}
}

func (a *Axis) notify(c AxisChange) {
	for _, l := range a.listeners {
		l.fn(c)
	}
}

func (a *Axis) clamp(size int) int {
	if size < a.minSize {
		size = a.minSize
	}
	if a.maxSize > 0 && size > a.maxSize {
		size = a.maxSize
	}
	return size
}

// effective resolves the constraint stack for one item.
func (a *Axis) effective(index int) int {
	if ov, ok := a.overrides[index]; ok {
		return ov
	}
	if h, ok := a.hints[index]; ok {
		if h = a.clamp(h); h > a.def {
			return h
		}
	}
	return a.def
}

// offset computes index*default plus the accumulated deviation of adjusted
// items before index, extending the prefix cache as needed.
func (a *Axis) offset(index int) int {
	p := sort.Search(len(a.entries), func(p int) bool { return a.entries[p].index >= index })
	a.ensurePrefix(p)
	return index*a.def + a.prefix[p]
}

func (a *Axis) ensurePrefix(p int) {
	for q := a.cleanPos; q < p; q++ {
		a.prefix[q+1] = a.prefix[q] + a.entries[q].size - a.def
	}
	if p > a.cleanPos {
		a.cleanPos = p
	}
}

// updateEntry re-resolves one item's effective size into the entries list
// and invalidates the prefix cache from that item onward.
func (a *Axis) updateEntry(index int) {
	eff := a.effective(index)
	p := sort.Search(len(a.entries), func(p int) bool { return a.entries[p].index >= index })
	present := p < len(a.entries) && a.entries[p].index == index
	switch {
	case eff == a.def && present:
		a.entries = append(a.entries[:p], a.entries[p+1:]...)
		a.prefix = a.prefix[:len(a.entries)+1]
	case eff != a.def && present:
		a.entries[p].size = eff
	case eff != a.def && !present:
		a.entries = append(a.entries, adjEntry{})
		copy(a.entries[p+1:], a.entries[p:])
		a.entries[p] = adjEntry{index: index, size: eff}
		a.prefix = append(a.prefix, 0)
	default:
		return // default-sized and absent: nothing to do
	}
	if a.cleanPos > p {
		a.cleanPos = p
	}
}

func (a *Axis) invalidateFromIndex(index int) {
	p := sort.Search(len(a.entries), func(p int) bool { return a.entries[p].index >= index })
	if a.cleanPos > p {
		a.cleanPos = p
	}
}

// rebuildEntries recomputes the whole adjusted-item list after changes that
// affect every item (default size, limits).
func (a *Axis) rebuildEntries() {
	// Re-clamp stored overrides against the current limits.
	for k, v := range a.overrides {
		a.overrides[k] = a.clamp(v)
	}
	idxs := make([]int, 0, len(a.overrides)+len(a.hints))
	seen := make(map[int]struct{}, len(a.overrides)+len(a.hints))
	for k := range a.overrides {
		idxs = append(idxs, k)
		seen[k] = struct{}{}
	}
	for k := range a.hints {
		if _, ok := seen[k]; !ok {
			idxs = append(idxs, k)
		}
	}
	sort.Ints(idxs)
	a.entries = a.entries[:0]
	for _, i := range idxs {
		if eff := a.effective(i); eff != a.def {
			a.entries = append(a.entries, adjEntry{index: i, size: eff})
		}
	}
	a.prefix = make([]int, len(a.entries)+1)
	a.cleanPos = 0
}

// shiftKeys rekeys overrides and hints at or above from by delta.
func (a *Axis) shiftKeys(from, delta int) {
	if delta == 0 {
		return
	}
	shift := func(m map[int]int) {
		moved := make(map[int]int)
		for k, v := range m {
			if k >= from {
				moved[k] = v
				delete(m, k)
			}
		}
		for k, v := range moved {
			m[k+delta] = v
		}
	}
	shift(a.overrides)
	shift(a.hints)
}
