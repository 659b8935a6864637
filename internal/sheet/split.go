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

// SplitPane is one quadrant of a split view. Panes share the parent sheet's
// axis models, selection and data source, but each keeps its own viewport
// state and realized cell set delivered to its own host.
type SplitPane struct {
	sheet *Sheet
	host  CellHost
	win   *Windower
	vp    Viewport
}

// Viewport returns the pane's scroll state and size.
func (p *SplitPane) Viewport() Viewport { return p.vp }

// Windower returns the pane's windower (realized-set inspection).
func (p *SplitPane) Windower() *Windower { return p.win }

// RealizeCell satisfies CellRealizer against the pane's own host.
func (p *SplitPane) RealizeCell(col, row int) {
	bounds, err := p.sheet.CellBounds(col, row)
	if err != nil {
		return
	}
	p.host.CreateCell(col, row, p.sheet.rendererFor(col), p.sheet.displayFor(col, row), bounds)
}

// ReleaseCell satisfies CellRealizer.
func (p *SplitPane) ReleaseCell(col, row int) {
	p.host.DestroyCell(col, row)
}

func (p *SplitPane) update() {
	p.win.Update(p.sheet.cols, p.sheet.rows, p.vp)
}

func (p *SplitPane) refresh() {
	p.win.EachRealized(func(col, row int) {
		bounds, err := p.sheet.CellBounds(col, row)
		if err != nil {
			return
		}
		p.host.UpdateCell(col, row, p.sheet.rendererFor(col), p.sheet.displayFor(col, row), bounds)
	})
}

// Split coordinates a 2×2 grid of sheet viewports over one shared pair of
// axis models and one data source. Scrolling one pane propagates along the
// shared axis: panes in the same split row follow vertically, panes in the
// same split column follow horizontally.
type Split struct {
	sheet   *Sheet
	panes   [2][2]*SplitPane
	cancels []func()
}

// NewSplit builds the four panes over an existing sheet. hosts[c][r] is the
// display target of the pane in split column c, split row r.
func NewSplit(s *Sheet, hosts [2][2]CellHost) *Split {
	sp := &Split{sheet: s}
	for c := 0; c < 2; c++ {
		for r := 0; r < 2; r++ {
			p := &SplitPane{sheet: s, host: hosts[c][r]}
			p.win = NewWindower(p, s.win.Prefetch())
			sp.panes[c][r] = p
		}
	}
	// Shared-model changes repaint every pane.
	sp.cancels = append(sp.cancels,
		s.OnValueChanged(func(col, row int) { sp.refreshAll() }),
		s.cols.OnChange(func(AxisChange) { sp.updateAll() }),
		s.rows.OnChange(func(AxisChange) { sp.updateAll() }),
	)
	return sp
}

// Close releases every pane's realized cells and detaches from the shared
// models.
func (sp *Split) Close() {
	for _, cancel := range sp.cancels {
		cancel()
	}
	sp.cancels = nil
	for c := 0; c < 2; c++ {
		for r := 0; r < 2; r++ {
			sp.panes[c][r].win.Reset()
		}
	}
}

// Pane returns the pane in split column c, split row r.
func (sp *Split) Pane(c, r int) *SplitPane { return sp.panes[c][r] }

// Resize sets one pane's viewport size.
func (sp *Split) Resize(c, r, width, height int) {
	p := sp.panes[c][r]
	p.vp.Width = width
	p.vp.Height = height
	p.update()
}

// Scroll scrolls one pane and synchronizes its siblings: the pane sharing
// the split row follows the vertical offset, the pane sharing the split
// column follows the horizontal offset.
func (sp *Split) Scroll(c, r, x, y int) {
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	target := sp.panes[c][r]
	target.vp.ScrollX = x
	target.vp.ScrollY = y
	rowSibling := sp.panes[1-c][r]
	rowSibling.vp.ScrollY = y
	colSibling := sp.panes[c][1-r]
	colSibling.vp.ScrollX = x
	target.update()
	rowSibling.update()
	colSibling.update()
}

func (sp *Split) updateAll() {
	for c := 0; c < 2; c++ {
		for r := 0; r < 2; r++ {
			sp.panes[c][r].update()
			sp.panes[c][r].refresh()
		}
	}
}

func (sp *Split) refreshAll() {
	for c := 0; c < 2; c++ {
		for r := 0; r < 2; r++ {
			sp.panes[c][r].refresh()
		}
	}
}
