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
	"sync"
	"time"

	"statsheet/internal/sheet"
)

// Edit is one reversible cell change. Undoing writes Old back through the
// data source; redoing writes New. TS is when the edit was committed.
type Edit struct {
	Col, Row int
	Old, New sheet.Value
	TS       time.Time
}

// Config controls depth caps and coalescing behavior.
type Config struct {
	// MaxDepth limits the number of edits kept (0 means the default cap).
	MaxDepth int
	// MinInterval coalesces consecutive edits of the same cell captured
	// within the interval into one entry (first Old, last New), so rapid
	// retyping undoes in a single step.
	MinInterval time.Duration
}

// Manager provides an in-memory undo/redo stack for cell edits with depth
// safeguards. It is safe for concurrent use.
type Manager struct {
	cfg  Config
	mu   sync.Mutex
	undo []Edit
	redo []Edit
}

func NewManager(cfg Config) *Manager {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = 1000
	}
	if cfg.MinInterval <= 0 {
		cfg.MinInterval = 250 * time.Millisecond
	}
	return &Manager{cfg: cfg}
}

// Push records a committed edit. An edit of the same cell within MinInterval
// of the previous one coalesces into it, keeping the earliest Old and the
// latest New. Any new edit invalidates the redo stack.
func (m *Manager) Push(e Edit) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n := len(m.undo); n > 0 {
		last := m.undo[n-1]
		if last.Col == e.Col && last.Row == e.Row && e.TS.Sub(last.TS) < m.cfg.MinInterval {
			last.New = e.New
			last.TS = e.TS
			m.undo[n-1] = last
			m.redo = nil
			return
		}
	}
	m.undo = append(m.undo, e)
	m.redo = nil
	if len(m.undo) > m.cfg.MaxDepth {
		toDrop := len(m.undo) - m.cfg.MaxDepth
		m.undo = append([]Edit{}, m.undo[toDrop:]...)
	}
}

// Undo pops the newest edit onto the redo stack and returns it. The caller
// applies Old through the data source.
func (m *Manager) Undo() (Edit, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.undo) == 0 {
		return Edit{}, false
	}
	e := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	m.redo = append(m.redo, e)
	return e, true
}

// Redo pops from redo and pushes back to undo. The caller applies New.
func (m *Manager) Redo() (Edit, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.redo) == 0 {
		return Edit{}, false
	}
	e := m.redo[len(m.redo)-1]
	m.redo = m.redo[:len(m.redo)-1]
	m.undo = append(m.undo, e)
	return e, true
}

// Clear drops both stacks, e.g. when a different dataset is bound.
func (m *Manager) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.undo = nil
	m.redo = nil
}

// Depths returns the stack sizes for diagnostics and menu enablement.
func (m *Manager) Depths() (undo, redo int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.undo), len(m.redo)
}
