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

// Codec is the edit protocol strategy: a forward value-to-display
// conversion and its reverse. Implementations come from the binding layer
// per data source (numeric, string and date formatting rules belong to the
// source, not the grid), so the same grid serves both the case-data view
// and the variable-attribute view.
//
// Parse(Format(v)) == v must hold for every value the binding supports.
type Codec interface {
	Format(v Value) string
	Parse(text string) (Value, error)
}

// EditState is the editing state machine position.
//
//	Idle -> Editing -> { Committing -> Idle | Cancelled -> Idle }
//
// A failed parse re-enters Editing with the invalid text retained so the
// user can correct it.
type EditState int

const (
	EditIdle EditState = iota
	EditEditing
	EditCommitting
)

func (s EditState) String() string {
	switch s {
	case EditIdle:
		return "idle"
	case EditEditing:
		return "editing"
	case EditCommitting:
		return "committing"
	}
	return "unknown"
}

// Editor tracks one in-progress cell edit. Entering Editing snapshots the
// current value so a cancelled or rejected edit can revert without data
// loss.
type Editor struct {
	state    EditState
	cell     Cell
	original Value
	text     string
}

// State returns the current machine position.
func (e *Editor) State() EditState { return e.state }

// Cell returns the cell being edited. Valid only while not Idle.
func (e *Editor) Cell() Cell { return e.cell }

// Text returns the display text under edit.
func (e *Editor) Text() string { return e.text }

// Original returns the value snapshotted when editing began.
func (e *Editor) Original() Value { return e.original }

// Begin enters Editing on a cell, snapshotting its current value and
// seeding the edit text with its formatted display string.
func (e *Editor) Begin(cell Cell, current Value, codec Codec) {
	e.state = EditEditing
	e.cell = cell
	e.original = current
	e.text = codec.Format(current)
}

// SetText replaces the text under edit. No-op when Idle.
func (e *Editor) SetText(text string) {
	if e.state != EditEditing {
		return
	}
	e.text = text
}

// Cancel abandons the edit; the cell keeps its prior value.
func (e *Editor) Cancel() {
	e.state = EditIdle
	e.original = nil
	e.text = ""
}

// Commit parses the edit text and applies the result through write.
//
// A parse failure keeps the machine in Editing with the invalid text
// retained and returns a *ParseError; nothing is written. A write failure
// (source rejected the value) leaves Idle with the prior value intact and
// returns the rejection unchanged for the host to surface. On success the
// machine returns to Idle.
func (e *Editor) Commit(codec Codec, write func(Value) error) error {
	if e.state != EditEditing {
		return nil
	}
	v, err := codec.Parse(e.text)
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			return pe
		}
		return &ParseError{Text: e.text, Err: err}
	}
	e.state = EditCommitting
	if err := write(v); err != nil {
		// Revert: the prior valid value was never overwritten.
		e.state = EditIdle
		return err
	}
	e.state = EditIdle
	e.original = nil
	e.text = ""
	return nil
}
