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
	"regexp"
	"strings"

	"statsheet/internal/sheet"
)

// Measure is the measurement level of a variable.
type Measure int

const (
	MeasureNominal Measure = iota
	MeasureOrdinal
	MeasureScale
)

func (m Measure) String() string {
	switch m {
	case MeasureNominal:
		return "nominal"
	case MeasureOrdinal:
		return "ordinal"
	case MeasureScale:
		return "scale"
	default:
		return fmt.Sprintf("measure(%d)", int(m))
	}
}

// ParseMeasure converts a display name back to a Measure.
func ParseMeasure(s string) (Measure, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "nominal":
		return MeasureNominal, nil
	case "ordinal":
		return MeasureOrdinal, nil
	case "scale":
		return MeasureScale, nil
	default:
		return 0, fmt.Errorf("unknown measure %q", s)
	}
}

// Variable describes one column of a dataset.
type Variable struct {
	Name       string  `json:"name"`
	Label      string  `json:"label,omitempty"`
	Kind       Kind    `json:"kind"`
	Width      int     `json:"width,omitempty"`
	Decimals   int     `json:"decimals,omitempty"`
	Measure    Measure `json:"measure"`
	DateLayout string  `json:"dateLayout,omitempty"`
}

// Codec returns the parse/format codec matching the variable's print format.
func (v Variable) Codec() sheet.Codec {
	switch v.Kind {
	case String:
		return StringCodec{Width: v.Width}
	case Date:
		return DateCodec{Layout: v.DateLayout}
	default:
		return NumericCodec{Decimals: v.Decimals}
	}
}

var nameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

const maxNameLen = 64

func validateName(name string) error {
	if len(name) == 0 || len(name) > maxNameLen {
		return fmt.Errorf("variable name must be 1..%d characters", maxNameLen)
	}
	if !nameRe.MatchString(name) {
		return fmt.Errorf("invalid variable name %q", name)
	}
	return nil
}

// Dictionary is the ordered set of variables of a dataset. It doubles as the
// column header source of the data view; VariableView exposes it as the data
// source of the variable-definition view. Names are unique, compared
// case-insensitively.
//
// Like the grid itself, a Dictionary is event-loop state and not safe for
// concurrent use.
type Dictionary struct {
	vars []Variable

	listeners []dictListener
	nextID    int
}

// DictChangedFunc reports variables being replaced: removed variables were
// deleted at start and inserted added in their place.
type DictChangedFunc func(start, removed, inserted int)

type dictListener struct {
	id int
	fn DictChangedFunc
}

// NewDictionary builds a dictionary from an initial variable list.
func NewDictionary(vars ...Variable) (*Dictionary, error) {
	d := &Dictionary{}
	for _, v := range vars {
		if err := d.Add(v); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Len returns the number of variables.
func (d *Dictionary) Len() int { return len(d.vars) }

// Var returns the variable at an index.
func (d *Dictionary) Var(i int) (Variable, error) {
	if i < 0 || i >= len(d.vars) {
		return Variable{}, sheet.ErrOutOfRange
	}
	return d.vars[i], nil
}

// Vars returns a copy of the variable list, for serialization.
func (d *Dictionary) Vars() []Variable {
	out := make([]Variable, len(d.vars))
	copy(out, d.vars)
	return out
}

// IndexOf finds a variable by name, case-insensitively. Returns -1 when
// absent.
func (d *Dictionary) IndexOf(name string) int {
	for i, v := range d.vars {
		if strings.EqualFold(v.Name, name) {
			return i
		}
	}
	return -1
}

// Add appends a variable.
func (d *Dictionary) Add(v Variable) error {
	return d.Insert(len(d.vars), v)
}

// Insert adds a variable at an index.
func (d *Dictionary) Insert(at int, v Variable) error {
	if at < 0 || at > len(d.vars) {
		return sheet.ErrOutOfRange
	}
	if err := validateName(v.Name); err != nil {
		return err
	}
	if d.IndexOf(v.Name) >= 0 {
		return fmt.Errorf("duplicate variable name %q", v.Name)
	}
	d.vars = append(d.vars, Variable{})
	copy(d.vars[at+1:], d.vars[at:])
	d.vars[at] = v
	d.notify(at, 0, 1)
	return nil
}

// Delete removes n variables starting at an index.
func (d *Dictionary) Delete(at, n int) error {
	if at < 0 || n < 0 || at+n > len(d.vars) {
		return sheet.ErrOutOfRange
	}
	if n == 0 {
		return nil
	}
	d.vars = append(d.vars[:at], d.vars[at+n:]...)
	d.notify(at, n, 0)
	return nil
}

// Move relocates a variable, preserving the relative order of the others.
func (d *Dictionary) Move(from, to int) error {
	n := len(d.vars)
	if from < 0 || from >= n || to < 0 || to >= n {
		return sheet.ErrOutOfRange
	}
	if from == to {
		return nil
	}
	v := d.vars[from]
	d.vars = append(d.vars[:from], d.vars[from+1:]...)
	d.vars = append(d.vars[:to], append([]Variable{v}, d.vars[to:]...)...)
	d.notify(from, 1, 0)
	d.notify(to, 0, 1)
	return nil
}

// Update replaces the variable at an index. Renames are validated against
// the rest of the dictionary.
func (d *Dictionary) Update(i int, v Variable) error {
	if i < 0 || i >= len(d.vars) {
		return sheet.ErrOutOfRange
	}
	if err := validateName(v.Name); err != nil {
		return err
	}
	if j := d.IndexOf(v.Name); j >= 0 && j != i {
		return fmt.Errorf("duplicate variable name %q", v.Name)
	}
	d.vars[i] = v
	d.notify(i, 1, 1)
	return nil
}

// CodecFor satisfies sheet.CodecSelector for the data view.
func (d *Dictionary) CodecFor(col int) sheet.Codec {
	if col < 0 || col >= len(d.vars) {
		return nil
	}
	return d.vars[col].Codec()
}

// OnChanged registers a structure observer and returns its removal function.
func (d *Dictionary) OnChanged(fn DictChangedFunc) (cancel func()) {
	d.nextID++
	id := d.nextID
	d.listeners = append(d.listeners, dictListener{id: id, fn: fn})
	return func() {
		for i, l := range d.listeners {
			if l.id == id {
				d.listeners = append(d.listeners[:i], d.listeners[i+1:]...)
				return
			}
		}
	}
}

func (d *Dictionary) notify(start, removed, inserted int) {
	for _, l := range d.listeners {
		l.fn(start, removed, inserted)
	}
}

// Count satisfies sheet.HeaderSource (column headers of the data view).
func (d *Dictionary) Count() int { return len(d.vars) }

// Label satisfies sheet.HeaderSource; the header shows the variable name.
func (d *Dictionary) Label(i int) string {
	if i < 0 || i >= len(d.vars) {
		return ""
	}
	return d.vars[i].Name
}

// SizeHint satisfies sheet.HeaderSource: wide string variables ask for a
// content minimum proportional to their declared width.
func (d *Dictionary) SizeHint(i int) int {
	if i < 0 || i >= len(d.vars) {
		return 0
	}
	v := d.vars[i]
	if v.Kind == String && v.Width > 10 {
		return v.Width * 7
	}
	return 0
}
