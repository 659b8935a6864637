/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package data provides the tabular data layer behind the grid: typed cell
// values with per-variable parse/format codecs, the variable dictionary, and
// the case stores (in-memory, sqlite-backed, Postgres-backed).
//
// A missing value is represented as a nil sheet.Value throughout; codecs
// format it as the empty string and parse blank input back to nil.
package data

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"statsheet/internal/sheet"
)

// Kind is the storage type of a variable.
type Kind int

const (
	Numeric Kind = iota
	String
	Date
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case String:
		return "string"
	case Date:
		return "date"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind converts a display name back to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "numeric":
		return Numeric, nil
	case "string":
		return String, nil
	case "date":
		return Date, nil
	default:
		return 0, fmt.Errorf("unknown variable type %q", s)
	}
}

// DefaultDateLayout is the print/parse layout used when a date variable does
// not carry one of its own.
const DefaultDateLayout = "2006-01-02"

// NumericCodec formats numeric cells with a fixed number of decimals and
// parses user text back to float64. Blank input is the missing value.
type NumericCodec struct {
	Decimals int
}

func (c NumericCodec) Format(v sheet.Value) string {
	switch n := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(n, 'f', c.Decimals, 64)
	case int:
		return strconv.FormatFloat(float64(n), 'f', c.Decimals, 64)
	default:
		return fmt.Sprint(v)
	}
}

func (c NumericCodec) Parse(text string) (sheet.Value, error) {
	t := strings.TrimSpace(text)
	if t == "" {
		return nil, nil
	}
	n, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return nil, fmt.Errorf("not a number")
	}
	return n, nil
}

// StringCodec passes string cells through, truncating parsed input to the
// variable width in runes when a width is set.
type StringCodec struct {
	Width int
}

func (c StringCodec) Format(v sheet.Value) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(v)
	}
}

func (c StringCodec) Parse(text string) (sheet.Value, error) {
	if text == "" {
		return nil, nil
	}
	if c.Width > 0 {
		if r := []rune(text); len(r) > c.Width {
			text = string(r[:c.Width])
		}
	}
	return text, nil
}

// DateCodec formats time.Time cells with a fixed layout and parses user text
// with the same layout first, falling back to a few common spellings.
type DateCodec struct {
	Layout string
}

func (c DateCodec) layout() string {
	if c.Layout == "" {
		return DefaultDateLayout
	}
	return c.Layout
}

func (c DateCodec) Format(v sheet.Value) string {
	switch d := v.(type) {
	case nil:
		return ""
	case time.Time:
		return d.Format(c.layout())
	default:
		return fmt.Sprint(v)
	}
}

func (c DateCodec) Parse(text string) (sheet.Value, error) {
	t := strings.TrimSpace(text)
	if t == "" {
		return nil, nil
	}
	layouts := []string{c.layout(), DefaultDateLayout, "02.01.2006", "01/02/2006"}
	for _, l := range layouts {
		if d, err := time.Parse(l, t); err == nil {
			return d, nil
		}
	}
	return nil, fmt.Errorf("not a date (expected %s)", c.layout())
}
