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
	"strconv"

	"statsheet/internal/sheet"
)

// Variable-view attribute columns, in display order.
const (
	attrName = iota
	attrType
	attrWidth
	attrDecimals
	attrLabel
	attrMeasure
	attrCount
)

var attrLabels = [attrCount]string{"Name", "Type", "Width", "Decimals", "Label", "Measure"}

// VariableView exposes the dictionary as the data source of the
// variable-definition grid: one row per variable, one column per attribute.
// Edits flow back into the dictionary, so the data view's headers follow
// immediately through the shared dictionary's change notifications.
type VariableView struct {
	dict *Dictionary
}

// NewVariableView wraps a dictionary.
func NewVariableView(d *Dictionary) *VariableView { return &VariableView{dict: d} }

// RowCount satisfies sheet.DataSource.
func (v *VariableView) RowCount() int { return v.dict.Len() }

// ColumnCount satisfies sheet.DataSource.
func (v *VariableView) ColumnCount() int { return attrCount }

// Get satisfies sheet.DataSource.
func (v *VariableView) Get(col, row int) (sheet.Value, error) {
	va, err := v.dict.Var(row)
	if err != nil {
		return nil, err
	}
	switch col {
	case attrName:
		return va.Name, nil
	case attrType:
		return va.Kind.String(), nil
	case attrWidth:
		return strconv.Itoa(va.Width), nil
	case attrDecimals:
		return strconv.Itoa(va.Decimals), nil
	case attrLabel:
		return va.Label, nil
	case attrMeasure:
		return va.Measure.String(), nil
	default:
		return nil, sheet.ErrOutOfRange
	}
}

// Set satisfies sheet.DataSource. Values arrive as strings (the view binds
// plain string codecs); attribute validation failures reject the write so
// the cell reverts.
func (v *VariableView) Set(col, row int, val sheet.Value) error {
	va, err := v.dict.Var(row)
	if err != nil {
		return err
	}
	text := ""
	if val != nil {
		text = fmt.Sprint(val)
	}
	switch col {
	case attrName:
		va.Name = text
	case attrType:
		k, err := ParseKind(text)
		if err != nil {
			return fmt.Errorf("%v: %w", err, sheet.ErrWriteRejected)
		}
		va.Kind = k
	case attrWidth:
		n, err := parseAttrInt(text, 0, 32767)
		if err != nil {
			return err
		}
		va.Width = n
	case attrDecimals:
		n, err := parseAttrInt(text, 0, 16)
		if err != nil {
			return err
		}
		va.Decimals = n
	case attrLabel:
		va.Label = text
	case attrMeasure:
		m, err := ParseMeasure(text)
		if err != nil {
			return fmt.Errorf("%v: %w", err, sheet.ErrWriteRejected)
		}
		va.Measure = m
	default:
		return sheet.ErrOutOfRange
	}
	if err := v.dict.Update(row, va); err != nil {
		return fmt.Errorf("%v: %w", err, sheet.ErrWriteRejected)
	}
	return nil
}

func parseAttrInt(text string, min, max int) (int, error) {
	n, err := strconv.Atoi(text)
	if err != nil || n < min || n > max {
		return 0, fmt.Errorf("value must be an integer in [%d, %d]: %w", min, max, sheet.ErrWriteRejected)
	}
	return n, nil
}

// OnItemsChanged satisfies sheet.ChangeNotifier: dictionary structure changes
// surface as row changes of the variable view.
func (v *VariableView) OnItemsChanged(fn sheet.ItemsChangedFunc) (cancel func()) {
	return v.dict.OnChanged(func(start, removed, inserted int) {
		fn(sheet.Rows, start, removed, inserted)
	})
}

// Headers returns the attribute-column header source.
func (v *VariableView) Headers() sheet.HeaderSource { return attrHeaders{} }

type attrHeaders struct{}

func (attrHeaders) Count() int { return attrCount }

func (attrHeaders) Label(i int) string {
	if i < 0 || i >= attrCount {
		return ""
	}
	return attrLabels[i]
}

func (attrHeaders) SizeHint(i int) int {
	if i == attrLabel {
		return 160
	}
	return 0
}
