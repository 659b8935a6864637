/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"statsheet/internal/data"
	"statsheet/internal/sheet"
	"statsheet/internal/storage"
)

func exportDict(t *testing.T) *data.Dictionary {
	t.Helper()
	dict, err := data.NewDictionary(
		data.Variable{Name: "id", Kind: data.Numeric, Measure: data.MeasureScale},
		data.Variable{Name: "name", Kind: data.String, Width: 20, Measure: data.MeasureNominal},
		data.Variable{Name: "score", Kind: data.Numeric, Decimals: 2, Measure: data.MeasureScale},
	)
	if err != nil {
		t.Fatalf("NewDictionary: %v", err)
	}
	return dict
}

func exportStore(t *testing.T) *data.MemStore {
	t.Helper()
	m := data.NewMemStore(exportDict(t))
	cases := [][]sheet.Value{
		{1.0, "ada", 3.5},
		{2.0, "bob", nil},
		{3.0, "eve", 4.25},
	}
	for _, c := range cases {
		if err := m.AppendCase(c); err != nil {
			t.Fatalf("AppendCase: %v", err)
		}
	}
	return m
}

func TestExportPDFCreatesFile(t *testing.T) {
	root := t.TempDir()
	h, err := storage.InitDataset(root, storage.Dataset{
		Name:      "survey",
		Variables: exportDict(t).Vars(),
	})
	if err != nil {
		t.Fatalf("InitDataset: %v", err)
	}
	m := exportStore(t)

	err = ExportPDF(h, m, Range{Col1: -1, Row1: -1}, "cases.pdf", PDFOptions{
		Headers:     m.Dictionary(),
		Codecs:      m.Dictionary().CodecFor,
		CaseNumbers: true,
	})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	out := filepath.Join(root, "exports", "cases.pdf")
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if len(b) == 0 || !bytes.HasPrefix(b, []byte("%PDF")) {
		t.Fatalf("not a pdf file (%d bytes)", len(b))
	}
}

func TestExportPDFPaginatesLongRanges(t *testing.T) {
	m := exportStore(t)
	for i := 0; i < 200; i++ {
		if err := m.AppendCase([]sheet.Value{float64(i), "x", 1.0}); err != nil {
			t.Fatalf("AppendCase: %v", err)
		}
	}
	out := filepath.Join(t.TempDir(), "long.pdf")
	err := ExportPDF(nil, m, Range{Col1: -1, Row1: -1}, out, PDFOptions{
		Headers: m.Dictionary(),
		Codecs:  m.Dictionary().CodecFor,
	})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	// A 203-row A4 portrait table cannot fit one page; two pages produce
	// two content streams, so the file is clearly larger than a one-pager.
	st, err := os.Stat(out)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if st.Size() < 2000 {
		t.Fatalf("suspiciously small paginated pdf: %d bytes", st.Size())
	}
}

func TestExportPDFRejectsBadRange(t *testing.T) {
	m := exportStore(t)
	out := filepath.Join(t.TempDir(), "bad.pdf")
	if err := ExportPDF(nil, m, Range{Col0: 0, Row0: 0, Col1: 99, Row1: 0}, out, PDFOptions{}); err == nil {
		t.Fatalf("out-of-source range must fail")
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("failed export must not leave a file")
	}
}
