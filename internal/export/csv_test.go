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
)

func TestExportCSVFullRange(t *testing.T) {
	m := exportStore(t)
	out := filepath.Join(t.TempDir(), "cases.csv")
	err := ExportCSV(nil, m, Range{Col1: -1, Row1: -1}, out, CSVOptions{
		Headers: m.Dictionary(),
		Codecs:  m.Dictionary().CodecFor,
	})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := "id,name,score\n1,ada,3.50\n2,bob,\n3,eve,4.25\n"
	if string(b) != want {
		t.Fatalf("csv = %q, want %q", b, want)
	}
}

func TestExportCSVSubRangeSemicolon(t *testing.T) {
	m := exportStore(t)
	out := filepath.Join(t.TempDir(), "sub.csv")
	err := ExportCSV(nil, m, Range{Col0: 1, Row0: 1, Col1: 2, Row1: 2}, out, CSVOptions{
		Comma:  ';',
		Codecs: m.Dictionary().CodecFor,
	})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want := "bob;\neve;4.25\n"
	if string(b) != want {
		t.Fatalf("csv = %q, want %q", b, want)
	}
}

func TestWriteCSVQuotesSeparators(t *testing.T) {
	m := exportStore(t)
	if err := m.Set(1, 0, "last, first"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	var buf bytes.Buffer
	if err := writeCSV(&buf, m, Range{Row0: 0, Row1: 0, Col0: 1, Col1: 1}, CSVOptions{Codecs: m.Dictionary().CodecFor}); err != nil {
		t.Fatalf("writeCSV: %v", err)
	}
	if got := buf.String(); got != "\"last, first\"\n" {
		t.Fatalf("csv = %q", got)
	}
}
