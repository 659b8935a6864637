/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"statsheet/internal/sheet"
	"statsheet/internal/storage"
)

// CSVOptions controls CSV export. Missing values export as empty fields.
type CSVOptions struct {
	Comma   rune               // field separator, default ','
	Headers sheet.HeaderSource // column labels; nil omits the header record
	Codecs  sheet.CodecSelector
}

// ExportCSV writes a cell range of a data source to outPath. A relative
// outPath is placed under the dataset's exports folder when h is given.
func ExportCSV(h *storage.DatasetHandle, src sheet.DataSource, rng Range, outPath string, opt CSVOptions) error {
	if src == nil {
		return fmt.Errorf("data source is nil")
	}
	outPath = resolveOutPath(h, outPath)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	if err := writeCSV(f, src, rng, opt); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close csv: %w", err)
	}
	return nil
}

func writeCSV(w io.Writer, src sheet.DataSource, rng Range, opt CSVOptions) error {
	rng, err := rng.resolve(src)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if opt.Comma != 0 {
		cw.Comma = opt.Comma
	}

	record := make([]string, rng.Col1-rng.Col0+1)
	if opt.Headers != nil {
		for c := rng.Col0; c <= rng.Col1; c++ {
			record[c-rng.Col0] = headerLabel(opt.Headers, c)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}
	for row := rng.Row0; row <= rng.Row1; row++ {
		for c := rng.Col0; c <= rng.Col1; c++ {
			v, err := src.Get(c, row)
			if err != nil {
				return fmt.Errorf("read cell %d,%d: %w", c, row, err)
			}
			record[c-rng.Col0] = formatCell(opt.Codecs, c, v)
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", row, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
