/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"
	"statsheet/internal/sheet"
	"statsheet/internal/storage"
)

// Range selects an inclusive block of cells. A negative Col1 or Row1 extends
// the block to the source's last column or row.
type Range struct {
	Col0, Row0 int
	Col1, Row1 int
}

func (r Range) resolve(src sheet.DataSource) (Range, error) {
	if r.Col1 < 0 {
		r.Col1 = src.ColumnCount() - 1
	}
	if r.Row1 < 0 {
		r.Row1 = src.RowCount() - 1
	}
	if r.Col0 < 0 || r.Row0 < 0 || r.Col0 > r.Col1 || r.Row0 > r.Row1 ||
		r.Col1 >= src.ColumnCount() || r.Row1 >= src.RowCount() {
		return r, fmt.Errorf("range %+v outside source %dx%d", r, src.ColumnCount(), src.RowCount())
	}
	return r, nil
}

// PDFOptions controls PDF table export.
// Units are points (pt). Built-in Helvetica keeps text vector without
// embedding; font embedding can be added later using TTFs.
type PDFOptions struct {
	Title     string
	Landscape bool
	FontSize  float64            // default 9pt
	Headers   sheet.HeaderSource // column labels; nil omits the header row
	Codecs    sheet.CodecSelector
	CaseNumbers bool // prepend a 1-based case number column
}

const (
	pdfMargin      = 36.0 // 0.5in
	pdfMinColWidth = 40.0
	pdfMaxColWidth = 180.0
	pdfCellPad     = 4.0
	// widths are measured against a bounded row sample so huge sources
	// do not force a full scan before the first page renders
	pdfMeasureRows = 200
)

// ExportPDF renders a cell range of a data source as a bordered table, one
// header row per page, and writes the document to outPath. A relative
// outPath is placed under the dataset's exports folder when h is given.
func ExportPDF(h *storage.DatasetHandle, src sheet.DataSource, rng Range, outPath string, opt PDFOptions) error {
	if src == nil {
		return fmt.Errorf("data source is nil")
	}
	rng, err := rng.resolve(src)
	if err != nil {
		return err
	}
	fsz := opt.FontSize
	if fsz <= 0 {
		fsz = 9
	}
	orient := "P"
	if opt.Landscape {
		orient = "L"
	}

	pdf := gofpdf.New(orient, "pt", "A4", "")
	title := opt.Title
	if title == "" && h != nil {
		title = h.Dataset.Name
	}
	pdf.SetTitle(title, false)
	pdf.SetAuthor("StatSheet", false)
	pdf.SetFont("Helvetica", "", fsz)
	pdf.SetAutoPageBreak(false, pdfMargin)

	pageW, pageH := pdf.GetPageSize()
	printable := pageW - 2*pdfMargin
	rowH := fsz * 1.8

	cells := func(col, row int) string {
		v, err := src.Get(col, row)
		if err != nil {
			return ""
		}
		return formatCell(opt.Codecs, col, v)
	}
	labels := make([]string, 0, rng.Col1-rng.Col0+2)
	if opt.CaseNumbers {
		labels = append(labels, "")
	}
	for c := rng.Col0; c <= rng.Col1; c++ {
		labels = append(labels, headerLabel(opt.Headers, c))
	}
	widths := measureColumns(pdf, labels, cells, rng, opt.CaseNumbers, printable)

	drawHeader := func() {
		pdf.SetFont("Helvetica", "B", fsz)
		pdf.SetFillColor(230, 230, 230)
		for i, lbl := range labels {
			pdf.CellFormat(widths[i], rowH, lbl, "1", 0, "L", true, 0, "")
		}
		pdf.Ln(rowH)
		pdf.SetFont("Helvetica", "", fsz)
	}

	pdf.AddPage()
	pdf.SetXY(pdfMargin, pdfMargin)
	drawHeader()
	for row := rng.Row0; row <= rng.Row1; row++ {
		if pdf.GetY()+rowH > pageH-pdfMargin {
			pdf.AddPage()
			pdf.SetXY(pdfMargin, pdfMargin)
			drawHeader()
		}
		i := 0
		if opt.CaseNumbers {
			pdf.CellFormat(widths[0], rowH, fmt.Sprintf("%d", row+1), "1", 0, "R", false, 0, "")
			i = 1
		}
		for c := rng.Col0; c <= rng.Col1; c++ {
			align := "L"
			if _, isNum := rawValue(src, c, row).(float64); isNum {
				align = "R"
			}
			pdf.CellFormat(widths[i], rowH, cells(c, row), "1", 0, align, false, 0, "")
			i++
		}
		pdf.Ln(rowH)
	}

	outPath = resolveOutPath(h, outPath)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// measureColumns sizes each column to its widest header or sampled cell,
// clamped to [pdfMinColWidth, pdfMaxColWidth], then scales the whole set
// down proportionally when it overflows the printable width.
func measureColumns(pdf *gofpdf.Fpdf, labels []string, cell func(col, row int) string, rng Range, caseNumbers bool, printable float64) []float64 {
	widths := make([]float64, len(labels))
	for i, lbl := range labels {
		widths[i] = pdf.GetStringWidth(lbl) + 2*pdfCellPad
	}
	lastRow := rng.Row1
	if lastRow > rng.Row0+pdfMeasureRows-1 {
		lastRow = rng.Row0 + pdfMeasureRows - 1
	}
	off := 0
	if caseNumbers {
		widths[0] = pdf.GetStringWidth(fmt.Sprintf("%d", rng.Row1+1)) + 2*pdfCellPad
		off = 1
	}
	for c := rng.Col0; c <= rng.Col1; c++ {
		i := off + c - rng.Col0
		for r := rng.Row0; r <= lastRow; r++ {
			if w := pdf.GetStringWidth(cell(c, r)) + 2*pdfCellPad; w > widths[i] {
				widths[i] = w
			}
		}
		if widths[i] < pdfMinColWidth {
			widths[i] = pdfMinColWidth
		}
		if widths[i] > pdfMaxColWidth {
			widths[i] = pdfMaxColWidth
		}
	}
	total := 0.0
	for _, w := range widths {
		total += w
	}
	if total > printable {
		scale := printable / total
		for i := range widths {
			widths[i] *= scale
		}
	}
	return widths
}

func headerLabel(hs sheet.HeaderSource, col int) string {
	if hs == nil || col >= hs.Count() {
		return fmt.Sprintf("C%d", col+1)
	}
	return hs.Label(col)
}

func formatCell(codecs sheet.CodecSelector, col int, v sheet.Value) string {
	if codecs != nil {
		if c := codecs(col); c != nil {
			return c.Format(v)
		}
	}
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

func rawValue(src sheet.DataSource, col, row int) sheet.Value {
	v, err := src.Get(col, row)
	if err != nil {
		return nil
	}
	return v
}

func resolveOutPath(h *storage.DatasetHandle, outPath string) string {
	if h != nil && !filepath.IsAbs(outPath) {
		return filepath.Join(h.Root, "exports", outPath)
	}
	return outPath
}
