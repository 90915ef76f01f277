package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

const (
	pageWidth   = 277.0 // A4 landscape minus margins
	rowHeight   = 6.0
	minColWidth = 18.0
)

// renderPDF lays the table out on landscape A4 pages, repeating the header row
// on every page. Column widths follow the longest cell in each column.
func renderPDF(t Table) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 12, 10)
	pdf.SetAutoPageBreak(true, 12)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	widths := columnWidths(pdf, t)
	header := func() {
		pdf.SetFont("Helvetica", "B", 8)
		pdf.SetFillColor(230, 230, 240)
		for i, col := range t.Columns {
			pdf.CellFormat(widths[i], rowHeight+1, tr(col), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 8)
	}

	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() > 1 {
			header()
		}
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-10)
		pdf.SetFont("Helvetica", "I", 7)
		pdf.CellFormat(0, 5, fmt.Sprintf("page %d", pdf.PageNo()), "", 0, "R", false, 0, "")
	})

	pdf.AddPage()
	if t.Title != "" {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.CellFormat(0, 8, tr(t.Title), "", 1, "L", false, 0, "")
	}
	generated := t.GeneratedAt
	if generated.IsZero() {
		generated = time.Now()
	}
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(0, 5, fmt.Sprintf("generated %s, %d rows", generated.UTC().Format(time.RFC3339), len(t.Rows)), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	header()
	for i, row := range t.Rows {
		fill := i%2 == 1
		pdf.SetFillColor(247, 247, 250)
		for j, cell := range row {
			pdf.CellFormat(widths[j], rowHeight, tr(fit(pdf, cell, widths[j])), "1", 0, "L", fill, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func columnWidths(pdf *gofpdf.Fpdf, t Table) []float64 {
	pdf.SetFont("Helvetica", "", 8)
	widths := make([]float64, len(t.Columns))
	total := 0.0
	for i, col := range t.Columns {
		w := pdf.GetStringWidth(col) + 4
		for _, row := range t.Rows {
			if cw := pdf.GetStringWidth(row[i]) + 4; cw > w {
				w = cw
			}
		}
		if w < minColWidth {
			w = minColWidth
		}
		widths[i] = w
		total += w
	}
	if total > pageWidth {
		scale := pageWidth / total
		for i := range widths {
			widths[i] *= scale
		}
	}
	return widths
}

// fit truncates s with an ellipsis so it fits in width.
func fit(pdf *gofpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s)+2 <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...")+2 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
