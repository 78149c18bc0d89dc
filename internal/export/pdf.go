package export

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

var pdfWidths = []float64{44, 20, 20, 24, 18, 24, 20, 16}

const (
	pdfRowHeight = 7.0
	pdfMargin    = 14.0
)

// WritePDF writes an A4 report with the column header repeated on every page.
func WritePDF(w io.Writer, r Report) error {
	pdf := buildPDF(r)
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("writing PDF: %w", err)
	}
	return nil
}

func buildPDF(r Report) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	_, pageHeight := pdf.GetPageSize()

	header := func() {
		pdf.SetFont("Helvetica", "B", 9)
		pdf.SetFillColor(22, 101, 52)
		pdf.SetTextColor(255, 255, 255)
		for i, c := range Columns {
			pdf.CellFormat(pdfWidths[i], pdfRowHeight, tr(c), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 9)
		pdf.SetTextColor(0, 0, 0)
	}

	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, tr(r.Title()), "", 1, "L", false, 0, "")
	pdf.Ln(2)
	header()

	for i, s := range r.Rows {
		if pdf.GetY()+pdfRowHeight > pageHeight-pdfMargin {
			pdf.AddPage()
			header()
		}
		fill := i%2 == 1
		pdf.SetFillColor(240, 240, 240)
		for j, v := range cells(s) {
			align := "R"
			if j == 0 {
				align = "L"
			}
			pdf.CellFormat(pdfWidths[j], pdfRowHeight, tr(v), "1", 0, align, fill, 0, "")
		}
		pdf.Ln(-1)
	}
	return pdf
}
