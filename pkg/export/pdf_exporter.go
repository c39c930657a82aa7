package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

const (
	pdfMargin        = 10.0
	pdfTopMargin     = 15.0
	pdfHeaderHeight  = 8.0
	pdfRowHeight     = 7.0
	pdfMinColumn     = 14.0
	pdfCellPadding   = 3.0
	portraitColumns  = 6
	pdfFooterReserve = 12.0
)

// PDFExporter renders datasets into a paginated tabular PDF.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with an optional title and table body. Wide
// datasets such as the session listing are laid out on landscape pages, column
// widths follow their content and the header row repeats on every page.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New(orientation(len(data.Headers)), "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfTopMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfFooterReserve)
	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-pdfFooterReserve)
		pdf.SetFont("Arial", "I", 8)
		pdf.CellFormat(0, 6, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	pageWidth, pageHeight := pdf.GetPageSize()
	widths := columnWidths(pdf, data, pageWidth-2*pdfMargin)

	writeHeader := func() {
		pdf.SetFont("Arial", "B", 10)
		pdf.SetFillColor(230, 230, 230)
		for i, header := range data.Headers {
			pdf.CellFormat(widths[i], pdfHeaderHeight, fit(pdf, header, widths[i]), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Arial", "", 9)
	}
	writeHeader()

	limit := pageHeight - pdfFooterReserve - pdfRowHeight
	for _, row := range data.Rows {
		if pdf.GetY() > limit {
			pdf.AddPage()
			writeHeader()
		}
		for i, header := range data.Headers {
			pdf.CellFormat(widths[i], pdfRowHeight, fit(pdf, row[header], widths[i]), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func orientation(columns int) string {
	if columns > portraitColumns {
		return "L"
	}
	return "P"
}

// columnWidths shares the printable width in proportion to the widest value of
// each column, with a floor so short columns stay legible.
func columnWidths(pdf *gofpdf.Fpdf, data Dataset, available float64) []float64 {
	natural := make([]float64, len(data.Headers))
	pdf.SetFont("Arial", "B", 10)
	for i, header := range data.Headers {
		natural[i] = pdf.GetStringWidth(header) + pdfCellPadding
	}
	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		for i, header := range data.Headers {
			if w := pdf.GetStringWidth(row[header]) + pdfCellPadding; w > natural[i] {
				natural[i] = w
			}
		}
	}

	total := 0.0
	for i := range natural {
		if natural[i] < pdfMinColumn {
			natural[i] = pdfMinColumn
		}
		total += natural[i]
	}
	widths := make([]float64, len(natural))
	for i, w := range natural {
		widths[i] = available * w / total
	}
	return widths
}

// fit truncates text with an ellipsis marker so it stays inside its cell.
func fit(pdf *gofpdf.Fpdf, text string, width float64) string {
	room := width - pdfCellPadding
	if pdf.GetStringWidth(text) <= room {
		return text
	}
	runes := []rune(text)
	for len(runes) > 0 && pdf.GetStringWidth(string(runes)+"...") > room {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "..."
}
