package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter renders datasets into a basic tabular PDF.
type PDFExporter struct{}

// NewPDFExporter constructs a PDF exporter.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{}
}

// Render creates a PDF document with an optional title and table body.
func (e *PDFExporter) Render(data Dataset, title string) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	if title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, strings.ToUpper(title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	pdf.SetFont("Arial", "B", 10)
	colWidth := 277.0 / float64(len(data.Headers))
	for _, header := range data.Headers {
		pdf.CellFormat(colWidth, 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range data.Rows {
		for _, header := range data.Headers {
			value := row[header]
			pdf.CellFormat(colWidth, 7, value, "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// Receipt describes a single payment receipt document.
type Receipt struct {
	ShopName        string
	ReferenceNumber string
	CustomerName    string
	Device          string
	IssuedAt        string
	Lines           []ReceiptLine
	TotalLabel      string
	TotalValue      string
	Footer          string
}

// ReceiptLine is one labeled amount row on a receipt.
type ReceiptLine struct {
	Label string
	Value string
}

// RenderReceipt creates a compact A5 payment receipt.
func (e *PDFExporter) RenderReceipt(r Receipt) ([]byte, error) {
	if r.ReferenceNumber == "" {
		return nil, fmt.Errorf("receipt requires a reference number")
	}
	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetMargins(12, 14, 12)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 9, r.ShopName, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, "Repair Receipt", "", 1, "C", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(40, 6, "Reference", "", 0, "", false, 0, "")
	pdf.CellFormat(0, 6, r.ReferenceNumber, "", 1, "", false, 0, "")
	pdf.CellFormat(40, 6, "Customer", "", 0, "", false, 0, "")
	pdf.CellFormat(0, 6, r.CustomerName, "", 1, "", false, 0, "")
	pdf.CellFormat(40, 6, "Device", "", 0, "", false, 0, "")
	pdf.CellFormat(0, 6, r.Device, "", 1, "", false, 0, "")
	pdf.CellFormat(40, 6, "Issued", "", 0, "", false, 0, "")
	pdf.CellFormat(0, 6, r.IssuedAt, "", 1, "", false, 0, "")
	pdf.Ln(4)

	for _, line := range r.Lines {
		pdf.CellFormat(70, 7, line.Label, "T", 0, "", false, 0, "")
		pdf.CellFormat(0, 7, line.Value, "T", 1, "R", false, 0, "")
	}

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(70, 8, r.TotalLabel, "T", 0, "", false, 0, "")
	pdf.CellFormat(0, 8, r.TotalValue, "T", 1, "R", false, 0, "")

	if r.Footer != "" {
		pdf.Ln(6)
		pdf.SetFont("Arial", "I", 9)
		pdf.CellFormat(0, 6, r.Footer, "", 1, "C", false, 0, "")
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return buf.Bytes(), nil
}
