package export

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
)

// Field is a labelled value rendered as one row of a document.
type Field struct {
	Label string
	Value string
}

// Document describes a single page, key/value style PDF such as a gate pass.
type Document struct {
	Title    string
	Subtitle string
	Fields   []Field
	Footer   string
}

// PDFExporter renders documents into PDF bytes.
type PDFExporter struct {
	pageSize string
}

// NewPDFExporter constructs a PDF exporter for A5 passes.
func NewPDFExporter() *PDFExporter {
	return &PDFExporter{pageSize: "A5"}
}

// Render creates the PDF for doc.
func (e *PDFExporter) Render(doc Document) ([]byte, error) {
	if len(doc.Fields) == 0 {
		return nil, fmt.Errorf("pdf requires at least one field")
	}
	pdf := gofpdf.New("P", "mm", e.pageSize, "")
	pdf.SetMargins(10, 12, 10)
	pdf.AddPage()
	width, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	usable := width - left - right
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if doc.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 9, tr(strings.ToUpper(doc.Title)), "", 1, "C", false, 0, "")
	}
	if doc.Subtitle != "" {
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 6, tr(doc.Subtitle), "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	labelWidth := usable * 0.35
	for _, f := range doc.Fields {
		pdf.SetFont("Arial", "B", 9)
		pdf.CellFormat(labelWidth, 7, tr(f.Label), "1", 0, "", false, 0, "")
		pdf.SetFont("Arial", "", 9)
		pdf.MultiCell(usable-labelWidth, 7, tr(f.Value), "1", "", false)
	}

	if doc.Footer != "" {
		pdf.Ln(6)
		pdf.SetFont("Arial", "I", 8)
		pdf.MultiCell(0, 5, tr(doc.Footer), "", "C", false)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
