package report

import (
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	pdfLineHeight = 5.0
	pdfCellPad    = 1.0
)

// buildPDF renders the report bundle as a single PDF: title block, the
// mini-review with markdown headings mapped to PDF headings, the claim
// table, the source list, and the closing disclaimer.
func buildPDF(path, title string, rep *Report) error {
	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetMargins(20, 19, 20)
	pdf.SetAutoPageBreak(true, 19)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Topic: "+rep.Topic, "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, "Generated: "+rep.GeneratedAt.Format("2006-01-02 15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	writeHeading(pdf, 2, "Mini-review (generated from retrieved abstracts)")
	writeReview(pdf, rep.Review)
	pdf.Ln(4)

	writeHeading(pdf, 2, "Claim-Evidence Table (audit)")
	writeClaimTable(pdf, rep.Claims)
	pdf.Ln(4)

	writeHeading(pdf, 2, "Sources (PMIDs)")
	pdf.SetFont("Helvetica", "", 10)
	for _, s := range rep.Sources {
		pdf.CellFormat(0, 5, s, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.MultiCell(0, 5, "Not medical advice: this report summarizes research abstracts and is not a substitute for professional medical consultation.", "", "L", false)

	return pdf.OutputFileAndClose(path)
}

func writeHeading(pdf *fpdf.Fpdf, level int, text string) {
	sizes := map[int]float64{1: 14, 2: 12, 3: 11}
	size, ok := sizes[level]
	if !ok {
		size = 11
	}
	pdf.SetFont("Helvetica", "B", size)
	pdf.CellFormat(0, 8, text, "", 1, "L", false, 0, "")
}

// writeReview maps markdown-ish review lines onto PDF text: heading lines
// become bold headings by level, blank lines become spacing.
func writeReview(pdf *fpdf.Fpdf, review string) {
	for _, line := range strings.Split(review, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			pdf.Ln(3)
			continue
		}
		if strings.HasPrefix(line, "#") {
			level := len(line) - len(strings.TrimLeft(line, "#"))
			if level > 3 {
				level = 3
			}
			writeHeading(pdf, level, strings.TrimSpace(strings.TrimLeft(line, "#")))
			continue
		}
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, pdfLineHeight, line, "", "L", false)
	}
}

func writeClaimTable(pdf *fpdf.Fpdf, claims []Claim) {
	widths := []float64{10, 58, 78, 30}
	headers := []string{"#", "Claim", "Evidence", "PMID"}

	pdf.SetFont("Helvetica", "B", 8)
	pdf.SetFillColor(211, 211, 211)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 6, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for i, c := range claims {
		writeClaimRow(pdf, widths, []string{fmt.Sprintf("%d", i+1), c.Claim, c.Evidence, c.PMID})
	}
}

// writeClaimRow draws one table row with wrapped cells of equal height.
func writeClaimRow(pdf *fpdf.Fpdf, widths []float64, cells []string) {
	lines := make([][]string, len(cells))
	rows := 1
	for i, cell := range cells {
		lines[i] = pdf.SplitText(cell, widths[i]-2*pdfCellPad)
		if len(lines[i]) > rows {
			rows = len(lines[i])
		}
	}
	rowHeight := float64(rows)*pdfLineHeight + 2*pdfCellPad

	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	if pdf.GetY()+rowHeight > pageHeight-bottom {
		pdf.AddPage()
	}

	x, y := pdf.GetXY()
	for i, cell := range lines {
		pdf.Rect(x, y, widths[i], rowHeight, "D")
		pdf.SetXY(x+pdfCellPad, y+pdfCellPad)
		for _, ln := range cell {
			pdf.CellFormat(widths[i]-2*pdfCellPad, pdfLineHeight, ln, "", 2, "L", false, 0, "")
		}
		x += widths[i]
	}
	pdf.SetY(y + rowHeight)
}
