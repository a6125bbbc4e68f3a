// Package certificate renders a printable PDF certificate for a completed round.
package certificate

import (
	"fmt"
	"github.com/jung-kurt/gofpdf/v2"
	"github.com/myrjola/heartcollector/internal/errors"
	"io"
	"time"
)

const (
	pageW     = 595
	pageH     = 842
	margin    = 48
	titleSize = 32
	bodySize  = 14
	noteSize  = 11
	heartSize = 36.0
)

// Certificate is the content of the certificate.
type Certificate struct {
	Collected  int
	Total      int
	Elapsed    string
	FinishedAt time.Time
	// Message is an optional closing line.
	Message string
}

// Render writes a one page A4 PDF of c to w.
func Render(w io.Writer, c Certificate) error {
	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetTitle("Heart Collector certificate", true)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	// Core fonts only cover cp1252.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFillColor(255, 240, 245)
	pdf.Rect(0, 0, pageW, pageH, "F")
	pdf.SetDrawColor(255, 64, 129)
	pdf.SetLineWidth(3)
	pdf.Rect(margin/2, margin/2, pageW-margin, pageH-margin, "D")

	for i, x := range []float64{pageW/2 - 2*heartSize, pageW / 2, pageW/2 + 2*heartSize} {
		size := heartSize
		if i == 1 {
			size *= 1.5
		}
		drawHeart(pdf, x, 170, size)
	}

	pdf.SetTextColor(194, 24, 91)
	pdf.SetFont("Helvetica", "B", titleSize)
	pdf.SetXY(margin, 260)
	pdf.CellFormat(pageW-2*margin, 40, "Certificate of Collection", "", 1, "C", false, 0, "")

	pdf.SetTextColor(60, 60, 60)
	pdf.SetFont("Helvetica", "", bodySize)
	pdf.SetXY(margin, 330)
	pdf.CellFormat(pageW-2*margin, 24, "This certifies that every hidden heart was found.", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "B", bodySize+4)
	pdf.SetXY(margin, 390)
	pdf.CellFormat(pageW-2*margin, 28, fmt.Sprintf("Hearts collected: %d / %d", c.Collected, c.Total),
		"", 1, "C", false, 0, "")
	pdf.SetXY(margin, 424)
	pdf.CellFormat(pageW-2*margin, 28, fmt.Sprintf("Time taken: %s", c.Elapsed), "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", noteSize)
	pdf.SetXY(margin, 470)
	pdf.CellFormat(pageW-2*margin, 18, "Finished "+c.FinishedAt.UTC().Format("January 2, 2006 at 15:04 UTC"),
		"", 1, "C", false, 0, "")

	if c.Message != "" {
		pdf.SetFont("Helvetica", "I", bodySize)
		pdf.SetXY(margin*2, 530)
		pdf.MultiCell(pageW-4*margin, 20, tr(c.Message), "", "C", false)
	}

	if err := pdf.Output(w); err != nil {
		return errors.Wrap(err, "output pdf")
	}
	return nil
}

// drawHeart draws a filled heart whose top edge is centred at (cx, top).
func drawHeart(pdf *gofpdf.Fpdf, cx, top, size float64) {
	r := size / 4
	pdf.SetFillColor(255, 64, 129)
	pdf.Circle(cx-r, top+r, r, "F")
	pdf.Circle(cx+r, top+r, r, "F")
	pdf.Polygon([]gofpdf.PointType{
		{X: cx - 2*r, Y: top + r*1.2},
		{X: cx + 2*r, Y: top + r*1.2},
		{X: cx, Y: top + size},
	}, "F")
}
