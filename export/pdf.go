// Package export renders a planner schedule as a printable PDF.
package export

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"

	"tripboard/models"
)

// Document is everything printed on an itinerary sheet.
type Document struct {
	Title    string
	Plan     models.TravelPlan
	Days     []models.DaySchedule
	ShareURL string // QR code target; no code is printed when empty
}

const qrSize = 256

// Render writes doc as a PDF to w.
func Render(w io.Writer, doc Document) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(doc.Title, true)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, tr(doc.Title))
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 8, tr(fmt.Sprintf("%s, %s to %s", doc.Plan.Location, doc.Plan.StartDate, doc.Plan.EndDate)))
	pdf.Ln(6)
	if doc.Plan.Companion != "" || len(doc.Plan.Themes) > 0 {
		pdf.Cell(0, 8, tr(fmt.Sprintf("With: %s  Themes: %s", doc.Plan.Companion, strings.Join(doc.Plan.Themes, ", "))))
		pdf.Ln(6)
	}

	if doc.ShareURL != "" {
		qrPNG, err := qrcode.Encode(doc.ShareURL, qrcode.Medium, qrSize)
		if err != nil {
			return fmt.Errorf("failed to generate QR code: %w", err)
		}
		imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("share-qr", imageOpts, bytes.NewReader(qrPNG))
		pdf.ImageOptions("share-qr", 160, 10, 35, 35, false, imageOpts, 0, doc.ShareURL)
	}
	pdf.Ln(10)

	for _, d := range doc.Days {
		pdf.SetFont("Arial", "B", 13)
		pdf.Cell(0, 9, fmt.Sprintf("Day %d  (%s)", d.Index+1, d.Date.Format("Mon, 02 Jan 2006")))
		pdf.Ln(9)

		pdf.SetFont("Arial", "", 11)
		if len(d.PlaceList) == 0 {
			pdf.Cell(0, 7, "No places planned")
			pdf.Ln(7)
		}
		for i, p := range d.PlaceList {
			line := fmt.Sprintf("%d. %s", i+1, p.Info.Name)
			if p.StartTime != nil && p.EndTime != nil {
				line += fmt.Sprintf("  %s-%s", p.StartTime.Format(models.ClockLayout), p.EndTime.Format(models.ClockLayout))
			}
			if p.Info.Address != "" {
				line += "  " + p.Info.Address
			}
			pdf.Cell(0, 7, tr(line))
			pdf.Ln(7)
		}
		if d.Accommodation != nil {
			pdf.SetFont("Arial", "I", 11)
			pdf.Cell(0, 7, tr("Stay: "+d.Accommodation.Info.Name))
			pdf.Ln(7)
		}
		pdf.Ln(4)
	}

	return pdf.Output(w)
}
