package pdf

import (
	"bytes"
	"fmt"

	"studio-app/internal/service/galleries"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"
)

// CardRenderer draws the printable card a customer receives with their
// gallery access code.
type CardRenderer struct {
	StudioName string
}

func NewCardRenderer(studioName string) *CardRenderer {
	if studioName == "" {
		studioName = "Photo Studio"
	}
	return &CardRenderer{StudioName: studioName}
}

func (r *CardRenderer) GalleryCard(card galleries.Card) ([]byte, error) {
	qr, err := qrcode.Encode(card.AccessURL, qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}

	// A6 landscape fits a postcard sleeve.
	pdf := gofpdf.New("L", "mm", "A6", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, r.StudioName)
	pdf.Ln(12)

	pdf.SetDrawColor(220, 220, 220)
	pdf.Line(10, pdf.GetY(), 138, pdf.GetY())
	pdf.Ln(4)

	top := pdf.GetY()
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(80, 7, card.GalleryName)
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 10)
	if card.CustomerName != "" {
		pdf.Cell(80, 6, card.CustomerName)
		pdf.Ln(6)
	}
	pdf.Cell(80, 6, fmt.Sprintf("Session: %s", card.SessionNumber))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 9)
	pdf.Cell(80, 5, "Access code")
	pdf.Ln(5)
	pdf.SetFont("Courier", "B", 20)
	pdf.Cell(80, 10, card.AccessCode)
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "I", 8)
	pdf.Cell(80, 5, fmt.Sprintf("Available until %s", card.ExpiresAt.Format("January 2, 2006")))

	pdf.RegisterImageOptionsReader("qr", gofpdf.ImageOptions{ImageType: "png"}, bytes.NewReader(qr))
	pdf.ImageOptions("qr", 98, top, 40, 0, false, gofpdf.ImageOptions{ImageType: "png"}, 0, "")

	pdf.SetXY(96, top+42)
	pdf.SetFont("Helvetica", "", 7)
	pdf.MultiCell(44, 3.5, card.AccessURL, "", "C", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render gallery card: %w", err)
	}
	return buf.Bytes(), nil
}
