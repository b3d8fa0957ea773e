// Package ticket renders PDF e-tickets for confirmed bookings.
package ticket

import (
	"bytes"
	"fmt"
	"time"

	"smart-bus/internal/data/entity"

	"github.com/phpdave11/gofpdf"
)

// Details is everything printed on a ticket.
type Details struct {
	Booking    *entity.Booking
	SeatNumber int
	SeatClass  entity.SeatCategory
	Payment    *entity.Payment
	IssuedAt   time.Time
}

func Render(d Details) ([]byte, error) {
	b := d.Booking
	if b == nil {
		return nil, fmt.Errorf("render ticket: missing booking")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket "+b.BookingRef, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "SMART BUS E-TICKET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		"Booking ref : " + b.BookingRef,
		"Status      : " + string(b.Status),
		"Run         : " + b.RunID.String(),
		"Travel date : " + b.TravelDate.Format("2006-01-02"),
		fmt.Sprintf("Seat        : %d (%s)", d.SeatNumber, d.SeatClass),
		"Fare        : " + b.FinalPrice.StringFixed(2),
	}
	if !b.Discount.IsZero() {
		lines = append(lines, "Discount    : "+b.Discount.StringFixed(2))
	}
	if d.Payment != nil {
		lines = append(lines,
			"Paid via    : "+string(d.Payment.Method),
			"Transaction : "+d.Payment.TransactionID,
		)
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Valid for one passenger on the seat shown. Issued "+d.IssuedAt.Format("2006-01-02 15:04 MST")+".", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render ticket %s: %w", b.BookingRef, err)
	}
	return buf.Bytes(), nil
}
