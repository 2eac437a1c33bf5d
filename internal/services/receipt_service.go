package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/reservation-gateway/internal/models"
)

// ReceiptService renders a checkout audit as a PDF receipt.
type ReceiptService struct {
	logger *logrus.Logger
}

// NewReceiptService creates a new receipt service
func NewReceiptService(logger *logrus.Logger) *ReceiptService {
	return &ReceiptService{logger: logger}
}

// Receipt builds the PDF for one completed checkout and returns the bytes
// plus a download filename. Failed runs have no receipt.
func (s *ReceiptService) Receipt(audit *models.CheckoutAudit) ([]byte, string, error) {
	if audit.Status != models.CheckoutStatusCompleted {
		return nil, "", fmt.Errorf("no receipt for %s checkout %s", audit.Status, audit.ID)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Booking Receipt", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "BOOKING RECEIPT")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, "Receipt No : "+audit.ID.String())
	pdf.Ln(7)
	pdf.Cell(0, 7, "Date       : "+audit.CreatedAt.Format("2006-01-02 15:04"))
	pdf.Ln(7)
	pdf.Cell(0, 7, "Billed to  : "+payerLine(audit.PayerEmail))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Trips:")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	for i, item := range audit.Items {
		line := fmt.Sprintf("%d) Trip #%d  Ticket #%d  %s",
			i+1, item.TripID, item.TicketID, formatAmount(item.Amount))
		pdf.Cell(0, 6, line)
		pdf.Ln(6)
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Total: "+formatAmount(audit.TotalAmount))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Each trip above has its own ticket. Present the ticket number when boarding.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", fmt.Errorf("failed to render receipt: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"checkout_id": audit.ID,
		"trips":       len(audit.Items),
	}).Info("Receipt generated")

	filename := fmt.Sprintf("RECEIPT_%s_%s.pdf", audit.CreatedAt.Format("20060102"), audit.ID.String()[:8])
	return buf.Bytes(), filename, nil
}

func payerLine(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return "-"
	}
	return email
}

func formatAmount(v float64) string {
	return fmt.Sprintf("LKR %.2f", v)
}
