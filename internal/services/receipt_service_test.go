package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smarttransit/reservation-gateway/internal/models"
)

func TestReceiptForCompletedCheckout(t *testing.T) {
	svc := NewReceiptService(testLogger())

	audit := &models.CheckoutAudit{
		ID:          uuid.New(),
		SessionID:   "session-1",
		Status:      models.CheckoutStatusCompleted,
		TotalAmount: 40.50,
		PayerEmail:  "rider@example.com",
		Items: models.CheckoutItems{
			{TripID: 7, TicketID: 31, Amount: 25.00, PaymentStatus: "completed"},
			{TripID: 9, TicketID: 32, Amount: 15.50, PaymentStatus: "completed"},
		},
		CreatedAt: time.Date(2026, 8, 20, 14, 30, 0, 0, time.UTC),
	}

	pdfBytes, filename, err := svc.Receipt(audit)
	require.NoError(t, err)
	assert.NotEmpty(t, pdfBytes)
	assert.Equal(t, "%PDF", string(pdfBytes[:4]))
	assert.Contains(t, filename, "RECEIPT_20260820_")
	assert.Contains(t, filename, ".pdf")
}

func TestReceiptRefusedForFailedCheckout(t *testing.T) {
	svc := NewReceiptService(testLogger())

	audit := &models.CheckoutAudit{
		ID:     uuid.New(),
		Status: models.CheckoutStatusFailed,
	}

	_, _, err := svc.Receipt(audit)
	assert.Error(t, err)
}
