package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// CheckoutStatus is the terminal state of one checkout run.
type CheckoutStatus string

const (
	CheckoutStatusCompleted CheckoutStatus = "completed"
	CheckoutStatusFailed    CheckoutStatus = "failed"
)

// PaymentStatusCompleted is the capture status the payment service returns on
// success; anything else aborts the run.
const PaymentStatusCompleted = "completed"

// CardInfo is forwarded verbatim to the payment service and never persisted.
type CardInfo struct {
	CardNumber string `json:"cardNumber"`
	ExpiryDate string `json:"expiryDate"`
	CVC        string `json:"cvc"`
}

// PaymentForm carries the payer fields for one checkout submission.
// Ephemeral: it exists only for the duration of the submission.
type PaymentForm struct {
	PayerEmail   string `json:"payerEmail"`
	PayerAddress string `json:"payerAddress"`
	CardNumber   string `json:"cardNumber"`
	CardExpiry   string `json:"cardExpiry"`
	CardCVC      string `json:"cardCvc"`
	// PassengerID and SeatNumber are optional overrides; the gateway falls
	// back to configured defaults, matching the upstream contract.
	PassengerID *int64 `json:"passengerId,omitempty"`
	SeatNumber  *int   `json:"seatNumber,omitempty"`
}

// Validate checks all five payer fields are present. No Luhn or expiry-format
// check is applied; the payment service owns card validation.
func (f *PaymentForm) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"payerEmail", f.PayerEmail},
		{"payerAddress", f.PayerAddress},
		{"cardNumber", f.CardNumber},
		{"cardExpiry", f.CardExpiry},
		{"cardCvc", f.CardCVC},
	}
	for _, fld := range fields {
		if fld.value == "" {
			return &ValidationError{Field: fld.name, Message: fld.name + " is required"}
		}
	}
	return nil
}

// CardInfo builds the payload forwarded to the payment service.
func (f *PaymentForm) CardInfo() CardInfo {
	return CardInfo{
		CardNumber: f.CardNumber,
		ExpiryDate: f.CardExpiry,
		CVC:        f.CardCVC,
	}
}

// PaymentCaptureRequest is the payload for the payment-capture endpoint.
type PaymentCaptureRequest struct {
	Amount   float64  `json:"amount"`
	TicketID int64    `json:"ticketId"`
	Date     string   `json:"date"`
	Status   string   `json:"status"`
	CardInfo CardInfo `json:"cardInfo"`
}

// PaymentCaptureResponse is the payment service's answer to a capture.
type PaymentCaptureResponse struct {
	ID     int64  `json:"id,omitempty"`
	Status string `json:"status"`
}

// Completed reports whether the capture went through.
func (r *PaymentCaptureResponse) Completed() bool {
	return r.Status == PaymentStatusCompleted
}

// CheckoutQuote is the pre-submission view of the reserved set.
type CheckoutQuote struct {
	Trips       []Trip  `json:"trips"`
	TotalAmount float64 `json:"total_amount"`
}

// CheckoutItem records the outcome of one trip inside a checkout run.
type CheckoutItem struct {
	TripID        int64   `json:"trip_id"`
	TicketID      int64   `json:"ticket_id"`
	Amount        float64 `json:"amount"`
	PaymentStatus string  `json:"payment_status"`
}

// CheckoutResult is returned to the caller after a Submit run.
type CheckoutResult struct {
	CheckoutID  uuid.UUID      `json:"checkout_id"`
	Status      CheckoutStatus `json:"status"`
	TotalAmount float64        `json:"total_amount"`
	Items       []CheckoutItem `json:"items"`
	// FailedTripID names the trip whose ticket or payment call failed.
	FailedTripID  *int64 `json:"failed_trip_id,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`
	// TicketedTripIDs lists trips already ticketed in this run when it
	// aborted. Ticket creation is not rolled back; the caller needs to know.
	TicketedTripIDs []int64 `json:"ticketed_trip_ids,omitempty"`
	// Cleared reports whether the reserved set was emptied (full success only).
	Cleared bool `json:"reservations_cleared"`
}

// CheckoutItems is the JSON column holding per-trip outcomes on an audit row.
type CheckoutItems []CheckoutItem

// Value implements driver.Valuer for JSON storage.
func (c CheckoutItems) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (c *CheckoutItems) Scan(src interface{}) error {
	if src == nil {
		*c = nil
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for CheckoutItems: %T", src)
	}
	return json.Unmarshal(data, c)
}

// CheckoutAudit is the immutable record of one checkout run.
type CheckoutAudit struct {
	ID            uuid.UUID      `json:"id" db:"id"`
	SessionID     string         `json:"session_id" db:"session_id"`
	Status        CheckoutStatus `json:"status" db:"status"`
	TotalAmount   float64        `json:"total_amount" db:"total_amount"`
	PayerEmail    string         `json:"payer_email" db:"payer_email"`
	Items         CheckoutItems  `json:"items" db:"items"`
	FailedTripID  *int64         `json:"failed_trip_id,omitempty" db:"failed_trip_id"`
	FailureReason *string        `json:"failure_reason,omitempty" db:"failure_reason"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
}

// NewCheckoutAudit builds an audit row from a finished run.
func NewCheckoutAudit(sessionID string, result *CheckoutResult, payerEmail string) *CheckoutAudit {
	audit := &CheckoutAudit{
		ID:           result.CheckoutID,
		SessionID:    sessionID,
		Status:       result.Status,
		TotalAmount:  result.TotalAmount,
		PayerEmail:   payerEmail,
		Items:        CheckoutItems(result.Items),
		FailedTripID: result.FailedTripID,
		CreatedAt:    time.Now(),
	}
	if result.FailureReason != "" {
		reason := result.FailureReason
		audit.FailureReason = &reason
	}
	return audit
}
