package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaymentFormValidate(t *testing.T) {
	complete := PaymentForm{
		PayerEmail:   "rider@example.com",
		PayerAddress: "12 Galle Rd, Colombo",
		CardNumber:   "4111111111111111",
		CardExpiry:   "12/27",
		CardCVC:      "123",
	}
	assert.NoError(t, complete.Validate())

	t.Run("Each Missing Field Is Rejected", func(t *testing.T) {
		mutations := map[string]func(f *PaymentForm){
			"payerEmail":   func(f *PaymentForm) { f.PayerEmail = "" },
			"payerAddress": func(f *PaymentForm) { f.PayerAddress = "" },
			"cardNumber":   func(f *PaymentForm) { f.CardNumber = "" },
			"cardExpiry":   func(f *PaymentForm) { f.CardExpiry = "" },
			"cardCvc":      func(f *PaymentForm) { f.CardCVC = "" },
		}
		for field, mutate := range mutations {
			form := complete
			mutate(&form)

			err := form.Validate()
			require.Error(t, err, field)

			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, field, validationErr.Field)
		}
	})
}

func TestPaymentFormCardInfo(t *testing.T) {
	form := PaymentForm{
		CardNumber: "4111111111111111",
		CardExpiry: "12/27",
		CardCVC:    "123",
	}

	info := form.CardInfo()
	assert.Equal(t, "4111111111111111", info.CardNumber)
	assert.Equal(t, "12/27", info.ExpiryDate)
	assert.Equal(t, "123", info.CVC)
}

func TestPaymentCaptureResponseCompleted(t *testing.T) {
	assert.True(t, (&PaymentCaptureResponse{Status: "completed"}).Completed())
	assert.False(t, (&PaymentCaptureResponse{Status: "pending"}).Completed())
	assert.False(t, (&PaymentCaptureResponse{Status: "Completed"}).Completed())
	assert.False(t, (&PaymentCaptureResponse{}).Completed())
}

func TestCheckoutItemsScanValue(t *testing.T) {
	items := CheckoutItems{
		{TripID: 7, TicketID: 31, Amount: 25.00, PaymentStatus: "completed"},
	}

	value, err := items.Value()
	require.NoError(t, err)

	var scanned CheckoutItems
	require.NoError(t, scanned.Scan(value))
	assert.Equal(t, items, scanned)

	t.Run("Nil Items Store As Empty Array", func(t *testing.T) {
		var empty CheckoutItems
		value, err := empty.Value()
		require.NoError(t, err)
		assert.Equal(t, "[]", value)
	})
}

func TestNewCheckoutAudit(t *testing.T) {
	failedTrip := int64(9)
	result := &CheckoutResult{
		CheckoutID:      uuid.New(),
		Status:          CheckoutStatusFailed,
		TotalAmount:     25.00,
		Items:           []CheckoutItem{{TripID: 7, TicketID: 31, Amount: 25.00, PaymentStatus: "completed"}},
		FailedTripID:    &failedTrip,
		FailureReason:   "payment not completed",
		TicketedTripIDs: []int64{7, 9},
	}

	audit := NewCheckoutAudit("session-1", result, "rider@example.com")
	assert.Equal(t, result.CheckoutID, audit.ID)
	assert.Equal(t, "session-1", audit.SessionID)
	assert.Equal(t, CheckoutStatusFailed, audit.Status)
	assert.Equal(t, 25.00, audit.TotalAmount)
	require.NotNil(t, audit.FailedTripID)
	assert.Equal(t, failedTrip, *audit.FailedTripID)
	require.NotNil(t, audit.FailureReason)
	assert.Equal(t, "payment not completed", *audit.FailureReason)
	assert.False(t, audit.CreatedAt.IsZero())

	t.Run("No Failure Reason Stays Nil", func(t *testing.T) {
		ok := &CheckoutResult{CheckoutID: uuid.New(), Status: CheckoutStatusCompleted}
		audit := NewCheckoutAudit("session-1", ok, "rider@example.com")
		assert.Nil(t, audit.FailureReason)
	})
}
