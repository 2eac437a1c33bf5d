package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smarttransit/reservation-gateway/internal/config"
	"github.com/smarttransit/reservation-gateway/internal/database"
	"github.com/smarttransit/reservation-gateway/internal/models"
	"github.com/smarttransit/reservation-gateway/internal/services"
)

type stubTicketIssuer struct {
	nextID int64
}

func (s *stubTicketIssuer) CreateTicket(ctx context.Context, request models.TicketRequest) (*models.Ticket, error) {
	s.nextID++
	return &models.Ticket{ID: s.nextID, TripID: request.Trip.ID, Status: true}, nil
}

type stubPaymentCapturer struct {
	status string
}

func (s *stubPaymentCapturer) CapturePayment(ctx context.Context, request models.PaymentCaptureRequest) (*models.PaymentCaptureResponse, error) {
	status := s.status
	if status == "" {
		status = "completed"
	}
	return &models.PaymentCaptureResponse{ID: request.TicketID, Status: status}, nil
}

type stubAuditRecorder struct {
	audits map[uuid.UUID]*models.CheckoutAudit
}

func newStubAuditRecorder() *stubAuditRecorder {
	return &stubAuditRecorder{audits: make(map[uuid.UUID]*models.CheckoutAudit)}
}

func (s *stubAuditRecorder) Record(audit *models.CheckoutAudit) error {
	s.audits[audit.ID] = audit
	return nil
}

func (s *stubAuditRecorder) GetByID(id uuid.UUID) (*models.CheckoutAudit, error) {
	return s.audits[id], nil
}

func (s *stubAuditRecorder) ListBySession(sessionID string, limit int) ([]models.CheckoutAudit, error) {
	out := make([]models.CheckoutAudit, 0)
	for _, audit := range s.audits {
		if audit.SessionID == sessionID {
			out = append(out, *audit)
		}
	}
	return out, nil
}

func setupCheckoutRouter(directory services.TripDirectory, payments *stubPaymentCapturer,
	audits *stubAuditRecorder, store database.ReservationStore) *gin.Engine {
	gin.SetMode(gin.TestMode)

	checkoutSvc := services.NewCheckoutService(
		directory, &stubTicketIssuer{}, payments, store, audits,
		config.CheckoutConfig{DefaultPassengerID: 101, DefaultSeatNumber: 15}, testLogger())
	receiptSvc := services.NewReceiptService(testLogger())
	handler := NewCheckoutHandler(checkoutSvc, receiptSvc)

	router := gin.New()
	router.Use(fixedSession("session-1"))
	router.GET("/api/v1/checkout/quote", handler.GetQuote)
	router.POST("/api/v1/checkout", handler.SubmitCheckout)
	router.GET("/api/v1/checkouts", handler.ListCheckouts)
	router.GET("/api/v1/checkouts/:id", handler.GetCheckout)
	router.GET("/api/v1/checkouts/:id/receipt", handler.GetReceipt)
	return router
}

func checkoutForm(t *testing.T) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(models.PaymentForm{
		PayerEmail:   "rider@example.com",
		PayerAddress: "12 Galle Rd, Colombo",
		CardNumber:   "4111111111111111",
		CardExpiry:   "12/27",
		CardCVC:      "123",
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestGetQuote(t *testing.T) {
	directory := &stubTripDirectory{trips: []models.Trip{{ID: 7, Price: 25.00}, {ID: 9, Price: 15.50}}}
	store := database.NewMemoryReservationStore()
	require.NoError(t, store.Save("session-1", models.ReservedTripSet{7, 9}))

	router := setupCheckoutRouter(directory, &stubPaymentCapturer{}, newStubAuditRecorder(), store)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/checkout/quote", nil))

	assert.Equal(t, http.StatusOK, w.Code)

	var quote models.CheckoutQuote
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &quote))
	assert.Len(t, quote.Trips, 2)
	assert.InDelta(t, 40.50, quote.TotalAmount, 0.001)
}

func TestSubmitCheckoutSuccess(t *testing.T) {
	directory := &stubTripDirectory{trips: []models.Trip{{ID: 7, Price: 25.00}}}
	store := database.NewMemoryReservationStore()
	require.NoError(t, store.Save("session-1", models.ReservedTripSet{7}))

	router := setupCheckoutRouter(directory, &stubPaymentCapturer{}, newStubAuditRecorder(), store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", checkoutForm(t))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var result models.CheckoutResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, models.CheckoutStatusCompleted, result.Status)
	assert.True(t, result.Cleared)
}

func TestSubmitCheckoutFailedCaptureIs402(t *testing.T) {
	directory := &stubTripDirectory{trips: []models.Trip{{ID: 7, Price: 25.00}}}
	store := database.NewMemoryReservationStore()
	require.NoError(t, store.Save("session-1", models.ReservedTripSet{7}))

	router := setupCheckoutRouter(directory, &stubPaymentCapturer{status: "declined"}, newStubAuditRecorder(), store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", checkoutForm(t))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusPaymentRequired, w.Code)

	var result models.CheckoutResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, models.CheckoutStatusFailed, result.Status)
	assert.False(t, result.Cleared)
}

func TestSubmitCheckoutInvalidForm(t *testing.T) {
	store := database.NewMemoryReservationStore()
	require.NoError(t, store.Save("session-1", models.ReservedTripSet{7}))

	router := setupCheckoutRouter(&stubTripDirectory{}, &stubPaymentCapturer{}, newStubAuditRecorder(), store)

	body, _ := json.Marshal(models.PaymentForm{PayerEmail: "rider@example.com"})
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetCheckoutAndReceipt(t *testing.T) {
	directory := &stubTripDirectory{trips: []models.Trip{{ID: 7, Price: 25.00}}}
	store := database.NewMemoryReservationStore()
	require.NoError(t, store.Save("session-1", models.ReservedTripSet{7}))

	audits := newStubAuditRecorder()
	router := setupCheckoutRouter(directory, &stubPaymentCapturer{}, audits, store)

	// Run one checkout to get an audit row
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", checkoutForm(t))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var result models.CheckoutResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))

	t.Run("Get Checkout", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/checkouts/"+result.CheckoutID.String(), nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), result.CheckoutID.String())
	})

	t.Run("Receipt Download", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/checkouts/"+result.CheckoutID.String()+"/receipt", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
		assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
	})

	t.Run("Unknown Checkout Is 404", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/checkouts/"+uuid.NewString(), nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Other Session Cannot Read It", func(t *testing.T) {
		// Same audit store, different session
		other := gin.New()
		other.Use(fixedSession("session-2"))
		checkoutSvc := services.NewCheckoutService(directory, &stubTicketIssuer{}, &stubPaymentCapturer{},
			store, audits, config.CheckoutConfig{DefaultPassengerID: 101, DefaultSeatNumber: 15}, testLogger())
		handler := NewCheckoutHandler(checkoutSvc, services.NewReceiptService(testLogger()))
		other.GET("/api/v1/checkouts/:id", handler.GetCheckout)

		w := httptest.NewRecorder()
		other.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/checkouts/"+result.CheckoutID.String(), nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
