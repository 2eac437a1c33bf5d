package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/smarttransit/reservation-gateway/internal/middleware"
	"github.com/smarttransit/reservation-gateway/internal/models"
	"github.com/smarttransit/reservation-gateway/internal/services"
)

type CheckoutHandler struct {
	checkout *services.CheckoutService
	receipts *services.ReceiptService
}

func NewCheckoutHandler(checkout *services.CheckoutService, receipts *services.ReceiptService) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		receipts: receipts,
	}
}

// GetQuote prices the session's reserved set before submission
// GET /api/v1/checkout/quote
func (h *CheckoutHandler) GetQuote(c *gin.Context) {
	sessionID, ok := middleware.GetSessionID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No session"})
		return
	}

	quote, err := h.checkout.Quote(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to price reserved trips"})
		return
	}

	c.JSON(http.StatusOK, quote)
}

// SubmitCheckout runs the ticket and payment sequence for the reserved set
// POST /api/v1/checkout
func (h *CheckoutHandler) SubmitCheckout(c *gin.Context) {
	sessionID, ok := middleware.GetSessionID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No session"})
		return
	}

	var form models.PaymentForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid payment form"})
		return
	}

	result, err := h.checkout.Submit(c.Request.Context(), sessionID, &form)
	if err != nil {
		var validationErr *models.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "Checkout could not be started"})
		return
	}

	// A failed run is a completed request; the body carries the outcome
	status := http.StatusOK
	if result.Status == models.CheckoutStatusFailed {
		status = http.StatusPaymentRequired
	}
	c.JSON(status, result)
}

// GetCheckout fetches one checkout record for the session
// GET /api/v1/checkouts/:id
func (h *CheckoutHandler) GetCheckout(c *gin.Context) {
	sessionID, ok := middleware.GetSessionID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No session"})
		return
	}

	audit, ok := h.loadSessionCheckout(c, sessionID)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, audit)
}

// ListCheckouts returns the session's checkout history, newest first
// GET /api/v1/checkouts?limit=
func (h *CheckoutHandler) ListCheckouts(c *gin.Context) {
	sessionID, ok := middleware.GetSessionID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No session"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	audits, err := h.checkout.History(sessionID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load checkout history"})
		return
	}

	c.JSON(http.StatusOK, audits)
}

// GetReceipt downloads the PDF receipt for a completed checkout
// GET /api/v1/checkouts/:id/receipt
func (h *CheckoutHandler) GetReceipt(c *gin.Context) {
	sessionID, ok := middleware.GetSessionID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "No session"})
		return
	}

	audit, ok := h.loadSessionCheckout(c, sessionID)
	if !ok {
		return
	}

	pdfBytes, filename, err := h.receipts.Receipt(audit)
	if err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Receipt is only available for completed checkouts"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

// loadSessionCheckout resolves :id to an audit row owned by the session.
// Another session's checkout reads as not found.
func (h *CheckoutHandler) loadSessionCheckout(c *gin.Context, sessionID string) (*models.CheckoutAudit, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid checkout id"})
		return nil, false
	}

	audit, err := h.checkout.Get(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load checkout"})
		return nil, false
	}
	if audit == nil || audit.SessionID != sessionID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Checkout not found"})
		return nil, false
	}
	return audit, true
}
