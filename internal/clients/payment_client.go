package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/reservation-gateway/internal/models"
)

// PaymentClient captures payments on the payment backend. Card data passes
// through untouched and is never logged or persisted here.
type PaymentClient struct {
	baseURL string
	client  *http.Client
	logger  *logrus.Logger
}

// NewPaymentClient creates a payment service client
func NewPaymentClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *PaymentClient {
	return &PaymentClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// CapturePayment posts one capture request for a ticket. Callers must treat
// any response status other than "completed" as a failed capture.
func (c *PaymentClient) CapturePayment(ctx context.Context, request models.PaymentCaptureRequest) (*models.PaymentCaptureResponse, error) {
	jsonBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payment request: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"ticket_id": request.TicketID,
		"amount":    request.Amount,
	}).Info("Capturing payment")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/payment", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment service unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("payment service returned status %d: %s", resp.StatusCode, string(body))
	}

	var capture models.PaymentCaptureResponse
	if err := json.Unmarshal(body, &capture); err != nil {
		return nil, fmt.Errorf("failed to parse payment response: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"ticket_id": request.TicketID,
		"status":    capture.Status,
	}).Info("Payment response received")

	return &capture, nil
}
