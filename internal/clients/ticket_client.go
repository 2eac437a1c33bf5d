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

// TicketClient creates tickets on the booking backend. A ticket is the
// prerequisite to capturing payment for a trip.
type TicketClient struct {
	baseURL string
	client  *http.Client
	logger  *logrus.Logger
}

// NewTicketClient creates a ticket service client
func NewTicketClient(baseURL string, timeout time.Duration, logger *logrus.Logger) *TicketClient {
	return &TicketClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// CreateTicket posts one ticket-creation request and returns the created
// ticket, whose id the payment capture needs.
func (c *TicketClient) CreateTicket(ctx context.Context, request models.TicketRequest) (*models.Ticket, error) {
	jsonBody, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ticket request: %w", err)
	}

	c.logger.WithFields(logrus.Fields{
		"trip_id":      request.Trip.ID,
		"passenger_id": request.PassengerID,
		"seat_number":  request.SeatNumber,
	}).Info("Creating ticket")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/ticket", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ticket service unreachable: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("ticket service returned status %d: %s", resp.StatusCode, string(body))
	}

	var ticket models.Ticket
	if err := json.Unmarshal(body, &ticket); err != nil {
		return nil, fmt.Errorf("failed to parse ticket response: %w", err)
	}
	if ticket.ID == 0 {
		return nil, fmt.Errorf("ticket service returned no ticket id")
	}

	c.logger.WithFields(logrus.Fields{
		"ticket_id": ticket.ID,
		"trip_id":   request.Trip.ID,
	}).Info("Ticket created")

	return &ticket, nil
}
