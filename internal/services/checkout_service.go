package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/reservation-gateway/internal/config"
	"github.com/smarttransit/reservation-gateway/internal/database"
	"github.com/smarttransit/reservation-gateway/internal/models"
)

// TicketIssuer creates tickets on the booking backend.
type TicketIssuer interface {
	CreateTicket(ctx context.Context, request models.TicketRequest) (*models.Ticket, error)
}

// PaymentCapturer captures payments on the payment backend.
type PaymentCapturer interface {
	CapturePayment(ctx context.Context, request models.PaymentCaptureRequest) (*models.PaymentCaptureResponse, error)
}

// AuditRecorder persists finished checkout runs.
type AuditRecorder interface {
	Record(audit *models.CheckoutAudit) error
	GetByID(id uuid.UUID) (*models.CheckoutAudit, error)
	ListBySession(sessionID string, limit int) ([]models.CheckoutAudit, error)
}

// CheckoutService runs the ticket-then-payment sequence over the session's
// reserved set. One trip at a time, strictly in set order; the first
// non-completed capture or transport error aborts the remainder.
type CheckoutService struct {
	trips    TripDirectory
	tickets  TicketIssuer
	payments PaymentCapturer
	store    database.ReservationStore
	audits   AuditRecorder
	checkout config.CheckoutConfig
	logger   *logrus.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(
	trips TripDirectory,
	tickets TicketIssuer,
	payments PaymentCapturer,
	store database.ReservationStore,
	audits AuditRecorder,
	checkout config.CheckoutConfig,
	logger *logrus.Logger,
) *CheckoutService {
	return &CheckoutService{
		trips:    trips,
		tickets:  tickets,
		payments: payments,
		store:    store,
		audits:   audits,
		checkout: checkout,
		logger:   logger,
	}
}

// Quote resolves the session's reserved set to trips and sums their prices.
// An empty set yields an empty quote without touching the trip service.
func (s *CheckoutService) Quote(ctx context.Context, sessionID string) (*models.CheckoutQuote, error) {
	set, err := s.store.Load(sessionID)
	if err != nil {
		return nil, err
	}
	if len(set) == 0 {
		return &models.CheckoutQuote{Trips: []models.Trip{}}, nil
	}

	trips, err := s.trips.TripsByIDs(ctx, set.IDs())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve reserved trips: %w", err)
	}

	quote := &models.CheckoutQuote{Trips: trips}
	for _, trip := range trips {
		quote.TotalAmount += trip.Price
	}
	return quote, nil
}

// Submit runs checkout for the session's reserved set. For each reserved trip
// it creates a ticket, then captures payment for that ticket; any failure
// stops the run at that trip. The reserved set is cleared only when every
// trip both ticketed and paid, so a failed run can be retried as-is. Tickets
// created before the failure are not rolled back; the result names them.
func (s *CheckoutService) Submit(ctx context.Context, sessionID string, form *models.PaymentForm) (*models.CheckoutResult, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}

	set, err := s.store.Load(sessionID)
	if err != nil {
		return nil, err
	}
	if len(set) == 0 {
		return nil, models.ErrInvalidInput("no reserved trips to check out")
	}

	trips, err := s.trips.TripsByIDs(ctx, set.IDs())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve reserved trips: %w", err)
	}

	priceByID := make(map[int64]float64, len(trips))
	for _, trip := range trips {
		priceByID[trip.ID] = trip.Price
	}

	passengerID := s.checkout.DefaultPassengerID
	if form.PassengerID != nil {
		passengerID = *form.PassengerID
	}
	seatNumber := s.checkout.DefaultSeatNumber
	if form.SeatNumber != nil {
		seatNumber = *form.SeatNumber
	}

	result := &models.CheckoutResult{
		CheckoutID: uuid.New(),
		Status:     models.CheckoutStatusCompleted,
		Items:      []models.CheckoutItem{},
	}
	cardInfo := form.CardInfo()
	captureDate := time.Now().Format("2006-01-02")

	s.logger.WithFields(logrus.Fields{
		"checkout_id": result.CheckoutID,
		"session_id":  sessionID,
		"trip_count":  len(set),
	}).Info("Checkout started")

	for _, tripID := range set {
		amount, known := priceByID[tripID]
		if !known {
			s.fail(result, tripID, fmt.Sprintf("trip %d is no longer available", tripID))
			break
		}

		ticket, err := s.tickets.CreateTicket(ctx, models.TicketRequest{
			PassengerID: passengerID,
			Trip:        models.TripRef{ID: tripID},
			SeatNumber:  seatNumber,
			Status:      true,
		})
		if err != nil {
			s.fail(result, tripID, fmt.Sprintf("ticket creation failed: %v", err))
			break
		}
		result.TicketedTripIDs = append(result.TicketedTripIDs, tripID)

		capture, err := s.payments.CapturePayment(ctx, models.PaymentCaptureRequest{
			Amount:   amount,
			TicketID: ticket.ID,
			Date:     captureDate,
			Status:   models.PaymentStatusCompleted,
			CardInfo: cardInfo,
		})
		if err != nil {
			s.fail(result, tripID, fmt.Sprintf("payment capture failed: %v", err))
			break
		}
		if !capture.Completed() {
			s.fail(result, tripID, fmt.Sprintf("payment not completed: status %q", capture.Status))
			break
		}

		result.Items = append(result.Items, models.CheckoutItem{
			TripID:        tripID,
			TicketID:      ticket.ID,
			Amount:        amount,
			PaymentStatus: capture.Status,
		})
		result.TotalAmount += amount
	}

	if result.Status == models.CheckoutStatusCompleted {
		if err := s.store.Clear(sessionID); err != nil {
			s.logger.WithError(err).WithField("session_id", sessionID).
				Error("Failed to clear reserved set after successful checkout")
		} else {
			result.Cleared = true
		}
	}

	if err := s.audits.Record(models.NewCheckoutAudit(sessionID, result, form.PayerEmail)); err != nil {
		// Audit loss must not fail a checkout the payment service completed
		s.logger.WithError(err).WithField("checkout_id", result.CheckoutID).
			Error("Failed to record checkout audit")
	}

	s.logger.WithFields(logrus.Fields{
		"checkout_id":  result.CheckoutID,
		"status":       result.Status,
		"total_amount": result.TotalAmount,
		"items":        len(result.Items),
	}).Info("Checkout finished")

	return result, nil
}

func (s *CheckoutService) fail(result *models.CheckoutResult, tripID int64, reason string) {
	id := tripID
	result.Status = models.CheckoutStatusFailed
	result.FailedTripID = &id
	result.FailureReason = reason
	s.logger.WithFields(logrus.Fields{
		"checkout_id": result.CheckoutID,
		"trip_id":     tripID,
		"reason":      reason,
	}).Warn("Checkout aborted")
}

// History returns the session's past checkout runs, newest first.
func (s *CheckoutService) History(sessionID string, limit int) ([]models.CheckoutAudit, error) {
	return s.audits.ListBySession(sessionID, limit)
}

// Get fetches one checkout audit; nil when the id is unknown.
func (s *CheckoutService) Get(id uuid.UUID) (*models.CheckoutAudit, error) {
	return s.audits.GetByID(id)
}
