package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/smarttransit/reservation-gateway/internal/models"
)

// CheckoutAuditRepository persists the immutable record of each checkout run.
// Rows are append-only; a failed run and its retry are separate rows.
type CheckoutAuditRepository struct {
	db DB
}

// NewCheckoutAuditRepository creates a new checkout audit repository
func NewCheckoutAuditRepository(db DB) *CheckoutAuditRepository {
	return &CheckoutAuditRepository{db: db}
}

// Record inserts one audit row.
func (r *CheckoutAuditRepository) Record(audit *models.CheckoutAudit) error {
	query := `
		INSERT INTO checkout_audits (
			id, session_id, status, total_amount, payer_email,
			items, failed_trip_id, failure_reason, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.Exec(query,
		audit.ID,
		audit.SessionID,
		audit.Status,
		audit.TotalAmount,
		audit.PayerEmail,
		audit.Items,
		audit.FailedTripID,
		audit.FailureReason,
		audit.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record checkout audit: %w", err)
	}
	return nil
}

// GetByID fetches one audit row; returns nil when no row matches.
func (r *CheckoutAuditRepository) GetByID(id uuid.UUID) (*models.CheckoutAudit, error) {
	query := `
		SELECT id, session_id, status, total_amount, payer_email,
		       items, failed_trip_id, failure_reason, created_at
		FROM checkout_audits WHERE id = $1`

	var audit models.CheckoutAudit
	err := r.db.QueryRow(query, id).Scan(
		&audit.ID,
		&audit.SessionID,
		&audit.Status,
		&audit.TotalAmount,
		&audit.PayerEmail,
		&audit.Items,
		&audit.FailedTripID,
		&audit.FailureReason,
		&audit.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch checkout audit: %w", err)
	}
	return &audit, nil
}

// ListBySession returns a session's checkout history, newest first.
func (r *CheckoutAuditRepository) ListBySession(sessionID string, limit int) ([]models.CheckoutAudit, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `
		SELECT id, session_id, status, total_amount, payer_email,
		       items, failed_trip_id, failure_reason, created_at
		FROM checkout_audits
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := r.db.Query(query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkout audits: %w", err)
	}
	defer rows.Close()

	audits := make([]models.CheckoutAudit, 0)
	for rows.Next() {
		var audit models.CheckoutAudit
		if err := rows.Scan(
			&audit.ID,
			&audit.SessionID,
			&audit.Status,
			&audit.TotalAmount,
			&audit.PayerEmail,
			&audit.Items,
			&audit.FailedTripID,
			&audit.FailureReason,
			&audit.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan checkout audit: %w", err)
		}
		audits = append(audits, audit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read checkout audits: %w", err)
	}
	return audits, nil
}
