package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/smarttransit/reservation-gateway/internal/models"
)

// ReservationStore persists the reserved-trip id set per session. Contract:
// Load after Save with the same set yields an equal set; Load fails soft to an
// empty set when the row is absent or unparseable; Save overwrites the whole
// set every time.
type ReservationStore interface {
	Load(sessionID string) (models.ReservedTripSet, error)
	Save(sessionID string, set models.ReservedTripSet) error
	Clear(sessionID string) error
	PruneIdle(olderThan time.Duration) (int64, error)
}

// PostgresReservationStore stores one JSON id array per session.
type PostgresReservationStore struct {
	db DB
}

// NewPostgresReservationStore creates a Postgres-backed reservation store
func NewPostgresReservationStore(db DB) *PostgresReservationStore {
	return &PostgresReservationStore{db: db}
}

// Load reads the session's reserved set. A missing row or a payload that no
// longer parses yields an empty set, never an error for the caller's flow.
func (s *PostgresReservationStore) Load(sessionID string) (models.ReservedTripSet, error) {
	var payload []byte
	query := `SELECT trip_ids FROM reservation_sets WHERE session_id = $1`

	err := s.db.QueryRow(query, sessionID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ReservedTripSet{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load reservation set: %w", err)
	}

	var set models.ReservedTripSet
	if err := json.Unmarshal(payload, &set); err != nil {
		// Malformed persisted data fails soft to an empty set
		return models.ReservedTripSet{}, nil
	}
	if set == nil {
		set = models.ReservedTripSet{}
	}
	return set, nil
}

// Save writes the full set, overwriting any previous value for the session.
func (s *PostgresReservationStore) Save(sessionID string, set models.ReservedTripSet) error {
	payload, err := json.Marshal(set.IDs())
	if err != nil {
		return fmt.Errorf("failed to encode reservation set: %w", err)
	}

	query := `
		INSERT INTO reservation_sets (session_id, trip_ids, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (session_id)
		DO UPDATE SET trip_ids = EXCLUDED.trip_ids, updated_at = EXCLUDED.updated_at`

	if _, err := s.db.Exec(query, sessionID, payload, time.Now()); err != nil {
		return fmt.Errorf("failed to save reservation set: %w", err)
	}
	return nil
}

// Clear removes the session's stored set entirely.
func (s *PostgresReservationStore) Clear(sessionID string) error {
	query := `DELETE FROM reservation_sets WHERE session_id = $1`
	if _, err := s.db.Exec(query, sessionID); err != nil {
		return fmt.Errorf("failed to clear reservation set: %w", err)
	}
	return nil
}

// PruneIdle deletes sets that have not been touched within the retention
// window. Returns the number of rows removed.
func (s *PostgresReservationStore) PruneIdle(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	query := `DELETE FROM reservation_sets WHERE updated_at < $1`

	result, err := s.db.Exec(query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune reservation sets: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count pruned rows: %w", err)
	}
	return rows, nil
}

// MemoryReservationStore is an in-process store for tests and development.
type MemoryReservationStore struct {
	mu      sync.RWMutex
	sets    map[string]models.ReservedTripSet
	touched map[string]time.Time
}

// NewMemoryReservationStore creates an empty in-memory store
func NewMemoryReservationStore() *MemoryReservationStore {
	return &MemoryReservationStore{
		sets:    make(map[string]models.ReservedTripSet),
		touched: make(map[string]time.Time),
	}
}

// Load returns the stored set, or an empty set when absent.
func (s *MemoryReservationStore) Load(sessionID string) (models.ReservedTripSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.sets[sessionID]
	if !ok {
		return models.ReservedTripSet{}, nil
	}
	return set.IDs(), nil
}

// Save overwrites the stored set.
func (s *MemoryReservationStore) Save(sessionID string, set models.ReservedTripSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets[sessionID] = set.IDs()
	s.touched[sessionID] = time.Now()
	return nil
}

// Clear removes the stored set.
func (s *MemoryReservationStore) Clear(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sets, sessionID)
	delete(s.touched, sessionID)
	return nil
}

// PruneIdle removes sets idle beyond the window.
func (s *MemoryReservationStore) PruneIdle(olderThan time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := time.Now().Add(-olderThan)
	var pruned int64
	for id, at := range s.touched {
		if at.Before(cutoff) {
			delete(s.sets, id)
			delete(s.touched, id)
			pruned++
		}
	}
	return pruned, nil
}
