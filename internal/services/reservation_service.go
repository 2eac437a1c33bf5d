package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/reservation-gateway/internal/database"
	"github.com/smarttransit/reservation-gateway/internal/models"
)

// TripDirectory is the read-side of the trip service the reservation flow needs.
type TripDirectory interface {
	BusStops(ctx context.Context) ([]models.BusStop, error)
	SearchTrips(ctx context.Context, query models.TripSearchQuery) ([]models.Trip, error)
	TripsByIDs(ctx context.Context, ids []int64) ([]models.Trip, error)
}

// ReservationService covers the search-and-reserve flow: stop reference data,
// trip search, and the per-session reserved-trip set.
type ReservationService struct {
	trips  TripDirectory
	store  database.ReservationStore
	logger *logrus.Logger

	mu            sync.RWMutex
	stops         []models.BusStop
	stopsStale    bool
	stopsLoadedAt time.Time
}

// NewReservationService creates a new reservation service
func NewReservationService(trips TripDirectory, store database.ReservationStore, logger *logrus.Logger) *ReservationService {
	return &ReservationService{
		trips:  trips,
		store:  store,
		logger: logger,
	}
}

// Stops returns the bus-stop list. The list is fetched once and cached; when
// a refresh fails and a previous snapshot exists, the snapshot is served with
// stale=true rather than dropping data the caller already had.
func (s *ReservationService) Stops(ctx context.Context) (stops []models.BusStop, stale bool, err error) {
	s.mu.RLock()
	cached := s.stops
	cachedStale := s.stopsStale
	s.mu.RUnlock()

	if cached != nil {
		return cached, cachedStale, nil
	}

	if err := s.RefreshStops(ctx); err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stops, false, nil
}

// RefreshStops re-fetches the stop list. On failure the previous snapshot is
// kept untouched and marked stale.
func (s *ReservationService) RefreshStops(ctx context.Context) error {
	stops, err := s.trips.BusStops(ctx)
	if err != nil {
		s.mu.Lock()
		if s.stops != nil {
			s.stopsStale = true
		}
		s.mu.Unlock()
		s.logger.WithError(err).Warn("Bus stop refresh failed, keeping previous snapshot")
		return fmt.Errorf("failed to refresh bus stops: %w", err)
	}

	s.mu.Lock()
	s.stops = stops
	s.stopsStale = false
	s.stopsLoadedAt = time.Now()
	s.mu.Unlock()

	s.logger.WithField("count", len(stops)).Info("Bus stop list refreshed")
	return nil
}

// StopsLoadedAt reports when the current snapshot was taken (zero if never).
func (s *ReservationService) StopsLoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stopsLoadedAt
}

// Search validates the query locally, then issues exactly one upstream search.
// Validation failures never reach the network.
func (s *ReservationService) Search(ctx context.Context, query models.TripSearchQuery) ([]models.Trip, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	return s.trips.SearchTrips(ctx, query)
}

// Toggle flips the trip's membership in the session's reserved set and
// persists the full set. Returns whether the trip is now reserved, plus the
// updated set. The set is re-loaded before every mutation so rapid successive
// toggles never clobber each other.
func (s *ReservationService) Toggle(sessionID string, tripID int64) (bool, models.ReservedTripSet, error) {
	set, err := s.store.Load(sessionID)
	if err != nil {
		return false, nil, err
	}

	reserved := set.Toggle(tripID)
	if err := s.store.Save(sessionID, set); err != nil {
		return false, nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"session_id": sessionID,
		"trip_id":    tripID,
		"reserved":   reserved,
		"set_size":   len(set),
	}).Info("Reservation toggled")

	return reserved, set, nil
}

// Reservations returns the session's current reserved set.
func (s *ReservationService) Reservations(sessionID string) (models.ReservedTripSet, error) {
	return s.store.Load(sessionID)
}
