package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/reservation-gateway/internal/models"
)

// LocationSource reads the latest position of one bus.
type LocationSource interface {
	BusLocation(ctx context.Context, busID int64) (*models.LocationSample, error)
}

// TrackingService polls live bus positions on a fixed interval and serves the
// latest sample per bus. A poll failure keeps the last good sample; readers
// can see how old it is from ObservedAt.
type TrackingService struct {
	source   LocationSource
	interval time.Duration
	logger   *logrus.Logger

	mu      sync.RWMutex
	latest  map[int64]*models.LocationSample
	cancels map[int64]context.CancelFunc
	wg      sync.WaitGroup
}

// NewTrackingService creates a new tracking service
func NewTrackingService(source LocationSource, interval time.Duration, logger *logrus.Logger) *TrackingService {
	return &TrackingService{
		source:   source,
		interval: interval,
		logger:   logger,
		latest:   make(map[int64]*models.LocationSample),
		cancels:  make(map[int64]context.CancelFunc),
	}
}

// Start begins polling the bus. Starting an already-tracked bus is a no-op.
func (s *TrackingService) Start(busID int64) {
	s.mu.Lock()
	if _, running := s.cancels[busID]; running {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancels[busID] = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.poll(ctx, busID)

	s.logger.WithField("bus_id", busID).Info("Bus tracking started")
}

// Stop ends polling for the bus. The last sample stays readable.
func (s *TrackingService) Stop(busID int64) {
	s.mu.Lock()
	cancel, running := s.cancels[busID]
	if running {
		delete(s.cancels, busID)
	}
	s.mu.Unlock()

	if running {
		cancel()
		s.logger.WithField("bus_id", busID).Info("Bus tracking stopped")
	}
}

// StopAll ends every poll loop and waits for them to exit.
func (s *TrackingService) StopAll() {
	s.mu.Lock()
	for busID, cancel := range s.cancels {
		cancel()
		delete(s.cancels, busID)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// Tracking reports whether the bus has an active poll loop.
func (s *TrackingService) Tracking(busID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, running := s.cancels[busID]
	return running
}

// Latest returns the most recent sample for the bus, fetching one immediately
// when the bus has never been polled.
func (s *TrackingService) Latest(ctx context.Context, busID int64) (*models.LocationSample, error) {
	s.mu.RLock()
	sample := s.latest[busID]
	s.mu.RUnlock()

	if sample != nil {
		return sample, nil
	}

	sample, err := s.source.BusLocation(ctx, busID)
	if err != nil {
		return nil, fmt.Errorf("no location available for bus %d: %w", busID, err)
	}
	s.record(busID, sample)
	return sample, nil
}

func (s *TrackingService) poll(ctx context.Context, busID int64) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Fetch once up front so Latest has data before the first tick
	s.fetch(ctx, busID)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.fetch(ctx, busID)
		}
	}
}

func (s *TrackingService) fetch(ctx context.Context, busID int64) {
	sample, err := s.source.BusLocation(ctx, busID)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.WithError(err).WithField("bus_id", busID).Warn("Location poll failed")
		}
		return
	}
	s.record(busID, sample)
}

func (s *TrackingService) record(busID int64, sample *models.LocationSample) {
	s.mu.Lock()
	s.latest[busID] = sample
	s.mu.Unlock()
}
