package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/smarttransit/reservation-gateway/internal/config"
	"github.com/smarttransit/reservation-gateway/internal/database"
)

// CronService manages scheduled background jobs
type CronService struct {
	cron         *cron.Cron
	reservations *ReservationService
	store        database.ReservationStore
	jobs         config.JobsConfig
	logger       *logrus.Logger
}

// NewCronService creates a new CronService
func NewCronService(reservations *ReservationService, store database.ReservationStore, jobs config.JobsConfig, logger *logrus.Logger) *CronService {
	// Cron with seconds precision
	c := cron.New(cron.WithSeconds())

	return &CronService{
		cron:         c,
		reservations: reservations,
		store:        store,
		jobs:         jobs,
		logger:       logger,
	}
}

// Start schedules all jobs and starts the scheduler.
func (s *CronService) Start() error {
	s.logger.Info("Starting cron service...")

	// Job 1: refresh the bus-stop cache
	// Cron format: second minute hour day month weekday
	_, err := s.cron.AddFunc(s.jobs.StopRefreshSpec, s.refreshStopsJob)
	if err != nil {
		return fmt.Errorf("failed to schedule stop refresh job: %w", err)
	}
	s.logger.WithField("spec", s.jobs.StopRefreshSpec).Info("Scheduled: bus stop cache refresh")

	// Job 2: prune reservation sets idle past the retention window
	_, err = s.cron.AddFunc(s.jobs.PruneSpec, s.pruneReservationsJob)
	if err != nil {
		return fmt.Errorf("failed to schedule prune job: %w", err)
	}
	s.logger.WithField("spec", s.jobs.PruneSpec).Info("Scheduled: stale reservation pruning")

	s.cron.Start()
	s.logger.Info("Cron service started")
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *CronService) Stop() {
	s.logger.Info("Stopping cron service...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

func (s *CronService) refreshStopsJob() {
	start := time.Now()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.reservations.RefreshStops(ctx); err != nil {
		s.logger.WithError(err).Error("Cron: bus stop refresh failed")
		return
	}
	s.logger.WithField("duration", time.Since(start).String()).Info("Cron: bus stop cache refreshed")
}

func (s *CronService) pruneReservationsJob() {
	start := time.Now()

	pruned, err := s.store.PruneIdle(s.jobs.ReservationTTL)
	if err != nil {
		s.logger.WithError(err).Error("Cron: reservation pruning failed")
		return
	}
	s.logger.WithFields(logrus.Fields{
		"pruned":   pruned,
		"duration": time.Since(start).String(),
	}).Info("Cron: stale reservation sets pruned")
}

// RunRefreshStopsNow runs the stop refresh job immediately (for admin/testing)
func (s *CronService) RunRefreshStopsNow() {
	s.refreshStopsJob()
}

// RunPruneNow runs the prune job immediately (for admin/testing)
func (s *CronService) RunPruneNow() {
	s.pruneReservationsJob()
}

// JobStatus returns the status of scheduled jobs
func (s *CronService) JobStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"running":   len(entries) > 0,
		"job_count": len(entries),
		"jobs":      jobs,
	}
}
