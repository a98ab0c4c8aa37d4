/**
 * @description
 * Cron scheduler setup for the fund-release batches.
 */
package app

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/rodrigobarona/eleva-care-app-sub018/internal/config"
)

// Scheduler manages the cron jobs.
type Scheduler struct {
	cron   *cron.Cron
	jobs   *Jobs
	logger *slog.Logger
	config config.Config
}

// NewScheduler creates a new scheduler instance.
func NewScheduler(jobs *Jobs, logger *slog.Logger, cfg config.Config) *Scheduler {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelInfo))
	c := cron.New(cron.WithChain(cron.Recover(cronLogger)))

	return &Scheduler{
		cron:   c,
		jobs:   jobs,
		logger: logger,
		config: cfg,
	}
}

// Start registers the batches and starts the cron scheduler.
func (s *Scheduler) Start() {
	if _, err := s.cron.AddFunc(s.config.TransferJobSchedule, s.jobs.ProcessTransferBatch); err != nil {
		s.logger.Error("failed to schedule transfer batch", "error", err)
	} else {
		s.logger.Info("scheduled transfer batch", "schedule", s.config.TransferJobSchedule)
	}

	if _, err := s.cron.AddFunc(s.config.PayoutJobSchedule, s.jobs.ProcessPayoutBatch); err != nil {
		s.logger.Error("failed to schedule payout batch", "error", err)
	} else {
		s.logger.Info("scheduled payout batch", "schedule", s.config.PayoutJobSchedule)
	}

	s.cron.Start()
}

// Stop gracefully stops the cron scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
