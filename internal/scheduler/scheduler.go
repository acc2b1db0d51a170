// Package scheduler wires up the cron job that periodically refreshes
// market snapshots for all active saved searches.
package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Refresher is the sweep the scheduler drives, implemented by
// market.Service.
type Refresher interface {
	Refresh(ctx context.Context) (refreshed, failed int, err error)
}

// Scheduler wraps robfig/cron and manages the refresh loop.
type Scheduler struct {
	cron      *cron.Cron
	refresher Refresher
	spec      string // cron spec, e.g. "@every 6h"
	logger    *zap.Logger
}

// New creates a Scheduler firing on the given cron spec.
func New(refresher Refresher, spec string, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		refresher: refresher,
		spec:      spec,
		logger:    logger,
	}
}

// Start registers the job and starts the scheduler. Also runs one sweep
// immediately so snapshots are warm without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runSweep(ctx)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("refresh scheduler started", zap.String("spec", s.spec))

	// Run immediately on startup (non-blocking)
	go s.runSweep(ctx)

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("refresh scheduler stopped")
}

func (s *Scheduler) runSweep(ctx context.Context) {
	s.logger.Info("refresh sweep started")

	refreshed, failed, err := s.refresher.Refresh(ctx)
	if err != nil {
		s.logger.Error("refresh sweep aborted", zap.Error(err))
		return
	}

	s.logger.Info("refresh sweep complete",
		zap.Int("refreshed", refreshed),
		zap.Int("failed", failed),
	)
}
