package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/smartlegal/internal/auth/reset"
	"github.com/aussiebroadwan/smartlegal/internal/auth/store"
)

// DefaultAuditRetention is how long audit events are kept when no retention
// is configured.
const DefaultAuditRetention = 90 * 24 * time.Hour

// HousekeepingService periodically sweeps expired reset tokens and prunes
// old audit events.
type HousekeepingService struct {
	Store          store.Store
	Resets         *reset.Registry
	Logger         *slog.Logger
	Interval       time.Duration
	AuditRetention time.Duration

	// OnSweep, if set, receives the number of reset tokens each pass removed.
	OnSweep func(n int)

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(st store.Store, resets *reset.Registry, logger *slog.Logger, interval, retention time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	if retention <= 0 {
		retention = DefaultAuditRetention
	}

	return &HousekeepingService{
		Store:          st,
		Resets:         resets,
		Logger:         logger,
		Interval:       interval,
		AuditRetention: retention,
		stopCh:         make(chan struct{}),
		doneCh:         make(chan struct{}),
	}
}

// Start begins the background worker that periodically runs cleanup.
// Call Stop() to gracefully shutdown the worker.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop gracefully shuts down the background worker.
// Blocks until the worker has finished any in-progress cleanup.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	// Run cleanup immediately on startup
	s.Cleanup(context.Background())

	for {
		select {
		case <-ticker.C:
			s.Cleanup(context.Background())
		case <-s.stopCh:
			return
		}
	}
}

// Cleanup runs one pass. Each step is independent; a failure in one does
// not stop the other.
func (s *HousekeepingService) Cleanup(ctx context.Context) {
	if s.Resets != nil {
		if n, err := s.Resets.Sweep(ctx); err != nil {
			s.Logger.Error("failed to sweep reset tokens", "error", err)
		} else {
			s.Logger.Debug("swept reset tokens", "deleted", n)
			if s.OnSweep != nil {
				s.OnSweep(n)
			}
		}
	}

	cutoff := time.Now().Add(-s.AuditRetention)
	if n, err := s.Store.AuditLogs().DeleteBefore(ctx, cutoff); err != nil {
		s.Logger.Error("failed to prune audit logs", "error", err)
	} else {
		s.Logger.Debug("pruned audit logs", "deleted", n, "cutoff", cutoff)
	}
}
