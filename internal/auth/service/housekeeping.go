package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/seroft/pharmhub-auth/internal/auth/domain"
	"github.com/seroft/pharmhub-auth/internal/auth/metrics"
	"github.com/seroft/pharmhub-auth/internal/auth/store"
)

// endedSessionRetention is how long ended sessions stay listable for
// admins before they are purged.
const endedSessionRetention = 30 * 24 * time.Hour

// HousekeepingService periodically ends idle and expired sessions and
// drops expired challenges and old ended sessions.
type HousekeepingService struct {
	Store       store.Store
	Logger      *slog.Logger
	Metrics     *metrics.Metrics
	Interval    time.Duration
	IdleTimeout time.Duration

	// Internal channels for lifecycle management
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 minute.
func NewHousekeepingService(store store.Store, logger *slog.Logger, m *metrics.Metrics, interval, idleTimeout time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = time.Minute
	}
	if idleTimeout <= 0 {
		idleTimeout = defaultIdleTimeout
	}

	return &HousekeepingService{
		Store:       store,
		Logger:      logger,
		Metrics:     m,
		Interval:    interval,
		IdleTimeout: idleTimeout,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Start begins the background worker. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until any in-progress cleanup has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Cleanup(context.Background(), time.Now().UTC())

	for {
		select {
		case <-ticker.C:
			s.Cleanup(context.Background(), time.Now().UTC())
		case <-s.stopCh:
			return
		}
	}
}

// Cleanup runs one pass as of now. Each step is independent; a failure is
// logged and the rest still run.
func (s *HousekeepingService) Cleanup(ctx context.Context, now time.Time) {
	if n, err := s.Store.Sessions().ExpireSessions(ctx, now.Add(-s.IdleTimeout), now); err != nil {
		s.Logger.Error("failed to expire sessions", "error", err)
	} else if n > 0 {
		s.Metrics.AddSessionsEnded(domain.EndIdle, n)
		s.Logger.Info("expired sessions", "count", n)
	}

	if n, err := s.Store.Challenges().DeleteExpiredChallenges(ctx, now); err != nil {
		s.Logger.Error("failed to delete expired challenges", "error", err)
	} else if n > 0 {
		s.Logger.Debug("deleted expired challenges", "count", n)
	}

	if n, err := s.Store.Sessions().DeleteEndedSessions(ctx, now.Add(-endedSessionRetention)); err != nil {
		s.Logger.Error("failed to purge ended sessions", "error", err)
	} else if n > 0 {
		s.Logger.Debug("purged ended sessions", "count", n)
	}

	if n, err := s.Store.Sessions().CountActiveSessions(ctx); err != nil {
		s.Logger.Error("failed to count active sessions", "error", err)
	} else {
		s.Metrics.SetActiveSessions(n)
	}
}
