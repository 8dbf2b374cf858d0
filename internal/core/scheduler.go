package core

// scheduler.go runs background maintenance for the service.
//
// The session sweeper expires abandoned import previews so their gate slot
// is freed even when nobody starts another import. It is long-running and
// stops when its context is cancelled.

import (
	"context"
	"time"
)

// DefaultSweepInterval is how often the sweeper checks for expired sessions.
const DefaultSweepInterval = time.Minute

// StartSessionSweeper expires stale import sessions every interval until ctx
// is cancelled. It blocks; run it in its own goroutine.
func (s *Service) StartSessionSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	s.logger.Info("session sweeper started",
		"interval", interval.String(),
		"session_ttl", s.cfg.SessionTTL.String(),
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("session sweeper stopped")
			return
		case <-ticker.C:
			s.runSweep()
		}
	}
}

func (s *Service) runSweep() {
	start := time.Now()
	if n := s.expireSessions(); n > 0 {
		s.logger.Info("expired import sessions",
			"sessions_expired", n,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}
