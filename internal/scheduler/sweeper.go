package scheduler

import (
	"context"
	"time"

	"journeyon_backend/platform/logger"
)

// Sweeper periodically enqueues a departure scan so reminders fire even for
// trips created before the scheduler was running.
type Sweeper struct {
	client   *Client
	interval time.Duration
	log      *logger.Logger
}

// NewSweeper creates a sweeper. A non-positive interval defaults to one hour.
func NewSweeper(client *Client, interval time.Duration, log *logger.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{client: client, interval: interval, log: log}
}

// Run blocks until the context is cancelled, enqueueing one scan per tick.
// The first scan runs immediately on startup.
func (s *Sweeper) Run(ctx context.Context) {
	if err := s.client.EnqueueDepartureScan(ctx); err != nil {
		s.log.Warn("enqueue departure scan failed", "error", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.client.EnqueueDepartureScan(ctx); err != nil {
				s.log.Warn("enqueue departure scan failed", "error", err)
			}
		}
	}
}
