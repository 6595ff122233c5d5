package sync

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Scheduler enqueues a periodic sync so drift heals even when nobody runs a
// command.
type Scheduler struct {
	queue    *Queue
	interval time.Duration
	log      zerolog.Logger
}

func NewScheduler(queue *Queue, interval time.Duration, log zerolog.Logger) *Scheduler {
	return &Scheduler{queue: queue, interval: interval, log: log}
}

// Start launches the ticker loop; it stops when ctx is cancelled. The first
// scheduled run fires after one full interval, the startup pass having
// already run.
func (s *Scheduler) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		s.log.Info().Dur("interval", s.interval).Msg("scheduler started")
		for {
			select {
			case <-ctx.Done():
				s.log.Info().Msg("scheduler stopped")
				return
			case <-ticker.C:
				s.queue.EnqueueNow("scheduled")
			}
		}
	}()
}
