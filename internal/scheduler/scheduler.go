// Package scheduler runs the periodic confirmation-deadline sweep.
package scheduler

import (
	"context"
	"log"
	"time"
)

type expirySweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// Scheduler invokes the deadline sweep on a fixed interval until its
// context is cancelled. The sweep itself is idempotent, so a missed or
// doubled tick is harmless.
type Scheduler struct {
	sweeper  expirySweeper
	interval time.Duration
}

// New builds a scheduler. Intervals at or below zero fall back to a minute.
func New(sweeper expirySweeper, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{sweeper: sweeper, interval: interval}
}

// Start blocks until ctx is cancelled, sweeping once per interval.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	log.Printf("deadline-sweep: started, interval=%s", s.interval)
	for {
		select {
		case <-ctx.Done():
			log.Printf("deadline-sweep: stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	n, err := s.sweeper.SweepExpired(ctx)
	if err != nil {
		log.Printf("deadline-sweep: sweep failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("deadline-sweep: cancelled %d expired reservations", n)
	}
}
