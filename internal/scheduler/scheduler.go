package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/RutamBhagat/automated-price-tracking/internal/domain"
)

// CheckRunner runs one price-check cycle over every tracked product.
type CheckRunner interface {
	RunCheckCycle(ctx context.Context) (domain.CycleReport, error)
}

// Scheduler runs check cycles on a fixed interval. Cycles never overlap: a
// slow cycle delays the next tick instead of running concurrently with it.
type Scheduler struct {
	checker  CheckRunner
	interval time.Duration
}

func New(checker CheckRunner, interval time.Duration) *Scheduler {
	return &Scheduler{
		checker:  checker,
		interval: interval,
	}
}

// Run blocks until ctx is cancelled. The first cycle starts immediately.
func (s *Scheduler) Run(ctx context.Context) {
	s.runCycle(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.runCycle(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) runCycle(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	report, err := s.checker.RunCheckCycle(ctx)
	if err != nil {
		log.Printf("price check cycle failed: %v", err)
		return
	}

	log.Printf("price check cycle finished in %s: checked %d products, %d alerts sent",
		report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond),
		len(report.Results),
		report.Count(domain.OutcomeRecordedAlertSent))
}
