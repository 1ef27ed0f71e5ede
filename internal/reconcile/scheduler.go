// Package reconcile periodically applies verified payments whose order update
// did not complete during verification.
package reconcile

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Reconciler applies pending payment confirmations and reports how many succeeded.
type Reconciler interface {
	ReconcilePending(ctx context.Context) (int, error)
}

// Scheduler runs a Reconciler on a fixed interval.
type Scheduler struct {
	reconciler Reconciler
	interval   time.Duration
	logger     zerolog.Logger
	stopCh     chan struct{}
	stopOnce   sync.Once
	wg         sync.WaitGroup
}

// NewScheduler creates a scheduler. A non-positive interval defaults to one minute.
func NewScheduler(reconciler Reconciler, interval time.Duration, logger zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Scheduler{
		reconciler: reconciler,
		interval:   interval,
		logger:     logger.With().Str("component", "reconcile").Logger(),
		stopCh:     make(chan struct{}),
	}
}

// Start runs one pass immediately, then one per interval until Stop or ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info().Dur("interval", s.interval).Msg("starting payment reconcile scheduler")

	s.wg.Add(1)
	go s.run(ctx)
}

// Stop halts the scheduler and waits for an in-flight pass.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Info().Msg("stopping payment reconcile scheduler")
		close(s.stopCh)
	})
	s.wg.Wait()
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.RunOnce(ctx)

	for {
		select {
		case <-ticker.C:
			s.RunOnce(ctx)
		case <-s.stopCh:
			s.logger.Info().Msg("payment reconcile stopped")
			return
		case <-ctx.Done():
			s.logger.Info().Msg("payment reconcile cancelled")
			return
		}
	}
}

// RunOnce performs a single pass and returns the number of confirmations applied.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	applied, err := s.reconciler.ReconcilePending(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("payment reconcile pass failed")
	}
	return applied
}
