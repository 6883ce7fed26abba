package lifecycle

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Sweeper runs one expiration sweep
type Sweeper interface {
	SweepExpirations(ctx context.Context, threshold time.Duration) (int, error)
}

// Scheduler triggers the expiration sweep periodically. It is optional: without it sweeps
// only run when an administrator asks for one.
type Scheduler struct {
	sweeper   Sweeper
	interval  time.Duration
	threshold time.Duration
	logger    logrus.FieldLogger
}

// NewScheduler creates a periodic sweep trigger
func NewScheduler(sweeper Sweeper, interval, threshold time.Duration, logger logrus.FieldLogger) *Scheduler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Scheduler{
		sweeper:   sweeper,
		interval:  interval,
		threshold: threshold,
		logger:    logger,
	}
}

// Start sweeps once, then on every tick until ctx is cancelled
func (s *Scheduler) Start(ctx context.Context) error {
	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	// Log error but don't stop the scheduler
	if _, err := s.sweeper.SweepExpirations(ctx, s.threshold); err != nil {
		s.logger.WithError(err).Error("scheduled expiration sweep failed")
	}
}
