package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "github.com/startupjobs/jobboard-service/internal/errors"
	"github.com/startupjobs/jobboard-service/internal/metrics"
	"github.com/startupjobs/jobboard-service/internal/models"
)

// Store is the subset of the job store the engine needs
type Store interface {
	GetByStatus(ctx context.Context, status models.Status) ([]models.JobPosting, error)
	TransitionStatus(ctx context.Context, id string, from, to models.Status) error
}

// Engine applies time-based status transitions
type Engine struct {
	store  Store
	clock  Clock
	logger logrus.FieldLogger
}

// NewEngine creates a lifecycle engine
func NewEngine(store Store, clock Clock, logger logrus.FieldLogger) *Engine {
	if clock == nil {
		clock = RealClock{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Engine{store: store, clock: clock, logger: logger}
}

// SweepExpirations expires every active posting older than threshold and returns how many
// it transitioned. Each transition is a compare-and-set from active, so running the sweep
// again without time passing transitions nothing, and a posting changed concurrently by an
// administrator is skipped rather than overwritten.
//
// Transitions applied before a storage failure are kept; the returned count includes them.
func (e *Engine) SweepExpirations(ctx context.Context, threshold time.Duration) (int, error) {
	active, err := e.store.GetByStatus(ctx, models.StatusActive)
	if err != nil {
		metrics.Sweeps.WithLabelValues("failure").Inc()
		return 0, fmt.Errorf("failed to list active postings: %w", err)
	}

	now := e.clock.Now()
	transitioned := 0
	for _, posting := range active {
		if posting.Age(now) <= threshold {
			continue
		}

		err := e.store.TransitionStatus(ctx, posting.ID, models.StatusActive, models.StatusExpired)
		switch {
		case err == nil:
			transitioned++
			metrics.StatusTransitions.WithLabelValues(string(models.StatusActive), string(models.StatusExpired)).Inc()
		case apperrors.IsInvalidTransition(err), apperrors.IsNotFound(err):
			e.logger.WithField("posting_id", posting.ID).WithError(err).Debug("posting changed during sweep, skipping")
		default:
			metrics.Sweeps.WithLabelValues("failure").Inc()
			return transitioned, fmt.Errorf("failed to expire posting %s: %w", posting.ID, err)
		}
	}

	metrics.Sweeps.WithLabelValues("success").Inc()
	e.logger.WithFields(logrus.Fields{
		"examined":     len(active),
		"transitioned": transitioned,
		"threshold":    threshold.String(),
	}).Info("expiration sweep complete")
	return transitioned, nil
}
