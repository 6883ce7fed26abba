package moderation

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/startupjobs/jobboard-service/internal/auth"
	apperrors "github.com/startupjobs/jobboard-service/internal/errors"
	"github.com/startupjobs/jobboard-service/internal/lifecycle"
	"github.com/startupjobs/jobboard-service/internal/metrics"
	"github.com/startupjobs/jobboard-service/internal/models"
)

var errNotAdmin = apperrors.Unauthorized("administrator session required")

// Store is the subset of the job store moderation needs
type Store interface {
	Get(ctx context.Context, id string) (*models.JobPosting, error)
	GetAll(ctx context.Context) ([]models.JobPosting, error)
	TransitionStatus(ctx context.Context, id string, from, to models.Status) error
}

// Service is the administrator surface over the job store
type Service struct {
	store     Store
	sweeper   lifecycle.Sweeper
	authz     auth.Authorizer
	threshold time.Duration
	logger    logrus.FieldLogger
}

// NewService creates a moderation service. RunSweep uses threshold.
func NewService(store Store, sweeper lifecycle.Sweeper, authz auth.Authorizer, threshold time.Duration, logger logrus.FieldLogger) *Service {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		store:     store,
		sweeper:   sweeper,
		authz:     authz,
		threshold: threshold,
		logger:    logger,
	}
}

// ListAll returns every posting regardless of status, in insertion order
func (s *Service) ListAll(ctx context.Context) ([]models.JobPosting, error) {
	if !s.authz.IsAuthenticated(ctx) {
		return nil, errNotAdmin
	}
	postings, err := s.store.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list postings: %w", err)
	}
	return postings, nil
}

// SetStatus moves a pending posting to active or rejected. Unknown literals and any other move,
// including active to expired, leave the posting unchanged.
func (s *Service) SetStatus(ctx context.Context, id, rawStatus string) (*models.JobPosting, error) {
	if !s.authz.IsAuthenticated(ctx) {
		return nil, errNotAdmin
	}

	to, err := lifecycle.ParseStatus(rawStatus)
	if err != nil {
		return nil, err
	}

	posting, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	from := posting.Status
	if err := lifecycle.CheckModeration(from, to); err != nil {
		return nil, err
	}

	if err := s.store.TransitionStatus(ctx, id, from, to); err != nil {
		return nil, err
	}
	metrics.StatusTransitions.WithLabelValues(string(from), string(to)).Inc()

	s.logger.WithFields(logrus.Fields{
		"posting_id": id,
		"from":       from,
		"to":         to,
		"admin":      adminEmail(ctx),
	}).Info("posting status changed")

	posting.Status = to
	return posting, nil
}

// RunSweep triggers an expiration sweep with the configured threshold
func (s *Service) RunSweep(ctx context.Context) (int, error) {
	if !s.authz.IsAuthenticated(ctx) {
		return 0, errNotAdmin
	}
	s.logger.WithField("admin", adminEmail(ctx)).Info("manual expiration sweep requested")
	return s.sweeper.SweepExpirations(ctx, s.threshold)
}

func adminEmail(ctx context.Context) string {
	if sess, ok := auth.SessionFromContext(ctx); ok {
		return sess.Email
	}
	return ""
}
