package intake

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	apperrors "github.com/startupjobs/jobboard-service/internal/errors"
	"github.com/startupjobs/jobboard-service/internal/lifecycle"
	"github.com/startupjobs/jobboard-service/internal/metrics"
	"github.com/startupjobs/jobboard-service/internal/models"
	"github.com/startupjobs/jobboard-service/internal/notify"
	"github.com/startupjobs/jobboard-service/internal/validation"
)

const (
	maxTextLen  = 200
	maxShortLen = 100
	maxLinkLen  = 2048
)

// Submission is a job posting as entered by the public
type Submission struct {
	Title        string `json:"title"`
	Company      string `json:"company"`
	Category     string `json:"category"`
	Location     string `json:"location"`
	Link         string `json:"link"`
	ContactEmail string `json:"contact_email"`
}

// Normalize trims surrounding whitespace from every field
func (s Submission) Normalize() Submission {
	return Submission{
		Title:        strings.TrimSpace(s.Title),
		Company:      strings.TrimSpace(s.Company),
		Category:     strings.TrimSpace(s.Category),
		Location:     strings.TrimSpace(s.Location),
		Link:         strings.TrimSpace(s.Link),
		ContactEmail: strings.TrimSpace(s.ContactEmail),
	}
}

// Validate returns a validation error naming each offending field, or nil
func (s Submission) Validate() error {
	fv := validation.New().
		Validate("title", s.Title, validation.Required("Title", maxTextLen)).
		Validate("company", s.Company, validation.Required("Company", maxTextLen)).
		Validate("category", s.Category, validation.Optional("Category", maxShortLen)).
		Validate("location", s.Location, validation.Optional("Location", maxShortLen)).
		Validate("link", s.Link, validation.Required("Link", maxLinkLen), validation.HTTPURL("Link")).
		Validate("contact_email", s.ContactEmail, validation.Required("Email", maxTextLen), validation.Email("Email"))
	if fv.Valid() {
		return nil
	}
	return apperrors.Validation(fv.Errors())
}

// Store is the subset of the job store intake needs
type Store interface {
	Insert(ctx context.Context, posting models.JobPosting) (string, error)
}

// Service validates and accepts public job submissions
type Service struct {
	store         Store
	notifier      notify.Notifier
	clock         lifecycle.Clock
	operatorEmail string
	logger        logrus.FieldLogger
}

// NewService creates a new intake service
func NewService(store Store, notifier notify.Notifier, clock lifecycle.Clock, operatorEmail string, logger logrus.FieldLogger) *Service {
	if clock == nil {
		clock = lifecycle.RealClock{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		store:         store,
		notifier:      notifier,
		clock:         clock,
		operatorEmail: operatorEmail,
		logger:        logger,
	}
}

// Submit validates sub, stores it as a pending posting and notifies the submitter and the
// operator. Nothing is stored when validation fails. Notification failures are logged and
// never undo the insert.
func (s *Service) Submit(ctx context.Context, sub Submission) (string, error) {
	sub = sub.Normalize()
	if err := sub.Validate(); err != nil {
		metrics.Submissions.WithLabelValues("invalid").Inc()
		return "", err
	}

	id, err := s.store.Insert(ctx, models.JobPosting{
		Title:        sub.Title,
		Company:      sub.Company,
		Category:     sub.Category,
		Location:     sub.Location,
		Link:         sub.Link,
		ContactEmail: sub.ContactEmail,
		Status:       models.StatusPending,
		CreatedAt:    s.clock.Now(),
	})
	if err != nil {
		metrics.Submissions.WithLabelValues("error").Inc()
		return "", fmt.Errorf("failed to store submission: %w", err)
	}
	metrics.Submissions.WithLabelValues("accepted").Inc()

	log := s.logger.WithFields(logrus.Fields{"posting_id": id, "company": sub.Company})
	log.Info("job submitted")

	vars := map[string]string{
		"job_title": sub.Title,
		"company":   sub.Company,
	}
	s.notify(ctx, log, sub.ContactEmail, notify.TemplateNewJob, vars)
	if s.operatorEmail != "" {
		s.notify(ctx, log, s.operatorEmail, notify.TemplateSubmissionNotification, vars)
	}

	return id, nil
}

func (s *Service) notify(ctx context.Context, log logrus.FieldLogger, recipient, templateName string, vars map[string]string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, recipient, templateName, vars); err != nil {
		metrics.NotificationFailures.WithLabelValues(templateName).Inc()
		log.WithError(err).WithField("template", templateName).Warn("notification failed")
	}
}
