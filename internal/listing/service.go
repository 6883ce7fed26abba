package listing

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/startupjobs/jobboard-service/internal/errors"
	"github.com/startupjobs/jobboard-service/internal/models"
)

const (
	DefaultRecentLimit = 10
	MaxRecentLimit     = 100
)

// Store is the subset of the job store the public surfaces need
type Store interface {
	Get(ctx context.Context, id string) (*models.JobPosting, error)
	Find(ctx context.Context, filter models.Filter) ([]models.JobPosting, error)
}

// Service serves the public, read-only views of active postings
type Service struct {
	store       Store
	siteName    string
	recentLimit int
}

// NewService creates a listing service. siteName is used as the feed author.
func NewService(store Store, siteName string, recentLimit int) *Service {
	return &Service{
		store:       store,
		siteName:    siteName,
		recentLimit: clampLimit(recentLimit, DefaultRecentLimit),
	}
}

// Active returns every active posting in insertion order
func (s *Service) Active(ctx context.Context) ([]models.JobPosting, error) {
	return s.find(ctx, models.Filter{Status: models.StatusActive})
}

// Search returns active postings matching every non-empty criterion
func (s *Service) Search(ctx context.Context, category, company, location string) ([]models.JobPosting, error) {
	return s.find(ctx, models.Filter{
		Status:   models.StatusActive,
		Category: strings.TrimSpace(category),
		Company:  strings.TrimSpace(company),
		Location: strings.TrimSpace(location),
	})
}

// ByCategory returns the active postings of a category, or a not-found error when there are none
func (s *Service) ByCategory(ctx context.Context, category string) ([]models.JobPosting, error) {
	postings, err := s.find(ctx, models.Filter{Status: models.StatusActive, Category: category})
	if err != nil {
		return nil, err
	}
	if len(postings) == 0 {
		return nil, apperrors.NotFoundf("no active postings in category %q", category)
	}
	return postings, nil
}

// ByCompany returns the active postings of a company
func (s *Service) ByCompany(ctx context.Context, company string) ([]models.JobPosting, error) {
	return s.find(ctx, models.Filter{Status: models.StatusActive, Company: company})
}

// ByLocation returns the active postings in a location
func (s *Service) ByLocation(ctx context.Context, location string) ([]models.JobPosting, error) {
	return s.find(ctx, models.Filter{Status: models.StatusActive, Location: location})
}

// Recent returns the newest active postings. A non-positive limit means the configured default.
func (s *Service) Recent(ctx context.Context, limit int) ([]models.JobPosting, error) {
	return s.find(ctx, models.Filter{
		Status: models.StatusActive,
		Newest: true,
		Limit:  clampLimit(limit, s.recentLimit),
	})
}

// Posting returns one active posting. Postings in any other status are reported as not found.
func (s *Service) Posting(ctx context.Context, id string) (*models.JobPosting, error) {
	posting, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if posting.Status != models.StatusActive {
		return nil, apperrors.NotFoundf("posting %s not found", id)
	}
	return posting, nil
}

// Feed returns one item per active posting, newest first
func (s *Service) Feed(ctx context.Context) ([]models.FeedItem, error) {
	postings, err := s.find(ctx, models.Filter{Status: models.StatusActive, Newest: true})
	if err != nil {
		return nil, err
	}

	items := make([]models.FeedItem, 0, len(postings))
	for _, p := range postings {
		items = append(items, models.FeedItem{
			Title:       p.Title,
			Link:        p.Link,
			Company:     p.Company,
			GUID:        p.ID,
			Author:      s.siteName,
			PublishDate: p.CreatedAt,
		})
	}
	return items, nil
}

func (s *Service) find(ctx context.Context, filter models.Filter) ([]models.JobPosting, error) {
	postings, err := s.store.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list active postings: %w", err)
	}
	return postings, nil
}

func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > MaxRecentLimit {
		return MaxRecentLimit
	}
	return limit
}
