package storage

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/startupjobs/jobboard-service/internal/config"
	apperrors "github.com/startupjobs/jobboard-service/internal/errors"
	"github.com/startupjobs/jobboard-service/internal/models"
)

// Storage interface defines the contract for job posting persistence.
//
// Insert always stores the posting as pending and assigns its id. UpdateStatus is
// last-write-wins; TransitionStatus is a single-document compare-and-set and is what the
// lifecycle and moderation code use. Every backend failure surfaces as a storage error.
type Storage interface {
	Insert(ctx context.Context, posting models.JobPosting) (string, error)
	Get(ctx context.Context, id string) (*models.JobPosting, error)
	GetByStatus(ctx context.Context, status models.Status) ([]models.JobPosting, error)
	GetAll(ctx context.Context) ([]models.JobPosting, error)
	Find(ctx context.Context, filter models.Filter) ([]models.JobPosting, error)
	UpdateStatus(ctx context.Context, id string, status models.Status) error
	TransitionStatus(ctx context.Context, id string, from, to models.Status) error
	Ping(ctx context.Context) error
	Close() error
}

// NewStorage creates a new storage instance based on configuration
func NewStorage(cfg config.StorageConfig) (Storage, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStorage(), nil
	case "dynamodb":
		return NewDynamoDBStorage(cfg)
	case "mongodb":
		return NewMongoDBStorage(cfg)
	case "postgresql":
		return NewPostgreSQLStorage(cfg)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// prepareInsert applies the insert-time invariants shared by every backend.
func prepareInsert(posting models.JobPosting) models.JobPosting {
	posting.Status = models.StatusPending
	if posting.CreatedAt.IsZero() {
		posting.CreatedAt = time.Now()
	}
	posting.CreatedAt = posting.CreatedAt.UTC()
	return posting
}

func checkStatus(status models.Status) error {
	if !status.Valid() {
		return apperrors.InvalidTransitionf("unrecognised status %q", status)
	}
	return nil
}

// applyOrdering sorts and bounds postings that are already in insertion order.
func applyOrdering(postings []models.JobPosting, filter models.Filter) []models.JobPosting {
	if filter.Newest {
		sort.SliceStable(postings, func(i, j int) bool {
			return postings[i].CreatedAt.After(postings[j].CreatedAt)
		})
	}
	if filter.Limit > 0 && len(postings) > filter.Limit {
		postings = postings[:filter.Limit]
	}
	return postings
}

// transitionMismatch builds the error returned when a compare-and-set finds another status.
func transitionMismatch(id string, from, current models.Status) error {
	return apperrors.InvalidTransitionf("posting %s is %s, not %s", id, current, from)
}

func notFound(id string) error {
	return apperrors.NotFoundf("posting %s not found", id)
}
