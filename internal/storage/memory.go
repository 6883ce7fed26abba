package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"

	apperrors "github.com/startupjobs/jobboard-service/internal/errors"
	"github.com/startupjobs/jobboard-service/internal/models"
)

// MemoryStorage implements Storage in process memory. Used for tests and local development.
type MemoryStorage struct {
	mu       sync.RWMutex
	order    []string
	postings map[string]models.JobPosting
	// failWith, when set, is returned by every operation to simulate an unavailable store
	failWith error
}

// NewMemoryStorage creates an empty in-memory store
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{postings: make(map[string]models.JobPosting)}
}

// SetUnavailable makes every subsequent call fail with a storage error wrapping cause.
// Passing nil restores normal operation.
func (m *MemoryStorage) SetUnavailable(cause error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = cause
}

func (m *MemoryStorage) unavailable() error {
	if m.failWith != nil {
		return apperrors.Storage("memory store unavailable", m.failWith)
	}
	return nil
}

// Insert stores a new pending posting
func (m *MemoryStorage) Insert(ctx context.Context, posting models.JobPosting) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.unavailable(); err != nil {
		return "", err
	}

	posting = prepareInsert(posting)
	posting.ID = uuid.NewString()
	m.postings[posting.ID] = posting
	m.order = append(m.order, posting.ID)
	return posting.ID, nil
}

// Get retrieves a posting by id
func (m *MemoryStorage) Get(ctx context.Context, id string) (*models.JobPosting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.unavailable(); err != nil {
		return nil, err
	}

	posting, ok := m.postings[id]
	if !ok {
		return nil, notFound(id)
	}
	return &posting, nil
}

// GetByStatus retrieves postings with the given status in insertion order
func (m *MemoryStorage) GetByStatus(ctx context.Context, status models.Status) ([]models.JobPosting, error) {
	return m.Find(ctx, models.Filter{Status: status})
}

// GetAll retrieves every posting in insertion order
func (m *MemoryStorage) GetAll(ctx context.Context) ([]models.JobPosting, error) {
	return m.Find(ctx, models.Filter{})
}

// Find retrieves postings matching filter
func (m *MemoryStorage) Find(ctx context.Context, filter models.Filter) ([]models.JobPosting, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.unavailable(); err != nil {
		return nil, err
	}

	postings := make([]models.JobPosting, 0, len(m.order))
	for _, id := range m.order {
		if p := m.postings[id]; filter.Matches(p) {
			postings = append(postings, p)
		}
	}
	return applyOrdering(postings, filter), nil
}

// UpdateStatus sets the status unconditionally
func (m *MemoryStorage) UpdateStatus(ctx context.Context, id string, status models.Status) error {
	if err := checkStatus(status); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.unavailable(); err != nil {
		return err
	}

	posting, ok := m.postings[id]
	if !ok {
		return notFound(id)
	}
	posting.Status = status
	m.postings[id] = posting
	return nil
}

// TransitionStatus sets the status only if it is currently from
func (m *MemoryStorage) TransitionStatus(ctx context.Context, id string, from, to models.Status) error {
	if err := checkStatus(to); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.unavailable(); err != nil {
		return err
	}

	posting, ok := m.postings[id]
	if !ok {
		return notFound(id)
	}
	if posting.Status != from {
		return transitionMismatch(id, from, posting.Status)
	}
	posting.Status = to
	m.postings[id] = posting
	return nil
}

// Ping reports whether the store is available
func (m *MemoryStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.unavailable()
}

// Close is a no-op for the in-memory store
func (m *MemoryStorage) Close() error {
	return nil
}
