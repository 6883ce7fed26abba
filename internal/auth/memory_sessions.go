package auth

import (
	"context"
	"errors"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemorySessionStore keeps sessions in process memory. Sessions are lost on restart.
type MemorySessionStore struct {
	cache *cache.Cache
	now   func() time.Time
}

// NewMemorySessionStore creates an in-memory session store that purges expired sessions
// every ttl.
func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &MemorySessionStore{
		cache: cache.New(ttl, ttl),
		now:   time.Now,
	}
}

func (m *MemorySessionStore) Save(ctx context.Context, sess Session) error {
	if sess.ID == "" {
		return errors.New("session ID cannot be empty")
	}
	ttl := sess.ExpiresAt.Sub(m.now())
	if ttl <= 0 {
		return errors.New("session is expired")
	}
	m.cache.Set(sess.ID, sess, ttl)
	return nil
}

func (m *MemorySessionStore) Get(ctx context.Context, id string) (Session, error) {
	v, ok := m.cache.Get(id)
	if !ok {
		return Session{}, errSessionNotFound
	}
	sess := v.(Session)
	if sess.Expired(m.now()) {
		m.cache.Delete(id)
		return Session{}, errSessionNotFound
	}
	return sess, nil
}

func (m *MemorySessionStore) Delete(ctx context.Context, id string) error {
	m.cache.Delete(id)
	return nil
}
