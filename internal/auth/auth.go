package auth

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/startupjobs/jobboard-service/internal/config"
	apperrors "github.com/startupjobs/jobboard-service/internal/errors"
)

var (
	errSessionNotFound    = apperrors.Unauthorized("session not found or expired")
	errInvalidCredentials = apperrors.Unauthorized("invalid email or password")
)

// Authorizer decides whether the caller carried by ctx is an administrator
type Authorizer interface {
	IsAuthenticated(ctx context.Context) bool
}

// Service checks administrator credentials and manages their sessions
type Service struct {
	email        string
	passwordHash []byte
	ttl          time.Duration
	sessions     SessionStore
	now          func() time.Time
}

// NewService creates an auth service for the single configured administrator
func NewService(cfg config.AuthConfig, sessions SessionStore) *Service {
	return &Service{
		email:        strings.ToLower(strings.TrimSpace(cfg.AdminEmail)),
		passwordHash: []byte(cfg.AdminPasswordHash),
		ttl:          cfg.SessionTTL,
		sessions:     sessions,
		now:          time.Now,
	}
}

// Login verifies the credentials and opens a new session
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	if s.email == "" || len(s.passwordHash) == 0 {
		return Session{}, apperrors.Unauthorized("administrator login is disabled")
	}

	email = strings.ToLower(strings.TrimSpace(email))
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(s.email)) == 1
	passwordErr := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password))
	if !emailOK || passwordErr != nil {
		return Session{}, errInvalidCredentials
	}

	sess := Session{
		ID:        uuid.NewString(),
		Email:     s.email,
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return Session{}, apperrors.Internal("failed to create session", err)
	}
	return sess, nil
}

// Logout ends the session with the given id
func (s *Service) Logout(ctx context.Context, id string) error {
	return s.sessions.Delete(ctx, id)
}

// Resolve returns the live session for id
func (s *Service) Resolve(ctx context.Context, id string) (Session, error) {
	return s.sessions.Get(ctx, id)
}

// HashPassword returns the bcrypt hash to put in ADMIN_PASSWORD_HASH
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

type sessionKey struct{}

// WithSession returns a copy of ctx carrying sess
func WithSession(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

// SessionFromContext returns the session stored by WithSession
func SessionFromContext(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(Session)
	return sess, ok
}

// ContextAuthorizer authorizes callers whose context carries a session
type ContextAuthorizer struct{}

// IsAuthenticated reports whether ctx carries a session
func (ContextAuthorizer) IsAuthenticated(ctx context.Context) bool {
	_, ok := SessionFromContext(ctx)
	return ok
}
