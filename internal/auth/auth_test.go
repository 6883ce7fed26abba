package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/startupjobs/jobboard-service/internal/config"
	apperrors "github.com/startupjobs/jobboard-service/internal/errors"
)

const adminEmail = "admin@startupjobs.example"

func newTestService(t *testing.T) (*Service, *MemorySessionStore) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	sessions := NewMemorySessionStore(time.Hour)
	svc := NewService(config.AuthConfig{
		AdminEmail:        adminEmail,
		AdminPasswordHash: string(hash),
		SessionTTL:        time.Hour,
	}, sessions)
	return svc, sessions
}

func TestService_LoginAndResolve(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	sess, err := svc.Login(ctx, " Admin@StartupJobs.example ", "s3cret")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, adminEmail, sess.Email)
	assert.WithinDuration(t, time.Now().Add(time.Hour), sess.ExpiresAt, time.Minute)

	resolved, err := svc.Resolve(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, resolved.ID)

	require.NoError(t, svc.Logout(ctx, sess.ID))
	_, err = svc.Resolve(ctx, sess.ID)
	assert.True(t, apperrors.IsUnauthorized(err))
}

func TestService_LoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", adminEmail, "guess"},
		{"wrong email", "someone@startupjobs.example", "s3cret"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), tt.email, tt.password)
			assert.True(t, apperrors.IsUnauthorized(err))
		})
	}
}

func TestService_LoginDisabledWithoutCredentials(t *testing.T) {
	svc := NewService(config.AuthConfig{SessionTTL: time.Hour}, NewMemorySessionStore(time.Hour))

	_, err := svc.Login(context.Background(), "", "")

	require.True(t, apperrors.IsUnauthorized(err))
	assert.Contains(t, err.Error(), "disabled")
}

func TestMemorySessionStore_Expiry(t *testing.T) {
	store := NewMemorySessionStore(time.Hour)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, Session{ID: "s1", Email: adminEmail, ExpiresAt: now.Add(time.Minute)}))
	_, err := store.Get(ctx, "s1")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = store.Get(ctx, "s1")
	assert.True(t, apperrors.IsUnauthorized(err))

	assert.Error(t, store.Save(ctx, Session{ID: "s2", ExpiresAt: now.Add(-time.Second)}))
	assert.Error(t, store.Save(ctx, Session{ExpiresAt: now.Add(time.Hour)}))
}

func TestContextAuthorizer(t *testing.T) {
	var authz Authorizer = ContextAuthorizer{}

	assert.False(t, authz.IsAuthenticated(context.Background()))

	ctx := WithSession(context.Background(), Session{ID: "s1", Email: adminEmail})
	assert.True(t, authz.IsAuthenticated(ctx))
	sess, ok := SessionFromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, "s1", sess.ID)
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))
}

func TestNewSessionStore_Unsupported(t *testing.T) {
	_, err := NewSessionStore(context.Background(), config.AuthConfig{SessionStore: "cookie"})
	assert.ErrorContains(t, err, "unsupported session store")
}
