package auth

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/startupjobs/jobboard-service/internal/errors"
)

// setupTestRedis connects to REDIS_TEST_ADDR. Tests are skipped when it is unset or unreachable.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis not available: %v", err)
	}
	return client
}

func TestRedisSessionStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	client := setupTestRedis(t)
	defer client.Close()

	store := NewRedisSessionStore(client)
	ctx := context.Background()

	t.Run("save get delete", func(t *testing.T) {
		sess := Session{ID: "redis-s1", Email: adminEmail, ExpiresAt: time.Now().Add(time.Minute)}
		require.NoError(t, store.Save(ctx, sess))

		got, err := store.Get(ctx, sess.ID)
		require.NoError(t, err)
		assert.Equal(t, sess.Email, got.Email)

		ttl := client.TTL(ctx, sessionKeyPrefix+sess.ID).Val()
		assert.True(t, ttl > 0 && ttl <= time.Minute)

		require.NoError(t, store.Delete(ctx, sess.ID))
		_, err = store.Get(ctx, sess.ID)
		assert.True(t, apperrors.IsUnauthorized(err))
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := store.Get(ctx, "missing")
		assert.True(t, apperrors.IsUnauthorized(err))
	})

	t.Run("expired session rejected", func(t *testing.T) {
		err := store.Save(ctx, Session{ID: "redis-s2", ExpiresAt: time.Now().Add(-time.Second)})
		assert.Error(t, err)
	})
}
