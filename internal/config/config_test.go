package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mongodb", cfg.Storage.Type)
	assert.Equal(t, "jobs", cfg.Storage.TableName)
	assert.Equal(t, 10*time.Second, cfg.Storage.Timeout)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "Startup Jobs Portugal", cfg.Server.SiteName)
	assert.Equal(t, 720*time.Hour, cfg.Lifecycle.ExpirationThreshold)
	assert.Zero(t, cfg.Lifecycle.SweepInterval)
	assert.Equal(t, "log", cfg.Mail.Transport)
	assert.Equal(t, 10*time.Second, cfg.Mail.SMTPTimeout)
	assert.Equal(t, "memory", cfg.Auth.SessionStore)
	assert.Equal(t, 12*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("STORAGE_TYPE", " PostgreSQL ")
	t.Setenv("POSTGRES_URI", "postgres://localhost/jobs?sslmode=disable")
	t.Setenv("EXPIRATION_THRESHOLD", "48h")
	t.Setenv("SWEEP_INTERVAL", "1h")
	t.Setenv("MAIL_TRANSPORT", "SMTP")
	t.Setenv("SESSION_STORE", "redis")
	t.Setenv("RECENT_LIMIT", "-3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgresql", cfg.Storage.Type)
	assert.Equal(t, 48*time.Hour, cfg.Lifecycle.ExpirationThreshold)
	assert.Equal(t, time.Hour, cfg.Lifecycle.SweepInterval)
	assert.Equal(t, "smtp", cfg.Mail.Transport)
	assert.Equal(t, "redis", cfg.Auth.SessionStore)
	assert.Equal(t, 10, cfg.Server.RecentLimit)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"unknown storage", map[string]string{"STORAGE_TYPE": "sqlite"}, "unsupported storage type"},
		{"postgres without uri", map[string]string{"STORAGE_TYPE": "postgresql"}, "POSTGRES_URI"},
		{"zero threshold", map[string]string{"EXPIRATION_THRESHOLD": "0s"}, "EXPIRATION_THRESHOLD"},
		{"unknown transport", map[string]string{"MAIL_TRANSPORT": "fax"}, "unsupported mail transport"},
		{"unknown session store", map[string]string{"SESSION_STORE": "cookie"}, "unsupported session store"},
		{"malformed duration", map[string]string{"SESSION_TTL": "soon"}, "failed to parse environment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestSanitize(t *testing.T) {
	cfg := &Config{}
	cfg.Lifecycle.SweepInterval = -time.Minute
	cfg.Auth.SessionTTL = -time.Hour
	cfg.Mail.SMTPTimeout = -time.Second

	cfg.Sanitize()

	assert.Equal(t, 10*time.Second, cfg.Storage.Timeout)
	assert.Equal(t, 10, cfg.Server.RecentLimit)
	assert.Zero(t, cfg.Lifecycle.SweepInterval)
	assert.Equal(t, 12*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 10*time.Second, cfg.Mail.SMTPTimeout)
}

func TestLoad_ZeroSessionTTLFallsBackToDefault(t *testing.T) {
	t.Setenv("SESSION_TTL", "0s")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 12*time.Hour, cfg.Auth.SessionTTL)
}
