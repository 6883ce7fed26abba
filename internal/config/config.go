package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Storage   StorageConfig
	Server    ServerConfig
	Lifecycle LifecycleConfig
	Mail      MailConfig
	Auth      AuthConfig
	Log       LogConfig
}

// StorageConfig holds storage-related configuration
type StorageConfig struct {
	Type        string        `env:"STORAGE_TYPE" envDefault:"mongodb"` // "memory", "mongodb", "dynamodb", "postgresql"
	Region      string        `env:"AWS_REGION" envDefault:"us-west-2"`
	TableName   string        `env:"TABLE_NAME" envDefault:"jobs"`
	Endpoint    string        `env:"DYNAMODB_ENDPOINT"` // Custom endpoint for local testing
	MongoDBURI  string        `env:"MONGODB_URI" envDefault:"mongodb://localhost:27017"`
	Database    string        `env:"MONGODB_DATABASE" envDefault:"startupjobs"`
	PostgresURI string        `env:"POSTGRES_URI"`
	Timeout     time.Duration `env:"STORAGE_TIMEOUT" envDefault:"10s"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port     int    `env:"SERVER_PORT" envDefault:"8080"`
	SiteName string `env:"SITE_NAME" envDefault:"Startup Jobs Portugal"`
	SiteURL  string `env:"SITE_URL" envDefault:"https://startup-jobs.herokuapp.com/"`
	// RecentLimit is the default size of the recent-jobs view
	RecentLimit int `env:"RECENT_LIMIT" envDefault:"10"`
}

// LifecycleConfig holds expiration sweep configuration
type LifecycleConfig struct {
	ExpirationThreshold time.Duration `env:"EXPIRATION_THRESHOLD" envDefault:"720h"`
	// SweepInterval enables a periodic sweep when > 0. Zero keeps sweeps on demand only.
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"0s"`
}

// MailConfig holds notification configuration
type MailConfig struct {
	Transport     string        `env:"MAIL_TRANSPORT" envDefault:"log"` // "log", "smtp"
	SMTPHost      string        `env:"SMTP_HOST" envDefault:"localhost"`
	SMTPPort      int           `env:"SMTP_PORT" envDefault:"587"`
	SMTPUsername  string        `env:"SMTP_USERNAME"`
	SMTPPassword  string        `env:"SMTP_PASSWORD"`
	SMTPTimeout   time.Duration `env:"SMTP_TIMEOUT" envDefault:"10s"`
	Sender        string        `env:"MAIL_SENDER" envDefault:"Startup Jobs <noreply@startupjobs.example>"`
	OperatorEmail string        `env:"OPERATOR_EMAIL" envDefault:"operator@startupjobs.example"`
	// TemplatesPath overrides the embedded message templates when set
	TemplatesPath string `env:"MAIL_TEMPLATES_PATH"`
}

// AuthConfig holds administrator login configuration
type AuthConfig struct {
	AdminEmail        string        `env:"ADMIN_EMAIL"`
	AdminPasswordHash string        `env:"ADMIN_PASSWORD_HASH"`              // bcrypt
	SessionStore      string        `env:"SESSION_STORE" envDefault:"memory"` // "memory", "redis"
	SessionTTL        time.Duration `env:"SESSION_TTL" envDefault:"12h"`
	CookieName        string        `env:"SESSION_COOKIE" envDefault:"jobboard_session"`
	CookieSecure      bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`
	RedisAddr         string        `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword     string        `env:"REDIS_PASSWORD"`
	RedisDB           int           `env:"REDIS_DB" envDefault:"0"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"` // "text", "json"
}

// Load loads configuration from environment variables with defaults.
// A .env file in the working directory is applied first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	cfg.Sanitize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Sanitize applies guardrails to values loaded from the environment.
func (c *Config) Sanitize() {
	c.Storage.Type = strings.ToLower(strings.TrimSpace(c.Storage.Type))
	c.Mail.Transport = strings.ToLower(strings.TrimSpace(c.Mail.Transport))
	c.Auth.SessionStore = strings.ToLower(strings.TrimSpace(c.Auth.SessionStore))
	if c.Storage.Timeout <= 0 {
		c.Storage.Timeout = 10 * time.Second
	}
	if c.Mail.SMTPTimeout <= 0 {
		c.Mail.SMTPTimeout = 10 * time.Second
	}
	if c.Auth.SessionTTL <= 0 {
		c.Auth.SessionTTL = 12 * time.Hour
	}
	if c.Server.RecentLimit <= 0 {
		c.Server.RecentLimit = 10
	}
	if c.Lifecycle.SweepInterval < 0 {
		c.Lifecycle.SweepInterval = 0
	}
}

// Validate reports configuration combinations the service cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case "memory", "mongodb", "dynamodb":
	case "postgresql":
		if c.Storage.PostgresURI == "" {
			return errors.New("POSTGRES_URI is required for postgresql storage")
		}
	default:
		return fmt.Errorf("unsupported storage type: %s", c.Storage.Type)
	}
	if c.Lifecycle.ExpirationThreshold <= 0 {
		return errors.New("EXPIRATION_THRESHOLD must be > 0")
	}
	switch c.Mail.Transport {
	case "log", "smtp":
	default:
		return fmt.Errorf("unsupported mail transport: %s", c.Mail.Transport)
	}
	switch c.Auth.SessionStore {
	case "memory", "redis":
	default:
		return fmt.Errorf("unsupported session store: %s", c.Auth.SessionStore)
	}
	return nil
}
