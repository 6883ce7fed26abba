package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/startupjobs/jobboard-service/internal/config"
	apperrors "github.com/startupjobs/jobboard-service/internal/errors"
	"github.com/startupjobs/jobboard-service/internal/models"
)

const postgresColumns = "id, title, company, category, location, url, email, status, created_at"

// PostgreSQLStorage implements Storage interface using PostgreSQL
type PostgreSQLStorage struct {
	db    *sql.DB
	table string // quoted identifier
}

// NewPostgreSQLStorage creates a new PostgreSQL storage instance and applies the schema
func NewPostgreSQLStorage(cfg config.StorageConfig) (*PostgreSQLStorage, error) {
	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	storage := newPostgreSQLStorageWithDB(db, cfg.TableName)
	if err := storage.migrate(ctx, cfg.TableName); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return storage, nil
}

func newPostgreSQLStorageWithDB(db *sql.DB, table string) *PostgreSQLStorage {
	return &PostgreSQLStorage{db: db, table: pq.QuoteIdentifier(table)}
}

// migrate creates the jobs table and its lookup indexes if they do not exist
func (p *PostgreSQLStorage) migrate(ctx context.Context, table string) error {
	statements := []string{
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
  seq BIGSERIAL PRIMARY KEY,
  id TEXT NOT NULL UNIQUE,
  title TEXT NOT NULL,
  company TEXT NOT NULL,
  category TEXT NOT NULL DEFAULT '',
  location TEXT NOT NULL DEFAULT '',
  url TEXT NOT NULL,
  email TEXT NOT NULL,
  status TEXT NOT NULL CHECK (status IN ('pending', 'active', 'rejected', 'expired')),
  created_at TIMESTAMPTZ NOT NULL
);`, p.table),
	}
	for _, col := range []string{"status", "category", "company", "location", "created_at"} {
		statements = append(statements, fmt.Sprintf(
			`CREATE INDEX IF NOT EXISTS %s ON %s (%s);`,
			pq.QuoteIdentifier(table+"_"+col+"_idx"), p.table, col,
		))
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Insert stores a new pending posting
func (p *PostgreSQLStorage) Insert(ctx context.Context, posting models.JobPosting) (string, error) {
	posting = prepareInsert(posting)
	id := uuid.NewString()

	_, err := p.db.ExecContext(ctx, fmt.Sprintf(`
INSERT INTO %s (%s)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);`, p.table, postgresColumns),
		id, posting.Title, posting.Company, posting.Category, posting.Location,
		posting.Link, posting.ContactEmail, string(posting.Status), posting.CreatedAt,
	)
	if err != nil {
		return "", apperrors.Storage("failed to insert posting", err)
	}
	return id, nil
}

// Get retrieves a posting by id
func (p *PostgreSQLStorage) Get(ctx context.Context, id string) (*models.JobPosting, error) {
	row := p.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT %s FROM %s WHERE id = $1;`, postgresColumns, p.table), id)

	posting, err := scanPosting(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, apperrors.Storage(fmt.Sprintf("failed to get posting %s", id), err)
	}
	return &posting, nil
}

// GetByStatus retrieves postings with the given status in insertion order
func (p *PostgreSQLStorage) GetByStatus(ctx context.Context, status models.Status) ([]models.JobPosting, error) {
	return p.Find(ctx, models.Filter{Status: status})
}

// GetAll retrieves every posting in insertion order
func (p *PostgreSQLStorage) GetAll(ctx context.Context) ([]models.JobPosting, error) {
	return p.Find(ctx, models.Filter{})
}

// Find retrieves postings matching filter
func (p *PostgreSQLStorage) Find(ctx context.Context, filter models.Filter) ([]models.JobPosting, error) {
	var (
		where []string
		args  []any
	)
	add := func(col, value string) {
		if value == "" {
			return
		}
		args = append(args, value)
		where = append(where, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	add("status", string(filter.Status))
	add("category", filter.Category)
	add("company", filter.Company)
	add("location", filter.Location)

	query := fmt.Sprintf("SELECT %s FROM %s", postgresColumns, p.table)
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if filter.Newest {
		query += " ORDER BY created_at DESC, seq DESC"
	} else {
		query += " ORDER BY seq ASC"
	}
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := p.db.QueryContext(ctx, query+";", args...)
	if err != nil {
		return nil, apperrors.Storage("failed to query postings", err)
	}
	defer rows.Close()

	postings := []models.JobPosting{}
	for rows.Next() {
		posting, err := scanPosting(rows)
		if err != nil {
			return nil, apperrors.Storage("failed to scan posting", err)
		}
		postings = append(postings, posting)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage("failed to iterate postings", err)
	}
	return postings, nil
}

// UpdateStatus sets the status unconditionally
func (p *PostgreSQLStorage) UpdateStatus(ctx context.Context, id string, status models.Status) error {
	if err := checkStatus(status); err != nil {
		return err
	}

	res, err := p.db.ExecContext(ctx, fmt.Sprintf(
		`UPDATE %s SET status = $1 WHERE id = $2;`, p.table), string(status), id)
	if err != nil {
		return apperrors.Storage(fmt.Sprintf("failed to update posting %s", id), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.Storage("failed to read affected rows", err)
	}
	if n == 0 {
		return notFound(id)
	}
	return nil
}

// TransitionStatus sets the status only if it is currently from
func (p *PostgreSQLStorage) TransitionStatus(ctx context.Context, id string, from, to models.Status) error {
	if err := checkStatus(to); err != nil {
		return err
	}

	res, err := p.db.ExecContext(ctx, fmt.Sprintf(
		`UPDATE %s SET status = $1 WHERE id = $2 AND status = $3;`, p.table),
		string(to), id, string(from))
	if err != nil {
		return apperrors.Storage(fmt.Sprintf("failed to transition posting %s", id), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperrors.Storage("failed to read affected rows", err)
	}
	if n > 0 {
		return nil
	}

	current, err := p.Get(ctx, id)
	if err != nil {
		return err
	}
	return transitionMismatch(id, from, current.Status)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPosting(row rowScanner) (models.JobPosting, error) {
	var (
		posting models.JobPosting
		status  string
	)
	err := row.Scan(
		&posting.ID,
		&posting.Title,
		&posting.Company,
		&posting.Category,
		&posting.Location,
		&posting.Link,
		&posting.ContactEmail,
		&status,
		&posting.CreatedAt,
	)
	if err != nil {
		return models.JobPosting{}, err
	}
	posting.Status = models.Status(status)
	posting.CreatedAt = posting.CreatedAt.UTC()
	return posting, nil
}

// Ping checks connectivity to PostgreSQL
func (p *PostgreSQLStorage) Ping(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return apperrors.Storage("failed to ping PostgreSQL", err)
	}
	return nil
}

// Close closes the connection pool
func (p *PostgreSQLStorage) Close() error {
	return p.db.Close()
}
