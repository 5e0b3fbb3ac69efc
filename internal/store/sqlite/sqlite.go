package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/beacon-gw/beacon/internal/store"
	"github.com/beacon-gw/beacon/internal/store/model"
)

// DB defines the interface for database operations (satisfied by *sqlx.DB and *sqlx.Tx)
type DB interface {
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	NamedExecContext(ctx context.Context, query string, arg interface{}) (sql.Result, error)
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// SqliteRepository implements store.Repository
type SqliteRepository struct {
	db *sqlx.DB
}

func NewSqliteRepository(db *sqlx.DB) *SqliteRepository {
	return &SqliteRepository{db: db}
}

func (r *SqliteRepository) Close() error {
	return r.db.Close()
}

func (r *SqliteRepository) APIKeys() store.APIKeyRepository {
	return &apiKeyRepo{db: r.db}
}

func (r *SqliteRepository) Attempts() store.AttemptRepository {
	return &attemptRepo{db: r.db}
}

type apiKeyRepo struct {
	db DB
}

func (r *apiKeyRepo) GetByHash(ctx context.Context, hash string) (*model.APIKey, error) {
	var key model.APIKey
	// active check is part of the query for speed
	query := `SELECT * FROM api_keys WHERE key_hash = ? AND is_active = 1`
	if err := r.db.GetContext(ctx, &key, query, hash); err != nil {
		return nil, err
	}
	return &key, nil
}

func (r *apiKeyRepo) Create(ctx context.Context, key *model.APIKey) error {
	query := `
	INSERT INTO api_keys (id, name, key_hash, key_prefix, is_active, created_at)
	VALUES (:id, :name, :key_hash, :key_prefix, :is_active, :created_at)`
	_, err := r.db.NamedExecContext(ctx, query, key)
	return err
}

func (r *apiKeyRepo) UpdateUsage(ctx context.Context, id string) error {
	query := `UPDATE api_keys SET last_used_at = ? WHERE id = ?`
	_, err := r.db.ExecContext(ctx, query, time.Now(), id)
	return err
}

type attemptRepo struct {
	db DB
}

func (r *attemptRepo) Log(ctx context.Context, a *model.Attempt) error {
	query := `
	INSERT INTO attempts (id, request_id, task_type, provider, outcome, fallback, latency_ms, created_at)
	VALUES (:id, :request_id, :task_type, :provider, :outcome, :fallback, :latency_ms, :created_at)`
	_, err := r.db.NamedExecContext(ctx, query, a)
	return err
}

func (r *attemptRepo) GetRecent(ctx context.Context, limit int) ([]model.Attempt, error) {
	var out []model.Attempt
	query := `SELECT * FROM attempts ORDER BY created_at DESC LIMIT ?`
	err := r.db.SelectContext(ctx, &out, query, limit)
	return out, err
}

func (r *attemptRepo) CountByOutcome(ctx context.Context, days int) ([]model.AttemptTally, error) {
	var out []model.AttemptTally
	query := fmt.Sprintf(`
	SELECT provider, outcome, COUNT(*) AS count
	FROM attempts
	WHERE created_at >= datetime('now', '-%d days')
	GROUP BY provider, outcome
	ORDER BY provider, outcome`, days)
	err := r.db.SelectContext(ctx, &out, query)
	return out, err
}
