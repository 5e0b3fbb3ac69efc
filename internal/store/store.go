package store

import (
	"context"

	"github.com/beacon-gw/beacon/internal/store/model"
)

type contextKey string

const (
	ContextKeyAPIKey    contextKey = "api_key"
	ContextKeyRequestID contextKey = "request_id"
)

// Repository is the main contract for the data layer.
type Repository interface {
	APIKeys() APIKeyRepository
	Attempts() AttemptRepository

	Close() error
}

type APIKeyRepository interface {
	// GetByHash retrieves a key by its hashed value (for auth).
	GetByHash(ctx context.Context, hash string) (*model.APIKey, error)
	// Create issues a new API key.
	Create(ctx context.Context, key *model.APIKey) error
	// UpdateUsage bumps the last-used timestamp.
	UpdateUsage(ctx context.Context, id string) error
}

type AttemptRepository interface {
	// Log stores one provider attempt record.
	Log(ctx context.Context, a *model.Attempt) error
	// GetRecent returns the last N attempt records.
	GetRecent(ctx context.Context, limit int) ([]model.Attempt, error)
	// CountByOutcome aggregates attempts per provider and outcome over the
	// trailing number of days.
	CountByOutcome(ctx context.Context, days int) ([]model.AttemptTally, error)
}
