package model

import (
	"database/sql"
	"time"
)

// APIKey is the credential used by clients of the gateway.
type APIKey struct {
	ID         string       `db:"id" json:"id"`
	Name       string       `db:"name" json:"name"`
	KeyHash    string       `db:"key_hash" json:"-"` // never returned
	KeyPrefix  string       `db:"key_prefix" json:"key_prefix"`
	LastUsedAt sql.NullTime `db:"last_used_at" json:"last_used_at,omitempty"`
	IsActive   bool         `db:"is_active" json:"is_active"`
	CreatedAt  time.Time    `db:"created_at" json:"created_at"`
}

// Attempt is one provider attempt, successful or not. Every try the
// orchestrator makes produces one record.
type Attempt struct {
	ID        string    `db:"id" json:"id"`
	RequestID string    `db:"request_id" json:"request_id"`
	TaskType  string    `db:"task_type" json:"task_type"`
	Provider  string    `db:"provider" json:"provider"`
	// Outcome is "success" or a failure kind.
	Outcome   string    `db:"outcome" json:"outcome"`
	Fallback  bool      `db:"fallback" json:"fallback"`
	LatencyMS int64     `db:"latency_ms" json:"latency_ms"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// AttemptTally is one row of the per-provider outcome aggregation.
type AttemptTally struct {
	Provider string `db:"provider" json:"provider"`
	Outcome  string `db:"outcome" json:"outcome"`
	Count    int64  `db:"count" json:"count"`
}
