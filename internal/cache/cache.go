package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"

	"github.com/beacon-gw/beacon/pkg/api"
)

// Entry is one cached response.
type Entry struct {
	Text string `json:"text"`
	// Provider is the key that served the response; empty when the answer
	// came from the offline responder.
	Provider  string    `json:"provider,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	HitCount  int64     `json:"hit_count"`
}

// Store is the response cache boundary. Implementations must be safe for
// concurrent use.
type Store interface {
	// Get returns the entry for key, bumping its hit count. Expired entries
	// read as absent.
	Get(ctx context.Context, key string) (Entry, bool)

	// Put stores a response. Implementations may evict on capacity pressure.
	Put(ctx context.Context, key, text, provider string)
}

// Fingerprint derives the deterministic cache key for a request. Sampling
// parameters are intentionally left out of the key; two requests differing
// only in max_tokens or temperature collide.
func Fingerprint(task api.TaskType, text, preferred string) string {
	h := sha256.New()
	h.Write([]byte(task))
	h.Write([]byte{0})
	h.Write([]byte(Normalize(text)))
	h.Write([]byte{0})
	h.Write([]byte(preferred))
	return hex.EncodeToString(h.Sum(nil))
}

// Normalize collapses whitespace and lowercases the input so that trivially
// different spellings of the same request share a fingerprint.
func Normalize(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}
