package health

import (
	"sync"
	"time"
)

// Tracker keeps per-provider cooldown state. A provider with no entry, or an
// expired one, is available. Entries are written only by the orchestrator on
// failure classification.
type Tracker struct {
	mu       sync.RWMutex
	disabled map[string]time.Time // zero time means disabled indefinitely
	now      func() time.Time
}

func NewTracker() *Tracker {
	return &Tracker{
		disabled: make(map[string]time.Time),
		now:      time.Now,
	}
}

// NewTrackerWithClock injects a clock for tests.
func NewTrackerWithClock(now func() time.Time) *Tracker {
	t := NewTracker()
	t.now = now
	return t
}

// IsAvailable reports whether the provider may be attempted.
func (t *Tracker) IsAvailable(key string) bool {
	t.mu.RLock()
	until, ok := t.disabled[key]
	t.mu.RUnlock()

	if !ok {
		return true
	}
	if until.IsZero() {
		return false
	}
	return !t.now().Before(until)
}

// Disable puts the provider on cooldown for the given duration.
func (t *Tracker) Disable(key string, d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.disabled[key] = t.now().Add(d)
}

// DisableIndefinitely disables the provider until an operator intervenes.
// Used for authentication and billing failures.
func (t *Tracker) DisableIndefinitely(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.disabled[key] = time.Time{}
}

// ClearExpired prunes entries whose cooldown has elapsed. Housekeeping only;
// expired entries already read as available.
func (t *Tracker) ClearExpired() {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	for key, until := range t.disabled {
		if !until.IsZero() && !now.Before(until) {
			delete(t.disabled, key)
		}
	}
}

// DisabledCount returns how many providers are currently on cooldown.
func (t *Tracker) DisabledCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := 0
	now := t.now()
	for _, until := range t.disabled {
		if until.IsZero() || now.Before(until) {
			n++
		}
	}
	return n
}
