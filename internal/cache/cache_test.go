package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/beacon-gw/beacon/pkg/api"
)

func TestFingerprint_NormalizesText(t *testing.T) {
	a := Fingerprint(api.TaskChat, "What is   the Capital of France?", "")
	b := Fingerprint(api.TaskChat, "what is the capital of france?", "")
	assert.Equal(t, a, b)
}

func TestFingerprint_DistinguishesTaskAndPreference(t *testing.T) {
	base := Fingerprint(api.TaskChat, "hello", "")
	assert.NotEqual(t, base, Fingerprint(api.TaskSummarize, "hello", ""))
	assert.NotEqual(t, base, Fingerprint(api.TaskChat, "hello", "fast-chat"))
	assert.NotEqual(t, base, Fingerprint(api.TaskChat, "goodbye", ""))
}

func TestMemory_PutGet(t *testing.T) {
	m := NewMemory(time.Hour, 10)
	ctx := context.Background()

	m.Put(ctx, "k", "cached answer", "fast-chat")

	entry, ok := m.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, "cached answer", entry.Text)
	assert.Equal(t, "fast-chat", entry.Provider)

	_, ok = m.Get(ctx, "missing")
	assert.False(t, ok)
}

func TestMemory_GetBumpsHitCount(t *testing.T) {
	m := NewMemory(time.Hour, 10)
	ctx := context.Background()

	m.Put(ctx, "k", "v", "p")

	for i := 0; i < 3; i++ {
		m.Get(ctx, "k")
	}
	entry, ok := m.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, int64(4), entry.HitCount)
}

func TestMemory_TTLExpiry(t *testing.T) {
	now := time.Now()
	m := NewMemoryWithClock(time.Hour, 10, func() time.Time { return now })
	ctx := context.Background()

	m.Put(ctx, "k", "v", "p")

	now = now.Add(59 * time.Minute)
	_, ok := m.Get(ctx, "k")
	assert.True(t, ok)

	now = now.Add(time.Minute)
	_, ok = m.Get(ctx, "k")
	assert.False(t, ok)
	assert.Equal(t, 0, m.Len())
}

func TestMemory_EvictsColdestFirst(t *testing.T) {
	now := time.Now()
	m := NewMemoryWithClock(time.Hour, 5, func() time.Time { return now })
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		m.Put(ctx, fmt.Sprintf("k%d", i), "v", "p")
		now = now.Add(time.Second)
	}

	// warm every entry except k1
	for _, key := range []string{"k0", "k2", "k3", "k4"} {
		m.Get(ctx, key)
	}

	// capacity reached: the sweep drops capacity/5 = 1 entry, the cold one
	m.Put(ctx, "k5", "v", "p")

	_, ok := m.Get(ctx, "k1")
	assert.False(t, ok)
	for _, key := range []string{"k0", "k2", "k3", "k4", "k5"} {
		_, ok := m.Get(ctx, key)
		assert.True(t, ok, key)
	}
}

func TestMemory_HotEntrySurvivesEviction(t *testing.T) {
	now := time.Now()
	m := NewMemoryWithClock(time.Hour, 2, func() time.Time { return now })
	ctx := context.Background()

	m.Put(ctx, "k1", "v1", "p")
	now = now.Add(time.Second)
	m.Put(ctx, "k2", "v2", "p")
	now = now.Add(time.Second)

	for i := 0; i < 5; i++ {
		m.Get(ctx, "k1")
	}

	m.Put(ctx, "k3", "v3", "p")

	_, ok := m.Get(ctx, "k2")
	assert.False(t, ok)
	_, ok = m.Get(ctx, "k1")
	assert.True(t, ok)
}

func TestMemory_EvictsOldestOnHitTie(t *testing.T) {
	now := time.Now()
	m := NewMemoryWithClock(time.Hour, 3, func() time.Time { return now })
	ctx := context.Background()

	m.Put(ctx, "old", "v", "p")
	now = now.Add(time.Minute)
	m.Put(ctx, "mid", "v", "p")
	now = now.Add(time.Minute)
	m.Put(ctx, "new", "v", "p")
	now = now.Add(time.Minute)

	m.Put(ctx, "extra", "v", "p")

	_, ok := m.Get(ctx, "old")
	assert.False(t, ok)
	_, ok = m.Get(ctx, "mid")
	assert.True(t, ok)
}
