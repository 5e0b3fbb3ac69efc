package health

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsAvailable_DefaultTrue(t *testing.T) {
	tracker := NewTracker()
	assert.True(t, tracker.IsAvailable("anything"))
}

func TestDisable_CooldownExpires(t *testing.T) {
	now := time.Now()
	tracker := NewTrackerWithClock(func() time.Time { return now })

	tracker.Disable("slow", 2*time.Minute)
	assert.False(t, tracker.IsAvailable("slow"))

	// one second before expiry
	now = now.Add(2*time.Minute - time.Second)
	assert.False(t, tracker.IsAvailable("slow"))

	now = now.Add(time.Second)
	assert.True(t, tracker.IsAvailable("slow"))
}

func TestDisableIndefinitely_NeverExpires(t *testing.T) {
	now := time.Now()
	tracker := NewTrackerWithClock(func() time.Time { return now })

	tracker.DisableIndefinitely("broke")

	now = now.Add(24 * 365 * time.Hour)
	assert.False(t, tracker.IsAvailable("broke"))
}

func TestClearExpired(t *testing.T) {
	now := time.Now()
	tracker := NewTrackerWithClock(func() time.Time { return now })

	tracker.Disable("a", time.Minute)
	tracker.Disable("b", time.Hour)
	tracker.DisableIndefinitely("c")
	assert.Equal(t, 3, tracker.DisabledCount())

	now = now.Add(30 * time.Minute)
	tracker.ClearExpired()

	assert.True(t, tracker.IsAvailable("a"))
	assert.False(t, tracker.IsAvailable("b"))
	assert.False(t, tracker.IsAvailable("c"))
	assert.Equal(t, 2, tracker.DisabledCount())
}
