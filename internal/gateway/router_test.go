package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beacon-gw/beacon/internal/catalog"
	"github.com/beacon-gw/beacon/pkg/api"
)

func testCatalog() *catalog.Catalog {
	return catalog.New([]catalog.Descriptor{
		{Key: "a", Priority: 1, SupportsChat: true, Active: true},
		{Key: "b", Priority: 2, SupportsChat: true, SupportsVision: true, Active: true},
		{Key: "c", Priority: 3, SupportsChat: true, Active: true},
	})
}

func TestRoute_HistoryDisablesCaching(t *testing.T) {
	r := NewRouter(testCatalog(), nil)

	route := r.Route(api.TaskRequest{Type: api.TaskChat, Text: "hi"})
	assert.True(t, route.CacheEligible)
	assert.NotEmpty(t, route.CacheKey)

	route = r.Route(api.TaskRequest{
		Type:    api.TaskChat,
		Text:    "hi",
		History: []api.Turn{{Role: "user", Text: "earlier"}},
	})
	assert.False(t, route.CacheEligible)
	assert.Empty(t, route.CacheKey)
}

func TestRoute_BinaryPayloadChangesKey(t *testing.T) {
	r := NewRouter(testCatalog(), nil)

	plain := r.Route(api.TaskRequest{Type: api.TaskVision, Text: "what is this?"})
	withImage := r.Route(api.TaskRequest{
		Type:   api.TaskVision,
		Text:   "what is this?",
		Binary: []byte{0x01, 0x02},
	})
	otherImage := r.Route(api.TaskRequest{
		Type:   api.TaskVision,
		Text:   "what is this?",
		Binary: []byte{0x03, 0x04},
	})

	assert.NotEqual(t, plain.CacheKey, withImage.CacheKey)
	assert.NotEqual(t, withImage.CacheKey, otherImage.CacheKey)
}

func TestRoute_PreferenceOverlay(t *testing.T) {
	r := NewRouter(testCatalog(), map[string][]string{
		"chat": {"c", "a"},
	})

	route := r.Route(api.TaskRequest{Type: api.TaskChat, Text: "hi"})
	require.Len(t, route.Candidates, 3)
	assert.Equal(t, "c", route.Candidates[0].Key)
	assert.Equal(t, "a", route.Candidates[1].Key)
	assert.Equal(t, "b", route.Candidates[2].Key)
}

func TestRoute_PreferenceIgnoresUnknownKeys(t *testing.T) {
	r := NewRouter(testCatalog(), map[string][]string{
		"chat": {"ghost", "b"},
	})

	route := r.Route(api.TaskRequest{Type: api.TaskChat, Text: "hi"})
	require.Len(t, route.Candidates, 3)
	assert.Equal(t, "b", route.Candidates[0].Key)
	assert.Equal(t, "a", route.Candidates[1].Key)
	assert.Equal(t, "c", route.Candidates[2].Key)
}
