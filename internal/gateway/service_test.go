package gateway

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/beacon-gw/beacon/internal/attemptlog"
	"github.com/beacon-gw/beacon/internal/cache"
	"github.com/beacon-gw/beacon/internal/catalog"
	"github.com/beacon-gw/beacon/internal/health"
	"github.com/beacon-gw/beacon/internal/provider"
	"github.com/beacon-gw/beacon/pkg/api"
)

type countingNotifier struct {
	mu     sync.Mutex
	alerts []string
}

func (n *countingNotifier) Alert(subject, detail string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.alerts = append(n.alerts, subject)
}

func (n *countingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.alerts)
}

type okProber struct{}

func (okProber) Probe(ctx context.Context, d catalog.Descriptor) error { return nil }

type serviceFixture struct {
	svc      Service
	caller   *scriptedCaller
	notifier *countingNotifier
	cache    *cache.Memory
}

func newFixture(t *testing.T, caller *scriptedCaller, credentialed bool) *serviceFixture {
	t.Helper()
	notifier := &countingNotifier{}
	mem := cache.NewMemory(time.Hour, 100)
	svc := NewService(Options{
		Logger:       zap.NewNop(),
		Catalog:      testCatalog(),
		Cache:        mem,
		Usage:        testRecorder(t),
		Health:       health.NewTracker(),
		Caller:       caller,
		Prober:       okProber{},
		Attempts:     attemptlog.Nop{},
		Notifier:     notifier,
		Credentialed: credentialed,
	})
	return &serviceFixture{svc: svc, caller: caller, notifier: notifier, cache: mem}
}

func TestChat_Success(t *testing.T) {
	f := newFixture(t, &scriptedCaller{results: map[string]result{
		"a": {text: "the answer"},
	}}, true)

	resp := f.svc.Chat(context.Background(), &api.ChatRequest{Text: "what is up?"})

	assert.Equal(t, "the answer", resp.Text)
	assert.Equal(t, "a", resp.Provider)
	assert.False(t, resp.ServedFromCache)
	assert.False(t, resp.FallbackOccurred)
	assert.Empty(t, resp.ErrorKind)
}

func TestChat_SecondIdenticalRequestServedFromCache(t *testing.T) {
	f := newFixture(t, &scriptedCaller{results: map[string]result{
		"a": {text: "cached answer"},
	}}, true)
	ctx := context.Background()

	first := f.svc.Chat(ctx, &api.ChatRequest{Text: "What is   Go?"})
	assert.False(t, first.ServedFromCache)

	// normalization makes this the same fingerprint
	second := f.svc.Chat(ctx, &api.ChatRequest{Text: "what is go?"})
	assert.True(t, second.ServedFromCache)
	assert.Equal(t, "cached answer", second.Text)
	assert.Equal(t, "a", second.Provider)

	// only one upstream call happened
	assert.Len(t, f.caller.tried, 1)
}

func TestChat_HistoryBypassesCache(t *testing.T) {
	f := newFixture(t, &scriptedCaller{results: map[string]result{
		"a": {text: "contextual answer"},
	}}, true)
	ctx := context.Background()

	history := []api.Turn{{Role: "user", Text: "earlier turn"}}
	f.svc.Chat(ctx, &api.ChatRequest{Text: "and now?", History: history})
	f.svc.Chat(ctx, &api.ChatRequest{Text: "and now?", History: history})

	assert.Len(t, f.caller.tried, 2)
	assert.Equal(t, 0, f.cache.Len())
}

func TestChat_FallbackMarked(t *testing.T) {
	f := newFixture(t, &scriptedCaller{results: map[string]result{
		"a": {failure: &provider.Failure{Kind: provider.Unavailable, Status: 503}},
		"b": {text: "answer from b"},
	}}, true)

	resp := f.svc.Chat(context.Background(), &api.ChatRequest{Text: "hi"})

	assert.Equal(t, "b", resp.Provider)
	assert.True(t, resp.FallbackOccurred)
}

func TestChat_TotalExhaustionDegradesToOfflineAnswer(t *testing.T) {
	f := newFixture(t, &scriptedCaller{results: map[string]result{
		"a": {failure: &provider.Failure{Kind: provider.Timeout}},
		"b": {failure: &provider.Failure{Kind: provider.Timeout}},
		"c": {failure: &provider.Failure{Kind: provider.Timeout}},
	}}, true)

	resp := f.svc.Chat(context.Background(), &api.ChatRequest{Text: "hello there"})

	assert.Equal(t, ErrKindAllFailed, resp.ErrorKind)
	assert.Empty(t, resp.Provider)
	assert.NotEmpty(t, resp.Text)
}

func TestChat_OfflineAnswerIsCached(t *testing.T) {
	f := newFixture(t, &scriptedCaller{results: map[string]result{
		"a": {failure: &provider.Failure{Kind: provider.Timeout}},
		"b": {failure: &provider.Failure{Kind: provider.Timeout}},
		"c": {failure: &provider.Failure{Kind: provider.Timeout}},
	}}, true)
	ctx := context.Background()

	first := f.svc.Chat(ctx, &api.ChatRequest{Text: "hello there"})
	second := f.svc.Chat(ctx, &api.ChatRequest{Text: "hello there"})

	assert.True(t, second.ServedFromCache)
	assert.Equal(t, first.Text, second.Text)
	assert.Empty(t, second.Provider)
}

func TestGateway_StartsOfflineWithoutCredentials(t *testing.T) {
	f := newFixture(t, &scriptedCaller{}, false)

	resp := f.svc.Chat(context.Background(), &api.ChatRequest{Text: "hello"})

	assert.Equal(t, ErrKindOffline, resp.ErrorKind)
	assert.Empty(t, f.caller.tried)
	assert.Equal(t, api.StateOffline, f.svc.Status().State)
}

func TestGateway_DegradesOnceOnFatalFailure(t *testing.T) {
	f := newFixture(t, &scriptedCaller{results: map[string]result{
		"a": {failure: &provider.Failure{Kind: provider.Unauthorized, Status: 401}},
		"b": {failure: &provider.Failure{Kind: provider.OutOfCredit, Status: 402}},
		"c": {text: "answer from c"},
	}}, true)

	resp := f.svc.Chat(context.Background(), &api.ChatRequest{Text: "hi"})

	// still answered, through the healthy provider
	assert.Equal(t, "c", resp.Provider)
	assert.True(t, resp.FallbackOccurred)

	assert.Equal(t, api.StateDegraded, f.svc.Status().State)
	// two fatal failures, one operator alert
	assert.Equal(t, 1, f.notifier.count())
}

func TestTranscribeAudio_NoCapableProvider(t *testing.T) {
	// catalog has no audio-capable provider
	f := newFixture(t, &scriptedCaller{}, true)

	_, err := f.svc.TranscribeAudio(context.Background(), []byte{0x01}, "en", "audio/mpeg")
	assert.ErrorIs(t, err, ErrNoTranscript)
	assert.Empty(t, f.caller.tried)
}

func TestTranscribeAudio_Success(t *testing.T) {
	notifier := &countingNotifier{}
	caller := &scriptedCaller{results: map[string]result{
		"speech": {text: "hello world"},
	}}
	svc := NewService(Options{
		Logger: zap.NewNop(),
		Catalog: catalog.New([]catalog.Descriptor{
			{Key: "speech", Priority: 1, SupportsAudio: true, Active: true},
		}),
		Cache:        cache.NewMemory(time.Hour, 10),
		Usage:        testRecorder(t),
		Health:       health.NewTracker(),
		Caller:       caller,
		Prober:       okProber{},
		Attempts:     attemptlog.Nop{},
		Notifier:     notifier,
		Credentialed: true,
	})

	text, err := svc.TranscribeAudio(context.Background(), []byte{0x01}, "en", "audio/mpeg")
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestStatus_CountsAvailableProviders(t *testing.T) {
	f := newFixture(t, &scriptedCaller{results: map[string]result{
		"a": {failure: &provider.Failure{Kind: provider.RateLimited, Status: 429}},
		"b": {text: "ok"},
	}}, true)

	f.svc.Chat(context.Background(), &api.ChatRequest{Text: "hi"})

	report := f.svc.Status()
	// "a" is on cooldown
	assert.Equal(t, 2, report.ActiveProviders)
	assert.Equal(t, int64(1), report.Counters.TotalRequests)
	assert.Equal(t, int64(1), report.Counters.FallbackInvocations)
}

func TestHealthCheck_ProbesActiveProviders(t *testing.T) {
	f := newFixture(t, &scriptedCaller{}, true)

	results := f.svc.HealthCheck(context.Background())
	require.Len(t, results, 3)
	for _, r := range results {
		assert.True(t, r.Healthy)
	}
}
