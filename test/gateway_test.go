package test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/beacon-gw/beacon/internal/attemptlog"
	"github.com/beacon-gw/beacon/internal/cache"
	"github.com/beacon-gw/beacon/internal/catalog"
	"github.com/beacon-gw/beacon/internal/config"
	"github.com/beacon-gw/beacon/internal/gateway"
	"github.com/beacon-gw/beacon/internal/health"
	"github.com/beacon-gw/beacon/internal/notify"
	"github.com/beacon-gw/beacon/internal/provider"
	"github.com/beacon-gw/beacon/internal/server"
	"github.com/beacon-gw/beacon/internal/usage"
	"github.com/beacon-gw/beacon/pkg/api"
)

// upstream simulates one provider endpoint with a fixed handler.
func upstream(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func okUpstream(t *testing.T, answer string) *httptest.Server {
	return upstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"role": "assistant", "content": answer}},
			},
		})
	})
}

func failingUpstream(t *testing.T, status int) *httptest.Server {
	return upstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
}

// buildStack wires the full gateway against the given provider descriptors.
func buildStack(t *testing.T, descriptors []catalog.Descriptor) http.Handler {
	t.Helper()

	logger := zap.NewNop()
	cat := catalog.New(descriptors)
	client := provider.NewClient(config.ClientConfig{
		Timeout:        5 * time.Second,
		ConnectTimeout: 2 * time.Second,
		MaxRetries:     1,
	}, logger)
	recorder := usage.NewRecorder(filepath.Join(t.TempDir(), "usage.json"), time.Hour, logger)

	svc := gateway.NewService(gateway.Options{
		Logger:       logger,
		Catalog:      cat,
		Cache:        cache.NewMemory(time.Hour, 100),
		Usage:        recorder,
		Health:       health.NewTracker(),
		Caller:       client,
		Prober:       client,
		Attempts:     attemptlog.Nop{},
		Notifier:     notify.NewLogNotifier(logger),
		Credentialed: true,
	})

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:    "0",
			Env:     "development",
			APIKeys: []string{"it-test-key"},
		},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000},
	}
	return server.New(cfg, logger, svc, nil).Handler()
}

func postChat(t *testing.T, handler http.Handler, body map[string]interface{}) api.TaskResponse {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest("POST", "/v1/chat", bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer it-test-key")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp api.TaskResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestEndToEnd_ChatThroughPrimaryProvider(t *testing.T) {
	primary := okUpstream(t, "primary answer")

	handler := buildStack(t, []catalog.Descriptor{
		{Key: "primary", Model: "m1", Priority: 1, SupportsChat: true, Active: true, BaseURL: primary.URL, APIKey: "k"},
	})

	resp := postChat(t, handler, map[string]interface{}{"text": "hello end to end"})
	assert.Equal(t, "primary answer", resp.Text)
	assert.Equal(t, "primary", resp.Provider)
	assert.False(t, resp.FallbackOccurred)
}

func TestEndToEnd_FallbackToSecondary(t *testing.T) {
	primary := failingUpstream(t, http.StatusTooManyRequests)
	secondary := okUpstream(t, "secondary answer")

	handler := buildStack(t, []catalog.Descriptor{
		{Key: "primary", Model: "m1", Priority: 1, SupportsChat: true, Active: true, BaseURL: primary.URL, APIKey: "k"},
		{Key: "secondary", Model: "m2", Priority: 2, SupportsChat: true, Active: true, BaseURL: secondary.URL, APIKey: "k"},
	})

	resp := postChat(t, handler, map[string]interface{}{"text": "who answers?"})
	assert.Equal(t, "secondary answer", resp.Text)
	assert.Equal(t, "secondary", resp.Provider)
	assert.True(t, resp.FallbackOccurred)
}

func TestEndToEnd_TotalFailureYieldsOfflineAnswer(t *testing.T) {
	broken := failingUpstream(t, http.StatusInternalServerError)

	handler := buildStack(t, []catalog.Descriptor{
		{Key: "only", Model: "m1", Priority: 1, SupportsChat: true, Active: true, BaseURL: broken.URL, APIKey: "k"},
	})

	resp := postChat(t, handler, map[string]interface{}{"text": "hello?"})
	assert.Equal(t, "AllProvidersFailed", resp.ErrorKind)
	assert.Empty(t, resp.Provider)
	assert.NotEmpty(t, resp.Text)
}

func TestEndToEnd_CacheServesRepeatRequest(t *testing.T) {
	calls := 0
	counting := upstream(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"counted"}}]}`))
	})

	handler := buildStack(t, []catalog.Descriptor{
		{Key: "only", Model: "m1", Priority: 1, SupportsChat: true, Active: true, BaseURL: counting.URL, APIKey: "k"},
	})

	first := postChat(t, handler, map[string]interface{}{"text": "Repeat Me"})
	second := postChat(t, handler, map[string]interface{}{"text": "repeat   me"})

	assert.False(t, first.ServedFromCache)
	assert.True(t, second.ServedFromCache)
	assert.Equal(t, 1, calls)
}
