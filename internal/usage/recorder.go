package usage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/beacon-gw/beacon/pkg/api"
)

// Recorder keeps process-wide usage counters and persists them as a flat
// JSON snapshot, written atomically on a timer and at shutdown. Counters
// survive restarts: the previous snapshot is reloaded and merged at startup.
type Recorder struct {
	mu       sync.Mutex
	counters api.UsageCounters

	path     string
	interval time.Duration
	logger   *zap.Logger

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewRecorder(path string, interval time.Duration, logger *zap.Logger) *Recorder {
	r := &Recorder{
		counters: api.UsageCounters{
			SuccessByProvider:  make(map[string]int64),
			FailuresByProvider: make(map[string]int64),
		},
		path:     path,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	r.load()
	return r
}

// Start launches the periodic flush loop.
func (r *Recorder) Start(ctx context.Context) {
	go func() {
		defer close(r.done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.Flush()
			case <-ctx.Done():
				r.Flush()
				return
			case <-r.stop:
				r.Flush()
				return
			}
		}
	}()
}

// Stop flushes once more and terminates the loop.
func (r *Recorder) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
		<-r.done
	})
}

func (r *Recorder) RecordRequest() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters.TotalRequests++
}

func (r *Recorder) RecordSuccess(provider string, estimatedTokens int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters.SuccessByProvider[provider]++
	r.counters.EstimatedTokens += estimatedTokens
}

func (r *Recorder) RecordFailure(provider, kind string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters.FailuresByProvider[provider]++
	r.counters.LastError = &api.LastError{
		Provider:  provider,
		Kind:      kind,
		Timestamp: time.Now().Unix(),
	}
}

func (r *Recorder) RecordFallback() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters.FallbackInvocations++
}

func (r *Recorder) RecordCacheHit() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters.CacheHits++
}

func (r *Recorder) RecordOffline() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters.OfflineResponses++
}

// Snapshot returns a deep copy of the current counters.
func (r *Recorder) Snapshot() api.UsageCounters {
	r.mu.Lock()
	defer r.mu.Unlock()
	return copyCounters(r.counters)
}

// Flush writes the snapshot with a temp-file-then-rename so a crash mid-write
// never truncates the previous snapshot.
func (r *Recorder) Flush() {
	snap := r.Snapshot()

	raw, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		r.logger.Error("usage snapshot marshal failed", zap.Error(err))
		return
	}

	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		r.logger.Error("usage snapshot dir create failed", zap.Error(err))
		return
	}

	tmp, err := os.CreateTemp(dir, "usage-*.json")
	if err != nil {
		r.logger.Error("usage snapshot temp create failed", zap.Error(err))
		return
	}
	name := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		r.logger.Error("usage snapshot write failed", zap.Error(err))
		return
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return
	}
	if err := os.Rename(name, r.path); err != nil {
		_ = os.Remove(name)
		r.logger.Error("usage snapshot rename failed", zap.Error(err))
	}
}

// load merges a previous snapshot into the zero-initialized counters.
func (r *Recorder) load() {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		return
	}

	var prev api.UsageCounters
	if err := json.Unmarshal(raw, &prev); err != nil {
		r.logger.Warn("usage snapshot unreadable, starting fresh", zap.Error(err))
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters.TotalRequests += prev.TotalRequests
	r.counters.FallbackInvocations += prev.FallbackInvocations
	r.counters.CacheHits += prev.CacheHits
	r.counters.OfflineResponses += prev.OfflineResponses
	r.counters.EstimatedTokens += prev.EstimatedTokens
	for k, v := range prev.SuccessByProvider {
		r.counters.SuccessByProvider[k] += v
	}
	for k, v := range prev.FailuresByProvider {
		r.counters.FailuresByProvider[k] += v
	}
	if prev.LastError != nil {
		r.counters.LastError = prev.LastError
	}
}

func copyCounters(c api.UsageCounters) api.UsageCounters {
	out := c
	out.SuccessByProvider = make(map[string]int64, len(c.SuccessByProvider))
	for k, v := range c.SuccessByProvider {
		out.SuccessByProvider[k] = v
	}
	out.FailuresByProvider = make(map[string]int64, len(c.FailuresByProvider))
	for k, v := range c.FailuresByProvider {
		out.FailuresByProvider[k] = v
	}
	if c.LastError != nil {
		le := *c.LastError
		out.LastError = &le
	}
	return out
}
