package gateway

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/beacon-gw/beacon/internal/attemptlog"
	"github.com/beacon-gw/beacon/internal/catalog"
	"github.com/beacon-gw/beacon/internal/health"
	"github.com/beacon-gw/beacon/internal/provider"
	"github.com/beacon-gw/beacon/internal/store/model"
	"github.com/beacon-gw/beacon/internal/usage"
	"github.com/beacon-gw/beacon/pkg/api"
)

// Cooldown durations per failure class. Authentication and billing failures
// never re-enable automatically.
const (
	cooldownConnection  = 2 * time.Minute
	cooldownUnavailable = 5 * time.Minute
	cooldownRateLimited = 10 * time.Minute
)

// Caller is the provider-call boundary the orchestrator depends on.
type Caller interface {
	CallWithRetry(ctx context.Context, d catalog.Descriptor, p provider.Payload) (string, *provider.Failure)
}

// Outcome is the sentinel result of one fallback run. Exhaustion is a value,
// not an error: the façade converts it into an offline answer.
type Outcome struct {
	OK       bool
	Text     string
	Provider string
	// Fallback is true iff the provider that succeeded was not the first
	// candidate in the try-order.
	Fallback    bool
	LastFailure *provider.Failure
}

// Orchestrator walks the candidate list in order, skipping cooled-down
// providers, and stops at the first success. Failure classes feed the health
// tracker; fatal classes additionally fire the onFatal hook.
type Orchestrator struct {
	caller   Caller
	health   *health.Tracker
	usage    *usage.Recorder
	attempts attemptlog.Ingestor
	logger   *zap.Logger

	// onFatal is invoked for Unauthorized/OutOfCredit classifications; the
	// façade uses it to drive the gateway status machine.
	onFatal func(providerKey string, f *provider.Failure)
}

func NewOrchestrator(
	caller Caller,
	tracker *health.Tracker,
	recorder *usage.Recorder,
	attempts attemptlog.Ingestor,
	logger *zap.Logger,
	onFatal func(providerKey string, f *provider.Failure),
) *Orchestrator {
	if onFatal == nil {
		onFatal = func(string, *provider.Failure) {}
	}
	return &Orchestrator{
		caller:   caller,
		health:   tracker,
		usage:    recorder,
		attempts: attempts,
		logger:   logger,
		onFatal:  onFatal,
	}
}

// Execute tries candidates in order. The preferred key, when present among
// the candidates, moves to the front without being duplicated. The method
// never errors for ordinary provider failures.
func (o *Orchestrator) Execute(ctx context.Context, requestID string, req api.TaskRequest, candidates []catalog.Descriptor) Outcome {
	tryOrder := buildTryOrder(candidates, req.Preferred)
	payload := provider.BuildPayload(req)

	var last *provider.Failure
	for i, d := range tryOrder {
		if ctx.Err() != nil {
			break
		}
		if !o.health.IsAvailable(d.Key) {
			o.logger.Debug("skipping cooled-down provider", zap.String("provider", d.Key))
			continue
		}

		start := time.Now()
		text, failure := o.caller.CallWithRetry(ctx, d, payload)
		latency := time.Since(start)

		if failure == nil {
			o.usage.RecordSuccess(d.Key, provider.EstimateTokens(payload, text))
			fellBack := i > 0
			if fellBack {
				o.usage.RecordFallback()
			}
			o.record(requestID, req.Type, d.Key, "success", fellBack, latency)
			return Outcome{
				OK:       true,
				Text:     text,
				Provider: d.Key,
				Fallback: fellBack,
			}
		}

		last = failure
		o.usage.RecordFailure(d.Key, string(failure.Kind))
		o.record(requestID, req.Type, d.Key, string(failure.Kind), i > 0, latency)
		o.penalize(d.Key, failure)

		o.logger.Warn("provider attempt failed",
			zap.String("provider", d.Key),
			zap.String("kind", string(failure.Kind)),
			zap.Int("status", failure.Status),
		)
	}

	return Outcome{LastFailure: last}
}

// penalize maps a failure class to its cooldown.
func (o *Orchestrator) penalize(key string, f *provider.Failure) {
	switch f.Kind {
	case provider.Unauthorized, provider.OutOfCredit:
		o.health.DisableIndefinitely(key)
		o.onFatal(key, f)
	case provider.RateLimited:
		o.health.Disable(key, cooldownRateLimited)
	case provider.Unavailable, provider.MalformedResponse, provider.Unknown:
		o.health.Disable(key, cooldownUnavailable)
	case provider.ConnectionError, provider.Timeout:
		o.health.Disable(key, cooldownConnection)
	}
}

func (o *Orchestrator) record(requestID string, task api.TaskType, providerKey, outcome string, fallback bool, latency time.Duration) {
	o.attempts.Log(&model.Attempt{
		ID:        uuid.NewString(),
		RequestID: requestID,
		TaskType:  string(task),
		Provider:  providerKey,
		Outcome:   outcome,
		Fallback:  fallback,
		LatencyMS: latency.Milliseconds(),
		CreatedAt: time.Now(),
	})
}

// buildTryOrder moves the preferred key to the front when present. Catalog
// order is kept otherwise.
func buildTryOrder(candidates []catalog.Descriptor, preferred string) []catalog.Descriptor {
	if preferred == "" {
		return candidates
	}
	idx := -1
	for i, d := range candidates {
		if d.Key == preferred {
			idx = i
			break
		}
	}
	if idx <= 0 {
		return candidates
	}

	out := make([]catalog.Descriptor, 0, len(candidates))
	out = append(out, candidates[idx])
	out = append(out, candidates[:idx]...)
	out = append(out, candidates[idx+1:]...)
	return out
}
