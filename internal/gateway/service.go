package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/beacon-gw/beacon/internal/attemptlog"
	"github.com/beacon-gw/beacon/internal/cache"
	"github.com/beacon-gw/beacon/internal/catalog"
	"github.com/beacon-gw/beacon/internal/health"
	"github.com/beacon-gw/beacon/internal/notify"
	"github.com/beacon-gw/beacon/internal/provider"
	"github.com/beacon-gw/beacon/internal/usage"
	"github.com/beacon-gw/beacon/pkg/api"
)

// Error kinds surfaced in degraded TaskResponses.
const (
	ErrKindAllFailed   = "AllProvidersFailed"
	ErrKindOffline     = "Offline"
	ErrKindNoProviders = "NoProvidersAvailable"
)

// ErrNoTranscript is returned by TranscribeAudio when no provider produced a
// transcript. Transcription has no meaningful canned fallback.
var ErrNoTranscript = errors.New("transcription unavailable: no provider could be reached")

// Prober checks one provider's reachability for health reports.
type Prober interface {
	Probe(ctx context.Context, d catalog.Descriptor) error
}

// Service is the single entry point of the gateway. Provider-side failures
// never escape it as errors; callers always get an answer, possibly marked
// degraded via ErrorKind.
type Service interface {
	Chat(ctx context.Context, req *api.ChatRequest) api.TaskResponse
	Translate(ctx context.Context, req *api.TranslateRequest) api.TaskResponse
	Summarize(ctx context.Context, req *api.SummarizeRequest) api.TaskResponse
	TranscribeAudio(ctx context.Context, audio []byte, language, mimeHint string) (string, error)
	AnalyzeImage(ctx context.Context, image []byte, prompt, mimeHint string) api.TaskResponse
	Status() api.StatusReport
	HealthCheck(ctx context.Context) []api.ProbeResult
}

// Options bundles the collaborators of the façade.
type Options struct {
	Logger   *zap.Logger
	Catalog  *catalog.Catalog
	Routes   map[string][]string
	Cache    cache.Store
	Usage    *usage.Recorder
	Health   *health.Tracker
	Caller   Caller
	Prober   Prober
	Attempts attemptlog.Ingestor
	Notifier notify.Notifier

	// Credentialed is false when no provider carries an API key; the gateway
	// then starts permanently Offline.
	Credentialed bool
}

type service struct {
	logger   *zap.Logger
	catalog  *catalog.Catalog
	router   *Router
	orch     *Orchestrator
	cache    cache.Store
	usage    *usage.Recorder
	health   *health.Tracker
	offline  *OfflineResponder
	prober   Prober
	notifier notify.Notifier

	mu    sync.RWMutex
	state api.GatewayState
}

func NewService(opts Options) Service {
	s := &service{
		logger:   opts.Logger,
		catalog:  opts.Catalog,
		router:   NewRouter(opts.Catalog, opts.Routes),
		cache:    opts.Cache,
		usage:    opts.Usage,
		health:   opts.Health,
		offline:  NewOfflineResponder(),
		prober:   opts.Prober,
		notifier: opts.Notifier,
		state:    api.StateOnline,
	}
	if !opts.Credentialed {
		// permanent for this process instance
		s.state = api.StateOffline
		opts.Logger.Warn("no provider credentials configured, gateway starts offline")
	}

	s.orch = NewOrchestrator(opts.Caller, opts.Health, opts.Usage, opts.Attempts, opts.Logger, s.markDegraded)
	return s
}

func (s *service) Chat(ctx context.Context, req *api.ChatRequest) api.TaskResponse {
	return s.run(ctx, api.TaskRequest{
		Type:        api.TaskChat,
		Text:        req.Text,
		History:     req.History,
		Preferred:   req.Provider,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
}

func (s *service) Translate(ctx context.Context, req *api.TranslateRequest) api.TaskResponse {
	prompt := fmt.Sprintf(
		"Translate the following text from %s to %s. Reply with the translation only.\n\n%s",
		req.SourceLang, req.TargetLang, req.Text,
	)
	return s.run(ctx, api.TaskRequest{
		Type:      api.TaskTranslate,
		Text:      prompt,
		Preferred: req.Provider,
	})
}

func (s *service) Summarize(ctx context.Context, req *api.SummarizeRequest) api.TaskResponse {
	maxLength := req.MaxLength
	if maxLength <= 0 {
		maxLength = 150
	}
	prompt := fmt.Sprintf(
		"Summarize the following text in at most %d words.\n\n%s",
		maxLength, req.Text,
	)
	return s.run(ctx, api.TaskRequest{
		Type:      api.TaskSummarize,
		Text:      prompt,
		Preferred: req.Provider,
	})
}

func (s *service) AnalyzeImage(ctx context.Context, image []byte, prompt, mimeHint string) api.TaskResponse {
	if mimeHint == "" {
		mimeHint = "image/jpeg"
	}
	return s.run(ctx, api.TaskRequest{
		Type:     api.TaskVision,
		Text:     prompt,
		Binary:   image,
		MimeType: mimeHint,
	})
}

// TranscribeAudio deviates from the other operations: transcription has no
// useful canned answer, so total failure surfaces as an error value.
func (s *service) TranscribeAudio(ctx context.Context, audio []byte, language, mimeHint string) (string, error) {
	if mimeHint == "" {
		mimeHint = "audio/mpeg"
	}
	prompt := "Transcribe this audio recording verbatim."
	if language != "" {
		prompt = fmt.Sprintf("Transcribe this audio recording verbatim. The language is %s.", language)
	}

	s.usage.RecordRequest()

	if s.State() == api.StateOffline {
		s.usage.RecordOffline()
		return "", ErrNoTranscript
	}

	req := api.TaskRequest{
		Type:     api.TaskAudio,
		Text:     prompt,
		Binary:   audio,
		MimeType: mimeHint,
	}
	route := s.router.Route(req)
	if len(route.Candidates) == 0 {
		s.usage.RecordOffline()
		return "", ErrNoTranscript
	}

	outcome := s.orch.Execute(ctx, uuid.NewString(), req, route.Candidates)
	if !outcome.OK {
		s.usage.RecordOffline()
		return "", ErrNoTranscript
	}
	return outcome.Text, nil
}

// run is the shared pipeline: cache lookup, routing, fallback execution,
// cache fill, offline degradation.
func (s *service) run(ctx context.Context, req api.TaskRequest) api.TaskResponse {
	start := time.Now()
	s.usage.RecordRequest()

	route := s.router.Route(req)

	if route.CacheEligible {
		if entry, ok := s.cache.Get(ctx, route.CacheKey); ok {
			s.usage.RecordCacheHit()
			return api.TaskResponse{
				Text:              entry.Text,
				Provider:          entry.Provider,
				ServedFromCache:   true,
				RequestedProvider: req.Preferred,
				LatencyMS:         time.Since(start).Milliseconds(),
			}
		}
	}

	if s.State() == api.StateOffline {
		return s.degrade(ctx, req, route, ErrKindOffline, start)
	}
	if len(route.Candidates) == 0 {
		return s.degrade(ctx, req, route, ErrKindNoProviders, start)
	}

	outcome := s.orch.Execute(ctx, uuid.NewString(), req, route.Candidates)
	if !outcome.OK {
		return s.degrade(ctx, req, route, ErrKindAllFailed, start)
	}

	if route.CacheEligible {
		s.cache.Put(ctx, route.CacheKey, outcome.Text, outcome.Provider)
	}

	return api.TaskResponse{
		Text:              outcome.Text,
		Provider:          outcome.Provider,
		FallbackOccurred:  outcome.Fallback,
		RequestedProvider: req.Preferred,
		LatencyMS:         time.Since(start).Milliseconds(),
	}
}

// degrade produces the offline answer for an unreachable provider pool. The
// answer is itself cached (with an empty provider key) when eligible.
func (s *service) degrade(ctx context.Context, req api.TaskRequest, route Route, kind string, start time.Time) api.TaskResponse {
	s.usage.RecordOffline()
	text := s.offline.Answer(req.Type, req.Text)

	if route.CacheEligible {
		s.cache.Put(ctx, route.CacheKey, text, "")
	}

	return api.TaskResponse{
		Text:              text,
		RequestedProvider: req.Preferred,
		LatencyMS:         time.Since(start).Milliseconds(),
		ErrorKind:         kind,
	}
}

// markDegraded flips Online to Degraded on the first fatal provider failure
// and alerts the operator exactly once per transition. Degraded is terminal
// for the process lifetime.
func (s *service) markDegraded(providerKey string, f *provider.Failure) {
	s.mu.Lock()
	if s.state != api.StateOnline {
		s.mu.Unlock()
		return
	}
	s.state = api.StateDegraded
	s.mu.Unlock()

	s.logger.Error("gateway degraded",
		zap.String("provider", providerKey),
		zap.String("kind", string(f.Kind)),
	)
	s.notifier.Alert(
		"gateway degraded",
		fmt.Sprintf("provider %q rejected credentials (%s); manual intervention required", providerKey, f.Kind),
	)
}

func (s *service) State() api.GatewayState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *service) Status() api.StatusReport {
	active := 0
	for _, d := range s.catalog.All() {
		if d.Active && s.health.IsAvailable(d.Key) {
			active++
		}
	}
	return api.StatusReport{
		State:           s.State(),
		Counters:        s.usage.Snapshot(),
		ActiveProviders: active,
	}
}

// HealthCheck probes every active provider. It is an operator diagnostic and
// runs regardless of gateway state.
func (s *service) HealthCheck(ctx context.Context) []api.ProbeResult {
	var results []api.ProbeResult
	for _, d := range s.catalog.All() {
		if !d.Active {
			continue
		}

		probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		start := time.Now()
		err := s.prober.Probe(probeCtx, d)
		cancel()

		r := api.ProbeResult{
			Provider:  d.Key,
			Healthy:   err == nil,
			LatencyMS: time.Since(start).Milliseconds(),
		}
		if err != nil {
			r.Error = err.Error()
		}
		results = append(results, r)
	}
	return results
}
