package api

// TaskType identifies one of the abstract tasks the gateway accepts.
type TaskType string

const (
	TaskChat      TaskType = "chat"
	TaskTranslate TaskType = "translate"
	TaskSummarize TaskType = "summarize"
	TaskVision    TaskType = "vision"
	TaskAudio     TaskType = "audio"
)

// Valid reports whether t is one of the known task types.
func (t TaskType) Valid() bool {
	switch t {
	case TaskChat, TaskTranslate, TaskSummarize, TaskVision, TaskAudio:
		return true
	}
	return false
}

// Turn is one role+text pair of a conversation history.
type Turn struct {
	Role string `json:"role" binding:"required,oneof=user assistant system"`
	Text string `json:"text" binding:"required"`
}

// TaskRequest is the internal, normalized form of a caller request.
// It is never persisted.
type TaskRequest struct {
	Type TaskType

	// Text is the primary textual payload. For vision/audio tasks it carries
	// the accompanying prompt or language hint.
	Text string

	// Binary holds the raw image or audio bytes for vision/audio tasks.
	Binary   []byte
	MimeType string

	// History is the optional conversation context, oldest first.
	History []Turn

	// Preferred is the caller-preferred provider key, or empty.
	Preferred string

	MaxTokens   int
	Temperature float64
}

// TaskResponse is what every gateway operation returns. Provider-side
// failures never surface as errors; they degrade into an offline answer
// with ErrorKind set.
type TaskResponse struct {
	Text string `json:"text"`

	// Provider is the key of the provider that produced the answer,
	// empty when the answer came from the offline responder or the cache
	// entry was itself offline-served.
	Provider string `json:"provider,omitempty"`

	ServedFromCache bool `json:"served_from_cache"`

	// FallbackOccurred is true iff the provider that succeeded was not the
	// first candidate tried.
	FallbackOccurred bool `json:"fallback_occurred"`

	// RequestedProvider echoes the caller's provider preference, if any.
	RequestedProvider string `json:"requested_provider,omitempty"`

	LatencyMS int64 `json:"latency_ms"`

	// ErrorKind is set when the response is a degraded answer, e.g.
	// "AllProvidersFailed" after total exhaustion.
	ErrorKind string `json:"error_kind,omitempty"`
}

// GatewayState is the gateway-wide availability state.
type GatewayState string

const (
	StateOnline   GatewayState = "online"
	StateDegraded GatewayState = "degraded"
	StateOffline  GatewayState = "offline"
)

// LastError records the most recent provider failure for the status report.
type LastError struct {
	Provider  string `json:"provider"`
	Kind      string `json:"kind"`
	Timestamp int64  `json:"timestamp"`
}

// UsageCounters is the persisted usage snapshot. The JSON layout is the
// on-disk format, written atomically on a timer and at shutdown.
type UsageCounters struct {
	TotalRequests       int64            `json:"total_requests"`
	SuccessByProvider   map[string]int64 `json:"success_by_provider"`
	FailuresByProvider  map[string]int64 `json:"failures_by_provider"`
	FallbackInvocations int64            `json:"fallback_invocations"`
	CacheHits           int64            `json:"cache_hits"`
	OfflineResponses    int64            `json:"offline_responses"`
	EstimatedTokens     int64            `json:"total_estimated_tokens"`
	LastError           *LastError       `json:"last_error,omitempty"`
}

// StatusReport is the response of the status operation.
type StatusReport struct {
	State           GatewayState  `json:"state"`
	Counters        UsageCounters `json:"counters"`
	ActiveProviders int           `json:"active_providers"`
}

// ProbeResult is one provider's health-check outcome.
type ProbeResult struct {
	Provider  string `json:"provider"`
	Healthy   bool   `json:"healthy"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}
