package provider

import "fmt"

// FailureKind classifies one failed provider attempt. The orchestrator
// matches on it exhaustively to decide between retrying the same provider,
// escalating to the next candidate, or disabling the provider for good.
type FailureKind string

const (
	RateLimited       FailureKind = "rate_limited"
	Unauthorized      FailureKind = "unauthorized"
	OutOfCredit       FailureKind = "out_of_credit"
	Unavailable       FailureKind = "unavailable"
	Timeout           FailureKind = "timeout"
	ConnectionError   FailureKind = "connection_error"
	MalformedResponse FailureKind = "malformed_response"
	Unknown           FailureKind = "unknown"
)

// Failure is the structured outcome of a failed attempt.
type Failure struct {
	Kind FailureKind
	// Status is the upstream HTTP status, 0 for transport-level failures.
	Status  int
	Message string
}

func (f *Failure) Error() string {
	if f.Status != 0 {
		return fmt.Sprintf("%s (status %d): %s", f.Kind, f.Status, f.Message)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Retryable reports whether the same provider may be retried within the
// current attempt. Only timeouts and explicit unavailability qualify.
func (f *Failure) Retryable() bool {
	return f.Kind == Timeout || f.Kind == Unavailable
}

// Fatal reports whether the failure must disable the provider until an
// operator intervenes.
func (f *Failure) Fatal() bool {
	return f.Kind == Unauthorized || f.Kind == OutOfCredit
}

func classifyStatus(code int) FailureKind {
	switch code {
	case 429:
		return RateLimited
	case 401:
		return Unauthorized
	case 402:
		return OutOfCredit
	case 503:
		return Unavailable
	default:
		return Unknown
	}
}
