package domain

import "fmt"

// Kind is a normalized error classification shared by capability errors,
// stage failures, and top-level orchestrator errors.
type Kind string

const (
	KindInvalidInput       Kind = "InvalidInput"
	KindCapacityExhausted  Kind = "CapacityExhausted"
	KindAuthError          Kind = "AuthError"
	KindRateLimit          Kind = "RateLimit"
	KindTimeout            Kind = "Timeout"
	KindNetworkError       Kind = "NetworkError"
	KindTransient          Kind = "Transient"
	KindFatal              Kind = "Fatal"
	KindCancelled          Kind = "Cancelled"
	KindUnknown            Kind = "Unknown"
)

// Retryable reports whether a fresh attempt is worth making for this kind.
func (k Kind) Retryable() bool {
	switch k {
	case KindRateLimit, KindNetworkError, KindTransient, KindUnknown:
		return true
	default:
		return false
	}
}

// Error is the normalized error shape surfaced across the orchestrator.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Current int
	Max     int
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s (field=%s)", e.Kind, e.Message, e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewInvalidInput builds a validation error tagged with the offending field.
func NewInvalidInput(field, message string) *Error {
	return &Error{Kind: KindInvalidInput, Field: field, Message: message}
}

// NewCapacityExhausted builds the admission-refused error with current/max counters.
func NewCapacityExhausted(current, max int) *Error {
	return &Error{
		Kind:    KindCapacityExhausted,
		Field:   "concurrentJobs",
		Message: "maximum concurrent jobs reached",
		Current: current,
		Max:     max,
	}
}

// ClassifyKind maps a loosely-shaped capability error string to a normalized kind.
// Capability fakes and adapters use this so the executor never has to know about
// provider-specific error vocabularies.
func ClassifyKind(raw string) Kind {
	switch Kind(raw) {
	case KindInvalidInput, KindCapacityExhausted, KindAuthError, KindRateLimit,
		KindTimeout, KindNetworkError, KindTransient, KindFatal, KindCancelled:
		return Kind(raw)
	default:
		return KindUnknown
	}
}
