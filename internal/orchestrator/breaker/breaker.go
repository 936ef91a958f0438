// Package breaker fronts each external capability with its own named
// circuit breaker, so a struggling Analyzer cannot drag down a
// healthy ImageSynthesizer.
package breaker

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"adgen/internal/orchestrator/domain"
)

// Registry holds one breaker per capability name, built once at startup from
// a single CircuitBreakerPolicy.
type Registry struct {
	breakers map[string]*gobreaker.CircuitBreaker
}

// Policy mirrors orchestrator.CircuitBreakerPolicy without importing it, to
// keep this package free of a dependency on the top-level config type.
type Policy struct {
	MaxRequestsHalfOpen uint32
	OpenInterval        time.Duration
	OpenTimeout         time.Duration
	MinRequestsToTrip   uint32
	FailureRatioToTrip  float64
}

// Names of the three capabilities this orchestrator knows how to call.
const (
	CapabilityAnalyzer         = "analyzer"
	CapabilityImageSynthesizer = "image_synthesizer"
	CapabilityTextSynthesizer  = "text_synthesizer"
)

// New builds a Registry with one breaker per named capability, each
// configured identically from policy.
func New(policy Policy, names ...string) *Registry {
	r := &Registry{breakers: make(map[string]*gobreaker.CircuitBreaker, len(names))}
	for _, name := range names {
		r.breakers[name] = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: policy.MaxRequestsHalfOpen,
			Interval:    policy.OpenInterval,
			Timeout:     policy.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				if counts.Requests < policy.MinRequestsToTrip {
					return false
				}
				failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
				return failureRatio >= policy.FailureRatioToTrip
			},
		})
	}
	return r
}

// Execute runs fn through the named capability's breaker. An open breaker
// rejects the call immediately with a Transient-classified domain.Error
// rather than invoking fn at all, so a tripped breaker reads as a retryable
// stage failure rather than a fatal one.
func (r *Registry) Execute(ctx context.Context, capability string, fn func(context.Context) (any, error)) (any, error) {
	cb, ok := r.breakers[capability]
	if !ok {
		return nil, fmt.Errorf("breaker: unknown capability %q", capability)
	}

	result, err := cb.Execute(func() (any, error) {
		return fn(ctx)
	})
	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, &domain.Error{
				Kind:    domain.KindTransient,
				Message: fmt.Sprintf("circuit breaker %q is open", capability),
			}
		}
		return nil, err
	}
	return result, nil
}

// State reports the current breaker state name for system-status reporting.
func (r *Registry) State(capability string) string {
	cb, ok := r.breakers[capability]
	if !ok {
		return "unknown"
	}
	return cb.State().String()
}
