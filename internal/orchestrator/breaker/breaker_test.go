package breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"adgen/internal/orchestrator/domain"
)

func testPolicy() Policy {
	return Policy{
		MaxRequestsHalfOpen: 1,
		OpenInterval:        time.Minute,
		OpenTimeout:         50 * time.Millisecond,
		MinRequestsToTrip:   3,
		FailureRatioToTrip:  0.5,
	}
}

func TestExecutePassesThroughSuccess(t *testing.T) {
	r := New(testPolicy(), CapabilityAnalyzer)
	result, err := r.Execute(context.Background(), CapabilityAnalyzer, func(context.Context) (any, error) {
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result != "ok" {
		t.Fatalf("result = %v, want ok", result)
	}
}

func TestExecuteUnknownCapability(t *testing.T) {
	r := New(testPolicy(), CapabilityAnalyzer)
	_, err := r.Execute(context.Background(), "not-registered", func(context.Context) (any, error) {
		return nil, nil
	})
	if err == nil {
		t.Fatal("expected an error for an unregistered capability")
	}
}

func TestTrippedBreakerClassifiesAsTransient(t *testing.T) {
	r := New(testPolicy(), CapabilityImageSynthesizer)
	failing := errors.New("upstream 500")

	for i := 0; i < 3; i++ {
		_, _ = r.Execute(context.Background(), CapabilityImageSynthesizer, func(context.Context) (any, error) {
			return nil, failing
		})
	}

	_, err := r.Execute(context.Background(), CapabilityImageSynthesizer, func(context.Context) (any, error) {
		t.Fatal("fn should not run once the breaker is open")
		return nil, nil
	})

	derr, ok := err.(*domain.Error)
	if !ok {
		t.Fatalf("err = %v (%T), want *domain.Error", err, err)
	}
	if derr.Kind != domain.KindTransient {
		t.Fatalf("Kind = %s, want Transient", derr.Kind)
	}
}

func TestStateReflectsCapabilityHealth(t *testing.T) {
	r := New(testPolicy(), CapabilityTextSynthesizer)
	if got := r.State(CapabilityTextSynthesizer); got != "closed" {
		t.Errorf("State() = %q, want closed", got)
	}
	if got := r.State("unknown"); got != "unknown" {
		t.Errorf("State(unknown) = %q, want unknown", got)
	}
}
