package domain

import "testing"

func TestKindRetryable(t *testing.T) {
	retryable := []Kind{KindRateLimit, KindNetworkError, KindTransient, KindUnknown}
	for _, k := range retryable {
		if !k.Retryable() {
			t.Errorf("%s.Retryable() = false, want true", k)
		}
	}

	terminal := []Kind{KindInvalidInput, KindCapacityExhausted, KindAuthError, KindFatal, KindCancelled}
	for _, k := range terminal {
		if k.Retryable() {
			t.Errorf("%s.Retryable() = true, want false", k)
		}
	}
}

func TestClassifyKindRoundTrips(t *testing.T) {
	for _, k := range []Kind{KindInvalidInput, KindCapacityExhausted, KindAuthError, KindRateLimit, KindTimeout, KindNetworkError, KindTransient, KindFatal, KindCancelled} {
		if got := ClassifyKind(string(k)); got != k {
			t.Errorf("ClassifyKind(%q) = %s, want %s", k, got, k)
		}
	}
}

func TestClassifyKindUnknownFallback(t *testing.T) {
	if got := ClassifyKind("some-vendor-specific-code"); got != KindUnknown {
		t.Errorf("ClassifyKind(unrecognized) = %s, want Unknown", got)
	}
}

func TestNewInvalidInputIncludesField(t *testing.T) {
	err := NewInvalidInput("packageVariations", "must be at least 1")
	if err.Kind != KindInvalidInput {
		t.Errorf("Kind = %s, want InvalidInput", err.Kind)
	}
	if err.Field != "packageVariations" {
		t.Errorf("Field = %q, want packageVariations", err.Field)
	}
	if err.Error() == "" {
		t.Error("Error() returned empty string")
	}
}

func TestNewCapacityExhaustedCarriesCounters(t *testing.T) {
	err := NewCapacityExhausted(5, 5)
	if err.Kind != KindCapacityExhausted {
		t.Errorf("Kind = %s, want CapacityExhausted", err.Kind)
	}
	if err.Current != 5 || err.Max != 5 {
		t.Errorf("Current/Max = %d/%d, want 5/5", err.Current, err.Max)
	}
}
