package adapters

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"adgen/internal/orchestrator/domain"
)

// RetryPolicy mirrors orchestrator.RetryPolicy to keep this package free of
// a dependency on the top-level config type.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	Multiplier     float64
}

// withRetry runs fn up to policy.MaxAttempts times, backing off between
// attempts while ctx is live and the returned error's Kind is retryable. No
// library in this codebase's dependency graph provides backoff, so this
// follows the same select-on-ctx.Done/time.After ladder this codebase's job
// recovery path uses for requeue backpressure.
func withRetry(ctx context.Context, policy RetryPolicy, log zerolog.Logger, op string, fn func(context.Context) error) error {
	attempts := policy.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	backoff := policy.InitialBackoff
	if backoff <= 0 {
		backoff = time.Second
	}
	multiplier := policy.Multiplier
	if multiplier <= 0 {
		multiplier = 2
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		kind := kindOf(err)
		if !kind.Retryable() || attempt == attempts {
			log.Debug().Str("op", op).Int("attempt", attempt).Str("kind", string(kind)).Msg("adapters: call failed, not retrying")
			return err
		}

		log.Debug().Str("op", op).Int("attempt", attempt).Str("kind", string(kind)).Dur("backoff", backoff).Msg("adapters: call failed, backing off")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = time.Duration(float64(backoff) * multiplier)
	}
	return lastErr
}

func kindOf(err error) domain.Kind {
	if derr, ok := err.(*domain.Error); ok {
		return derr.Kind
	}
	if err == context.DeadlineExceeded {
		return domain.KindTimeout
	}
	if err == context.Canceled {
		return domain.KindCancelled
	}
	return domain.KindUnknown
}
