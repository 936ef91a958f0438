package adapters

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"adgen/internal/orchestrator/breaker"
	"adgen/internal/orchestrator/domain"
)

// Timeouts bundles the per-capability context deadlines applied before a
// call reaches its circuit breaker.
type Timeouts struct {
	Analysis time.Duration
	Image    time.Duration
	Text     time.Duration
}

// StageAdapter wraps the three raw capabilities with a uniform policy:
// per-call timeout, retry with backoff on retryable error kinds, and a
// named circuit breaker fronting each capability. The Pipeline
// Executor talks to this, never to the raw capabilities directly.
type StageAdapter struct {
	analyzer    domain.Analyzer
	imageSynth  domain.ImageSynthesizer
	textSynth   domain.TextSynthesizer
	breakers    *breaker.Registry
	retry       RetryPolicy
	timeouts    Timeouts
	log         zerolog.Logger
}

// New constructs a StageAdapter over the given raw capability implementations.
func New(analyzer domain.Analyzer, imageSynth domain.ImageSynthesizer, textSynth domain.TextSynthesizer, breakers *breaker.Registry, retry RetryPolicy, timeouts Timeouts, log zerolog.Logger) *StageAdapter {
	return &StageAdapter{
		analyzer:   analyzer,
		imageSynth: imageSynth,
		textSynth:  textSynth,
		breakers:   breakers,
		retry:      retry,
		timeouts:   timeouts,
		log:        log,
	}
}

// Analyze runs the Analyzer capability under its timeout, breaker, and retry policy.
func (a *StageAdapter) Analyze(ctx context.Context, req domain.AnalyzeRequest) (domain.Analysis, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeouts.Analysis)
	defer cancel()

	result, err := a.breakers.Execute(ctx, breaker.CapabilityAnalyzer, func(ctx context.Context) (any, error) {
		var analysis domain.Analysis
		err := withRetry(ctx, a.retry, a.log, "analyze", func(ctx context.Context) error {
			var callErr error
			analysis, callErr = a.analyzer.Analyze(ctx, req)
			return callErr
		})
		return analysis, err
	})
	if err != nil {
		return domain.Analysis{}, normalizeErr(err, ctx)
	}
	return result.(domain.Analysis), nil
}

// SynthesizeImage runs the ImageSynthesizer capability under its timeout, breaker, and retry policy.
func (a *StageAdapter) SynthesizeImage(ctx context.Context, req domain.SynthesizeRequest) (domain.ImageAsset, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeouts.Image)
	defer cancel()

	result, err := a.breakers.Execute(ctx, breaker.CapabilityImageSynthesizer, func(ctx context.Context) (any, error) {
		var asset domain.ImageAsset
		err := withRetry(ctx, a.retry, a.log, "synthesize_image", func(ctx context.Context) error {
			var callErr error
			asset, callErr = a.imageSynth.Synthesize(ctx, req)
			return callErr
		})
		return asset, err
	})
	if err != nil {
		return domain.ImageAsset{}, normalizeErr(err, ctx)
	}
	return result.(domain.ImageAsset), nil
}

// SynthesizeText runs the TextSynthesizer capability under its timeout, breaker, and retry policy.
func (a *StageAdapter) SynthesizeText(ctx context.Context, tctx domain.TextContext) (domain.TextBundle, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeouts.Text)
	defer cancel()

	result, err := a.breakers.Execute(ctx, breaker.CapabilityTextSynthesizer, func(ctx context.Context) (any, error) {
		var bundle domain.TextBundle
		err := withRetry(ctx, a.retry, a.log, "synthesize_text", func(ctx context.Context) error {
			var callErr error
			bundle, callErr = a.textSynth.SynthesizeText(ctx, tctx)
			return callErr
		})
		return bundle, err
	})
	if err != nil {
		return domain.TextBundle{}, normalizeErr(err, ctx)
	}
	return result.(domain.TextBundle), nil
}

// normalizeErr classifies a raw error into the domain taxonomy, special-casing
// context expiry so timeouts and cancellations are never mistaken for a
// capability-reported Fatal error.
func normalizeErr(err error, ctx context.Context) error {
	if derr, ok := err.(*domain.Error); ok {
		return derr
	}
	if ctx.Err() == context.DeadlineExceeded {
		return &domain.Error{Kind: domain.KindTimeout, Message: err.Error()}
	}
	if ctx.Err() == context.Canceled {
		return &domain.Error{Kind: domain.KindCancelled, Message: err.Error()}
	}
	return &domain.Error{Kind: domain.ClassifyKind(""), Message: err.Error()}
}
