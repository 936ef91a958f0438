// Package orchestrator wires the Job Store, Progress Bus, Scheduler,
// Pipeline Executor, Stage Adapters, and TTL Reaper into the single public
// surface: Submit, GetStatus, ListJobs, DeleteJob, SubscribeProgress,
// WaitForCompletion, SystemStatus, BuildBundle, Shutdown.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"adgen/internal/orchestrator/adapters"
	"adgen/internal/orchestrator/breaker"
	"adgen/internal/orchestrator/bundle"
	"adgen/internal/orchestrator/bus"
	"adgen/internal/orchestrator/domain"
	"adgen/internal/orchestrator/executor"
	"adgen/internal/orchestrator/reaper"
	"adgen/internal/orchestrator/scheduler"
	"adgen/internal/orchestrator/store"
	"adgen/internal/orchestrator/validate"
	"adgen/internal/storage"
)

// StatusSnapshot is the read-only view returned by GetStatus.
type StatusSnapshot struct {
	ID          string
	Status      domain.Status
	Progress    domain.Progress
	Result      *domain.Result
	Error       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// SystemStatusSnapshot is the read-only view returned by SystemStatus.
type SystemStatusSnapshot struct {
	ActiveCount   int
	MaxConcurrent int
	TotalJobs     int
}

// ErrTimeout is returned by WaitForCompletion when the timeout elapses
// before the job reaches a terminal state.
type ErrTimeout struct{ JobID string }

func (e *ErrTimeout) Error() string { return fmt.Sprintf("timed out waiting for job %s", e.JobID) }

// Orchestrator is the facade transports (HTTP, CLI) consume.
type Orchestrator struct {
	cfg       Config
	store     *store.Store
	bus       *bus.Bus
	scheduler *scheduler.Scheduler
	executor  *executor.Executor
	reaper    *reaper.Reaper
	creds     validate.Credentials
	diskStore *storage.FileStore
	log       zerolog.Logger

	reaperCtx    context.Context
	reaperCancel context.CancelFunc
}

// WithDiskStore configures an optional on-disk sink that BuildBundle writes
// every archive to in addition to returning it in memory.
func WithDiskStore(fs *storage.FileStore) func(*Orchestrator) {
	return func(o *Orchestrator) { o.diskStore = fs }
}

// New wires every component from cfg and the three capability implementations.
func New(cfg Config, analyzer domain.Analyzer, imageSynth domain.ImageSynthesizer, textSynth domain.TextSynthesizer, creds validate.Credentials, log zerolog.Logger, opts ...func(*Orchestrator)) *Orchestrator {
	b := bus.New(log)
	st := store.New(b, log)
	sch := scheduler.New(cfg.MaxConcurrentJobs)

	breakers := breaker.New(breaker.Policy{
		MaxRequestsHalfOpen: cfg.CircuitBreaker.MaxRequestsHalfOpen,
		OpenInterval:        cfg.CircuitBreaker.OpenInterval,
		OpenTimeout:         cfg.CircuitBreaker.OpenTimeout,
		MinRequestsToTrip:   cfg.CircuitBreaker.MinRequestsToTrip,
		FailureRatioToTrip:  cfg.CircuitBreaker.FailureRatioToTrip,
	}, breaker.CapabilityAnalyzer, breaker.CapabilityImageSynthesizer, breaker.CapabilityTextSynthesizer)

	stageAdapter := adapters.New(analyzer, imageSynth, textSynth, breakers, adapters.RetryPolicy{
		MaxAttempts:    cfg.Retry.MaxAttempts,
		InitialBackoff: cfg.Retry.InitialBackoff,
		Multiplier:     cfg.Retry.Multiplier,
	}, adapters.Timeouts{
		Analysis: cfg.AnalysisTimeout,
		Image:    cfg.ImageTimeout,
		Text:     cfg.TextsTimeout,
	}, log)

	exec := executor.New(stageAdapter, st, executor.Pacing{
		IntraBranchConcurrency: cfg.IntraBranchConcurrency,
		InterChunkPause:        cfg.InterChunkPause,
	}, log)

	r := reaper.New(st, cfg.CleanupInterval, cfg.JobTTL, log)
	reaperCtx, reaperCancel := context.WithCancel(context.Background())

	o := &Orchestrator{
		cfg:          cfg,
		store:        st,
		bus:          b,
		scheduler:    sch,
		executor:     exec,
		reaper:       r,
		creds:        creds,
		log:          log,
		reaperCtx:    reaperCtx,
		reaperCancel: reaperCancel,
	}
	for _, opt := range opts {
		opt(o)
	}

	go r.Run(reaperCtx)
	return o
}

// Submit validates imageBytes and opts, admits the job, and launches the
// pipeline asynchronously.
func (o *Orchestrator) Submit(ctx context.Context, imageBytes []byte, opts domain.Options) (jobID string, status domain.Status, estimatedSeconds int, err error) {
	if err := validate.Image(imageBytes); err != nil {
		return "", "", 0, err
	}

	opts = domain.NormalizeOptions(opts)
	if err := validate.Options(opts); err != nil {
		return "", "", 0, err
	}
	if err := validate.RequiredCapabilities(opts, o.creds); err != nil {
		return "", "", 0, err
	}

	admitted, admitErr := o.scheduler.TryAdmit()
	if !admitted {
		return "", "", 0, admitErr
	}

	job := o.store.Create(opts)
	jobCtx := context.Background()
	go func() {
		defer o.scheduler.Release()
		o.executor.Run(jobCtx, job, imageBytes)
	}()

	return job.ID, job.Status, opts.EstimatedSeconds(), nil
}

// GetStatus returns a snapshot of the job's current state, or false if unknown.
func (o *Orchestrator) GetStatus(jobID string) (StatusSnapshot, bool) {
	job, ok := o.store.Get(jobID)
	if !ok {
		return StatusSnapshot{}, false
	}
	return snapshotFrom(job), true
}

// ListJobs returns a snapshot of every job currently tracked.
func (o *Orchestrator) ListJobs() []StatusSnapshot {
	jobs := o.store.List()
	out := make([]StatusSnapshot, len(jobs))
	for i, job := range jobs {
		out[i] = snapshotFrom(job)
	}
	return out
}

// DeleteJob removes a job and tears down its subscriptions.
func (o *Orchestrator) DeleteJob(jobID string) bool {
	return o.store.Delete(jobID)
}

// SubscribeProgress registers callback for jobID and returns an unsubscribe
// handle. callback receives a replay event synchronously via the returned
// subscription before this call returns true.
func (o *Orchestrator) SubscribeProgress(jobID string, callback func(domain.ProgressEvent)) (bus.Unsubscribe, bool) {
	return o.store.Subscribe(jobID, callback)
}

// WaitForCompletion blocks until jobID reaches a terminal state or timeout
// elapses, resolving immediately if the job is already terminal.
func (o *Orchestrator) WaitForCompletion(jobID string, timeout time.Duration) (domain.Job, error) {
	terminal := make(chan domain.ProgressEvent, 1)

	unsub, ok := o.store.Subscribe(jobID, func(evt domain.ProgressEvent) {
		if evt.Kind == domain.EventComplete || evt.Kind == domain.EventError {
			select {
			case terminal <- evt:
			default:
			}
		}
	})
	if !ok {
		return domain.Job{}, &store.ErrNotFound{ID: jobID}
	}
	defer unsub()

	select {
	case <-terminal:
		job, _ := o.store.Get(jobID)
		return job, nil
	case <-time.After(timeout):
		return domain.Job{}, &ErrTimeout{JobID: jobID}
	}
}

// SystemStatus reports admission and job-count aggregates.
func (o *Orchestrator) SystemStatus() SystemStatusSnapshot {
	active, max := o.scheduler.Snapshot()
	return SystemStatusSnapshot{
		ActiveCount:   active,
		MaxConcurrent: max,
		TotalJobs:     len(o.store.List()),
	}
}

// BuildBundle materializes the output bundle for jobID. When a disk
// sink is configured (WithDiskStore), the archive is additionally persisted
// there; a persistence failure is logged but does not fail the call, since
// the in-memory archive is already valid to return.
func (o *Orchestrator) BuildBundle(jobID string) ([]byte, error) {
	job, ok := o.store.Get(jobID)
	if !ok {
		return nil, &store.ErrNotFound{ID: jobID}
	}
	archive, err := bundle.Build(job)
	if err != nil {
		return nil, err
	}
	if o.diskStore != nil {
		if _, err := bundle.SaveToDisk(context.Background(), o.diskStore, jobID, archive); err != nil {
			o.log.Warn().Str("job_id", jobID).Err(err).Msg("orchestrator: failed to persist bundle to disk")
		}
	}
	return archive, nil
}

// Shutdown stops the reaper. In-flight jobs run to completion.
func (o *Orchestrator) Shutdown() {
	o.reaperCancel()
}

func snapshotFrom(job domain.Job) StatusSnapshot {
	return StatusSnapshot{
		ID:          job.ID,
		Status:      job.Status,
		Progress:    job.Progress,
		Result:      job.Result,
		Error:       job.Error,
		CreatedAt:   job.CreatedAt,
		UpdatedAt:   job.UpdatedAt,
		CompletedAt: job.CompletedAt,
	}
}
