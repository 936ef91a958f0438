// Package store is the single authority for job records. All reads
// and writes to a Job go through it; readers always observe point-in-time
// snapshots, never a partially-mutated record.
package store

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"adgen/internal/orchestrator/bus"
	"adgen/internal/orchestrator/domain"
)

// ErrNotFound is returned by mutators when the job id is unknown. It is a
// signal, not a fault: callers branch on it without string matching.
type ErrNotFound struct{ ID string }

func (e *ErrNotFound) Error() string { return "job not found: " + e.ID }

type record struct {
	mu  sync.Mutex
	job domain.Job
}

// Store is the in-memory job registry. It publishes through one shared
// bus.Bus (which keeps a topic per job id) while holding the job's record
// lock, so mutation and publish happen under the same per-job critical
// section.
type Store struct {
	mu      sync.RWMutex
	records map[string]*record
	bus     *bus.Bus
	log     zerolog.Logger
}

// New constructs an empty Store. The caller owns the Bus and may continue to
// subscribe to job ids that have not been created yet.
func New(b *bus.Bus, log zerolog.Logger) *Store {
	return &Store{
		records: make(map[string]*record),
		bus:     b,
		log:     log,
	}
}

// Create materializes a new job record in StatusPending and publishes its
// initial replay-able state.
func (s *Store) Create(opts domain.Options) domain.Job {
	job := domain.NewJob(opts)
	rec := &record{job: *job}

	s.mu.Lock()
	s.records[job.ID] = rec
	s.mu.Unlock()

	rec.mu.Lock()
	s.bus.Publish(domain.EventFromJob(rec.job))
	rec.mu.Unlock()

	s.log.Debug().Str("job_id", job.ID).Str("status", string(job.Status)).Msg("store: job created")
	return job.Clone()
}

// Get returns a snapshot copy of the job, or false if it does not exist.
func (s *Store) Get(id string) (domain.Job, bool) {
	rec := s.lookup(id)
	if rec == nil {
		return domain.Job{}, false
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.job.Clone(), true
}

// List returns a snapshot of every current record; ordering is unspecified.
func (s *Store) List() []domain.Job {
	s.mu.RLock()
	recs := make([]*record, 0, len(s.records))
	for _, r := range s.records {
		recs = append(recs, r)
	}
	s.mu.RUnlock()

	out := make([]domain.Job, 0, len(recs))
	for _, r := range recs {
		r.mu.Lock()
		out = append(out, r.job.Clone())
		r.mu.Unlock()
	}
	return out
}

// Delete removes the record and tears down its subscriber set. It reports
// whether a record was actually removed.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	_, existed := s.records[id]
	delete(s.records, id)
	s.mu.Unlock()

	if existed {
		s.bus.Close(id)
		s.log.Debug().Str("job_id", id).Msg("store: job deleted")
	}
	return existed
}

func (s *Store) lookup(id string) *record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[id]
}

// mutate runs fn against the job under its per-record lock, bumps updatedAt,
// and publishes exactly one event reflecting the result — all inside the
// same critical section so the Job Store and Progress Bus never disagree
// about ordering.
func (s *Store) mutate(id string, fn func(j *domain.Job)) error {
	rec := s.lookup(id)
	if rec == nil {
		return &ErrNotFound{ID: id}
	}

	rec.mu.Lock()
	fn(&rec.job)
	rec.job.UpdatedAt = time.Now().UTC()
	if rec.job.Status == domain.StatusCompleted || rec.job.Status == domain.StatusFailed {
		if rec.job.CompletedAt == nil {
			t := rec.job.UpdatedAt
			rec.job.CompletedAt = &t
		}
	}
	s.bus.Publish(domain.EventFromJob(rec.job))
	rec.mu.Unlock()

	return nil
}

// Subscribe registers callback for id and synchronously delivers a replay
// event carrying the job's current state before returning. The
// snapshot is taken and the registration performed under the job's own
// lock, so it cannot race with a concurrent mutation's Publish.
func (s *Store) Subscribe(id string, callback func(domain.ProgressEvent)) (bus.Unsubscribe, bool) {
	rec := s.lookup(id)
	if rec == nil {
		return nil, false
	}

	rec.mu.Lock()
	replay := domain.EventFromJob(rec.job)
	unsub := s.bus.Subscribe(id, callback, replay)
	rec.mu.Unlock()

	return unsub, true
}

// UpdateStatus transitions the job's top-level status.
func (s *Store) UpdateStatus(id string, status domain.Status) error {
	err := s.mutate(id, func(j *domain.Job) {
		j.Status = status
	})
	if err == nil {
		s.log.Debug().Str("job_id", id).Str("status", string(status)).Msg("store: status updated")
	}
	return err
}

// UpdateStage transitions a single stage's status.
func (s *Store) UpdateStage(id string, stage domain.Stage, status domain.StageStatus) error {
	err := s.mutate(id, func(j *domain.Job) {
		j.Progress[stage] = status
	})
	if err == nil {
		s.log.Debug().Str("job_id", id).Str("stage", string(stage)).Str("status", string(status)).Msg("store: stage updated")
	}
	return err
}

// SetError records the job's top-level failure reason without otherwise
// touching status; callers pair this with UpdateStatus(id, StatusFailed).
func (s *Store) SetError(id, message string) error {
	return s.mutate(id, func(j *domain.Job) {
		j.Error = message
	})
}

// MergeResult merges partial stage output into the job's Result, creating it
// on first use. It never overwrites a field the caller did not set.
func (s *Store) MergeResult(id string, patch domain.Result) error {
	return s.mutate(id, func(j *domain.Job) {
		if j.Result == nil {
			j.Result = &domain.Result{}
		}
		if patch.Analysis != nil {
			j.Result.Analysis = patch.Analysis
		}
		if patch.Packages != nil {
			j.Result.Packages = patch.Packages
		}
		if patch.Ads != nil {
			j.Result.Ads = patch.Ads
		}
		if patch.Texts != nil {
			j.Result.Texts = patch.Texts
		}
		if patch.DownloadURL != "" {
			j.Result.DownloadURL = patch.DownloadURL
		}
	})
}
