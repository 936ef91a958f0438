// Package reaper implements the TTL Reaper: a single background
// ticker that evicts terminal jobs older than a configured age.
package reaper

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"adgen/internal/orchestrator/domain"
)

// Lister is the subset of store.Store the reaper needs to find eviction
// candidates and remove them.
type Lister interface {
	List() []domain.Job
	Delete(id string) bool
}

// Reaper periodically sweeps for terminal jobs past their TTL.
type Reaper struct {
	store    Lister
	interval time.Duration
	ttl      time.Duration
	log      zerolog.Logger
	stop     chan struct{}
}

// New constructs a Reaper. An interval of zero disables the sweep entirely
// (Run returns immediately).
func New(store Lister, interval, ttl time.Duration, log zerolog.Logger) *Reaper {
	return &Reaper{store: store, interval: interval, ttl: ttl, log: log, stop: make(chan struct{})}
}

// Run blocks, sweeping every interval until ctx is cancelled or Stop is called.
func (r *Reaper) Run(ctx context.Context) {
	if r.interval <= 0 {
		r.log.Debug().Msg("reaper: disabled, cleanup interval is zero")
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("reaper: context cancelled, shutting down")
			return
		case <-r.stop:
			r.log.Info().Msg("reaper: stopped")
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

// Stop halts a running reaper without cancelling the caller's context.
func (r *Reaper) Stop() {
	close(r.stop)
}

func (r *Reaper) sweep() {
	now := time.Now().UTC()
	evicted := 0
	for _, job := range r.store.List() {
		if !isTerminal(job.Status) {
			continue
		}
		if now.Sub(job.CreatedAt) <= r.ttl {
			continue
		}
		if r.store.Delete(job.ID) {
			evicted++
		}
	}
	if evicted > 0 {
		r.log.Debug().Int("evicted", evicted).Msg("reaper: swept terminal jobs past TTL")
	}
}

func isTerminal(status domain.Status) bool {
	return status == domain.StatusCompleted || status == domain.StatusFailed
}
