// Package scheduler implements admission control: a synchronous
// go/no-go decision against a configurable concurrent-job cap. There is no
// waiting room — overflow is rejected immediately and callers retry.
package scheduler

import (
	"sync"

	"adgen/internal/orchestrator/domain"
)

// Scheduler tracks how many jobs are currently active and refuses admission
// once the cap is reached.
type Scheduler struct {
	mu     sync.Mutex
	active int
	max    int
}

// New constructs a Scheduler with the given maximum concurrent-job count.
func New(max int) *Scheduler {
	if max <= 0 {
		max = 1
	}
	return &Scheduler{max: max}
}

// TryAdmit atomically checks activeCount < max and, if so, increments it and
// returns true. The same mutex guards both the check and the increment so
// admission is linearizable.
func (s *Scheduler) TryAdmit() (admitted bool, err *domain.Error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active >= s.max {
		return false, domain.NewCapacityExhausted(s.active, s.max)
	}
	s.active++
	return true, nil
}

// Release decrements the active count on job termination (Completed or Failed).
func (s *Scheduler) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active > 0 {
		s.active--
	}
}

// Snapshot reports the current active count and configured max for SystemStatus.
func (s *Scheduler) Snapshot() (active, max int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, s.max
}
