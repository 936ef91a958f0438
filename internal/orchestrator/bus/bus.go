// Package bus implements the per-job Progress Bus: fan-out of
// ProgressEvents to any number of subscribers with replay-on-subscribe,
// per-subscriber callback serialization, and panic containment.
//
// The subscriber registry holds weak-by-convention references: the Store
// owns job lifetime, a subscription never extends it.
package bus

import (
	"sync"

	"github.com/rs/zerolog"

	"adgen/internal/orchestrator/domain"
)

const mailboxCapacity = 64

// Unsubscribe, once it returns, guarantees no further callback begins for
// that subscription. A callback already in flight is allowed to finish.
type Unsubscribe func()

type subscriber struct {
	mu       sync.Mutex
	mailbox  chan domain.ProgressEvent
	callback func(domain.ProgressEvent)
	closed   bool
	log      zerolog.Logger
}

func newSubscriber(callback func(domain.ProgressEvent), log zerolog.Logger) *subscriber {
	s := &subscriber{
		mailbox:  make(chan domain.ProgressEvent, mailboxCapacity),
		callback: callback,
		log:      log,
	}
	go s.run()
	return s
}

func (s *subscriber) run() {
	for evt := range s.mailbox {
		s.mu.Lock()
		if !s.closed {
			s.invoke(evt)
		}
		s.mu.Unlock()
	}
}

func (s *subscriber) invoke(evt domain.ProgressEvent) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Warn().Str("job_id", evt.JobID).Interface("panic", r).Msg("bus: subscriber callback panicked")
		}
	}()
	s.callback(evt)
}

// deliver enqueues evt for this subscriber only, never blocking the
// publisher: a full mailbox drops the event for this subscriber and logs a
// warning, leaving every other subscriber unaffected. It must be called
// while the owning topic's lock is held so closed cannot flip concurrently
// underneath it.
func (s *subscriber) deliver(evt domain.ProgressEvent) {
	if s.closed {
		return
	}
	select {
	case s.mailbox <- evt:
	default:
		s.log.Warn().Str("job_id", evt.JobID).Msg("bus: subscriber mailbox full, dropping event")
	}
}

func (s *subscriber) unsubscribe() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.mailbox)
	}
	s.mu.Unlock()
}

type topic struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]*subscriber
}

// Bus is the process-wide fan-out registry, one topic per job id.
type Bus struct {
	mu     sync.Mutex
	topics map[string]*topic
	log    zerolog.Logger
}

// New constructs an empty Bus.
func New(log zerolog.Logger) *Bus {
	return &Bus{
		topics: make(map[string]*topic),
		log:    log,
	}
}

func (b *Bus) topicFor(jobID string) *topic {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.topics[jobID]
	if !ok {
		t = &topic{subs: make(map[uint64]*subscriber)}
		b.topics[jobID] = t
	}
	return t
}

// Subscribe registers callback for jobID and synchronously delivers replay
// as the first event before returning (replay-on-subscribe). Callers must
// supply replay themselves — the Bus has no notion of "current state"; the
// Job Store computes it under the job's own lock and passes it in here so
// registration and replay delivery are atomic with respect to concurrent
// Publish calls for the same job.
func (b *Bus) Subscribe(jobID string, callback func(domain.ProgressEvent), replay domain.ProgressEvent) Unsubscribe {
	t := b.topicFor(jobID)
	sub := newSubscriber(callback, b.log)

	t.mu.Lock()
	id := t.nextID
	t.nextID++
	t.subs[id] = sub
	sub.deliver(replay)
	t.mu.Unlock()

	return func() {
		t.mu.Lock()
		delete(t.subs, id)
		t.mu.Unlock()
		sub.unsubscribe()
	}
}

// Publish fans evt out to every live subscriber of evt.JobID. It must be
// called while the publisher holds that job's own lock so every subscriber
// observes the same total order of events.
func (b *Bus) Publish(evt domain.ProgressEvent) {
	b.mu.Lock()
	t, ok := b.topics[evt.JobID]
	b.mu.Unlock()
	if !ok {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, sub := range t.subs {
		sub.deliver(evt)
	}
}

// Close tears down every subscription for jobID, closing each mailbox so no
// further callback begins. Used by Store.Delete and the TTL Reaper.
func (b *Bus) Close(jobID string) {
	b.mu.Lock()
	t, ok := b.topics[jobID]
	delete(b.topics, jobID)
	b.mu.Unlock()
	if !ok {
		return
	}

	t.mu.Lock()
	subs := make([]*subscriber, 0, len(t.subs))
	for _, sub := range t.subs {
		subs = append(subs, sub)
	}
	t.subs = nil
	t.mu.Unlock()

	for _, sub := range subs {
		sub.unsubscribe()
	}
}
