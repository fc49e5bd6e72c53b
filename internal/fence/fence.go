// Package fence orders writes by the time an operation was issued rather than
// the time it finished, so a slow early response can never overwrite the
// result of a faster later one.
package fence

import (
	"context"
	"sync"
	"sync/atomic"
)

// Ticket is the issue position of one operation. Zero is never issued.
type Ticket uint64

// Sequence hands out strictly increasing tickets. The zero value is ready.
type Sequence struct {
	n atomic.Uint64
}

func (s *Sequence) Next() Ticket {
	return Ticket(s.n.Add(1))
}

// Register is a last-write-wins cell keyed on ticket order.
type Register[T any] struct {
	mu sync.RWMutex
	at Ticket
	v  T
}

// Commit stores v unless a ticket issued later than t already committed.
// It reports whether v was stored.
func (r *Register[T]) Commit(t Ticket, v T) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t <= r.at {
		return false
	}
	r.at = t
	r.v = v
	return true
}

// Load returns the committed value and the ticket that wrote it.
func (r *Register[T]) Load() (T, Ticket) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.v, r.at
}

// Slot fences one view-level state slice: every Begin supersedes the fetch
// started by the previous Begin, canceling its context, and only the newest
// issued fetch that finishes may commit.
type Slot[T any] struct {
	seq Sequence
	reg Register[T]

	mu     sync.Mutex
	latest Ticket
	cancel context.CancelFunc
}

// Begin starts a fetch. The returned context is canceled when parent is done,
// when a newer Begin supersedes this one, or when done is called.
func (s *Slot[T]) Begin(parent context.Context) (ctx context.Context, t Ticket, done func()) {
	ctx, cancel := context.WithCancel(parent)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	t = s.seq.Next()
	s.latest = t
	s.cancel = cancel
	s.mu.Unlock()

	done = func() {
		s.mu.Lock()
		if s.latest == t {
			s.cancel = nil
		}
		s.mu.Unlock()
		cancel()
	}
	return ctx, t, done
}

// Current reports whether t is still the newest issued fetch.
func (s *Slot[T]) Current(t Ticket) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest == t
}

func (s *Slot[T]) Commit(t Ticket, v T) bool {
	return s.reg.Commit(t, v)
}

// Load returns the last committed value; ok is false before any commit.
func (s *Slot[T]) Load() (v T, ok bool) {
	v, at := s.reg.Load()
	return v, at != 0
}
