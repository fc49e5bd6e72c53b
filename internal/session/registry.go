package session

import (
	"context"
	"sync"
	"time"

	"github.com/baechuer/tutorhub/services/web-bff/internal/logger"
	"github.com/google/uuid"
)

// GatewayFactory builds the backend client for a new session.
type GatewayFactory func() (Gateway, error)

// Registry maps session ids to stores. Stores are created lazily and dropped
// after idleTTL without a request.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Store

	newGateway GatewayFactory
	idleTTL    time.Duration
	now        func() time.Time
}

func NewRegistry(newGateway GatewayFactory, idleTTL time.Duration) *Registry {
	return &Registry{
		sessions:   make(map[string]*Store),
		newGateway: newGateway,
		idleTTL:    idleTTL,
		now:        time.Now,
	}
}

// Get returns the live store for sid and marks it as used.
func (r *Registry) Get(sid string) (*Store, bool) {
	if sid == "" {
		return nil, false
	}
	r.mu.RLock()
	st, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	st.touch()
	return st, true
}

// Create starts a new session with its own backend client and cookie jar.
func (r *Registry) Create() (*Store, error) {
	gw, err := r.newGateway()
	if err != nil {
		return nil, err
	}
	st := NewStore(uuid.NewString(), gw)
	st.now = r.now
	st.touch()

	r.mu.Lock()
	r.sessions[st.id] = st
	n := len(r.sessions)
	r.mu.Unlock()

	sessionsCreated.Inc()
	sessionsActive.Set(float64(n))
	return st, nil
}

// Rotate moves old's backend client and signed-in state to a new session id
// and drops old from the registry. Requests still holding old's id start a
// fresh anonymous session.
func (r *Registry) Rotate(old *Store) *Store {
	st := NewStore(uuid.NewString(), old.gw)
	st.now = r.now
	st.adopt(old)
	st.touch()

	r.mu.Lock()
	delete(r.sessions, old.id)
	r.sessions[st.id] = st
	n := len(r.sessions)
	r.mu.Unlock()

	sessionsRotated.Inc()
	sessionsActive.Set(float64(n))
	return st
}

func (r *Registry) Remove(sid string) {
	r.mu.Lock()
	delete(r.sessions, sid)
	n := len(r.sessions)
	r.mu.Unlock()
	sessionsActive.Set(float64(n))
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Sweep evicts every store idle for longer than idleTTL and reports how many
// were removed.
func (r *Registry) Sweep() int {
	now := r.now()

	r.mu.Lock()
	evicted := 0
	for sid, st := range r.sessions {
		if st.idleSince(now) > r.idleTTL {
			delete(r.sessions, sid)
			evicted++
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	if evicted > 0 {
		sessionsEvicted.Add(float64(evicted))
	}
	sessionsActive.Set(float64(n))
	return evicted
}

// Run sweeps periodically until ctx is done.
func (r *Registry) Run(ctx context.Context) {
	interval := r.idleTTL / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(); n > 0 {
				logger.Log.Info().Int("evicted", n).Int("active", r.Len()).Msg("session_sweep")
			}
		}
	}
}
