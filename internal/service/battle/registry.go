package battle

import (
	"context"
	"log"
	"sort"
	"strings"
	"sync"

	model "github.com/zhouzirui/ball-arena/backend/internal/model/battle"
)

// Registry keeps at most one live session per scope key.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	opts     Options
}

// NewRegistry bootstraps an empty in-memory registry.
func NewRegistry(opts Options) *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		opts:     opts.withDefaults(),
	}
}

// Begin creates and starts a session for key between a and b.
func (r *Registry) Begin(ctx context.Context, key string, a, b model.Identity) (*Session, error) {
	key = strings.TrimSpace(key)
	if key == "" || a.None() || b.None() {
		return nil, ErrInvalidIdentity
	}
	if a == b {
		return nil, ErrSameParticipant
	}

	r.mu.Lock()
	if existing, ok := r.sessions[key]; ok && !existing.State().Terminal() {
		r.mu.Unlock()
		return nil, ErrAlreadyActive
	}
	session := newSession(ctx, r, key, a, b)
	r.sessions[key] = session
	r.mu.Unlock()

	log.Printf("[battle] session=%s key=%s started between %s and %s", session.id, key, a, b)
	session.start()
	return session, nil
}

// Get returns the live session registered under key.
func (r *Registry) Get(key string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[key]
	return session, ok
}

// Lookup is Get with ErrNoActiveSession for a missing key.
func (r *Registry) Lookup(key string) (*Session, error) {
	session, ok := r.Get(key)
	if !ok {
		return nil, ErrNoActiveSession
	}
	return session, nil
}

// Remove drops the session registered under key and cancels it if it is still live.
// Removing an unknown key is a no-op.
func (r *Registry) Remove(key string) {
	r.mu.Lock()
	session, ok := r.sessions[key]
	if ok {
		delete(r.sessions, key)
	}
	r.mu.Unlock()

	if ok {
		session.Cancel(DefaultCancelReason)
	}
}

// Active returns the registered sessions ordered by start time.
func (r *Registry) Active() []*Session {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, session := range r.sessions {
		sessions = append(sessions, session)
	}
	r.mu.RUnlock()

	sort.Slice(sessions, func(i, j int) bool {
		if sessions[i].startedAt.Equal(sessions[j].startedAt) {
			return sessions[i].key < sessions[j].key
		}
		return sessions[i].startedAt.Before(sessions[j].startedAt)
	})
	return sessions
}

// Shutdown cancels every live session.
func (r *Registry) Shutdown(reason string) {
	for _, session := range r.Active() {
		session.Cancel(reason)
	}
}

// release removes session only if it is still the entry for key, so a finished session
// never evicts its successor.
func (r *Registry) release(key string, session *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.sessions[key]; ok && current == session {
		delete(r.sessions, key)
	}
}
