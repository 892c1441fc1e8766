package session

import (
	"log"
	"sync"
	"time"

	"office-assistant/internal/pending"
)

type Options struct {
	// TTL is the idle time after which Sweep evicts a session. Zero disables expiry.
	TTL time.Duration
	// Capacity bounds the number of live sessions. Zero means unbounded.
	Capacity int
	// Repository persists pending actions across restarts. Optional.
	Repository pending.Repository
	Now        func() time.Time
}

// Registry maps session keys to sessions.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	opts     Options
}

func NewRegistry(opts Options) *Registry {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Registry{sessions: make(map[string]*Session), opts: opts}
}

// Acquire returns the session for key, creating it if absent, and pins it
// against eviction until Release is called. A new session is published with
// its turn lock held until its pending action is restored.
func (r *Registry) Acquire(key string) *Session {
	r.mu.Lock()
	now := r.opts.Now()
	if s, ok := r.sessions[key]; ok {
		s.lastSeen = now
		s.refs++
		r.mu.Unlock()
		return s
	}
	var victim *Session
	if r.opts.Capacity > 0 && len(r.sessions) >= r.opts.Capacity {
		victim = r.evictOldestLocked()
	}
	s := newSession(key, r.opts.Repository, now)
	s.refs++
	s.turn.Lock()
	r.sessions[key] = s
	r.mu.Unlock()

	if victim != nil {
		discard(victim)
	}
	if err := s.pending.Restore(); err != nil {
		log.Printf("⚠️ failed to restore pending action for %s: %v", key, err)
	}
	s.turn.Unlock()
	return s
}

// Release unpins a session obtained from Acquire.
func (r *Registry) Release(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.refs > 0 {
		s.refs--
	}
	s.lastSeen = r.opts.Now()
}

func (r *Registry) Get(key string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[key]
	return s, ok
}

// Evict drops the session and its pending action. It reports whether a
// session was present.
func (r *Registry) Evict(key string) bool {
	r.mu.Lock()
	s, ok := r.sessions[key]
	if ok {
		r.dropLocked(s)
	}
	r.mu.Unlock()
	if ok {
		discard(s)
	}
	return ok
}

// Sweep evicts sessions idle for longer than TTL. Sessions with a turn in
// flight are skipped.
func (r *Registry) Sweep() int {
	if r.opts.TTL <= 0 {
		return 0
	}
	r.mu.Lock()
	cutoff := r.opts.Now().Add(-r.opts.TTL)
	var expired []*Session
	for _, s := range r.sessions {
		if s.refs == 0 && s.lastSeen.Before(cutoff) {
			r.dropLocked(s)
			expired = append(expired, s)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		discard(s)
	}
	return len(expired)
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

func (r *Registry) evictOldestLocked() *Session {
	var oldest *Session
	for _, s := range r.sessions {
		if s.refs > 0 {
			continue
		}
		if oldest == nil || s.lastSeen.Before(oldest.lastSeen) {
			oldest = s
		}
	}
	if oldest == nil {
		log.Printf("⚠️ session registry over capacity (%d) and every session is busy", r.opts.Capacity)
		return nil
	}
	r.dropLocked(oldest)
	return oldest
}

// dropLocked unpublishes s and removes its persisted pending action before
// r.mu is released, so a new session for the same key never restores it.
func (r *Registry) dropLocked(s *Session) {
	delete(r.sessions, s.key)
	if !s.pending.Detach() || r.opts.Repository == nil {
		return
	}
	if err := r.opts.Repository.Remove(s.key); err != nil {
		log.Printf("⚠️ failed to remove persisted pending action for %s: %v", s.key, err)
	}
}

func discard(s *Session) {
	_ = s.pending.Clear()
	s.history.Reset()
}
