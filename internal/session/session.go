package session

import (
	"sync"
	"time"

	"office-assistant/internal/history"
	"office-assistant/internal/pending"
)

// Session owns one conversation transcript and at most one pending action.
// Turns for the same session are serialized with Lock/Unlock.
type Session struct {
	key     string
	turn    sync.Mutex
	history *history.Transcript
	pending *pending.Slot

	// guarded by Registry.mu
	lastSeen time.Time
	refs     int
}

func newSession(key string, repo pending.Repository, now time.Time) *Session {
	return &Session{
		key:      key,
		history:  history.NewTranscript(),
		pending:  pending.NewSlot(key, repo),
		lastSeen: now,
	}
}

func (s *Session) Key() string                  { return s.key }
func (s *Session) History() *history.Transcript { return s.history }
func (s *Session) Pending() *pending.Slot       { return s.pending }

// Lock takes the exclusive turn lock.
func (s *Session) Lock() { s.turn.Lock() }

func (s *Session) Unlock() { s.turn.Unlock() }
