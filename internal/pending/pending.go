package pending

import (
	"log"
	"sync"
	"time"
)

// Kind tags the deferred intent.
type Kind string

const (
	KindTask  Kind = "task"
	KindEvent Kind = "event"
	KindEmail Kind = "email"
)

// Action is a partially specified request waiting for one missing slot.
type Action struct {
	Kind      Kind      `json:"kind"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

type Store interface {
	Save(kind Kind, details string) error
	Get() (Action, bool)
	Clear() error
}

// Slot holds at most one pending action. Saving replaces whatever was there.
// When a Repository is attached, every change is written through under key.
type Slot struct {
	mu     sync.Mutex
	action *Action
	key    string
	repo   Repository
	now    func() time.Time
}

var _ Store = (*Slot)(nil)

func NewSlot(key string, repo Repository) *Slot {
	return &Slot{key: key, repo: repo, now: time.Now}
}

// Restore loads a persisted action into the slot without writing it back.
func (s *Slot) Restore() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.repo == nil {
		return nil
	}
	a, ok, err := s.repo.Load(s.key)
	if err != nil {
		return err
	}
	if ok {
		s.action = &a
	} else {
		s.action = nil
	}
	return nil
}

// Detach stops write-through. Later changes stay in memory only, so a
// dropped session can no longer touch the record its key points to.
// It reports whether the slot held an action.
func (s *Slot) Detach() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repo = nil
	return s.action != nil
}

func (s *Slot) Save(kind Kind, details string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a := Action{Kind: kind, Details: details, CreatedAt: s.now().UTC()}
	s.action = &a
	if s.repo != nil {
		if err := s.repo.Upsert(s.key, a); err != nil {
			log.Printf("⚠️ failed to persist pending action for %s: %v", s.key, err)
			return err
		}
	}
	return nil
}

func (s *Slot) Get() (Action, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.action == nil {
		return Action{}, false
	}
	return *s.action, true
}

func (s *Slot) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	had := s.action != nil
	s.action = nil
	if s.repo != nil && had {
		if err := s.repo.Remove(s.key); err != nil {
			log.Printf("⚠️ failed to remove persisted pending action for %s: %v", s.key, err)
			return err
		}
	}
	return nil
}
