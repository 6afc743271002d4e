package sessions

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"config-lab/contract"
	"config-lab/domain"
	"config-lab/errors"
	"config-lab/registry"
)

// entry pairs a session with its private mutex. Operations on the same
// key serialize on this mutex; the store-level lock only guards the map
// bookkeeping, so unrelated keys never contend.
type entry struct {
	mu      sync.Mutex
	removed bool
	session *domain.Session
}

// Store owns the session map. It is the sole mutator of session state;
// every other component reaches a session through Mutate or receives a
// detached deep copy. Constructed at process start, flushed to the
// durable repository at shutdown.
type Store struct {
	mu       sync.RWMutex
	entries  map[string]*entry
	registry *registry.Registry
	repo     contract.SessionRepository
	log      *slog.Logger
}

// NewStore builds a store. repo may be nil to disable persistence
// (unit tests).
func NewStore(reg *registry.Registry, repo contract.SessionRepository, log *slog.Logger) *Store {
	return &Store{
		entries:  make(map[string]*entry),
		registry: reg,
		repo:     repo,
		log:      log,
	}
}

// Create registers a new session under key with a fresh all-defaults
// draft. The key must not already exist.
func (s *Store) Create(key string, feature domain.FeatureType, prov domain.Provenance) (domain.Session, error) {
	draft, err := s.registry.DefaultDraft(feature)
	if err != nil {
		return domain.Session{}, err
	}

	session := &domain.Session{
		Key:        key,
		Feature:    feature,
		Provenance: prov,
		Draft:      draft,
		Default:    draft.Clone(),
		Status:     domain.StatusOpen,
		CreatedAt:  time.Now().UTC(),
	}

	// The entry lock is held across publication and the initial persist,
	// so a mutation racing the create serializes behind it and its
	// snapshot can never be overwritten on disk by the initial one.
	e := &entry{session: session}
	e.mu.Lock()
	defer e.mu.Unlock()

	s.mu.Lock()
	if _, exists := s.entries[key]; exists {
		s.mu.Unlock()
		return domain.Session{}, fmt.Errorf("%w: %s", errors.ErrDuplicateKey, key)
	}
	s.entries[key] = e
	s.mu.Unlock()

	snapshot := session.Clone()
	s.persist(snapshot)
	return snapshot, nil
}

// Get returns a detached copy of the session, if present.
func (s *Store) Get(key string) (domain.Session, bool) {
	e := s.lookup(key)
	if e == nil {
		return domain.Session{}, false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return domain.Session{}, false
	}
	return e.session.Clone(), true
}

// Mutate applies fn to the session under its exclusive critical section
// and persists the result. Calls for the same key are strictly
// serialized in arrival order; calls for different keys are independent.
// fn must either leave the session untouched or return nil: a non-nil
// error aborts the operation without persisting.
func (s *Store) Mutate(key string, fn func(*domain.Session) error) (domain.Session, error) {
	e := s.lookup(key)
	if e == nil {
		return domain.Session{}, fmt.Errorf("%w: %s", errors.ErrNotFound, key)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return domain.Session{}, fmt.Errorf("%w: %s", errors.ErrNotFound, key)
	}
	if err := fn(e.session); err != nil {
		return domain.Session{}, err
	}
	snapshot := e.session.Clone()
	// Persisting under the entry lock keeps the durable copy ordered
	// with respect to mutations of the same key.
	s.persist(snapshot)
	return snapshot, nil
}

// Remove deletes the session. Idempotent: reports whether one existed.
func (s *Store) Remove(key string) bool {
	s.mu.Lock()
	e, ok := s.entries[key]
	if ok {
		delete(s.entries, key)
	}
	s.mu.Unlock()
	if !ok {
		return false
	}

	// Mark the entry so a mutation that already resolved it fails
	// with NotFound instead of writing to an orphan.
	e.mu.Lock()
	e.removed = true
	e.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.DeleteSession(key); err != nil {
			s.log.Warn("Failed to delete persisted session", "key", key, "err", err)
		}
	}
	return true
}

// RemoveIf deletes the session only when pred holds for its current
// state, atomically with the check: no mutation can land between the
// predicate passing and the entry going dead. pred must treat the
// session as read-only. Returns a detached copy of the removed session
// when one was removed.
func (s *Store) RemoveIf(key string, pred func(domain.Session) bool) (domain.Session, bool) {
	e := s.lookup(key)
	if e == nil {
		return domain.Session{}, false
	}

	e.mu.Lock()
	if e.removed || !pred(*e.session) {
		e.mu.Unlock()
		return domain.Session{}, false
	}
	e.removed = true
	snapshot := e.session.Clone()
	e.mu.Unlock()

	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()

	if s.repo != nil {
		if err := s.repo.DeleteSession(key); err != nil {
			s.log.Warn("Failed to delete persisted session", "key", key, "err", err)
		}
	}
	return snapshot, true
}

// Snapshot returns detached copies of every live session. The map lock
// is held only while collecting entry refs, so ordinary mutations on
// unrelated keys are not blocked beyond that.
func (s *Store) Snapshot() []domain.Session {
	s.mu.RLock()
	refs := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		refs = append(refs, e)
	}
	s.mu.RUnlock()

	out := make([]domain.Session, 0, len(refs))
	for _, e := range refs {
		e.mu.Lock()
		if !e.removed {
			out = append(out, e.session.Clone())
		}
		e.mu.Unlock()
	}
	return out
}

// ForEach runs fn on a snapshot copy of every live session.
func (s *Store) ForEach(fn func(domain.Session)) {
	for _, session := range s.Snapshot() {
		fn(session)
	}
}

// Len reports the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// LoadAll rehydrates the map from the durable repository. Intended for
// boot, before any concurrent access.
func (s *Store) LoadAll() error {
	if s.repo == nil {
		return nil
	}
	sessions, err := s.repo.LoadSessions()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, session := range sessions {
		restored := session.Clone()
		s.entries[session.Key] = &entry{session: &restored}
	}
	s.log.Info("Restored sessions from disk", "count", len(sessions))
	return nil
}

// Flush persists every live session synchronously. Called at shutdown:
// the process is not cleanly stopped until this returns.
func (s *Store) Flush() error {
	if s.repo == nil {
		return nil
	}
	var failed int
	for _, session := range s.Snapshot() {
		if err := s.repo.SaveSession(session); err != nil {
			failed++
			s.log.Warn("Failed to flush session", "key", session.Key, "err", err)
		}
	}
	if failed > 0 {
		return fmt.Errorf("flush incomplete: %d session(s) not persisted", failed)
	}
	return nil
}

func (s *Store) lookup(key string) *entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.entries[key]
}

func (s *Store) persist(session domain.Session) {
	if s.repo == nil {
		return
	}
	if err := s.repo.SaveSession(session); err != nil {
		s.log.Warn("Failed to persist session", "key", session.Key, "err", err)
	}
}
