package app

import (
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/recruit/internal/domain"
)

// entry guards one session. mu covers the roster; deliverMu serializes
// delivery of rendered views so a slow edit never overwrites a newer one.
type entry struct {
	mu      sync.Mutex
	session *domain.Session
	version uint64
	removed bool

	deliverMu sync.Mutex
	attempted uint64
}

func (e *entry) isRemoved() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.removed
}

// Snapshot is a copy of a session taken under its lock, tagged with the
// version it was read at.
type Snapshot struct {
	Session *domain.Session `json:"session"`
	Version uint64          `json:"version"`
}

// Store owns every live session for the process lifetime. The map is guarded
// by mu; each session by its own entry lock, so events on different sessions
// never contend.
type Store struct {
	mu      sync.RWMutex
	entries map[domain.SessionID]*entry
}

func NewStore() *Store {
	return &Store{entries: make(map[domain.SessionID]*entry)}
}

func (s *Store) lookup(id domain.SessionID) (*entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	return e, ok
}

// Create stores a new session at version 1.
func (s *Store) Create(sess *domain.Session) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[sess.ID]; ok {
		return Snapshot{}, domain.ErrSessionExists
	}
	e := &entry{session: sess, version: 1}
	s.entries[sess.ID] = e
	log.Info().Str("module", "app.store").Str("sid", string(sess.ID)).Str("host", string(sess.Host)).Msg("session created")
	return Snapshot{Session: sess.Clone(), Version: e.version}, nil
}

// Get returns a snapshot of a session.
func (s *Store) Get(id domain.SessionID) (Snapshot, error) {
	e, ok := s.lookup(id)
	if !ok {
		return Snapshot{}, domain.ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return Snapshot{}, domain.ErrSessionNotFound
	}
	return Snapshot{Session: e.session.Clone(), Version: e.version}, nil
}

// Update runs fn under the session lock. fn reports whether it changed the
// roster; a change bumps the version. The returned snapshot reflects the state
// right after fn.
func (s *Store) Update(id domain.SessionID, fn func(*domain.Session) bool) (Snapshot, error) {
	e, ok := s.lookup(id)
	if !ok {
		return Snapshot{}, domain.ErrSessionNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return Snapshot{}, domain.ErrSessionNotFound
	}
	if fn(e.session) {
		e.version++
	}
	return Snapshot{Session: e.session.Clone(), Version: e.version}, nil
}

// Remove deletes a session if guard allows it. It waits for an in-flight
// delivery to finish, and no delivery happens for the session afterwards.
func (s *Store) Remove(id domain.SessionID, guard func(*domain.Session) error) (*domain.Session, error) {
	e, ok := s.lookup(id)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	e.mu.Lock()
	if e.removed {
		e.mu.Unlock()
		return nil, domain.ErrSessionNotFound
	}
	if guard != nil {
		if err := guard(e.session); err != nil {
			e.mu.Unlock()
			return nil, err
		}
	}
	e.removed = true
	e.session.Active = false
	sess := e.session.Clone()
	e.mu.Unlock()

	s.mu.Lock()
	if s.entries[id] == e {
		delete(s.entries, id)
	}
	s.mu.Unlock()

	// Wait out an in-flight delivery.
	e.deliverMu.Lock()
	e.deliverMu.Unlock()

	log.Info().Str("module", "app.store").Str("sid", string(id)).Msg("session removed")
	return sess, nil
}

// Deliver runs send for a view rendered at version. Deliveries of one
// session are serialized; a version not newer than the last attempted one is
// dropped, as is anything after removal. It reports whether send ran.
func (s *Store) Deliver(id domain.SessionID, version uint64, send func() error) (bool, error) {
	e, ok := s.lookup(id)
	if !ok {
		return false, nil
	}
	e.deliverMu.Lock()
	defer e.deliverMu.Unlock()
	if e.isRemoved() || version <= e.attempted {
		log.Debug().Str("module", "app.store").Str("sid", string(id)).Uint64("version", version).Uint64("attempted", e.attempted).Msg("stale render dropped")
		return false, nil
	}
	e.attempted = version
	return true, send()
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// List returns snapshots of every live session ordered by id.
func (s *Store) List() []Snapshot {
	s.mu.RLock()
	entries := make([]*entry, 0, len(s.entries))
	for _, e := range s.entries {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	out := make([]Snapshot, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.removed {
			out = append(out, Snapshot{Session: e.session.Clone(), Version: e.version})
		}
		e.mu.Unlock()
	}
	slices.SortFunc(out, func(a, b Snapshot) int {
		return strings.Compare(string(a.Session.ID), string(b.Session.ID))
	})
	return out
}
