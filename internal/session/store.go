// Package session keeps workbench sessions in memory. A session owns one uploaded
// dataset and the latest result of every pipeline stage run over it.
package session

import (
	"sort"
	"sync"
	"time"

	"featurelab/domain/core"
	"featurelab/domain/dataset"
	"featurelab/internal"
	"featurelab/internal/errors"
	"featurelab/internal/pipeline"
)

var logger = internal.DefaultLogger.With("SessionStore")

// Session is one uploaded dataset and its derived state. Tables are never mutated
// after they are stored, so copies of a Session share them safely.
type Session struct {
	ID          core.ID
	Dataset     string
	DroppedRows int
	Raw         *dataset.Table
	Selection   pipeline.Selection
	Processed   *pipeline.Processed
	Clustered   *pipeline.ClusterResult
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Store is a concurrency safe in-memory session registry
type Store struct {
	mu       sync.RWMutex
	sessions map[core.ID]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewStore creates a store whose sessions expire after ttl of inactivity; a
// non-positive ttl keeps sessions forever.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		sessions: make(map[core.ID]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create registers a new session for a freshly loaded dataset
func (s *Store) Create(name string, raw *dataset.Table, sel pipeline.Selection, droppedRows int) Session {
	now := s.now()
	sess := &Session{
		ID:          core.NewID(),
		Dataset:     name,
		DroppedRows: droppedRows,
		Raw:         raw,
		Selection:   sel,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.mu.Unlock()

	logger.Debug("created session %s for %s (%d rows)", sess.ID, name, raw.Rows())
	return *sess
}

// Get returns a snapshot of the session
func (s *Store) Get(id core.ID) (Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, errors.NotFound("session " + id.String())
	}
	return *sess, nil
}

// Update applies fn to a copy of the session and stores the copy only when fn
// succeeds, so a failed stage leaves the previous state untouched.
func (s *Store) Update(id core.ID, fn func(*Session) error) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, errors.NotFound("session " + id.String())
	}
	next := *sess
	if err := fn(&next); err != nil {
		return Session{}, err
	}
	next.UpdatedAt = s.now()
	s.sessions[id] = &next
	return next, nil
}

// Delete removes a session
func (s *Store) Delete(id core.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return errors.NotFound("session " + id.String())
	}
	delete(s.sessions, id)
	return nil
}

// List returns snapshots of every session, oldest first
func (s *Store) List() []Session {
	s.mu.RLock()
	out := make([]Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, *sess)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Expire drops sessions idle for longer than the ttl and returns how many were removed
func (s *Store) Expire() int {
	if s.ttl <= 0 {
		return 0
	}
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.UpdatedAt.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		logger.Info("expired %d idle sessions", removed)
	}
	return removed
}

// Len returns the number of live sessions
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
