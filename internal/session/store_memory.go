// chrisrodz.io - Personal Site, Blog, and Coffee Tracker Backend
// Copyright 2026 Christian Rodriguez (chrisrodz)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/chrisrodz/chrisrodz.io

package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store implementation for development and tests.
// For production use BadgerStore or SQLiteStore.
type MemoryStore struct {
	mu   sync.RWMutex
	rows map[string]*Session
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rows: make(map[string]*Session),
	}
}

// Insert persists a new session row.
func (s *MemoryStore) Insert(ctx context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *sess
	s.rows[sess.ID] = &stored
	return nil
}

// SelectByID retrieves a session row.
func (s *MemoryStore) SelectByID(ctx context.Context, id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.rows[id]
	if !ok {
		return nil, ErrNotFound
	}

	// Copy out so callers cannot mutate stored state.
	copied := *row
	return &copied, nil
}

// UpdateByID sets the CSRF token and last-activity timestamp on a row.
func (s *MemoryStore) UpdateByID(ctx context.Context, id, csrfToken string, lastActivity time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok {
		return 0, nil
	}

	row.CSRFToken = csrfToken
	row.LastActivity = lastActivity
	return 1, nil
}

// DeleteByID removes a session row.
func (s *MemoryStore) DeleteByID(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.rows, id)
	return nil
}
