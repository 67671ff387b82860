// chrisrodz.io - Personal Site, Blog, and Coffee Tracker Backend
// Copyright 2026 Christian Rodriguez (chrisrodz)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/chrisrodz/chrisrodz.io

package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// sessionKeyPrefix namespaces session rows inside the shared Badger keyspace.
const sessionKeyPrefix = "session:"

// BadgerStore implements Store on BadgerDB for durable embedded persistence.
// Rows carry a Badger TTL matching the session duration, so the database
// reclaims rows the manager never got around to lazily deleting.
type BadgerStore struct {
	db *badger.DB
}

// NewBadgerStore creates a Badger-backed session store.
func NewBadgerStore(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

// OpenBadgerStore opens (or creates) a Badger database at path and wraps it
// in a store. The caller owns closing the returned database.
func OpenBadgerStore(path string) (*BadgerStore, *badger.DB, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, nil, fmt.Errorf("open badger: %w", err)
	}
	return NewBadgerStore(db), db, nil
}

// Insert persists a new session row.
func (s *BadgerStore) Insert(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(sessionKeyPrefix+sess.ID), data).
			WithTTL(time.Until(sess.ExpiresAt))
		return txn.SetEntry(entry)
	})
}

// SelectByID retrieves a session row.
func (s *BadgerStore) SelectByID(ctx context.Context, id string) (*Session, error) {
	var sess Session

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(sessionKeyPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &sess)
		})
	})
	if err != nil {
		return nil, err
	}

	return &sess, nil
}

// UpdateByID sets the CSRF token and last-activity timestamp inside a single
// transaction, which is the linearization point for concurrent rotations.
func (s *BadgerStore) UpdateByID(ctx context.Context, id, csrfToken string, lastActivity time.Time) (int64, error) {
	var affected int64

	err := s.db.Update(func(txn *badger.Txn) error {
		key := []byte(sessionKeyPrefix + id)

		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}

		var sess Session
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &sess)
		}); err != nil {
			return fmt.Errorf("unmarshal session: %w", err)
		}

		sess.CSRFToken = csrfToken
		sess.LastActivity = lastActivity

		data, err := json.Marshal(&sess)
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}

		entry := badger.NewEntry(key, data).WithTTL(time.Until(sess.ExpiresAt))
		if err := txn.SetEntry(entry); err != nil {
			return fmt.Errorf("set session: %w", err)
		}

		affected = 1
		return nil
	})
	if err != nil {
		return 0, err
	}

	return affected, nil
}

// DeleteByID removes a session row.
func (s *BadgerStore) DeleteByID(ctx context.Context, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(sessionKeyPrefix + id))
	})
}
