// chrisrodz.io - Personal Site, Blog, and Coffee Tracker Backend
// Copyright 2026 Christian Rodriguez (chrisrodz)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/chrisrodz/chrisrodz.io

// Package session manages the admin session lifecycle and CSRF tokens.
//
// A Session is referenced by an opaque 32-character cookie value and lives in
// a pluggable store (memory, BadgerDB, or SQLite). Sessions expire 24 hours
// after creation; expiry is lazy, meaning an expired row is deleted the next
// time it is read. All operations degrade to "unauthenticated / reject"
// results when the store is unavailable instead of surfacing errors.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"
)

// Duration is the lifetime of every session. ExpiresAt is always
// CreatedAt + Duration at creation time.
const Duration = 24 * time.Hour

// ErrNotFound is returned by stores when a session row does not exist.
var ErrNotFound = errors.New("session not found")

// Session is a server-side record of a browser's authenticated or
// pre-authenticated (CSRF-only) state.
type Session struct {
	// ID is the opaque 32-character token carried by the session cookie.
	ID string `json:"id"`

	// CreatedAt is when the session row was inserted.
	CreatedAt time.Time `json:"created_at"`

	// ExpiresAt is CreatedAt + Duration. A session past this instant is
	// treated as absent.
	ExpiresAt time.Time `json:"expires_at"`

	// Authenticated reports whether the session was created by a
	// successful login. CSRF-only sessions are unauthenticated.
	Authenticated bool `json:"authenticated"`

	// CSRFToken is the currently valid token for this session, if any.
	// Issuing a new token replaces it (rotation).
	CSRFToken string `json:"csrf_token,omitempty"`

	// IPAddress is the client address observed at creation.
	IPAddress string `json:"ip_address,omitempty"`

	// UserAgent is the client user agent observed at creation.
	UserAgent string `json:"user_agent,omitempty"`

	// LastActivity is updated on CSRF rotation.
	LastActivity time.Time `json:"last_activity"`
}

// IsExpired reports whether the session is past its expiry at the given
// instant.
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Store is the narrow persistence interface the session manager depends on.
// Implementations back a single `sessions` collection keyed by session ID and
// must linearize same-row mutations; cross-row ordering is not required.
type Store interface {
	// Insert persists a new session row.
	Insert(ctx context.Context, s *Session) error

	// SelectByID retrieves a session row. Returns ErrNotFound when absent.
	// Expiry is NOT evaluated here; that is the manager's job.
	SelectByID(ctx context.Context, id string) (*Session, error)

	// UpdateByID sets the CSRF token and last-activity timestamp on an
	// existing row, returning the number of rows affected. Zero with a nil
	// error means the row vanished (deleted or expired concurrently).
	UpdateByID(ctx context.Context, id, csrfToken string, lastActivity time.Time) (int64, error)

	// DeleteByID removes a session row. Absent rows are not an error.
	DeleteByID(ctx context.Context, id string) error
}

// NewID generates a cryptographically random 32-character hex token, used for
// both session IDs and CSRF tokens.
func NewID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
