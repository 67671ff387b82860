// chrisrodz.io - Personal Site, Blog, and Coffee Tracker Backend
// Copyright 2026 Christian Rodriguez (chrisrodz)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/chrisrodz/chrisrodz.io

package session

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/chrisrodz/chrisrodz.io-sub000/internal/logging"
	"github.com/chrisrodz/chrisrodz.io-sub000/internal/metrics"
)

// CookieName is the session cookie name.
const CookieName = "session_id"

// LoginCSRFMessage is the fixed user-facing message attached to CSRF failures
// on the login form.
const LoginCSRFMessage = "Invalid or expired session. Please refresh the page and try again."

// Manager owns the session lifecycle on top of a Store. A nil store means
// persistence is not configured: every operation degrades to its fail-closed
// result (false / empty) with a logged warning instead of erroring.
type Manager struct {
	store      Store
	production bool
	now        func() time.Time
}

// NewManager creates a session manager. store may be nil when no persistence
// backend is configured. production controls the Secure cookie attribute.
func NewManager(store Store, production bool) *Manager {
	return &Manager{
		store:      store,
		production: production,
		now:        time.Now,
	}
}

// WithClock overrides the manager's clock. Intended for tests.
func (m *Manager) WithClock(now func() time.Time) *Manager {
	m.now = now
	return m
}

// Create inserts an authenticated session and returns its ID. Returns
// ("", false) when the store is unconfigured or the insert fails; callers
// must treat that as "cannot persist session" and degrade gracefully.
func (m *Manager) Create(ctx context.Context, ip, userAgent string) (string, bool) {
	if m.store == nil {
		logging.Warn().Msg("session store not configured; cannot create session")
		return "", false
	}

	id, err := NewID()
	if err != nil {
		logging.Error().Err(err).Msg("session ID generation failed")
		return "", false
	}

	now := m.now()
	sess := &Session{
		ID:            id,
		CreatedAt:     now,
		ExpiresAt:     now.Add(Duration),
		Authenticated: true,
		IPAddress:     ip,
		UserAgent:     userAgent,
		LastActivity:  now,
	}

	if err := m.store.Insert(ctx, sess); err != nil {
		logging.Warn().Err(err).Msg("session insert failed")
		metrics.RecordSessionStoreError("insert")
		return "", false
	}
	return id, true
}

// Validate reports whether the session exists, is unexpired, and is
// authenticated. An expired row is deleted best-effort before returning
// false; a cleanup failure never masks the invalid result.
func (m *Manager) Validate(ctx context.Context, id string) bool {
	sess, ok := m.lookup(ctx, id)
	if !ok {
		return false
	}
	return sess.Authenticated
}

// Delete removes a session. Missing IDs and unconfigured stores are no-ops.
func (m *Manager) Delete(ctx context.Context, id string) {
	if id == "" || m.store == nil {
		return
	}
	if err := m.store.DeleteByID(ctx, id); err != nil {
		logging.Warn().Err(err).Msg("session delete failed")
		metrics.RecordSessionStoreError("delete")
	}
}

// IssueCSRF generates a fresh CSRF token for the request's session, rotating
// out any previously issued token. Without a session cookie (or when the
// referenced row vanished concurrently) a new unauthenticated session is
// created and its cookie set. Returns ("", false) when nothing could be
// persisted.
func (m *Manager) IssueCSRF(ctx context.Context, w http.ResponseWriter, r *http.Request) (string, bool) {
	if m.store == nil {
		logging.Warn().Msg("session store not configured; cannot issue CSRF token")
		return "", false
	}

	token, err := NewID()
	if err != nil {
		logging.Error().Err(err).Msg("CSRF token generation failed")
		return "", false
	}

	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		affected, err := m.store.UpdateByID(ctx, cookie.Value, token, m.now())
		if err != nil {
			logging.Warn().Err(err).Msg("CSRF token rotation failed")
			metrics.RecordSessionStoreError("update")
			return "", false
		}
		if affected > 0 {
			return token, true
		}
		// Row was deleted or expired out from under the cookie; fall
		// through and start over with a fresh session.
	}

	now := m.now()
	id, err := NewID()
	if err != nil {
		logging.Error().Err(err).Msg("session ID generation failed")
		return "", false
	}

	sess := &Session{
		ID:           id,
		CreatedAt:    now,
		ExpiresAt:    now.Add(Duration),
		CSRFToken:    token,
		LastActivity: now,
	}
	if err := m.store.Insert(ctx, sess); err != nil {
		logging.Warn().Err(err).Msg("CSRF session insert failed")
		metrics.RecordSessionStoreError("insert")
		return "", false
	}

	m.SetCookie(w, id)
	return token, true
}

// ValidateCSRF compares a submitted token against the session's stored token
// in constant time. Any missing argument, store failure, absent or expired
// session yields false; nothing is ever surfaced as an error.
func (m *Manager) ValidateCSRF(ctx context.Context, id, token string) bool {
	if token == "" {
		return false
	}

	sess, ok := m.lookup(ctx, id)
	if !ok || sess.CSRFToken == "" {
		return false
	}

	// Length mismatch fails outright; token lengths are public so this
	// leaks nothing beyond what the wire already shows.
	if len(sess.CSRFToken) != len(token) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(sess.CSRFToken), []byte(token)) == 1
}

// ValidateLoginCSRF wraps ValidateCSRF with the fixed login-form message.
func (m *Manager) ValidateLoginCSRF(ctx context.Context, id, token string) (bool, string) {
	if m.ValidateCSRF(ctx, id, token) {
		return true, ""
	}
	return false, LoginCSRFMessage
}

// SetCookie writes the session cookie. HttpOnly, SameSite=Lax, Secure in
// production, path /, max-age matching the session duration.
func (m *Manager) SetCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(Duration.Seconds()),
		HttpOnly: true,
		Secure:   m.production,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func (m *Manager) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.production,
		SameSite: http.SameSiteLaxMode,
	})
}

// lookup fetches a live session row, applying lazy expiry.
func (m *Manager) lookup(ctx context.Context, id string) (*Session, bool) {
	if id == "" || m.store == nil {
		return nil, false
	}

	sess, err := m.store.SelectByID(ctx, id)
	if err != nil {
		if err != ErrNotFound {
			logging.Warn().Err(err).Msg("session select failed")
			metrics.RecordSessionStoreError("select")
		}
		return nil, false
	}

	if sess.IsExpired(m.now()) {
		if err := m.store.DeleteByID(ctx, id); err != nil {
			logging.Warn().Err(err).Msg("expired session cleanup failed")
			metrics.RecordSessionStoreError("delete")
		}
		return nil, false
	}

	return sess, true
}
