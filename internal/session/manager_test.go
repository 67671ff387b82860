// chrisrodz.io - Personal Site, Blog, and Coffee Tracker Backend
// Copyright 2026 Christian Rodriguez (chrisrodz)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/chrisrodz/chrisrodz.io

package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestManager() (*Manager, *MemoryStore) {
	store := NewMemoryStore()
	return NewManager(store, false), store
}

func TestCreateAndValidate(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()

	id, ok := m.Create(ctx, "203.0.113.7", "TestBrowser/1.0")
	if !ok {
		t.Fatal("create should succeed with a memory store")
	}
	if len(id) != 32 {
		t.Errorf("session ID length = %d, want 32", len(id))
	}

	if !m.Validate(ctx, id) {
		t.Error("freshly created session should validate")
	}
	if m.Validate(ctx, "nonexistent") {
		t.Error("unknown session should not validate")
	}
	if m.Validate(ctx, "") {
		t.Error("empty session ID should not validate")
	}
}

func TestSessionExpiryIdempotence(t *testing.T) {
	m, store := newTestManager()
	ctx := context.Background()

	id, ok := m.Create(ctx, "", "")
	if !ok {
		t.Fatal("create failed")
	}

	// Move the clock past the 24h expiry.
	m.WithClock(func() time.Time { return time.Now().Add(Duration + time.Minute) })

	if m.Validate(ctx, id) {
		t.Error("expired session should not validate")
	}

	// The expired row must have been deleted as a side effect.
	if _, err := store.SelectByID(ctx, id); err != ErrNotFound {
		t.Errorf("expired session should be deleted, got err=%v", err)
	}

	// A second call with the now-absent ID still returns false cleanly.
	if m.Validate(ctx, id) {
		t.Error("re-validating a deleted session should return false")
	}
}

func TestValidateRequiresAuthenticated(t *testing.T) {
	m, store := newTestManager()
	ctx := context.Background()

	// An unauthenticated (CSRF-only) session never passes Validate.
	now := time.Now()
	sess := &Session{
		ID:           "abcdefabcdefabcdefabcdefabcdefab",
		CreatedAt:    now,
		ExpiresAt:    now.Add(Duration),
		CSRFToken:    "token",
		LastActivity: now,
	}
	if err := store.Insert(ctx, sess); err != nil {
		t.Fatal(err)
	}

	if m.Validate(ctx, sess.ID) {
		t.Error("unauthenticated session should not validate")
	}
}

func TestDeleteSession(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()

	id, _ := m.Create(ctx, "", "")
	m.Delete(ctx, id)

	if m.Validate(ctx, id) {
		t.Error("deleted session should not validate")
	}

	// No-ops must not panic.
	m.Delete(ctx, "")
	m.Delete(ctx, "missing")
}

func TestNilStoreDegradesGracefully(t *testing.T) {
	m := NewManager(nil, false)
	ctx := context.Background()

	if id, ok := m.Create(ctx, "", ""); ok || id != "" {
		t.Error("create with nil store should fail closed")
	}
	if m.Validate(ctx, "anything") {
		t.Error("validate with nil store should be false")
	}
	if m.ValidateCSRF(ctx, "id", "token") {
		t.Error("CSRF validation with nil store should be false")
	}
	m.Delete(ctx, "anything") // must not panic

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token, ok := m.IssueCSRF(ctx, rec, req); ok || token != "" {
		t.Error("IssueCSRF with nil store should fail closed")
	}
}

func TestCSRFRoundTrip(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()

	// No cookie: a new unauthenticated session is created and its cookie set.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	token, ok := m.IssueCSRF(ctx, rec, req)
	if !ok || token == "" {
		t.Fatal("IssueCSRF should succeed")
	}

	cookies := rec.Result().Cookies()
	var sessionID string
	for _, c := range cookies {
		if c.Name == CookieName {
			sessionID = c.Value
		}
	}
	if sessionID == "" {
		t.Fatal("session cookie should be set on first issuance")
	}

	if !m.ValidateCSRF(ctx, sessionID, token) {
		t.Error("issued token should validate against its session")
	}
	if m.ValidateCSRF(ctx, sessionID, "wrong-token") {
		t.Error("mismatched token should not validate")
	}
	if m.ValidateCSRF(ctx, sessionID, "") {
		t.Error("empty token should not validate")
	}

	// Rotation: issuing a second token invalidates the first.
	rec2 := httptest.NewRecorder()
	req2 := httptest.NewRequest(http.MethodGet, "/", nil)
	req2.AddCookie(&http.Cookie{Name: CookieName, Value: sessionID})

	second, ok := m.IssueCSRF(ctx, rec2, req2)
	if !ok {
		t.Fatal("second issuance should succeed")
	}
	if second == token {
		t.Error("rotation should produce a new token value")
	}
	if m.ValidateCSRF(ctx, sessionID, token) {
		t.Error("first token should be invalid after rotation")
	}
	if !m.ValidateCSRF(ctx, sessionID, second) {
		t.Error("second token should validate")
	}
}

func TestIssueCSRFStaleCookieFallsBack(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()

	// Cookie references a session that no longer exists; issuance must fall
	// back to creating a brand-new session.
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: "deadbeefdeadbeefdeadbeefdeadbeef"})

	token, ok := m.IssueCSRF(ctx, rec, req)
	if !ok || token == "" {
		t.Fatal("IssueCSRF should fall back to a fresh session")
	}

	var newID string
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName {
			newID = c.Value
		}
	}
	if newID == "" || newID == "deadbeefdeadbeefdeadbeefdeadbeef" {
		t.Fatalf("a fresh session cookie should replace the stale one, got %q", newID)
	}
	if !m.ValidateCSRF(ctx, newID, token) {
		t.Error("token should validate against the replacement session")
	}
}

func TestValidateLoginCSRFMessage(t *testing.T) {
	m, _ := newTestManager()
	ctx := context.Background()

	ok, msg := m.ValidateLoginCSRF(ctx, "missing", "token")
	if ok {
		t.Fatal("validation should fail for an unknown session")
	}
	if msg != LoginCSRFMessage {
		t.Errorf("message = %q, want %q", msg, LoginCSRFMessage)
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	token, _ := m.IssueCSRF(ctx, rec, req)
	var id string
	for _, c := range rec.Result().Cookies() {
		if c.Name == CookieName {
			id = c.Value
		}
	}

	ok, msg = m.ValidateLoginCSRF(ctx, id, token)
	if !ok || msg != "" {
		t.Errorf("valid token: got ok=%v msg=%q", ok, msg)
	}
}

func TestCookieAttributes(t *testing.T) {
	m := NewManager(NewMemoryStore(), true)

	rec := httptest.NewRecorder()
	m.SetCookie(rec, "abc")

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected 1 cookie, got %d", len(cookies))
	}
	c := cookies[0]

	if c.Name != CookieName {
		t.Errorf("name = %q, want %q", c.Name, CookieName)
	}
	if !c.HttpOnly {
		t.Error("cookie should be HttpOnly")
	}
	if !c.Secure {
		t.Error("cookie should be Secure in production")
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", c.SameSite)
	}
	if c.Path != "/" {
		t.Errorf("Path = %q, want /", c.Path)
	}
	if c.MaxAge != 86400 {
		t.Errorf("MaxAge = %d, want 86400", c.MaxAge)
	}
}
