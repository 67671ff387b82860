// chrisrodz.io - Personal Site, Blog, and Coffee Tracker Backend
// Copyright 2026 Christian Rodriguez (chrisrodz)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/chrisrodz/chrisrodz.io

package api

import (
	"bytes"
	"encoding/hex"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/chrisrodz/chrisrodz.io-sub000/internal/coffee"
	"github.com/chrisrodz/chrisrodz.io-sub000/internal/github"
	"github.com/chrisrodz/chrisrodz.io-sub000/internal/ratelimit"
	"github.com/chrisrodz/chrisrodz.io-sub000/internal/session"
)

const testPassword = "correct horse battery staple"

// newTestServer builds a full router backed by in-memory sessions, a
// temp-dir brew database, and an unconfigured GitHub client.
func newTestServer(t *testing.T, limitOpts ratelimit.Options) *httptest.Server {
	t.Helper()

	salt := []byte("0123456789abcdef")
	hashHex, err := session.HashPassword(testPassword, salt, 64)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	verifier := session.NewCredentialVerifier(hashHex, hex.EncodeToString(salt))

	brews, err := coffee.Open(filepath.Join(t.TempDir(), "brews.db"))
	if err != nil {
		t.Fatalf("coffee.Open failed: %v", err)
	}
	t.Cleanup(func() { brews.Close() })

	handler := NewHandler(
		session.NewManager(session.NewMemoryStore(), false),
		verifier,
		ratelimit.New(),
		limitOpts,
		github.NewClient(github.Config{}),
		brews,
	)

	srv := httptest.NewServer(NewRouter(handler, RouterConfig{}).Setup())
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar.New failed: %v", err)
	}
	return &http.Client{Jar: jar}
}

func defaultLimitOpts() ratelimit.Options {
	return ratelimit.Options{MaxAttempts: 5, Window: time.Minute, Cooldown: time.Minute}
}

// decodeResponse unmarshals the standard envelope and returns the data field
// re-marshaled into out.
func decodeResponse(t *testing.T, resp *http.Response, out interface{}) APIResponse {
	t.Helper()
	defer resp.Body.Close()

	var envelope APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if out != nil && envelope.Data != nil {
		raw, err := json.Marshal(envelope.Data)
		if err != nil {
			t.Fatalf("re-marshal data: %v", err)
		}
		if err := json.Unmarshal(raw, out); err != nil {
			t.Fatalf("unmarshal data: %v", err)
		}
	}
	return envelope
}

func fetchCSRF(t *testing.T, client *http.Client, baseURL string) string {
	t.Helper()
	resp, err := client.Get(baseURL + "/api/v1/auth/csrf")
	if err != nil {
		t.Fatalf("GET /csrf failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /csrf status = %d", resp.StatusCode)
	}
	var data struct {
		CSRFToken string `json:"csrfToken"`
	}
	decodeResponse(t, resp, &data)
	if data.CSRFToken == "" {
		t.Fatal("expected non-empty CSRF token")
	}
	return data.CSRFToken
}

func postLogin(t *testing.T, client *http.Client, baseURL, password, csrfToken string) *http.Response {
	t.Helper()
	body, _ := json.Marshal(map[string]string{
		"password":  password,
		"csrfToken": csrfToken,
	})
	resp, err := client.Post(baseURL+"/api/v1/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /login failed: %v", err)
	}
	return resp
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, defaultLimitOpts())

	resp, err := http.Get(srv.URL + "/api/v1/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	var data struct {
		Status string `json:"status"`
	}
	envelope := decodeResponse(t, resp, &data)
	if !envelope.Success || data.Status != "ok" {
		t.Errorf("unexpected health response: %+v", envelope)
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	srv := newTestServer(t, defaultLimitOpts())

	resp, err := http.Get(srv.URL + "/api/v1/health")
	if err != nil {
		t.Fatalf("GET /health failed: %v", err)
	}
	resp.Body.Close()

	if resp.Header.Get("Content-Security-Policy") == "" {
		t.Error("expected Content-Security-Policy header")
	}
	if got := resp.Header.Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q, want DENY", got)
	}
}

func TestLoginFlowAndBrewWrite(t *testing.T) {
	srv := newTestServer(t, defaultLimitOpts())
	client := newClient(t)

	// CSRF token bound to a fresh unauthenticated session.
	token := fetchCSRF(t, client, srv.URL)

	resp := postLogin(t, client, srv.URL, testPassword, token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, want 200", resp.StatusCode)
	}
	var login struct {
		Authenticated bool `json:"authenticated"`
	}
	decodeResponse(t, resp, &login)
	if !login.Authenticated {
		t.Fatal("expected authenticated login")
	}

	// Login rotated the session; a new CSRF token is needed for writes.
	token = fetchCSRF(t, client, srv.URL)

	body, _ := json.Marshal(map[string]interface{}{
		"method": "aeropress",
		"beans":  "Yirgacheffe",
		"rating": 4,
	})
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/coffee/brews", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-CSRF-Token", token)

	brewResp, err := client.Do(req)
	if err != nil {
		t.Fatalf("POST /brews failed: %v", err)
	}
	if brewResp.StatusCode != http.StatusCreated {
		t.Fatalf("brew status = %d, want 201", brewResp.StatusCode)
	}
	var brew coffee.Brew
	decodeResponse(t, brewResp, &brew)
	if brew.ID == 0 || brew.Method != "aeropress" {
		t.Errorf("unexpected brew response: %+v", brew)
	}

	// The logged brew shows up in the activity calendar.
	actResp, err := client.Get(srv.URL + "/api/v1/activity/coffee?days=7")
	if err != nil {
		t.Fatalf("GET /activity/coffee failed: %v", err)
	}
	if actResp.StatusCode != http.StatusOK {
		t.Fatalf("activity status = %d, want 200", actResp.StatusCode)
	}
	var act struct {
		Days []struct {
			Date  string `json:"date"`
			Count int    `json:"count"`
		} `json:"days"`
	}
	decodeResponse(t, actResp, &act)
	if len(act.Days) != 7 {
		t.Fatalf("expected 7 day entries, got %d", len(act.Days))
	}
	total := 0
	for _, d := range act.Days {
		total += d.Count
	}
	if total != 1 {
		t.Errorf("expected 1 brew in window, got %d", total)
	}
}

func TestLoginRejectsMissingCSRF(t *testing.T) {
	srv := newTestServer(t, defaultLimitOpts())
	client := newClient(t)

	resp := postLogin(t, client, srv.URL, testPassword, "")
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
	envelope := decodeResponse(t, resp, nil)
	if envelope.Error == nil || envelope.Error.Message != session.LoginCSRFMessage {
		t.Errorf("expected fixed CSRF failure message, got %+v", envelope.Error)
	}
}

func TestLoginLockout(t *testing.T) {
	srv := newTestServer(t, ratelimit.Options{
		MaxAttempts: 2,
		Window:      time.Minute,
		Cooldown:    time.Minute,
	})
	client := newClient(t)

	token := fetchCSRF(t, client, srv.URL)

	resp := postLogin(t, client, srv.URL, "wrong", token)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("first failure status = %d, want 401", resp.StatusCode)
	}

	// Second failure hits the attempt cap and locks the key out.
	resp = postLogin(t, client, srv.URL, "wrong", token)
	resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("second failure status = %d, want 429", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("expected Retry-After header on lockout")
	}

	// Even the correct password is rejected while locked out.
	resp = postLogin(t, client, srv.URL, testPassword, token)
	resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("locked-out status = %d, want 429", resp.StatusCode)
	}
}

func TestBrewRequiresSession(t *testing.T) {
	srv := newTestServer(t, defaultLimitOpts())

	body, _ := json.Marshal(map[string]string{"method": "espresso"})
	resp, err := http.Post(srv.URL+"/api/v1/coffee/brews", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST /brews failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestBrewRejectsInvalidPayload(t *testing.T) {
	srv := newTestServer(t, defaultLimitOpts())
	client := newClient(t)

	token := fetchCSRF(t, client, srv.URL)
	resp := postLogin(t, client, srv.URL, testPassword, token)
	resp.Body.Close()
	token = fetchCSRF(t, client, srv.URL)

	// rating out of range
	body, _ := json.Marshal(map[string]interface{}{"method": "espresso", "rating": 9})
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/coffee/brews", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-CSRF-Token", token)

	brewResp, err := client.Do(req)
	if err != nil {
		t.Fatalf("POST /brews failed: %v", err)
	}
	brewResp.Body.Close()
	if brewResp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", brewResp.StatusCode)
	}
}

func TestLogoutInvalidatesSession(t *testing.T) {
	srv := newTestServer(t, defaultLimitOpts())
	client := newClient(t)

	token := fetchCSRF(t, client, srv.URL)
	resp := postLogin(t, client, srv.URL, testPassword, token)
	resp.Body.Close()

	resp, err := client.Post(srv.URL+"/api/v1/auth/logout", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /logout failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("logout status = %d, want 200", resp.StatusCode)
	}

	body, _ := json.Marshal(map[string]string{"method": "espresso"})
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/coffee/brews", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	brewResp, err := client.Do(req)
	if err != nil {
		t.Fatalf("POST /brews failed: %v", err)
	}
	brewResp.Body.Close()
	if brewResp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status after logout = %d, want 401", brewResp.StatusCode)
	}
}

func TestGitHubActivityNotConfigured(t *testing.T) {
	srv := newTestServer(t, defaultLimitOpts())

	resp, err := http.Get(srv.URL + "/api/v1/activity/github")
	if err != nil {
		t.Fatalf("GET /activity/github failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}
