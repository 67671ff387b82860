// chrisrodz.io - Personal Site, Blog, and Coffee Tracker Backend
// Copyright 2026 Christian Rodriguez (chrisrodz)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/chrisrodz/chrisrodz.io

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCORSHandlerDeniesAllWhenUnconfigured(t *testing.T) {
	handler := CORSHandler(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Access-Control-Allow-Origin = %q, want unset with no configured origins", got)
	}

	// Preflight from an unknown origin must not be approved either.
	pre := httptest.NewRequest(http.MethodOptions, "/api/v1/coffee/brews", nil)
	pre.Header.Set("Origin", "https://evil.example")
	pre.Header.Set("Access-Control-Request-Method", http.MethodPost)
	preRec := httptest.NewRecorder()
	handler.ServeHTTP(preRec, pre)

	if got := preRec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("preflight Access-Control-Allow-Origin = %q, want unset", got)
	}
}

func TestCORSHandlerAllowsConfiguredOrigin(t *testing.T) {
	handler := CORSHandler([]string{"https://chrisrodz.io"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("Origin", "https://chrisrodz.io")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://chrisrodz.io" {
		t.Errorf("Access-Control-Allow-Origin = %q, want configured origin", got)
	}

	// An unlisted origin still gets nothing.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("Access-Control-Allow-Origin = %q for unlisted origin, want unset", got)
	}
}
