// chrisrodz.io - Personal Site, Blog, and Coffee Tracker Backend
// Copyright 2026 Christian Rodriguez (chrisrodz)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/chrisrodz/chrisrodz.io

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/chrisrodz/chrisrodz.io-sub000/internal/logging"
	"github.com/chrisrodz/chrisrodz.io-sub000/internal/session"
)

// RateLimitConfig defines per-route HTTP rate limit parameters. These guard
// against request floods at the transport level; the login failure lockout in
// internal/ratelimit is a separate, credential-aware layer on top.
type RateLimitConfig struct {
	Requests int
	Window   time.Duration
}

// Per-route-group rate limits.
var (
	// RateLimitAuth covers all auth endpoints.
	RateLimitAuth = RateLimitConfig{Requests: 30, Window: time.Minute}

	// RateLimitLogin is stricter for the login endpoint itself.
	RateLimitLogin = RateLimitConfig{Requests: 10, Window: time.Minute}

	// RateLimitActivity is permissive for read-heavy activity endpoints.
	RateLimitActivity = RateLimitConfig{Requests: 300, Window: time.Minute}

	// RateLimitWrite covers authenticated write operations.
	RateLimitWrite = RateLimitConfig{Requests: 30, Window: time.Minute}

	// RateLimitHealth allows frequent monitoring checks.
	RateLimitHealth = RateLimitConfig{Requests: 1000, Window: time.Minute}
)

// RateLimitByIP returns an IP-keyed httprate middleware for the given config.
func RateLimitByIP(cfg RateLimitConfig) func(http.Handler) http.Handler {
	return httprate.LimitByIP(cfg.Requests, cfg.Window)
}

// CORSHandler returns the CORS middleware for the given allowed origins.
// An empty origin list denies all cross-origin requests: go-chi/cors would
// otherwise treat it as a "*" wildcard, which must never ship alongside
// credentialed requests.
func CORSHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           86400,
	}
	if len(allowedOrigins) == 0 {
		opts.AllowOriginFunc = func(r *http.Request, origin string) bool {
			return false
		}
	} else {
		opts.AllowedOrigins = allowedOrigins
	}
	return cors.Handler(opts)
}

// RequireSession returns a middleware that rejects requests without a valid
// authenticated session cookie.
func RequireSession(sessions *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := sessionIDFromRequest(r)
			if !sessions.Validate(r.Context(), id) {
				logging.Ctx(r.Context()).Warn().
					Str("path", r.URL.Path).
					Msg("rejected request without valid session")
				RespondError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireCSRF returns a middleware that validates the X-CSRF-Token header
// against the session's stored token. Must run after RequireSession.
func RequireCSRF(sessions *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := sessionIDFromRequest(r)
			token := r.Header.Get("X-CSRF-Token")
			if !sessions.ValidateCSRF(r.Context(), id, token) {
				logging.Ctx(r.Context()).Warn().
					Str("path", r.URL.Path).
					Msg("rejected request with invalid CSRF token")
				RespondError(w, r, http.StatusForbidden, ErrCodeForbidden, "Invalid CSRF token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// sessionIDFromRequest extracts the session cookie value, or "".
func sessionIDFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(session.CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}
