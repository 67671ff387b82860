// chrisrodz.io - Personal Site, Blog, and Coffee Tracker Backend
// Copyright 2026 Christian Rodriguez (chrisrodz)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/chrisrodz/chrisrodz.io

package api

import (
	"errors"
	"math"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/chrisrodz/chrisrodz.io-sub000/internal/activity"
	"github.com/chrisrodz/chrisrodz.io-sub000/internal/coffee"
	"github.com/chrisrodz/chrisrodz.io-sub000/internal/github"
	"github.com/chrisrodz/chrisrodz.io-sub000/internal/logging"
	"github.com/chrisrodz/chrisrodz.io-sub000/internal/metrics"
	"github.com/chrisrodz/chrisrodz.io-sub000/internal/ratelimit"
	"github.com/chrisrodz/chrisrodz.io-sub000/internal/session"
)

// Default and maximum activity window sizes, in days.
const (
	defaultCoffeeWindowDays = 56
	defaultGitHubWindowDays = 365
	maxWindowDays           = 366

	// insightsWindowDays is how far back the streak and statistics
	// calculations look.
	insightsWindowDays = 365
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Handler holds the dependencies for all API handlers.
type Handler struct {
	Sessions  *session.Manager
	Verifier  *session.CredentialVerifier
	Limiter   *ratelimit.Limiter
	LimitOpts ratelimit.Options
	GitHub    *github.Client
	Brews     *coffee.Store

	now func() time.Time
}

// NewHandler creates a Handler with the given dependencies.
func NewHandler(sessions *session.Manager, verifier *session.CredentialVerifier, limiter *ratelimit.Limiter, limitOpts ratelimit.Options, gh *github.Client, brews *coffee.Store) *Handler {
	return &Handler{
		Sessions:  sessions,
		Verifier:  verifier,
		Limiter:   limiter,
		LimitOpts: limitOpts,
		GitHub:    gh,
		Brews:     brews,
		now:       time.Now,
	}
}

// WithClock overrides the handler's clock. Intended for tests.
func (h *Handler) WithClock(now func() time.Time) *Handler {
	h.now = now
	return h
}

// Health handles GET /api/v1/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	RespondSuccess(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// CSRFToken handles GET /api/v1/auth/csrf. It issues a fresh CSRF token bound
// to the caller's session, creating an unauthenticated session if needed.
func (h *Handler) CSRFToken(w http.ResponseWriter, r *http.Request) {
	token, ok := h.Sessions.IssueCSRF(r.Context(), w, r)
	if !ok {
		RespondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "Unable to issue CSRF token")
		return
	}
	RespondSuccess(w, r, http.StatusOK, map[string]string{"csrfToken": token})
}

type loginRequest struct {
	Password  string `json:"password"`
	CSRFToken string `json:"csrfToken"`
}

// Login handles POST /api/v1/auth/login. Order of checks matters: the
// lockout gate runs first so a locked-out caller learns nothing about CSRF
// or credential validity, then CSRF, then the password itself.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	key := clientIP(r)

	state := h.Limiter.GetState(key, h.LimitOpts)
	if !state.Allowed {
		h.respondLockedOut(w, r, state)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid request body")
		return
	}

	sessionID := sessionIDFromRequest(r)
	if ok, msg := h.Sessions.ValidateLoginCSRF(r.Context(), sessionID, req.CSRFToken); !ok {
		metrics.RecordLoginAttempt("csrf_rejected")
		RespondError(w, r, http.StatusForbidden, ErrCodeForbidden, msg)
		return
	}

	if !h.Verifier.Verify(req.Password) {
		metrics.RecordLoginAttempt("failure")
		state = h.Limiter.RecordFailure(key, h.LimitOpts)
		logging.Ctx(r.Context()).Warn().
			Str("ip", key).
			Int("remaining", state.Remaining).
			Msg("failed login attempt")
		if !state.Allowed {
			h.respondLockedOut(w, r, state)
			return
		}
		RespondError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "Invalid credentials")
		return
	}

	h.Limiter.Reset(key)
	metrics.RecordLoginAttempt("success")

	id, ok := h.Sessions.Create(r.Context(), key, r.UserAgent())
	if ok {
		h.Sessions.SetCookie(w, id)
	} else {
		// Login succeeded but the session could not be persisted; the
		// caller simply stays logged out.
		logging.Ctx(r.Context()).Warn().Msg("login succeeded but session creation failed")
	}

	RespondSuccess(w, r, http.StatusOK, map[string]bool{"authenticated": ok})
}

// Logout handles POST /api/v1/auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.Sessions.Delete(r.Context(), sessionIDFromRequest(r))
	h.Sessions.ClearCookie(w)
	RespondSuccess(w, r, http.StatusOK, map[string]bool{"authenticated": false})
}

// respondLockedOut writes a 429 with a Retry-After header derived from the
// lockout state.
func (h *Handler) respondLockedOut(w http.ResponseWriter, r *http.Request, state ratelimit.State) {
	seconds := int(math.Ceil(state.RetryAfter.Seconds()))
	if seconds < 1 {
		seconds = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(seconds))
	RespondError(w, r, http.StatusTooManyRequests, ErrCodeTooManyRequests, "Too many failed attempts. Try again later.")
}

// CoffeeActivity handles GET /api/v1/activity/coffee.
func (h *Handler) CoffeeActivity(w http.ResponseWriter, r *http.Request) {
	windowDays := windowParam(r, defaultCoffeeWindowDays)
	now := h.now()

	brews, err := h.Brews.BrewTimes(r.Context(), now.AddDate(0, 0, -windowDays-1))
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to load brew times")
		RespondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Unable to load coffee activity")
		return
	}

	RespondSuccess(w, r, http.StatusOK, map[string]interface{}{
		"days": activity.CoffeeSeries(brews, windowDays, now),
	})
}

// CoffeeInsights handles GET /api/v1/activity/coffee/insights.
func (h *Handler) CoffeeInsights(w http.ResponseWriter, r *http.Request) {
	now := h.now()

	brews, err := h.Brews.BrewTimes(r.Context(), now.AddDate(0, 0, -insightsWindowDays-1))
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to load brew times")
		RespondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Unable to load coffee insights")
		return
	}

	days := activity.CoffeeSeries(brews, insightsWindowDays, now)
	RespondSuccess(w, r, http.StatusOK, activity.CoffeeInsights(days, now))
}

// GitHubActivity handles GET /api/v1/activity/github.
func (h *Handler) GitHubActivity(w http.ResponseWriter, r *http.Request) {
	windowDays := windowParam(r, defaultGitHubWindowDays)

	days, ok := h.githubSeries(w, r, windowDays)
	if !ok {
		return
	}
	RespondSuccess(w, r, http.StatusOK, map[string]interface{}{"days": days})
}

// GitHubInsights handles GET /api/v1/activity/github/insights.
func (h *Handler) GitHubInsights(w http.ResponseWriter, r *http.Request) {
	days, ok := h.githubSeries(w, r, insightsWindowDays)
	if !ok {
		return
	}
	RespondSuccess(w, r, http.StatusOK, activity.GitHubInsights(days, h.now()))
}

// githubSeries fetches the contribution calendar and maps it to activity
// days, writing the error response itself on failure.
func (h *Handler) githubSeries(w http.ResponseWriter, r *http.Request, windowDays int) ([]activity.Day, bool) {
	now := h.now().UTC()
	contribs, err := h.GitHub.ContributionCalendar(r.Context(), now.AddDate(0, 0, -windowDays), now)
	if err != nil {
		if errors.Is(err, github.ErrNotConfigured) {
			RespondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "GitHub integration not configured")
			return nil, false
		}
		logging.Ctx(r.Context()).Error().Err(err).Msg("GitHub contribution fetch failed")
		RespondError(w, r, http.StatusBadGateway, ErrCodeExternalServiceFail, "Unable to fetch GitHub activity")
		return nil, false
	}

	counts := make([]activity.DatedCount, len(contribs))
	for i, c := range contribs {
		counts[i] = activity.DatedCount{Date: c.Date, Count: c.Count}
	}
	return activity.GitHubSeries(counts), true
}

type brewRequest struct {
	Method   string `json:"method" validate:"required,max=64"`
	Beans    string `json:"beans" validate:"max=128"`
	Rating   int    `json:"rating" validate:"min=0,max=5"`
	BrewedAt string `json:"brewedAt" validate:"omitempty"`
}

// CreateBrew handles POST /api/v1/coffee/brews. Requires an authenticated
// session and a valid CSRF token (enforced by route middleware).
func (h *Handler) CreateBrew(w http.ResponseWriter, r *http.Request) {
	var req brewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, "Invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		RespondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, "Invalid brew payload")
		return
	}

	brewedAt := h.now()
	if req.BrewedAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.BrewedAt)
		if err != nil {
			RespondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, "brewedAt must be RFC 3339")
			return
		}
		brewedAt = parsed
	}

	brew := &coffee.Brew{
		Method:   req.Method,
		Beans:    req.Beans,
		Rating:   req.Rating,
		BrewedAt: brewedAt,
	}
	if err := h.Brews.Insert(r.Context(), brew); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("failed to insert brew")
		RespondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "Unable to log brew")
		return
	}

	RespondSuccess(w, r, http.StatusCreated, brew)
}

// windowParam reads and clamps the ?days query parameter.
func windowParam(r *http.Request, fallback int) int {
	raw := r.URL.Query().Get("days")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	if n > maxWindowDays {
		return maxWindowDays
	}
	return n
}

// clientIP returns the request's client IP. Assumes the RealIP middleware has
// already resolved proxy headers into RemoteAddr.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
