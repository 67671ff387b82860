// chrisrodz.io - Personal Site, Blog, and Coffee Tracker Backend
// Copyright 2026 Christian Rodriguez (chrisrodz)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/chrisrodz/chrisrodz.io

// Package ratelimit implements a sliding-window failure tracker with a
// cooldown lockout, used to throttle login attempts.
//
// State is keyed by a caller-supplied identifier (typically the client IP)
// and lives in process memory only. In a multi-instance deployment each
// instance tracks failures independently; this is an accepted limitation,
// not something the limiter papers over.
package ratelimit

import (
	"sync"
	"time"
)

// Options controls the window and lockout behavior for a key.
type Options struct {
	// MaxAttempts is the number of failures inside Window before lockout.
	MaxAttempts int

	// Window is the sliding window within which failures count.
	Window time.Duration

	// Cooldown is the lockout period applied once MaxAttempts is reached.
	Cooldown time.Duration
}

// State is the result of evaluating a key against its failure history.
type State struct {
	// Allowed reports whether another attempt may proceed.
	Allowed bool

	// Remaining is the number of attempts left inside the current window.
	Remaining int

	// BlockedUntil is the lockout deadline. Zero when not locked out.
	BlockedUntil time.Time

	// RetryAfter is the time remaining until the lockout clears.
	// Zero when not locked out.
	RetryAfter time.Duration
}

// record tracks failure history for a single key.
type record struct {
	failures     []time.Time
	blockedUntil time.Time
}

// Limiter tracks failures per key. Construct instances with New; do not share
// a package-level singleton so tests can run independent limiters.
type Limiter struct {
	mu      sync.Mutex
	records map[string]*record
	now     func() time.Time
}

// New creates a limiter using wall-clock time.
func New() *Limiter {
	return NewWithClock(time.Now)
}

// NewWithClock creates a limiter with an injectable clock.
func NewWithClock(now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}
	return &Limiter{
		records: make(map[string]*record),
		now:     now,
	}
}

// GetState evaluates a key without recording a failure. An expired lockout is
// cleared (along with the failure window it closed) as a side effect; stale
// failures are pruned before counting.
func (l *Limiter) GetState(key string, opts Options) State {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[key]
	if !ok {
		return State{Allowed: opts.MaxAttempts > 0, Remaining: opts.MaxAttempts}
	}
	return l.evaluate(rec, opts, false)
}

// RecordFailure appends a failure at the current clock time and re-evaluates
// the key. Reaching MaxAttempts inside the window sets a lockout deadline of
// now + Cooldown; failures during an active lockout do not extend it.
func (l *Limiter) RecordFailure(key string, opts Options) State {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[key]
	if !ok {
		rec = &record{}
		l.records[key] = rec
	}
	return l.evaluate(rec, opts, true)
}

// Reset clears all state for a key. Other keys are unaffected.
func (l *Limiter) Reset(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.records, key)
}

// evaluate applies lockout resolution, pruning, and optionally a new failure.
// Callers must hold l.mu.
func (l *Limiter) evaluate(rec *record, opts Options, record bool) State {
	now := l.now()

	if !rec.blockedUntil.IsZero() {
		if now.Before(rec.blockedUntil) {
			return State{
				Allowed:      false,
				Remaining:    0,
				BlockedUntil: rec.blockedUntil,
				RetryAfter:   rec.blockedUntil.Sub(now),
			}
		}
		// Lockout has passed: the whole window resets, not just the
		// entries older than Window.
		rec.blockedUntil = time.Time{}
		rec.failures = nil
	}

	if record {
		rec.failures = append(rec.failures, now)
	}

	rec.failures = prune(rec.failures, now.Add(-opts.Window))

	if record && len(rec.failures) >= opts.MaxAttempts {
		rec.blockedUntil = now.Add(opts.Cooldown)
		return State{
			Allowed:      false,
			Remaining:    0,
			BlockedUntil: rec.blockedUntil,
			RetryAfter:   opts.Cooldown,
		}
	}

	remaining := opts.MaxAttempts - len(rec.failures)
	if remaining < 0 {
		remaining = 0
	}
	return State{Allowed: remaining > 0, Remaining: remaining}
}

// prune drops failures older than cutoff. Timestamps are appended in clock
// order, so the first retained index bounds the survivors.
func prune(failures []time.Time, cutoff time.Time) []time.Time {
	idx := 0
	for idx < len(failures) && failures[idx].Before(cutoff) {
		idx++
	}
	if idx == 0 {
		return failures
	}
	return append(failures[:0], failures[idx:]...)
}
