// chrisrodz.io - Personal Site, Blog, and Coffee Tracker Backend
// Copyright 2026 Christian Rodriguez (chrisrodz)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/chrisrodz/chrisrodz.io

// Package httpsec computes the security headers applied to every response:
// Content-Security-Policy, HSTS, frame, referrer, and permissions policies.
package httpsec

import (
	"net/http"
	"net/url"
	"strings"
)

// Options configures header construction.
type Options struct {
	// StorageURL is the project URL of the hosted storage provider backing
	// session persistence. When set, its exact https and wss origins are
	// added to connect-src alongside the provider wildcard. A URL that does
	// not parse is silently omitted.
	StorageURL string
}

// Fixed source allow-lists for the site. The storage provider wildcard covers
// any project subdomain; the exact origins from Options.StorageURL narrow the
// common case.
var (
	scriptSources = []string{
		"'self'",
		"'unsafe-inline'",
		"https://static.cloudflareinsights.com",
	}
	styleSources = []string{
		"'self'",
		"'unsafe-inline'",
		"https://fonts.googleapis.com",
	}
	fontSources = []string{
		"'self'",
		"https://fonts.gstatic.com",
		"data:",
	}
	imgSources = []string{
		"'self'",
		"data:",
		"https:",
	}
	connectSources = []string{
		"'self'",
		"https://api.github.com",
		"https://*.supabase.co",
		"wss://*.supabase.co",
	}
)

// BuildHeaders computes the full security header set. The result is cheap to
// compute and never cached; callers invoke it per response.
func BuildHeaders(opts Options) map[string]string {
	return map[string]string{
		"Content-Security-Policy":   buildCSP(opts),
		"Strict-Transport-Security": "max-age=63072000; includeSubDomains; preload",
		"X-Frame-Options":           "DENY",
		"Referrer-Policy":           "strict-origin-when-cross-origin",
		"Permissions-Policy":        "camera=(), microphone=(), geolocation=(), interest-cohort=(), payment=(), usb=()",
		"X-Content-Type-Options":    "nosniff",
	}
}

// Apply copies the header map onto an outgoing header collection, overwriting
// any existing same-named entries.
func Apply(h http.Header, headers map[string]string) {
	for name, value := range headers {
		h.Set(name, value)
	}
}

// Middleware returns a chi-compatible middleware that decorates every
// response with the computed header set.
func Middleware(opts Options) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Apply(w.Header(), BuildHeaders(opts))
			next.ServeHTTP(w, r)
		})
	}
}

// buildCSP assembles the Content-Security-Policy directive string.
func buildCSP(opts Options) string {
	connect := make([]string, len(connectSources))
	copy(connect, connectSources)
	connect = append(connect, storageOrigins(opts.StorageURL)...)

	directives := []string{
		"default-src 'self'",
		"script-src " + strings.Join(scriptSources, " "),
		"style-src " + strings.Join(styleSources, " "),
		"font-src " + strings.Join(fontSources, " "),
		"img-src " + strings.Join(imgSources, " "),
		"connect-src " + strings.Join(connect, " "),
		"frame-ancestors 'none'",
		"base-uri 'self'",
		"form-action 'self'",
	}
	return strings.Join(directives, "; ")
}

// storageOrigins derives the exact https and wss origins for the configured
// storage URL. A missing or unparseable URL yields no additional origins
// rather than failing the whole header set.
func storageOrigins(rawURL string) []string {
	if rawURL == "" {
		return nil
	}

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil
	}

	return []string{
		"https://" + u.Host,
		"wss://" + u.Host,
	}
}
