// chrisrodz.io - Personal Site, Blog, and Coffee Tracker Backend
// Copyright 2026 Christian Rodriguez (chrisrodz)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/chrisrodz/chrisrodz.io

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chrisrodz/chrisrodz.io-sub000/internal/httpsec"
	"github.com/chrisrodz/chrisrodz.io-sub000/internal/middleware"
)

// RouterConfig holds routing-level configuration.
type RouterConfig struct {
	// CORSOrigins lists allowed cross-origin request origins.
	CORSOrigins []string

	// Security feeds the security-header middleware.
	Security httpsec.Options
}

// Router wires handlers and middleware into the HTTP route tree.
type Router struct {
	handler *Handler
	config  RouterConfig
}

// NewRouter creates a Router for the given handler set.
func NewRouter(handler *Handler, config RouterConfig) *Router {
	return &Router{handler: handler, config: config}
}

// Setup builds the route tree.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(CORSHandler(rt.config.CORSOrigins))
	r.Use(httpsec.Middleware(rt.config.Security))

	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(RateLimitByIP(RateLimitHealth))
		r.Get("/", rt.handler.Health)
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(RateLimitByIP(RateLimitAuth))
		r.Use(middleware.PrometheusMetrics)

		r.Get("/csrf", rt.handler.CSRFToken)
		r.With(RateLimitByIP(RateLimitLogin)).Post("/login", rt.handler.Login)
		r.Post("/logout", rt.handler.Logout)
	})

	r.Route("/api/v1/activity", func(r chi.Router) {
		r.Use(RateLimitByIP(RateLimitActivity))
		r.Use(middleware.PrometheusMetrics)

		r.Get("/coffee", rt.handler.CoffeeActivity)
		r.Get("/coffee/insights", rt.handler.CoffeeInsights)
		r.Get("/github", rt.handler.GitHubActivity)
		r.Get("/github/insights", rt.handler.GitHubInsights)
	})

	// Authenticated write endpoints.
	r.Route("/api/v1/coffee", func(r chi.Router) {
		r.Use(RateLimitByIP(RateLimitWrite))
		r.Use(middleware.PrometheusMetrics)
		r.Use(RequireSession(rt.handler.Sessions))
		r.Use(RequireCSRF(rt.handler.Sessions))

		r.Post("/brews", rt.handler.CreateBrew)
	})

	r.Handle("/metrics", promhttp.Handler())

	return r
}
