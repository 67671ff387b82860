// chrisrodz.io - Personal Site, Blog, and Coffee Tracker Backend
// Copyright 2026 Christian Rodriguez (chrisrodz)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/chrisrodz/chrisrodz.io

// Command server runs the chrisrodz.io backend: session and CSRF
// authentication for the admin area, the coffee brew log, and the activity
// calendar endpoints.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chrisrodz/chrisrodz.io-sub000/internal/api"
	"github.com/chrisrodz/chrisrodz.io-sub000/internal/coffee"
	"github.com/chrisrodz/chrisrodz.io-sub000/internal/config"
	"github.com/chrisrodz/chrisrodz.io-sub000/internal/github"
	"github.com/chrisrodz/chrisrodz.io-sub000/internal/httpsec"
	"github.com/chrisrodz/chrisrodz.io-sub000/internal/logging"
	"github.com/chrisrodz/chrisrodz.io-sub000/internal/ratelimit"
	"github.com/chrisrodz/chrisrodz.io-sub000/internal/session"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	store, closeStore, err := openSessionStore(cfg.Session)
	if err != nil {
		return err
	}
	if closeStore != nil {
		defer closeStore()
	}

	brews, err := coffee.Open(cfg.Coffee.DBPath)
	if err != nil {
		return err
	}
	defer brews.Close()

	sessions := session.NewManager(store, cfg.Server.Production)
	verifier := session.NewCredentialVerifier(cfg.Admin.PasswordHash, cfg.Admin.Salt)
	if !verifier.Configured() {
		logging.Warn().Msg("admin credentials not configured; login is disabled")
	}

	handler := api.NewHandler(
		sessions,
		verifier,
		ratelimit.New(),
		ratelimit.Options{
			MaxAttempts: cfg.RateLimit.MaxAttempts,
			Window:      cfg.RateLimit.Window,
			Cooldown:    cfg.RateLimit.Cooldown,
		},
		github.NewClient(github.Config{
			Token:    cfg.GitHub.Token,
			Username: cfg.GitHub.Username,
		}),
		brews,
	)

	router := api.NewRouter(handler, api.RouterConfig{
		CORSOrigins: cfg.Server.CORSOrigins,
		Security:    httpsec.Options{StorageURL: cfg.Security.StorageURL},
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().
			Str("addr", cfg.Server.Addr).
			Bool("production", cfg.Server.Production).
			Str("session_backend", cfg.Session.Backend).
			Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logging.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// openSessionStore builds the configured session backend. A "none" backend
// returns a nil store; the session manager degrades to unauthenticated
// behavior in that case.
func openSessionStore(cfg config.SessionConfig) (session.Store, func(), error) {
	switch cfg.Backend {
	case "memory":
		return session.NewMemoryStore(), nil, nil
	case "badger":
		store, db, err := session.OpenBadgerStore(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open badger session store: %w", err)
		}
		return store, func() {
			if err := db.Close(); err != nil {
				logging.Warn().Err(err).Msg("badger close failed")
			}
		}, nil
	case "sqlite":
		store, err := session.OpenSQLiteStore(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite session store: %w", err)
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logging.Warn().Err(err).Msg("sqlite close failed")
			}
		}, nil
	case "none":
		return nil, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown session backend %q", cfg.Backend)
	}
}
