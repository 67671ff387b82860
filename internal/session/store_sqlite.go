// chrisrodz.io - Personal Site, Blog, and Coffee Tracker Backend
// Copyright 2026 Christian Rodriguez (chrisrodz)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/chrisrodz/chrisrodz.io

package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store on SQLite via the pure Go modernc.org/sqlite
// driver. Timestamps are stored as Unix seconds to keep scanning unambiguous.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the sessions database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}

	// WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: enable WAL mode: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id            TEXT PRIMARY KEY,
		created_at    INTEGER NOT NULL,
		expires_at    INTEGER NOT NULL,
		authenticated INTEGER NOT NULL DEFAULT 0,
		csrf_token    TEXT,
		ip_address    TEXT,
		user_agent    TEXT,
		last_activity INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions (expires_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Insert persists a new session row.
func (s *SQLiteStore) Insert(ctx context.Context, sess *Session) error {
	query := `
	INSERT INTO sessions (id, created_at, expires_at, authenticated, csrf_token, ip_address, user_agent, last_activity)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	authenticated := 0
	if sess.Authenticated {
		authenticated = 1
	}

	_, err := s.db.ExecContext(ctx, query,
		sess.ID,
		sess.CreatedAt.Unix(),
		sess.ExpiresAt.Unix(),
		authenticated,
		sess.CSRFToken,
		sess.IPAddress,
		sess.UserAgent,
		sess.LastActivity.Unix(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: insert session: %w", err)
	}
	return nil
}

// SelectByID retrieves a session row.
func (s *SQLiteStore) SelectByID(ctx context.Context, id string) (*Session, error) {
	query := `
	SELECT id, created_at, expires_at, authenticated, csrf_token, ip_address, user_agent, last_activity
	FROM sessions WHERE id = ?
	`

	var (
		sess          Session
		createdAt     int64
		expiresAt     int64
		authenticated int
		csrfToken     sql.NullString
		ipAddress     sql.NullString
		userAgent     sql.NullString
		lastActivity  int64
	)

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&sess.ID, &createdAt, &expiresAt, &authenticated,
		&csrfToken, &ipAddress, &userAgent, &lastActivity,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: select session: %w", err)
	}

	sess.CreatedAt = time.Unix(createdAt, 0).UTC()
	sess.ExpiresAt = time.Unix(expiresAt, 0).UTC()
	sess.Authenticated = authenticated != 0
	sess.CSRFToken = csrfToken.String
	sess.IPAddress = ipAddress.String
	sess.UserAgent = userAgent.String
	sess.LastActivity = time.Unix(lastActivity, 0).UTC()

	return &sess, nil
}

// UpdateByID sets the CSRF token and last-activity timestamp on a row.
// The single-row UPDATE is atomic, which linearizes concurrent rotations.
func (s *SQLiteStore) UpdateByID(ctx context.Context, id, csrfToken string, lastActivity time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE sessions SET csrf_token = ?, last_activity = ? WHERE id = ?",
		csrfToken, lastActivity.Unix(), id,
	)
	if err != nil {
		return 0, fmt.Errorf("sqlite: update session: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: rows affected: %w", err)
	}
	return affected, nil
}

// DeleteByID removes a session row.
func (s *SQLiteStore) DeleteByID(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("sqlite: delete session: %w", err)
	}
	return nil
}
