// chrisrodz.io - Personal Site, Blog, and Coffee Tracker Backend
// Copyright 2026 Christian Rodriguez (chrisrodz)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/chrisrodz/chrisrodz.io

// Package coffee persists the brew log that feeds the coffee activity
// calendar. The UI around it (forms, bean management pages) lives elsewhere;
// this package is the data source only.
package coffee

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Brew is one logged coffee brew.
type Brew struct {
	ID       int64     `json:"id"`
	Method   string    `json:"method"` // espresso, aeropress, french_press
	Beans    string    `json:"beans"`
	Rating   int       `json:"rating"` // 1..5, 0 when unrated
	BrewedAt time.Time `json:"brewed_at"`
}

// Store is the SQLite-backed brew log.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the brew database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("coffee: open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("coffee: enable WAL mode: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS brews (
		id        INTEGER PRIMARY KEY AUTOINCREMENT,
		method    TEXT NOT NULL,
		beans     TEXT,
		rating    INTEGER NOT NULL DEFAULT 0,
		brewed_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_brews_brewed_at ON brews (brewed_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("coffee: create schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert logs a brew and sets its assigned ID.
func (s *Store) Insert(ctx context.Context, b *Brew) error {
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO brews (method, beans, rating, brewed_at) VALUES (?, ?, ?, ?)",
		b.Method, b.Beans, b.Rating, b.BrewedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("coffee: insert brew: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("coffee: last insert id: %w", err)
	}
	b.ID = id
	return nil
}

// ListSince returns brews at or after the given instant, oldest first.
func (s *Store) ListSince(ctx context.Context, since time.Time) ([]Brew, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, method, beans, rating, brewed_at FROM brews WHERE brewed_at >= ? ORDER BY brewed_at ASC",
		since.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("coffee: list brews: %w", err)
	}
	defer rows.Close()

	var brews []Brew
	for rows.Next() {
		var (
			b        Brew
			beans    sql.NullString
			brewedAt int64
		)
		if err := rows.Scan(&b.ID, &b.Method, &beans, &b.Rating, &brewedAt); err != nil {
			return nil, fmt.Errorf("coffee: scan brew: %w", err)
		}
		b.Beans = beans.String
		b.BrewedAt = time.Unix(brewedAt, 0).UTC()
		brews = append(brews, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("coffee: iterate brews: %w", err)
	}
	return brews, nil
}

// BrewTimes returns just the timestamps of brews at or after since, which is
// all the activity aggregator needs.
func (s *Store) BrewTimes(ctx context.Context, since time.Time) ([]time.Time, error) {
	brews, err := s.ListSince(ctx, since)
	if err != nil {
		return nil, err
	}

	times := make([]time.Time, len(brews))
	for i, b := range brews {
		times[i] = b.BrewedAt
	}
	return times, nil
}
