// Package postgres opens the shared database handle and keeps the schema the
// stores expect in one place.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Open connects, configures the pool, and waits for the database to accept
// connections. Startup races the database container in every deployment this
// service has, so the ping retries with a growing backoff.
func Open(ctx context.Context, databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := ping(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func ping(ctx context.Context, db *sql.DB) error {
	var err error
	const maxAttempts = 30
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = db.PingContext(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
		}
	}
	return fmt.Errorf("postgres ping timeout: %w", err)
}

// Schema is the DDL for the attendance engine's tables. The UNIQUE constraint
// on (student_id, date) is load-bearing: it is what arbitrates cross-device
// write races.
const Schema = `
CREATE TABLE IF NOT EXISTS students (
    id           UUID PRIMARY KEY,
    school_id    TEXT NOT NULL UNIQUE,
    display_name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS attendance_records (
    id         UUID PRIMARY KEY,
    student_id UUID NOT NULL REFERENCES students (id),
    date       DATE NOT NULL,
    time_in    TIMESTAMPTZ,
    time_out   TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (student_id, date)
);
`

// EnsureSchema applies the DDL. Idempotent; safe on every startup.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
