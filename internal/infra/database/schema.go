package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements create the two entity collections. seq keeps insertion
// order for listings.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS classes (
		seq              BIGSERIAL,
		id               TEXT PRIMARY KEY,
		name             TEXT NOT NULL,
		course_code      TEXT NOT NULL,
		building         TEXT NOT NULL DEFAULT '',
		room             TEXT NOT NULL DEFAULT '',
		start_time       TEXT NOT NULL,
		end_time         TEXT NOT NULL,
		days_of_week     TEXT[] NOT NULL DEFAULT '{}',
		start_date       TEXT NOT NULL,
		end_date         TEXT NOT NULL,
		instructor       TEXT NOT NULL DEFAULT '',
		notes            TEXT NOT NULL DEFAULT '',
		notification_ids TEXT[] NOT NULL DEFAULT '{}',
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS assignments (
		seq              BIGSERIAL,
		id               TEXT PRIMARY KEY,
		title            TEXT NOT NULL,
		course_code      TEXT NOT NULL,
		due_date         TEXT NOT NULL,
		due_time         TEXT NOT NULL,
		description      TEXT NOT NULL DEFAULT '',
		completed        BOOLEAN NOT NULL DEFAULT FALSE,
		priority         TEXT NOT NULL DEFAULT 'Medium',
		notification_ids TEXT[] NOT NULL DEFAULT '{}',
		created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// EnsureSchema creates missing tables. It is safe to run on every start.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("error applying schema: %w", err)
		}
	}
	return nil
}
