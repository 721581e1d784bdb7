package store

import (
	"context"
	"fmt"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		name TEXT,
		google_id TEXT UNIQUE,
		created_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS speeches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users (id),
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		committee TEXT,
		type TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS resolutions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users (id),
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		committee TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS research_notes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users (id),
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		country TEXT,
		topic TEXT,
		tags TEXT NOT NULL DEFAULT '[]', -- JSON array of strings
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS conversations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users (id),
		title TEXT NOT NULL,
		messages TEXT NOT NULL, -- JSON array of messages
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY, -- UUID
		user_id INTEGER NOT NULL REFERENCES users (id),
		expires_at DATETIME NOT NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_speeches_user ON speeches (user_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_resolutions_user ON resolutions (user_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_research_notes_user ON research_notes (user_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_conversations_user ON conversations (user_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions (expires_at)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGSERIAL PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		name TEXT,
		google_id TEXT UNIQUE,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS speeches (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users (id),
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		committee TEXT,
		type TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS resolutions (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users (id),
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		committee TEXT,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS research_notes (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users (id),
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		country TEXT,
		topic TEXT,
		tags TEXT NOT NULL DEFAULT '[]',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS conversations (
		id BIGSERIAL PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users (id),
		title TEXT NOT NULL,
		messages JSONB NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id BIGINT NOT NULL REFERENCES users (id),
		expires_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_speeches_user ON speeches (user_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_resolutions_user ON resolutions (user_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_research_notes_user ON research_notes (user_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_conversations_user ON conversations (user_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions (expires_at)`,
}

// Migrate creates any missing tables and indexes. It is safe to run on
// every start.
func (s *Store) Migrate(ctx context.Context) error {
	statements := sqliteSchema
	if s.dialect == dialectPostgres {
		statements = postgresSchema
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
