package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
)

// Enum types keep MySQL-style ordering: ORDER BY priority sorts low..urgent.
var schema = []string{
	`DO $$ BEGIN
		CREATE TYPE user_role AS ENUM ('admin', 'user');
	EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`DO $$ BEGIN
		CREATE TYPE task_status AS ENUM ('pending', 'in_progress', 'completed', 'cancelled');
	EXCEPTION WHEN duplicate_object THEN NULL; END $$`,
	`DO $$ BEGIN
		CREATE TYPE task_priority AS ENUM ('low', 'medium', 'high', 'urgent');
	EXCEPTION WHEN duplicate_object THEN NULL; END $$`,

	`CREATE TABLE IF NOT EXISTS users (
		id            BIGSERIAL PRIMARY KEY,
		email         VARCHAR(255) NOT NULL,
		password_hash VARCHAR(255) NOT NULL DEFAULT '',
		full_name     VARCHAR(255) NOT NULL,
		role          user_role NOT NULL DEFAULT 'user',
		is_active     BOOLEAN NOT NULL DEFAULT TRUE,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_lower_idx ON users (LOWER(email))`,

	`CREATE TABLE IF NOT EXISTS tasks (
		id           BIGSERIAL PRIMARY KEY,
		title        VARCHAR(255) NOT NULL CHECK (title <> ''),
		description  TEXT,
		status       task_status NOT NULL DEFAULT 'pending',
		priority     task_priority NOT NULL DEFAULT 'medium',
		assigned_to  BIGINT REFERENCES users(id) ON DELETE SET NULL,
		created_by   BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		due_date     DATE,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		completed_at TIMESTAMPTZ,
		CHECK ((status = 'completed') = (completed_at IS NOT NULL))
	)`,
	`CREATE INDEX IF NOT EXISTS tasks_created_by_idx ON tasks (created_by)`,
	`CREATE INDEX IF NOT EXISTS tasks_assigned_to_idx ON tasks (assigned_to)`,

	`CREATE TABLE IF NOT EXISTS task_comments (
		id         BIGSERIAL PRIMARY KEY,
		task_id    BIGINT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		user_id    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		comment    TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS task_attachments (
		id          BIGSERIAL PRIMARY KEY,
		task_id     BIGINT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		file_name   VARCHAR(255) NOT NULL,
		file_path   VARCHAR(500) NOT NULL,
		file_size   INT,
		uploaded_by BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS notifications (
		id         BIGSERIAL PRIMARY KEY,
		user_id    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		message    TEXT NOT NULL,
		type       VARCHAR(64) NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS notifications_user_id_idx ON notifications (user_id)`,

	`CREATE TABLE IF NOT EXISTS password_resets (
		id         BIGSERIAL PRIMARY KEY,
		token_id   VARCHAR(64) NOT NULL UNIQUE,
		user_id    BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		expires_at TIMESTAMPTZ NOT NULL,
		used_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate creates every table and type that does not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema step %d: %w", i+1, err)
		}
	}
	log.Printf("[db][migrate] %d statements applied", len(schema))
	return nil
}
