package database

import (
	"context"
	"fmt"
)

var migrations = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`,

	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		email VARCHAR(255) UNIQUE NOT NULL,
		name VARCHAR(255) NOT NULL,
		avatar_url VARCHAR(500),
		provider VARCHAR(50) NOT NULL DEFAULT 'email',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS trips (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		name VARCHAR(255) NOT NULL,
		destination VARCHAR(255) NOT NULL DEFAULT '',
		start_date DATE,
		end_date DATE,
		owner_email VARCHAR(255) NOT NULL,
		owner_name VARCHAR(255) NOT NULL DEFAULT '',
		is_shared BOOLEAN NOT NULL DEFAULT FALSE,
		data JSONB NOT NULL DEFAULT '{}',
		version INTEGER NOT NULL DEFAULT 1,
		last_modified TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		modified_by VARCHAR(255) NOT NULL DEFAULT '',
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	// Members are keyed by email: family members join before they ever sign in,
	// and invites are addressed to an email, not an account.
	`CREATE TABLE IF NOT EXISTS trip_members (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		trip_id UUID NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		email VARCHAR(255) NOT NULL,
		name VARCHAR(255) NOT NULL DEFAULT '',
		role VARCHAR(50) NOT NULL DEFAULT 'viewer',
		joined_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		last_active TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(trip_id, email)
	)`,

	`CREATE TABLE IF NOT EXISTS trip_invites (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		trip_id UUID NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		inviter_email VARCHAR(255) NOT NULL,
		inviter_name VARCHAR(255) NOT NULL DEFAULT '',
		invitee_email VARCHAR(255) NOT NULL,
		role VARCHAR(50) NOT NULL DEFAULT 'viewer',
		token VARCHAR(128) UNIQUE NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		message TEXT,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	// One live invite per (trip, invitee); resolved invites stay behind for audit.
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_trip_invites_pending
		ON trip_invites(trip_id, invitee_email) WHERE status = 'pending'`,

	// Assignment state lives apart from the generated checklist so regenerating
	// the checklist never wipes who owns what.
	`CREATE TABLE IF NOT EXISTS trip_tasks (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		trip_id UUID NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		task_id VARCHAR(255) NOT NULL,
		status VARCHAR(20) NOT NULL DEFAULT 'incomplete',
		assigned_to VARCHAR(255),
		assigned_by VARCHAR(255),
		assigned_at TIMESTAMP WITH TIME ZONE,
		completed_by VARCHAR(255),
		completed_at TIMESTAMP WITH TIME ZONE,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
		UNIQUE(trip_id, task_id)
	)`,

	`CREATE TABLE IF NOT EXISTS task_comments (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		trip_id UUID NOT NULL REFERENCES trips(id) ON DELETE CASCADE,
		task_id VARCHAR(255) NOT NULL,
		author_email VARCHAR(255) NOT NULL,
		author_name VARCHAR(255) NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		token_hash VARCHAR(255) NOT NULL UNIQUE,
		expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS signin_tokens (
		id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
		email VARCHAR(255) NOT NULL,
		name VARCHAR(255) NOT NULL DEFAULT '',
		token_hash VARCHAR(255) NOT NULL UNIQUE,
		expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
		created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	)`,

	`CREATE INDEX IF NOT EXISTS idx_trips_owner_email ON trips(owner_email)`,
	`CREATE INDEX IF NOT EXISTS idx_trip_members_trip_id ON trip_members(trip_id)`,
	`CREATE INDEX IF NOT EXISTS idx_trip_members_email ON trip_members(email)`,
	`CREATE INDEX IF NOT EXISTS idx_trip_invites_trip_id ON trip_invites(trip_id)`,
	`CREATE INDEX IF NOT EXISTS idx_trip_invites_invitee_email ON trip_invites(invitee_email)`,
	`CREATE INDEX IF NOT EXISTS idx_trip_tasks_trip_id ON trip_tasks(trip_id)`,
	`CREATE INDEX IF NOT EXISTS idx_task_comments_trip_task ON task_comments(trip_id, task_id)`,
	`CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user_id ON refresh_tokens(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_signin_tokens_email ON signin_tokens(email)`,
}

func (db *DB) Migrate(ctx context.Context) error {
	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
