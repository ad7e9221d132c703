package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

var testPool *pgxpool.Pool

// GetTestDB returns the shared test pool. Available after TestMain has run
// and SetupTestDB succeeded.
func GetTestDB() *pgxpool.Pool {
	return testPool
}

// SetupTestDB connects to the test database and applies the schema.
// Call once from TestMain.
func SetupTestDB(dbURL string) (*pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping test database: %w", err)
	}

	if err := runTestMigrations(pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return pool, nil
}

func runTestMigrations(pool *pgxpool.Pool) error {
	ctx := context.Background()

	migrations := []string{
		`
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			username VARCHAR(100) NOT NULL,
			email VARCHAR(255) UNIQUE NOT NULL,
			is_email_confirmed BOOLEAN NOT NULL DEFAULT false,
			email_confirmation_token VARCHAR(128),
			email_confirmation_token_expiry TIMESTAMPTZ,
			email_confirmed_at TIMESTAMPTZ,
			password_reset_token VARCHAR(128),
			password_reset_token_expiry TIMESTAMPTZ,
			first_name VARCHAR(100),
			last_name VARCHAR(100),
			preferred_name VARCHAR(100),
			role VARCHAR(20) NOT NULL DEFAULT 'Client',
			password_hash VARCHAR(255) NOT NULL,
			is_deleted BOOLEAN NOT NULL DEFAULT false,
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
		CREATE INDEX IF NOT EXISTS idx_users_confirmation_token ON users(email_confirmation_token);
		`,
		`
		CREATE TABLE IF NOT EXISTS phases (
			id UUID PRIMARY KEY,
			name VARCHAR(100) NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			order_index INT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT true,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE UNIQUE INDEX IF NOT EXISTS idx_phases_order ON phases(order_index);
		`,
		`
		CREATE TABLE IF NOT EXISTS projects (
			id UUID PRIMARY KEY,
			name VARCHAR(100) NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status VARCHAR(20) NOT NULL DEFAULT 'InProgress',
			owner_id UUID NOT NULL REFERENCES users(id),
			start_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			end_date TIMESTAMPTZ,
			is_deleted BOOLEAN NOT NULL DEFAULT false,
			deleted_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_projects_owner ON projects(owner_id);
		`,
		`
		CREATE TABLE IF NOT EXISTS project_phases (
			id UUID PRIMARY KEY,
			project_id UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			phase_id UUID NOT NULL REFERENCES phases(id),
			status VARCHAR(20) NOT NULL DEFAULT 'NotStarted',
			data JSONB NOT NULL DEFAULT '{}'::jsonb,
			started_at TIMESTAMPTZ,
			completed_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (project_id, phase_id)
		);
		CREATE INDEX IF NOT EXISTS idx_project_phases_project ON project_phases(project_id);
		`,
		`
		CREATE TABLE IF NOT EXISTS project_collaborators (
			id BIGSERIAL PRIMARY KEY,
			project_id UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			user_id UUID NOT NULL REFERENCES users(id),
			is_active BOOLEAN NOT NULL DEFAULT true,
			joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			left_at TIMESTAMPTZ,
			UNIQUE (project_id, user_id)
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS project_invitations (
			id UUID PRIMARY KEY,
			project_id UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
			inviter_id UUID NOT NULL REFERENCES users(id),
			invitee_email VARCHAR(255) NOT NULL,
			token VARCHAR(128) UNIQUE NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			expires_at TIMESTAMPTZ NOT NULL,
			accepted_at TIMESTAMPTZ,
			rejected_at TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS idx_invitations_token ON project_invitations(token);
		`,
		`
		CREATE TABLE IF NOT EXISTS search_tasks (
			id BIGSERIAL PRIMARY KEY,
			task_id VARCHAR(64) UNIQUE NOT NULL,
			email VARCHAR(255) NOT NULL,
			query TEXT NOT NULL,
			problem_statement TEXT NOT NULL DEFAULT '',
			target_audience TEXT NOT NULL DEFAULT '',
			analysis TEXT,
			status VARCHAR(20) NOT NULL DEFAULT 'PENDING',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			completed_at TIMESTAMPTZ
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS relevant_posts (
			id BIGSERIAL PRIMARY KEY,
			task_id VARCHAR(64) NOT NULL REFERENCES search_tasks(task_id) ON DELETE CASCADE,
			title TEXT NOT NULL,
			link TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_relevant_posts_task ON relevant_posts(task_id);
		`,
		`
		CREATE TABLE IF NOT EXISTS outbox_events (
			id BIGSERIAL PRIMARY KEY,
			aggregate_type VARCHAR(100) NOT NULL,
			aggregate_id VARCHAR(100),
			routing_key VARCHAR(255) NOT NULL,
			payload JSONB NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'pending',
			retry_count INT NOT NULL DEFAULT 0,
			next_retry_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox_events(status, next_retry_at);
		`,
	}

	for _, migration := range migrations {
		if _, err := pool.Exec(ctx, migration); err != nil {
			return err
		}
	}

	return nil
}

// CleanupTestDB truncates all tables for a fresh test state. Call at the
// start of each integration test.
func CleanupTestDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()
	_, err := pool.Exec(ctx, `
		TRUNCATE TABLE outbox_events, relevant_posts, search_tasks,
		               project_invitations, project_collaborators,
		               project_phases, projects, phases, users CASCADE
	`)
	require.NoError(t, err)
}

// TeardownTestDB closes the test pool. Safe to call with nil.
func TeardownTestDB(pool *pgxpool.Pool) {
	if pool != nil {
		pool.Close()
	}
}
