package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Schema cria as tabelas usadas pelo servidor. É idempotente.
const Schema = `
CREATE TABLE IF NOT EXISTS workspaces (
	id          UUID PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	owner_uid   TEXT NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS workspace_members (
	workspace_id UUID NOT NULL REFERENCES workspaces(id) ON DELETE CASCADE,
	user_id      TEXT NOT NULL,
	display_name TEXT NOT NULL DEFAULT '',
	email        TEXT NOT NULL DEFAULT '',
	role         TEXT NOT NULL CHECK (role IN ('owner', 'admin', 'member', 'viewer')),
	joined_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (workspace_id, user_id)
);

CREATE TABLE IF NOT EXISTS task_groups (
	id           UUID PRIMARY KEY,
	workspace_id UUID NOT NULL REFERENCES workspaces(id) ON DELETE CASCADE,
	name         TEXT NOT NULL,
	color        TEXT NOT NULL DEFAULT '',
	position     DOUBLE PRECISION NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id           UUID PRIMARY KEY,
	title        TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	status       TEXT NOT NULL CHECK (status IN ('todo', 'in_progress', 'done', 'archived')),
	priority     TEXT CHECK (priority IN ('low', 'medium', 'high', 'urgent')),
	position     DOUBLE PRECISION NOT NULL,
	group_id     UUID REFERENCES task_groups(id) ON DELETE SET NULL,
	workspace_id UUID REFERENCES workspaces(id) ON DELETE CASCADE,
	assignee_id  TEXT,
	due_date     TIMESTAMPTZ,
	origin       JSONB NOT NULL DEFAULT '{"source":"manual"}',
	created_by   TEXT NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS tasks_workspace_position_idx ON tasks (workspace_id, position);
CREATE INDEX IF NOT EXISTS tasks_personal_idx ON tasks (created_by) WHERE workspace_id IS NULL;
CREATE INDEX IF NOT EXISTS tasks_due_idx ON tasks (workspace_id, due_date) WHERE due_date IS NOT NULL;
`

func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("criar tabelas: %w", err)
	}
	return nil
}
