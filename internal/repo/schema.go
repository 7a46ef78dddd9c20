package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaDDL — схема БД. Идемпотентна: EnsureSchema можно звать
// при каждом старте.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS projects (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS samples (
	id         UUID PRIMARY KEY,
	project_id UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	name       TEXT NOT NULL,
	metadata   JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE (project_id, name)
);

CREATE TABLE IF NOT EXISTS workflows (
	id              UUID PRIMARY KEY,
	project_id      UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	name            TEXT NOT NULL,
	status          TEXT NOT NULL,
	idempotency_key TEXT,
	created_at      TIMESTAMPTZ NOT NULL
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_workflows_idempotency
	ON workflows(project_id, idempotency_key)
	WHERE idempotency_key IS NOT NULL;

CREATE TABLE IF NOT EXISTS jobs (
	id           UUID PRIMARY KEY,
	workflow_id  UUID NOT NULL REFERENCES workflows(id) ON DELETE CASCADE,
	sample       TEXT NOT NULL,
	stage        TEXT NOT NULL,
	name         TEXT NOT NULL,
	definition   TEXT NOT NULL,
	queue        TEXT NOT NULL,
	parameters   JSONB,
	outputs      JSONB NOT NULL,
	upstreams    JSONB,
	timeout_sec  INTEGER NOT NULL DEFAULT 0,
	identity     TEXT NOT NULL,
	remote_id    TEXT,
	state        TEXT NOT NULL,
	completed_by TEXT,
	error        TEXT,
	submitted_at TIMESTAMPTZ,
	finished_at  TIMESTAMPTZ,
	created_at   TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_jobs_workflow ON jobs(workflow_id);
CREATE INDEX IF NOT EXISTS idx_jobs_identity ON jobs(identity);
CREATE INDEX IF NOT EXISTS idx_jobs_state ON jobs(state);

CREATE TABLE IF NOT EXISTS schedules (
	id               UUID PRIMARY KEY,
	project_id       UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	name             TEXT NOT NULL,
	template         JSONB NOT NULL,
	cron_expr        TEXT,
	interval_sec     INTEGER,
	timezone         TEXT NOT NULL DEFAULT 'UTC',
	enabled          BOOLEAN NOT NULL DEFAULT true,
	next_due_at      TIMESTAMPTZ,
	last_run_at      TIMESTAMPTZ,
	last_workflow_id UUID,
	created_at       TIMESTAMPTZ NOT NULL,
	updated_at       TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_schedules_due
	ON schedules(next_due_at)
	WHERE enabled = true;
`

// EnsureSchema создаёт таблицы и индексы, если их ещё нет.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
