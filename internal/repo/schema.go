package repo

import (
	"context"
	"fmt"
)

// schema — таблицы outbox. Relay забирает из них записи в статусах
// PENDING и QUEUED и публикует в брокер.
const schema = `
CREATE TABLE IF NOT EXISTS bender_jobs (
	id          TEXT PRIMARY KEY,
	blend_file  TEXT NOT NULL,
	frame_start INT NOT NULL,
	frame_end   INT NOT NULL,
	frame_step  INT NOT NULL DEFAULT 1,
	status      TEXT NOT NULL,
	email       TEXT,
	data        JSONB,
	fingerprint TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	posted_at   TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS bender_jobs_status_idx ON bender_jobs (status, created_at);

CREATE TABLE IF NOT EXISTS bender_tasks (
	id            UUID PRIMARY KEY,
	job_id        TEXT NOT NULL REFERENCES bender_jobs (id) ON DELETE CASCADE,
	command       TEXT NOT NULL,
	frame         INT NOT NULL,
	status        TEXT NOT NULL,
	attempt       INT NOT NULL DEFAULT 0,
	fingerprint   TEXT,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	dispatched_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS bender_tasks_status_idx ON bender_tasks (status, created_at);
`

// EnsureSchema создаёт таблицы outbox, если их нет.
func EnsureSchema(ctx context.Context, db DB) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
