package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/atoav/bender-mq/internal/domain"
)

// TaskRepo — outbox tasks.
type TaskRepo struct {
	db DB
}

// NewTaskRepo создаёт новый TaskRepo.
func NewTaskRepo(db DB) *TaskRepo {
	return &TaskRepo{db: db}
}

const insertTaskSQL = `
	INSERT INTO bender_tasks (id, job_id, command, frame, status, attempt, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
`

// ListQueued возвращает tasks в статусе QUEUED, чей job уже опубликован.
// Task не уходит воркерам раньше своего job.
func (r *TaskRepo) ListQueued(ctx context.Context, limit int) ([]domain.Task, error) {
	query := `
		SELECT t.id, t.job_id, t.command, t.frame, t.status, t.attempt, t.created_at, t.dispatched_at
		FROM bender_tasks t
		JOIN bender_jobs j ON j.id = t.job_id
		WHERE t.status = 'QUEUED' AND j.status <> 'PENDING'
		ORDER BY t.created_at ASC, t.frame ASC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list queued tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

// ListByJobID возвращает все tasks job по порядку кадров.
func (r *TaskRepo) ListByJobID(ctx context.Context, jobID string) ([]domain.Task, error) {
	query := `
		SELECT id, job_id, command, frame, status, attempt, created_at, dispatched_at
		FROM bender_tasks
		WHERE job_id = $1
		ORDER BY frame ASC
	`
	rows, err := r.db.Query(ctx, query, jobID)
	if err != nil {
		return nil, fmt.Errorf("list tasks by job_id: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

// MarkDispatched переводит task в DISPATCHED, увеличивает attempt и
// сохраняет fingerprint опубликованного текста.
func (r *TaskRepo) MarkDispatched(ctx context.Context, id uuid.UUID, fingerprint string) error {
	result, err := r.db.Exec(ctx, `
		UPDATE bender_tasks
		SET status = 'DISPATCHED', attempt = attempt + 1, dispatched_at = $3, fingerprint = $2
		WHERE id = $1
	`, id, fingerprint, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark task dispatched: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Helpers ---

func queueTask(batch *pgx.Batch, task *domain.Task) {
	batch.Queue(insertTaskSQL,
		task.ID,
		task.JobID,
		task.Command,
		task.Frame,
		task.Status,
		task.Attempt,
		task.CreatedAt,
	)
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task

	err := row.Scan(
		&task.ID,
		&task.JobID,
		&task.Command,
		&task.Frame,
		&task.Status,
		&task.Attempt,
		&task.CreatedAt,
		&task.DispatchedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan task: %w", err)
	}
	return &task, nil
}
