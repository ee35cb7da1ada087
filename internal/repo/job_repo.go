package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	jsoniter "github.com/json-iterator/go"

	"github.com/atoav/bender-mq/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// JobRepo — outbox jobs.
type JobRepo struct {
	db DB
}

// NewJobRepo создаёт новый JobRepo.
func NewJobRepo(db DB) *JobRepo {
	return &JobRepo{db: db}
}

const jobColumns = `id, blend_file, frame_start, frame_end, frame_step, status, email, data, created_at, posted_at`

// CreateWithTasks сохраняет job и его tasks в одной транзакции.
func (r *JobRepo) CreateWithTasks(ctx context.Context, job *domain.Job, tasks []domain.Task) error {
	return pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if err := insertJob(ctx, tx, job); err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for i := range tasks {
			queueTask(batch, &tasks[i])
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			if isUniqueViolation(err) {
				return ErrAlreadyExists
			}
			return fmt.Errorf("insert tasks: %w", err)
		}
		return nil
	})
}

// GetByID возвращает job по ID.
func (r *JobRepo) GetByID(ctx context.Context, id string) (*domain.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM bender_jobs WHERE id = $1`

	job, err := scanJob(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return job, err
}

// ListPending возвращает jobs в статусе PENDING, старые первыми.
func (r *JobRepo) ListPending(ctx context.Context, limit int) ([]domain.Job, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM bender_jobs
		WHERE status = 'PENDING'
		ORDER BY created_at ASC
		LIMIT $1
	`
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending jobs: %w", err)
	}
	defer rows.Close()

	var jobs []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *job)
	}
	return jobs, rows.Err()
}

// MarkPosted переводит job в POSTED и сохраняет fingerprint опубликованного текста.
func (r *JobRepo) MarkPosted(ctx context.Context, id, fingerprint string) error {
	result, err := r.db.Exec(ctx, `
		UPDATE bender_jobs
		SET status = 'POSTED', posted_at = $3, fingerprint = $2
		WHERE id = $1
	`, id, fingerprint, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark job posted: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Helpers ---

// rowScanner — общий метод pgx.Row и pgx.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertJob(ctx context.Context, db execer, job *domain.Job) error {
	dataJSON, err := marshalData(job.Data)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO bender_jobs (id, blend_file, frame_start, frame_end, frame_step, status, email, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = db.Exec(ctx, query,
		job.JobID,
		job.BlendFile,
		job.Frames.Start,
		job.Frames.End,
		frameStep(job.Frames.Step),
		job.Status,
		nullString(job.Email),
		dataJSON,
		job.CreatedAt,
	)
	if isUniqueViolation(err) {
		return ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var job domain.Job
	var email *string
	var dataJSON []byte

	err := row.Scan(
		&job.JobID,
		&job.BlendFile,
		&job.Frames.Start,
		&job.Frames.End,
		&job.Frames.Step,
		&job.Status,
		&email,
		&dataJSON,
		&job.CreatedAt,
		&job.PostedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan job: %w", err)
	}

	if email != nil {
		job.Email = *email
	}
	if dataJSON != nil {
		if err := json.Unmarshal(dataJSON, &job.Data); err != nil {
			return nil, fmt.Errorf("unmarshal data: %w", err)
		}
	}

	return &job, nil
}

func marshalData(data map[string]any) ([]byte, error) {
	if data == nil {
		return nil, nil
	}
	b, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal data: %w", err)
	}
	return b, nil
}

func frameStep(step int) int {
	if step <= 0 {
		return 1
	}
	return step
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
