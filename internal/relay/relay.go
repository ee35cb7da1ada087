package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/beefsack/go-rate"
	"github.com/google/uuid"

	"github.com/atoav/bender-mq/internal/domain"
	"github.com/atoav/bender-mq/internal/mq"
	"github.com/atoav/bender-mq/internal/repo"
	"github.com/atoav/bender-mq/internal/telemetry"
)

// JobStore — outbox jobs.
type JobStore interface {
	ListPending(ctx context.Context, limit int) ([]domain.Job, error)
	MarkPosted(ctx context.Context, id, fingerprint string) error
}

// TaskStore — outbox tasks.
type TaskStore interface {
	ListQueued(ctx context.Context, limit int) ([]domain.Task, error)
	MarkDispatched(ctx context.Context, id uuid.UUID, fingerprint string) error
}

// Elector решает, может ли процесс выполнять тик. repo.Leader удовлетворяет интерфейсу.
type Elector interface {
	TryAcquire(ctx context.Context) (bool, error)
}

// ErrUnroutable возвращается, если очереди job и work не привязаны к своим
// exchanges: брокер вернул бы каждую публикацию, а запись была бы отмечена.
var ErrUnroutable = errors.New("relay: job and work queues are not bound to their exchanges")

// directRouter реализуется *mq.Manager.
type directRouter interface {
	BindsDirectQueues() bool
}

// Relay переносит jobs и tasks из outbox в брокер.
type Relay struct {
	jobs    JobStore
	tasks   TaskStore
	poster  mq.PayloadPoster
	elector Elector
	limiter *rate.RateLimiter
	logger  *slog.Logger

	batchSize int
}

// Config — конфигурация Relay.
type Config struct {
	Jobs    JobStore
	Tasks   TaskStore
	Poster  mq.PayloadPoster
	Elector Elector // опционально: без него тик выполняется всегда
	Logger  *slog.Logger

	BatchSize     int // jobs и tasks за один тик (default: 100)
	RatePerSecond int // 0 — без ограничения
}

// Result — итог одного тика.
type Result struct {
	JobsPosted      int
	JobsFailed      int
	TasksDispatched int
	TasksFailed     int
}

// New создаёт новый Relay.
func New(cfg Config) *Relay {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &Relay{
		jobs:      cfg.Jobs,
		tasks:     cfg.Tasks,
		poster:    cfg.Poster,
		elector:   cfg.Elector,
		logger:    telemetry.WithComponent(logger, "relay"),
		batchSize: batchSize,
	}
	if cfg.RatePerSecond > 0 {
		r.limiter = rate.New(cfg.RatePerSecond, time.Second)
	}
	return r
}

// Tick выполняет один проход relay.
//
// 1. Публикует PENDING jobs в exchange job, отмечает POSTED, шлёт состояние в info-topic
// 2. Публикует QUEUED tasks в exchange work, отмечает DISPATCHED, шлёт состояние в info-topic
//
// Публикация в job и work строгая: запись отмечается только после успешного
// publish. Публикация состояния в info-topic best-effort.
// Ошибки одной записи не блокируют обработку остальных.
func (r *Relay) Tick(ctx context.Context) (Result, error) {
	var res Result

	if err := r.checkRouting(); err != nil {
		return res, err
	}

	jobs, err := r.jobs.ListPending(ctx, r.batchSize)
	if err != nil {
		return res, fmt.Errorf("list pending jobs: %w", err)
	}

	for i := range jobs {
		if err := r.wait(ctx); err != nil {
			return res, err
		}
		if r.postJob(ctx, &jobs[i]) {
			res.JobsPosted++
		} else {
			res.JobsFailed++
		}
	}

	tasks, err := r.tasks.ListQueued(ctx, r.batchSize)
	if err != nil {
		return res, fmt.Errorf("list queued tasks: %w", err)
	}

	for i := range tasks {
		if err := r.wait(ctx); err != nil {
			return res, err
		}
		if r.postTask(ctx, &tasks[i]) {
			res.TasksDispatched++
		} else {
			res.TasksFailed++
		}
	}

	if len(jobs)+len(tasks) > 0 {
		r.logger.Info("relay tick completed",
			"jobs_posted", res.JobsPosted,
			"jobs_failed", res.JobsFailed,
			"tasks_dispatched", res.TasksDispatched,
			"tasks_failed", res.TasksFailed,
		)
	}

	return res, nil
}

// postJob публикует один job. Возвращает true, если job отмечен POSTED.
func (r *Relay) postJob(ctx context.Context, job *domain.Job) bool {
	logger := telemetry.WithJobID(r.logger, job.ID())

	text, err := r.poster.PostJob(ctx, job, mq.WithErrorPolicy(mq.PolicyReturn))
	if err != nil {
		postedTotal.WithLabelValues(kindJob, resultError).Inc()
		if errors.Is(err, mq.ErrPublish) {
			logger.Error("failed to post job", "error", err)
		} else {
			logger.Error("failed to serialize job, skipping", "error", err)
		}
		return false
	}

	if err := r.jobs.MarkPosted(ctx, job.ID(), repo.Fingerprint(text)); err != nil {
		// job уже в брокере; следующий тик опубликует его повторно
		postedTotal.WithLabelValues(kindJob, resultError).Inc()
		logger.Error("failed to mark job posted", "error", err)
		return false
	}

	postedTotal.WithLabelValues(kindJob, resultOK).Inc()
	logger.Debug("job posted")

	job.MarkPosted()
	if _, err := r.poster.PostJobInfo(ctx, job); err != nil {
		logger.Warn("failed to post job info", "error", err)
	}
	return true
}

// postTask публикует один task. Возвращает true, если task отмечен DISPATCHED.
func (r *Relay) postTask(ctx context.Context, task *domain.Task) bool {
	logger := telemetry.WithTaskID(telemetry.WithJobID(r.logger, task.JobID), task.ID.String())

	text, err := r.poster.PostTask(ctx, task, mq.WithErrorPolicy(mq.PolicyReturn))
	if err != nil {
		postedTotal.WithLabelValues(kindTask, resultError).Inc()
		if errors.Is(err, mq.ErrPublish) {
			logger.Error("failed to post task", "error", err)
		} else {
			logger.Error("failed to serialize task, skipping", "error", err)
		}
		return false
	}

	if err := r.tasks.MarkDispatched(ctx, task.ID, repo.Fingerprint(text)); err != nil {
		postedTotal.WithLabelValues(kindTask, resultError).Inc()
		logger.Error("failed to mark task dispatched", "error", err)
		return false
	}

	postedTotal.WithLabelValues(kindTask, resultOK).Inc()
	logger.Debug("task dispatched", "frame", task.Frame)

	task.MarkDispatched()
	if _, err := r.poster.PostTaskInfo(ctx, task, task.InfoKey()); err != nil {
		logger.Warn("failed to post task info", "error", err)
	}
	return true
}

// checkRouting проверяет, что poster доставит публикации в очереди job и work.
func (r *Relay) checkRouting() error {
	if dr, ok := r.poster.(directRouter); ok && !dr.BindsDirectQueues() {
		return ErrUnroutable
	}
	return nil
}

// wait ждёт разрешения rate limiter или отмены ctx.
func (r *Relay) wait(ctx context.Context) error {
	if r.limiter == nil {
		return ctx.Err()
	}

	for {
		ok, remaining := r.limiter.Try()
		if ok {
			return nil
		}

		timer := time.NewTimer(remaining)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
