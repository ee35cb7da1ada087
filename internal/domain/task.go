package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Task — отдельная единица работы внутри job: рендер одного кадра.
//
// Task публикуется в exchange work, воркеры забирают его из очереди work.
type Task struct {
	// ID — уникальный идентификатор task.
	ID uuid.UUID `json:"id"`

	// JobID — ссылка на родительский job.
	JobID string `json:"job_id"`

	// Command — команда, которую выполнит воркер.
	Command string `json:"command"`

	// Frame — номер кадра.
	Frame int `json:"frame"`

	// Status — текущий статус task.
	Status TaskStatus `json:"status"`

	// Attempt — номер попытки (начиная с 1 после первого запуска).
	Attempt int `json:"attempt"`

	// CreatedAt — время создания task.
	CreatedAt time.Time `json:"created_at"`

	// DispatchedAt — время публикации в exchange work.
	DispatchedAt *time.Time `json:"dispatched_at,omitempty"`
}

// NewTask создаёт task для кадра job в статусе QUEUED.
func NewTask(job *Job, frame int) *Task {
	return &Task{
		ID:        uuid.New(),
		JobID:     job.JobID,
		Command:   fmt.Sprintf("blender -b %s -f %d", job.BlendFile, frame),
		Frame:     frame,
		Status:    TaskStatusQueued,
		CreatedAt: time.Now().UTC(),
	}
}

// Serialize кодирует task в JSON текст для публикации.
func (t *Task) Serialize() (string, error) {
	return serialize(t)
}

// ParseTask декодирует task из JSON текста.
func ParseTask(text string) (*Task, error) {
	var t Task
	if err := parse(text, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// InfoKey — routing key для публикации состояния task в info-topic:
// "<job_id>.<task_id>".
func (t *Task) InfoKey() string {
	return t.JobID + "." + t.ID.String()
}

// MarkDispatched переводит task в статус DISPATCHED.
func (t *Task) MarkDispatched() {
	now := time.Now().UTC()
	t.Status = TaskStatusDispatched
	t.DispatchedAt = &now
}

// IsFinished возвращает true, если task завершён.
func (t *Task) IsFinished() bool {
	return t.Status.IsTerminal()
}
