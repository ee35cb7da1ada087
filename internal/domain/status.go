package domain

// JobStatus — статус job.
//
// Жизненный цикл:
//
//	PENDING → POSTED → RUNNING → SUCCEEDED
//	                           ↘ FAILED
//	          (или) → CANCELLED (из любого нефинального)
type JobStatus string

const (
	// JobStatusPending — job создан, но ещё не отправлен в брокер.
	JobStatusPending JobStatus = "PENDING"

	// JobStatusPosted — job опубликован в exchange job.
	JobStatusPosted JobStatus = "POSTED"

	// JobStatusRunning — tasks job выполняются воркерами.
	JobStatusRunning JobStatus = "RUNNING"

	// JobStatusSucceeded — все tasks завершены успешно.
	JobStatusSucceeded JobStatus = "SUCCEEDED"

	// JobStatusFailed — job завершился с ошибкой.
	JobStatusFailed JobStatus = "FAILED"

	// JobStatusCancelled — job отменён пользователем.
	JobStatusCancelled JobStatus = "CANCELLED"
)

// IsTerminal возвращает true, если статус финальный.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusSucceeded, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// TaskStatus — статус выполнения task.
//
// Жизненный цикл:
//
//	QUEUED → DISPATCHED → RUNNING → SUCCEEDED
//	                              ↘ FAILED
type TaskStatus string

const (
	// TaskStatusQueued — task ждёт отправки в exchange work.
	TaskStatusQueued TaskStatus = "QUEUED"

	// TaskStatusDispatched — task опубликован, воркер ещё не взял его.
	TaskStatusDispatched TaskStatus = "DISPATCHED"

	// TaskStatusRunning — task выполняется воркером.
	TaskStatusRunning TaskStatus = "RUNNING"

	// TaskStatusSucceeded — task успешно завершён.
	TaskStatusSucceeded TaskStatus = "SUCCEEDED"

	// TaskStatusFailed — task завершился с ошибкой.
	TaskStatusFailed TaskStatus = "FAILED"
)

// IsTerminal возвращает true, если статус финальный.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusSucceeded, TaskStatusFailed:
		return true
	default:
		return false
	}
}
