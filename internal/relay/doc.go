// Package relay переносит jobs и tasks из outbox PostgreSQL в RabbitMQ.
//
// Relay периодически читает PENDING jobs и QUEUED tasks и публикует их
// через mq.PayloadPoster.
//
// Структура:
//   - relay.go    — Relay, Tick, публикация одной записи
//   - schedule.go — Run по cron-расписанию, ValidateSchedule
//   - metrics.go  — Prometheus счётчики
//
// Использование:
//
//	outbox := repo.NewOutbox(pool)
//	r := relay.New(relay.Config{
//	    Jobs:          outbox,
//	    Tasks:         outbox,
//	    Poster:        manager,
//	    Elector:       repo.NewLeader(pool, lockKey), // опционально
//	    Logger:        logger,
//	    RatePerSecond: 50,
//	})
//
//	if err := r.Run(ctx, "@every 2s"); err != nil {
//	    logger.Error("relay failed", "error", err)
//	}
//
// Poster должен привязывать очереди job и work к их exchanges
// (mq.Options.BindDirectQueues), иначе Tick и Run возвращают ErrUnroutable.
//
// Гарантия доставки at-least-once: если publish прошёл, а отметка в БД
// нет, запись уйдёт в брокер повторно на следующем тике.
//
// Leader Election:
//
// Если задан Elector, тик выполняет только процесс, получивший
// pg advisory lock.
package relay
