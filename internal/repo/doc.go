// Package repo хранит outbox bender в PostgreSQL.
//
// Таблицы:
//   - bender_jobs  — jobs, ожидающие публикации в exchange job (PENDING → POSTED)
//   - bender_tasks — tasks, ожидающие публикации в exchange work (QUEUED → DISPATCHED)
//
// Relay читает PENDING jobs и QUEUED tasks, публикует их и отмечает
// публикацию вместе с Fingerprint опубликованного текста.
//
// Репозитории принимают DB: *pgxpool.Pool в проде, fake в тестах.
package repo
