// Package mq описывает топологию RabbitMQ для bender и операции публикации.
//
// Структура:
//   - connection.go — открытие сессии и канала, Manager, Options
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация сырых сообщений, политики ошибок
//   - payload.go    — публикация Job и Task (сериализация + publish)
//   - metrics.go    — Prometheus счётчики
//   - errors.go     — ConnectionError, ConfigError, TopologyError, PublishError
//
// Exchanges:
//   - info-topic   (topic)  — состояние jobs и tasks, routing key произвольный
//   - job          (direct) — передача jobs, routing key "job"
//   - work         (direct) — передача tasks воркерам, routing key "work"
//   - worker-topic (topic)  — статусы воркеров
//
// Queues:
//   - info   — привязана к info-topic с pattern "#"
//   - job    — без binding (см. Options.BindDirectQueues)
//   - work   — без binding (см. Options.BindDirectQueues)
//   - worker — привязана к worker-topic с pattern "#"
//
// Порядок использования:
//
//	m, err := mq.OpenChannel("amqp://localhost//", mq.Options{Logger: logger})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer m.Close()
//
//	if err := m.SetupTopology(); err != nil {
//	    log.Fatal(err)
//	}
//
//	text, err := m.PostJob(ctx, job)
//
// Все сообщения публикуются с content type "text" и mandatory=true.
// Ошибки публикации по умолчанию только логируются (PolicyLog); строгие
// вызывающие включают PolicyReturn через WithErrorPolicy.
//
// Manager не потокобезопасен: один Manager на горутину или внешний mutex.
package mq
