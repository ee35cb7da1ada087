package mq

import (
	"strings"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// Exchanges — имена обменников.
const (
	ExchangeInfo   Exchange = "info-topic"
	ExchangeJob    Exchange = "job"
	ExchangeWork   Exchange = "work"
	ExchangeWorker Exchange = "worker-topic"
)

// Типы обменников.
const (
	KindDirect = "direct"
	KindTopic  = "topic"
)

// Queues — имена очередей.
const (
	QueueInfo   Queue = "info"
	QueueJob    Queue = "job"
	QueueWork   Queue = "work"
	QueueWorker Queue = "worker"
)

// Routing keys.
const (
	// RoutingKeyJob и RoutingKeyWork совпадают с именами очередей.
	RoutingKeyJob  = "job"
	RoutingKeyWork = "work"

	// PatternAll — binding pattern, совпадающий с любым ключом.
	PatternAll = "#"
)

// TopologyDeclarer объявляет exchanges и queues.
type TopologyDeclarer interface {
	DeclareTopicExchange() error
	DeclareJobExchange() error
	DeclareWorkExchange() error
	DeclareWorkerExchange() error
	CreateInfoQueue() error
	CreateJobQueue() error
	CreateWorkQueue() error
	CreateWorkerQueue() error
	SetupTopology() error
}

// DeclareTopicExchange объявляет topic exchange info-topic.
// Сюда пишут PostToInfo, PostJobInfo и PostTaskInfo.
func (m *Manager) DeclareTopicExchange() error {
	return m.declareExchange(ExchangeInfo, KindTopic)
}

// DeclareJobExchange объявляет direct exchange job.
func (m *Manager) DeclareJobExchange() error {
	return m.declareExchange(ExchangeJob, KindDirect)
}

// DeclareWorkExchange объявляет direct exchange work.
func (m *Manager) DeclareWorkExchange() error {
	return m.declareExchange(ExchangeWork, KindDirect)
}

// DeclareWorkerExchange объявляет topic exchange worker-topic.
func (m *Manager) DeclareWorkerExchange() error {
	return m.declareExchange(ExchangeWorker, KindTopic)
}

// CreateInfoQueue объявляет очередь info и привязывает её к info-topic
// с pattern "#": очередь получает все сообщения обменника.
func (m *Manager) CreateInfoQueue() error {
	if err := m.declareQueue(QueueInfo); err != nil {
		return err
	}
	return m.bindQueue(QueueInfo, PatternAll, ExchangeInfo)
}

// CreateJobQueue объявляет очередь job.
//
// Очередь не привязывается к exchange job, если не задан
// Options.BindDirectQueues.
func (m *Manager) CreateJobQueue() error {
	if err := m.declareQueue(QueueJob); err != nil {
		return err
	}
	if !m.opts.BindDirectQueues {
		return nil
	}
	return m.bindQueue(QueueJob, RoutingKeyJob, ExchangeJob)
}

// CreateWorkQueue объявляет очередь work. См. CreateJobQueue.
func (m *Manager) CreateWorkQueue() error {
	if err := m.declareQueue(QueueWork); err != nil {
		return err
	}
	if !m.opts.BindDirectQueues {
		return nil
	}
	return m.bindQueue(QueueWork, RoutingKeyWork, ExchangeWork)
}

// CreateWorkerQueue объявляет очередь worker и привязывает её к
// worker-topic с pattern "#".
func (m *Manager) CreateWorkerQueue() error {
	if err := m.declareQueue(QueueWorker); err != nil {
		return err
	}
	return m.bindQueue(QueueWorker, PatternAll, ExchangeWorker)
}

// SetupTopology объявляет всю топологию: сначала exchanges, затем queues.
// Останавливается на первой ошибке. Повторный вызов безопасен.
func (m *Manager) SetupTopology() error {
	steps := []func() error{
		m.DeclareTopicExchange,
		m.DeclareJobExchange,
		m.DeclareWorkExchange,
		m.DeclareWorkerExchange,
		m.CreateInfoQueue,
		m.CreateJobQueue,
		m.CreateWorkQueue,
		m.CreateWorkerQueue,
	}

	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}

	m.logger.Info("topology declared", "bind_direct_queues", m.opts.BindDirectQueues)
	return nil
}

// declareExchange объявляет durable обменник.
func (m *Manager) declareExchange(name Exchange, kind string) error {
	err := m.ch.ExchangeDeclare(
		string(name), // name
		kind,         // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		declaredTotal.WithLabelValues("exchange", resultError).Inc()
		return &TopologyError{Op: "declare exchange", Name: string(name), Err: err}
	}

	declaredTotal.WithLabelValues("exchange", resultOK).Inc()
	m.logger.Debug("exchange declared", "exchange", name, "kind", kind)
	return nil
}

// declareQueue объявляет durable очередь.
func (m *Manager) declareQueue(name Queue) error {
	_, err := m.ch.QueueDeclare(
		string(name), // name
		true,         // durable
		false,        // delete when unused
		false,        // exclusive
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		declaredTotal.WithLabelValues("queue", resultError).Inc()
		return &TopologyError{Op: "declare queue", Name: string(name), Err: err}
	}

	declaredTotal.WithLabelValues("queue", resultOK).Inc()
	m.logger.Debug("queue declared", "queue", name)
	return nil
}

// bindQueue привязывает очередь к обменнику.
func (m *Manager) bindQueue(queue Queue, pattern string, exchange Exchange) error {
	err := m.ch.QueueBind(
		string(queue),    // queue name
		pattern,          // routing key
		string(exchange), // exchange
		false,            // no-wait
		nil,              // arguments
	)
	if err != nil {
		declaredTotal.WithLabelValues("binding", resultError).Inc()
		return &TopologyError{Op: "bind queue", Name: string(queue) + "->" + string(exchange), Err: err}
	}

	declaredTotal.WithLabelValues("binding", resultOK).Inc()
	m.logger.Debug("queue bound", "queue", queue, "exchange", exchange, "pattern", pattern)
	return nil
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo(bindDirectQueues bool) string {
	directLine := func(key string) string {
		if bindDirectQueues {
			return "[routing: " + key + "]"
		}
		return "(unbound)"
	}

	var b strings.Builder
	b.WriteString("bender-mq topology:\n\n")
	b.WriteString("  info-topic (topic)\n")
	b.WriteString("  └── info [routing: #]\n\n")
	b.WriteString("  job (direct)\n")
	b.WriteString("  └── job " + directLine(RoutingKeyJob) + "\n\n")
	b.WriteString("  work (direct)\n")
	b.WriteString("  └── work " + directLine(RoutingKeyWork) + "\n\n")
	b.WriteString("  worker-topic (topic)\n")
	b.WriteString("  └── worker [routing: #]\n")
	return b.String()
}
