package mq

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// ContentType — content type всех сообщений bender-mq.
const ContentType = "text"

// ErrorPolicy определяет, что делать с ошибкой публикации.
type ErrorPolicy int

const (
	// PolicyLog — записать ошибку в лог и вернуть nil (поведение по умолчанию).
	PolicyLog ErrorPolicy = iota

	// PolicyReturn — вернуть *PublishError вызывающему.
	PolicyReturn

	// PolicyCallback — передать *PublishError в callback и вернуть nil.
	PolicyCallback
)

// String возвращает имя политики, как оно пишется в конфигурации.
func (p ErrorPolicy) String() string {
	switch p {
	case PolicyLog:
		return "log"
	case PolicyReturn:
		return "return"
	case PolicyCallback:
		return "callback"
	default:
		return fmt.Sprintf("ErrorPolicy(%d)", int(p))
	}
}

// ParseErrorPolicy парсит имя политики: log, return, callback.
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch s {
	case "", "log":
		return PolicyLog, nil
	case "return":
		return PolicyReturn, nil
	case "callback":
		return PolicyCallback, nil
	default:
		return PolicyLog, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// PublishOption переопределяет поведение одного вызова публикации.
type PublishOption func(*publishConfig)

type publishConfig struct {
	policy   ErrorPolicy
	callback func(*PublishError)
}

// WithErrorPolicy задаёт политику ошибок для вызова.
func WithErrorPolicy(p ErrorPolicy) PublishOption {
	return func(c *publishConfig) {
		c.policy = p
	}
}

// WithErrorCallback включает PolicyCallback с указанным callback.
func WithErrorCallback(fn func(*PublishError)) PublishOption {
	return func(c *publishConfig) {
		c.policy = PolicyCallback
		c.callback = fn
	}
}

// Publisher публикует сырые сообщения в обменники топологии.
type Publisher interface {
	PostToInfo(ctx context.Context, routingKey string, body []byte, opts ...PublishOption) error
	PostToJob(ctx context.Context, body []byte, opts ...PublishOption) error
	PostToWork(ctx context.Context, body []byte, opts ...PublishOption) error
	WorkerPost(ctx context.Context, routingKey string, body []byte, opts ...PublishOption) error
}

// PostToInfo публикует сообщение в info-topic. Routing key передаётся как есть,
// в том числе пустой или с точками.
func (m *Manager) PostToInfo(ctx context.Context, routingKey string, body []byte, opts ...PublishOption) error {
	return m.publish(ctx, ExchangeInfo, routingKey, body, opts)
}

// PostToJob публикует сообщение в exchange job с routing key "job".
func (m *Manager) PostToJob(ctx context.Context, body []byte, opts ...PublishOption) error {
	return m.publish(ctx, ExchangeJob, RoutingKeyJob, body, opts)
}

// PostToWork публикует сообщение в exchange work с routing key "work".
func (m *Manager) PostToWork(ctx context.Context, body []byte, opts ...PublishOption) error {
	return m.publish(ctx, ExchangeWork, RoutingKeyWork, body, opts)
}

// WorkerPost публикует статус воркера в worker-topic.
func (m *Manager) WorkerPost(ctx context.Context, routingKey string, body []byte, opts ...PublishOption) error {
	return m.publish(ctx, ExchangeWorker, routingKey, body, opts)
}

// publish отправляет одно сообщение: mandatory, без immediate, без ожидания
// подтверждения брокера. Попытка ровно одна.
func (m *Manager) publish(ctx context.Context, exchange Exchange, routingKey string, body []byte, opts []PublishOption) error {
	cfg := publishConfig{
		policy:   m.opts.OnPublishError,
		callback: m.opts.OnError,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	msg := amqp.Publishing{
		ContentType: ContentType,
		MessageId:   uuid.NewString(),
		Timestamp:   time.Now(),
		Body:        body,
	}

	err := m.ch.PublishWithContext(
		ctx,
		string(exchange), // exchange
		routingKey,       // routing key
		true,             // mandatory
		false,            // immediate
		msg,
	)
	if err == nil {
		publishedTotal.WithLabelValues(string(exchange), resultOK).Inc()
		m.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.MessageId,
			"size", len(body),
		)
		return nil
	}

	publishedTotal.WithLabelValues(string(exchange), resultError).Inc()
	pubErr := &PublishError{Exchange: exchange, RoutingKey: routingKey, Err: err}

	m.logger.Error("failed to publish message",
		"exchange", exchange,
		"routing_key", routingKey,
		"message_id", msg.MessageId,
		"policy", cfg.policy,
		"error", err,
	)

	switch cfg.policy {
	case PolicyReturn:
		return pubErr
	case PolicyCallback:
		if cfg.callback != nil {
			cfg.callback(pubErr)
		}
	}

	return nil
}
