package mq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/atoav/bender-mq/internal/config"
)

// Channel — подмножество методов *amqp.Channel, которое использует Manager.
//
// *amqp.Channel удовлетворяет интерфейсу напрямую, в тестах используется
// mqtest.Broker.
type Channel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	NotifyReturn(c chan amqp.Return) chan amqp.Return
	Close() error
}

// Session — открытое AMQP соединение, из которого берутся каналы.
type Session interface {
	Channel() (Channel, error)
	Close() error
}

// DialFunc открывает сессию по URL.
type DialFunc func(url string) (Session, error)

// amqpSession — Session поверх *amqp.Connection.
type amqpSession struct {
	conn *amqp.Connection
}

func (s *amqpSession) Channel() (Channel, error) {
	ch, err := s.conn.Channel()
	if err != nil {
		return nil, err
	}
	return ch, nil
}

func (s *amqpSession) Close() error {
	return s.conn.Close()
}

// DialAMQP — DialFunc по умолчанию, amqp.Dial.
func DialAMQP(url string) (Session, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return &amqpSession{conn: conn}, nil
}

// returnBuffer — размер буфера для возвращённых брокером сообщений.
const returnBuffer = 16

// Options — параметры Manager.
type Options struct {
	// Logger — логгер. По умолчанию slog.Default().
	Logger *slog.Logger

	// Dial — открытие сессии. По умолчанию DialAMQP.
	Dial DialFunc

	// BindDirectQueues — явно привязывать очереди job и work к одноимённым
	// direct exchange. Без binding RabbitMQ не доставляет в них сообщения.
	BindDirectQueues bool

	// OnPublishError — политика по умолчанию для ошибок публикации.
	OnPublishError ErrorPolicy

	// OnError — callback для PolicyCallback.
	OnError func(*PublishError)
}

// Manager — обёртка над одним открытым AMQP каналом.
//
// Manager объявляет топологию и публикует сообщения. Не безопасен для
// конкурентного использования: все вызовы идут по одному каналу и должны
// сериализоваться вызывающим (один Manager на воркер или mutex снаружи).
type Manager struct {
	ch      Channel
	session Session
	logger  *slog.Logger
	opts    Options

	returns chan amqp.Return
}

var _ Broker = (*Manager)(nil)

// NewManager оборачивает уже открытый канал.
func NewManager(ch Channel, opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m := &Manager{
		ch:     ch,
		logger: logger,
		opts:   opts,
	}

	// mandatory=true: брокер возвращает немаршрутизируемые сообщения сюда
	m.returns = ch.NotifyReturn(make(chan amqp.Return, returnBuffer))
	go m.watchReturns()

	return m
}

// OpenChannel открывает сессию по URL и канал на ней.
// Ошибка открытия сессии или канала возвращается как *ConnectionError.
func OpenChannel(url string, opts Options) (*Manager, error) {
	dial := opts.Dial
	if dial == nil {
		dial = DialAMQP
	}
	safeURL := RedactURL(url)

	session, err := dial(url)
	if err != nil {
		return nil, &ConnectionError{Op: "dial", URL: safeURL, Err: err}
	}

	ch, err := session.Channel()
	if err != nil {
		session.Close()
		return nil, &ConnectionError{Op: "open channel", URL: safeURL, Err: err}
	}

	m := NewManager(ch, opts)
	m.session = session

	m.logger.Info("connected to RabbitMQ", "url", safeURL)

	return m, nil
}

// OpenDefaultChannel открывает канал по URL из конфигурации.
//
// Если cfg == nil, конфигурация загружается из config.Location().
// Нулевые поля opts берутся из секции rabbitmq: BindDirectQueues=true
// и политика, отличная от PolicyLog, перекрывают конфигурацию, а false
// и PolicyLog — нет, потому что не отличаются от незаданных.
func OpenDefaultChannel(cfg *config.Config, opts Options) (*Manager, error) {
	if cfg == nil {
		path := config.Location()
		loaded, err := config.Load(path)
		if err != nil {
			return nil, &ConfigError{Path: path, Err: err}
		}
		cfg = loaded
	}

	if cfg.RabbitMQ.URL == "" {
		return nil, &ConfigError{Err: config.ErrMissingURL}
	}

	opts, err := opts.withConfig(cfg.RabbitMQ)
	if err != nil {
		return nil, &ConfigError{Err: err}
	}

	return OpenChannel(cfg.RabbitMQ.URL, opts)
}

// withConfig дополняет нулевые поля opts значениями из конфигурации.
// Нулевое значение считается незаданным.
func (o Options) withConfig(rc config.RabbitMQ) (Options, error) {
	if !o.BindDirectQueues {
		o.BindDirectQueues = rc.BindDirectQueues
	}
	if o.OnPublishError == PolicyLog && rc.OnPublishError != "" {
		policy, err := ParseErrorPolicy(rc.OnPublishError)
		if err != nil {
			return o, err
		}
		o.OnPublishError = policy
	}
	return o, nil
}

// BindsDirectQueues возвращает true, если SetupTopology привязывает очереди
// job и work к их exchanges. Без этого RabbitMQ возвращает публикации
// в job и work как немаршрутизируемые.
func (m *Manager) BindsDirectQueues() bool {
	return m.opts.BindDirectQueues
}

// Close закрывает канал и, если Manager открывал её сам, сессию.
func (m *Manager) Close() error {
	var errs []error

	if err := m.ch.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close channel: %w", err))
	}

	if m.session != nil {
		if err := m.session.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close session: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}

	m.logger.Info("connection closed")
	return nil
}

// watchReturns логирует сообщения, которые брокер не смог маршрутизировать.
// Завершается, когда канал закрывается.
func (m *Manager) watchReturns() {
	for ret := range m.returns {
		returnedTotal.WithLabelValues(ret.Exchange).Inc()
		m.logger.Warn("message returned by broker",
			"exchange", ret.Exchange,
			"routing_key", ret.RoutingKey,
			"reply_code", ret.ReplyCode,
			"reply_text", ret.ReplyText,
			"message_id", ret.MessageId,
		)
	}
}

// RedactURL возвращает URL без пароля для логов и ошибок.
func RedactURL(raw string) string {
	uri, err := amqp.ParseURI(raw)
	if err != nil {
		return "<invalid amqp url>"
	}
	if uri.Password != "" {
		uri.Password = "xxxxx"
	}
	return uri.String()
}

// DefaultURL возвращает URL по умолчанию для локальной разработки.
func DefaultURL() string {
	return config.DefaultRabbitMQURL
}
