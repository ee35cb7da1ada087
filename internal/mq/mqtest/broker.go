package mqtest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Методы, для которых можно внедрить ошибку через SetError.
const (
	MethodExchangeDeclare = "ExchangeDeclare"
	MethodQueueDeclare    = "QueueDeclare"
	MethodQueueBind       = "QueueBind"
	MethodPublish         = "Publish"
	MethodClose           = "Close"
)

// Exchange — объявленный обменник.
type Exchange struct {
	Name       string
	Kind       string
	Durable    bool
	AutoDelete bool
	Internal   bool
}

// QueueState — объявленная очередь.
type QueueState struct {
	Name       string
	Durable    bool
	AutoDelete bool
	Exclusive  bool
}

// Binding — привязка очереди к обменнику.
type Binding struct {
	Queue    string
	Exchange string
	Key      string
}

// Message — сообщение, попавшее в очередь.
type Message struct {
	Exchange   string
	RoutingKey string
	Mandatory  bool
	amqp.Publishing
}

// Call — запись о вызове метода канала.
type Call struct {
	Method string
	Args   []any
}

// State — снимок топологии для сравнения.
type State struct {
	Exchanges []Exchange
	Queues    []QueueState
	Bindings  []Binding
}

// Broker — in-memory брокер, реализующий методы канала.
type Broker struct {
	mu sync.Mutex

	exchanges map[string]Exchange
	queues    map[string]QueueState
	bindings  map[Binding]struct{}
	messages  map[string][]Message

	returns []amqp.Return
	calls   []Call

	// notifyMu охраняет notify: отправку, регистрацию и закрытие каналов.
	// Берётся после mu, никогда наоборот.
	notifyMu sync.Mutex
	notify   []chan amqp.Return

	errs     map[string]error
	closed   bool
	closeErr *amqp.Error
}

// NewBroker создаёт пустой брокер. Default exchange ("") существует всегда.
func NewBroker() *Broker {
	return &Broker{
		exchanges: map[string]Exchange{
			"": {Name: "", Kind: "direct", Durable: true},
		},
		queues:   make(map[string]QueueState),
		bindings: make(map[Binding]struct{}),
		messages: make(map[string][]Message),
		errs:     make(map[string]error),
	}
}

// SetError заставляет метод возвращать err, пока не будет вызван SetError(method, nil).
func (b *Broker) SetError(method string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err == nil {
		delete(b.errs, method)
		return
	}
	b.errs[method] = err
}

// ExchangeDeclare объявляет обменник. Повторное объявление с теми же
// параметрами ничего не меняет.
func (b *Broker) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.record(MethodExchangeDeclare, name, kind, durable, autoDelete, internal, noWait)
	if err := b.precheck(MethodExchangeDeclare); err != nil {
		return err
	}

	if name == "" || strings.HasPrefix(name, "amq.") {
		return b.channelError(amqp.AccessRefused, fmt.Sprintf("ACCESS_REFUSED - exchange name '%s' contains reserved prefix", name))
	}

	switch kind {
	case "direct", "topic", "fanout":
	default:
		return b.channelError(amqp.CommandInvalid, fmt.Sprintf("COMMAND_INVALID - unknown exchange type '%s'", kind))
	}

	ex := Exchange{Name: name, Kind: kind, Durable: durable, AutoDelete: autoDelete, Internal: internal}
	if existing, ok := b.exchanges[name]; ok {
		if existing != ex {
			return b.channelError(amqp.PreconditionFailed,
				fmt.Sprintf("PRECONDITION_FAILED - inequivalent arg 'type' for exchange '%s': received '%s' but current is '%s'", name, kind, existing.Kind))
		}
		return nil
	}

	b.exchanges[name] = ex
	return nil
}

// QueueDeclare объявляет очередь.
func (b *Broker) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.record(MethodQueueDeclare, name, durable, autoDelete, exclusive, noWait)
	if err := b.precheck(MethodQueueDeclare); err != nil {
		return amqp.Queue{}, err
	}

	q := QueueState{Name: name, Durable: durable, AutoDelete: autoDelete, Exclusive: exclusive}
	if existing, ok := b.queues[name]; ok && existing != q {
		return amqp.Queue{}, b.channelError(amqp.PreconditionFailed,
			fmt.Sprintf("PRECONDITION_FAILED - inequivalent arg 'durable' for queue '%s'", name))
	}

	b.queues[name] = q
	return amqp.Queue{Name: name, Messages: len(b.messages[name])}, nil
}

// QueueBind привязывает очередь к обменнику.
func (b *Broker) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.record(MethodQueueBind, name, key, exchange, noWait)
	if err := b.precheck(MethodQueueBind); err != nil {
		return err
	}

	if exchange == "" {
		return b.channelError(amqp.AccessRefused, "ACCESS_REFUSED - operation not permitted on the default exchange")
	}
	if _, ok := b.exchanges[exchange]; !ok {
		return b.channelError(amqp.NotFound, fmt.Sprintf("NOT_FOUND - no exchange '%s'", exchange))
	}
	if _, ok := b.queues[name]; !ok {
		return b.channelError(amqp.NotFound, fmt.Sprintf("NOT_FOUND - no queue '%s'", name))
	}

	b.bindings[Binding{Queue: name, Exchange: exchange, Key: key}] = struct{}{}
	return nil
}

// PublishWithContext маршрутизирует сообщение в очереди.
func (b *Broker) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	b.mu.Lock()

	b.record(MethodPublish, exchange, key, mandatory, immediate, msg)
	if err := b.precheck(MethodPublish); err != nil {
		b.mu.Unlock()
		return err
	}

	if immediate {
		err := b.connectionError(amqp.NotImplemented, "NOT_IMPLEMENTED - immediate=true")
		b.mu.Unlock()
		return err
	}

	ex, ok := b.exchanges[exchange]
	if !ok {
		err := b.channelError(amqp.NotFound, fmt.Sprintf("NOT_FOUND - no exchange '%s'", exchange))
		b.mu.Unlock()
		return err
	}

	targets := b.route(ex, key)
	for _, q := range targets {
		b.messages[q] = append(b.messages[q], Message{
			Exchange:   exchange,
			RoutingKey: key,
			Mandatory:  mandatory,
			Publishing: msg,
		})
	}

	returned := len(targets) == 0 && mandatory
	var ret amqp.Return
	if returned {
		ret = amqp.Return{
			ReplyCode:   amqp.NoRoute,
			ReplyText:   "NO_ROUTE",
			Exchange:    exchange,
			RoutingKey:  key,
			ContentType: msg.ContentType,
			MessageId:   msg.MessageId,
			Timestamp:   msg.Timestamp,
			Body:        msg.Body,
		}
		b.returns = append(b.returns, ret)
	}

	b.mu.Unlock()

	if returned {
		// Close ждёт отправку и закрывает только уже отпущенные каналы
		b.notifyMu.Lock()
		for _, c := range b.notify {
			c <- ret
		}
		b.notifyMu.Unlock()
	}

	return nil
}

// NotifyReturn регистрирует канал для возвращённых сообщений.
func (b *Broker) NotifyReturn(c chan amqp.Return) chan amqp.Return {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		close(c)
		return c
	}

	b.notifyMu.Lock()
	b.notify = append(b.notify, c)
	b.notifyMu.Unlock()
	return c
}

// Close закрывает канал и все каналы уведомлений.
func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.record(MethodClose)
	if err, ok := b.errs[MethodClose]; ok {
		return err
	}
	if b.closed {
		return amqp.ErrClosed
	}

	b.shutdown(nil)
	return nil
}

// Reopen снимает признак закрытия канала, сохраняя топологию и сообщения.
// Аналог открытия нового канала на том же брокере.
func (b *Broker) Reopen() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = false
	b.closeErr = nil
}

// IsClosed возвращает true, если канал закрыт.
func (b *Broker) IsClosed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// CloseReason возвращает ошибку, с которой брокер закрыл канал.
func (b *Broker) CloseReason() *amqp.Error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closeErr
}

// Get забирает первое сообщение из очереди (basic.get с auto-ack).
func (b *Broker) Get(queue string) (Message, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	msgs := b.messages[queue]
	if len(msgs) == 0 {
		return Message{}, false
	}
	b.messages[queue] = msgs[1:]
	return msgs[0], true
}

// Messages возвращает копию сообщений в очереди, не забирая их.
func (b *Broker) Messages(queue string) []Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]Message(nil), b.messages[queue]...)
}

// Returns возвращает все возвращённые брокером сообщения.
func (b *Broker) Returns() []amqp.Return {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]amqp.Return(nil), b.returns...)
}

// Calls возвращает журнал вызовов.
func (b *Broker) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]Call(nil), b.calls...)
}

// CallCount возвращает количество вызовов метода.
func (b *Broker) CallCount(method string) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := 0
	for _, c := range b.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Exchange возвращает объявленный обменник.
func (b *Broker) Exchange(name string) (Exchange, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ex, ok := b.exchanges[name]
	return ex, ok
}

// Queue возвращает объявленную очередь.
func (b *Broker) Queue(name string) (QueueState, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	q, ok := b.queues[name]
	return q, ok
}

// State возвращает отсортированный снимок топологии (без default exchange).
func (b *Broker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()

	var s State
	for name, ex := range b.exchanges {
		if name == "" {
			continue
		}
		s.Exchanges = append(s.Exchanges, ex)
	}
	for _, q := range b.queues {
		s.Queues = append(s.Queues, q)
	}
	for bind := range b.bindings {
		s.Bindings = append(s.Bindings, bind)
	}

	sort.Slice(s.Exchanges, func(i, j int) bool { return s.Exchanges[i].Name < s.Exchanges[j].Name })
	sort.Slice(s.Queues, func(i, j int) bool { return s.Queues[i].Name < s.Queues[j].Name })
	sort.Slice(s.Bindings, func(i, j int) bool {
		a, c := s.Bindings[i], s.Bindings[j]
		if a.Queue != c.Queue {
			return a.Queue < c.Queue
		}
		if a.Exchange != c.Exchange {
			return a.Exchange < c.Exchange
		}
		return a.Key < c.Key
	})
	return s
}

// --- Helpers ---

// route возвращает очереди, в которые попадёт сообщение. Вызывается под mu.
func (b *Broker) route(ex Exchange, key string) []string {
	if ex.Name == "" {
		if _, ok := b.queues[key]; ok {
			return []string{key}
		}
		return nil
	}

	seen := make(map[string]bool)
	var targets []string
	for bind := range b.bindings {
		if bind.Exchange != ex.Name || seen[bind.Queue] {
			continue
		}

		var match bool
		switch ex.Kind {
		case "direct":
			match = bind.Key == key
		case "topic":
			match = MatchTopic(bind.Key, key)
		case "fanout":
			match = true
		}
		if match {
			seen[bind.Queue] = true
			targets = append(targets, bind.Queue)
		}
	}
	sort.Strings(targets)
	return targets
}

func (b *Broker) record(method string, args ...any) {
	b.calls = append(b.calls, Call{Method: method, Args: args})
}

// precheck возвращает внедрённую ошибку или ErrClosed. Вызывается под mu.
func (b *Broker) precheck(method string) error {
	if b.closed {
		return amqp.ErrClosed
	}
	if err, ok := b.errs[method]; ok {
		return err
	}
	return nil
}

// channelError закрывает канал с ошибкой уровня канала. Вызывается под mu.
func (b *Broker) channelError(code int, reason string) error {
	err := &amqp.Error{Code: code, Reason: reason, Server: true, Recover: true}
	b.shutdown(err)
	return err
}

// connectionError закрывает канал с ошибкой уровня соединения. Вызывается под mu.
func (b *Broker) connectionError(code int, reason string) error {
	err := &amqp.Error{Code: code, Reason: reason, Server: true, Recover: false}
	b.shutdown(err)
	return err
}

func (b *Broker) shutdown(err *amqp.Error) {
	b.closed = true
	b.closeErr = err

	b.notifyMu.Lock()
	for _, c := range b.notify {
		close(c)
	}
	b.notify = nil
	b.notifyMu.Unlock()
}
