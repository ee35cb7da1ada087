package mq

import (
	"errors"
	"fmt"
)

// Классы ошибок для errors.Is.
var (
	// ErrConnection — не удалось открыть соединение или канал.
	ErrConnection = errors.New("mq: connection failed")

	// ErrConfig — не удалось загрузить конфигурацию по умолчанию.
	ErrConfig = errors.New("mq: config failed")

	// ErrTopology — объявление exchange/queue или binding завершилось ошибкой.
	ErrTopology = errors.New("mq: topology declaration failed")

	// ErrPublish — брокер отклонил публикацию или соединение упало.
	ErrPublish = errors.New("mq: publish failed")
)

// ErrUnknownPolicy — неизвестное имя политики ошибок публикации.
var ErrUnknownPolicy = errors.New("mq: unknown publish error policy")

// ConnectionError — ошибка открытия сессии или канала.
// Фатальна для старта вызывающего процесса, не повторяется.
type ConnectionError struct {
	Op  string // "dial" или "open channel"
	URL string // URL без пароля
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("mq: %s %s: %v", e.Op, e.URL, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

func (e *ConnectionError) Is(target error) bool { return target == ErrConnection }

// ConfigError — конфигурация по умолчанию не загрузилась.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("mq: config: %v", e.Err)
	}
	return fmt.Sprintf("mq: config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// TopologyError — ошибка declare/bind. Оборачивает ошибку протокола.
type TopologyError struct {
	Op   string // "declare exchange", "declare queue", "bind queue"
	Name string
	Err  error
}

func (e *TopologyError) Error() string {
	return fmt.Sprintf("mq: %s %s: %v", e.Op, e.Name, e.Err)
}

func (e *TopologyError) Unwrap() error { return e.Err }

func (e *TopologyError) Is(target error) bool { return target == ErrTopology }

// PublishError — ошибка публикации.
// Возвращается вызывающему только при PolicyReturn.
type PublishError struct {
	Exchange   Exchange
	RoutingKey string
	Err        error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("mq: publish to %s/%q: %v", e.Exchange, e.RoutingKey, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

func (e *PublishError) Is(target error) bool { return target == ErrPublish }
