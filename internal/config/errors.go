package config

import "errors"

// Ошибки загрузки конфигурации.
var (
	// ErrRead — файл конфигурации не читается.
	ErrRead = errors.New("read config")

	// ErrParse — файл не является корректным YAML.
	ErrParse = errors.New("parse config")

	// ErrInvalid — значение не проходит валидацию.
	ErrInvalid = errors.New("invalid config")

	// ErrMissingURL — не задан rabbitmq.url.
	ErrMissingURL = errors.New("rabbitmq.url is not set")
)
