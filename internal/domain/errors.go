package domain

import "errors"

// Ошибки доменных объектов.
var (
	// ErrSerialize — payload не сериализуется в JSON.
	ErrSerialize = errors.New("serialize payload")

	// ErrParse — текст не является корректным JSON payload.
	ErrParse = errors.New("parse payload")
)
