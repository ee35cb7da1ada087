package domain

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// json — кодек для wire-формата Job и Task. Совместим с encoding/json.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// serialize кодирует v в JSON текст.
func serialize(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrSerialize, err)
	}
	return string(data), nil
}

// parse декодирует JSON текст в v.
func parse(text string, v any) error {
	if err := json.UnmarshalFromString(text, v); err != nil {
		return fmt.Errorf("%w: %w", ErrParse, err)
	}
	return nil
}
