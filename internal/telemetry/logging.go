package telemetry

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Переменные окружения логгера.
const (
	EnvLogLevel  = "LOG_LEVEL"
	EnvLogFormat = "LOG_FORMAT"
)

// LogLevel читает уровень из LOG_LEVEL: DEBUG, INFO, WARN, ERROR в любом
// регистре, со смещением вида "INFO+2". Пустое или неизвестное значение
// даёт INFO.
func LogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(os.Getenv(EnvLogLevel))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// SetupLogger создаёт логгер сервиса в stdout и делает его slog.Default.
// LOG_FORMAT=text включает текстовый формат, иначе JSON.
func SetupLogger() *slog.Logger {
	logger := NewLogger(os.Stdout, LogLevel(), os.Getenv(EnvLogFormat))
	slog.SetDefault(logger)
	return logger
}

// NewLogger создаёт логгер с выводом в w. На уровне DEBUG и ниже
// в записи добавляется источник.
func NewLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level <= slog.LevelDebug,
	}

	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// WithJobID добавляет job_id.
func WithJobID(logger *slog.Logger, jobID string) *slog.Logger {
	return logger.With("job_id", jobID)
}

// WithTaskID добавляет task_id.
func WithTaskID(logger *slog.Logger, taskID string) *slog.Logger {
	return logger.With("task_id", taskID)
}

// WithComponent добавляет component, например "relay".
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	return logger.With("component", component)
}
