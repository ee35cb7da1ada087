// Package telemetry обеспечивает наблюдаемость bender-mq.
//
// Включает:
//   - logging.go — structured logging через slog
//
// Метрики объявляются в пакетах, которые их считают (mq, relay), и
// экспортируются cmd/bender-relay на /metrics endpoint.
package telemetry
