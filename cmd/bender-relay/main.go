// bender-relay переносит jobs и tasks из outbox PostgreSQL в RabbitMQ.
//
// Конфигурация читается из $BENDER_CONFIG (или /etc/bender/config.yaml),
// переменные RABBITMQ_URL, DB_URL, METRICS_ADDR переопределяют файл.
// На METRICS_ADDR отдаются /healthz и /metrics. /healthz сообщает, держит ли
// процесс advisory lock: "ok leader" или "ok standby".
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/atoav/bender-mq/internal/config"
	"github.com/atoav/bender-mq/internal/mq"
	"github.com/atoav/bender-mq/internal/relay"
	"github.com/atoav/bender-mq/internal/repo"
	"github.com/atoav/bender-mq/internal/telemetry"
)

const relayLockKey int64 = 0x62656e646572 // "bender"

func main() {
	logger := telemetry.SetupLogger()

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	path := config.Location()
	cfg, err := config.Load(path)
	if err != nil {
		logger.Error("failed to load config", "path", path, "error", err)
		os.Exit(1)
	}
	if err := relay.ValidateSchedule(cfg.Relay.Schedule); err != nil {
		logger.Error("invalid relay schedule", "error", err)
		os.Exit(1)
	}

	// DB pool
	pool, err := repo.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		logger.Error("db connect failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := repo.EnsureSchema(ctx, pool); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}
	logger.Info("db connected")

	// RabbitMQ: relay публикует в job и work, им нужны bindings
	manager, err := mq.OpenDefaultChannel(cfg, mq.Options{Logger: logger, BindDirectQueues: true})
	if err != nil {
		logger.Error("rabbitmq connect failed", "error", err)
		os.Exit(1)
	}
	defer manager.Close()

	if err := manager.SetupTopology(); err != nil {
		logger.Error("failed to declare topology", "error", err)
		os.Exit(1)
	}

	leader := repo.NewLeader(pool, relayLockKey)
	defer leader.Release(context.Background())

	outbox := repo.NewOutbox(pool)
	r := relay.New(relay.Config{
		Jobs:          outbox,
		Tasks:         outbox,
		Poster:        manager,
		Elector:       leader,
		Logger:        logger,
		BatchSize:     cfg.Relay.BatchSize,
		RatePerSecond: cfg.Relay.RatePerSecond,
	})

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if leader.IsLeader() {
			w.Write([]byte("ok leader"))
			return
		}
		w.Write([]byte("ok standby"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("http listening", "addr", cfg.Metrics.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			cancel()
		}
	}()

	if err := r.Run(ctx, cfg.Relay.Schedule); err != nil {
		logger.Error("relay failed", "error", err)
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	srv.Shutdown(shutdownCtx)
}
