// bender-mq — инструмент оператора для топологии RabbitMQ и outbox bender.
//
// Использование:
//
//	bender-mq [--url URL] [--config PATH] [--db DSN] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	topology  Показать или объявить exchanges и queues
//	post      Опубликовать сообщение вручную
//	job       Поставить job в outbox или показать его состояние
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/atoav/bender-mq/internal/cli"
	"github.com/atoav/bender-mq/internal/config"
	"github.com/atoav/bender-mq/internal/mq"
	"github.com/atoav/bender-mq/internal/repo"
	"github.com/atoav/bender-mq/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var amqpURL string
	var configPath string
	var dbURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "bender-mq",
		Short:         "bender-mq — RabbitMQ topology and outbox tool for bender",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&amqpURL, "url", "", "AMQP URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default $BENDER_CONFIG or "+config.DefaultLocation+")")
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "PostgreSQL DSN (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	// логи в stderr, stdout остаётся для данных
	logger := telemetry.NewLogger(os.Stderr, telemetry.LogLevel(), "text")

	// без --config отсутствующий файл заменяется config.Default()
	loadConfig := func() (*config.Config, error) {
		if configPath != "" {
			return config.Load(configPath)
		}
		return config.LoadOrDefault(config.Location())
	}

	brokerFn := func() (mq.Broker, error) {
		opts := mq.Options{Logger: logger}
		if amqpURL != "" {
			return mq.OpenChannel(amqpURL, opts)
		}
		cfg, err := loadConfig()
		if err != nil {
			return nil, &mq.ConfigError{Path: configPath, Err: err}
		}
		return mq.OpenDefaultChannel(cfg, opts)
	}

	bindDirectFn := func() bool {
		cfg, err := loadConfig()
		if err != nil {
			logger.Debug("config not loaded, showing defaults", "error", err)
			return false
		}
		return cfg.RabbitMQ.BindDirectQueues
	}

	storeFn := func(ctx context.Context) (cli.JobStore, func(), error) {
		dsn := dbURL
		if dsn == "" {
			cfg, err := loadConfig()
			if err != nil {
				return nil, nil, fmt.Errorf("load config: %w", err)
			}
			dsn = cfg.Database.URL
		}

		pool, err := repo.NewPool(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		if err := repo.EnsureSchema(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repo.NewOutbox(pool), pool.Close, nil
	}

	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewTopologyCmd(brokerFn, bindDirectFn, outputFn),
		cli.NewPostCmd(brokerFn, outputFn),
		cli.NewJobCmd(storeFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
