package relay

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// scheduleParser — парсер расписания: cron-выражения из пяти полей
// и дескрипторы (@every 2s, @hourly).
var scheduleParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// ValidateSchedule проверяет расписание relay.
func ValidateSchedule(expr string) error {
	if _, err := scheduleParser.Parse(expr); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", expr, err)
	}
	return nil
}

// Run выполняет Tick по расписанию, пока не отменён ctx.
// Тик не запускается, пока предыдущий не завершился.
func (r *Relay) Run(ctx context.Context, schedule string) error {
	if err := ValidateSchedule(schedule); err != nil {
		return err
	}
	if err := r.checkRouting(); err != nil {
		return err
	}

	logger := cronLogger{r.logger}
	c := cron.New(
		cron.WithParser(scheduleParser),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	if _, err := c.AddFunc(schedule, func() { r.runTick(ctx) }); err != nil {
		return fmt.Errorf("add schedule: %w", err)
	}

	r.logger.Info("relay started", "schedule", schedule, "batch_size", r.batchSize)
	c.Start()

	<-ctx.Done()

	<-c.Stop().Done()
	r.logger.Info("relay stopped")
	return nil
}

// runTick выполняет Tick, если процесс лидер.
func (r *Relay) runTick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	if r.elector != nil {
		ok, err := r.elector.TryAcquire(ctx)
		if err != nil {
			r.logger.Error("leader election failed", "error", err)
			return
		}
		if !ok {
			// не лидер, пропускаем тик
			return
		}
	}

	if _, err := r.Tick(ctx); err != nil && ctx.Err() == nil {
		r.logger.Error("relay tick failed", "error", err)
	}
}

// cronLogger — cron.Logger поверх slog.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
