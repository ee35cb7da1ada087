package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/atoav/bender-mq/internal/domain"
	"github.com/atoav/bender-mq/internal/mq"
)

// BrokerFunc открывает соединение с брокером. Вызывается после разбора флагов.
type BrokerFunc func() (mq.Broker, error)

// stdinBody — значение BODY, при котором тело читается из stdin.
const stdinBody = "-"

// NewPostCmd создаёт группу команд для публикации сообщений.
func NewPostCmd(brokerFn BrokerFunc, outputFn func() *Output) *cobra.Command {
	var strict bool
	var check bool

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Publish a raw message to one of the exchanges",
		Long: `Publish a raw message. BODY "-" reads the body from stdin.

By default publish errors are only logged, as the services do.
--strict makes the command fail when the broker rejects the message.
--check parses the body of "post job" and "post work" as a job or a task
before anything is sent.`,
	}

	cmd.PersistentFlags().BoolVar(&strict, "strict", false, "Fail on publish errors")
	cmd.PersistentFlags().BoolVar(&check, "check", false, "Parse job/work bodies before publishing")

	post := func(cmd *cobra.Command, body string, parse func(string) error, fn func(ctx context.Context, b mq.Broker, body []byte, opts ...mq.PublishOption) error) error {
		out := outputFn()

		data, err := readBody(cmd, body)
		if err != nil {
			return err
		}

		if check && parse != nil {
			if err := parse(string(data)); err != nil {
				return fmt.Errorf("invalid body: %w", err)
			}
		}

		broker, err := brokerFn()
		if err != nil {
			return err
		}
		defer broker.Close()

		var opts []mq.PublishOption
		if strict {
			opts = append(opts, mq.WithErrorPolicy(mq.PolicyReturn))
		}

		if err := fn(cmd.Context(), broker, data, opts...); err != nil {
			return err
		}

		out.Notef("Sent %d bytes", len(data))
		return nil
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "info KEY BODY",
			Short: "Publish to info-topic with routing key KEY",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return post(cmd, args[1], nil, func(ctx context.Context, b mq.Broker, body []byte, opts ...mq.PublishOption) error {
					return b.PostToInfo(ctx, args[0], body, opts...)
				})
			},
		},
		&cobra.Command{
			Use:   "job BODY",
			Short: "Publish to the job exchange",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return post(cmd, args[0], parseJob, func(ctx context.Context, b mq.Broker, body []byte, opts ...mq.PublishOption) error {
					return b.PostToJob(ctx, body, opts...)
				})
			},
		},
		&cobra.Command{
			Use:   "work BODY",
			Short: "Publish to the work exchange",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return post(cmd, args[0], parseTask, func(ctx context.Context, b mq.Broker, body []byte, opts ...mq.PublishOption) error {
					return b.PostToWork(ctx, body, opts...)
				})
			},
		},
		&cobra.Command{
			Use:   "worker KEY BODY",
			Short: "Publish to worker-topic with routing key KEY",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return post(cmd, args[1], nil, func(ctx context.Context, b mq.Broker, body []byte, opts ...mq.PublishOption) error {
					return b.WorkerPost(ctx, args[0], body, opts...)
				})
			},
		},
	)

	return cmd
}

func parseJob(text string) error {
	_, err := domain.ParseJob(text)
	return err
}

func parseTask(text string) error {
	_, err := domain.ParseTask(text)
	return err
}

// readBody возвращает тело сообщения из аргумента или stdin.
func readBody(cmd *cobra.Command, arg string) ([]byte, error) {
	if arg != stdinBody {
		return []byte(arg), nil
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return data, nil
}
