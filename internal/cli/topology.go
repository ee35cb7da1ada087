package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/atoav/bender-mq/internal/mq"
)

// topologyRow — строка описания топологии для таблицы и JSON.
type topologyRow struct {
	Exchange string `json:"exchange"`
	Kind     string `json:"kind"`
	Queue    string `json:"queue"`
	Bound    bool   `json:"bound"`
	Pattern  string `json:"pattern,omitempty"`
}

func describeTopology(bindDirectQueues bool) []topologyRow {
	direct := func(ex mq.Exchange, q mq.Queue, key string) topologyRow {
		row := topologyRow{Exchange: string(ex), Kind: mq.KindDirect, Queue: string(q), Bound: bindDirectQueues}
		if bindDirectQueues {
			row.Pattern = key
		}
		return row
	}

	return []topologyRow{
		{Exchange: string(mq.ExchangeInfo), Kind: mq.KindTopic, Queue: string(mq.QueueInfo), Bound: true, Pattern: mq.PatternAll},
		direct(mq.ExchangeJob, mq.QueueJob, mq.RoutingKeyJob),
		direct(mq.ExchangeWork, mq.QueueWork, mq.RoutingKeyWork),
		{Exchange: string(mq.ExchangeWorker), Kind: mq.KindTopic, Queue: string(mq.QueueWorker), Bound: true, Pattern: mq.PatternAll},
	}
}

// NewTopologyCmd создаёт группу команд для топологии брокера.
// bindDirectFn возвращает значение --bind-direct-queues по умолчанию, обычно
// rabbitmq.bind_direct_queues из конфигурации; nil означает false.
func NewTopologyCmd(brokerFn BrokerFunc, bindDirectFn func() bool, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topology",
		Short: "Inspect and declare the RabbitMQ topology",
	}

	cmd.AddCommand(
		newTopologyShowCmd(bindDirectFn, outputFn),
		newTopologyDeclareCmd(brokerFn, outputFn),
	)

	return cmd
}

func newTopologyShowCmd(bindDirectFn func() bool, outputFn func() *Output) *cobra.Command {
	var bindDirect bool
	var table bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print exchanges, queues and bindings",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			if !cmd.Flags().Changed("bind-direct-queues") && bindDirectFn != nil {
				bindDirect = bindDirectFn()
			}

			rows := describeTopology(bindDirect)
			if !table && !out.JSONMode() {
				out.Text(mq.TopologyInfo(bindDirect))
				return nil
			}

			tableRows := make([][]string, len(rows))
			for i, r := range rows {
				tableRows[i] = []string{r.Exchange, r.Kind, r.Queue, strconv.FormatBool(r.Bound), r.Pattern}
			}
			out.Print([]string{"EXCHANGE", "KIND", "QUEUE", "BOUND", "PATTERN"}, tableRows, rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&bindDirect, "bind-direct-queues", false, "Show job/work queues bound to their exchanges (default from config)")
	cmd.Flags().BoolVar(&table, "table", false, "Print as a table")

	return cmd
}

func newTopologyDeclareCmd(brokerFn BrokerFunc, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "declare",
		Short: "Declare all exchanges and queues",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			broker, err := brokerFn()
			if err != nil {
				return err
			}
			defer broker.Close()

			if err := broker.SetupTopology(); err != nil {
				return err
			}

			out.Notef("Topology declared")
			return nil
		},
	}
}
