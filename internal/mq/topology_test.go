package mq

import (
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atoav/bender-mq/internal/mq/mqtest"
)

// --- Exchanges ---

func TestDeclareExchanges(t *testing.T) {
	tests := []struct {
		name    string
		declare func(*Manager) error
		want    mqtest.Exchange
	}{
		{"info-topic", (*Manager).DeclareTopicExchange, mqtest.Exchange{Name: "info-topic", Kind: "topic", Durable: true}},
		{"job", (*Manager).DeclareJobExchange, mqtest.Exchange{Name: "job", Kind: "direct", Durable: true}},
		{"work", (*Manager).DeclareWorkExchange, mqtest.Exchange{Name: "work", Kind: "direct", Durable: true}},
		{"worker-topic", (*Manager).DeclareWorkerExchange, mqtest.Exchange{Name: "worker-topic", Kind: "topic", Durable: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, broker, _ := newTestManager(t, Options{})

			require.NoError(t, tt.declare(m))

			ex, ok := broker.Exchange(tt.name)
			require.True(t, ok, "exchange should be declared")
			assert.Equal(t, tt.want, ex)

			// durable, auto-delete=false, internal=false, no-wait=false
			calls := broker.Calls()
			require.Len(t, calls, 1)
			assert.Equal(t, []any{tt.name, tt.want.Kind, true, false, false, false}, calls[0].Args)
		})
	}
}

func TestDeclareExchange_Error(t *testing.T) {
	m, broker, _ := newTestManager(t, Options{})
	broker.SetError(mqtest.MethodExchangeDeclare, errBoom)

	err := m.DeclareJobExchange()

	var topoErr *TopologyError
	require.ErrorAs(t, err, &topoErr)
	assert.Equal(t, "declare exchange", topoErr.Op)
	assert.Equal(t, "job", topoErr.Name)
	assert.ErrorIs(t, err, errBoom)
	assert.ErrorIs(t, err, ErrTopology)
}

func TestDeclareExchange_KindMismatch(t *testing.T) {
	m, broker, _ := newTestManager(t, Options{})

	// кто-то уже объявил job как topic
	require.NoError(t, broker.ExchangeDeclare("job", "topic", true, false, false, false, nil))

	err := m.DeclareJobExchange()
	require.ErrorIs(t, err, ErrTopology)

	var amqpErr *amqp.Error
	require.ErrorAs(t, err, &amqpErr)
	assert.Equal(t, amqp.PreconditionFailed, amqpErr.Code)
}

// --- Queues ---

func TestCreateQueues_Bindings(t *testing.T) {
	m, broker, _ := newTestManager(t, Options{})

	require.NoError(t, m.DeclareTopicExchange())
	require.NoError(t, m.DeclareWorkerExchange())

	require.NoError(t, m.CreateInfoQueue())
	require.NoError(t, m.CreateJobQueue())
	require.NoError(t, m.CreateWorkQueue())
	require.NoError(t, m.CreateWorkerQueue())

	state := broker.State()
	require.Len(t, state.Queues, 4)
	for _, q := range state.Queues {
		assert.Equal(t, mqtest.QueueState{Name: q.Name, Durable: true}, q)
	}

	assert.Equal(t, []mqtest.Binding{
		{Queue: "info", Exchange: "info-topic", Key: "#"},
		{Queue: "worker", Exchange: "worker-topic", Key: "#"},
	}, state.Bindings)
}

func TestCreateQueue_DeclareArgs(t *testing.T) {
	m, broker, _ := newTestManager(t, Options{})

	require.NoError(t, m.CreateJobQueue())

	calls := broker.Calls()
	require.Len(t, calls, 1, "job queue is declared without binding")
	assert.Equal(t, mqtest.MethodQueueDeclare, calls[0].Method)
	// durable, auto-delete=false, exclusive=false, no-wait=false
	assert.Equal(t, []any{"job", true, false, false, false}, calls[0].Args)
}

func TestCreateQueues_BindDirectQueues(t *testing.T) {
	m, broker, _ := newTestManager(t, Options{BindDirectQueues: true})

	require.NoError(t, m.DeclareJobExchange())
	require.NoError(t, m.DeclareWorkExchange())
	require.NoError(t, m.CreateJobQueue())
	require.NoError(t, m.CreateWorkQueue())

	assert.Equal(t, []mqtest.Binding{
		{Queue: "job", Exchange: "job", Key: "job"},
		{Queue: "work", Exchange: "work", Key: "work"},
	}, broker.State().Bindings)
}

func TestCreateInfoQueue_BindError(t *testing.T) {
	m, _, _ := newTestManager(t, Options{})

	// exchange info-topic не объявлен
	err := m.CreateInfoQueue()

	var topoErr *TopologyError
	require.ErrorAs(t, err, &topoErr)
	assert.Equal(t, "bind queue", topoErr.Op)
	assert.Equal(t, "info->info-topic", topoErr.Name)
}

func TestCreateQueue_DeclareError(t *testing.T) {
	m, broker, _ := newTestManager(t, Options{})
	broker.SetError(mqtest.MethodQueueDeclare, errBoom)

	err := m.CreateWorkerQueue()

	var topoErr *TopologyError
	require.ErrorAs(t, err, &topoErr)
	assert.Equal(t, "declare queue", topoErr.Op)
	assert.Equal(t, "worker", topoErr.Name)
	assert.Equal(t, 0, broker.CallCount(mqtest.MethodQueueBind), "bind is skipped after failed declare")
}

// --- SetupTopology ---

func TestSetupTopology(t *testing.T) {
	m, broker, _ := newTestManager(t, Options{})

	require.NoError(t, m.SetupTopology())

	state := broker.State()
	assert.Equal(t, []mqtest.Exchange{
		{Name: "info-topic", Kind: "topic", Durable: true},
		{Name: "job", Kind: "direct", Durable: true},
		{Name: "work", Kind: "direct", Durable: true},
		{Name: "worker-topic", Kind: "topic", Durable: true},
	}, state.Exchanges)
	assert.Len(t, state.Queues, 4)
	assert.Len(t, state.Bindings, 2)
}

func TestSetupTopology_Idempotent(t *testing.T) {
	for _, bind := range []bool{false, true} {
		m, broker, _ := newTestManager(t, Options{BindDirectQueues: bind})

		require.NoError(t, m.SetupTopology())
		first := broker.State()

		require.NoError(t, m.SetupTopology())
		assert.Equal(t, first, broker.State(), "bind_direct_queues=%v", bind)
	}
}

func TestSetupTopology_EachOperationTwice(t *testing.T) {
	once, onceBroker, _ := newTestManager(t, Options{})
	twice, twiceBroker, _ := newTestManager(t, Options{})

	ops := []func(*Manager) error{
		(*Manager).DeclareTopicExchange,
		(*Manager).DeclareJobExchange,
		(*Manager).DeclareWorkExchange,
		(*Manager).DeclareWorkerExchange,
		(*Manager).CreateInfoQueue,
		(*Manager).CreateJobQueue,
		(*Manager).CreateWorkQueue,
		(*Manager).CreateWorkerQueue,
	}

	for _, op := range ops {
		require.NoError(t, op(once))
		require.NoError(t, op(twice))
		require.NoError(t, op(twice))
	}

	assert.Equal(t, onceBroker.State(), twiceBroker.State())
}

func TestSetupTopology_StopsOnFirstError(t *testing.T) {
	m, broker, _ := newTestManager(t, Options{})
	broker.SetError(mqtest.MethodQueueDeclare, errBoom)

	err := m.SetupTopology()
	require.ErrorIs(t, err, ErrTopology)

	assert.Equal(t, 4, broker.CallCount(mqtest.MethodExchangeDeclare))
	assert.Equal(t, 1, broker.CallCount(mqtest.MethodQueueDeclare))
	assert.Equal(t, 0, broker.CallCount(mqtest.MethodQueueBind))
}

func TestTopologyInfo(t *testing.T) {
	info := TopologyInfo(false)
	assert.Contains(t, info, "info-topic (topic)")
	assert.Contains(t, info, "worker-topic (topic)")
	assert.Contains(t, info, "job (unbound)")

	bound := TopologyInfo(true)
	assert.Contains(t, bound, "job [routing: job]")
	assert.Contains(t, bound, "work [routing: work]")
}
