package mq

import (
	"bytes"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/atoav/bender-mq/internal/mq/mqtest"
)

// syncBuffer — bytes.Buffer, в который можно писать из watchReturns.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// newTestManager создаёт Manager поверх in-memory брокера с логом в буфер.
func newTestManager(t *testing.T, opts Options) (*Manager, *mqtest.Broker, *syncBuffer) {
	t.Helper()

	logs := &syncBuffer{}
	opts.Logger = slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	broker := mqtest.NewBroker()
	m := NewManager(broker, opts)
	t.Cleanup(func() {
		if !broker.IsClosed() {
			m.Close()
		}
	})

	return m, broker, logs
}

// stubJob — Job с управляемым результатом сериализации.
type stubJob struct {
	id   string
	text string
	err  error

	calls int
}

func (j *stubJob) ID() string { return j.id }

func (j *stubJob) Serialize() (string, error) {
	j.calls++
	return j.text, j.err
}

// fakeSession — Session, отдающая заранее заданный канал.
type fakeSession struct {
	ch     Channel
	chErr  error
	closed bool
}

func (s *fakeSession) Channel() (Channel, error) {
	if s.chErr != nil {
		return nil, s.chErr
	}
	return s.ch, nil
}

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

var errBoom = errors.New("boom")
