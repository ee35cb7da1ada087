package repo

import (
	"context"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeDB записывает запросы и отдаёт заранее заданные ответы.
type fakeDB struct {
	execs   []fakeCall
	queries []fakeCall

	tag     pgconn.CommandTag
	execErr error
	rows    [][]any
	rowErr  error

	beginErr error
	batchErr error
	batches  []*pgx.Batch
	tx       *fakeTx
}

type fakeCall struct {
	sql  string
	args []any
}

func (db *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	db.execs = append(db.execs, fakeCall{sql: sql, args: args})
	return db.tag, db.execErr
}

func (db *fakeDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	db.queries = append(db.queries, fakeCall{sql: sql, args: args})
	if db.rowErr != nil {
		return nil, db.rowErr
	}
	return &fakeRows{rows: db.rows, pos: -1}, nil
}

func (db *fakeDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	db.queries = append(db.queries, fakeCall{sql: sql, args: args})
	if db.rowErr != nil {
		return &fakeRow{err: db.rowErr}
	}
	if len(db.rows) == 0 {
		return &fakeRow{err: pgx.ErrNoRows}
	}
	return &fakeRow{values: db.rows[0]}
}

func (db *fakeDB) Begin(context.Context) (pgx.Tx, error) {
	if db.beginErr != nil {
		return nil, db.beginErr
	}
	db.tx = &fakeTx{db: db}
	return db.tx, nil
}

// fakeTx — транзакция поверх fakeDB. Exec пишет в тот же fakeDB,
// SendBatch запоминает batch и возвращает batchErr из Close.
type fakeTx struct {
	pgx.Tx

	db         *fakeDB
	committed  bool
	rolledBack bool
}

func (tx *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return tx.db.Exec(ctx, sql, args...)
}

func (tx *fakeTx) SendBatch(_ context.Context, b *pgx.Batch) pgx.BatchResults {
	tx.db.batches = append(tx.db.batches, b)
	return &fakeBatchResults{err: tx.db.batchErr}
}

func (tx *fakeTx) Commit(context.Context) error {
	if tx.committed || tx.rolledBack {
		return pgx.ErrTxClosed
	}
	tx.committed = true
	return nil
}

func (tx *fakeTx) Rollback(context.Context) error {
	if tx.committed || tx.rolledBack {
		return pgx.ErrTxClosed
	}
	tx.rolledBack = true
	return nil
}

type fakeBatchResults struct {
	pgx.BatchResults

	err error
}

func (r *fakeBatchResults) Close() error {
	return r.err
}

type fakeRow struct {
	values []any
	err    error
}

func (r *fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(r.values, dest)
}

// fakeRows — pgx.Rows поверх значений в памяти.
type fakeRows struct {
	rows [][]any
	pos  int
	err  error
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return r.err }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	r.pos++
	return r.pos < len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error {
	return assign(r.rows[r.pos], dest)
}

func (r *fakeRows) Values() ([]any, error) {
	return r.rows[r.pos], nil
}

// assign копирует values в указатели dest. nil даёт нулевое значение,
// значения конвертируются в именованные типы (string → domain.JobStatus),
// для указателей на указатели создаётся новое значение.
func assign(values []any, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("fakeRows: %d values for %d destinations", len(values), len(dest))
	}

	for i, d := range dest {
		target := reflect.ValueOf(d).Elem()
		if values[i] == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}

		v := reflect.ValueOf(values[i])
		if target.Kind() == reflect.Pointer && v.Kind() != reflect.Pointer {
			p := reflect.New(target.Type().Elem())
			p.Elem().Set(v.Convert(target.Type().Elem()))
			target.Set(p)
			continue
		}
		target.Set(v.Convert(target.Type()))
	}
	return nil
}
