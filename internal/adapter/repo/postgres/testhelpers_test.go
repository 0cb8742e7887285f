package postgres_test

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// rowStub implements pgx.Row.
type rowStub struct{ scan func(dest ...any) error }

func (r rowStub) Scan(dest ...any) error { return r.scan(dest...) }

type execCall struct {
	sql  string
	args []any
}

// poolStub implements postgres.PgxPool for tests. Shared across the repo
// test files, so it lives in one helper.
type poolStub struct {
	mu       sync.Mutex
	execErr  error
	execTag  pgconn.CommandTag
	row      rowStub
	queryErr error
	calls    []execCall
}

func (p *poolStub) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, execCall{sql: sql, args: args})
	return p.execTag, p.execErr
}

func (p *poolStub) QueryRow(_ context.Context, _ string, _ ...any) pgx.Row {
	if p.row.scan == nil {
		return rowStub{scan: func(_ ...any) error { return errors.New("no row configured") }}
	}
	return p.row
}

func (p *poolStub) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	return nil, p.queryErr
}

func (p *poolStub) execCalls() []execCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]execCall, len(p.calls))
	copy(out, p.calls)
	return out
}

func tagWithRows(verb string) pgconn.CommandTag {
	return pgconn.NewCommandTag(verb + " 1")
}
