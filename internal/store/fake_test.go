package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeDB is an in-memory stand-in for the blocks table.
type fakeDB struct {
	mu        sync.Mutex
	rows      [][]any // id, peer_count, medium_fee_per_kb, price, observed_at
	nextID    int64
	execSQL   []string
	insertErr error
	queryErr  error
	execErr   error
	lastLimit int
	deadlines []bool // whether each call carried a deadline
}

func (f *fakeDB) noteDeadline(ctx context.Context) {
	_, ok := ctx.Deadline()
	f.deadlines = append(f.deadlines, ok)
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.noteDeadline(ctx)
	if f.execErr != nil {
		return pgconn.CommandTag{}, f.execErr
	}
	f.execSQL = append(f.execSQL, sql)
	return pgconn.NewCommandTag("CREATE TABLE"), nil
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.noteDeadline(ctx)
	if !strings.Contains(sql, "INSERT INTO blocks") {
		return fakeRow{err: fmt.Errorf("unexpected query: %s", sql)}
	}
	if f.insertErr != nil {
		return fakeRow{err: f.insertErr}
	}
	if len(args) != 4 {
		return fakeRow{err: fmt.Errorf("insert got %d args, want 4", len(args))}
	}
	f.nextID++
	f.rows = append(f.rows, []any{f.nextID, args[0], args[1], args[2], args[3]})
	return fakeRow{values: []any{f.nextID}}
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.noteDeadline(ctx)
	if f.queryErr != nil {
		return nil, f.queryErr
	}
	limit := args[0].(int)
	f.lastLimit = limit

	var out [][]any
	for i := len(f.rows) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.rows[i])
	}
	return &fakeRows{rows: out, idx: -1}, nil
}

func (f *fakeDB) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(r.values, dest)
}

type fakeRows struct {
	rows    [][]any
	idx     int
	scanErr error
	closed  bool
}

func (r *fakeRows) Close()                                       { r.closed = true }
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	r.idx++
	return r.idx < len(r.rows)
}

func (r *fakeRows) Scan(dest ...any) error {
	if r.scanErr != nil {
		return r.scanErr
	}
	return assign(r.rows[r.idx], dest)
}

func (r *fakeRows) Values() ([]any, error) {
	return r.rows[r.idx], nil
}

func assign(values []any, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("scan: %d values into %d targets", len(values), len(dest))
	}
	for i, v := range values {
		switch d := dest[i].(type) {
		case *int64:
			*d = v.(int64)
		case *int:
			*d = v.(int)
		case *float64:
			*d = v.(float64)
		case *time.Time:
			*d = v.(time.Time)
		default:
			return errors.New("scan: unsupported destination type")
		}
	}
	return nil
}
