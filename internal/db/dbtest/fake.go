// Package dbtest provides in-memory stand-ins for the pgx query surface
// used by repository tests.
package dbtest

import (
	"context"
	"fmt"
	"reflect"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Row is a single scripted result row.
type Row struct {
	Vals []any
	Err  error
}

func (r Row) Scan(dest ...any) error {
	if r.Err != nil {
		return r.Err
	}
	return assign(r.Vals, dest)
}

// Rows is a scripted multi-row result.
type Rows struct {
	Data    [][]any
	ScanErr error
	idx     int
	closed  bool
}

func (r *Rows) Close()                                       { r.closed = true }
func (r *Rows) Err() error                                   { return nil }
func (r *Rows) CommandTag() pgconn.CommandTag                { return pgconn.NewCommandTag("SELECT") }
func (r *Rows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *Rows) RawValues() [][]byte                          { return nil }
func (r *Rows) Conn() *pgx.Conn                              { return nil }

func (r *Rows) Next() bool {
	if r.closed || r.idx >= len(r.Data) {
		return false
	}
	r.idx++
	return true
}

func (r *Rows) Scan(dest ...any) error {
	if r.ScanErr != nil {
		return r.ScanErr
	}
	return assign(r.Data[r.idx-1], dest)
}

func (r *Rows) Values() ([]any, error) {
	return r.Data[r.idx-1], nil
}

// Call records one statement sent to the fake.
type Call struct {
	SQL  string
	Args []any
}

// DB replays queued rows and records every call in order.
type DB struct {
	RowQueue  []pgx.Row
	RowsQueue []pgx.Rows
	QueryErr  error
	ExecErr   error
	ExecTag   pgconn.CommandTag
	Calls     []Call
}

func (f *DB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	f.Calls = append(f.Calls, Call{SQL: sql, Args: args})
	if len(f.RowQueue) == 0 {
		return Row{Err: pgx.ErrNoRows}
	}
	row := f.RowQueue[0]
	f.RowQueue = f.RowQueue[1:]
	return row
}

func (f *DB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.Calls = append(f.Calls, Call{SQL: sql, Args: args})
	if f.QueryErr != nil {
		return nil, f.QueryErr
	}
	if len(f.RowsQueue) == 0 {
		return &Rows{}, nil
	}
	rows := f.RowsQueue[0]
	f.RowsQueue = f.RowsQueue[1:]
	return rows, nil
}

func (f *DB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.Calls = append(f.Calls, Call{SQL: sql, Args: args})
	if f.ExecErr != nil {
		return pgconn.CommandTag{}, f.ExecErr
	}
	if f.ExecTag.String() == "" {
		return pgconn.NewCommandTag("UPDATE 1"), nil
	}
	return f.ExecTag, nil
}

// LastCall returns the most recent statement; it panics when there is none.
func (f *DB) LastCall() Call {
	return f.Calls[len(f.Calls)-1]
}

func assign(vals, dest []any) error {
	if len(dest) != len(vals) {
		return fmt.Errorf("scan: want %d dests, got %d", len(vals), len(dest))
	}
	for i, d := range dest {
		dv := reflect.ValueOf(d)
		if dv.Kind() != reflect.Pointer || dv.IsNil() {
			return fmt.Errorf("scan: dest %d is not a pointer", i)
		}
		target := dv.Elem()
		if vals[i] == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		v := reflect.ValueOf(vals[i])
		switch {
		case v.Type().AssignableTo(target.Type()):
			target.Set(v)
		case target.Kind() == reflect.Pointer && v.Type().AssignableTo(target.Type().Elem()):
			p := reflect.New(target.Type().Elem())
			p.Elem().Set(v)
			target.Set(p)
		case v.Type().ConvertibleTo(target.Type()):
			target.Set(v.Convert(target.Type()))
		default:
			return fmt.Errorf("scan: cannot assign %T to %s", vals[i], target.Type())
		}
	}
	return nil
}
