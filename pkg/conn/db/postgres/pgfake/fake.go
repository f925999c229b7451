// fake implementations of pool.Pool, pool.Conn and pgx.Rows for tests.
//
// Queries are routed to canned rows by substrings of SQL.
package pgfake

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgproto3/v2"
	"github.com/jackc/pgx/v4"
	kpool "github.com/opst/pipeline-lineage/pkg/conn/db/postgres/pool"
)

// RowSet is a template of rows. Each query gets its own cursor.
type RowSet struct {
	Columns []string
	Values  [][]interface{}
}

func Rows(columns []string, values ...[]interface{}) RowSet {
	return RowSet{Columns: columns, Values: values}
}

// Route tells rows or error for queries.
type Route struct {
	// SQL containing this is routed here.
	Contains string

	Rows RowSet
	Err  error
}

// Query is a record of a query.
type Query struct {
	SQL  string
	Args []interface{}
}

// Conn is a fake pool.Conn and pool.Pool.
//
// Acquire returns the Conn itself.
// It is safe to be used from multiple goroutines.
type Conn struct {
	routes []Route

	mu       sync.Mutex
	queries  []Query
	released int

	// error returned from Acquire and Ping.
	Unavailable error
}

var _ kpool.Conn = &Conn{}
var _ kpool.Pool = &Conn{}

func NewConn(routes ...Route) *Conn {
	return &Conn{routes: routes}
}

// Queries returns queries issued.
func (c *Conn) Queries() []Query {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Query{}, c.queries...)
}

// QueriesContaining returns queries whose SQL contains s.
func (c *Conn) QueriesContaining(s string) []Query {
	ret := []Query{}
	for _, q := range c.Queries() {
		if strings.Contains(q.SQL, s) {
			ret = append(ret, q)
		}
	}
	return ret
}

// Released returns how many times Release is called.
func (c *Conn) Released() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.released
}

func (c *Conn) Acquire(ctx context.Context) (kpool.Conn, error) {
	if c.Unavailable != nil {
		return nil, c.Unavailable
	}
	return c, nil
}

func (c *Conn) Ping(ctx context.Context) error {
	return c.Unavailable
}

func (c *Conn) Close() {}

func (c *Conn) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.released += 1
}

func (c *Conn) Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	c.mu.Lock()
	c.queries = append(c.queries, Query{SQL: sql, Args: args})
	c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for _, r := range c.routes {
		if !strings.Contains(sql, r.Contains) {
			continue
		}
		if r.Err != nil {
			return nil, r.Err
		}
		return &FakeRows{set: r.Rows, cursor: -1}, nil
	}
	return nil, fmt.Errorf("pgfake: no routes for query: %s", sql)
}

// FakeRows is a fake pgx.Rows.
type FakeRows struct {
	set    RowSet
	cursor int
	err    error
}

var _ pgx.Rows = &FakeRows{}

func (fr *FakeRows) Close()     {}
func (fr *FakeRows) Err() error { return fr.err }
func (fr *FakeRows) CommandTag() pgconn.CommandTag {
	return pgconn.CommandTag(fmt.Sprintf("SELECT %d", len(fr.set.Values)))
}
func (fr *FakeRows) FieldDescriptions() []pgproto3.FieldDescription {
	fds := make([]pgproto3.FieldDescription, len(fr.set.Columns))
	for i, c := range fr.set.Columns {
		fds[i] = pgproto3.FieldDescription{Name: []byte(c)}
	}
	return fds
}
func (fr *FakeRows) Next() bool {
	fr.cursor += 1
	return fr.cursor < len(fr.set.Values)
}

// Scan sets values of the current row into dest.
//
// Values should be assignable or convertible to the type dest points.
// nil sets zero value.
func (fr *FakeRows) Scan(dest ...interface{}) error {
	row := fr.set.Values[fr.cursor]
	if len(row) != len(dest) {
		fr.err = fmt.Errorf("pgfake: %d values for %d destinations", len(row), len(dest))
		return fr.err
	}
	for i, d := range dest {
		dv := reflect.ValueOf(d)
		if dv.Kind() != reflect.Pointer || dv.IsNil() {
			fr.err = fmt.Errorf("pgfake: destination %d is not a pointer", i)
			return fr.err
		}
		target := dv.Elem()
		if row[i] == nil {
			target.Set(reflect.Zero(target.Type()))
			continue
		}
		v := reflect.ValueOf(row[i])
		switch {
		case v.Type().AssignableTo(target.Type()):
			target.Set(v)
		case v.CanConvert(target.Type()):
			target.Set(v.Convert(target.Type()))
		default:
			fr.err = fmt.Errorf(
				"pgfake: column %s: %T cannot be scanned into %s",
				fr.set.Columns[i], row[i], target.Type(),
			)
			return fr.err
		}
	}
	return nil
}
func (fr *FakeRows) Values() ([]interface{}, error) {
	return fr.set.Values[fr.cursor], nil
}
func (fr *FakeRows) RawValues() [][]byte { return nil }
