// Package pool abstracts pgxpool, so that metadata stores can be tested with fakes.
//
// The metadata store is read-only for lineaged. Only querying methods are exposed.
package pool

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Conn is a connection acquired from Pool.
//
// It is a subset of *pgxpool.Conn. Release it after use.
type Conn interface {
	// Query sends a SQL having result rows. See pgxpool.Conn.Query for details.
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)

	Ping(ctx context.Context) error
	Release()
}

// Pool is a subset of *pgxpool.Pool.
//
// *pgxpool.Pool cannot be a Pool directly since its Acquire returns *pgxpool.Conn,
// not Conn. Use Wrap for it.
type Pool interface {
	Acquire(ctx context.Context) (Conn, error)
	Ping(ctx context.Context) error
	Close()
}

type pooled struct {
	*pgxpool.Pool
}

var _ Pool = pooled{}

func (p pooled) Acquire(ctx context.Context) (Conn, error) {
	conn, err := p.Pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Wrap makes *pgxpool.Pool a Pool.
func Wrap(p *pgxpool.Pool) Pool {
	return pooled{Pool: p}
}

// Connect opens a connection pool for the url, and wraps it.
//
// Connections are established lazily. Ping the Pool to check the server is reachable.
func Connect(ctx context.Context, url string) (Pool, error) {
	conf, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, err
	}
	conf.LazyConnect = true
	p, err := pgxpool.ConnectConfig(ctx, conf)
	if err != nil {
		return nil, err
	}
	return Wrap(p), nil
}
