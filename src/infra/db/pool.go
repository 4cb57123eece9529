package db

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"dbaccess/src/core/domain"
)

// Conn is one checked-out connection. It is owned by a single caller until Release.
type Conn interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Release()
}

// Pool is a bounded set of connections.
type Pool interface {
	// Acquire blocks until a connection is free or ctx is done.
	Acquire(ctx context.Context) (Conn, error)

	// Stat returns live counts. WaitingRequests is filled in by the Manager.
	Stat() domain.PoolStatistics

	// Close waits for checked-out connections to be released, then closes all of them.
	Close()
}

// PoolSettings sizes and bounds one pool.
type PoolSettings struct {
	Name           string
	DSN            string
	MaxConnections int32
	ConnectTimeout time.Duration
	IdleTimeout    time.Duration
	UseTLS         bool
}

// PoolFactory constructs a pool. It must not wait for connections to be established.
type PoolFactory func(ctx context.Context, s PoolSettings, log *slog.Logger) (Pool, error)
