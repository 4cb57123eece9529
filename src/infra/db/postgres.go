package db

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"dbaccess/src/core/domain"
)

// Postgres is a Pool backed by pgxpool.
type Postgres struct {
	name string
	pool *pgxpool.Pool
	log  *slog.Logger
}

var _ Pool = (*Postgres)(nil)

// NewPostgres creates a pgx connection pool. Connections are opened lazily.
func NewPostgres(ctx context.Context, s PoolSettings, log *slog.Logger) (Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(s.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s database config: %w", s.Name, err)
	}

	poolCfg.MaxConns = s.MaxConnections
	poolCfg.MinConns = 0
	poolCfg.MaxConnIdleTime = s.IdleTimeout
	poolCfg.ConnConfig.ConnectTimeout = s.ConnectTimeout
	if s.UseTLS {
		requireTLS(&poolCfg.ConnConfig.Config)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s connection pool: %w", s.Name, err)
	}

	log.Info("connection pool created",
		"pool", s.Name,
		"host", poolCfg.ConnConfig.Host,
		"database", poolCfg.ConnConfig.Database,
		"max_connections", s.MaxConnections,
		"tls", s.UseTLS,
	)

	return &Postgres{name: s.Name, pool: pool, log: log}, nil
}

// requireTLS removes every plaintext path from the connection config.
func requireTLS(cfg *pgconn.Config) {
	if cfg.TLSConfig == nil {
		cfg.TLSConfig = &tls.Config{
			ServerName: cfg.Host,
			MinVersion: tls.VersionTLS12,
		}
	}
	fallbacks := cfg.Fallbacks[:0]
	for _, fb := range cfg.Fallbacks {
		if fb.TLSConfig != nil {
			fallbacks = append(fallbacks, fb)
		}
	}
	cfg.Fallbacks = fallbacks
}

// Acquire checks out one connection.
func (p *Postgres) Acquire(ctx context.Context) (Conn, error) {
	c, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &pgxConn{conn: c, pool: p.name, log: p.log}, nil
}

// Stat returns a snapshot of pool statistics.
func (p *Postgres) Stat() domain.PoolStatistics {
	s := p.pool.Stat()
	return domain.PoolStatistics{
		TotalConnections:  s.TotalConns(),
		IdleConnections:   s.IdleConns(),
		ActiveConnections: s.AcquiredConns(),
		MaxConnections:    s.MaxConns(),
	}
}

// Close closes the connection pool.
// Call this during graceful shutdown.
func (p *Postgres) Close() {
	p.pool.Close()
	p.log.Info("connection pool closed", "pool", p.name)
}

// Unwrap exposes the pgx pool for tooling that needs database/sql (migrations).
func (p *Postgres) Unwrap() *pgxpool.Pool {
	return p.pool
}

// pgxConn reports broken connections before handing them back; pgxpool
// destroys closed or mid-transaction connections on release.
type pgxConn struct {
	conn *pgxpool.Conn
	pool string
	log  *slog.Logger
}

func (c *pgxConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return c.conn.Exec(ctx, sql, args...)
}

func (c *pgxConn) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return c.conn.Query(ctx, sql, args...)
}

func (c *pgxConn) Release() {
	pc := c.conn.Conn().PgConn()
	switch {
	case pc.IsClosed():
		c.log.Warn("discarding broken connection", "pool", c.pool, "pid", pc.PID())
	case pc.TxStatus() != 'I':
		c.log.Warn("discarding connection left inside a transaction", "pool", c.pool, "pid", pc.PID())
	}
	c.conn.Release()
}
