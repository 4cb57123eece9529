package db

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"dbaccess/src/core/domain"
	"dbaccess/src/core/ports"
	"dbaccess/src/infra/config"
	"dbaccess/src/infra/logger"
)

const (
	primaryPool = "primary"
	directPool  = "direct"

	instrumentationName = "dbaccess/src/infra/db"

	// waitGrace is how long a checkout may take before it counts as waiting.
	waitGrace = time.Millisecond
)

// ConfigResolver supplies the pool configuration on first use.
type ConfigResolver func() (config.DatabaseConfig, error)

// Manager owns the primary pool and the optional direct pool.
// Pools are created on first use and live until Close.
type Manager struct {
	resolve ConfigResolver
	newPool PoolFactory
	log     *slog.Logger
	metrics *Metrics
	tracer  trace.Tracer
	sleep   func(context.Context, time.Duration) error

	// initMu serializes Initialize and Close; mu guards the fields below it.
	initMu   sync.Mutex
	mu       sync.RWMutex
	cfg      config.DatabaseConfig
	defaults domain.QueryOptions
	primary  Pool
	direct   Pool

	waiting       atomic.Int64
	directWaiting atomic.Int64
}

var _ ports.Database = (*Manager)(nil)

// Option configures a Manager.
type Option func(*Manager)

// WithPoolFactory replaces the pgx pool constructor.
func WithPoolFactory(f PoolFactory) Option {
	return func(m *Manager) { m.newPool = f }
}

// WithMetrics records query and transaction outcomes.
func WithMetrics(metrics *Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// WithTracer replaces the global OpenTelemetry tracer.
func WithTracer(t trace.Tracer) Option {
	return func(m *Manager) { m.tracer = t }
}

// New creates a Manager. No connection is opened until the first call that needs one.
func New(resolve ConfigResolver, log *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		resolve:  resolve,
		newPool:  NewPostgres,
		log:      logger.WithComponent(log, "db"),
		tracer:   otel.Tracer(instrumentationName),
		sleep:    sleepContext,
		defaults: domain.DefaultQueryOptions(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Initialize creates the pools and probes the primary with SELECT 1.
// It is a no-op when the primary pool already exists. A failed probe leaves
// the pools in place and returns a connection error.
func (m *Manager) Initialize(ctx context.Context, cfg config.DatabaseConfig) error {
	m.initMu.Lock()
	defer m.initMu.Unlock()

	if primary, _ := m.pools(); primary != nil {
		return nil
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	primary, err := m.newPool(ctx, PoolSettings{
		Name:           primaryPool,
		DSN:            cfg.URL,
		MaxConnections: int32(cfg.MaxConnections),
		ConnectTimeout: cfg.ConnectTimeout(),
		IdleTimeout:    cfg.IdleTimeout(),
		UseTLS:         cfg.UseTLS(),
	}, m.log)
	if err != nil {
		return domain.NewConnectionError("create primary pool", false, Classify(err), err)
	}

	var direct Pool
	if cfg.HasDirect() {
		direct, err = m.newPool(ctx, PoolSettings{
			Name:           directPool,
			DSN:            cfg.DirectURL,
			MaxConnections: int32(cfg.DirectMaxConnections),
			ConnectTimeout: cfg.ConnectTimeout(),
			IdleTimeout:    cfg.IdleTimeout(),
			UseTLS:         cfg.UseTLS(),
		}, m.log)
		if err != nil {
			primary.Close()
			return domain.NewConnectionError("create direct pool", false, Classify(err), err)
		}
	}

	m.mu.Lock()
	m.cfg = cfg
	m.defaults = cfg.QueryOptions()
	m.primary = primary
	m.direct = direct
	m.mu.Unlock()

	if err := m.probe(ctx, primary); err != nil {
		m.log.Error("database liveness probe failed", "error", err)
		return err
	}

	m.log.Info("database connection established",
		"max_connections", cfg.MaxConnections,
		"direct_pool", cfg.HasDirect(),
	)
	return nil
}

func (m *Manager) probe(ctx context.Context, p Pool) error {
	conn, err := m.acquire(ctx, p, &m.waiting, primaryPool)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "SELECT 1"); err != nil {
		return domain.NewConnectionError("liveness probe", false, Classify(err), err)
	}
	return nil
}

// ensure initializes from resolved configuration when no pool exists yet.
func (m *Manager) ensure(ctx context.Context) error {
	if primary, _ := m.pools(); primary != nil {
		return nil
	}
	if m.resolve == nil {
		return domain.NewConfigurationError("no database configuration resolver")
	}
	cfg, err := m.resolve()
	if err != nil {
		return err
	}
	return m.Initialize(ctx, cfg)
}

func (m *Manager) pools() (primary, direct Pool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.primary, m.direct
}

func (m *Manager) connectTimeout() time.Duration {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg.ConnectTimeout()
}

func (m *Manager) queryOptions(opts []domain.QueryOption) domain.QueryOptions {
	m.mu.RLock()
	defaults := m.defaults
	m.mu.RUnlock()
	return defaults.Apply(opts...)
}

// acquire checks out a connection, waiting at most the connect timeout.
// The waiting gauge counts callers blocked in Acquire, not every checkout.
func (m *Manager) acquire(ctx context.Context, p Pool, waiting *atomic.Int64, name string) (Conn, error) {
	acquireCtx := ctx
	if timeout := m.connectTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	// Only callers still blocked after waitGrace count as waiting.
	var (
		waitMu          sync.Mutex
		counted, served bool
	)
	timer := time.AfterFunc(waitGrace, func() {
		waitMu.Lock()
		defer waitMu.Unlock()
		if !served {
			counted = true
			waiting.Add(1)
		}
	})
	conn, err := p.Acquire(acquireCtx)
	timer.Stop()
	waitMu.Lock()
	served = true
	if counted {
		waiting.Add(-1)
	}
	waitMu.Unlock()
	if err != nil {
		timedOut := errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil
		return nil, domain.NewConnectionError("acquire "+name+" connection", timedOut, Classify(err), err)
	}
	return conn, nil
}

// Conn checks out a connection from the primary pool, initializing it on first use.
// The caller must Release it.
func (m *Manager) Conn(ctx context.Context) (Conn, error) {
	if err := m.ensure(ctx); err != nil {
		return nil, err
	}
	primary, _ := m.pools()
	if primary == nil {
		return nil, domain.NewConnectionError("acquire primary connection", false, domain.Retryable, errors.New("pool closed"))
	}
	return m.acquire(ctx, primary, &m.waiting, primaryPool)
}

// DirectConn checks out a connection from the direct pool.
// It fails with a configuration error when no direct DSN was configured.
func (m *Manager) DirectConn(ctx context.Context) (Conn, error) {
	if err := m.ensure(ctx); err != nil {
		return nil, err
	}
	_, direct := m.pools()
	if direct == nil {
		return nil, &domain.DBError{
			Kind:  domain.ErrConfiguration,
			Op:    "DIRECT_URL is not set",
			Index: -1,
			Class: domain.Permanent,
			Err:   domain.ErrPoolNotConfigured,
		}
	}
	return m.acquire(ctx, direct, &m.directWaiting, directPool)
}

// Stats returns the primary pool snapshot, or zero values before initialization.
func (m *Manager) Stats() domain.PoolStatistics {
	primary, _ := m.pools()
	if primary == nil {
		return domain.PoolStatistics{}
	}
	s := primary.Stat()
	s.WaitingRequests = m.waiting.Load()
	return s
}

// DirectStats returns the direct pool snapshot and whether a direct pool exists.
func (m *Manager) DirectStats() (domain.PoolStatistics, bool) {
	_, direct := m.pools()
	if direct == nil {
		return domain.PoolStatistics{}, false
	}
	s := direct.Stat()
	s.WaitingRequests = m.directWaiting.Load()
	return s, true
}

// Close closes both pools concurrently and waits for them to drain.
// The next call that needs a connection initializes fresh pools.
func (m *Manager) Close() error {
	m.initMu.Lock()
	defer m.initMu.Unlock()

	m.mu.Lock()
	primary, direct := m.primary, m.direct
	m.primary, m.direct = nil, nil
	m.mu.Unlock()

	if primary == nil && direct == nil {
		return nil
	}

	var g errgroup.Group
	for _, p := range []Pool{primary, direct} {
		if p == nil {
			continue
		}
		g.Go(func() error {
			p.Close()
			return nil
		})
	}
	err := g.Wait()

	m.log.Info("database connection closed")
	return err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
