package db

import (
	"context"
	"fmt"
	"time"

	"dbaccess/src/core/domain"
)

// Query runs one statement on a pooled connection.
//
// Each attempt checks out a connection, sets the session statement_timeout,
// runs the statement, resets the timeout and releases the connection. Failed attempts are retried
// up to MaxAttempts with a linear backoff of RetryDelay*attempt; permanent
// failures and caller cancellation stop the loop early. The returned error
// carries the attempt count and a statement preview, never parameter values.
func (m *Manager) Query(ctx context.Context, text string, params []domain.Param, opts ...domain.QueryOption) (*domain.RowSet, error) {
	if err := m.ensure(ctx); err != nil {
		return nil, err
	}

	o := m.queryOptions(opts)
	preview := domain.StatementPreview(text)
	ctx, span := m.startSpan(ctx, "db.query", preview)
	start := time.Now()

	var (
		lastErr  error
		attempts int
	)
	for attempt := 1; attempt <= o.MaxAttempts; attempt++ {
		attempts = attempt
		rs, err := m.queryOnce(ctx, text, params, o.Timeout)
		if err == nil {
			m.metrics.observe(opQuery, start, nil)
			endSpan(span, nil)
			return rs, nil
		}
		lastErr = err

		if attempt == o.MaxAttempts || Classify(err) == domain.Permanent || ctx.Err() != nil {
			break
		}

		delay := o.Backoff(attempt)
		m.log.Warn("query attempt failed, retrying",
			"attempt", attempt,
			"max_attempts", o.MaxAttempts,
			"delay", delay,
			"statement", preview,
			"error", err,
		)
		m.metrics.retried(opQuery)
		if err := m.sleep(ctx, delay); err != nil {
			break
		}
	}

	qErr := markTimeout(domain.NewQueryError(text, attempts, Classify(lastErr), lastErr), lastErr)
	m.log.Error("query failed",
		"attempts", attempts,
		"statement", preview,
		"class", qErr.Class,
		"error", lastErr,
	)
	m.metrics.observe(opQuery, start, qErr)
	endSpan(span, qErr)
	return nil, qErr
}

func (m *Manager) queryOnce(ctx context.Context, text string, params []domain.Param, timeout time.Duration) (*domain.RowSet, error) {
	conn, err := m.Conn(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, statementTimeout(timeout, false)); err != nil {
		return nil, err
	}
	defer m.resetTimeout(ctx, conn)

	return collect(conn.Query(ctx, text, domain.Args(params)...))
}

// resetTimeout restores the server default before the connection goes back
// to the pool, so later checkouts never inherit this caller's timeout.
func (m *Manager) resetTimeout(ctx context.Context, conn Conn) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()

	if _, err := conn.Exec(ctx, "RESET statement_timeout"); err != nil {
		m.log.Warn("failed to reset statement timeout", "error", err)
	}
}

// statementTimeout renders the SET for the server-side statement timeout.
// Zero disables the timeout.
func statementTimeout(d time.Duration, local bool) string {
	verb := "SET"
	if local {
		verb = "SET LOCAL"
	}
	return fmt.Sprintf("%s statement_timeout = %d", verb, d.Milliseconds())
}
