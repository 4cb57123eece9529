package db

import (
	"context"
	"time"

	"dbaccess/src/core/domain"
)

const rollbackTimeout = 5 * time.Second

// Transaction runs statements in order on a single connection inside
// BEGIN/COMMIT. The first failing statement rolls the transaction back and its
// error is returned; partial results are discarded. Transactions are never
// retried here.
func (m *Manager) Transaction(ctx context.Context, statements []domain.Statement, opts ...domain.QueryOption) (results []*domain.RowSet, err error) {
	if err := m.ensure(ctx); err != nil {
		return nil, err
	}

	o := m.queryOptions(opts)
	ctx, span := m.startSpan(ctx, "db.transaction", "")
	start := time.Now()
	defer func() {
		m.metrics.observe(opTransaction, start, err)
		endSpan(span, err)
	}()

	conn, acquireErr := m.Conn(ctx)
	if acquireErr != nil {
		return nil, domain.NewTransactionError(-1, "", Classify(acquireErr), acquireErr)
	}
	defer conn.Release()

	if _, beginErr := conn.Exec(ctx, "BEGIN"); beginErr != nil {
		return nil, domain.NewTransactionError(-1, "BEGIN", Classify(beginErr), beginErr)
	}

	committed := false
	defer func() {
		if !committed {
			m.rollback(ctx, conn)
		}
	}()

	if _, setErr := conn.Exec(ctx, statementTimeout(o.Timeout, true)); setErr != nil {
		return nil, domain.NewTransactionError(-1, "SET LOCAL statement_timeout", Classify(setErr), setErr)
	}

	collected := make([]*domain.RowSet, 0, len(statements))
	for i, s := range statements {
		rs, stmtErr := collect(conn.Query(ctx, s.Text, domain.Args(s.Params)...))
		if stmtErr != nil {
			m.log.Warn("transaction statement failed, rolling back",
				"index", i,
				"statement", domain.StatementPreview(s.Text),
				"error", stmtErr,
			)
			return nil, markTimeout(domain.NewTransactionError(i, s.Text, Classify(stmtErr), stmtErr), stmtErr)
		}
		collected = append(collected, rs)
	}

	if _, commitErr := conn.Exec(ctx, "COMMIT"); commitErr != nil {
		return nil, domain.NewTransactionError(-1, "COMMIT", Classify(commitErr), commitErr)
	}
	committed = true

	return collected, nil
}

// rollback runs even when ctx is already cancelled; a failed rollback is
// logged and the connection is discarded by the pool on release.
func (m *Manager) rollback(ctx context.Context, conn Conn) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()

	if _, err := conn.Exec(ctx, "ROLLBACK"); err != nil {
		m.log.Error("transaction rollback failed", "error", err)
	}
}
