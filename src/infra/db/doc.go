// Package db provides PostgreSQL pooling, query execution and transactions.
//
// This package is responsible for:
//   - Primary and direct (maintenance) pool lifecycle, created lazily
//   - Single-statement queries with a session statement timeout and
//     bounded, linearly backed-off retries
//   - Multi-statement transactions pinned to one connection
//   - Health checks, pool statistics and Prometheus metrics
//   - goose migrations over the direct pool
//
// Example usage:
//
//	shared := db.NewShared(func() *db.Manager {
//	    return db.New(config.LoadDatabase, log)
//	})
//	defer shared.Close()
//
//	rs, err := shared.Query(ctx, "SELECT id FROM accounts WHERE email = $1",
//	    []domain.Param{domain.Text(email)}, domain.WithMaxAttempts(2))
package db
