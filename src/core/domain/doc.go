// Package domain contains the data-access model shared by every layer.
//
// This package defines:
//   - Statements and typed parameters (Statement, Param)
//   - Per-call options (QueryOptions) and results (RowSet)
//   - Operational snapshots (PoolStatistics, HealthStatus)
//   - The error taxonomy: configuration, connection, query and transaction
//     errors, each classified as retryable or permanent
//
// Rules for this package:
//   - No external dependencies except the standard library
//   - No infrastructure concerns (database drivers, HTTP, etc.)
//   - Errors never carry bound parameter values
//
// Example:
//
//	stmt := domain.NewStatement(
//	    "INSERT INTO accounts (email) VALUES ($1)",
//	    domain.Text("a@example.com"),
//	)
package domain
