// Package ports defines interfaces (ports) that connect core domain to infrastructure.
// These interfaces follow the ports and adapters (hexagonal) architecture pattern.
//
// Ports are defined here in the core layer, while implementations (adapters)
// live in src/infra/db. This ensures the core has no dependency on infrastructure.
package ports

import (
	"context"

	"dbaccess/src/core/domain"
)

// Querier runs statements against the shared pool.
type Querier interface {
	// Query runs one statement, retrying transient failures.
	Query(ctx context.Context, text string, params []domain.Param, opts ...domain.QueryOption) (*domain.RowSet, error)

	// Transaction runs statements in order on one connection, all or nothing.
	Transaction(ctx context.Context, statements []domain.Statement, opts ...domain.QueryOption) ([]*domain.RowSet, error)
}

// HealthReporter exposes liveness and pool occupancy for monitoring.
type HealthReporter interface {
	// HealthCheck never fails; an unreachable database yields an unhealthy status.
	HealthCheck(ctx context.Context) domain.HealthStatus

	// Stats returns the primary pool snapshot, zero-valued before initialization.
	Stats() domain.PoolStatistics

	// DirectStats returns the direct pool snapshot and whether a direct pool exists.
	DirectStats() (domain.PoolStatistics, bool)
}

// Database is everything request handlers may use from the data-access layer.
type Database interface {
	Querier
	HealthReporter
}
