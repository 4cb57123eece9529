package usecase

import (
	"context"
	"log/slog"
	"time"

	"dbaccess/src/core/domain"
	"dbaccess/src/core/ports"
)

// HealthService reports database health and pool occupancy to monitoring.
type HealthService struct {
	db  ports.HealthReporter
	log *slog.Logger
}

// NewHealthService creates a new HealthService.
func NewHealthService(db ports.HealthReporter, log *slog.Logger) *HealthService {
	return &HealthService{
		db:  db,
		log: log,
	}
}

// PoolReport holds statistics for every configured pool.
type PoolReport struct {
	Timestamp time.Time              `json:"timestamp"`
	Primary   domain.PoolStatistics  `json:"primary"`
	Direct    *domain.PoolStatistics `json:"direct,omitempty"`
}

// Check runs the database health probe. It never fails.
func (s *HealthService) Check(ctx context.Context) domain.HealthStatus {
	status := s.db.HealthCheck(ctx)
	if !status.IsHealthy() {
		s.log.Warn("database unhealthy", "timestamp", status.Timestamp)
	}
	return status
}

// Pools returns a point-in-time snapshot of the primary and direct pools.
func (s *HealthService) Pools() PoolReport {
	report := PoolReport{
		Timestamp: time.Now(),
		Primary:   s.db.Stats(),
	}
	if direct, ok := s.db.DirectStats(); ok {
		report.Direct = &direct
	}
	return report
}
