package db

import (
	"context"
	"fmt"
	"time"

	"dbaccess/src/core/domain"
)

// HealthCheck runs SELECT 1 through Query, inheriting its retries, and never
// fails: an unreachable database yields an unhealthy status with no latency
// or statistics.
func (m *Manager) HealthCheck(ctx context.Context) (status domain.HealthStatus) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("health check panicked", "panic", fmt.Sprint(r))
			status = domain.HealthStatus{Status: domain.Unhealthy, Timestamp: time.Now()}
		}
	}()

	start := time.Now()
	_, err := m.Query(ctx, "SELECT 1", nil)
	now := time.Now()
	if err != nil {
		m.log.Warn("database health check failed", "error", err)
		return domain.HealthStatus{Status: domain.Unhealthy, Timestamp: now}
	}

	latency := now.Sub(start).Milliseconds()
	stats := m.Stats()
	return domain.HealthStatus{
		Status:         domain.Healthy,
		Timestamp:      now,
		LatencyMillis:  &latency,
		PoolStatistics: &stats,
	}
}
