package db

import (
	"context"
	"sync"

	"dbaccess/src/core/domain"
	"dbaccess/src/core/ports"
)

// Shared hands the same Manager to every caller in the process. The
// composition root creates one Shared and injects it; nothing here is global.
type Shared struct {
	build func() *Manager

	mu  sync.Mutex
	mgr *Manager
}

var _ ports.Database = (*Shared)(nil)

// NewShared defers building the Manager until the first call to Instance.
func NewShared(build func() *Manager) *Shared {
	return &Shared{build: build}
}

// Instance builds the Manager on first use and returns the cached one afterwards.
func (s *Shared) Instance() *Manager {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mgr == nil {
		s.mgr = s.build()
	}
	return s.mgr
}

// Query forwards to the shared Manager.
func (s *Shared) Query(ctx context.Context, text string, params []domain.Param, opts ...domain.QueryOption) (*domain.RowSet, error) {
	return s.Instance().Query(ctx, text, params, opts...)
}

// Transaction forwards to the shared Manager.
func (s *Shared) Transaction(ctx context.Context, statements []domain.Statement, opts ...domain.QueryOption) ([]*domain.RowSet, error) {
	return s.Instance().Transaction(ctx, statements, opts...)
}

// HealthCheck forwards to the shared Manager.
func (s *Shared) HealthCheck(ctx context.Context) domain.HealthStatus {
	return s.Instance().HealthCheck(ctx)
}

// Stats forwards to the shared Manager.
func (s *Shared) Stats() domain.PoolStatistics {
	return s.Instance().Stats()
}

// DirectStats forwards to the shared Manager.
func (s *Shared) DirectStats() (domain.PoolStatistics, bool) {
	return s.Instance().DirectStats()
}

// Close closes the shared Manager's pools if it was ever built.
// The Manager stays cached and reinitializes its pools on next use.
func (s *Shared) Close() error {
	s.mu.Lock()
	mgr := s.mgr
	s.mu.Unlock()
	if mgr == nil {
		return nil
	}
	return mgr.Close()
}
