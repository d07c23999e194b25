package runs

import (
	"context"
	"time"

	"profile-ingest/core/reconcile"
	"profile-ingest/feature/profile/store"

	"go.uber.org/zap"
)

// ReapMessage is the error recorded on runs failed by Reap.
const ReapMessage = "abandoned: exceeded reap cutoff"

// Service reads and maintains ingest runs.
type Service struct {
	store  *store.Store
	logger *zap.Logger
	now    reconcile.Clock
}

// NewService creates a new run service.
func NewService(st *store.Store, logger *zap.Logger) *Service {
	return &Service{
		store:  st,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// List returns principal's runs, newest first. An empty principal lists all runs.
func (s *Service) List(ctx context.Context, principal string, filter store.RunFilter) ([]reconcile.RunRecord, error) {
	return s.store.ListRuns(ctx, principal, filter)
}

// Get returns one of principal's runs. An empty principal reads any run.
func (s *Service) Get(ctx context.Context, principal, id string) (*reconcile.RunRecord, error) {
	return s.store.GetRun(ctx, principal, id)
}

// Reap fails every run that has been running for longer than olderThan. A run
// left running means its process died before the terminal write.
func (s *Service) Reap(ctx context.Context, olderThan time.Duration) (int64, error) {
	now := s.now()
	cutoff := now.Add(-olderThan)

	n, err := s.store.ReapRuns(ctx, cutoff, ReapMessage, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Warn("Reaped abandoned runs", zap.Int64("count", n), zap.Time("cutoff", cutoff))
	}
	return n, nil
}
