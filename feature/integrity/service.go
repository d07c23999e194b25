package integrity

import (
	"context"
	"time"

	"profile-ingest/core/storage"
	"profile-ingest/feature/integrity/checks"
	"profile-ingest/feature/profile/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service handles integrity checks.
type Service struct {
	client     storage.Client
	bucket     string
	logger     *zap.Logger
	db         *gorm.DB
	runs       checks.RunLister
	staleAfter time.Duration
	now        func() time.Time
}

// NewService creates a new integrity service. client may be nil when assets are
// not fetched from object storage.
func NewService(client storage.Client, bucket string, logger *zap.Logger, db *gorm.DB, runs checks.RunLister, staleAfter time.Duration) *Service {
	return &Service{
		client:     client,
		bucket:     bucket,
		logger:     logger,
		db:         db,
		runs:       runs,
		staleAfter: staleAfter,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// CheckSchema compares the database against the profile models.
func (s *Service) CheckSchema() (*checks.SchemaReport, error) {
	return checks.CheckSchema(s.db, models.All()...)
}

// CheckStorage reports whether the asset bucket is reachable.
func (s *Service) CheckStorage(ctx context.Context) checks.StorageReport {
	return checks.CheckStorage(ctx, s.client, s.bucket)
}

// CheckRuns reports runs that have been running for longer than the stale age.
func (s *Service) CheckRuns(ctx context.Context) (*checks.RunsReport, error) {
	return checks.CheckRuns(ctx, s.runs, s.now().Add(-s.staleAfter))
}
