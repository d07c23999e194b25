package profile

import (
	"context"

	"profile-ingest/core/reconcile"
	"profile-ingest/feature/profile/normalize"
	"profile-ingest/feature/profile/store"
	"profile-ingest/feature/profile/validate"

	"go.uber.org/zap"
)

// EngineOptions are the optional collaborators of NewEngine.
type EngineOptions struct {
	// Fetcher enables content fingerprinting of assets when set.
	Fetcher reconcile.Fetcher
	// MaxAssetBytes bounds fetched assets.
	MaxAssetBytes int64
	// Locks is shared by every engine of the process.
	Locks *reconcile.KeyLocker
}

// NewEngine wires the reconciliation engine to the gorm store and the default
// normalization and validation rules.
func NewEngine(st *store.Store, principals reconcile.PrincipalProvider, logger *zap.Logger, opts EngineOptions) (*reconcile.Engine, error) {
	return reconcile.NewEngine(reconcile.Deps{
		Store:      st,
		Validator:  validate.New(),
		Normalizer: normalize.New(),
		Principals: principals,
		Hasher:     reconcile.NewHasher(opts.Fetcher, opts.MaxAssetBytes),
		Locks:      opts.Locks,
		Logger:     logger,
	})
}

// Service handles profile ingestion and owner-scoped profile reads.
type Service struct {
	engine *reconcile.Engine
	store  *store.Store
	logger *zap.Logger
}

// NewService creates a new profile service.
func NewService(engine *reconcile.Engine, st *store.Store, logger *zap.Logger) *Service {
	return &Service{engine: engine, store: st, logger: logger}
}

// Ingest reconciles records as one run of the given kind.
func (s *Service) Ingest(ctx context.Context, kind reconcile.RunKind, records []reconcile.RawRecord) (reconcile.RunRecord, error) {
	return s.engine.RunBatch(ctx, kind, records)
}

// Record returns the stored profile key owned by principal.
func (s *Service) Record(ctx context.Context, principal, key string) (*reconcile.StoredRecord, error) {
	return s.store.OwnedRecord(ctx, principal, key)
}

// Changes returns the change log of a profile owned by principal.
func (s *Service) Changes(ctx context.Context, principal, key string) ([]reconcile.ChangeEntry, error) {
	if _, err := s.store.OwnedRecord(ctx, principal, key); err != nil {
		return nil, err
	}
	return s.store.Changes(ctx, principal, key)
}

// Assets returns the asset versions of a profile owned by principal.
func (s *Service) Assets(ctx context.Context, principal, key string, all bool) ([]reconcile.AssetVersion, error) {
	if _, err := s.store.OwnedRecord(ctx, principal, key); err != nil {
		return nil, err
	}
	return s.store.Assets(ctx, principal, key, all)
}
