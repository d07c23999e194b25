package reconcile

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Deps are the collaborators an Engine is built from.
type Deps struct {
	// Store persists records, change entries, asset versions and runs. Required.
	Store Store
	// Validator produces findings for raw records. Required.
	Validator Validator
	// Normalizer canonicalizes raw records. Required.
	Normalizer Normalizer
	// Principals resolves the acting principal. Required.
	Principals PrincipalProvider

	// Hasher fingerprints records and assets. Defaults to reference-only asset hashing.
	Hasher *Hasher
	// Locks serializes work per identity key. Share one KeyLocker between engines
	// of the same process. Defaults to a private locker.
	Locks *KeyLocker
	// Tracker computes change log entries. Defaults to DefaultTrackedFields.
	Tracker *ChangeTracker
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
	// Clock defaults to time.Now in UTC.
	Clock Clock
}

// Engine reconciles batches of raw profile records against the store.
//
// Records of one batch are processed strictly one after another; every step of a
// record is awaited before the next starts. Cross-batch safety comes from the
// per-key locks and the store's conditional writes.
type Engine struct {
	store      Store
	validator  Validator
	normalizer Normalizer
	principals PrincipalProvider
	hasher     *Hasher
	locks      *KeyLocker
	tracker    *ChangeTracker
	assets     *AssetReconciler
	runs       *RunRecorder
	logger     *zap.Logger
	now        Clock
}

// NewEngine builds an Engine from d.
func NewEngine(d Deps) (*Engine, error) {
	switch {
	case d.Store == nil:
		return nil, eris.New("reconcile: store is required")
	case d.Validator == nil:
		return nil, eris.New("reconcile: validator is required")
	case d.Normalizer == nil:
		return nil, eris.New("reconcile: normalizer is required")
	case d.Principals == nil:
		return nil, eris.New("reconcile: principal provider is required")
	}

	if d.Hasher == nil {
		d.Hasher = NewHasher(nil, 0)
	}
	if d.Locks == nil {
		d.Locks = NewKeyLocker()
	}
	if d.Tracker == nil {
		d.Tracker = NewChangeTracker()
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Clock == nil {
		d.Clock = func() time.Time { return time.Now().UTC() }
	}

	return &Engine{
		store:      d.Store,
		validator:  d.Validator,
		normalizer: d.Normalizer,
		principals: d.Principals,
		hasher:     d.Hasher,
		locks:      d.Locks,
		tracker:    d.Tracker,
		assets:     NewAssetReconciler(d.Store, d.Hasher, d.Locks, d.Clock),
		runs:       NewRunRecorder(d.Store, d.Clock),
		logger:     d.Logger,
		now:        d.Clock,
	}, nil
}

// StartRun starts a run on behalf of the current principal.
func (e *Engine) StartRun(ctx context.Context, kind RunKind) (*Run, error) {
	principal, ok := e.principals.CurrentPrincipal(ctx)
	if !ok {
		return nil, ErrAuthenticationRequired
	}

	run, err := e.runs.Start(ctx, kind, principal)
	if err != nil {
		return nil, err
	}

	e.logger.Info("Run started",
		zap.String("run_id", run.ID()),
		zap.String("kind", string(kind)),
		zap.String("principal", principal),
	)
	return run, nil
}

// CompleteRun marks run completed with its accumulated statistics.
func (e *Engine) CompleteRun(ctx context.Context, run *Run) error {
	if err := run.Finish(ctx); err != nil {
		return err
	}
	snap := run.Snapshot()
	e.logger.Info("Run completed", append([]zap.Field{zap.String("run_id", snap.ID)}, statsFields(snap.Stats)...)...)
	return nil
}

// FailRun marks run failed with message, preserving its accumulated statistics.
func (e *Engine) FailRun(ctx context.Context, run *Run, message string) error {
	if err := run.Fail(ctx, message); err != nil {
		return err
	}
	snap := run.Snapshot()
	e.logger.Error("Run failed",
		append([]zap.Field{zap.String("run_id", snap.ID), zap.String("error", message)}, statsFields(snap.Stats)...)...,
	)
	return nil
}

// RunBatch processes records in order within a single run.
//
// The first record that fails aborts the batch: the run is marked failed with
// the error message verbatim and the counters of the records processed before it.
// The returned RunRecord reflects the terminal state in both cases.
func (e *Engine) RunBatch(ctx context.Context, kind RunKind, records []RawRecord) (RunRecord, error) {
	run, err := e.StartRun(ctx, kind)
	if err != nil {
		return RunRecord{}, err
	}

	for i, raw := range records {
		if _, err := e.ProcessRecord(ctx, run, raw); err != nil {
			e.logger.Error("Record processing failed, aborting batch",
				zap.String("run_id", run.ID()),
				zap.Int("index", i),
				zap.Error(err),
			)
			if failErr := e.FailRun(ctx, run, err.Error()); failErr != nil {
				e.logger.Error("Failed to mark run as failed", zap.String("run_id", run.ID()), zap.Error(failErr))
			}
			return run.Snapshot(), err
		}
	}

	if err := e.CompleteRun(ctx, run); err != nil {
		return run.Snapshot(), err
	}
	return run.Snapshot(), nil
}

// ProcessRecord validates, fingerprints and classifies one raw record within run.
//
// Validation findings never stop ingestion; they only set the stored status and the
// validation_failures counter. Asset failures are reported in the result and
// counted, never returned. Any other error is returned and the run's counters are
// left untouched for this record.
func (e *Engine) ProcessRecord(ctx context.Context, run *Run, raw RawRecord) (*RecordResult, error) {
	principal := run.Principal()
	if principal == "" {
		return nil, ErrAuthenticationRequired
	}

	findings := e.validator.Validate(raw)
	if findings == nil {
		findings = []Finding{}
	}
	status := e.validator.Classify(findings)

	rec, err := e.normalizer.Normalize(raw)
	if err != nil {
		return nil, err
	}
	if rec.IdentityKey == "" {
		return nil, eris.Wrap(ErrInvalidRecord, "record has no identity key")
	}

	fingerprint := e.hasher.Fingerprint(rec)

	unlock := e.locks.Lock("record:" + rec.IdentityKey)
	defer unlock()

	stored, err := e.store.GetRecord(ctx, rec.IdentityKey)
	if err != nil {
		return nil, StoreFailure("get record "+rec.IdentityKey, err)
	}

	// Checked before any write so a foreign batch leaves no change entries behind.
	if stored != nil && stored.OwnerID != principal {
		return nil, StoreFailure("update record "+rec.IdentityKey, ErrNotOwner)
	}

	now := e.now()
	result := &RecordResult{IdentityKey: rec.IdentityKey, Status: status}
	var delta RunStats

	switch {
	case stored == nil:
		next := &StoredRecord{
			NormalizedRecord: rec,
			Fingerprint:      fingerprint,
			ValidationStatus: status,
			Findings:         findings,
			FirstSeenAt:      now,
			LastValidatedAt:  now,
			LastUpdatedAt:    now,
			OwnerID:          principal,
		}
		if err := e.store.InsertRecord(ctx, next); err != nil {
			return nil, StoreFailure("insert record "+rec.IdentityKey, err)
		}
		result.Classification = Added
		delta.Added = 1

	case stored.Fingerprint == fingerprint:
		stored.ValidationStatus = status
		stored.Findings = findings
		stored.LastValidatedAt = now
		if err := e.store.TouchValidation(ctx, principal, stored); err != nil {
			return nil, StoreFailure("touch record "+rec.IdentityKey, err)
		}
		result.Classification = Unchanged
		delta.Unchanged = 1

	default:
		changes := e.tracker.Diff(stored.NormalizedRecord, rec)
		if len(changes) > 0 {
			entries := make([]ChangeEntry, 0, len(changes))
			for _, c := range changes {
				entries = append(entries, ChangeEntry{
					ID:         uuid.NewString(),
					ProfileKey: rec.IdentityKey,
					RunID:      run.ID(),
					Field:      c.Field,
					OldValue:   c.OldValue,
					NewValue:   c.NewValue,
					ChangedAt:  now,
				})
			}
			if err := e.store.AppendChanges(ctx, entries); err != nil {
				return nil, StoreFailure("append changes "+rec.IdentityKey, err)
			}
		}

		next := *stored
		next.NormalizedRecord = rec
		next.Fingerprint = fingerprint
		next.ValidationStatus = status
		next.Findings = findings
		next.LastValidatedAt = now
		next.LastUpdatedAt = now
		if err := e.store.UpdateRecord(ctx, principal, &next); err != nil {
			return nil, StoreFailure("update record "+rec.IdentityKey, err)
		}
		result.Classification = Updated
		result.Changes = len(changes)
		delta.Updated = 1
		delta.ChangesRecorded = len(changes)
	}

	if result.Classification != Unchanged {
		result.Assets = e.reconcileAssets(ctx, run, rec, &delta)
	}

	delta.Processed = 1
	if HasErrors(findings) {
		delta.ValidationFailures = 1
	}
	run.RecordProgress(delta)

	e.logger.Debug("Record reconciled",
		zap.String("run_id", run.ID()),
		zap.String("identity_key", rec.IdentityKey),
		zap.String("classification", string(result.Classification)),
		zap.String("validation_status", string(status)),
		zap.Int("changes", result.Changes),
	)
	return result, nil
}

// reconcileAssets reconciles every asset reference of rec. Failures are logged and
// counted per asset and never abort the record.
func (e *Engine) reconcileAssets(ctx context.Context, run *Run, rec NormalizedRecord, delta *RunStats) []AssetResult {
	results := make([]AssetResult, 0, len(rec.Assets))
	for _, ref := range rec.Assets {
		outcome, err := e.assets.Reconcile(ctx, rec.IdentityKey, ref.Category, ref.URL)
		res := AssetResult{Category: ref.Category, URL: ref.URL, Outcome: outcome}
		if err != nil {
			res.Error = err.Error()
			delta.ImageFailures++
			e.logger.Warn("Asset reconciliation failed",
				zap.String("run_id", run.ID()),
				zap.String("identity_key", rec.IdentityKey),
				zap.String("category", string(ref.Category)),
				zap.String("url", ref.URL),
				zap.Bool("retryable", eris.Is(err, ErrAssetFetchFailed)),
				zap.Error(err),
			)
		} else {
			delta.ImagesProcessed++
		}
		results = append(results, res)
	}
	return results
}

func statsFields(s RunStats) []zap.Field {
	return []zap.Field{
		zap.Int("processed", s.Processed),
		zap.Int("added", s.Added),
		zap.Int("updated", s.Updated),
		zap.Int("unchanged", s.Unchanged),
		zap.Int("images_processed", s.ImagesProcessed),
		zap.Int("image_failures", s.ImageFailures),
		zap.Int("validation_failures", s.ValidationFailures),
		zap.Int("changes_recorded", s.ChangesRecorded),
	}
}
