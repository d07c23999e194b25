package reconcile

import (
	"context"
	"io"
	"time"
)

// RecordStore persists StoredRecords keyed by identity key.
type RecordStore interface {
	// GetRecord returns the stored record for key, or nil if none exists.
	GetRecord(ctx context.Context, key string) (*StoredRecord, error)

	// InsertRecord creates a new record. rec.OwnerID must be set.
	InsertRecord(ctx context.Context, rec *StoredRecord) error

	// UpdateRecord overwrites an existing record. The write only succeeds if the stored
	// version still equals rec.Version and principal owns the row; on success
	// rec.Version is advanced.
	UpdateRecord(ctx context.Context, principal string, rec *StoredRecord) error

	// TouchValidation updates only the validation status, findings and
	// last-validated timestamp, under the same version and owner conditions as
	// UpdateRecord.
	TouchValidation(ctx context.Context, principal string, rec *StoredRecord) error
}

// ChangeLog is the append-only audit log of field changes.
type ChangeLog interface {
	// AppendChanges inserts all entries. Entries are never updated or deleted.
	AppendChanges(ctx context.Context, entries []ChangeEntry) error
}

// AssetStore persists AssetVersions.
type AssetStore interface {
	// CurrentAsset returns the current version for (profileKey, category), or nil.
	CurrentAsset(ctx context.Context, profileKey string, category AssetCategory) (*AssetVersion, error)

	// PromoteAsset makes next the current version for its (profile, category).
	// If previousID is non-empty the previous version is flipped to not-current in
	// the same logical step; if it is no longer current the call fails with
	// ErrConcurrentUpdate and next is not inserted.
	PromoteAsset(ctx context.Context, previousID string, next *AssetVersion) error
}

// RunStore persists RunRecords.
type RunStore interface {
	// InsertRun creates the initial row of a run.
	InsertRun(ctx context.Context, run *RunRecord) error

	// FinalizeRun writes the terminal state of a run. The write only applies to a
	// row still in RunRunning; otherwise it fails with ErrInvalidRunTransition.
	FinalizeRun(ctx context.Context, run *RunRecord) error
}

// Store is the full persistence contract the engine relies on.
type Store interface {
	RecordStore
	ChangeLog
	AssetStore
	RunStore
}

// Validator produces findings for a raw record. Implementations never fail:
// problems are reported as findings.
type Validator interface {
	Validate(raw RawRecord) []Finding
	Classify(findings []Finding) ValidationStatus
}

// Normalizer turns a raw record into its canonical form, applying the
// documented default table for absent fields.
type Normalizer interface {
	Normalize(raw RawRecord) (NormalizedRecord, error)
}

// PrincipalProvider resolves the principal on whose behalf the engine acts.
type PrincipalProvider interface {
	CurrentPrincipal(ctx context.Context) (string, bool)
}

// Fetcher retrieves asset content by source reference.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (io.ReadCloser, error)
}

// Clock returns the current time. Tests substitute a fixed clock.
type Clock func() time.Time
