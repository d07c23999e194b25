package reconcile

import "time"

// RawRecord is an externally sourced profile record before normalization.
// Keys and value shapes are defined by the upstream source.
type RawRecord map[string]any

// NormalizedRecord is the canonical view of an external profile.
// Every optional field holds a defined empty value (never nil) so that
// fingerprints are stable across sources that omit fields.
type NormalizedRecord struct {
	// IdentityKey is the externally assigned unique identifier. Immutable once stored.
	IdentityKey string `json:"identity_key"`

	Name     string `json:"name"`
	Headline string `json:"headline"`
	Location string `json:"location"`
	Summary  string `json:"summary"`

	// Experience, Education and Skills are structured lists. Their order is significant.
	Experience []Experience `json:"experience"`
	Education  []Education  `json:"education"`
	Skills     []string     `json:"skills"`

	// Connections is the connection count reported by the source.
	Connections int `json:"connections"`

	// Assets are the binary assets referenced by the record.
	Assets []AssetRef `json:"assets"`
}

// Experience is a single position entry.
type Experience struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Description string `json:"description"`
}

// Education is a single education entry.
type Education struct {
	School    string `json:"school"`
	Degree    string `json:"degree"`
	Field     string `json:"field"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// AssetCategory is the kind of image attached to a profile.
type AssetCategory string

const (
	// CategoryProfilePhoto is the profile's avatar.
	CategoryProfilePhoto AssetCategory = "profile_photo"
	// CategoryBackground is the profile's banner image.
	CategoryBackground AssetCategory = "background"
	// CategoryCompanyLogo is the logo of the current employer.
	CategoryCompanyLogo AssetCategory = "company_logo"
)

// Valid reports whether c is one of the known categories.
func (c AssetCategory) Valid() bool {
	switch c {
	case CategoryProfilePhoto, CategoryBackground, CategoryCompanyLogo:
		return true
	default:
		return false
	}
}

// AssetRef points to an asset by source reference (URL or object key).
type AssetRef struct {
	URL      string        `json:"url"`
	Category AssetCategory `json:"category"`
}

// Severity classifies a validation finding.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Finding is a single validation observation about a raw record.
type Finding struct {
	// Field is the offending field, empty when the finding concerns the whole record.
	Field    string   `json:"field,omitempty"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// ValidationStatus is the reduction of a set of findings.
type ValidationStatus string

const (
	StatusValid   ValidationStatus = "valid"
	StatusWarning ValidationStatus = "warning"
	StatusInvalid ValidationStatus = "invalid"
)

// HasErrors reports whether any finding carries error severity.
func HasErrors(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

// StoredRecord is the persisted state of a profile.
type StoredRecord struct {
	NormalizedRecord

	Fingerprint      string           `json:"fingerprint"`
	ValidationStatus ValidationStatus `json:"validation_status"`
	Findings         []Finding        `json:"findings"`

	FirstSeenAt     time.Time `json:"first_seen_at"`
	LastValidatedAt time.Time `json:"last_validated_at"`
	LastUpdatedAt   time.Time `json:"last_updated_at"`

	// OwnerID is the principal that created the record.
	OwnerID string `json:"owner_id"`

	// Version is the optimistic concurrency token. Stores increment it on every write
	// and reject writes carrying a stale value.
	Version int64 `json:"version"`
}

// ChangeEntry is an immutable audit row describing one field change.
type ChangeEntry struct {
	ID         string    `json:"id"`
	ProfileKey string    `json:"profile_key"`
	RunID      string    `json:"run_id"`
	Field      string    `json:"field"`
	OldValue   string    `json:"old_value"`
	NewValue   string    `json:"new_value"`
	ChangedAt  time.Time `json:"changed_at"`
}

// AssetVersion is one fingerprinted version of a profile asset.
type AssetVersion struct {
	ID          string        `json:"id"`
	ProfileKey  string        `json:"profile_key"`
	Category    AssetCategory `json:"category"`
	SourceRef   string        `json:"source_ref"`
	Fingerprint string        `json:"fingerprint"`
	IsCurrent   bool          `json:"is_current"`
	CreatedAt   time.Time     `json:"created_at"`
}

// RunKind distinguishes full re-imports from incremental ones.
type RunKind string

const (
	RunFull        RunKind = "full"
	RunIncremental RunKind = "incremental"
)

// Valid reports whether k is a known run kind.
func (k RunKind) Valid() bool {
	return k == RunFull || k == RunIncremental
}

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// RunStats holds the aggregate counters of a run. Counters never decrease.
type RunStats struct {
	// Processed counts every record handed to the engine, whatever its outcome.
	Processed int `json:"processed"`

	Added     int `json:"added"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`

	// ImagesProcessed counts asset reconciliations that completed.
	ImagesProcessed int `json:"images_processed"`

	// ImageFailures counts asset reconciliations that failed and were skipped.
	ImageFailures int `json:"image_failures"`

	// ValidationFailures counts records carrying at least one error finding.
	ValidationFailures int `json:"validation_failures"`

	// ChangesRecorded counts change log rows written.
	ChangesRecorded int `json:"changes_recorded"`
}

// Add returns the field-wise sum of s and o.
func (s RunStats) Add(o RunStats) RunStats {
	return RunStats{
		Processed:          s.Processed + o.Processed,
		Added:              s.Added + o.Added,
		Updated:            s.Updated + o.Updated,
		Unchanged:          s.Unchanged + o.Unchanged,
		ImagesProcessed:    s.ImagesProcessed + o.ImagesProcessed,
		ImageFailures:      s.ImageFailures + o.ImageFailures,
		ValidationFailures: s.ValidationFailures + o.ValidationFailures,
		ChangesRecorded:    s.ChangesRecorded + o.ChangesRecorded,
	}
}

// RunRecord is the persisted state of a batch run.
type RunRecord struct {
	ID          string     `json:"id"`
	Kind        RunKind    `json:"kind"`
	Status      RunStatus  `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Stats       RunStats   `json:"stats"`
	Error       string     `json:"error,omitempty"`
	OwnerID     string     `json:"owner_id"`
}

// Classification is the outcome of processing one record.
type Classification string

const (
	Added     Classification = "added"
	Updated   Classification = "updated"
	Unchanged Classification = "unchanged"
)

// RecordResult describes what the engine did with one record.
type RecordResult struct {
	IdentityKey    string           `json:"identity_key"`
	Classification Classification   `json:"classification"`
	Status         ValidationStatus `json:"validation_status"`
	Changes        int              `json:"changes"`
	Assets         []AssetResult    `json:"assets,omitempty"`
}

// AssetOutcome is the result of reconciling one asset reference.
type AssetOutcome string

const (
	// AssetCreated means no current version existed and one was inserted.
	AssetCreated AssetOutcome = "created"
	// AssetUnchanged means the current version already had the same fingerprint.
	AssetUnchanged AssetOutcome = "unchanged"
	// AssetVersioned means a new current version replaced the previous one.
	AssetVersioned AssetOutcome = "versioned"
	// AssetFailed means the reconciliation failed and was skipped.
	AssetFailed AssetOutcome = "failed"
)

// AssetResult is the per-asset outcome reported back to callers.
type AssetResult struct {
	Category AssetCategory `json:"category"`
	URL      string        `json:"url"`
	Outcome  AssetOutcome  `json:"outcome"`
	Error    string        `json:"error,omitempty"`
}
