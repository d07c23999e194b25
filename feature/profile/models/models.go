package models

import (
	"encoding/json"
	"time"

	"profile-ingest/core/reconcile"

	"github.com/rotisserie/eris"
	"gorm.io/datatypes"
)

// ProfileRecord represents the 'profile_records' table.
type ProfileRecord struct {
	IdentityKey string `gorm:"column:identity_key;primaryKey;size:191"`
	Name        string `gorm:"column:name;size:512"`
	Headline    string `gorm:"column:headline;size:512"`
	Location    string `gorm:"column:location;size:256"`
	Summary     string `gorm:"column:summary;type:text"`
	Connections int    `gorm:"column:connections"`

	Experience datatypes.JSON `gorm:"column:experience"`
	Education  datatypes.JSON `gorm:"column:education"`
	Skills     datatypes.JSON `gorm:"column:skills"`
	Assets     datatypes.JSON `gorm:"column:assets"`

	Fingerprint      string         `gorm:"column:fingerprint;size:64;index"`
	ValidationStatus string         `gorm:"column:validation_status;size:16;index"`
	Findings         datatypes.JSON `gorm:"column:findings"`

	FirstSeenAt     time.Time `gorm:"column:first_seen_at"`
	LastValidatedAt time.Time `gorm:"column:last_validated_at"`
	LastUpdatedAt   time.Time `gorm:"column:last_updated_at"`

	OwnerID string `gorm:"column:owner_id;size:191;index;not null"`
	Version int64  `gorm:"column:version;not null;default:1"`
}

// TableName overrides the table name.
func (ProfileRecord) TableName() string {
	return "profile_records"
}

// ChangeEntry represents the append-only 'profile_changes' table.
type ChangeEntry struct {
	ID         string    `gorm:"column:id;primaryKey;size:36"`
	ProfileKey string    `gorm:"column:profile_key;size:191;index"`
	RunID      string    `gorm:"column:run_id;size:36;index"`
	Field      string    `gorm:"column:field;size:64"`
	OldValue   string    `gorm:"column:old_value;type:text"`
	NewValue   string    `gorm:"column:new_value;type:text"`
	ChangedAt  time.Time `gorm:"column:changed_at;index"`
}

// TableName overrides the table name.
func (ChangeEntry) TableName() string {
	return "profile_changes"
}

// AssetVersion represents the 'profile_assets' table.
//
// CurrentMarker is true on the current version and NULL on every other one. The
// unique index over (profile_key, category, current_marker) therefore admits one
// current row per pair, since NULLs never collide.
type AssetVersion struct {
	ID            string    `gorm:"column:id;primaryKey;size:36"`
	ProfileKey    string    `gorm:"column:profile_key;size:191;index;uniqueIndex:idx_profile_assets_current,priority:1"`
	Category      string    `gorm:"column:category;size:32;uniqueIndex:idx_profile_assets_current,priority:2"`
	CurrentMarker *bool     `gorm:"column:current_marker;uniqueIndex:idx_profile_assets_current,priority:3"`
	SourceRef     string    `gorm:"column:source_ref;type:text"`
	Fingerprint   string    `gorm:"column:fingerprint;size:64"`
	CreatedAt     time.Time `gorm:"column:created_at;index"`
}

// TableName overrides the table name.
func (AssetVersion) TableName() string {
	return "profile_assets"
}

// Run represents the 'ingest_runs' table.
type Run struct {
	ID          string     `gorm:"column:id;primaryKey;size:36"`
	Kind        string     `gorm:"column:kind;size:16"`
	Status      string     `gorm:"column:status;size:16;index"`
	StartedAt   time.Time  `gorm:"column:started_at;index"`
	CompletedAt *time.Time `gorm:"column:completed_at"`

	Processed          int `gorm:"column:processed"`
	Added              int `gorm:"column:added"`
	Updated            int `gorm:"column:updated"`
	Unchanged          int `gorm:"column:unchanged"`
	ImagesProcessed    int `gorm:"column:images_processed"`
	ImageFailures      int `gorm:"column:image_failures"`
	ValidationFailures int `gorm:"column:validation_failures"`
	ChangesRecorded    int `gorm:"column:changes_recorded"`

	Error   string `gorm:"column:error;type:text"`
	OwnerID string `gorm:"column:owner_id;size:191;index;not null"`
}

// TableName overrides the table name.
func (Run) TableName() string {
	return "ingest_runs"
}

// All lists every model, in migration order.
func All() []any {
	return []any{&ProfileRecord{}, &ChangeEntry{}, &AssetVersion{}, &Run{}}
}

func marshalJSON(v any) (datatypes.JSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, eris.Wrap(err, "models: marshal json column")
	}
	return datatypes.JSON(b), nil
}

func unmarshalJSON(col datatypes.JSON, v any) error {
	if len(col) == 0 {
		return nil
	}
	if err := json.Unmarshal(col, v); err != nil {
		return eris.Wrap(err, "models: unmarshal json column")
	}
	return nil
}

// FromStoredRecord converts a domain record into its row.
func FromStoredRecord(rec *reconcile.StoredRecord) (*ProfileRecord, error) {
	row := &ProfileRecord{
		IdentityKey:      rec.IdentityKey,
		Name:             rec.Name,
		Headline:         rec.Headline,
		Location:         rec.Location,
		Summary:          rec.Summary,
		Connections:      rec.Connections,
		Fingerprint:      rec.Fingerprint,
		ValidationStatus: string(rec.ValidationStatus),
		FirstSeenAt:      rec.FirstSeenAt,
		LastValidatedAt:  rec.LastValidatedAt,
		LastUpdatedAt:    rec.LastUpdatedAt,
		OwnerID:          rec.OwnerID,
		Version:          rec.Version,
	}

	var err error
	if row.Experience, err = marshalJSON(nonNil(rec.Experience)); err != nil {
		return nil, err
	}
	if row.Education, err = marshalJSON(nonNil(rec.Education)); err != nil {
		return nil, err
	}
	if row.Skills, err = marshalJSON(nonNil(rec.Skills)); err != nil {
		return nil, err
	}
	if row.Assets, err = marshalJSON(nonNil(rec.Assets)); err != nil {
		return nil, err
	}
	if row.Findings, err = marshalJSON(nonNil(rec.Findings)); err != nil {
		return nil, err
	}
	return row, nil
}

// FindingsJSON encodes findings for a column update.
func FindingsJSON(findings []reconcile.Finding) (datatypes.JSON, error) {
	return marshalJSON(nonNil(findings))
}

// ToStoredRecord converts the row into the domain record.
func (r *ProfileRecord) ToStoredRecord() (*reconcile.StoredRecord, error) {
	rec := &reconcile.StoredRecord{
		NormalizedRecord: reconcile.NormalizedRecord{
			IdentityKey: r.IdentityKey,
			Name:        r.Name,
			Headline:    r.Headline,
			Location:    r.Location,
			Summary:     r.Summary,
			Connections: r.Connections,
			Experience:  []reconcile.Experience{},
			Education:   []reconcile.Education{},
			Skills:      []string{},
			Assets:      []reconcile.AssetRef{},
		},
		Fingerprint:      r.Fingerprint,
		ValidationStatus: reconcile.ValidationStatus(r.ValidationStatus),
		Findings:         []reconcile.Finding{},
		FirstSeenAt:      r.FirstSeenAt.UTC(),
		LastValidatedAt:  r.LastValidatedAt.UTC(),
		LastUpdatedAt:    r.LastUpdatedAt.UTC(),
		OwnerID:          r.OwnerID,
		Version:          r.Version,
	}

	for _, step := range []struct {
		col datatypes.JSON
		dst any
	}{
		{r.Experience, &rec.Experience},
		{r.Education, &rec.Education},
		{r.Skills, &rec.Skills},
		{r.Assets, &rec.Assets},
		{r.Findings, &rec.Findings},
	} {
		if err := unmarshalJSON(step.col, step.dst); err != nil {
			return nil, eris.Wrapf(err, "models: record %s", r.IdentityKey)
		}
	}
	return rec, nil
}

// FromChangeEntry converts a change log entry into its row.
func FromChangeEntry(e reconcile.ChangeEntry) ChangeEntry {
	return ChangeEntry{
		ID:         e.ID,
		ProfileKey: e.ProfileKey,
		RunID:      e.RunID,
		Field:      e.Field,
		OldValue:   e.OldValue,
		NewValue:   e.NewValue,
		ChangedAt:  e.ChangedAt,
	}
}

// ToChangeEntry converts the row into the domain entry.
func (c ChangeEntry) ToChangeEntry() reconcile.ChangeEntry {
	return reconcile.ChangeEntry{
		ID:         c.ID,
		ProfileKey: c.ProfileKey,
		RunID:      c.RunID,
		Field:      c.Field,
		OldValue:   c.OldValue,
		NewValue:   c.NewValue,
		ChangedAt:  c.ChangedAt.UTC(),
	}
}

// FromAssetVersion converts an asset version into its row.
func FromAssetVersion(a *reconcile.AssetVersion) AssetVersion {
	row := AssetVersion{
		ID:          a.ID,
		ProfileKey:  a.ProfileKey,
		Category:    string(a.Category),
		SourceRef:   a.SourceRef,
		Fingerprint: a.Fingerprint,
		CreatedAt:   a.CreatedAt,
	}
	if a.IsCurrent {
		current := true
		row.CurrentMarker = &current
	}
	return row
}

// ToAssetVersion converts the row into the domain version.
func (a AssetVersion) ToAssetVersion() reconcile.AssetVersion {
	return reconcile.AssetVersion{
		ID:          a.ID,
		ProfileKey:  a.ProfileKey,
		Category:    reconcile.AssetCategory(a.Category),
		SourceRef:   a.SourceRef,
		Fingerprint: a.Fingerprint,
		IsCurrent:   a.CurrentMarker != nil && *a.CurrentMarker,
		CreatedAt:   a.CreatedAt.UTC(),
	}
}

// FromRunRecord converts a run into its row.
func FromRunRecord(r *reconcile.RunRecord) Run {
	return Run{
		ID:                 r.ID,
		Kind:               string(r.Kind),
		Status:             string(r.Status),
		StartedAt:          r.StartedAt,
		CompletedAt:        r.CompletedAt,
		Processed:          r.Stats.Processed,
		Added:              r.Stats.Added,
		Updated:            r.Stats.Updated,
		Unchanged:          r.Stats.Unchanged,
		ImagesProcessed:    r.Stats.ImagesProcessed,
		ImageFailures:      r.Stats.ImageFailures,
		ValidationFailures: r.Stats.ValidationFailures,
		ChangesRecorded:    r.Stats.ChangesRecorded,
		Error:              r.Error,
		OwnerID:            r.OwnerID,
	}
}

// ToRunRecord converts the row into the domain run.
func (r Run) ToRunRecord() reconcile.RunRecord {
	out := reconcile.RunRecord{
		ID:        r.ID,
		Kind:      reconcile.RunKind(r.Kind),
		Status:    reconcile.RunStatus(r.Status),
		StartedAt: r.StartedAt.UTC(),
		Stats: reconcile.RunStats{
			Processed:          r.Processed,
			Added:              r.Added,
			Updated:            r.Updated,
			Unchanged:          r.Unchanged,
			ImagesProcessed:    r.ImagesProcessed,
			ImageFailures:      r.ImageFailures,
			ValidationFailures: r.ValidationFailures,
			ChangesRecorded:    r.ChangesRecorded,
		},
		Error:   r.Error,
		OwnerID: r.OwnerID,
	}
	if r.CompletedAt != nil {
		completed := r.CompletedAt.UTC()
		out.CompletedAt = &completed
	}
	return out
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
