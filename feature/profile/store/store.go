package store

import (
	"context"
	"errors"
	"time"

	"profile-ingest/core/database"
	"profile-ingest/core/reconcile"
	"profile-ingest/feature/profile/models"

	"github.com/rotisserie/eris"
	"gorm.io/gorm"
)

// Store persists profile records, change entries, asset versions and runs with gorm.
// It implements reconcile.Store. Every mutating call is one statement or one
// transaction; conditional writes report lost races as reconcile.ErrConcurrentUpdate.
type Store struct {
	db *gorm.DB
}

var _ reconcile.Store = (*Store)(nil)

// New creates a Store over db.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying connection.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Migrate creates or updates every table the store writes.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return eris.Wrap(err, "store: migrate")
	}
	return nil
}

// CheckSchema verifies that every table carries the columns its model maps.
func (s *Store) CheckSchema(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	for _, model := range models.All() {
		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return eris.Wrap(err, "store: parse model")
		}
		missing, err := database.MissingColumns(db, stmt.Schema.Table, stmt.Schema.DBNames)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return eris.Errorf("store: table %s is missing columns %v", stmt.Schema.Table, missing)
		}
	}
	return nil
}

// GetRecord returns the record stored under key, or nil when there is none.
func (s *Store) GetRecord(ctx context.Context, key string) (*reconcile.StoredRecord, error) {
	var row models.ProfileRecord
	err := s.db.WithContext(ctx).Where("identity_key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "store: get record %s", key)
	}
	return row.ToStoredRecord()
}

// InsertRecord creates rec at version 1.
func (s *Store) InsertRecord(ctx context.Context, rec *reconcile.StoredRecord) error {
	row, err := models.FromStoredRecord(rec)
	if err != nil {
		return err
	}
	row.Version = 1

	err = s.db.WithContext(ctx).Create(row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return eris.Wrapf(reconcile.ErrConcurrentUpdate, "store: record %s inserted concurrently", rec.IdentityKey)
	}
	if err != nil {
		return eris.Wrapf(err, "store: insert record %s", rec.IdentityKey)
	}
	rec.Version = 1
	return nil
}

// UpdateRecord replaces the content of rec if it is still at rec.Version and owned
// by principal.
func (s *Store) UpdateRecord(ctx context.Context, principal string, rec *reconcile.StoredRecord) error {
	row, err := models.FromStoredRecord(rec)
	if err != nil {
		return err
	}

	return s.conditionalUpdate(ctx, principal, rec, map[string]any{
		"name":              row.Name,
		"headline":          row.Headline,
		"location":          row.Location,
		"summary":           row.Summary,
		"connections":       row.Connections,
		"experience":        row.Experience,
		"education":         row.Education,
		"skills":            row.Skills,
		"assets":            row.Assets,
		"fingerprint":       row.Fingerprint,
		"validation_status": row.ValidationStatus,
		"findings":          row.Findings,
		"last_validated_at": row.LastValidatedAt,
		"last_updated_at":   row.LastUpdatedAt,
	})
}

// TouchValidation writes only the validation status, findings and last validated
// time of rec, under the same conditions as UpdateRecord.
func (s *Store) TouchValidation(ctx context.Context, principal string, rec *reconcile.StoredRecord) error {
	findings, err := models.FindingsJSON(rec.Findings)
	if err != nil {
		return err
	}

	return s.conditionalUpdate(ctx, principal, rec, map[string]any{
		"validation_status": string(rec.ValidationStatus),
		"findings":          findings,
		"last_validated_at": rec.LastValidatedAt,
	})
}

func (s *Store) conditionalUpdate(ctx context.Context, principal string, rec *reconcile.StoredRecord, columns map[string]any) error {
	columns["version"] = rec.Version + 1

	result := s.db.WithContext(ctx).
		Model(&models.ProfileRecord{}).
		Where("identity_key = ? AND version = ? AND owner_id = ?", rec.IdentityKey, rec.Version, principal).
		Updates(columns)
	if result.Error != nil {
		return eris.Wrapf(result.Error, "store: update record %s", rec.IdentityKey)
	}
	if result.RowsAffected == 0 {
		return eris.Wrapf(reconcile.ErrConcurrentUpdate, "store: record %s changed since version %d or is not owned by %s",
			rec.IdentityKey, rec.Version, principal)
	}

	rec.Version++
	return nil
}

// AppendChanges inserts entries in one statement.
func (s *Store) AppendChanges(ctx context.Context, entries []reconcile.ChangeEntry) error {
	if len(entries) == 0 {
		return nil
	}

	rows := make([]models.ChangeEntry, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, models.FromChangeEntry(e))
	}
	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return eris.Wrapf(err, "store: append %d changes for %s", len(entries), entries[0].ProfileKey)
	}
	return nil
}

// CurrentAsset returns the current version for (profileKey, category), or nil.
func (s *Store) CurrentAsset(ctx context.Context, profileKey string, category reconcile.AssetCategory) (*reconcile.AssetVersion, error) {
	var row models.AssetVersion
	err := s.db.WithContext(ctx).
		Where("profile_key = ? AND category = ? AND current_marker IS NOT NULL", profileKey, string(category)).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "store: current asset %s/%s", profileKey, category)
	}
	v := row.ToAssetVersion()
	return &v, nil
}

// PromoteAsset demotes previousID and inserts next as current in one transaction.
// An empty previousID means no version was current. Losing a race on either step
// returns reconcile.ErrConcurrentUpdate and leaves the table untouched.
func (s *Store) PromoteAsset(ctx context.Context, previousID string, next *reconcile.AssetVersion) error {
	next.IsCurrent = true
	row := models.FromAssetVersion(next)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if previousID != "" {
			result := tx.Model(&models.AssetVersion{}).
				Where("id = ? AND current_marker IS NOT NULL", previousID).
				Update("current_marker", nil)
			if result.Error != nil {
				return eris.Wrapf(result.Error, "store: demote asset %s", previousID)
			}
			if result.RowsAffected == 0 {
				return eris.Wrapf(reconcile.ErrConcurrentUpdate, "store: asset %s is no longer current", previousID)
			}
		}

		err := tx.Create(&row).Error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return eris.Wrapf(reconcile.ErrConcurrentUpdate, "store: %s/%s already has a current asset", next.ProfileKey, next.Category)
		}
		if err != nil {
			return eris.Wrapf(err, "store: insert asset %s", next.ID)
		}
		return nil
	})
}

// InsertRun persists a newly started run.
func (s *Store) InsertRun(ctx context.Context, run *reconcile.RunRecord) error {
	row := models.FromRunRecord(run)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return eris.Wrapf(err, "store: insert run %s", run.ID)
	}
	return nil
}

// FinalizeRun writes the terminal state of run if it is still running.
func (s *Store) FinalizeRun(ctx context.Context, run *reconcile.RunRecord) error {
	row := models.FromRunRecord(run)

	result := s.db.WithContext(ctx).
		Model(&models.Run{}).
		Where("id = ? AND status = ?", run.ID, string(reconcile.RunRunning)).
		Updates(map[string]any{
			"status":              row.Status,
			"completed_at":        row.CompletedAt,
			"processed":           row.Processed,
			"added":               row.Added,
			"updated":             row.Updated,
			"unchanged":           row.Unchanged,
			"images_processed":    row.ImagesProcessed,
			"image_failures":      row.ImageFailures,
			"validation_failures": row.ValidationFailures,
			"changes_recorded":    row.ChangesRecorded,
			"error":               row.Error,
		})
	if result.Error != nil {
		return eris.Wrapf(result.Error, "store: finalize run %s", run.ID)
	}
	if result.RowsAffected == 0 {
		return eris.Wrapf(reconcile.ErrInvalidRunTransition, "store: run %s is not running", run.ID)
	}
	return nil
}

// ReapRuns fails every run still running that started before cutoff, keeping its
// counters, and returns how many were reaped.
func (s *Store) ReapRuns(ctx context.Context, cutoff time.Time, message string, now time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&models.Run{}).
		Where("status = ? AND started_at < ?", string(reconcile.RunRunning), cutoff).
		Updates(map[string]any{
			"status":       string(reconcile.RunFailed),
			"completed_at": now,
			"error":        message,
		})
	if result.Error != nil {
		return 0, eris.Wrap(result.Error, "store: reap runs")
	}
	return result.RowsAffected, nil
}
