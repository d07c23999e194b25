package store

import (
	"context"
	"errors"

	"profile-ingest/core/reconcile"
	"profile-ingest/feature/profile/models"

	"github.com/rotisserie/eris"
	"gorm.io/gorm"
)

// ErrNotFound is returned by owner-scoped reads when the row does not exist or
// belongs to another principal.
var ErrNotFound = eris.New("not found")

// OwnedRecord returns the record under key if principal owns it.
func (s *Store) OwnedRecord(ctx context.Context, principal, key string) (*reconcile.StoredRecord, error) {
	var row models.ProfileRecord
	err := s.db.WithContext(ctx).
		Where("identity_key = ? AND owner_id = ?", key, principal).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, eris.Wrapf(ErrNotFound, "store: record %s", key)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "store: get record %s", key)
	}
	return row.ToStoredRecord()
}

// ownedProfile scopes a query on a table with a profile_key column to the
// profiles principal owns.
func (s *Store) ownedProfile(ctx context.Context, principal, key string) *gorm.DB {
	owned := s.db.Model(&models.ProfileRecord{}).
		Select("identity_key").
		Where("identity_key = ? AND owner_id = ?", key, principal)
	return s.db.WithContext(ctx).Where("profile_key IN (?)", owned)
}

// Changes lists the change log of key, oldest first, if principal owns the profile.
func (s *Store) Changes(ctx context.Context, principal, key string) ([]reconcile.ChangeEntry, error) {
	var rows []models.ChangeEntry
	err := s.ownedProfile(ctx, principal, key).
		Order("changed_at ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, eris.Wrapf(err, "store: list changes %s", key)
	}

	out := make([]reconcile.ChangeEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ToChangeEntry())
	}
	return out, nil
}

// Assets lists the asset versions of key if principal owns the profile. Unless all
// is set only current versions are returned.
func (s *Store) Assets(ctx context.Context, principal, key string, all bool) ([]reconcile.AssetVersion, error) {
	q := s.ownedProfile(ctx, principal, key)
	if !all {
		q = q.Where("current_marker IS NOT NULL")
	}

	var rows []models.AssetVersion
	if err := q.Order("category ASC").Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, eris.Wrapf(err, "store: list assets %s", key)
	}

	out := make([]reconcile.AssetVersion, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ToAssetVersion())
	}
	return out, nil
}

// RunFilter narrows ListRuns.
type RunFilter struct {
	// Status keeps only runs in this status when set.
	Status reconcile.RunStatus
	// Limit caps the result; zero means 50.
	Limit int
}

// ListRuns lists principal's runs, newest first. An empty principal lists every run.
func (s *Store) ListRuns(ctx context.Context, principal string, filter RunFilter) ([]reconcile.RunRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	q := s.db.WithContext(ctx).Model(&models.Run{})
	if principal != "" {
		q = q.Where("owner_id = ?", principal)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}

	var rows []models.Run
	if err := q.Order("started_at DESC").Order("id DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, eris.Wrap(err, "store: list runs")
	}

	out := make([]reconcile.RunRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ToRunRecord())
	}
	return out, nil
}

// GetRun returns run id if principal owns it. An empty principal reads any run.
func (s *Store) GetRun(ctx context.Context, principal, id string) (*reconcile.RunRecord, error) {
	q := s.db.WithContext(ctx).Where("id = ?", id)
	if principal != "" {
		q = q.Where("owner_id = ?", principal)
	}

	var row models.Run
	err := q.First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, eris.Wrapf(ErrNotFound, "store: run %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "store: get run %s", id)
	}
	run := row.ToRunRecord()
	return &run, nil
}
