package reconcile

import (
	"context"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// AssetReconciler keeps at most one current AssetVersion per (profile, category),
// creating a new version whenever the fingerprint of the source changes.
type AssetReconciler struct {
	store  AssetStore
	hasher *Hasher
	locks  *KeyLocker
	now    Clock
}

// NewAssetReconciler creates an AssetReconciler. locks may be shared with other
// reconcilers in the same process.
func NewAssetReconciler(store AssetStore, hasher *Hasher, locks *KeyLocker, now Clock) *AssetReconciler {
	return &AssetReconciler{store: store, hasher: hasher, locks: locks, now: now}
}

// Reconcile fingerprints sourceRef and records a new current version for
// (profileKey, category) if it differs from the current one.
//
// The lookup-compare-promote sequence runs under a per-(profile, category) lock,
// and PromoteAsset only flips a version that is still current, so two callers can
// never both leave a current version behind.
func (a *AssetReconciler) Reconcile(ctx context.Context, profileKey string, category AssetCategory, sourceRef string) (AssetOutcome, error) {
	if !category.Valid() {
		return AssetFailed, eris.Errorf("unknown asset category %q", category)
	}

	fingerprint, err := a.hasher.FingerprintAsset(ctx, sourceRef)
	if err != nil {
		return AssetFailed, err
	}

	unlock := a.locks.Lock(assetLockKey(profileKey, category))
	defer unlock()

	current, err := a.store.CurrentAsset(ctx, profileKey, category)
	if err != nil {
		return AssetFailed, StoreFailure("lookup current asset", err)
	}
	if current != nil && current.Fingerprint == fingerprint {
		return AssetUnchanged, nil
	}

	next := &AssetVersion{
		ID:          uuid.NewString(),
		ProfileKey:  profileKey,
		Category:    category,
		SourceRef:   sourceRef,
		Fingerprint: fingerprint,
		IsCurrent:   true,
		CreatedAt:   a.now(),
	}

	var previousID string
	if current != nil {
		previousID = current.ID
	}
	if err := a.store.PromoteAsset(ctx, previousID, next); err != nil {
		return AssetFailed, StoreFailure("promote asset", err)
	}

	if current == nil {
		return AssetCreated, nil
	}
	return AssetVersioned, nil
}

func assetLockKey(profileKey string, category AssetCategory) string {
	return "asset:" + profileKey + "|" + string(category)
}
