package reconcile

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
)

// Hasher computes content fingerprints for records and assets.
type Hasher struct {
	fetcher  Fetcher
	maxBytes int64
}

// NewHasher creates a Hasher. With a nil fetcher, assets are fingerprinted over
// their source reference instead of their content, which only detects changes
// of the reference itself. maxBytes <= 0 disables the asset size limit.
func NewHasher(fetcher Fetcher, maxBytes int64) *Hasher {
	return &Hasher{fetcher: fetcher, maxBytes: maxBytes}
}

// ContentAddressed reports whether assets are fingerprinted over their content.
func (h *Hasher) ContentAddressed() bool {
	return h.fetcher != nil
}

// Fingerprint returns the hex SHA-256 of the canonical JSON encoding of rec.
// Struct field order is fixed and nil slices are encoded as empty lists, so equal
// field values always produce equal fingerprints.
func (h *Hasher) Fingerprint(rec NormalizedRecord) string {
	// Plain strings, ints and slices of those: Marshal cannot fail.
	b, _ := json.Marshal(canonical(rec))
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// FingerprintAsset returns the fingerprint of the asset behind ref.
// Errors match ErrAssetFetchFailed and are retryable.
func (h *Hasher) FingerprintAsset(ctx context.Context, ref string) (string, error) {
	if h.fetcher == nil {
		sum := sha256.Sum256([]byte("ref:" + ref))
		return hex.EncodeToString(sum[:]), nil
	}

	body, err := h.fetcher.Fetch(ctx, ref)
	if err != nil {
		return "", FetchFailure(ref, err)
	}
	defer body.Close()

	var r io.Reader = body
	if h.maxBytes > 0 {
		r = io.LimitReader(body, h.maxBytes+1)
	}

	digest := sha256.New()
	n, err := io.Copy(digest, r)
	if err != nil {
		return "", FetchFailure(ref, err)
	}
	if h.maxBytes > 0 && n > h.maxBytes {
		return "", FetchFailure(ref, eris.Errorf("asset larger than %d bytes", h.maxBytes))
	}

	return hex.EncodeToString(digest.Sum(nil)), nil
}

func canonical(rec NormalizedRecord) NormalizedRecord {
	if rec.Experience == nil {
		rec.Experience = []Experience{}
	}
	if rec.Education == nil {
		rec.Education = []Education{}
	}
	if rec.Skills == nil {
		rec.Skills = []string{}
	}
	if rec.Assets == nil {
		rec.Assets = []AssetRef{}
	}
	return rec
}
