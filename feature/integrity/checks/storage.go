package checks

import (
	"context"

	"profile-ingest/core/storage"
)

// StorageReport is the result of the asset bucket check.
type StorageReport struct {
	Bucket string `json:"bucket"`
	Status string `json:"status"` // "ok", "missing", "error", "disabled"
	Error  string `json:"error,omitempty"`
}

// CheckStorage reports whether the bucket serving s3:// assets is reachable.
// A nil client means content fetching from object storage is disabled.
func CheckStorage(ctx context.Context, client storage.Client, bucket string) StorageReport {
	report := StorageReport{Bucket: bucket}
	if client == nil {
		report.Status = "disabled"
		return report
	}

	exists, err := client.BucketExists(ctx, bucket)
	switch {
	case err != nil:
		report.Status = "error"
		report.Error = err.Error()
	case !exists:
		report.Status = "missing"
	default:
		report.Status = "ok"
	}
	return report
}
