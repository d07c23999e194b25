package checks

import (
	"context"
	"time"

	"profile-ingest/core/reconcile"
	"profile-ingest/feature/profile/store"
)

// RunLister lists runs across principals.
type RunLister interface {
	ListRuns(ctx context.Context, principal string, filter store.RunFilter) ([]reconcile.RunRecord, error)
}

// RunsReport summarizes runs still in the running state.
type RunsReport struct {
	Running int `json:"running"`
	// Stale counts running runs started before the cutoff; they are reaper candidates.
	Stale       int        `json:"stale"`
	OldestStale *time.Time `json:"oldest_stale,omitempty"`
	Status      string     `json:"status"` // "ok", "stale"
}

// maxInspectedRuns bounds how many running runs one check reads.
const maxInspectedRuns = 1000

// CheckRuns counts running runs and those that started before cutoff.
func CheckRuns(ctx context.Context, lister RunLister, cutoff time.Time) (*RunsReport, error) {
	running, err := lister.ListRuns(ctx, "", store.RunFilter{Status: reconcile.RunRunning, Limit: maxInspectedRuns})
	if err != nil {
		return nil, err
	}

	report := &RunsReport{Running: len(running), Status: "ok"}
	for _, r := range running {
		if !r.StartedAt.Before(cutoff) {
			continue
		}
		report.Stale++
		if report.OldestStale == nil || r.StartedAt.Before(*report.OldestStale) {
			started := r.StartedAt
			report.OldestStale = &started
		}
	}
	if report.Stale > 0 {
		report.Status = "stale"
	}
	return report, nil
}
