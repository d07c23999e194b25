package reconcile

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

// RunRecorder creates runs and persists their lifecycle.
type RunRecorder struct {
	store RunStore
	now   Clock
}

// NewRunRecorder creates a RunRecorder backed by store.
func NewRunRecorder(store RunStore, now Clock) *RunRecorder {
	return &RunRecorder{store: store, now: now}
}

// Start persists a new run in RunRunning and returns its handle.
func (r *RunRecorder) Start(ctx context.Context, kind RunKind, principal string) (*Run, error) {
	if principal == "" {
		return nil, ErrAuthenticationRequired
	}
	if !kind.Valid() {
		return nil, eris.Errorf("unknown run kind %q", kind)
	}

	rec := RunRecord{
		ID:        uuid.NewString(),
		Kind:      kind,
		Status:    RunRunning,
		StartedAt: r.now(),
		OwnerID:   principal,
	}
	if err := r.store.InsertRun(ctx, &rec); err != nil {
		return nil, StoreFailure("insert run", err)
	}

	return &Run{store: r.store, now: r.now, rec: rec}, nil
}

// Run is a started run. Progress accumulates in memory; the only store writes
// after Start are the single terminal write of Finish or Fail. A process that
// dies mid-run leaves the row in RunRunning for a reaper to collect.
type Run struct {
	store RunStore
	now   Clock

	mu  sync.Mutex
	rec RunRecord
}

// ID returns the run identity.
func (r *Run) ID() string {
	return r.rec.ID
}

// Principal returns the principal that started the run.
func (r *Run) Principal() string {
	return r.rec.OwnerID
}

// Snapshot returns a copy of the run's current state.
func (r *Run) Snapshot() RunRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rec
}

// RecordProgress adds delta to the in-memory counters. It never touches the store.
func (r *Run) RecordProgress(delta RunStats) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rec.Status != RunRunning {
		return
	}
	r.rec.Stats = r.rec.Stats.Add(delta)
}

// Finish marks the run completed with the accumulated counters.
func (r *Run) Finish(ctx context.Context) error {
	return r.terminate(ctx, RunCompleted, "")
}

// Fail marks the run failed, keeping the counters accumulated so far and the
// message verbatim.
func (r *Run) Fail(ctx context.Context, message string) error {
	return r.terminate(ctx, RunFailed, message)
}

func (r *Run) terminate(ctx context.Context, status RunStatus, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rec.Status != RunRunning {
		return eris.Wrapf(ErrInvalidRunTransition, "run %s is %s, cannot become %s", r.rec.ID, r.rec.Status, status)
	}

	next := r.rec
	completedAt := r.now()
	next.Status = status
	next.CompletedAt = &completedAt
	next.Error = message

	if err := r.store.FinalizeRun(ctx, &next); err != nil {
		if eris.Is(err, ErrInvalidRunTransition) {
			return err
		}
		return StoreFailure("finalize run", err)
	}

	r.rec = next
	return nil
}
