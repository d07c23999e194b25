package runs

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"profile-ingest/core/database"
	"profile-ingest/core/reconcile"
	"profile-ingest/feature/profile/store"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupStore(t *testing.T) *store.Store {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	st := store.New(db)
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func TestService_Reap(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, st.InsertRun(ctx, &reconcile.RunRecord{ID: "stuck", Kind: reconcile.RunFull, Status: reconcile.RunRunning, StartedAt: now.Add(-3 * time.Hour), OwnerID: "alice"}))
	require.NoError(t, st.InsertRun(ctx, &reconcile.RunRecord{ID: "live", Kind: reconcile.RunFull, Status: reconcile.RunRunning, StartedAt: now.Add(-time.Minute), OwnerID: "alice"}))

	svc := NewService(st, zap.NewNop())
	svc.now = func() time.Time { return now }

	n, err := svc.Reap(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	stuck, err := svc.Get(ctx, "", "stuck")
	require.NoError(t, err)
	assert.Equal(t, reconcile.RunFailed, stuck.Status)
	assert.Equal(t, ReapMessage, stuck.Error)

	live, err := svc.Get(ctx, "alice", "live")
	require.NoError(t, err)
	assert.Equal(t, reconcile.RunRunning, live.Status)

	// A process that outlived the cutoff cannot overwrite the reaped state.
	recorder := reconcile.NewRunRecorder(st, func() time.Time { return now.Add(-2 * time.Hour) })
	late, err := recorder.Start(ctx, reconcile.RunFull, "alice")
	require.NoError(t, err)

	n, err = svc.Reap(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.ErrorIs(t, late.Finish(ctx), reconcile.ErrInvalidRunTransition)
}

func TestHandler(t *testing.T) {
	st := setupStore(t)
	ctx := context.Background()
	t0 := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, st.InsertRun(ctx, &reconcile.RunRecord{ID: "r1", Kind: reconcile.RunFull, Status: reconcile.RunCompleted, StartedAt: t0, OwnerID: "alice"}))
	require.NoError(t, st.InsertRun(ctx, &reconcile.RunRecord{ID: "r2", Kind: reconcile.RunIncremental, Status: reconcile.RunRunning, StartedAt: t0.Add(time.Hour), OwnerID: "alice"}))
	require.NoError(t, st.InsertRun(ctx, &reconcile.RunRecord{ID: "r3", Kind: reconcile.RunFull, Status: reconcile.RunRunning, StartedAt: t0, OwnerID: "bob"}))

	feature := NewFeature(st, zap.NewNop())
	assert.Equal(t, "runs", feature.Name())

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if p := c.Get("X-Principal"); p != "" {
			c.SetUserContext(reconcile.WithPrincipal(c.UserContext(), p))
		}
		return c.Next()
	})
	require.NoError(t, feature.Load(app))

	get := func(path, principal string) (int, []byte) {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if principal != "" {
			req.Header.Set("X-Principal", principal)
		}
		resp, err := app.Test(req)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, body
	}

	status, body := get("/runs", "alice")
	require.Equal(t, http.StatusOK, status)
	var list []reconcile.RunRecord
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 2)
	assert.Equal(t, "r2", list[0].ID)

	status, body = get("/runs?status=running", "alice")
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)
	assert.Equal(t, "r2", list[0].ID)

	status, _ = get("/runs/r1", "alice")
	assert.Equal(t, http.StatusOK, status)

	status, _ = get("/runs/r3", "alice")
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = get("/runs", "")
	assert.Equal(t, http.StatusUnauthorized, status)
}
