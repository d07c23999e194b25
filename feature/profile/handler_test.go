package profile_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"profile-ingest/core/database"
	"profile-ingest/core/middleware/auth"
	"profile-ingest/core/reconcile"
	"profile-ingest/feature/profile"
	"profile-ingest/feature/profile/store"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupApp(t *testing.T) (*fiber.App, *store.Store) {
	t.Helper()

	db, err := database.Connect(database.Config{Driver: database.DriverSQLite, Name: ":memory:"})
	require.NoError(t, err)
	st := store.New(db)
	require.NoError(t, st.Migrate(context.Background()))

	logger := zap.NewNop()
	engine, err := profile.NewEngine(st, reconcile.ContextPrincipal{}, logger, profile.EngineOptions{})
	require.NoError(t, err)

	feature := profile.NewFeature(engine, st, logger)
	assert.Equal(t, "profiles", feature.Name())
	assert.True(t, feature.IsEnabled())

	app := fiber.New()
	app.Use(auth.New(auth.Config{Principals: map[string]string{"k-alice": "alice", "k-bob": "bob"}}))
	require.NoError(t, feature.Load(app))
	return app, st
}

func do(t *testing.T, app *fiber.App, method, path, key, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(auth.Header, key)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func TestProfileAPI_ThreeBatches(t *testing.T) {
	app, _ := setupApp(t)

	first := `[
		{"id": "p1", "name": "Ada", "headline": "Analyst", "profile_picture_url": "https://img/p1.png"},
		{"id": "p2", "name": "Charles", "headline": "Engineer"}
	]`
	status, body := do(t, app, http.MethodPost, "/profiles/batch?kind=full", "k-alice", first)
	require.Equal(t, http.StatusOK, status, string(body))

	var run reconcile.RunRecord
	require.NoError(t, json.Unmarshal(body, &run))
	assert.Equal(t, reconcile.RunCompleted, run.Status)
	assert.Equal(t, reconcile.RunFull, run.Kind)
	assert.Equal(t, "alice", run.OwnerID)
	assert.Equal(t, 2, run.Stats.Added)
	assert.Equal(t, 1, run.Stats.ImagesProcessed)

	second := `[{"id": "p1", "name": "Ada", "headline": "Countess", "profile_picture_url": "https://img/p1.png"}]`
	status, body = do(t, app, http.MethodPost, "/profiles/batch", "k-alice", second)
	require.Equal(t, http.StatusOK, status, string(body))
	require.NoError(t, json.Unmarshal(body, &run))
	assert.Equal(t, reconcile.RunIncremental, run.Kind)
	assert.Equal(t, reconcile.RunStats{Processed: 1, Updated: 1, ImagesProcessed: 1, ChangesRecorded: 1}, run.Stats)

	status, body = do(t, app, http.MethodPost, "/profiles/batch", "k-alice", second)
	require.Equal(t, http.StatusOK, status, string(body))
	require.NoError(t, json.Unmarshal(body, &run))
	assert.Equal(t, reconcile.RunStats{Processed: 1, Unchanged: 1}, run.Stats)

	status, body = do(t, app, http.MethodGet, "/profiles/p1", "k-alice", "")
	require.Equal(t, http.StatusOK, status)
	var rec reconcile.StoredRecord
	require.NoError(t, json.Unmarshal(body, &rec))
	assert.Equal(t, "Countess", rec.Headline)
	assert.Equal(t, int64(3), rec.Version)

	status, body = do(t, app, http.MethodGet, "/profiles/p1/changes", "k-alice", "")
	require.Equal(t, http.StatusOK, status)
	var changes []reconcile.ChangeEntry
	require.NoError(t, json.Unmarshal(body, &changes))
	require.Len(t, changes, 1)
	assert.Equal(t, "headline", changes[0].Field)
	assert.Equal(t, "Analyst", changes[0].OldValue)
	assert.Equal(t, "Countess", changes[0].NewValue)

	status, body = do(t, app, http.MethodGet, "/profiles/p1/assets?all=true", "k-alice", "")
	require.Equal(t, http.StatusOK, status)
	var assets []reconcile.AssetVersion
	require.NoError(t, json.Unmarshal(body, &assets))
	require.Len(t, assets, 1, "same asset across three runs keeps one version")
	assert.True(t, assets[0].IsCurrent)
}

func TestProfileAPI_OwnerScopedReads(t *testing.T) {
	app, _ := setupApp(t)

	status, _ := do(t, app, http.MethodPost, "/profiles/batch", "k-alice", `[{"id": "p1", "name": "Ada"}]`)
	require.Equal(t, http.StatusOK, status)

	for _, path := range []string{"/profiles/p1", "/profiles/p1/changes", "/profiles/p1/assets"} {
		status, _ = do(t, app, http.MethodGet, path, "k-bob", "")
		assert.Equal(t, http.StatusNotFound, status, path)
	}

	status, _ = do(t, app, http.MethodGet, "/profiles/p1", "", "")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestProfileAPI_ForeignUpdateFailsRun(t *testing.T) {
	app, st := setupApp(t)

	status, _ := do(t, app, http.MethodPost, "/profiles/batch", "k-alice", `[{"id": "p1", "name": "Ada"}]`)
	require.Equal(t, http.StatusOK, status)

	status, body := do(t, app, http.MethodPost, "/profiles/batch", "k-bob", `[{"id": "p2", "name": "Bob"}, {"id": "p1", "name": "Hijack"}]`)
	require.Equal(t, http.StatusInternalServerError, status)

	var failure profile.BatchFailure
	require.NoError(t, json.Unmarshal(body, &failure))
	assert.Equal(t, reconcile.RunFailed, failure.Run.Status)
	assert.Equal(t, 1, failure.Run.Stats.Added)
	assert.Contains(t, failure.Error, "update record p1")
	assert.Equal(t, failure.Error, failure.Run.Error)

	stored, err := st.GetRun(context.Background(), "bob", failure.Run.ID)
	require.NoError(t, err)
	assert.Equal(t, reconcile.RunFailed, stored.Status)
	assert.Equal(t, 1, stored.Stats.Processed)
}

func TestProfileAPI_BadRequests(t *testing.T) {
	app, _ := setupApp(t)

	status, _ := do(t, app, http.MethodPost, "/profiles/batch?kind=weekly", "k-alice", `[]`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = do(t, app, http.MethodPost, "/profiles/batch", "k-alice", `{"id": "p1"}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body := do(t, app, http.MethodPost, "/profiles/batch", "k-alice", `[{"id": "p1", "name": "A"}, {"name": "anonymous"}]`)
	require.Equal(t, http.StatusUnprocessableEntity, status)
	var failure profile.BatchFailure
	require.NoError(t, json.Unmarshal(body, &failure))
	assert.Equal(t, 1, failure.Run.Stats.Processed)
}

func TestDecodeJSON_KeepsLargeIdentifiers(t *testing.T) {
	records, err := profile.DecodeJSON([]byte(`[{"id": 12345678901234567890, "connections": 500}]`))
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, json.Number("12345678901234567890"), records[0]["id"])
}

func TestProfileAPI_SameCategoryTwiceKeepsOneVersion(t *testing.T) {
	app, _ := setupApp(t)

	for i, headline := range []string{"Analyst", "Countess", "Author"} {
		batch := `[{"id": "p1", "name": "Ada", "headline": "` + headline + `", "images": [
			{"url": "https://img/a.png", "category": "profile_photo"},
			{"url": "https://img/b.png", "category": "profile_photo"}
		]}]`
		status, body := do(t, app, http.MethodPost, "/profiles/batch", "k-alice", batch)
		require.Equal(t, http.StatusOK, status, string(body))

		var run reconcile.RunRecord
		require.NoError(t, json.Unmarshal(body, &run))
		assert.Equal(t, 1, run.Stats.ImagesProcessed, "batch %d", i)

		status, body = do(t, app, http.MethodGet, "/profiles/p1/assets?all=true", "k-alice", "")
		require.Equal(t, http.StatusOK, status)
		var assets []reconcile.AssetVersion
		require.NoError(t, json.Unmarshal(body, &assets))
		require.Len(t, assets, 1, "batch %d", i)
		assert.Equal(t, "https://img/a.png", assets[0].SourceRef)
	}
}
