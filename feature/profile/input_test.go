package profile_test

import (
	"os"
	"path/filepath"
	"testing"

	"profile-ingest/feature/profile"
	"profile-ingest/feature/profile/normalize"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadBatchFile(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "batch.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[{"id": "p1", "name": "Ada", "connections": "500+"}]`), 0o644))

	yamlPath := filepath.Join(dir, "batch.YML")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`
- id: p1
  name: Ada
  connections: 500+
  experience:
    - company: Analytical Engines
      title: Analyst
`), 0o644))

	fromJSON, err := profile.ReadBatchFile(jsonPath)
	require.NoError(t, err)
	fromYAML, err := profile.ReadBatchFile(yamlPath)
	require.NoError(t, err)
	require.Len(t, fromJSON, 1)
	require.Len(t, fromYAML, 1)

	n := normalize.New()
	a, err := n.Normalize(fromJSON[0])
	require.NoError(t, err)
	b, err := n.Normalize(fromYAML[0])
	require.NoError(t, err)

	assert.Equal(t, "p1", b.IdentityKey)
	assert.Equal(t, a.Connections, b.Connections)
	assert.Equal(t, 500, b.Connections)
	require.Len(t, b.Experience, 1)
	assert.Equal(t, "Analytical Engines", b.Experience[0].Company)
}

func TestReadBatchFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := profile.ReadBatchFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("id: p1\nname: Ada\n"), 0o644))
	_, err = profile.ReadBatchFile(bad)
	assert.Error(t, err)
}
