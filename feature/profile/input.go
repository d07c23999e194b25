package profile

import (
	"os"
	"path/filepath"
	"strings"

	"profile-ingest/core/reconcile"

	"github.com/goccy/go-yaml"
	"github.com/rotisserie/eris"
)

// DecodeYAML decodes a YAML sequence of raw records.
func DecodeYAML(body []byte) ([]reconcile.RawRecord, error) {
	var records []reconcile.RawRecord
	if err := yaml.Unmarshal(body, &records); err != nil {
		return nil, eris.Wrap(err, "profile: batch must be a YAML sequence of mappings")
	}
	return records, nil
}

// ReadBatchFile reads a batch from path. Files ending in .yaml or .yml are decoded
// as YAML, everything else as JSON.
func ReadBatchFile(path string) ([]reconcile.RawRecord, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "profile: read batch %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return DecodeYAML(body)
	default:
		return DecodeJSON(body)
	}
}
