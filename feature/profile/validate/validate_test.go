package validate

import (
	"strings"
	"testing"

	"profile-ingest/core/reconcile"

	"github.com/stretchr/testify/assert"
)

func fields(findings []reconcile.Finding, sev reconcile.Severity) []string {
	var out []string
	for _, f := range findings {
		if f.Severity == sev {
			out = append(out, f.Field)
		}
	}
	return out
}

func TestValidate_CleanRecord(t *testing.T) {
	v := New()
	findings := v.Validate(reconcile.RawRecord{
		"id":                  "p1",
		"name":                "Ada",
		"headline":            "Analyst",
		"connections":         "500+",
		"profile_picture_url": "https://img/p.png",
	})

	assert.Empty(t, findings)
	assert.Equal(t, reconcile.StatusValid, v.Classify(findings))
}

func TestValidate_Rules(t *testing.T) {
	tests := []struct {
		name     string
		raw      reconcile.RawRecord
		errors   []string
		warnings []string
		status   reconcile.ValidationStatus
	}{
		{
			name:   "missing identity and name",
			raw:    reconcile.RawRecord{"headline": "H", "profile_picture_url": "https://img/p.png"},
			errors: []string{"identity_key", "name"},
			status: reconcile.StatusInvalid,
		},
		{
			name:     "empty headline",
			raw:      reconcile.RawRecord{"id": "p1", "name": "A", "profile_picture_url": "https://img/p.png"},
			warnings: []string{"headline"},
			status:   reconcile.StatusWarning,
		},
		{
			name:   "negative connections",
			raw:    reconcile.RawRecord{"id": "p1", "name": "A", "headline": "H", "connections": float64(-3), "profile_picture_url": "https://img/p.png"},
			errors: []string{"connections"},
			status: reconcile.StatusInvalid,
		},
		{
			name:   "word connections",
			raw:    reconcile.RawRecord{"id": "p1", "name": "A", "headline": "H", "connections": "lots", "profile_picture_url": "https://img/p.png"},
			errors: []string{"connections"},
			status: reconcile.StatusInvalid,
		},
		{
			name:     "skills not a list",
			raw:      reconcile.RawRecord{"id": "p1", "name": "A", "headline": "H", "skills": "go, sql", "profile_picture_url": "https://img/p.png"},
			warnings: []string{"skills"},
			status:   reconcile.StatusWarning,
		},
		{
			name: "bad asset references",
			raw: reconcile.RawRecord{"id": "p1", "name": "A", "headline": "H",
				"background_picture_url": "ftp://img/bg.png",
				"images":                 []any{map[string]any{"url": "https://img/x.png", "category": "hologram"}},
			},
			warnings: []string{"background", "images"},
			status:   reconcile.StatusWarning,
		},
		{
			name: "second reference in one category",
			raw: reconcile.RawRecord{"id": "p1", "name": "A", "headline": "H",
				"profile_picture_url": "https://img/p.png",
				"images": []any{
					map[string]any{"url": "https://img/p.png", "category": "profile_photo"},
					map[string]any{"url": "https://img/q.png", "category": "profile_photo"},
				},
			},
			warnings: []string{"profile_photo"},
			status:   reconcile.StatusWarning,
		},
		{
			name:     "long name",
			raw:      reconcile.RawRecord{"id": "p1", "name": strings.Repeat("a", 300), "headline": "H", "profile_picture_url": "https://img/p.png"},
			warnings: []string{"name"},
			status:   reconcile.StatusWarning,
		},
		{
			name:     "long about",
			raw:      reconcile.RawRecord{"id": "p1", "name": "A", "headline": "H", "about": strings.Repeat("é", 5000), "profile_picture_url": "https://img/p.png"},
			warnings: []string{"summary"},
			status:   reconcile.StatusWarning,
		},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := v.Validate(tt.raw)
			assert.Equal(t, tt.errors, fields(findings, reconcile.SeverityError))
			assert.Equal(t, tt.warnings, fields(findings, reconcile.SeverityWarning))
			assert.Equal(t, tt.status, v.Classify(findings))
		})
	}
}

func TestValidate_InfoDoesNotChangeStatus(t *testing.T) {
	v := New()
	findings := v.Validate(reconcile.RawRecord{"id": "p1", "name": "A", "headline": "H"})

	assert.Equal(t, []string{"images"}, fields(findings, reconcile.SeverityInfo))
	assert.Equal(t, reconcile.StatusValid, v.Classify(findings))
	assert.False(t, reconcile.HasErrors(findings))
}
