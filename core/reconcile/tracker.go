package reconcile

import "strconv"

// TrackedField is a scalar record field whose changes are written to the change log.
type TrackedField struct {
	// Name is the field name recorded in ChangeEntry.Field.
	Name string

	value func(NormalizedRecord) string
}

// Value renders the field of rec as text.
func (f TrackedField) Value(rec NormalizedRecord) string {
	return f.value(rec)
}

// Tracked fields, in the order their changes are emitted. Structured lists
// (experience, education, skills) and assets are deliberately not tracked.
var (
	FieldName        = TrackedField{Name: "name", value: func(r NormalizedRecord) string { return r.Name }}
	FieldHeadline    = TrackedField{Name: "headline", value: func(r NormalizedRecord) string { return r.Headline }}
	FieldLocation    = TrackedField{Name: "location", value: func(r NormalizedRecord) string { return r.Location }}
	FieldSummary     = TrackedField{Name: "summary", value: func(r NormalizedRecord) string { return r.Summary }}
	FieldConnections = TrackedField{Name: "connections", value: func(r NormalizedRecord) string { return strconv.Itoa(r.Connections) }}
)

// DefaultTrackedFields is the tracked field set used by NewChangeTracker.
func DefaultTrackedFields() []TrackedField {
	return []TrackedField{FieldName, FieldHeadline, FieldLocation, FieldSummary, FieldConnections}
}

// FieldChange is a ChangeEntry without its identity, run and timestamp.
type FieldChange struct {
	Field    string `json:"field"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
}

// ChangeTracker computes field-level differences between two records.
type ChangeTracker struct {
	fields []TrackedField
}

// NewChangeTracker creates a tracker over fields, or over DefaultTrackedFields
// when none are given.
func NewChangeTracker(fields ...TrackedField) *ChangeTracker {
	if len(fields) == 0 {
		fields = DefaultTrackedFields()
	}
	return &ChangeTracker{fields: fields}
}

// Diff returns one FieldChange per tracked field whose textual value differs,
// in tracked-field order. It has no side effects.
func (t *ChangeTracker) Diff(old, updated NormalizedRecord) []FieldChange {
	var changes []FieldChange
	for _, f := range t.fields {
		before, after := f.Value(old), f.Value(updated)
		if before == after {
			continue
		}
		changes = append(changes, FieldChange{Field: f.Name, OldValue: before, NewValue: after})
	}
	return changes
}
