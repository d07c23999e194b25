// Package normalize turns scraped profile payloads into reconcile.NormalizedRecord.
//
// Payloads come from JSON or YAML batches, so values arrive as strings, float64s,
// json.Numbers, []any and map[string]any (or map[any]any from YAML). Field aliases
// such as public_identifier or first_name/last_name are resolved here so that the
// fingerprint only ever sees one canonical shape.
package normalize
