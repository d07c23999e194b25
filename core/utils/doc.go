// Package utils provides loose type conversion helpers for decoded JSON and YAML
// values, used when normalizing raw profile records.
package utils
