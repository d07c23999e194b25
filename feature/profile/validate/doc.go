// Package validate holds the default validation rules for profile payloads.
//
// Findings never stop ingestion. A record with error findings is stored with the
// invalid status and counted as a validation failure of its run; warnings only
// flag it.
package validate
