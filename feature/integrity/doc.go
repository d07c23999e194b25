// Package integrity provides infrastructure health checks for the ingest service.
//
// # Checks Provided
//
//   - Schema: Validates that the connected database carries every column of the profile
//     models, and the declared type of columns tagged with one.
//   - Storage: Checks that the bucket serving s3:// asset references exists.
//   - Runs: Counts runs still running and those older than the reap age, which the
//     runs reaper would fail.
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs all checks.
//   - GET /integrity/schema : Runs the schema check.
//   - GET /integrity/storage : Runs the storage check.
//   - GET /integrity/runs : Runs the stale run check.
package integrity
