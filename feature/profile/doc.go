// Package profile exposes profile ingestion over HTTP.
//
// A batch posted to /profiles/batch is reconciled as one run by the engine in
// core/reconcile, backed by the gorm store in feature/profile/store and the
// default rules of feature/profile/normalize and feature/profile/validate. Reads
// of stored profiles, their change logs and asset versions are scoped to the
// principal resolved by the auth middleware.
//
// # Endpoints
//
//   - POST /profiles/batch?kind=full|incremental
//   - GET /profiles/:key
//   - GET /profiles/:key/changes
//   - GET /profiles/:key/assets?all=true
package profile
