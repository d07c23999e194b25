// Package reconcile provides the batch reconciliation engine for externally sourced
// profile records.
//
// Each incoming record is validated, normalized, fingerprinted and compared to the
// stored version of the same identity key. The engine classifies it as added,
// updated or unchanged, writes an append-only change log for tracked scalar
// fields, and versions referenced image assets by content hash.
//
// # Architecture
//
// The package consists of five components:
//
// 1. Hasher: deterministic SHA-256 fingerprints of normalized records and of asset
//    content (or of the asset reference when no Fetcher is configured).
//
// 2. ChangeTracker: pure field-level diff over the tracked field set
//    (name, headline, location, summary, connections), emitted in that order.
//
// 3. AssetReconciler: keeps at most one current AssetVersion per
//    (profile, category) and creates a new version when the fingerprint changes.
//
// 4. RunRecorder: run lifecycle (running -> completed | failed) with in-memory
//    progress and a single terminal store write.
//
// 5. Engine: drives the per-record algorithm and the batch error policy.
//
// Persistence, validation rules, normalization and principal resolution are
// collaborators passed to NewEngine; see Store, Validator, Normalizer and
// PrincipalProvider.
//
// # Concurrency
//
// Records of a batch are processed sequentially. Engines that share a KeyLocker
// never interleave the read-modify-write of the same identity key, and stores
// reject stale writes with ErrConcurrentUpdate (optimistic Version token on
// records, is-current guard on asset promotion).
//
// # Errors
//
// Validation problems are findings, never errors. Asset failures are counted per
// asset and never abort a record. Every other error aborts the batch: RunBatch
// marks the run failed with the error message and the counters accumulated up to
// the failing record.
//
// # Usage Example
//
//	engine, err := reconcile.NewEngine(reconcile.Deps{
//	    Store:      store,
//	    Validator:  validate.New(),
//	    Normalizer: normalize.New(),
//	    Principals: reconcile.StaticPrincipal("importer"),
//	    Logger:     logger,
//	})
//
//	run, err := engine.RunBatch(ctx, reconcile.RunIncremental, records)
package reconcile
