// Package storage provides read access to an S3 compatible object store.
//
// It wraps the MinIO Go client behind the small Client interface the asset fetcher
// needs, so profile images referenced as s3://bucket/key can be hashed by content.
// Both AWS S3 and self-hosted MinIO instances are supported.
//
// The Client interface makes storage interactions easy to mock in unit tests
// (see core/storage/mocks).
//
// # Usage
//
//	client, err := storage.NewClient(config)
//	exists, err := client.BucketExists(ctx, "profile-assets")
package storage
