// Package fetcher retrieves profile asset bytes for content fingerprinting.
//
// HTTPFetcher serves http and https references; StorageFetcher serves
// s3://bucket/key references through core/storage. A Router picks one by URL
// scheme, and Dedupe collapses concurrent downloads of one reference with
// singleflight.
//
// In the default "reference" mode New returns no fetcher at all and assets are
// fingerprinted by their reference string.
package fetcher
