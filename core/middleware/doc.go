// Package middleware contains HTTP middleware for the Fiber application.
//
// # Components
//
//   - auth: resolves the X-API-Key header to a principal and stores it in the
//     request's user context, where the reconciliation engine reads it.
//   - rayid: assigns every request a unique Request ID (RayID), injecting it into
//     the fiber locals and response headers for tracing.
//
// rayid is registered first so that even rejected requests carry an id.
package middleware
