// Package server holds the HTTP server configuration.
//
// While the start command handles the server startup, this package defines the
// listen port, the batch body limit and the API key table used by the auth
// middleware to resolve the acting principal of each request.
//
// # Configuration
//
//	SERVER_API_KEY=secret
//	SERVER_PRINCIPAL=alice
//	SERVER_KEYS=k2:bob,k3:carol
package server
