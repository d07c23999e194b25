// Package config provides configuration management for the profile ingest service.
//
// It utilizes Viper for loading configuration from environment variables and an
// optional .env file. Defaults come from the `default` struct tags of each section.
//
// # Configuration Structure
//
//   - Server: HTTP port, body limit and the API key to principal table
//   - Database: driver (mysql, postgres, sqlite) and connection details
//   - Storage: S3/MinIO credentials for s3:// asset references
//   - Fetch: asset fingerprint mode, download timeout and size limit
//   - Ingest: command line defaults (principal, run kind, parallelism)
//   - Log: logging level and format
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Port)
package config
