package server

import "strings"

// Config holds configuration for the HTTP server.
type Config struct {
	// Port is the port where the server will listen.
	Port string `mapstructure:"port" default:"8080"`
	// ApiKey is the secret key required to access the API.
	ApiKey string `mapstructure:"api_key" default:""`
	// Principal is the owner that requests authenticated with ApiKey act as.
	Principal string `mapstructure:"principal" default:"default"`
	// Keys maps further API keys to principals, as "key:principal" pairs separated by commas.
	Keys string `mapstructure:"keys" default:""`
	// BodyLimitMB caps the size of a batch upload.
	BodyLimitMB int `mapstructure:"body_limit_mb" default:"16"`
}

// Principals returns the API key to principal table described by the configuration.
// Malformed pairs are skipped.
func (c Config) Principals() map[string]string {
	table := make(map[string]string)
	if c.ApiKey != "" && c.Principal != "" {
		table[c.ApiKey] = c.Principal
	}
	for _, pair := range strings.Split(c.Keys, ",") {
		key, principal, ok := strings.Cut(strings.TrimSpace(pair), ":")
		if !ok || key == "" || principal == "" {
			continue
		}
		table[key] = principal
	}
	return table
}
