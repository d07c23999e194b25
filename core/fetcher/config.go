package fetcher

// Config holds configuration for asset retrieval.
type Config struct {
	// Mode selects how assets are fingerprinted: "reference" hashes the reference
	// string only, "content" downloads the asset and hashes its bytes.
	Mode string `mapstructure:"mode" default:"reference"`
	// TimeoutSeconds bounds a single HTTP download.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"15"`
	// MaxAssetBytes rejects assets larger than this many bytes.
	MaxAssetBytes int64 `mapstructure:"max_asset_bytes" default:"10485760"`
	// UserAgent is sent with HTTP downloads.
	UserAgent string `mapstructure:"user_agent" default:"profile-ingest/1.0"`
	// RatePerSecond caps HTTP downloads per host; zero means unlimited.
	RatePerSecond float64 `mapstructure:"rate_per_second" default:"0"`
	// RateBurst is the number of downloads allowed at once per host.
	RateBurst int `mapstructure:"rate_burst" default:"1"`
}

const (
	ModeReference = "reference"
	ModeContent   = "content"
)
