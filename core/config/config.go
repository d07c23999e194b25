package config

import (
	"reflect"
	"strings"

	"profile-ingest/core/database"
	"profile-ingest/core/fetcher"
	"profile-ingest/core/logger"
	"profile-ingest/core/server"
	"profile-ingest/core/storage"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server and its API keys.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the object storage serving s3:// assets.
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the database connection.
	Database database.Config `mapstructure:"database"`
	// Fetch holds configuration for asset retrieval.
	Fetch fetcher.Config `mapstructure:"fetch"`
	// Ingest holds defaults for command line ingestion.
	Ingest IngestConfig `mapstructure:"ingest"`
}

// IngestConfig holds defaults for the ingest command.
type IngestConfig struct {
	// Principal is the owner that command line runs act as.
	Principal string `mapstructure:"principal" default:""`
	// Kind is the run kind used when none is given (full, incremental).
	Kind string `mapstructure:"kind" default:"incremental"`
	// Parallel is how many input files are ingested at once.
	Parallel int `mapstructure:"parallel" default:"4"`
	// ReapAfterMinutes is the default age after which running runs are reaped.
	ReapAfterMinutes int `mapstructure:"reap_after_minutes" default:"60"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. SERVER_PORT -> server.port)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &config, nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
