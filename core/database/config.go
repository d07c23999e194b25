package database

// Config holds configuration for the database connection.
type Config struct {
	// Host is the database host.
	Host string `mapstructure:"host" default:"localhost"`
	// Port is the database port.
	Port int `mapstructure:"port" default:"3306"`
	// User is the database user.
	User string `mapstructure:"user" default:"root"`
	// Password is the database password.
	Password string `mapstructure:"password" default:""`
	// Name is the database name. For sqlite it is the file path or ":memory:".
	Name string `mapstructure:"name" default:"profiles"`
	// Driver is the database driver (mysql, postgres, sqlite).
	Driver string `mapstructure:"driver" default:"mysql"`
	// SSLMode is passed to postgres connections.
	SSLMode string `mapstructure:"ssl_mode" default:"disable"`
	// TimeoutSeconds bounds connection setup, I/O and the initial ping.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
}

const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)
