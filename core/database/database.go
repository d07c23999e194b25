package database

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Dialector returns the gorm dialector for the configured driver.
func Dialector(cfg Config) (gorm.Dialector, error) {
	timeout := cfg.timeout()

	switch cfg.Driver {
	case DriverMySQL, "":
		// Special characters in the password must be URL encoded.
		userInfo := url.UserPassword(cfg.User, cfg.Password).String()
		dsn := fmt.Sprintf("%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC&timeout=%ds&readTimeout=%ds&writeTimeout=%ds",
			userInfo, cfg.Host, cfg.Port, cfg.Name, timeout, timeout, timeout)
		return mysql.Open(dsn), nil

	case DriverPostgres:
		sslMode := cfg.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s connect_timeout=%d TimeZone=UTC",
			cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, sslMode, timeout)
		return postgres.Open(dsn), nil

	case DriverSQLite:
		name := cfg.Name
		if name == "" {
			name = ":memory:"
		}
		return sqlite.Open(name), nil

	default:
		return nil, eris.Errorf("database: unsupported driver %q", cfg.Driver)
	}
}

// Connect opens the configured database and verifies it with a ping.
func Connect(cfg Config) (*gorm.DB, error) {
	dialector, err := Dialector(cfg)
	if err != nil {
		return nil, err
	}

	return Open(dialector, cfg)
}

// Open opens a gorm connection over dialector and applies the pool settings for
// cfg.Driver. Tests pass a sqlmock-backed dialector here.
func Open(dialector gorm.Dialector, cfg Config) (*gorm.DB, error) {
	// Suppress GORM logging; callers log failures through zap.
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		// Unique violations surface as gorm.ErrDuplicatedKey on every driver.
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}

	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, eris.Wrap(err, "database: failed to connect")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, eris.Wrap(err, "database: failed to get sql.DB")
	}

	if cfg.Driver == DriverSQLite {
		// An in-memory sqlite database exists per connection.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetMaxOpenConns(100)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.timeout())*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, eris.Wrap(err, "database: failed to ping")
	}

	return db, nil
}

func (c Config) timeout() int {
	if c.TimeoutSeconds <= 0 {
		return 30
	}
	return c.TimeoutSeconds
}
