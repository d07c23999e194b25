package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialector(t *testing.T) {
	tests := []struct {
		name    string
		driver  string
		want    string
		wantErr bool
	}{
		{"Default is mysql", "", "mysql", false},
		{"MySQL", DriverMySQL, "mysql", false},
		{"Postgres", DriverPostgres, "postgres", false},
		{"SQLite", DriverSQLite, "sqlite", false},
		{"Unknown", "oracle", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Dialector(Config{Driver: tt.driver, Host: "localhost", Port: 1, Name: "profiles"})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Name())
		})
	}
}

func TestConnect(t *testing.T) {
	t.Run("SQLite in memory", func(t *testing.T) {
		db, err := Connect(Config{Driver: DriverSQLite, Name: ":memory:"})
		require.NoError(t, err)

		var one int
		require.NoError(t, db.Raw("SELECT 1").Scan(&one).Error)
		assert.Equal(t, 1, one)
	})

	t.Run("Invalid Connection", func(t *testing.T) {
		cfg := Config{
			Driver:         DriverMySQL,
			Host:           "localhost",
			Port:           9999, // Unused port
			User:           "root",
			Password:       "wrongpassword",
			Name:           "profiles",
			TimeoutSeconds: 1,
		}

		db, err := Connect(cfg)
		assert.Error(t, err)
		assert.Nil(t, db)
	})

	t.Run("Unsupported driver", func(t *testing.T) {
		db, err := Connect(Config{Driver: "oracle"})
		assert.Error(t, err)
		assert.Nil(t, db)
	})
}
