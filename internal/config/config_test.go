package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadDefaults expects the MySQL DSN to be assembled from the DB* variables.
func TestLoadDefaults(t *testing.T) {
	t.Setenv("DBUSER", "dirk")
	t.Setenv("DBPWD", "secret")
	t.Setenv("DBHOST", "db:3306")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("DB_DSN", "")
	t.Setenv("PORT", "")
	t.Setenv("GEOCODER_TIMEOUT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, "dirk:secret@tcp(db:3306)/contacts?parseTime=true", cfg.DBDSN)
	assert.Equal(t, 5*time.Second, cfg.GeocoderTimeout)
	assert.True(t, cfg.GinLogging)
}

// TestLoadSQLite expects DB_PATH to be used as the DSN of the SQLite driver.
func TestLoadSQLite(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_DSN", "")
	t.Setenv("DB_PATH", "/tmp/globe.db")
	t.Setenv("GIN_LOGGING", "off")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/globe.db", cfg.DBDSN)
	assert.False(t, cfg.GinLogging)
}

// TestLoadInvalid expects unsupported drivers and ports to be rejected.
func TestLoadInvalid(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("PORT", "eighty")
	_, err = Load()
	assert.Error(t, err)
}
