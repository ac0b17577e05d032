package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// App
	Port       string
	Env        string
	GinLogging bool

	// Database
	DBDriver string
	DBDSN    string

	// Geocoding
	GeocoderAPIKey    string
	GeocoderUserAgent string
	GeocoderTimeout   time.Duration
}

// Load reads configuration from environment variables. A .env file in the working directory is
// loaded first if there is one.
//
// Usage example on the command line:
// > DBHOST=localhost DBUSER=dirk DBPWD=bullo92 PORT=8080 GEOCODER_API_KEY=... go run main.go
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		Env:               getEnv("ENV", "development"),
		GinLogging:        !strings.EqualFold(os.Getenv("GIN_LOGGING"), "off"),
		DBDriver:          getEnv("DB_DRIVER", "mysql"),
		DBDSN:             os.Getenv("DB_DSN"),
		GeocoderAPIKey:    os.Getenv("GEOCODER_API_KEY"),
		GeocoderUserAgent: getEnv("GEOCODER_USER_AGENT", "contacts-globe/1.0"),
		GeocoderTimeout:   getEnvDuration("GEOCODER_TIMEOUT", 5*time.Second),
	}
	if cfg.DBDSN == "" {
		cfg.DBDSN = defaultDSN(cfg.DBDriver)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("could not parse PORT %q", c.Port)
	}
	if c.DBDriver != "mysql" && c.DBDriver != "sqlite" {
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.DBDSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if c.GeocoderTimeout <= 0 {
		return fmt.Errorf("GEOCODER_TIMEOUT must be positive")
	}
	return nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// defaultDSN builds the data source name from the DBUSER, DBPWD, DBHOST and DBNAME variables
// for MySQL, or points at a local file for SQLite.
func defaultDSN(driver string) string {
	if driver == "sqlite" {
		return getEnv("DB_PATH", "contacts.db")
	}
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true",
		os.Getenv("DBUSER"), os.Getenv("DBPWD"), getEnv("DBHOST", "localhost:3306"), getEnv("DBNAME", "contacts"))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
