package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries all runtime settings. It is built once at process start and
// handed to each component constructor; nothing else reads the environment.
type Config struct {
	AppHost string
	AppPort string

	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	CacheHost string
	CachePort string

	// External brevet catalog (ACP API)
	CatalogBaseURL string
	CatalogToken   string
	CatalogYear    int

	// Geocoding service (Nominatim-compatible)
	GeocoderBaseURL   string
	GeocoderUserAgent string
	GeocodeRateDelay  time.Duration
	GeocodeMaxRetries int

	// Geocoding backlog drain
	DrainSliceLimit int
	DrainMaxDepth   int

	JobQueueWorkers int
}

// ErrMissingCatalogToken is returned by Validate when no catalog API token is
// configured. The sync pipeline refuses to start a run without one.
var ErrMissingCatalogToken = errors.New("CATALOG_API_TOKEN is not configured")

// Load reads the .env file (if present) and builds the Config from the
// environment. A missing .env file is not an error; Docker and CI set plain
// environment variables instead.
func Load() *Config {
	envFiles := []string{
		".env",
		"../../.env", // from cmd/* to project root
	}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	return &Config{
		AppHost: getEnv("APP_HOST", "localhost"),
		AppPort: getEnv("APP_PORT", "4000"),

		DBUser:     getEnv("DB_USER", ""),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBHost:     getEnv("DB_HOST", "127.0.0.1"),
		DBPort:     getEnv("DB_PORT", "3306"),
		DBName:     getEnv("DB_NAME", ""),

		CacheHost: getEnv("CACHE_HOST", "localhost"),
		CachePort: getEnv("CACHE_PORT", "6379"),

		CatalogBaseURL: getEnv("CATALOG_BASE_URL", "https://myaccount.audax-club-parisien.com"),
		CatalogToken:   getEnv("CATALOG_API_TOKEN", ""),
		CatalogYear:    getEnvInt("CATALOG_YEAR", 2026),

		GeocoderBaseURL:   getEnv("GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org"),
		GeocoderUserAgent: getEnv("GEOCODER_USER_AGENT", "BrevetSync/1.0 (contact: support@brm-map.com)"),
		GeocodeRateDelay:  getEnvDuration("GEOCODE_RATE_DELAY", 1200*time.Millisecond),
		GeocodeMaxRetries: getEnvInt("GEOCODE_MAX_RETRIES", 3),

		DrainSliceLimit: getEnvInt("DRAIN_SLICE_LIMIT", 30),
		DrainMaxDepth:   getEnvInt("DRAIN_MAX_DEPTH", 100),

		JobQueueWorkers: getEnvInt("JOB_QUEUE_WORKERS", 3),
	}
}

// Validate checks settings that must be present before any network call.
func (c *Config) Validate() error {
	if c.CatalogToken == "" {
		return ErrMissingCatalogToken
	}
	return nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return def
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return def
}
