package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the service configuration read from the environment.
type Config struct {
	Port string

	// OCR pipeline
	RegistryFile        string
	FieldTimeout        time.Duration
	ClassifyParallel    bool
	ClassifyConcurrency int
	BarcodeFallback     bool
	MaxUploadBytes      int64

	// Coupon dataset; a JSON file wins over the database table
	CouponDataset string

	// Postgres (optional)
	DatabaseDSN   string
	DBAutoMigrate bool

	// Redis response cache (optional)
	RedisURL  string
	CacheTTL  time.Duration
	CacheSize int

	// Auth; empty JWT secret leaves the API open
	JWTSecret  string
	APIClients map[string]string

	LogLevel      string
	LogFormat     string
	AccessLogFile string
	CORSOrigins   []string
}

// LoadConfig reads ./.env when present, without overriding set variables,
// then builds the configuration from the environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg := &Config{
		Port:                getEnvOrDefault("PORT", "8081"),
		RegistryFile:        getEnvOrDefault("REGISTRY_FILE", ""),
		FieldTimeout:        getEnvAsDurationOrDefault("FIELD_TIMEOUT", 5*time.Second),
		ClassifyParallel:    getEnvAsBoolOrDefault("CLASSIFY_PARALLEL", false),
		ClassifyConcurrency: getEnvAsIntOrDefault("CLASSIFY_CONCURRENCY", 4),
		BarcodeFallback:     getEnvAsBoolOrDefault("BARCODE_FALLBACK", true),
		MaxUploadBytes:      getEnvAsInt64OrDefault("MAX_UPLOAD_BYTES", 5<<20),
		CouponDataset:       getEnvOrDefault("COUPON_DATASET", ""),
		DatabaseDSN:         getEnvOrDefault("DB_DSN", ""),
		DBAutoMigrate:       getEnvAsBoolOrDefault("DB_AUTO_MIGRATE", true),
		RedisURL:            getEnvOrDefault("REDIS_URL", ""),
		CacheTTL:            getEnvAsDurationOrDefault("CACHE_TTL", 10*time.Minute),
		CacheSize:           getEnvAsIntOrDefault("CACHE_SIZE", 1024),
		JWTSecret:           getEnvOrDefault("JWT_SECRET", ""),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		AccessLogFile:       getEnvOrDefault("ACCESS_LOG_FILE", ""),
		CORSOrigins:         splitList(os.Getenv("CORS_ORIGINS")),
	}
	clients, err := parseAPIClients(os.Getenv("API_CLIENTS"))
	if err != nil {
		return nil, err
	}
	cfg.APIClients = clients
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric, got %q", c.Port)
	}
	if c.FieldTimeout < 0 {
		return fmt.Errorf("FIELD_TIMEOUT must not be negative")
	}
	if c.ClassifyConcurrency < 1 {
		return fmt.Errorf("CLASSIFY_CONCURRENCY must be at least 1")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if c.CacheSize < 1 {
		return fmt.Errorf("CACHE_SIZE must be at least 1")
	}
	if len(c.APIClients) > 0 && c.JWTSecret == "" {
		return fmt.Errorf("API_CLIENTS requires JWT_SECRET")
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.LogFormat)
	}
	return nil
}

// parseAPIClients reads "id:bcrypthash,id2:bcrypthash".
func parseAPIClients(s string) (map[string]string, error) {
	out := map[string]string{}
	for _, item := range splitList(s) {
		id, hash, ok := strings.Cut(item, ":")
		if !ok || id == "" || hash == "" {
			return nil, fmt.Errorf("API_CLIENTS entry %q is not id:hash", item)
		}
		out[id] = hash
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return defaultValue
}

func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
