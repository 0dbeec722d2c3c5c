package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process level configuration.
type Server struct {
	Addr          string
	Environment   string
	JWTSigningKey string

	// DatabaseURL switches the record and audit stores from the in-memory
	// backend to Postgres when set.
	DatabaseURL string

	// DirectoryBaseURL and DirectoryToken configure the downstream
	// identity/directory service used by provisioning.
	DirectoryBaseURL string
	DirectoryToken   string

	// ScanFlushWindow is how long the scan buffer waits after the last
	// keystroke before treating the burst as one complete scan.
	ScanFlushWindow time.Duration
	// ScanMinLength is the minimum accepted scan code length.
	ScanMinLength int

	// DefaultPageSize is used when a list request does not specify one.
	DefaultPageSize int
}

const (
	defaultScanFlushWindow = 300 * time.Millisecond
	defaultScanMinLength   = 5
	defaultPageSize        = 10
)

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:             getEnv("INDUCT_ADDR", ":8080"),
		Environment:      getEnv("INDUCT_ENV", "development"),
		JWTSigningKey:    getEnv("INDUCT_JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		DatabaseURL:      os.Getenv("INDUCT_DATABASE_URL"),
		DirectoryBaseURL: os.Getenv("INDUCT_DIRECTORY_URL"),
		DirectoryToken:   os.Getenv("INDUCT_DIRECTORY_TOKEN"),
		ScanFlushWindow:  defaultScanFlushWindow,
		ScanMinLength:    defaultScanMinLength,
		DefaultPageSize:  defaultPageSize,
	}

	if v := os.Getenv("INDUCT_SCAN_FLUSH_WINDOW"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.ScanFlushWindow = d
		}
	}
	if v := os.Getenv("INDUCT_SCAN_MIN_LENGTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ScanMinLength = n
		}
	}
	if v := os.Getenv("INDUCT_PAGE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.DefaultPageSize = n
		}
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
