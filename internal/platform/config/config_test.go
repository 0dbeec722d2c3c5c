package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg := FromEnv()
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 300*time.Millisecond, cfg.ScanFlushWindow)
	assert.Equal(t, 5, cfg.ScanMinLength)
	assert.Equal(t, 10, cfg.DefaultPageSize)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("INDUCT_ADDR", ":9999")
	t.Setenv("INDUCT_SCAN_FLUSH_WINDOW", "150ms")
	t.Setenv("INDUCT_SCAN_MIN_LENGTH", "8")
	t.Setenv("INDUCT_PAGE_SIZE", "25")

	cfg := FromEnv()
	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, 150*time.Millisecond, cfg.ScanFlushWindow)
	assert.Equal(t, 8, cfg.ScanMinLength)
	assert.Equal(t, 25, cfg.DefaultPageSize)
}

func TestFromEnvIgnoresInvalidValues(t *testing.T) {
	t.Setenv("INDUCT_SCAN_FLUSH_WINDOW", "soon")
	t.Setenv("INDUCT_SCAN_MIN_LENGTH", "-3")
	t.Setenv("INDUCT_PAGE_SIZE", "zero")

	cfg := FromEnv()
	assert.Equal(t, 300*time.Millisecond, cfg.ScanFlushWindow)
	assert.Equal(t, 5, cfg.ScanMinLength)
	assert.Equal(t, 10, cfg.DefaultPageSize)
}
