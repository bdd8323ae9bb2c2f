package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staycal/internal/infra/config"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)
	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.DriverMemory, cfg.Store.Driver)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, 12, cfg.Booking.WindowMonths)
	assert.Equal(t, []string{"confirmed", "pending"}, cfg.Booking.OccupyingStatuses)
	assert.Equal(t, []string{"airbnb", "vrbo"}, cfg.Sync.Sources)
	assert.Equal(t, time.Hour, cfg.Sync.Interval)
	assert.True(t, cfg.IsDev())
}

func TestLoadFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SYNC_SOURCES=Airbnb, Booking_com\nBOOKING_MAX_GUESTS=3\n"), 0o600))
	t.Setenv("ENV_FILE", path)
	t.Cleanup(func() {
		os.Unsetenv("SYNC_SOURCES")
		os.Unsetenv("BOOKING_MAX_GUESTS")
	})
	t.Setenv("KAFKA_BROKERS", "k1:9092, ,k2:9092")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"airbnb", "booking_com"}, cfg.Sync.Sources)
	assert.Equal(t, 3, cfg.Booking.MaxGuests)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestLoadValidatesDriver(t *testing.T) {
	isolate(t)
	t.Setenv("STORE_DRIVER", "postgres")
	_, err := config.Load()
	assert.ErrorContains(t, err, "POSTGRES_DSN")

	t.Setenv("STORE_DRIVER", "sqlite")
	_, err = config.Load()
	assert.ErrorContains(t, err, "unknown STORE_DRIVER")
}

func TestLoadRejectsBadSource(t *testing.T) {
	isolate(t)
	t.Setenv("SYNC_SOURCES", "airbnb,bad source")
	_, err := config.Load()
	assert.Error(t, err)
}
