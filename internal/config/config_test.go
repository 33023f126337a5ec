package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("HEARTBEAT_INTERVAL_SEC", "")
	t.Setenv("ACTIVITY_PAGE_LIMIT", "")
	t.Setenv("WS_ALLOWED_ORIGINS", "")

	c := Load()
	assert.Equal(t, "8080", c.HTTPPort)
	assert.Equal(t, "postgres", c.DatabaseDriver)
	assert.Empty(t, c.KafkaBrokers)
	assert.Equal(t, 30*time.Second, c.HeartbeatInterval)
	assert.Equal(t, 20, c.ActivityPageLimit)
	assert.False(t, c.RelayEnabled)
	assert.Empty(t, c.WSAllowedOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", " k1:9092, ,k2:9092 ")
	t.Setenv("HEARTBEAT_INTERVAL_SEC", "5")
	t.Setenv("DB_POOL_SIZE", "-3")
	t.Setenv("REALTIME_RELAY_ENABLED", "true")
	t.Setenv("STREAM_RATE_PER_SEC", "0.5")
	t.Setenv("WS_ALLOWED_ORIGINS", "https://app.example.com,https://admin.example.com")

	c := Load()
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.KafkaBrokers)
	assert.Equal(t, 5*time.Second, c.HeartbeatInterval)
	assert.Equal(t, 25, c.DBPoolSize, "non-positive values fall back to the default")
	assert.True(t, c.RelayEnabled)
	assert.InDelta(t, 0.5, c.StreamRatePerSec, 1e-9)
	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, c.WSAllowedOrigins)
}
