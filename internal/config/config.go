package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Config holds application configuration from environment.
type Config struct {
	HTTPPort       string
	DatabaseDriver string // postgres or sqlite3
	DatabaseURL    string
	DBPoolSize     int
	RedisURL       string // empty disables the board cache and the relay
	RedisPoolSize  int
	CacheTTL       int // seconds

	KafkaBrokers       []string // empty writes activity directly to the database
	KafkaActivityTopic string
	KafkaPartitions    int

	JWTSecret string

	HeartbeatInterval time.Duration
	RealtimeChannel   string
	RelayEnabled      bool
	StreamRatePerSec  float64
	StreamBurst       int
	WSAllowedOrigins  []string // empty accepts same-host websocket handshakes only

	LogLevel          string
	ActivityPageLimit int
	MaxPageLimit      int
}

var (
	cfg     *Config
	cfgOnce sync.Once
)

// Get returns the application config (loads once from env).
func Get() *Config {
	cfgOnce.Do(func() {
		cfg = Load()
	})
	return cfg
}

// Load reads a fresh Config from the environment.
func Load() *Config {
	return &Config{
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		DatabaseDriver:     getEnv("DATABASE_DRIVER", "postgres"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		DBPoolSize:         getIntEnv("DB_POOL_SIZE", 25),
		RedisURL:           os.Getenv("REDIS_URL"),
		RedisPoolSize:      getIntEnv("REDIS_POOL_SIZE", 50),
		CacheTTL:           getIntEnv("CACHE_TTL_SEC", 60),
		KafkaBrokers:       getSliceEnv("KAFKA_BROKERS"),
		KafkaActivityTopic: getEnv("KAFKA_ACTIVITY_TOPIC", "board-activity"),
		KafkaPartitions:    getIntEnv("KAFKA_PARTITIONS", 8),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		HeartbeatInterval:  time.Duration(getIntEnv("HEARTBEAT_INTERVAL_SEC", 30)) * time.Second,
		RealtimeChannel:    getEnv("REALTIME_CHANNEL", "taskflow:board-events"),
		RelayEnabled:       getBoolEnv("REALTIME_RELAY_ENABLED", false),
		StreamRatePerSec:   getFloatEnv("STREAM_RATE_PER_SEC", 5),
		StreamBurst:        getIntEnv("STREAM_BURST", 10),
		WSAllowedOrigins:   getSliceEnv("WS_ALLOWED_ORIGINS"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		ActivityPageLimit:  getIntEnv("ACTIVITY_PAGE_LIMIT", 20),
		MaxPageLimit:       getIntEnv("MAX_PAGE_LIMIT", 100),
	}
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return defaultVal
}

func getFloatEnv(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func getSliceEnv(key string) []string {
	var out []string
	for _, s := range strings.Split(os.Getenv(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
