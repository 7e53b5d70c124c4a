package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	DatabaseURL string
	RedisURL    string
	APIKey      string

	FeedWSURL        string
	ReconnectBase    time.Duration
	ReconnectMax     time.Duration
	FlushInterval    time.Duration
	BaselinePollSecs int
	BaselineTTL      time.Duration
}

func Load() *Config {
	cfg := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		APIKey:      strings.TrimSpace(os.Getenv("API_KEY")),
	}

	if cfg.DatabaseURL == "" {
		log.Println("Warning: DATABASE_URL not set, holdings persistence disabled")
	}
	if cfg.RedisURL == "" {
		log.Println("Warning: REDIS_URL not set, defaulting to localhost:6379")
		cfg.RedisURL = "localhost:6379"
	}

	cfg.FeedWSURL = strings.TrimSpace(os.Getenv("FEED_WS_URL"))
	if cfg.FeedWSURL == "" {
		cfg.FeedWSURL = "wss://stream.binance.com:9443"
	}

	cfg.ReconnectBase = time.Second
	if v := os.Getenv("RECONNECT_BASE_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ReconnectBase = time.Duration(n) * time.Millisecond
		}
	}

	cfg.ReconnectMax = 30 * time.Second
	if v := os.Getenv("RECONNECT_MAX_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ReconnectMax = time.Duration(n) * time.Millisecond
		}
	}
	if cfg.ReconnectMax < cfg.ReconnectBase {
		log.Printf("Warning: RECONNECT_MAX_MS below RECONNECT_BASE_MS, using %v", cfg.ReconnectBase)
		cfg.ReconnectMax = cfg.ReconnectBase
	}

	// Flush window bounds re-render cost; 1.5-2s keeps the UI lively
	// without recomputing on every tick.
	cfg.FlushInterval = 1750 * time.Millisecond
	if v := os.Getenv("FLUSH_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.FlushInterval = time.Duration(n) * time.Millisecond
		}
	}

	cfg.BaselinePollSecs = 180
	if v := os.Getenv("BASELINE_POLL_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.BaselinePollSecs = n
		}
	}

	cfg.BaselineTTL = 180 * time.Second
	if v := os.Getenv("BASELINE_TTL_SECS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.BaselineTTL = time.Duration(n) * time.Second
		}
	}

	return cfg
}
