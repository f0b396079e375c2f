// Package config loads the collector configuration from the environment,
// with a .env file honoured for local development.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	BrokerURL string
	FeedTopic string
	ClientID  string

	DigitransitURL string
	DigitransitKey string
	LookupTimeout  time.Duration

	SnapshotPath     string
	SnapshotInterval time.Duration

	Listen      string
	MetricsAddr string

	Workers int

	RateLimitMax    int
	RateLimitPeriod time.Duration
}

func Load() (*Config, error) {
	// Load .env into the environment, ignore if missing
	_ = godotenv.Load()

	cfg := &Config{
		BrokerURL: getenvDefault("HFPLOG_BROKER_URL", "wss://mqtt.hsl.fi:443"),
		FeedTopic: getenvDefault("HFPLOG_FEED_TOPIC", "/hfp/v2/journey/+/#"),
		ClientID:  os.Getenv("HFPLOG_CLIENT_ID"),

		DigitransitURL: getenvDefault("HFPLOG_DIGITRANSIT_URL", "https://api.digitransit.fi/routing/v2/hsl/gtfs/v1"),
		DigitransitKey: os.Getenv("HFPLOG_DIGITRANSIT_KEY"),

		SnapshotPath: getenvDefault("HFPLOG_SNAPSHOT_PATH", "data/main.db"),

		Listen:      getenvDefault("HFPLOG_LISTEN", ":3002"),
		MetricsAddr: os.Getenv("HFPLOG_METRICS_ADDR"),
	}

	var err error

	if cfg.LookupTimeout, err = durationEnv("HFPLOG_LOOKUP_TIMEOUT_SEC", time.Second, 10*time.Second); err != nil {
		return nil, err
	}

	if cfg.SnapshotInterval, err = durationEnv("HFPLOG_SNAPSHOT_INTERVAL_SEC", time.Second, 30*time.Second); err != nil {
		return nil, err
	}

	if cfg.Workers, err = intEnv("HFPLOG_WORKERS", 32); err != nil {
		return nil, err
	}

	if cfg.RateLimitMax, err = intEnv("HFPLOG_RATE_LIMIT", 10); err != nil {
		return nil, err
	}

	if cfg.RateLimitPeriod, err = durationEnv("HFPLOG_RATE_LIMIT_PERIOD_MIN", time.Minute, 5*time.Minute); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getenvDefault(key string, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}

	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, value)
	}

	return n, nil
}

func durationEnv(key string, unit time.Duration, fallback time.Duration) (time.Duration, error) {
	n, err := intEnv(key, 0)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return fallback, nil
	}

	return time.Duration(n) * unit, nil
}
