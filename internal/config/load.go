package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads configuration from environment variables. If a .env file
// exists at envPath, its values are loaded into the environment first
// (without overriding variables already set), the way a local development
// setup typically supplies credentials. A missing .env file is not an
// error: production deployments set the environment directly.
func Load(envPath string) (*Config, error) {
	if envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			if err := godotenv.Load(envPath); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{
		Stream: StreamConfig{
			KeyID:             getEnv("STREAM_KEY_ID", ""),
			PrivateKeyPath:    getEnv("STREAM_PRIVATE_KEY_PATH", ""),
			PrivateKeyContent: getEnv("STREAM_PRIVATE_KEY_CONTENT", ""),
			URL:               getEnv("STREAM_URL", ""),
			Path:              getEnv("STREAM_PATH", ""),
			WatchdogTimeout:   getEnvDuration("WATCHDOG_TIMEOUT_SECONDS", 0),
		},
		SideChannel: SideChannelConfig{
			BaseURL: getEnv("SIDE_CHANNEL_BASE_URL", ""),
		},
		Writer: WriterConfig{
			BatchSize:     getEnvInt("BATCH_SIZE", 0),
			FlushInterval: getEnvDurationSeconds("FLUSH_INTERVAL_SECONDS", 0),
		},
		Discovery: DiscoveryConfig{
			MaxSubscriptions: getEnvInt("MAX_SUBSCRIPTIONS", 0),
		},
		Database: DatabaseConfig{
			URL:     getEnv("DATABASE_URL", ""),
			PoolMin: getEnvInt("DB_POOL_MIN", 0),
			PoolMax: getEnvInt("DB_POOL_MAX", 0),
		},
		Metrics: MetricsConfig{
			Port: getEnvInt("METRICS_PORT", 0),
		},
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		v, err := strconv.Atoi(value)
		if err == nil {
			return v
		}
	}
	return defaultValue
}

// getEnvDuration interprets the variable as seconds; fractional values are
// accepted (it delegates to getEnvDurationSeconds).
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	return getEnvDurationSeconds(key, defaultValue)
}

// getEnvDurationSeconds interprets the variable as a (possibly fractional)
// number of seconds, matching flush_interval_seconds' documented default of
// 2.0.
func getEnvDurationSeconds(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		v, err := strconv.ParseFloat(value, 64)
		if err == nil {
			return time.Duration(v * float64(time.Second))
		}
	}
	return defaultValue
}
