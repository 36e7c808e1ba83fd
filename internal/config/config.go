// Package config loads the collector's runtime configuration from
// environment variables, optionally pre-populated from a .env file.
package config

import "time"

// Config is the fully-resolved, validated configuration for one collector
// process.
type Config struct {
	Stream      StreamConfig
	SideChannel SideChannelConfig
	Writer      WriterConfig
	Discovery   DiscoveryConfig
	Database    DatabaseConfig
	Metrics     MetricsConfig
}

// StreamConfig holds streaming-protocol credentials and endpoints.
type StreamConfig struct {
	KeyID             string
	PrivateKeyPath    string
	PrivateKeyContent string
	URL               string
	Path              string
	WatchdogTimeout   time.Duration
}

// SideChannelConfig holds the side-channel REST base URL.
type SideChannelConfig struct {
	BaseURL string
}

// WriterConfig holds the Writer's batching thresholds.
type WriterConfig struct {
	BatchSize     int
	FlushInterval time.Duration
}

// DiscoveryConfig holds the subscription cap.
type DiscoveryConfig struct {
	MaxSubscriptions int
}

// DatabaseConfig holds the store connection pool settings.
type DatabaseConfig struct {
	URL     string
	PoolMin int
	PoolMax int
}

// MetricsConfig holds the Prometheus exposition port.
type MetricsConfig struct {
	Port int
}
