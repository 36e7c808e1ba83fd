package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultStreamURL             = "wss://api.elections.kalshi.com"
	DefaultStreamPath            = "/trade-api/ws/v2"
	DefaultSideChannelBaseURL    = "https://api.elections.kalshi.com/trade-api/v2"
	DefaultWatchdogTimeout       = 30 * time.Second
	DefaultBatchSize             = 500
	DefaultFlushInterval         = 2 * time.Second
	DefaultMaxSubscriptions      = 1000
	DefaultDBPoolMin             = 2
	DefaultDBPoolMax             = 10
	DefaultMetricsPort           = 9090
)

func (c *Config) applyDefaults() {
	if c.Stream.URL == "" {
		c.Stream.URL = DefaultStreamURL
	}
	if c.Stream.Path == "" {
		c.Stream.Path = DefaultStreamPath
	}
	if c.Stream.WatchdogTimeout == 0 {
		c.Stream.WatchdogTimeout = DefaultWatchdogTimeout
	}
	if c.SideChannel.BaseURL == "" {
		c.SideChannel.BaseURL = DefaultSideChannelBaseURL
	}
	if c.Writer.BatchSize == 0 {
		c.Writer.BatchSize = DefaultBatchSize
	}
	if c.Writer.FlushInterval == 0 {
		c.Writer.FlushInterval = DefaultFlushInterval
	}
	if c.Discovery.MaxSubscriptions == 0 {
		c.Discovery.MaxSubscriptions = DefaultMaxSubscriptions
	}
	if c.Database.PoolMin == 0 {
		c.Database.PoolMin = DefaultDBPoolMin
	}
	if c.Database.PoolMax == 0 {
		c.Database.PoolMax = DefaultDBPoolMax
	}
	if c.Metrics.Port == 0 {
		c.Metrics.Port = DefaultMetricsPort
	}
}
