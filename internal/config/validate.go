package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Stream.KeyID == "" {
		return errors.New("stream.key_id is required")
	}
	if c.Stream.PrivateKeyPath == "" && c.Stream.PrivateKeyContent == "" {
		return errors.New("one of stream.private_key_path or stream.private_key_content is required")
	}
	if c.Stream.URL == "" {
		return errors.New("stream.url is required")
	}

	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if c.Database.PoolMax < 1 {
		return errors.New("database.pool_max must be >= 1")
	}
	if c.Database.PoolMin < 0 {
		return errors.New("database.pool_min must be >= 0")
	}
	if c.Database.PoolMin > c.Database.PoolMax {
		return fmt.Errorf("database.pool_min (%d) cannot exceed database.pool_max (%d)", c.Database.PoolMin, c.Database.PoolMax)
	}

	if c.Writer.BatchSize < 1 {
		return errors.New("writer.batch_size must be >= 1")
	}
	if c.Writer.FlushInterval <= 0 {
		return errors.New("writer.flush_interval must be > 0")
	}

	if c.Discovery.MaxSubscriptions < 1 {
		return errors.New("discovery.max_subscriptions must be >= 1")
	}

	if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
		return fmt.Errorf("metrics.port must be between 1 and 65535, got %d", c.Metrics.Port)
	}

	return nil
}
