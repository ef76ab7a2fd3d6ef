package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateFetch(); err != nil {
		return err
	}
	if err := c.validateProcess(); err != nil {
		return err
	}
	if err := c.validateContent(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	return nil
}

func (c *Config) validateFetch() error {
	if c.Fetch.RequestTimeout <= 0 {
		return errors.New("fetch.request_timeout must be positive (seconds)")
	}
	if c.Fetch.DefaultLimit <= 0 {
		return errors.New("fetch.default_limit must be positive")
	}
	if c.Fetch.LocalCatalogMax <= 0 {
		return errors.New("fetch.local_catalog_max must be positive")
	}
	return nil
}

func (c *Config) validateProcess() error {
	if c.Process.BatchSize <= 0 {
		return errors.New("process.batch_size must be positive")
	}
	if c.Process.NearDupThreshold < 0 || c.Process.NearDupThreshold > 64 {
		return errors.New("process.near_dup_threshold must be between 0 and 64")
	}
	if c.Process.FailCap <= 0 {
		return errors.New("process.fail_cap must be positive")
	}
	if c.Process.HashLength < 16 || c.Process.HashLength > 64 {
		return errors.New("process.hash_length must be between 16 and 64")
	}
	return nil
}

func (c *Config) validateContent() error {
	if c.Content.AgeTier < 0 || c.Content.AgeTier > 2 {
		return errors.New("content.age_tier must be 0 (teen), 1 (youth), or 2 (adult)")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
