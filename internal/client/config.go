package client

import (
	"errors"
	"fmt"
	"net/url"
	"time"
)

// Default client settings.
const (
	DefaultTimeout           = 30 * time.Second
	DefaultBatchSize         = 50
	DefaultRequestsPerSecond = 4.0
)

// Config holds the settings for the evaluation API client.
type Config struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	BatchSize         int
	RequestsPerSecond float64
}

// Validate checks the client configuration, applying defaults for zero
// values that have sensible ones.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base URL cannot be empty")
	}

	parsed, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("base URL must use http or https, got %q", parsed.Scheme)
	}

	if c.Timeout < 0 {
		return errors.New("timeout cannot be negative")
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}

	if c.BatchSize < 0 {
		return errors.New("batch size cannot be negative")
	}
	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}

	if c.RequestsPerSecond < 0 {
		return errors.New("requests per second cannot be negative")
	}
	if c.RequestsPerSecond == 0 {
		c.RequestsPerSecond = DefaultRequestsPerSecond
	}

	return nil
}
