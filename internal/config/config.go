package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Discovery strategy names accepted in configuration.
const (
	StrategyHeuristic  = "heuristic"
	StrategyStructural = "structural"
)

// Config holds the complete application configuration.
type Config struct {
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	API       APIConfig       `mapstructure:"api"`
	Budget    BudgetConfig    `mapstructure:"budget"`
	Log       LogConfig       `mapstructure:"log"`
}

// DiscoveryConfig holds discovery engine configuration.
type DiscoveryConfig struct {
	WorkDir     string   `mapstructure:"work_dir"`
	Patterns    []string `mapstructure:"patterns"`
	Strategy    string   `mapstructure:"strategy"`
	Concurrency int      `mapstructure:"concurrency"`
}

// APIConfig holds evaluation API client configuration.
type APIConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	BatchSize         int           `mapstructure:"batch_size"`
}

// BudgetConfig holds cost estimation configuration.
type BudgetConfig struct {
	Model         string  `mapstructure:"model"`
	MaxCostPerRun float64 `mapstructure:"max_cost_per_run"`
	WarnRatio     float64 `mapstructure:"warn_ratio"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load unmarshals and validates the configuration from a prepared viper
// instance.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if err := c.Discovery.Validate(); err != nil {
		return fmt.Errorf("discovery: %w", err)
	}
	if err := c.API.Validate(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	if err := c.Budget.Validate(); err != nil {
		return fmt.Errorf("budget: %w", err)
	}
	return nil
}

// Validate checks the discovery configuration.
func (d *DiscoveryConfig) Validate() error {
	switch d.Strategy {
	case "", StrategyHeuristic, StrategyStructural:
	default:
		return fmt.Errorf("unknown strategy %q (expected %q or %q)",
			d.Strategy, StrategyHeuristic, StrategyStructural)
	}
	if d.Concurrency < 0 {
		return errors.New("concurrency cannot be negative")
	}
	return nil
}

// Validate checks the API client configuration. The API section is optional:
// an empty base URL disables uploads.
func (a *APIConfig) Validate() error {
	if a.Timeout < 0 {
		return errors.New("timeout cannot be negative")
	}
	if a.RequestsPerSecond < 0 {
		return errors.New("requests_per_second cannot be negative")
	}
	if a.BatchSize < 0 {
		return errors.New("batch_size cannot be negative")
	}
	return nil
}

// Validate checks the budget configuration.
func (b *BudgetConfig) Validate() error {
	if b.MaxCostPerRun < 0 {
		return errors.New("max_cost_per_run cannot be negative")
	}
	if b.WarnRatio < 0 || b.WarnRatio > 1 {
		return errors.New("warn_ratio must be in [0,1]")
	}
	return nil
}
