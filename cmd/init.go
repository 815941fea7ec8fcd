package cmd

import (
	"fmt"
	"os"

	"evalops/internal/adapter/outbound/fileselector"
	domainerrors "evalops/internal/domain/errors/domain"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// configFileName is the project configuration file written by init.
const configFileName = "evalops.yaml"

// initFileConfig is the YAML shape written to new project configs.
type initFileConfig struct {
	Discovery struct {
		WorkDir     string   `yaml:"work_dir"`
		Patterns    []string `yaml:"patterns"`
		Strategy    string   `yaml:"strategy"`
		Concurrency int      `yaml:"concurrency"`
	} `yaml:"discovery"`
	API struct {
		BaseURL           string  `yaml:"base_url"`
		APIKey            string  `yaml:"api_key"`
		Timeout           string  `yaml:"timeout"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		BatchSize         int     `yaml:"batch_size"`
	} `yaml:"api"`
	Budget struct {
		Model         string  `yaml:"model"`
		MaxCostPerRun float64 `yaml:"max_cost_per_run"`
		WarnRatio     float64 `yaml:"warn_ratio"`
	} `yaml:"budget"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

// newInitCmd implements: evalops init [--api-url url] [--model name] [--force].
func newInitCmd() *cobra.Command {
	var apiURL string
	var model string
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter evalops.yaml in the current directory",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runInit(apiURL, model, force)
		},
	}

	cmd.Flags().StringVar(&apiURL, "api-url", "", "Evaluation API base URL")
	cmd.Flags().StringVar(&model, "model", "gpt-4o-mini", "Model used for cost estimation")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	return cmd
}

// runInit writes the starter configuration, refusing to clobber an existing
// file unless forced.
func runInit(apiURL, model string, force bool) error {
	if _, err := os.Stat(configFileName); err == nil && !force {
		return fmt.Errorf("%w: %s (use --force to overwrite)", domainerrors.ErrConfigAlreadyExists, configFileName)
	}

	var fileCfg initFileConfig
	fileCfg.Discovery.WorkDir = "."
	fileCfg.Discovery.Patterns = fileselector.DefaultPatterns
	fileCfg.Discovery.Strategy = "heuristic"
	fileCfg.Discovery.Concurrency = 8
	fileCfg.API.BaseURL = apiURL
	fileCfg.API.Timeout = "30s"
	fileCfg.API.RequestsPerSecond = 4.0
	fileCfg.API.BatchSize = 50
	fileCfg.Budget.Model = model
	fileCfg.Budget.WarnRatio = 0.8
	fileCfg.Log.Level = "info"
	fileCfg.Log.Format = "json"

	data, err := yaml.Marshal(&fileCfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configFileName, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", configFileName, err)
	}

	color.Green("Wrote %s", configFileName)
	return nil
}
