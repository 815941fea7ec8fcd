// Package cmd provides the command-line interface for the evalops CLI.
package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"evalops/internal/application/common/logging"
	"evalops/internal/application/common/slogger"
	"evalops/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	cfg     *config.Config
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "evalops",
	Short: "Discover and upload source-embedded evaluation test cases",
	Long: `evalops scans a JavaScript/TypeScript code tree for source-embedded
evaluation test declarations and turns each one into a normalized test case.

Declarations come in two forms:
- an @evalops_test({...}) annotation attached to a function
- an evalops_test({...}, function () { ... }) call with an inline function

The discovered test cases can be printed, uploaded to an evaluation API,
or validated against a cost budget.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./evalops.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "json", "Log format (json, text)")

	// Bind flags to viper
	if err := viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level")); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding log-level flag: %v\n", err)
	}
	if err := viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format")); err != nil {
		fmt.Fprintf(os.Stderr, "Error binding log-format flag: %v\n", err)
	}

	rootCmd.AddCommand(newDiscoverCmd())
	rootCmd.AddCommand(newUploadCmd())
	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newInitCmd())
	rootCmd.AddCommand(newVersionCmd())
}

func initConfig() {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Set config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("evalops")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment variables
	v.SetEnvPrefix("EVALOPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read configuration; a missing config file is fine, defaults apply.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
			os.Exit(1)
		}
	}

	loaded, err := config.Load(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	cfg = loaded

	initLogging(cfg.Log)
}

// setDefaults establishes the default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("discovery.work_dir", ".")
	v.SetDefault("discovery.patterns", []string{})
	v.SetDefault("discovery.strategy", config.StrategyHeuristic)
	v.SetDefault("discovery.concurrency", 8)

	v.SetDefault("api.base_url", "")
	v.SetDefault("api.api_key", "")
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("api.requests_per_second", 4.0)
	v.SetDefault("api.batch_size", 50)

	v.SetDefault("budget.model", "gpt-4o-mini")
	v.SetDefault("budget.max_cost_per_run", 0.0)
	v.SetDefault("budget.warn_ratio", 0.8)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// initLogging installs the configured logger as the global slogger.
func initLogging(logCfg config.LogConfig) {
	logger, err := logging.NewApplicationLogger(logging.Config{
		Level:  logCfg.Level,
		Format: logCfg.Format,
		Output: "stderr",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	slogger.SetGlobalLogger(logger)
}
