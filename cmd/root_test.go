package cmd

import (
	"context"
	"testing"

	"evalops/internal/adapter/outbound/heuristic"
	"evalops/internal/adapter/outbound/treesitter"
	"evalops/internal/config"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand(t *testing.T) {
	t.Run("should register all subcommands", func(t *testing.T) {
		names := make(map[string]struct{})
		for _, sub := range rootCmd.Commands() {
			names[sub.Name()] = struct{}{}
		}

		for _, expected := range []string{"discover", "upload", "validate", "init", "version"} {
			assert.Contains(t, names, expected)
		}
	})

	t.Run("should expose the global config and logging flags", func(t *testing.T) {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup("log-level"))
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup("log-format"))
	})
}

func TestSetDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg, err := config.Load(v)
	require.NoError(t, err)

	assert.Equal(t, ".", cfg.Discovery.WorkDir)
	assert.Equal(t, config.StrategyHeuristic, cfg.Discovery.Strategy)
	assert.Equal(t, 8, cfg.Discovery.Concurrency)
	assert.Equal(t, "gpt-4o-mini", cfg.Budget.Model)
	assert.InDelta(t, 0.8, cfg.Budget.WarnRatio, 1e-9)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestBuildLocator(t *testing.T) {
	ctx := context.Background()

	t.Run("should default to the heuristic locator", func(t *testing.T) {
		locator, err := buildLocator(ctx, "")
		require.NoError(t, err)
		assert.IsType(t, &heuristic.Locator{}, locator)

		locator, err = buildLocator(ctx, config.StrategyHeuristic)
		require.NoError(t, err)
		assert.IsType(t, &heuristic.Locator{}, locator)
	})

	t.Run("should build the structural locator on request", func(t *testing.T) {
		locator, err := buildLocator(ctx, config.StrategyStructural)
		require.NoError(t, err)
		assert.IsType(t, &treesitter.Locator{}, locator)
	})

	t.Run("should reject unknown strategies", func(t *testing.T) {
		_, err := buildLocator(ctx, "telepathic")
		assert.Error(t, err)
	})
}
