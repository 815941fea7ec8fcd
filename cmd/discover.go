package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"evalops/internal/adapter/outbound/fileselector"
	"evalops/internal/adapter/outbound/heuristic"
	"evalops/internal/adapter/outbound/treesitter"
	"evalops/internal/application/common/slogger"
	"evalops/internal/application/service"
	"evalops/internal/config"
	"evalops/internal/port/outbound"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// discoveryTimeout bounds one whole discovery run.
const discoveryTimeout = 2 * time.Minute

// newDiscoverCmd implements: evalops discover [--dir .] [--pattern glob]... [--json] [--verbose].
func newDiscoverCmd() *cobra.Command {
	var dir string
	var patterns []string
	var asJSON bool
	var verbose bool

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Scan the code tree for evaluation test declarations",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), discoveryTimeout)
			defer cancel()

			result, err := runDiscovery(ctx, dir, patterns)
			if err != nil {
				return err
			}
			return printDiscoveryResult(result, asJSON, verbose)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Directory to scan (default: configured work dir)")
	cmd.Flags().StringArrayVar(&patterns, "pattern", nil, "Glob inclusion pattern (repeatable)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit discovered test cases as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "List each discovered test case")

	return cmd
}

// runDiscovery wires the configured locator strategy and runs one pass.
// Flag values override the configured work dir and patterns.
func runDiscovery(ctx context.Context, dir string, patterns []string) (*service.DiscoveryResult, error) {
	if dir == "" {
		dir = cfg.Discovery.WorkDir
	}
	if len(patterns) == 0 {
		patterns = cfg.Discovery.Patterns
	}

	locator, err := buildLocator(ctx, cfg.Discovery.Strategy)
	if err != nil {
		return nil, err
	}

	discoverer, err := service.NewDiscoveryService(
		fileselector.NewSelector(),
		locator,
		cfg.Discovery.Concurrency,
	)
	if err != nil {
		return nil, err
	}

	return discoverer.DiscoverTestCases(ctx, dir, patterns)
}

// buildLocator selects the declaration locator strategy. The structural
// strategy falls back to the heuristic one when its grammars cannot load.
func buildLocator(ctx context.Context, strategy string) (outbound.DeclarationLocator, error) {
	switch strategy {
	case config.StrategyStructural:
		locator, err := treesitter.NewLocator()
		if err != nil {
			if treesitter.IsGrammarUnavailable(err) {
				slogger.Warn(ctx, "Structural strategy unavailable, falling back to heuristic", slogger.Fields{
					"error": err.Error(),
				})
				return heuristic.NewLocator(), nil
			}
			return nil, err
		}
		return locator, nil
	case "", config.StrategyHeuristic:
		return heuristic.NewLocator(), nil
	default:
		return nil, fmt.Errorf("unknown discovery strategy %q", strategy)
	}
}

// printDiscoveryResult renders the run summary and, when requested, the
// per-declaration listing.
func printDiscoveryResult(result *service.DiscoveryResult, asJSON, verbose bool) error {
	if asJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result.TestCases)
	}

	if len(result.TestCases) == 0 {
		color.Yellow("No test cases discovered (%d files scanned)", result.FilesScanned)
		return nil
	}

	color.Green("Discovered %d test case(s) across %d file(s)", len(result.TestCases), result.FilesScanned)
	if result.FilesFailed > 0 {
		color.Yellow("%d file(s) skipped due to errors", result.FilesFailed)
	}

	if verbose {
		for _, tc := range result.TestCases {
			fmt.Printf("  %s:%d  %s  (%s)\n",
				tc.Metadata.FilePath, tc.Metadata.LineNumber, tc.Description, tc.Metadata.FunctionName)
		}
	}
	return nil
}
