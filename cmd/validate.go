package cmd

import (
	"context"
	"fmt"
	"time"

	"evalops/internal/application/service"
	domainerrors "evalops/internal/domain/errors/domain"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// validateTimeout bounds discovery plus cost estimation.
const validateTimeout = 2 * time.Minute

// newValidateCmd implements: evalops validate [--dir .] [--pattern glob]....
func newValidateCmd() *cobra.Command {
	var dir string
	var patterns []string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Discover test cases and check the estimated run cost against the budget",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), validateTimeout)
			defer cancel()
			return runValidate(ctx, dir, patterns)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Directory to scan (default: configured work dir)")
	cmd.Flags().StringArrayVar(&patterns, "pattern", nil, "Glob inclusion pattern (repeatable)")

	return cmd
}

// runValidate discovers test cases, estimates the evaluation cost, and
// reports the budget status. An exceeded budget is the only error outcome;
// zero discovered cases is a warning.
func runValidate(ctx context.Context, dir string, patterns []string) error {
	result, err := runDiscovery(ctx, dir, patterns)
	if err != nil {
		return err
	}

	if len(result.TestCases) == 0 {
		color.Yellow("No test cases discovered (%d files scanned)", result.FilesScanned)
		return nil
	}

	estimator, err := service.NewCostEstimator(
		cfg.Budget.Model,
		cfg.Budget.MaxCostPerRun,
		cfg.Budget.WarnRatio,
	)
	if err != nil {
		return fmt.Errorf("cost estimator: %w", err)
	}

	estimate := estimator.EstimateRun(ctx, result.TestCases)
	report := estimator.CheckBudget(ctx, estimate)

	fmt.Printf("Test cases: %d\n", estimate.TestCases)
	fmt.Printf("Model: %s\n", estimate.Model)
	fmt.Printf("Estimated tokens: %d in / %d out\n", estimate.InputTokens, estimate.OutputTokens)
	fmt.Printf("Estimated cost: $%.4f\n", estimate.CostUSD)

	switch report.Status {
	case service.BudgetExceeded:
		color.Red("Budget %s: $%.4f over the $%.2f limit",
			report.Status, estimate.CostUSD-report.MaxCostUSD, report.MaxCostUSD)
		return domainerrors.ErrBudgetExceeded
	case service.BudgetWarning:
		color.Yellow("Budget %s: approaching the $%.2f limit", report.Status, report.MaxCostUSD)
	default:
		color.Green("Budget %s", report.Status)
	}
	return nil
}
