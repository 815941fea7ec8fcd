package cmd

import (
	"context"
	"fmt"
	"time"

	"evalops/internal/client"
	domainerrors "evalops/internal/domain/errors/domain"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// uploadTimeout bounds discovery plus the whole upload run.
const uploadTimeout = 5 * time.Minute

// newUploadCmd implements: evalops upload [--dir .] [--pattern glob]... [--dry-run].
func newUploadCmd() *cobra.Command {
	var dir string
	var patterns []string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Discover test cases and upload them to the evaluation API",
		RunE: func(_ *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(context.Background(), uploadTimeout)
			defer cancel()
			return runUpload(ctx, dir, patterns, dryRun)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Directory to scan (default: configured work dir)")
	cmd.Flags().StringArrayVar(&patterns, "pattern", nil, "Glob inclusion pattern (repeatable)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Discover and report without uploading")

	return cmd
}

// runUpload discovers test cases and sends them to the configured API.
func runUpload(ctx context.Context, dir string, patterns []string, dryRun bool) error {
	result, err := runDiscovery(ctx, dir, patterns)
	if err != nil {
		return err
	}

	if len(result.TestCases) == 0 {
		color.Yellow("No test cases discovered; nothing to upload")
		return nil
	}

	if dryRun {
		color.Green("Would upload %d test case(s)", len(result.TestCases))
		return nil
	}

	if cfg.API.BaseURL == "" {
		return fmt.Errorf("%w: set api.base_url in evalops.yaml", domainerrors.ErrUploadNotConfigured)
	}

	uploader, err := client.NewClient(&client.Config{
		BaseURL:           cfg.API.BaseURL,
		APIKey:            cfg.API.APIKey,
		Timeout:           cfg.API.Timeout,
		BatchSize:         cfg.API.BatchSize,
		RequestsPerSecond: cfg.API.RequestsPerSecond,
	})
	if err != nil {
		return fmt.Errorf("failed to create API client: %w", err)
	}

	uploadResult, err := uploader.UploadTestCases(ctx, result.TestCases)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	color.Green("Uploaded %d test case(s) in run %s", uploadResult.Uploaded, uploadResult.RunID)
	if uploadResult.Skipped > 0 {
		color.Yellow("%d test case(s) rejected by the API", uploadResult.Skipped)
	}
	return nil
}
