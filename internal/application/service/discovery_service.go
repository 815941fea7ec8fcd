// Package service contains the application services orchestrating discovery,
// cost estimation and budget checks.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"evalops/internal/application/common/slogger"
	"evalops/internal/domain/entity"
	domainerrors "evalops/internal/domain/errors/domain"
	"evalops/internal/port/outbound"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds concurrent file reads when the caller does not
// choose a cap.
const DefaultConcurrency = 8

// DiscoveryResult is the outcome of one discovery run.
type DiscoveryResult struct {
	TestCases    []entity.ParsedTestCase
	FilesScanned int
	FilesFailed  int
}

// discoveryMetrics holds OTEL metrics for discovery runs.
type discoveryMetrics struct {
	filesScannedCounter    metric.Int64Counter
	filesFailedCounter     metric.Int64Counter
	casesDiscoveredCounter metric.Int64Counter
	runDurationHistogram   metric.Float64Histogram
}

// initDiscoveryMetrics initializes OTEL metrics for discovery operations.
func initDiscoveryMetrics() (*discoveryMetrics, error) {
	meter := otel.Meter("evalops/discovery")

	filesScanned, err := meter.Int64Counter(
		"discovery_files_scanned_total",
		metric.WithDescription("Total number of files scanned for declarations"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create files scanned counter: %w", err)
	}

	filesFailed, err := meter.Int64Counter(
		"discovery_files_failed_total",
		metric.WithDescription("Total number of files that failed to read or parse"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create files failed counter: %w", err)
	}

	casesDiscovered, err := meter.Int64Counter(
		"discovery_test_cases_total",
		metric.WithDescription("Total number of test cases discovered"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create test cases counter: %w", err)
	}

	runDuration, err := meter.Float64Histogram(
		"discovery_run_duration_seconds",
		metric.WithDescription("Duration of discovery runs in seconds"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run duration histogram: %w", err)
	}

	return &discoveryMetrics{
		filesScannedCounter:    filesScanned,
		filesFailedCounter:     filesFailed,
		casesDiscoveredCounter: casesDiscovered,
		runDurationHistogram:   runDuration,
	}, nil
}

// DiscoveryService orchestrates the discovery pipeline: file selection,
// per-file declaration location with a bounded fan-out, and fan-in that
// preserves file-selection order.
type DiscoveryService struct {
	selector    outbound.FileSelector
	locator     outbound.DeclarationLocator
	concurrency int
	metrics     *discoveryMetrics
}

// NewDiscoveryService creates a DiscoveryService. A non-positive concurrency
// falls back to DefaultConcurrency.
func NewDiscoveryService(
	selector outbound.FileSelector,
	locator outbound.DeclarationLocator,
	concurrency int,
) (*DiscoveryService, error) {
	if selector == nil {
		return nil, errors.New("file selector cannot be nil")
	}
	if locator == nil {
		return nil, errors.New("declaration locator cannot be nil")
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	metrics, err := initDiscoveryMetrics()
	if err != nil {
		slogger.Warn(context.Background(), "Failed to initialize discovery metrics, continuing without metrics",
			slogger.Fields{"error": err.Error()})
		metrics = nil
	}

	return &DiscoveryService{
		selector:    selector,
		locator:     locator,
		concurrency: concurrency,
		metrics:     metrics,
	}, nil
}

// DiscoverTestCases runs one discovery pass over workDir. Results are
// concatenated per file in file-selection order, declarations within a file
// in source order. File read failures and per-declaration parse failures
// degrade to fewer results; only grammar unavailability aborts the run.
func (s *DiscoveryService) DiscoverTestCases(
	ctx context.Context,
	workDir string,
	patterns []string,
) (*DiscoveryResult, error) {
	startTime := time.Now()

	paths, err := s.selector.SelectFiles(ctx, workDir, patterns)
	if err != nil {
		return nil, fmt.Errorf("file selection failed: %w", err)
	}

	perFile := make([][]entity.ParsedTestCase, len(paths))
	failed := make([]bool, len(paths))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.concurrency)

	for i, relPath := range paths {
		group.Go(func() error {
			fullPath := filepath.Join(workDir, relPath)
			source, readErr := os.ReadFile(fullPath)
			if readErr != nil {
				fsErr := domainerrors.NewFileSystemError("read", relPath, readErr)
				slogger.Warn(groupCtx, "File skipped: read failed", slogger.Fields{
					"file":  relPath,
					"error": fsErr.Error(),
				})
				failed[i] = true
				return nil
			}

			cases, locateErr := s.locator.LocateDeclarations(groupCtx, relPath, source)
			if locateErr != nil {
				if errors.Is(locateErr, domainerrors.ErrGrammarUnavailable) {
					return locateErr
				}
				slogger.Warn(groupCtx, "File skipped: declaration location failed", slogger.Fields{
					"file":  relPath,
					"error": locateErr.Error(),
				})
				failed[i] = true
				return nil
			}

			if len(cases) == 0 {
				slogger.Debug(groupCtx, "No declarations found in file", slogger.Fields{
					"file": relPath,
				})
			}
			perFile[i] = cases
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	result := &DiscoveryResult{FilesScanned: len(paths)}
	for i, cases := range perFile {
		if failed[i] {
			result.FilesFailed++
			continue
		}
		result.TestCases = append(result.TestCases, cases...)
	}

	s.recordRun(ctx, result, time.Since(startTime))

	slogger.Info(ctx, "Discovery run completed", slogger.Fields{
		"work_dir":     workDir,
		"files":        result.FilesScanned,
		"files_failed": result.FilesFailed,
		"test_cases":   len(result.TestCases),
		"duration":     time.Since(startTime).String(),
	})

	return result, nil
}

// recordRun publishes run metrics when metrics are available.
func (s *DiscoveryService) recordRun(ctx context.Context, result *DiscoveryResult, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.Int("files", result.FilesScanned))
	s.metrics.filesScannedCounter.Add(ctx, int64(result.FilesScanned))
	s.metrics.filesFailedCounter.Add(ctx, int64(result.FilesFailed))
	s.metrics.casesDiscoveredCounter.Add(ctx, int64(len(result.TestCases)), attrs)
	s.metrics.runDurationHistogram.Record(ctx, elapsed.Seconds())
}
