// Package fileselector resolves candidate source files for declaration
// discovery from glob-style inclusion patterns.
package fileselector

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"

	"evalops/internal/application/common/slogger"
	"evalops/internal/port/outbound"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultPatterns match files carrying the dedicated evaluation suffix or the
// generic test suffix, for both source extensions.
//
//nolint:gochecknoglobals // Immutable defaults shared with the config layer.
var DefaultPatterns = []string{
	"**/*.eval.ts",
	"**/*.eval.js",
	"**/*.test.ts",
	"**/*.test.js",
}

// excludedDirectories are path segments that are never scanned, even when a
// file below them matches an inclusion pattern.
//
//nolint:gochecknoglobals // Immutable exclusion list.
var excludedDirectories = map[string]struct{}{
	"node_modules": {},
	"dist":         {},
	"build":        {},
}

// Selector implements the outbound.FileSelector port over the local
// filesystem.
type Selector struct{}

// NewSelector creates a new file selector.
func NewSelector() *Selector {
	return &Selector{}
}

var _ outbound.FileSelector = (*Selector)(nil)

// SelectFiles walks workDir and returns the deduplicated, sorted set of
// workDir-relative paths matching any of the inclusion patterns. An empty
// pattern list falls back to DefaultPatterns. Unreadable directories are
// skipped silently; a missing optional directory is not an error.
func (s *Selector) SelectFiles(ctx context.Context, workDir string, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	if workDir == "" {
		workDir = "."
	}

	seen := make(map[string]struct{})
	walkErr := filepath.WalkDir(workDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, not fatal.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil //nolint:nilerr // Skip-and-continue is the contract.
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		rel, relErr := filepath.Rel(workDir, path)
		if relErr != nil {
			return nil //nolint:nilerr // Entries outside workDir are ignored.
		}

		if d.IsDir() {
			if _, excluded := excludedDirectories[d.Name()]; excluded && rel != "." {
				return filepath.SkipDir
			}
			return nil
		}

		relSlash := filepath.ToSlash(rel)
		for _, pattern := range patterns {
			matched, matchErr := doublestar.Match(pattern, relSlash)
			if matchErr != nil {
				slogger.Warn(ctx, "Invalid inclusion pattern skipped", slogger.Fields{
					"pattern": pattern,
					"error":   matchErr.Error(),
				})
				continue
			}
			if matched {
				seen[rel] = struct{}{}
				break
			}
		}
		return nil
	})
	if walkErr != nil {
		// Only context cancellation propagates out of the walk.
		return nil, walkErr
	}

	paths := make([]string, 0, len(seen))
	for path := range seen {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	slogger.Debug(ctx, "File selection completed", slogger.Fields{
		"work_dir":      workDir,
		"pattern_count": len(patterns),
		"matched_files": len(paths),
	})

	return paths, nil
}
