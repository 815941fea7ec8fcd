// Package outbound defines the driven-side ports of the discovery engine.
package outbound

import (
	"context"

	"evalops/internal/domain/entity"
)

// FileSelector resolves candidate file paths from glob-style inclusion
// patterns rooted at a working directory, applying the fixed directory
// exclusion list. The returned order is deterministic for a fixed directory
// snapshot.
type FileSelector interface {
	SelectFiles(ctx context.Context, workDir string, patterns []string) ([]string, error)
}

// DeclarationLocator finds test declarations in one source file and returns
// the assembled records in source order. A malformed declaration never aborts
// the rest of the file; implementations drop it and continue.
//
// Two interchangeable strategies exist: the structural (syntax-tree) adapter
// and the heuristic (text-scanning) adapter.
type DeclarationLocator interface {
	LocateDeclarations(ctx context.Context, filePath string, source []byte) ([]entity.ParsedTestCase, error)
}

// TestCaseUploader sends discovered test cases to the evaluation API.
type TestCaseUploader interface {
	UploadTestCases(ctx context.Context, cases []entity.ParsedTestCase) (*UploadResult, error)
}

// UploadResult reports the outcome of one upload run.
type UploadResult struct {
	RunID    string
	Uploaded int
	Skipped  int
}
