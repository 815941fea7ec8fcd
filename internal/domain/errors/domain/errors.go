// Package domain provides domain-specific error definitions and utilities.
package domain

import (
	"errors"
	"fmt"
)

// Discovery-related sentinel errors.
var (
	ErrNoBalancedBlock      = errors.New("no balanced block found")
	ErrNoSecondArgument     = errors.New("call has no second argument")
	ErrUnmatchedAnnotation  = errors.New("annotation has no following function")
	ErrUnsupportedLanguage  = errors.New("unsupported language")
	ErrEmptySource          = errors.New("source cannot be empty")
	ErrNoTestCasesSelected  = errors.New("no files matched the inclusion patterns")
	ErrUploadNotConfigured  = errors.New("upload API is not configured")
	ErrBudgetExceeded       = errors.New("estimated run cost exceeds the configured budget")
	ErrUnknownCostModel     = errors.New("no cost table entry for model")
	ErrConfigAlreadyExists  = errors.New("configuration file already exists")
	ErrUnknownStrategy      = errors.New("unknown discovery strategy")
	ErrGrammarUnavailable   = errors.New("language grammar unavailable")
	ErrDeclarationMalformed = errors.New("declaration configuration is malformed")
)

// DeclarationParseError reports a malformed object literal in a declaration's
// configuration argument. It carries the raw literal text and, where known,
// the 1-based line number of the declaration site. Policy: callers drop that
// declaration only and continue scanning the remainder of the file.
type DeclarationParseError struct {
	RawText string
	Line    int
	Reason  string
}

// NewDeclarationParseError creates a DeclarationParseError. Line may be zero
// when the site's line number is not known.
func NewDeclarationParseError(rawText string, line int, reason string) *DeclarationParseError {
	return &DeclarationParseError{RawText: rawText, Line: line, Reason: reason}
}

// Error implements the error interface.
func (e *DeclarationParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed declaration at line %d: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("malformed declaration: %s", e.Reason)
}

// Is allows errors.Is matching against ErrDeclarationMalformed.
func (e *DeclarationParseError) Is(target error) bool {
	return target == ErrDeclarationMalformed
}

// GrammarUnavailableError reports that a required tree-sitter grammar failed
// to load. Policy: fatal for the structural strategy's whole discovery call;
// the caller falls back to the heuristic strategy or aborts.
type GrammarUnavailableError struct {
	Language string
	Err      error
}

// NewGrammarUnavailableError creates a GrammarUnavailableError.
func NewGrammarUnavailableError(language string, err error) *GrammarUnavailableError {
	return &GrammarUnavailableError{Language: language, Err: err}
}

// Error implements the error interface.
func (e *GrammarUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("grammar unavailable for %s: %v", e.Language, e.Err)
	}
	return fmt.Sprintf("grammar unavailable for %s", e.Language)
}

// Unwrap returns the underlying grammar load failure.
func (e *GrammarUnavailableError) Unwrap() error {
	return e.Err
}

// Is allows errors.Is matching against ErrGrammarUnavailable.
func (e *GrammarUnavailableError) Is(target error) bool {
	return target == ErrGrammarUnavailable
}

// FileSystemError reports an unreadable file or directory during selection or
// read. Policy: skip and log; never aborts the overall discovery call.
type FileSystemError struct {
	Path string
	Op   string
	Err  error
}

// NewFileSystemError creates a FileSystemError for the given operation.
func NewFileSystemError(op, path string, err error) *FileSystemError {
	return &FileSystemError{Path: path, Op: op, Err: err}
}

// Error implements the error interface.
func (e *FileSystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying filesystem error.
func (e *FileSystemError) Unwrap() error {
	return e.Err
}
