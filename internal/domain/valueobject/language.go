package valueobject

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// DetectionMethod represents how a language was detected.
type DetectionMethod int

const (
	DetectionMethodUnknown DetectionMethod = iota
	DetectionMethodExtension
	DetectionMethodFallback
)

// Supported languages as constants for consistency.
const (
	LanguageJavaScript = "JavaScript"
	LanguageTypeScript = "TypeScript"
	LanguageUnknown    = "Unknown"
)

// Language represents a programming language detected for a scanned source
// file. It serves as a value object in the domain layer for dispatching
// declaration discovery to the appropriate grammar.
type Language struct {
	name            string
	extensions      []string
	detectionMethod DetectionMethod
}

// NewLanguage creates a new Language value object with validation.
func NewLanguage(name string) (Language, error) {
	normalized := strings.TrimSpace(name)
	if normalized == "" {
		return Language{}, errors.New("language name cannot be empty")
	}

	switch normalized {
	case LanguageJavaScript:
		return Language{
			name:            normalized,
			extensions:      []string{".js", ".jsx", ".mjs", ".cjs"},
			detectionMethod: DetectionMethodUnknown,
		}, nil
	case LanguageTypeScript:
		return Language{
			name:            normalized,
			extensions:      []string{".ts", ".tsx", ".mts", ".cts"},
			detectionMethod: DetectionMethodUnknown,
		}, nil
	case LanguageUnknown:
		return Language{name: normalized, detectionMethod: DetectionMethodFallback}, nil
	default:
		return Language{}, fmt.Errorf("unsupported language: %s", normalized)
	}
}

// DetectLanguageFromPath determines the language of a file from its extension.
// Unrecognized extensions yield the Unknown language rather than an error so
// callers can decide whether to skip the file.
func DetectLanguageFromPath(path string) Language {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".js", ".jsx", ".mjs", ".cjs":
		lang, _ := NewLanguage(LanguageJavaScript)
		lang.detectionMethod = DetectionMethodExtension
		return lang
	case ".ts", ".tsx", ".mts", ".cts":
		lang, _ := NewLanguage(LanguageTypeScript)
		lang.detectionMethod = DetectionMethodExtension
		return lang
	default:
		lang, _ := NewLanguage(LanguageUnknown)
		return lang
	}
}

// Name returns the canonical language name.
func (l Language) Name() string {
	return l.name
}

// Extensions returns the file extensions associated with the language.
func (l Language) Extensions() []string {
	return l.extensions
}

// DetectionMethod returns how the language was detected.
func (l Language) DetectionMethod() DetectionMethod {
	return l.detectionMethod
}

// IsUnknown reports whether the language could not be determined.
func (l Language) IsUnknown() bool {
	return l.name == LanguageUnknown
}

// Equal compares two languages by canonical name.
func (l Language) Equal(other Language) bool {
	return l.name == other.name
}

// String returns the string representation of the language.
func (l Language) String() string {
	return l.name
}
