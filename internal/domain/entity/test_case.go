package entity

import (
	"fmt"

	"evalops/internal/domain/valueobject"
)

// InlineFunctionName is the sentinel function name used when a declaration is
// a bare marker call carrying an inline function value rather than an
// annotated named function.
const InlineFunctionName = "inline_test"

// codeVariableKey is the reserved variable holding the extracted source text.
const codeVariableKey = "code"

// DeclarationConfig is the parsed configuration object attached to a test
// declaration. All fields are optional; absence is semantically distinct from
// empty, so slices and maps stay nil when the declaration omits them.
type DeclarationConfig struct {
	Prompt      valueobject.Prompt
	Assertions  []valueobject.AssertionSpec
	Variables   map[string]interface{}
	Description string
	Tags        []string
	Skip        *bool
}

// TestCaseMetadata records where a declaration was found. Description and
// Tags mirror the config for quick inspection without re-parsing.
type TestCaseMetadata struct {
	FilePath     string   `json:"filePath"              yaml:"filePath"`
	FunctionName string   `json:"functionName"          yaml:"functionName"`
	LineNumber   int      `json:"lineNumber"            yaml:"lineNumber"`
	Description  string   `json:"description,omitempty" yaml:"description,omitempty"`
	Tags         []string `json:"tags,omitempty"        yaml:"tags,omitempty"`
}

// ParsedTestCase is the externally visible record produced for each
// discovered declaration.
type ParsedTestCase struct {
	Description string                      `json:"description"      yaml:"description"`
	Variables   map[string]interface{}      `json:"vars"             yaml:"vars"`
	Assertions  []valueobject.AssertionSpec `json:"assert"           yaml:"assert"`
	Prompt      interface{}                 `json:"prompt,omitempty" yaml:"prompt,omitempty"`
	Skip        *bool                       `json:"skip,omitempty"   yaml:"skip,omitempty"`
	Metadata    TestCaseMetadata            `json:"metadata"         yaml:"metadata"`
}

// NewParsedTestCase assembles a discovered declaration into its final record.
// It is a total function: defaulting rules cover every input, so there is no
// failure path.
//
// Rules:
//   - Description falls back to "Test case for <functionName>", or
//     "Inline test case" for bare-call declarations.
//   - Variables always contain a "code" entry equal to the extracted source
//     text; config variables are merged in and may override it only when
//     explicitly named "code".
//   - Assertions are never nil: a declaration without assertions yields an
//     empty slice.
func NewParsedTestCase(config DeclarationConfig, code string, metadata TestCaseMetadata) ParsedTestCase {
	description := config.Description
	if description == "" {
		if metadata.FunctionName == InlineFunctionName || metadata.FunctionName == "" {
			description = "Inline test case"
		} else {
			description = fmt.Sprintf("Test case for %s", metadata.FunctionName)
		}
	}

	variables := make(map[string]interface{}, len(config.Variables)+1)
	variables[codeVariableKey] = code
	for k, v := range config.Variables {
		variables[k] = v
	}

	assertions := config.Assertions
	if assertions == nil {
		assertions = []valueobject.AssertionSpec{}
	}

	metadata.Description = config.Description
	if len(config.Tags) > 0 {
		metadata.Tags = append([]string(nil), config.Tags...)
	}

	return ParsedTestCase{
		Description: description,
		Variables:   variables,
		Assertions:  assertions,
		Prompt:      config.Prompt.Value(),
		Skip:        config.Skip,
		Metadata:    metadata,
	}
}
