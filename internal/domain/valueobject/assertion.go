package valueobject

import (
	"errors"
	"fmt"
)

// AssertionKind identifies how an assertion compares the evaluated output
// against its value.
type AssertionKind string

// The fixed set of assertion kinds a declaration may use.
const (
	AssertionContains    AssertionKind = "contains"
	AssertionNotContains AssertionKind = "not-contains"
	AssertionEquals      AssertionKind = "equals"
	AssertionNotEquals   AssertionKind = "not-equals"
	AssertionLLMJudge    AssertionKind = "llm-judge"
	AssertionRegex       AssertionKind = "regex"
	AssertionJSONPath    AssertionKind = "json-path"
	AssertionSimilarity  AssertionKind = "similarity"
)

// allAssertionKinds is the lookup set for kind validation.
//
//nolint:gochecknoglobals // Immutable lookup table.
var allAssertionKinds = map[AssertionKind]struct{}{
	AssertionContains:    {},
	AssertionNotContains: {},
	AssertionEquals:      {},
	AssertionNotEquals:   {},
	AssertionLLMJudge:    {},
	AssertionRegex:       {},
	AssertionJSONPath:    {},
	AssertionSimilarity:  {},
}

// ParseAssertionKind validates a raw kind tag from a declaration.
func ParseAssertionKind(raw string) (AssertionKind, error) {
	kind := AssertionKind(raw)
	if _, ok := allAssertionKinds[kind]; !ok {
		return "", fmt.Errorf("unknown assertion kind: %q", raw)
	}
	return kind, nil
}

// IsValid reports whether the kind is a member of the fixed set.
func (k AssertionKind) IsValid() bool {
	_, ok := allAssertionKinds[k]
	return ok
}

// String returns the wire tag of the assertion kind.
func (k AssertionKind) String() string {
	return string(k)
}

// AssertionSpec describes one assertion attached to a test declaration.
// Weight and Threshold are optional; absence is distinct from zero, so both
// are pointers. Weight is expected to fall in [0,1] but is not strictly
// validated at discovery time: validation is the upload API's job.
type AssertionSpec struct {
	Kind      AssertionKind `json:"type"                yaml:"type"`
	Value     interface{}   `json:"value"               yaml:"value"`
	Weight    *float64      `json:"weight,omitempty"    yaml:"weight,omitempty"`
	Threshold *float64      `json:"threshold,omitempty" yaml:"threshold,omitempty"`
}

// NewAssertionSpec creates an AssertionSpec with kind validation.
func NewAssertionSpec(kind string, value interface{}) (AssertionSpec, error) {
	parsed, err := ParseAssertionKind(kind)
	if err != nil {
		return AssertionSpec{}, err
	}
	if value == nil {
		return AssertionSpec{}, errors.New("assertion value cannot be nil")
	}
	return AssertionSpec{Kind: parsed, Value: value}, nil
}

// WithWeight returns a copy of the spec carrying the given weight.
func (a AssertionSpec) WithWeight(weight float64) AssertionSpec {
	a.Weight = &weight
	return a
}

// WithThreshold returns a copy of the spec carrying the given threshold.
func (a AssertionSpec) WithThreshold(threshold float64) AssertionSpec {
	a.Threshold = &threshold
	return a
}
