// Package heuristic implements the text-scanning declaration locator. It
// finds annotation and call sites with pattern matching over raw source text
// and pairs each annotation with the nearest following function definition by
// offset. No grammar is required, so it degrades gracefully file by file; the
// cost is approximate pairing when declarations are nested or non-adjacent.
package heuristic

import (
	"context"
	"regexp"
	"sort"

	"evalops/internal/application/common/slogger"
	"evalops/internal/domain/entity"
	"evalops/internal/domain/service"
	"evalops/internal/port/outbound"
)

// MarkerName is the declaration function and annotation name the locator
// scans for.
const MarkerName = "evalops_test"

var (
	// annotationPattern finds `@evalops_test(` annotation sites.
	annotationPattern = regexp.MustCompile(`@` + MarkerName + `\s*\(`)

	// callPattern finds bare `evalops_test(` call sites. The leading capture
	// group rejects annotation sites, member accesses and longer identifiers.
	callPattern = regexp.MustCompile(`(^|[^.\w@$])` + MarkerName + `\s*\(`)

	// functionPattern finds named function definitions, including async and
	// generator forms.
	functionPattern = regexp.MustCompile(`(?:async\s+)?function\s*\*?\s*([A-Za-z_$][A-Za-z0-9_$]*)\s*\(`)
)

// Locator implements outbound.DeclarationLocator via raw-text scanning.
type Locator struct{}

// NewLocator creates a new heuristic locator.
func NewLocator() *Locator {
	return &Locator{}
}

var _ outbound.DeclarationLocator = (*Locator)(nil)

// functionSite is one named function definition found in the file.
type functionSite struct {
	name        string
	startOffset int
	paramsOpen  int
}

// locatedCase pairs an assembled record with its site offset so annotation
// and call results can be merged back into source order.
type locatedCase struct {
	offset int
	record entity.ParsedTestCase
}

// LocateDeclarations scans one file's text for declarations and returns the
// assembled test cases in source order. A malformed site drops only itself.
func (l *Locator) LocateDeclarations(
	ctx context.Context,
	filePath string,
	source []byte,
) ([]entity.ParsedTestCase, error) {
	text := string(source)
	functions := scanFunctions(text)

	located := l.locateAnnotations(ctx, filePath, text, functions)
	located = append(located, l.locateCalls(ctx, filePath, text)...)

	sort.SliceStable(located, func(i, j int) bool {
		return located[i].offset < located[j].offset
	})

	cases := make([]entity.ParsedTestCase, 0, len(located))
	for _, lc := range located {
		cases = append(cases, lc.record)
	}
	return cases, nil
}

// scanFunctions collects all named function definitions ordered by offset.
func scanFunctions(text string) []functionSite {
	matches := functionPattern.FindAllStringSubmatchIndex(text, -1)
	sites := make([]functionSite, 0, len(matches))
	for _, m := range matches {
		sites = append(sites, functionSite{
			name:        text[m[2]:m[3]],
			startOffset: m[0],
			paramsOpen:  m[1] - 1,
		})
	}
	return sites
}

// locateAnnotations resolves `@evalops_test({...})` sites. Each annotation is
// paired with the first function definition whose starting offset is greater
// than the annotation's end offset; an annotation with no such function is
// dropped silently, since unrelated annotations share nothing but position.
func (l *Locator) locateAnnotations(
	ctx context.Context,
	filePath, text string,
	functions []functionSite,
) []locatedCase {
	var located []locatedCase

	for _, m := range annotationPattern.FindAllStringIndex(text, -1) {
		siteStart := m[0]
		literal := service.ExtractBracedBlock(text, m[1]-1)
		if literal == "" {
			slogger.Warn(ctx, "Annotation has no configuration object", slogger.Fields{
				"file": filePath,
				"line": service.LineNumberAt(text, siteStart),
			})
			continue
		}

		config, ok := l.evaluateConfig(ctx, filePath, text, siteStart, literal)
		if !ok {
			continue
		}

		annotationEnd := m[1] + len(literal)
		target, found := nearestFollowingFunction(functions, annotationEnd)
		if !found {
			// Expected for non-declaration annotations; not even logged.
			continue
		}

		paramsEnd := service.MatchingParenEnd(text, target.paramsOpen)
		if paramsEnd < 0 {
			continue
		}
		body := service.ExtractBracedBlock(text, paramsEnd)
		if body == "" {
			continue
		}

		metadata := entity.TestCaseMetadata{
			FilePath:     filePath,
			FunctionName: target.name,
			LineNumber:   service.LineNumberAt(text, siteStart),
		}
		located = append(located, locatedCase{
			offset: siteStart,
			record: entity.NewParsedTestCase(config, body, metadata),
		})
	}

	return located
}

// locateCalls resolves `evalops_test({...}, function)` call sites. The second
// argument is extracted directly from the call text, and the record carries
// the inline sentinel function name.
func (l *Locator) locateCalls(ctx context.Context, filePath, text string) []locatedCase {
	var located []locatedCase

	for _, m := range callPattern.FindAllStringSubmatchIndex(text, -1) {
		siteStart := m[3] // marker name starts after the boundary capture
		openParen := m[1] - 1

		literal := service.ExtractBracedBlock(text, openParen)
		if literal == "" {
			slogger.Warn(ctx, "Marker call has no configuration object", slogger.Fields{
				"file": filePath,
				"line": service.LineNumberAt(text, siteStart),
			})
			continue
		}

		config, ok := l.evaluateConfig(ctx, filePath, text, siteStart, literal)
		if !ok {
			continue
		}

		code, err := service.ExtractSecondCallArgument(text, openParen)
		if err != nil {
			slogger.Warn(ctx, "Marker call has no function argument", slogger.Fields{
				"file": filePath,
				"line": service.LineNumberAt(text, siteStart),
			})
			continue
		}

		metadata := entity.TestCaseMetadata{
			FilePath:     filePath,
			FunctionName: entity.InlineFunctionName,
			LineNumber:   service.LineNumberAt(text, siteStart),
		}
		located = append(located, locatedCase{
			offset: siteStart,
			record: entity.NewParsedTestCase(config, code, metadata),
		})
	}

	return located
}

// evaluateConfig runs the literal evaluator and config decoder for one site,
// logging and dropping the site on failure.
func (l *Locator) evaluateConfig(
	ctx context.Context,
	filePath, text string,
	siteStart int,
	literal string,
) (entity.DeclarationConfig, bool) {
	raw, err := service.EvaluateObjectLiteral(literal)
	if err != nil {
		slogger.Warn(ctx, "Declaration configuration failed to parse", slogger.Fields{
			"file":  filePath,
			"line":  service.LineNumberAt(text, siteStart),
			"error": err.Error(),
		})
		return entity.DeclarationConfig{}, false
	}

	config, err := service.DecodeDeclarationConfig(raw)
	if err != nil {
		slogger.Warn(ctx, "Declaration configuration is invalid", slogger.Fields{
			"file":  filePath,
			"line":  service.LineNumberAt(text, siteStart),
			"error": err.Error(),
		})
		return entity.DeclarationConfig{}, false
	}

	return config, true
}

// nearestFollowingFunction returns the first function whose start offset is
// strictly greater than afterOffset. The pairing is deliberately permissive:
// the matched function need not be the immediately next statement, only the
// nearest one by offset.
func nearestFollowingFunction(functions []functionSite, afterOffset int) (functionSite, bool) {
	for _, fn := range functions {
		if fn.startOffset > afterOffset {
			return fn, true
		}
	}
	return functionSite{}, false
}
