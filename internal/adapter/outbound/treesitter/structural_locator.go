package treesitter

import (
	"context"
	"errors"
	"sort"
	"strings"

	"evalops/internal/application/common/slogger"
	"evalops/internal/domain/entity"
	domainerrors "evalops/internal/domain/errors/domain"
	"evalops/internal/domain/service"
	"evalops/internal/domain/valueobject"
	"evalops/internal/port/outbound"
)

// MarkerName is the declaration function and annotation name the locator
// walks the syntax tree for.
const MarkerName = "evalops_test"

// Node types the locator inspects while walking the tree.
const (
	nodeTypeCallExpression  = "call_expression"
	nodeTypeDecorator       = "decorator"
	nodeTypeArguments       = "arguments"
	nodeTypeObject          = "object"
	nodeTypeIdentifier      = "identifier"
	nodeTypeStatementBlock  = "statement_block"
	nodeTypeFunctionDecl    = "function_declaration"
	nodeTypeGeneratorDecl   = "generator_function_declaration"
	nodeTypeMethodDef       = "method_definition"
	nodeTypePropertyIdent   = "property_identifier"
	nodeTypeFunctionExpr    = "function_expression"
	nodeTypeArrowFunction   = "arrow_function"
	nodeTypeGeneratorExpr   = "generator_function"
	nodeTypeLegacyFuncToken = "function" // older grammars name function_expression "function"
)

// Locator implements outbound.DeclarationLocator by building a syntax tree
// per file and reading exact sub-node spans. Grammar load failures are fatal
// for the whole discovery call; callers fall back to the heuristic strategy.
type Locator struct {
	parsers map[string]*Parser
}

// NewLocator creates a structural locator with parsers for every supported
// grammar. It fails with GrammarUnavailableError if any grammar cannot load.
func NewLocator() (*Locator, error) {
	parsers := make(map[string]*Parser, 2)
	for _, name := range []string{valueobject.LanguageJavaScript, valueobject.LanguageTypeScript} {
		lang, err := valueobject.NewLanguage(name)
		if err != nil {
			return nil, err
		}
		parser, err := NewParser(lang)
		if err != nil {
			return nil, err
		}
		parsers[name] = parser
	}
	return &Locator{parsers: parsers}, nil
}

var _ outbound.DeclarationLocator = (*Locator)(nil)

// locatedCase pairs an assembled record with its site offset so decorator and
// call results can be merged back into source order.
type locatedCase struct {
	offset uint32
	record entity.ParsedTestCase
}

// LocateDeclarations parses one file and walks its tree for marker calls and
// marker annotations. A declaration with a parse error in its literal is
// dropped and the walk continues unaffected.
func (l *Locator) LocateDeclarations(
	ctx context.Context,
	filePath string,
	source []byte,
) ([]entity.ParsedTestCase, error) {
	language := valueobject.DetectLanguageFromPath(filePath)
	parser, ok := l.parsers[language.Name()]
	if !ok {
		slogger.Debug(ctx, "File skipped: no grammar for language", slogger.Fields{
			"file":     filePath,
			"language": language.Name(),
		})
		return nil, nil
	}

	parseTree, err := parser.ParseSource(ctx, source)
	if err != nil {
		return nil, err
	}
	defer func() { _ = parseTree.Cleanup(ctx) }()

	located := l.locateMarkerCalls(ctx, filePath, parseTree)
	located = append(located, l.locateAnnotations(ctx, filePath, parseTree)...)

	sort.SliceStable(located, func(i, j int) bool {
		return located[i].offset < located[j].offset
	})

	cases := make([]entity.ParsedTestCase, 0, len(located))
	for _, lc := range located {
		cases = append(cases, lc.record)
	}
	return cases, nil
}

// locateMarkerCalls finds call_expression nodes whose callee is the marker
// name. The tree gives exact argument spans, so the second argument needs no
// boundary extraction.
func (l *Locator) locateMarkerCalls(
	ctx context.Context,
	filePath string,
	parseTree *valueobject.ParseTree,
) []locatedCase {
	var located []locatedCase

	for _, call := range parseTree.GetNodesByType(nodeTypeCallExpression) {
		callee := firstChildOfType(call, nodeTypeIdentifier)
		if callee == nil {
			continue
		}
		calleeText, err := parseTree.GetNodeText(callee)
		if err != nil || calleeText != MarkerName {
			continue
		}

		args := firstChildOfType(call, nodeTypeArguments)
		if args == nil {
			continue
		}
		positional := namedArguments(args)
		if len(positional) < 2 {
			slogger.Warn(ctx, "Marker call does not have two arguments", slogger.Fields{
				"file": filePath,
				"line": int(call.StartPos.Row) + 1,
			})
			continue
		}
		if positional[0].Type != nodeTypeObject {
			continue
		}

		literal, err := parseTree.GetNodeText(positional[0])
		if err != nil {
			continue
		}
		config, ok := l.evaluateConfig(ctx, filePath, int(call.StartPos.Row)+1, literal)
		if !ok {
			continue
		}

		code, err := parseTree.GetNodeText(positional[1])
		if err != nil {
			continue
		}

		metadata := entity.TestCaseMetadata{
			FilePath:     filePath,
			FunctionName: entity.InlineFunctionName,
			LineNumber:   int(call.StartPos.Row) + 1,
		}
		located = append(located, locatedCase{
			offset: call.StartByte,
			record: entity.NewParsedTestCase(config, code, metadata),
		})
	}

	return located
}

// locateAnnotations finds decorator nodes carrying the marker name and pairs
// each with the nearest function node whose start byte follows the
// decorator's end byte. The annotation form is not grammatical JavaScript on
// bare functions, so grammars may only surface these decorators inside error
// recovery; sites the grammar cannot represent are simply absent from the
// tree and therefore dropped.
func (l *Locator) locateAnnotations(
	ctx context.Context,
	filePath string,
	parseTree *valueobject.ParseTree,
) []locatedCase {
	decorators := parseTree.GetNodesByType(nodeTypeDecorator)
	if len(decorators) == 0 {
		return nil
	}

	functions := collectFunctionNodes(parseTree)
	var located []locatedCase

	for _, decorator := range decorators {
		text, err := parseTree.GetNodeText(decorator)
		if err != nil || !strings.HasPrefix(strings.TrimPrefix(text, "@"), MarkerName) {
			continue
		}

		literal := service.ExtractBracedBlock(text, 0)
		if literal == "" {
			continue
		}
		config, ok := l.evaluateConfig(ctx, filePath, int(decorator.StartPos.Row)+1, literal)
		if !ok {
			continue
		}

		target := nearestFollowingFunction(functions, decorator.EndByte)
		if target == nil {
			// Expected for unrelated decorators; dropped silently.
			continue
		}

		name := functionName(parseTree, target)
		body := firstChildOfType(target, nodeTypeStatementBlock)
		if body == nil {
			continue
		}
		code, err := parseTree.GetNodeText(body)
		if err != nil {
			continue
		}

		metadata := entity.TestCaseMetadata{
			FilePath:     filePath,
			FunctionName: name,
			LineNumber:   int(decorator.StartPos.Row) + 1,
		}
		located = append(located, locatedCase{
			offset: decorator.StartByte,
			record: entity.NewParsedTestCase(config, code, metadata),
		})
	}

	return located
}

// evaluateConfig runs the literal evaluator and config decoder for one site,
// logging and dropping the site on failure.
func (l *Locator) evaluateConfig(
	ctx context.Context,
	filePath string,
	line int,
	literal string,
) (entity.DeclarationConfig, bool) {
	raw, err := service.EvaluateObjectLiteral(literal)
	if err != nil {
		slogger.Warn(ctx, "Declaration configuration failed to parse", slogger.Fields{
			"file":  filePath,
			"line":  line,
			"error": err.Error(),
		})
		return entity.DeclarationConfig{}, false
	}

	config, err := service.DecodeDeclarationConfig(raw)
	if err != nil {
		slogger.Warn(ctx, "Declaration configuration is invalid", slogger.Fields{
			"file":  filePath,
			"line":  line,
			"error": err.Error(),
		})
		return entity.DeclarationConfig{}, false
	}
	return config, true
}

// firstChildOfType returns the first direct child of the given type.
func firstChildOfType(node *valueobject.ParseNode, nodeType string) *valueobject.ParseNode {
	for _, child := range node.Children {
		if child.Type == nodeType {
			return child
		}
	}
	return nil
}

// namedArguments filters an arguments node down to value-bearing children,
// dropping parentheses and commas.
func namedArguments(args *valueobject.ParseNode) []*valueobject.ParseNode {
	var result []*valueobject.ParseNode
	for _, child := range args.Children {
		switch child.Type {
		case "(", ")", ",", "comment":
			continue
		default:
			result = append(result, child)
		}
	}
	return result
}

// collectFunctionNodes gathers every function-shaped node ordered by start
// byte.
func collectFunctionNodes(parseTree *valueobject.ParseTree) []*valueobject.ParseNode {
	var functions []*valueobject.ParseNode
	for _, nodeType := range []string{
		nodeTypeFunctionDecl,
		nodeTypeGeneratorDecl,
		nodeTypeMethodDef,
		nodeTypeFunctionExpr,
		nodeTypeGeneratorExpr,
		nodeTypeLegacyFuncToken,
		nodeTypeArrowFunction,
	} {
		functions = append(functions, parseTree.GetNodesByType(nodeType)...)
	}
	sort.Slice(functions, func(i, j int) bool {
		return functions[i].StartByte < functions[j].StartByte
	})
	return functions
}

// nearestFollowingFunction returns the first function starting strictly after
// the given byte offset. Pairing is permissive: any later offset qualifies,
// not only the immediately next statement.
func nearestFollowingFunction(functions []*valueobject.ParseNode, after uint32) *valueobject.ParseNode {
	for _, fn := range functions {
		if fn.StartByte > after {
			return fn
		}
	}
	return nil
}

// functionName extracts a function node's name, falling back to the inline
// sentinel for anonymous function values.
func functionName(parseTree *valueobject.ParseTree, fn *valueobject.ParseNode) string {
	for _, nameType := range []string{nodeTypeIdentifier, nodeTypePropertyIdent} {
		if nameNode := firstChildOfType(fn, nameType); nameNode != nil {
			if name, err := parseTree.GetNodeText(nameNode); err == nil && name != "" {
				return name
			}
		}
	}
	return entity.InlineFunctionName
}

// IsGrammarUnavailable reports whether err is a grammar load failure, so the
// discovery service can decide to fall back to the heuristic strategy.
func IsGrammarUnavailable(err error) bool {
	return errors.Is(err, domainerrors.ErrGrammarUnavailable)
}
