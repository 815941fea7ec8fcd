// Package treesitter implements the structural declaration locator. It
// parses each file into a full syntax tree via go-sitter-forest grammars and
// retrieves exact sub-node text spans, trading a grammar dependency for
// precision the heuristic locator cannot offer.
package treesitter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"evalops/internal/application/common/slogger"
	domainerrors "evalops/internal/domain/errors/domain"
	"evalops/internal/domain/valueobject"

	"github.com/alexaandru/go-sitter-forest/javascript"
	"github.com/alexaandru/go-sitter-forest/typescript"
	tree_sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// treeSitterVersion is the ABI version reported in parse metadata.
const treeSitterVersion = "0.25.0"

// Parser wraps a tree-sitter parser configured for one language grammar.
type Parser struct {
	parser   *tree_sitter.Parser
	language valueobject.Language
}

// NewParser creates a parser for the given language. A grammar that fails to
// load yields a GrammarUnavailableError, which is fatal for the structural
// strategy: without a grammar it cannot proceed at all.
func NewParser(language valueobject.Language) (*Parser, error) {
	var grammar *tree_sitter.Language

	switch language.Name() {
	case valueobject.LanguageJavaScript:
		grammar = tree_sitter.NewLanguage(javascript.GetLanguage())
	case valueobject.LanguageTypeScript:
		grammar = tree_sitter.NewLanguage(typescript.GetLanguage())
	default:
		return nil, domainerrors.NewGrammarUnavailableError(language.Name(), domainerrors.ErrUnsupportedLanguage)
	}

	parser := tree_sitter.NewParser()
	if !parser.SetLanguage(grammar) {
		return nil, domainerrors.NewGrammarUnavailableError(
			language.Name(),
			errors.New("tree-sitter rejected the grammar"),
		)
	}

	return &Parser{parser: parser, language: language}, nil
}

// ParseSource parses source code and returns a ParseTree value object.
func (p *Parser) ParseSource(ctx context.Context, source []byte) (*valueobject.ParseTree, error) {
	if len(source) == 0 {
		return nil, domainerrors.ErrEmptySource
	}

	startTime := time.Now()

	tree, err := p.parser.ParseString(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("tree-sitter parsing failed: %w", err)
	}

	parseDuration := time.Since(startTime)
	rootNode := convertTreeSitterNode(tree.RootNode())

	metadata, err := valueobject.NewParseMetadata(parseDuration, treeSitterVersion, p.language.Name())
	if err != nil {
		tree.Close()
		return nil, fmt.Errorf("failed to create parse metadata: %w", err)
	}
	metadata.NodeCount = countNodes(rootNode)
	metadata.MaxDepth = calculateMaxDepth(rootNode, 0)

	parseTree, err := valueobject.NewParseTree(ctx, p.language, rootNode, source, metadata)
	if err != nil {
		tree.Close()
		return nil, fmt.Errorf("failed to create parse tree: %w", err)
	}
	parseTree.SetTreeSitterTree(tree)

	slogger.Debug(ctx, "Source parsed", slogger.Fields{
		"language":       p.language.Name(),
		"source_length":  len(source),
		"node_count":     metadata.NodeCount,
		"max_depth":      metadata.MaxDepth,
		"parse_duration": parseDuration.String(),
	})

	return parseTree, nil
}

// convertTreeSitterNode converts a tree-sitter node to the domain ParseNode
// structure.
func convertTreeSitterNode(tsNode tree_sitter.Node) *valueobject.ParseNode {
	node := &valueobject.ParseNode{
		Type:      tsNode.Type(),
		StartByte: valueobject.ClampUintToUint32(tsNode.StartByte()),
		EndByte:   valueobject.ClampUintToUint32(tsNode.EndByte()),
		StartPos: valueobject.Position{
			Row:    valueobject.ClampUintToUint32(tsNode.StartPoint().Row),
			Column: valueobject.ClampUintToUint32(tsNode.StartPoint().Column),
		},
		EndPos: valueobject.Position{
			Row:    valueobject.ClampUintToUint32(tsNode.EndPoint().Row),
			Column: valueobject.ClampUintToUint32(tsNode.EndPoint().Column),
		},
		Children: make([]*valueobject.ParseNode, 0),
	}

	childCount := tsNode.ChildCount()
	for i := range childCount {
		child := tsNode.Child(i)
		if !child.IsNull() {
			node.Children = append(node.Children, convertTreeSitterNode(child))
		}
	}

	return node
}

// countNodes counts the total number of nodes in the parse tree.
func countNodes(node *valueobject.ParseNode) int {
	if node == nil {
		return 0
	}
	count := 1
	for _, child := range node.Children {
		count += countNodes(child)
	}
	return count
}

// calculateMaxDepth calculates the maximum depth of the parse tree.
func calculateMaxDepth(node *valueobject.ParseNode, depth int) int {
	if node == nil {
		return depth
	}
	maxDepth := depth
	for _, child := range node.Children {
		if childDepth := calculateMaxDepth(child, depth+1); childDepth > maxDepth {
			maxDepth = childDepth
		}
	}
	return maxDepth
}
