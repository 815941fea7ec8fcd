package valueobject

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"evalops/internal/application/common/slogger"

	tree_sitter "github.com/alexaandru/go-tree-sitter-bare"
)

// ParseTree represents a tree-sitter parse tree as a value object.
type ParseTree struct {
	language       Language
	rootNode       *ParseNode
	source         []byte
	metadata       ParseMetadata
	createdAt      time.Time
	isCleanedUp    bool
	mu             sync.RWMutex
	treeSitterTree *tree_sitter.Tree // Reference for proper cleanup
}

// ParseNode represents a node in the parse tree.
type ParseNode struct {
	Type      string
	StartByte uint32
	EndByte   uint32
	StartPos  Position
	EndPos    Position
	Children  []*ParseNode
}

// Position represents a position in source code.
type Position struct {
	Row    uint32
	Column uint32
}

// ParseMetadata contains metadata about the parse operation.
type ParseMetadata struct {
	ParseDuration     time.Duration
	TreeSitterVersion string
	GrammarVersion    string
	NodeCount         int
	MaxDepth          int
	ErrorCount        int
}

// NewParseTree creates a new ParseTree value object with validation.
func NewParseTree(
	ctx context.Context,
	language Language,
	rootNode *ParseNode,
	source []byte,
	metadata ParseMetadata,
) (*ParseTree, error) {
	if rootNode == nil {
		return nil, errors.New("root node cannot be nil")
	}

	if len(source) == 0 {
		return nil, errors.New("source code cannot be empty")
	}

	if int64(rootNode.EndByte) > int64(len(source)) {
		return nil, errors.New("root node end byte exceeds source length")
	}

	pt := &ParseTree{
		language:    language,
		rootNode:    rootNode,
		source:      source,
		metadata:    metadata,
		createdAt:   time.Now(),
		isCleanedUp: false,
	}

	slogger.Debug(ctx, "ParseTree created", slogger.Fields{
		"language":       language.Name(),
		"node_count":     metadata.NodeCount,
		"max_depth":      metadata.MaxDepth,
		"source_length":  len(source),
		"parse_duration": metadata.ParseDuration.String(),
	})

	return pt, nil
}

// NewParseMetadata creates a new ParseMetadata value object.
func NewParseMetadata(duration time.Duration, treeSitterVersion, grammarVersion string) (ParseMetadata, error) {
	if duration < 0 {
		return ParseMetadata{}, errors.New("parse duration cannot be negative")
	}

	return ParseMetadata{
		ParseDuration:     duration,
		TreeSitterVersion: treeSitterVersion,
		GrammarVersion:    grammarVersion,
	}, nil
}

// SetTreeSitterTree sets the tree-sitter tree reference so Cleanup can
// release the native tree.
func (pt *ParseTree) SetTreeSitterTree(tree *tree_sitter.Tree) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	pt.treeSitterTree = tree
}

// Language returns the language of the parse tree.
func (pt *ParseTree) Language() Language {
	return pt.language
}

// RootNode returns the root node of the parse tree.
func (pt *ParseTree) RootNode() *ParseNode {
	return pt.rootNode
}

// Source returns the source code of the parse tree.
func (pt *ParseTree) Source() []byte {
	return pt.source
}

// Metadata returns the metadata of the parse tree.
func (pt *ParseTree) Metadata() ParseMetadata {
	return pt.metadata
}

// CreatedAt returns when the parse tree was created.
func (pt *ParseTree) CreatedAt() time.Time {
	return pt.createdAt
}

// IsCleanedUp returns whether the parse tree has been cleaned up.
func (pt *ParseTree) IsCleanedUp() bool {
	pt.mu.RLock()
	defer pt.mu.RUnlock()
	return pt.isCleanedUp
}

// Cleanup releases the underlying tree-sitter tree. Safe to call twice.
func (pt *ParseTree) Cleanup(ctx context.Context) error {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	if pt.isCleanedUp {
		return nil
	}
	if pt.treeSitterTree != nil {
		pt.treeSitterTree.Close()
		pt.treeSitterTree = nil
	}
	pt.isCleanedUp = true

	slogger.Debug(ctx, "ParseTree cleaned up", slogger.Fields{
		"language": pt.language.Name(),
	})
	return nil
}

// GetNodesByType returns all nodes of a specific type in document order.
func (pt *ParseTree) GetNodesByType(nodeType string) []*ParseNode {
	if pt.IsCleanedUp() {
		return []*ParseNode{}
	}

	var result []*ParseNode
	pt.collectNodesByType(pt.rootNode, nodeType, &result)
	return result
}

// collectNodesByType recursively collects nodes of a specific type.
func (pt *ParseTree) collectNodesByType(node *ParseNode, nodeType string, result *[]*ParseNode) {
	if node == nil {
		return
	}

	if node.Type == nodeType {
		*result = append(*result, node)
	}

	for _, child := range node.Children {
		pt.collectNodesByType(child, nodeType, result)
	}
}

// GetNodeText returns the exact source text span of a node.
func (pt *ParseTree) GetNodeText(node *ParseNode) (string, error) {
	if node == nil {
		return "", errors.New("node cannot be nil")
	}
	if int64(node.EndByte) > int64(len(pt.source)) {
		return "", fmt.Errorf("node end byte %d exceeds source length %d", node.EndByte, len(pt.source))
	}
	if node.StartByte > node.EndByte {
		return "", fmt.Errorf("node start byte %d after end byte %d", node.StartByte, node.EndByte)
	}
	return string(pt.source[node.StartByte:node.EndByte]), nil
}

// ClampUintToUint32 converts a uint to uint32, clamping values that exceed
// the uint32 range.
func ClampUintToUint32(val uint) uint32 {
	if uint64(val) > uint64(^uint32(0)) {
		return ^uint32(0)
	}
	return uint32(val)
}
