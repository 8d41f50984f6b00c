package parser

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/ludo-technologies/pytree/domain"
)

// maxSnippetLen bounds the offending text quoted in a diagnostic message
const maxSnippetLen = 40

// Parser provides Python code parsing capabilities using tree-sitter
type Parser struct {
	parser *sitter.Parser
}

// New creates a new Parser instance with Python grammar
func New() *Parser {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	return &Parser{
		parser: parser,
	}
}

// ParseResult represents the result of parsing Python code
type ParseResult struct {
	Tree       *sitter.Tree
	RootNode   *sitter.Node
	SourceCode []byte
}

// Parse parses Python source code and returns the concrete syntax tree.
// Syntax errors do not fail the parse: tree-sitter recovers and marks them
// with ERROR and MISSING nodes, which Diagnostics reports.
func (p *Parser) Parse(ctx context.Context, source []byte) (*ParseResult, error) {
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse source: %w", err)
	}
	if tree == nil {
		return nil, fmt.Errorf("parser returned no tree")
	}

	return &ParseResult{
		Tree:       tree,
		RootNode:   tree.RootNode(),
		SourceCode: source,
	}, nil
}

// WalkTree traverses the tree and calls the visitor function for each node
func (p *Parser) WalkTree(node *sitter.Node, visitor func(*sitter.Node) error) error {
	if err := visitor(node); err != nil {
		return err
	}

	childCount := int(node.ChildCount())
	for i := 0; i < childCount; i++ {
		child := node.Child(i)
		if err := p.WalkTree(child, visitor); err != nil {
			return err
		}
	}

	return nil
}

// CountNodes returns the number of nodes in the tree rooted at node
func (p *Parser) CountNodes(node *sitter.Node) int {
	count := 0
	_ = p.WalkTree(node, func(*sitter.Node) error {
		count++
		return nil
	})
	return count
}

// HasSyntaxErrors reports whether node or any of its descendants is an
// ERROR or MISSING node
func (p *Parser) HasSyntaxErrors(node *sitter.Node) bool {
	return node != nil && node.HasError()
}

// Diagnostics reports every ERROR and MISSING node of the tree to the listener,
// in document order, and returns how many were reported.
func (p *Parser) Diagnostics(result *ParseResult, listener domain.DiagnosticListener) int {
	if result == nil || result.RootNode == nil {
		return 0
	}
	if !p.HasSyntaxErrors(result.RootNode) {
		return 0
	}

	count := 0
	_ = p.WalkTree(result.RootNode, func(n *sitter.Node) error {
		d, ok := diagnosticFor(n, result.SourceCode)
		if ok {
			count++
			if listener != nil {
				listener.SyntaxError(d)
			}
		}
		return nil
	})
	return count
}

func diagnosticFor(n *sitter.Node, source []byte) (domain.Diagnostic, bool) {
	d := domain.Diagnostic{
		Line:   int(n.StartPoint().Row) + 1,
		Column: columnOf(source, n.StartByte()),
	}

	switch {
	case n.IsMissing():
		d.Kind = domain.DiagnosticMissing
		d.Message = fmt.Sprintf("missing %q", n.Type())
	case n.IsError():
		d.Kind = domain.DiagnosticError
		snippet := snippet(n.Content(source))
		if snippet == "" {
			d.Message = "syntax error"
		} else {
			d.Message = fmt.Sprintf("syntax error near %q", snippet)
		}
	default:
		return d, false
	}
	return d, true
}

// columnOf converts a byte offset into a 0-based character column.
// tree-sitter points count bytes, so multi-byte characters earlier on the
// line would otherwise shift the column.
func columnOf(source []byte, offset uint32) int {
	end := min(int(offset), len(source))
	lineStart := bytes.LastIndexByte(source[:end], '\n') + 1
	return utf8.RuneCount(source[lineStart:end])
}

// snippet returns the first line of text, shortened to maxSnippetLen runes
func snippet(text string) string {
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) > maxSnippetLen {
		return string(runes[:maxSnippetLen]) + "..."
	}
	return text
}
