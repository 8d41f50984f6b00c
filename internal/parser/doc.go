// Package parser provides Python code parsing capabilities using tree-sitter.
//
// This package wraps the tree-sitter Go bindings and the Python grammar. The
// grammar is not owned here: the package only drives the external parser,
// turns ERROR and MISSING nodes into syntax diagnostics, and snapshots the
// concrete syntax tree for drawing.
//
// Key features:
//   - Fast and accurate Python parsing using tree-sitter
//   - Error-tolerant parsing: every syntax error is reported, not just the first
//   - Tree traversal utilities
//   - Labelled tree snapshots for rendering
//
// Basic usage:
//
//	p := parser.New()
//	result, err := p.Parse(ctx, []byte("def hello(): pass"))
//	if err != nil {
//	    // Handle I/O or cancellation error
//	}
//	n := p.Diagnostics(result, domain.DiagnosticListenerFunc(func(d domain.Diagnostic) {
//	    fmt.Printf("%d:%d %s\n", d.Line, d.Column, d.Message)
//	}))
package parser
