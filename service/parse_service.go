package service

import (
	"context"
	"fmt"

	"github.com/ludo-technologies/pytree/domain"
	"github.com/ludo-technologies/pytree/internal/parser"
)

// DiagnosticCollector accumulates the syntax diagnostics reported for one file
type DiagnosticCollector struct {
	diagnostics []domain.Diagnostic
}

// NewDiagnosticCollector creates an empty collector
func NewDiagnosticCollector() *DiagnosticCollector {
	return &DiagnosticCollector{}
}

// SyntaxError implements domain.DiagnosticListener
func (c *DiagnosticCollector) SyntaxError(d domain.Diagnostic) {
	c.diagnostics = append(c.diagnostics, d)
}

// Diagnostics returns the collected diagnostics in report order
func (c *DiagnosticCollector) Diagnostics() []domain.Diagnostic {
	return c.diagnostics
}

// ParseServiceImpl implements domain.ParseService on top of tree-sitter
type ParseServiceImpl struct {
	reader domain.FileReader
}

// NewParseService creates a parse service reading files through reader
func NewParseService(reader domain.FileReader) *ParseServiceImpl {
	if reader == nil {
		reader = NewFileReader()
	}
	return &ParseServiceImpl{reader: reader}
}

// ParseFile reads and parses one file with a fresh parser. Syntax problems
// are returned as diagnostics on the ParsedFile; only unexpected failures
// (I/O, cancellation, a panic in the binding) produce an error.
func (s *ParseServiceImpl) ParseFile(ctx context.Context, path string) (parsed *domain.ParsedFile, err error) {
	defer func() {
		if r := recover(); r != nil {
			parsed = nil
			err = domain.NewParseError(path, fmt.Errorf("parser panic: %v", r))
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, domain.NewParseError(path, err)
	}

	content, err := s.reader.ReadFile(path)
	if err != nil {
		return nil, domain.NewParseError(path, err)
	}

	return s.parseSource(ctx, path, content)
}

// ParseSource parses in-memory source as if it had been read from path
func (s *ParseServiceImpl) ParseSource(ctx context.Context, path string, content []byte) (parsed *domain.ParsedFile, err error) {
	defer func() {
		if r := recover(); r != nil {
			parsed = nil
			err = domain.NewParseError(path, fmt.Errorf("parser panic: %v", r))
		}
	}()
	return s.parseSource(ctx, path, content)
}

func (s *ParseServiceImpl) parseSource(ctx context.Context, path string, content []byte) (*domain.ParsedFile, error) {
	p := parser.New()
	result, err := p.Parse(ctx, content)
	if err != nil {
		return nil, domain.NewParseError(path, err)
	}

	collector := NewDiagnosticCollector()
	p.Diagnostics(result, collector)

	return &domain.ParsedFile{
		Path:        path,
		Diagnostics: collector.Diagnostics(),
		NodeCount:   p.CountNodes(result.RootNode),
		Tree:        result,
	}, nil
}
