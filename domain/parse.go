package domain

import (
	"context"
	"io"
	"time"
)

// Mode selects what the driver does with each parsed file
type Mode string

const (
	// ModeParse only reports whether each file parses cleanly
	ModeParse Mode = "parse"
	// ModeImages additionally renders every parse tree to a PNG file
	ModeImages Mode = "images"
)

// ParseMode converts a command-line mode argument into a Mode.
// An empty string selects ModeParse.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeParse:
		return ModeParse, nil
	case ModeImages:
		return ModeImages, nil
	default:
		return "", NewInvalidInputError("unknown mode: "+s+" (available modes: images, parse)", nil)
	}
}

// DiagnosticKind distinguishes the two kinds of syntax diagnostics tree-sitter produces
type DiagnosticKind string

const (
	// DiagnosticError is reported for an ERROR node: input the grammar could not match
	DiagnosticError DiagnosticKind = "error"
	// DiagnosticMissing is reported for a MISSING node: a token the parser had to insert
	DiagnosticMissing DiagnosticKind = "missing"
)

// Diagnostic is a single syntax deviation reported by the parser
type Diagnostic struct {
	Line    int            `json:"line" yaml:"line" csv:"line"`       // 1-based
	Column  int            `json:"column" yaml:"column" csv:"column"` // 0-based character (not byte) offset within the line
	Kind    DiagnosticKind `json:"kind" yaml:"kind" csv:"kind"`
	Message string         `json:"message" yaml:"message" csv:"message"`
}

// DiagnosticListener receives syntax diagnostics while a file is parsed
type DiagnosticListener interface {
	SyntaxError(d Diagnostic)
}

// DiagnosticListenerFunc adapts a plain function to DiagnosticListener
type DiagnosticListenerFunc func(d Diagnostic)

// SyntaxError calls f(d)
func (f DiagnosticListenerFunc) SyntaxError(d Diagnostic) {
	f(d)
}

// FileResult is the outcome of processing one source file
type FileResult struct {
	Path        string        `json:"path" yaml:"path"`
	Success     bool          `json:"success" yaml:"success"`
	Diagnostics []Diagnostic  `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
	Error       string        `json:"error,omitempty" yaml:"error,omitempty"`
	ImagePath   string        `json:"image_path,omitempty" yaml:"image_path,omitempty"`
	NodeCount   int           `json:"node_count" yaml:"node_count"`
	Duration    time.Duration `json:"duration_ns" yaml:"duration_ns"`
}

// ParseSummary holds the running counters of a run
type ParseSummary struct {
	TotalFiles      int `json:"total_files" yaml:"total_files"`
	SuccessCount    int `json:"success_count" yaml:"success_count"`
	FailureCount    int `json:"failure_count" yaml:"failure_count"`
	DiagnosticCount int `json:"diagnostic_count" yaml:"diagnostic_count"`
	ImagesWritten   int `json:"images_written" yaml:"images_written"`
}

// Record adds a file result to the counters
func (s *ParseSummary) Record(r FileResult) {
	s.TotalFiles++
	if r.Success {
		s.SuccessCount++
	} else {
		s.FailureCount++
	}
	s.DiagnosticCount += len(r.Diagnostics)
	if r.ImagePath != "" {
		s.ImagesWritten++
	}
}

// HasFailures reports whether any file failed
func (s ParseSummary) HasFailures() bool {
	return s.FailureCount > 0
}

// ParseResponse is the result of a whole run
type ParseResponse struct {
	Root        string       `json:"root" yaml:"root"`
	Mode        Mode         `json:"mode" yaml:"mode"`
	OutputDir   string       `json:"output_dir,omitempty" yaml:"output_dir,omitempty"`
	Files       []FileResult `json:"files" yaml:"files"`
	Summary     ParseSummary `json:"summary" yaml:"summary"`
	GeneratedAt string       `json:"generated_at" yaml:"generated_at"`
	Version     string       `json:"version" yaml:"version"`
}

// FailedFiles returns the results of the files that did not parse cleanly
func (r *ParseResponse) FailedFiles() []FileResult {
	var failed []FileResult
	for _, f := range r.Files {
		if !f.Success {
			failed = append(failed, f)
		}
	}
	return failed
}

// ParseRequest represents a request to parse a repository
type ParseRequest struct {
	// Root directory (or single file) to scan
	Root string
	Mode Mode

	// File selection
	Suffix          string
	IncludePatterns []string
	ExcludePatterns []string

	// Images mode
	OutputDir    string // empty means "<root>_parse_trees"
	ImageSuffix  string
	Scale        float64
	MaxPixels    int
	MirrorLayout bool

	// Report output
	OutputFormat OutputFormat
	OutputWriter io.Writer
	OutputPath   string

	// Behaviour
	Quiet       bool
	FailOnError bool
}

// DefaultParseRequest returns a request populated with the default settings
func DefaultParseRequest() *ParseRequest {
	return &ParseRequest{
		Mode:            ModeParse,
		Suffix:          DefaultSourceSuffix,
		IncludePatterns: []string{},
		ExcludePatterns: []string{},
		ImageSuffix:     DefaultImageSuffix,
		Scale:           DefaultImageScale,
		MaxPixels:       DefaultMaxPixels,
		OutputFormat:    OutputFormatText,
	}
}

// FileReader enumerates source files
type FileReader interface {
	// CollectSourceFiles recursively lists regular files under root whose name ends with suffix
	CollectSourceFiles(root, suffix string, includePatterns, excludePatterns []string) ([]string, error)

	// ReadFile reads the content of a file
	ReadFile(path string) ([]byte, error)

	// Matches reports whether path would be selected by CollectSourceFiles for the given root
	Matches(root, path, suffix string, includePatterns, excludePatterns []string) bool
}

// ParsedFile is a parsed file together with its collected diagnostics.
// Tree is opaque to the domain layer and only handed to the renderer.
type ParsedFile struct {
	Path        string
	Diagnostics []Diagnostic
	NodeCount   int
	Tree        interface{}
}

// ParseService invokes the external parser on a single file
type ParseService interface {
	ParseFile(ctx context.Context, path string) (*ParsedFile, error)
}

// TreeRenderer writes a picture of a parse tree into outputDir and returns its path
type TreeRenderer interface {
	Render(ctx context.Context, file *ParsedFile, req RenderRequest) (string, error)
}

// RenderRequest carries the image settings for one file
type RenderRequest struct {
	Root         string
	OutputDir    string
	SourceSuffix string
	ImageSuffix  string
	Scale        float64
	MaxPixels    int
	MirrorLayout bool
}

// ParseReporter receives per-file progress events in processing order
type ParseReporter interface {
	Start(req ParseRequest, outputDir string, total int)
	FileStarted(index, total int, path string)
	FileFinished(index, total int, result FileResult)
	Finish(summary ParseSummary)
}

// ParseOutputFormatter formats a ParseResponse
type ParseOutputFormatter interface {
	Write(response *ParseResponse, format OutputFormat, writer io.Writer) error
}
