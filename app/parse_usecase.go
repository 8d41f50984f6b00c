package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ludo-technologies/pytree/domain"
	"github.com/ludo-technologies/pytree/internal/version"
	svc "github.com/ludo-technologies/pytree/service"
)

// ParseUseCase orchestrates a run: enumerate files, parse each one in order,
// optionally render its tree, and report the results.
type ParseUseCase struct {
	fileReader domain.FileReader
	parser     domain.ParseService
	renderer   domain.TreeRenderer
	reporter   domain.ParseReporter
	formatter  domain.ParseOutputFormatter
	output     domain.ReportWriter
	now        func() time.Time
}

// NewParseUseCase creates a use case with the default renderer, a silent
// reporter and a file output writer
func NewParseUseCase(fileReader domain.FileReader, parser domain.ParseService, formatter domain.ParseOutputFormatter) *ParseUseCase {
	return &ParseUseCase{
		fileReader: fileReader,
		parser:     parser,
		renderer:   svc.NewTreeRenderService(),
		reporter:   noopReporter{},
		formatter:  formatter,
		output:     svc.NewFileOutputWriter(nil),
		now:        time.Now,
	}
}

// Execute runs the whole pipeline for req.Root and writes the summary.
// Only enumeration failures, output failures and cancellation are returned
// as errors; per-file problems are recorded in the response. With
// req.FailOnError, a run with failures returns domain.ErrParseFailures.
func (uc *ParseUseCase) Execute(ctx context.Context, req domain.ParseRequest) (*domain.ParseResponse, error) {
	if err := uc.validateRequest(req); err != nil {
		return nil, domain.NewInvalidInputError("invalid request", err)
	}

	files, err := uc.fileReader.CollectSourceFiles(req.Root, req.Suffix, req.IncludePatterns, req.ExcludePatterns)
	if err != nil {
		return nil, err
	}

	response, runErr := uc.Process(ctx, req, files)
	if response == nil {
		return nil, runErr
	}

	if err := uc.writeOutput(req, response); err != nil {
		return response, err
	}

	if runErr != nil {
		return response, runErr
	}
	if req.FailOnError && response.Summary.HasFailures() {
		return response, fmt.Errorf("%d of %d files failed: %w",
			response.Summary.FailureCount, response.Summary.TotalFiles, domain.ErrParseFailures)
	}
	return response, nil
}

// Process parses files strictly in the given order. It is shared by Execute
// and the watch loop, which supplies its own file batches. On cancellation
// the partial response is returned together with the context error.
func (uc *ParseUseCase) Process(ctx context.Context, req domain.ParseRequest, files []string) (*domain.ParseResponse, error) {
	outputDir := ""
	if req.Mode == domain.ModeImages {
		outputDir = ResolveOutputDir(req)
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return nil, domain.NewOutputError(fmt.Sprintf("failed to create output directory: %s", outputDir), err)
		}
	}

	response := &domain.ParseResponse{
		Root:        req.Root,
		Mode:        req.Mode,
		OutputDir:   outputDir,
		Files:       make([]domain.FileResult, 0, len(files)),
		GeneratedAt: uc.now().Format(time.RFC3339),
		Version:     version.Version,
	}

	renderReq := domain.RenderRequest{
		Root:         req.Root,
		OutputDir:    outputDir,
		SourceSuffix: req.Suffix,
		ImageSuffix:  req.ImageSuffix,
		Scale:        req.Scale,
		MaxPixels:    req.MaxPixels,
		MirrorLayout: req.MirrorLayout,
	}

	total := len(files)
	uc.reporter.Start(req, outputDir, total)

	var cancelled error
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}

		uc.reporter.FileStarted(i+1, total, path)
		result := uc.processFile(ctx, req.Mode, path, renderReq)
		response.Files = append(response.Files, result)
		response.Summary.Record(result)
		uc.reporter.FileFinished(i+1, total, result)
	}

	uc.reporter.Finish(response.Summary)

	if cancelled != nil {
		return response, fmt.Errorf("run cancelled after %d of %d files: %w",
			response.Summary.TotalFiles, total, cancelled)
	}
	return response, nil
}

// processFile parses one file and renders it in images mode. It never fails:
// every problem is recorded on the result.
func (uc *ParseUseCase) processFile(ctx context.Context, mode domain.Mode, path string, renderReq domain.RenderRequest) domain.FileResult {
	start := uc.now()
	result := domain.FileResult{Path: path}

	parsed, err := uc.parser.ParseFile(ctx, path)
	if err != nil {
		result.Error = err.Error()
		result.Duration = uc.now().Sub(start)
		return result
	}

	result.Diagnostics = parsed.Diagnostics
	result.NodeCount = parsed.NodeCount
	result.Success = len(parsed.Diagnostics) == 0

	if mode == domain.ModeImages {
		imagePath, err := uc.renderer.Render(ctx, parsed, renderReq)
		if err != nil {
			result.Success = false
			result.Error = err.Error()
		} else {
			result.ImagePath = imagePath
		}
	}

	result.Duration = uc.now().Sub(start)
	return result
}

func (uc *ParseUseCase) writeOutput(req domain.ParseRequest, response *domain.ParseResponse) error {
	var out io.Writer
	if req.OutputPath == "" {
		out = req.OutputWriter
	}
	if out == nil && req.OutputPath == "" {
		return nil
	}

	if err := uc.output.Write(out, req.OutputPath, req.OutputFormat, func(w io.Writer) error {
		return uc.formatter.Write(response, req.OutputFormat, w)
	}); err != nil {
		return domain.NewOutputError("failed to write output", err)
	}
	return nil
}

func (uc *ParseUseCase) validateRequest(req domain.ParseRequest) error {
	if req.Root == "" {
		return fmt.Errorf("no repository root specified")
	}
	if req.Mode != domain.ModeParse && req.Mode != domain.ModeImages {
		return fmt.Errorf("unknown mode: %s", req.Mode)
	}
	if req.Suffix == "" {
		return fmt.Errorf("source suffix is required")
	}
	if req.Mode == domain.ModeImages {
		if req.Scale <= 0 {
			return fmt.Errorf("image scale must be positive, got %g", req.Scale)
		}
		if req.ImageSuffix == "" {
			return fmt.Errorf("image suffix is required")
		}
	}
	if _, err := domain.ParseOutputFormat(string(req.OutputFormat)); err != nil {
		return err
	}
	return nil
}

// ResolveOutputDir returns req.OutputDir, or "<root>_parse_trees" when it is
// empty. Roots such as "." or "/" that have no usable name are made absolute
// first so the directory still lands next to the repository.
func ResolveOutputDir(req domain.ParseRequest) string {
	if req.OutputDir != "" {
		return req.OutputDir
	}

	root := filepath.Clean(req.Root)
	base := filepath.Base(root)
	if base == "." || base == ".." || base == string(filepath.Separator) {
		if abs, err := filepath.Abs(root); err == nil {
			root = abs
		}
	}
	root = strings.TrimRight(root, string(filepath.Separator))
	if root == "" {
		root = string(filepath.Separator) + "repository"
	}
	return root + domain.DefaultOutputDirSuffix
}

// noopReporter discards progress events
type noopReporter struct{}

func (noopReporter) Start(domain.ParseRequest, string, int)   {}
func (noopReporter) FileStarted(int, int, string)             {}
func (noopReporter) FileFinished(int, int, domain.FileResult) {}
func (noopReporter) Finish(domain.ParseSummary)               {}

// ParseUseCaseBuilder provides a fluent builder for ParseUseCase
type ParseUseCaseBuilder struct {
	fileReader domain.FileReader
	parser     domain.ParseService
	renderer   domain.TreeRenderer
	reporter   domain.ParseReporter
	formatter  domain.ParseOutputFormatter
	output     domain.ReportWriter
	now        func() time.Time
}

func NewParseUseCaseBuilder() *ParseUseCaseBuilder { return &ParseUseCaseBuilder{} }

func (b *ParseUseCaseBuilder) WithFileReader(fr domain.FileReader) *ParseUseCaseBuilder {
	b.fileReader = fr
	return b
}
func (b *ParseUseCaseBuilder) WithParseService(p domain.ParseService) *ParseUseCaseBuilder {
	b.parser = p
	return b
}
func (b *ParseUseCaseBuilder) WithRenderer(r domain.TreeRenderer) *ParseUseCaseBuilder {
	b.renderer = r
	return b
}
func (b *ParseUseCaseBuilder) WithReporter(r domain.ParseReporter) *ParseUseCaseBuilder {
	b.reporter = r
	return b
}
func (b *ParseUseCaseBuilder) WithFormatter(f domain.ParseOutputFormatter) *ParseUseCaseBuilder {
	b.formatter = f
	return b
}
func (b *ParseUseCaseBuilder) WithOutputWriter(w domain.ReportWriter) *ParseUseCaseBuilder {
	b.output = w
	return b
}
func (b *ParseUseCaseBuilder) WithClock(now func() time.Time) *ParseUseCaseBuilder {
	b.now = now
	return b
}

func (b *ParseUseCaseBuilder) Build() (*ParseUseCase, error) {
	if b.fileReader == nil || b.parser == nil || b.formatter == nil {
		return nil, fmt.Errorf("missing required dependencies")
	}
	uc := &ParseUseCase{
		fileReader: b.fileReader,
		parser:     b.parser,
		renderer:   b.renderer,
		reporter:   b.reporter,
		formatter:  b.formatter,
		output:     b.output,
		now:        b.now,
	}
	if uc.renderer == nil {
		uc.renderer = svc.NewTreeRenderService()
	}
	if uc.reporter == nil {
		uc.reporter = noopReporter{}
	}
	if uc.output == nil {
		uc.output = svc.NewFileOutputWriter(nil)
	}
	if uc.now == nil {
		uc.now = time.Now
	}
	return uc, nil
}
