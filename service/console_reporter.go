package service

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ludo-technologies/pytree/domain"
)

// ConsoleReporter streams per-file progress while a run is in flight.
// Human-readable lines go to out; diagnostics and failures go to the logger.
// In quiet mode per-file lines are replaced by a progress bar.
type ConsoleReporter struct {
	out      io.Writer
	logger   *slog.Logger
	quiet    bool
	progress domain.ProgressManager
	utils    *FormatUtils
}

// NewConsoleReporter creates a reporter. A nil logger discards log records and
// a nil progress manager disables the bar.
func NewConsoleReporter(out io.Writer, logger *slog.Logger, quiet bool, progress domain.ProgressManager) *ConsoleReporter {
	if out == nil {
		out = os.Stdout
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &ConsoleReporter{
		out:      out,
		logger:   logger,
		quiet:    quiet,
		progress: progress,
		utils:    NewFormatUtils(),
	}
}

// Start prints the run header
func (r *ConsoleReporter) Start(req domain.ParseRequest, outputDir string, total int) {
	r.logger.Debug("starting run",
		slog.String("root", req.Root),
		slog.String("mode", string(req.Mode)),
		slog.Int("files", total))

	if r.quiet {
		if r.progress != nil {
			r.progress.Initialize(total)
			r.progress.Start()
		}
		return
	}

	fmt.Fprint(r.out, r.utils.FormatMainHeader("Python Repository Parser"))
	fmt.Fprint(r.out, r.utils.FormatLabelWithIndent(0, "Repository", req.Root))
	fmt.Fprint(r.out, r.utils.FormatLabelWithIndent(0, "Mode", req.Mode))
	if req.Mode == domain.ModeImages {
		fmt.Fprint(r.out, r.utils.FormatLabelWithIndent(0, "Output directory", outputDir))
	}
	fmt.Fprint(r.out, r.utils.FormatLabelWithIndent(0, "Files", total))
	fmt.Fprintln(r.out)
}

// FileStarted prints the beginning of a file line
func (r *ConsoleReporter) FileStarted(index, total int, path string) {
	if r.quiet {
		return
	}
	fmt.Fprintf(r.out, "[%d/%d] %s ... ", index, total, path)
}

// FileFinished completes the file line and logs the file's diagnostics
func (r *ConsoleReporter) FileFinished(index, total int, result domain.FileResult) {
	for _, d := range result.Diagnostics {
		r.logger.Warn("syntax error",
			slog.String("file", result.Path),
			slog.Int("line", d.Line),
			slog.Int("column", d.Column),
			slog.String("message", d.Message))
	}
	if result.Error != "" {
		r.logger.Error("failed to process file",
			slog.String("file", result.Path),
			slog.String("error", result.Error))
	}
	r.logger.Debug("processed file",
		slog.String("file", result.Path),
		slog.Bool("success", result.Success),
		slog.Int("nodes", result.NodeCount),
		slog.Duration("duration", result.Duration))

	if r.quiet {
		if r.progress != nil {
			r.progress.Update(index, total)
		}
		return
	}

	status := "OK"
	if !result.Success {
		status = "FAILED"
	}
	fmt.Fprintln(r.out, status)
	if result.ImagePath != "" {
		fmt.Fprintf(r.out, "    tree saved to: %s\n", result.ImagePath)
	}
}

// Finish completes the progress bar
func (r *ConsoleReporter) Finish(summary domain.ParseSummary) {
	r.logger.Debug("run finished",
		slog.Int("total", summary.TotalFiles),
		slog.Int("success", summary.SuccessCount),
		slog.Int("failure", summary.FailureCount))

	if r.quiet && r.progress != nil {
		r.progress.Complete(!summary.HasFailures())
		r.progress.Close()
		return
	}
	if !r.quiet {
		fmt.Fprintln(r.out)
	}
}
