package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ludo-technologies/pytree/app"
	"github.com/ludo-technologies/pytree/domain"
	"github.com/ludo-technologies/pytree/internal/watch"
	"github.com/ludo-technologies/pytree/service"
)

// WatchCommand re-parses changed files while the repository is edited
type WatchCommand struct {
	scan     scanFlags
	images   bool
	debounce time.Duration
}

// NewWatchCommand creates a new watch command
func NewWatchCommand() *WatchCommand {
	return &WatchCommand{debounce: watch.DefaultDebounce}
}

// CreateCobraCommand creates the cobra command for watch mode
func (w *WatchCommand) CreateCobraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <repo-root-path>",
		Short: "Parse the repository, then re-parse files as they change",
		Long: `Run a full parse of the repository, then watch it for changes and
re-parse every modified Python file. Stop with Ctrl+C.

Examples:
  # Watch the current directory
  pytree watch .

  # Keep tree images up to date while editing
  pytree watch --images src`,
		Args: cobra.ExactArgs(1),
		RunE: w.runWatch,
	}

	w.scan.register(cmd)
	w.scan.registerRender(cmd)
	cmd.Flags().BoolVar(&w.images, "images", false, "Render tree images for changed files")
	cmd.Flags().DurationVar(&w.debounce, "debounce", watch.DefaultDebounce, "Quiet period before changed files are parsed")

	return cmd
}

func (w *WatchCommand) runWatch(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	root, err := filepath.Abs(args[0])
	if err != nil {
		return domain.NewInvalidInputError("invalid repository path", err)
	}

	cfg, err := loadCommandConfig(cmd, w.scan.configFile, root)
	if err != nil {
		return err
	}

	mode := domain.ModeParse
	if w.images {
		mode = domain.ModeImages
	}
	req := buildParseRequest(cfg, root, mode)
	req.OutputWriter = cmd.OutOrStdout()

	useCase, err := buildParseUseCase(cmd, false, true)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if _, err := useCase.Execute(ctx, req); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}

	outputDir := ""
	if mode == domain.ModeImages {
		if outputDir, err = filepath.Abs(app.ResolveOutputDir(req)); err != nil {
			return err
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching %s for changes (Ctrl+C to stop)\n", root)

	reader := service.NewFileReader()
	formatter := service.NewParseFormatter()
	return watch.Run(ctx, root, watch.Options{
		Debounce: w.debounce,
		Ignore:   ignoreOutputDir(outputDir),
	}, func(paths []string) {
		w.reparse(ctx, cmd, useCase, formatter, changedSources(reader, req, paths), req)
	})
}

// reparse runs the pipeline over one batch of changed files and prints its summary
func (w *WatchCommand) reparse(ctx context.Context, cmd *cobra.Command, useCase *app.ParseUseCase, formatter domain.ParseOutputFormatter, files []string, req domain.ParseRequest) {
	if len(files) == 0 {
		return
	}
	slog.Debug("files changed", "count", len(files))

	response, err := useCase.Process(ctx, req, files)
	if response != nil {
		if writeErr := formatter.Write(response, domain.OutputFormatText, cmd.OutOrStdout()); writeErr != nil {
			slog.Error("failed to write summary", "error", writeErr)
		}
	}
	if err != nil && ctx.Err() == nil {
		slog.Error("re-parse failed", "error", err)
	}
}

// changedSources keeps the changed paths that still exist and are selected by req
func changedSources(reader domain.FileReader, req domain.ParseRequest, paths []string) []string {
	var files []string
	for _, path := range paths {
		if reader.Matches(req.Root, path, req.Suffix, req.IncludePatterns, req.ExcludePatterns) {
			files = append(files, path)
		}
	}
	return files
}

// ignoreOutputDir hides the image directory from the watcher so rendered
// images do not trigger another run
func ignoreOutputDir(outputDir string) func(path string, isDir bool) bool {
	if outputDir == "" {
		return nil
	}
	outputDir = filepath.Clean(outputDir)
	return func(path string, isDir bool) bool {
		path = filepath.Clean(path)
		return path == outputDir || strings.HasPrefix(path, outputDir+string(filepath.Separator))
	}
}

// NewWatchCmd creates and returns the watch cobra command
func NewWatchCmd() *cobra.Command {
	return NewWatchCommand().CreateCobraCommand()
}
