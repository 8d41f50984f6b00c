package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ludo-technologies/pytree/app"
	"github.com/ludo-technologies/pytree/domain"
	"github.com/ludo-technologies/pytree/internal/config"
	"github.com/ludo-technologies/pytree/service"
)

// ParseCommand parses every source file of a repository and reports syntax errors
type ParseCommand struct {
	scan scanFlags

	// Output format flags
	quiet       bool
	json        bool
	yaml        bool
	csv         bool
	failOnError bool
}

// NewParseCommand creates a new parse command
func NewParseCommand() *ParseCommand {
	return &ParseCommand{}
}

// CreateCobraCommand creates the cobra command for parsing a repository
func (c *ParseCommand) CreateCobraCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pytree <repo-root-path> [images|parse]",
		Short: "Parse a Python repository and report syntax errors",
		Long: `pytree walks a repository, parses every Python file with the
tree-sitter Python grammar and reports which files contain syntax errors.

Modes:
  parse   report pass/fail per file and a summary (default)
  images  additionally render each parse tree to <root>_parse_trees/<name>_tree.png

Examples:
  # Check every .py file under the current directory
  pytree .

  # Render parse trees as PNG images
  pytree src images

  # Write a JSON report and fail the build on syntax errors
  pytree --json --fail-on-error .

  # Skip virtual environments and tests
  pytree --exclude "**/.venv/**" --exclude "tests/**" .`,
		Args: validateRootArgs,
		RunE: c.runParse,
	}

	c.scan.register(cmd)
	c.scan.registerRender(cmd)

	cmd.Flags().BoolVarP(&c.quiet, "quiet", "q", false, "Show a progress bar instead of per-file lines")
	cmd.Flags().BoolVar(&c.json, "json", false, "Write the report as JSON")
	cmd.Flags().BoolVar(&c.yaml, "yaml", false, "Write the report as YAML")
	cmd.Flags().BoolVar(&c.csv, "csv", false, "Write the report as CSV")
	cmd.Flags().BoolVar(&c.failOnError, "fail-on-error", false, "Exit with status 1 when any file fails")

	return cmd
}

// validateRootArgs requires the repository root and allows an optional mode
func validateRootArgs(cmd *cobra.Command, args []string) error {
	switch {
	case len(args) == 0:
		return domain.NewInvalidInputError("missing repository root path", nil)
	case len(args) > 2:
		return domain.NewInvalidInputError(fmt.Sprintf("accepts at most 2 args, received %d", len(args)), nil)
	}
	return nil
}

// runParse executes the parse
func (c *ParseCommand) runParse(cmd *cobra.Command, args []string) error {
	// Argument errors above print usage, runtime errors below do not
	cmd.SilenceUsage = true

	root := args[0]
	modeArg := ""
	if len(args) > 1 {
		modeArg = args[1]
	}
	mode, err := domain.ParseMode(modeArg)
	if err != nil {
		return err
	}

	cfg, err := loadCommandConfig(cmd, c.scan.configFile, root)
	if err != nil {
		return err
	}

	format, extension, err := service.NewOutputFormatResolver().Determine(c.json, c.yaml, c.csv, cfg.Output.Format)
	if err != nil {
		return err
	}

	req := buildParseRequest(cfg, root, mode)
	req.OutputFormat = format
	req.Quiet = c.quiet
	req.FailOnError = c.failOnError
	if format == domain.OutputFormatText {
		req.OutputWriter = cmd.OutOrStdout()
	} else {
		outputPath, err := generateOutputFilePath("parse", extension, cfg.Output.Directory)
		if err != nil {
			return domain.NewOutputError("failed to prepare report file", err)
		}
		req.OutputPath = outputPath
	}

	useCase, err := buildParseUseCase(cmd, c.quiet, false)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	_, err = useCase.Execute(ctx, req)
	return err
}

// buildParseUseCase wires the services used by the parse and watch commands.
// With cached set, files whose content did not change are not parsed again.
func buildParseUseCase(cmd *cobra.Command, quiet, cached bool) (*app.ParseUseCase, error) {
	fileReader := service.NewFileReader()
	reporter := service.NewConsoleReporter(cmd.OutOrStdout(), slog.Default(), quiet, service.NewProgressManager("Parsing"))

	var parseService domain.ParseService = service.NewParseService(fileReader)
	if cached {
		parseService = service.NewCachedParseService(fileReader, nil)
	}

	return app.NewParseUseCaseBuilder().
		WithFileReader(fileReader).
		WithParseService(parseService).
		WithRenderer(service.NewTreeRenderService()).
		WithReporter(reporter).
		WithFormatter(service.NewParseFormatter()).
		WithOutputWriter(service.NewFileOutputWriter(cmd.ErrOrStderr())).
		Build()
}

// loadCommandConfig discovers the configuration for target and applies the
// explicitly set flags of cmd on top of it
func loadCommandConfig(cmd *cobra.Command, configFile, target string) (*config.Config, error) {
	cfg, err := config.LoadConfigWithTarget(configFile, target)
	if err != nil {
		return nil, domain.NewConfigError("failed to load configuration", err)
	}
	if err := config.ApplyFlags(cfg, cmd.Flags()); err != nil {
		return nil, domain.NewConfigError("failed to apply flags", err)
	}
	if cfg.Source != "" {
		slog.Debug("loaded configuration", "path", cfg.Source)
	}
	return cfg, nil
}

// buildParseRequest converts a configuration into a request for root
func buildParseRequest(cfg *config.Config, root string, mode domain.Mode) domain.ParseRequest {
	req := *domain.DefaultParseRequest()
	req.Root = root
	req.Mode = mode
	req.Suffix = cfg.Scan.Suffix
	req.IncludePatterns = cfg.Scan.IncludePatterns
	req.ExcludePatterns = cfg.Scan.ExcludePatterns
	req.OutputDir = cfg.Render.OutputDir
	req.ImageSuffix = cfg.Render.ImageSuffix
	req.Scale = cfg.Render.Scale
	req.MaxPixels = cfg.Render.MaxPixels
	req.MirrorLayout = cfg.Render.MirrorLayout
	return req
}

// scanFlags are the file selection and rendering flags shared by commands
type scanFlags struct {
	configFile string
	suffix     string
	include    []string
	exclude    []string
	outputDir  string
	scale      float64
	maxPixels  int
	mirror     bool
}

func (f *scanFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.configFile, "config", "c", "", "Configuration file path")
	cmd.Flags().StringVar(&f.suffix, config.FlagSuffix, domain.DefaultSourceSuffix, "File name suffix of source files")
	cmd.Flags().StringSliceVar(&f.include, config.FlagInclude, nil, "Glob patterns of files to include (repeatable)")
	cmd.Flags().StringSliceVar(&f.exclude, config.FlagExclude, nil, "Glob patterns of files to exclude (repeatable)")
}

func (f *scanFlags) registerRender(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.outputDir, config.FlagOutputDir, "", "Image directory (default <root>_parse_trees)")
	cmd.Flags().Float64Var(&f.scale, config.FlagScale, domain.DefaultImageScale, "Scale factor applied to tree images")
	cmd.Flags().IntVar(&f.maxPixels, config.FlagMaxPixels, domain.DefaultMaxPixels, "Largest image area in pixels, 0 for no limit")
	cmd.Flags().BoolVar(&f.mirror, config.FlagMirror, false, "Mirror the source directory layout under the image directory")
}
