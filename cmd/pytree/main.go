package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ludo-technologies/pytree/domain"
	"github.com/ludo-technologies/pytree/internal/version"
	"github.com/ludo-technologies/pytree/service"
)

// NewRootCmd builds the pytree command tree. The root command itself runs a
// parse over the repository given as its first argument.
func NewRootCmd() *cobra.Command {
	rootCmd := NewParseCommand().CreateCobraCommand()
	rootCmd.Version = version.Short()
	rootCmd.SilenceErrors = true
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentPreRunE = setupLogging

	rootCmd.AddCommand(NewVersionCmd())
	rootCmd.AddCommand(NewInitCmd())
	rootCmd.AddCommand(NewWatchCmd())

	return rootCmd
}

// setupLogging installs the default slog logger on stderr
func setupLogging(cmd *cobra.Command, args []string) error {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
	return nil
}

// run executes the command line and returns the process exit status
func run(args []string, stdout, stderr io.Writer) int {
	rootCmd := NewRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		printError(stderr, err)
		return 1
	}
	return 0
}

// printError reports a fatal error with its category and recovery hints
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)
	if errors.Is(err, domain.ErrParseFailures) {
		return
	}

	categorizer := service.NewErrorCategorizer()
	categorized := categorizer.Categorize(err)
	if categorized == nil || categorized.Category == domain.ErrorCategoryUnknown {
		return
	}

	fmt.Fprintf(w, "\n%s: %s\n", categorized.Category, categorized.Message)
	if suggestions := categorizer.GetRecoverySuggestions(categorized.Category); len(suggestions) > 0 {
		fmt.Fprintln(w, "Suggestions:")
		for _, s := range suggestions {
			fmt.Fprintf(w, "  - %s\n", s)
		}
	}
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
