package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ludo-technologies/pytree/domain"
)

// generateTimestampedFileName generates a filename with timestamp suffix
func generateTimestampedFileName(command, extension string) string {
	timestamp := time.Now().Format("20060102_150405")
	return fmt.Sprintf("%s_%s.%s", command, timestamp, extension)
}

// resolveOutputDirectory returns the configured report directory, or
// .pytree/reports under the working directory so reports never land in the
// scanned repository by default
func resolveOutputDirectory(configured string) string {
	if configured != "" {
		return configured
	}
	cwd, err := os.Getwd()
	if err != nil {
		return filepath.FromSlash(domain.DefaultReportDirectory)
	}
	return filepath.Join(cwd, filepath.FromSlash(domain.DefaultReportDirectory))
}

// generateOutputFilePath returns the report path for command and creates its directory
func generateOutputFilePath(command, extension, configuredDir string) (string, error) {
	outputDir := resolveOutputDirectory(configuredDir)
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}
	return filepath.Join(outputDir, generateTimestampedFileName(command, extension)), nil
}
