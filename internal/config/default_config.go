package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"

	"github.com/ludo-technologies/pytree/domain"
)

// defaultConfigTmpl contains the embedded default configuration template
//
//go:embed default_config.toml.tmpl
var defaultConfigTmpl string

// DefaultConfigValues holds all values used to render the default config template.
type DefaultConfigValues struct {
	Suffix          string
	ImageSuffix     string
	Scale           float64
	MaxPixels       int
	OutputFormat    string
	ReportDirectory string
}

func newDefaultConfigValues() DefaultConfigValues {
	return DefaultConfigValues{
		Suffix:          domain.DefaultSourceSuffix,
		ImageSuffix:     domain.DefaultImageSuffix,
		Scale:           domain.DefaultImageScale,
		MaxPixels:       domain.DefaultMaxPixels,
		OutputFormat:    string(domain.OutputFormatText),
		ReportDirectory: domain.DefaultReportDirectory,
	}
}

// GenerateDefaultConfigTOML renders the default config template with domain values
func GenerateDefaultConfigTOML() (string, error) {
	tmpl, err := template.New("default_config").Parse(defaultConfigTmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse default config template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, newDefaultConfigValues()); err != nil {
		return "", fmt.Errorf("failed to render default config template: %w", err)
	}
	return buf.String(), nil
}
