package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/viper"

	"github.com/ludo-technologies/pytree/domain"
)

// Config represents the main configuration structure
type Config struct {
	// Scan holds file selection settings
	Scan ScanConfig `mapstructure:"scan" toml:"scan" yaml:"scan"`

	// Render holds tree image settings
	Render RenderConfig `mapstructure:"render" toml:"render" yaml:"render"`

	// Output holds report settings
	Output OutputConfig `mapstructure:"output" toml:"output" yaml:"output"`

	// Source is the file the configuration was read from, empty for defaults
	Source string `mapstructure:"-" toml:"-" yaml:"-"`
}

// ScanConfig holds configuration for file enumeration
type ScanConfig struct {
	// Suffix is the file name suffix of source files (".py")
	Suffix string `mapstructure:"suffix" toml:"suffix" yaml:"suffix"`

	// IncludePatterns restricts the selection to matching files (doublestar globs)
	IncludePatterns []string `mapstructure:"include_patterns" toml:"include_patterns" yaml:"include_patterns"`

	// ExcludePatterns removes matching files from the selection (doublestar globs)
	ExcludePatterns []string `mapstructure:"exclude_patterns" toml:"exclude_patterns" yaml:"exclude_patterns"`
}

// RenderConfig holds configuration for tree images
type RenderConfig struct {
	// Scale is the fixed factor applied to the natural tree layout
	Scale float64 `mapstructure:"scale" toml:"scale" yaml:"scale"`

	// ImageSuffix replaces the source suffix in image names
	ImageSuffix string `mapstructure:"image_suffix" toml:"image_suffix" yaml:"image_suffix"`

	// MaxPixels bounds the image area; larger trees are drawn at a reduced scale. 0 disables the limit
	MaxPixels int `mapstructure:"max_pixels" toml:"max_pixels" yaml:"max_pixels"`

	// MirrorLayout keeps the source directory structure under the output directory
	MirrorLayout bool `mapstructure:"mirror_layout" toml:"mirror_layout" yaml:"mirror_layout"`

	// OutputDir overrides the default "<root>_parse_trees" directory
	OutputDir string `mapstructure:"output_dir" toml:"output_dir" yaml:"output_dir"`
}

// OutputConfig holds configuration for report output
type OutputConfig struct {
	// Format specifies the report format: text, json, yaml, csv
	Format string `mapstructure:"format" toml:"format" yaml:"format"`

	// Directory is where json/yaml/csv report files are written
	Directory string `mapstructure:"directory" toml:"directory" yaml:"directory"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Scan: ScanConfig{
			Suffix:          domain.DefaultSourceSuffix,
			IncludePatterns: []string{},
			ExcludePatterns: []string{},
		},
		Render: RenderConfig{
			Scale:        domain.DefaultImageScale,
			ImageSuffix:  domain.DefaultImageSuffix,
			MaxPixels:    domain.DefaultMaxPixels,
			MirrorLayout: false,
		},
		Output: OutputConfig{
			Format: string(domain.OutputFormatText),
		},
	}
}

// LoadConfig loads configuration from an explicit file (toml, yaml or json)
// or returns the default config when configPath is empty
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()
	if configPath == "" {
		return config, nil
	}

	v := viper.New()
	v.SetConfigFile(configPath)

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	// Unmarshal into config struct
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.Source = configPath

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// LoadConfigWithTarget resolves configuration with this priority:
//  1. configPath, when given
//  2. .pytree.toml found by walking up from targetPath
//  3. [tool.pytree] in pyproject.toml found the same way
//  4. defaults
func LoadConfigWithTarget(configPath, targetPath string) (*Config, error) {
	if configPath != "" {
		return LoadConfig(configPath)
	}

	startDir := discoveryStart(targetPath)
	cfg, err := NewTomlConfigLoader().LoadConfig(startDir)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", cfg.Source, err)
	}
	return cfg, nil
}

// discoveryStart returns the directory config discovery starts from
func discoveryStart(targetPath string) string {
	if targetPath == "" {
		if cwd, err := os.Getwd(); err == nil {
			return cwd
		}
		return "."
	}
	abs, err := filepath.Abs(targetPath)
	if err != nil {
		return targetPath
	}
	if info, err := os.Stat(abs); err == nil && !info.IsDir() {
		return filepath.Dir(abs)
	}
	return abs
}

// Validate validates the configuration values
func (c *Config) Validate() error {
	if c.Scan.Suffix == "" {
		return fmt.Errorf("scan.suffix cannot be empty")
	}

	for _, p := range c.Scan.IncludePatterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid scan.include_patterns entry '%s'", p)
		}
	}
	for _, p := range c.Scan.ExcludePatterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid scan.exclude_patterns entry '%s'", p)
		}
	}

	if c.Render.Scale <= 0 || c.Render.Scale > 8 {
		return fmt.Errorf("render.scale must be in (0, 8], got %g", c.Render.Scale)
	}

	if c.Render.ImageSuffix == "" {
		return fmt.Errorf("render.image_suffix cannot be empty")
	}

	if c.Render.MaxPixels < 0 {
		return fmt.Errorf("render.max_pixels must be >= 0, got %d", c.Render.MaxPixels)
	}

	// Validate output format
	validFormats := map[string]bool{
		"text": true,
		"json": true,
		"yaml": true,
		"csv":  true,
	}

	if !validFormats[c.Output.Format] {
		return fmt.Errorf("invalid output.format '%s', must be one of: text, json, yaml, csv", c.Output.Format)
	}

	return nil
}
