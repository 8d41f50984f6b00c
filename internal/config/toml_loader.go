package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

const (
	dedicatedConfigName = ".pytree.toml"
	pyprojectName       = "pyproject.toml"
)

// pyprojectToml represents the part of pyproject.toml pytree reads
type pyprojectToml struct {
	Tool struct {
		Pytree Config `toml:"pytree"`
	} `toml:"tool"`
}

// TomlConfigLoader handles TOML configuration discovery
type TomlConfigLoader struct{}

// NewTomlConfigLoader creates a new TOML configuration loader
func NewTomlConfigLoader() *TomlConfigLoader {
	return &TomlConfigLoader{}
}

// LoadConfig loads configuration from TOML files with ruff-like priority:
// 1. .pytree.toml (dedicated config file)
// 2. pyproject.toml (with [tool.pytree] section)
// 3. defaults
func (l *TomlConfigLoader) LoadConfig(startDir string) (*Config, error) {
	if path, err := findUpwards(startDir, dedicatedConfigName); err == nil {
		return l.loadDedicated(path)
	}

	if path, err := findUpwards(startDir, pyprojectName); err == nil {
		cfg, found, err := l.loadPyproject(path)
		if err != nil {
			return nil, err
		}
		if found {
			return cfg, nil
		}
	}

	return DefaultConfig(), nil
}

// loadDedicated decodes .pytree.toml on top of the defaults
func (l *TomlConfigLoader) loadDedicated(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	cfg.Source = path
	return cfg, nil
}

// loadPyproject decodes [tool.pytree] from pyproject.toml.
// found is false when the file has no such section.
func (l *TomlConfigLoader) loadPyproject(path string) (cfg *Config, found bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, err
	}

	var probe struct {
		Tool struct {
			Pytree map[string]interface{} `toml:"pytree"`
		} `toml:"tool"`
	}
	if err := toml.Unmarshal(data, &probe); err != nil {
		return nil, false, &DecodeError{Path: path, Err: err}
	}
	if probe.Tool.Pytree == nil {
		return nil, false, nil
	}

	var doc pyprojectToml
	doc.Tool.Pytree = *DefaultConfig()
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, false, &DecodeError{Path: path, Err: err}
	}

	cfg = &doc.Tool.Pytree
	cfg.Source = path
	return cfg, true, nil
}

// findUpwards walks up the directory tree looking for name
func findUpwards(startDir, name string) (string, error) {
	dir := startDir
	for {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}

	return "", os.ErrNotExist
}

// DecodeError reports a malformed TOML configuration file
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return "failed to decode config file " + e.Path + ": " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error { return e.Err }
