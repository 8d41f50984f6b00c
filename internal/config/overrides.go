package config

import (
	"fmt"

	"github.com/spf13/pflag"
)

// Flag names that override configuration values when set explicitly
const (
	FlagSuffix    = "suffix"
	FlagInclude   = "include"
	FlagExclude   = "exclude"
	FlagOutputDir = "output-dir"
	FlagScale     = "scale"
	FlagMaxPixels = "max-pixels"
	FlagMirror    = "mirror"
)

// FlagTracker records which command-line flags the user set explicitly,
// so that flag defaults never clobber values read from a config file.
type FlagTracker struct {
	set map[string]bool
}

// NewFlagTracker captures the explicitly set flags of fs.
// A nil flag set tracks nothing.
func NewFlagTracker(fs *pflag.FlagSet) *FlagTracker {
	ft := &FlagTracker{set: make(map[string]bool)}
	if fs != nil {
		fs.Visit(func(f *pflag.Flag) {
			ft.set[f.Name] = true
		})
	}
	return ft
}

// WasSet reports whether name was given on the command line
func (ft *FlagTracker) WasSet(name string) bool {
	return ft != nil && ft.set[name]
}

// ApplyFlags copies the explicitly set override flags of fs into cfg and
// validates the result.
func ApplyFlags(cfg *Config, fs *pflag.FlagSet) error {
	ft := NewFlagTracker(fs)
	if ft.WasSet(FlagSuffix) {
		v, err := fs.GetString(FlagSuffix)
		if err != nil {
			return err
		}
		cfg.Scan.Suffix = v
	}
	if ft.WasSet(FlagInclude) {
		v, err := fs.GetStringSlice(FlagInclude)
		if err != nil {
			return err
		}
		cfg.Scan.IncludePatterns = v
	}
	if ft.WasSet(FlagExclude) {
		v, err := fs.GetStringSlice(FlagExclude)
		if err != nil {
			return err
		}
		cfg.Scan.ExcludePatterns = v
	}
	if ft.WasSet(FlagOutputDir) {
		v, err := fs.GetString(FlagOutputDir)
		if err != nil {
			return err
		}
		cfg.Render.OutputDir = v
	}
	if ft.WasSet(FlagScale) {
		v, err := fs.GetFloat64(FlagScale)
		if err != nil {
			return err
		}
		cfg.Render.Scale = v
	}
	if ft.WasSet(FlagMaxPixels) {
		v, err := fs.GetInt(FlagMaxPixels)
		if err != nil {
			return err
		}
		cfg.Render.MaxPixels = v
	}
	if ft.WasSet(FlagMirror) {
		v, err := fs.GetBool(FlagMirror)
		if err != nil {
			return err
		}
		cfg.Render.MirrorLayout = v
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flag value: %w", err)
	}
	return nil
}
