package domain

// File selection defaults.
const (
	// DefaultSourceSuffix is the file name suffix of the files the driver parses.
	// Matching is a plain suffix test on the file name, so ".pyi" stubs are not selected.
	DefaultSourceSuffix = ".py"

	// DefaultOutputDirSuffix is appended to the repository root to name the image directory
	DefaultOutputDirSuffix = "_parse_trees"
)

// Tree image defaults.
const (
	// DefaultImageSuffix replaces the source suffix in rendered image names (foo.py -> foo_tree.png)
	DefaultImageSuffix = "_tree.png"

	// DefaultImageScale is the fixed factor applied to the natural tree layout
	DefaultImageScale = 1.2

	// DefaultMaxPixels caps the canvas area. Trees that would be larger are
	// drawn at a reduced scale. The RGBA canvas takes 4 bytes per pixel and is
	// the only full-size buffer, so one render peaks at roughly 200MB.
	DefaultMaxPixels = 50_000_000
)

// Report defaults.
const (
	// DefaultReportDirectory is the directory (relative to the working directory)
	// where json/yaml/csv reports are written when no output directory is configured
	DefaultReportDirectory = ".pytree/reports"

	// DefaultWatchDebounceMillis groups filesystem events before re-parsing
	DefaultWatchDebounceMillis = 250
)
