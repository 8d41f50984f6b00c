package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/pytree/domain"
	"github.com/ludo-technologies/pytree/internal/config"
	"github.com/ludo-technologies/pytree/service"
)

// TestParseCommandInterface tests the root parse command interface
func TestParseCommandInterface(t *testing.T) {
	cobraCmd := NewParseCommand().CreateCobraCommand()
	if cobraCmd == nil {
		t.Fatal("CreateCobraCommand should return a valid cobra command")
	}

	if cobraCmd.Use != "pytree <repo-root-path> [images|parse]" {
		t.Errorf("unexpected use line: %q", cobraCmd.Use)
	}

	flags := cobraCmd.Flags()
	expectedFlags := []string{"config", "suffix", "include", "exclude", "output-dir", "scale", "max-pixels", "mirror", "quiet", "json", "yaml", "csv", "fail-on-error"}
	for _, flagName := range expectedFlags {
		if flags.Lookup(flagName) == nil {
			t.Errorf("Expected flag '%s' to be defined", flagName)
		}
	}
}

func TestRootCommandSubcommands(t *testing.T) {
	rootCmd := NewRootCmd()

	for _, name := range []string{"version", "init", "watch"} {
		cmd, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, cmd.Name())
	}
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("verbose"))
}

func TestValidateRootArgs(t *testing.T) {
	assert.Error(t, validateRootArgs(nil, nil))
	assert.NoError(t, validateRootArgs(nil, []string{"."}))
	assert.NoError(t, validateRootArgs(nil, []string{".", "images"}))
	assert.Error(t, validateRootArgs(nil, []string{".", "images", "extra"}))
}

func TestBuildParseRequest(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Scan.Suffix = ".pyw"
	cfg.Scan.ExcludePatterns = []string{"build/**"}
	cfg.Render.OutputDir = "/tmp/out"
	cfg.Render.Scale = 2
	cfg.Render.MirrorLayout = true

	req := buildParseRequest(cfg, "repo", domain.ModeImages)

	assert.Equal(t, "repo", req.Root)
	assert.Equal(t, domain.ModeImages, req.Mode)
	assert.Equal(t, ".pyw", req.Suffix)
	assert.Equal(t, []string{"build/**"}, req.ExcludePatterns)
	assert.Equal(t, "/tmp/out", req.OutputDir)
	assert.Equal(t, 2.0, req.Scale)
	assert.True(t, req.MirrorLayout)
	assert.Equal(t, domain.OutputFormatText, req.OutputFormat)
}

func TestGenerateOutputFilePath(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")

	path, err := generateOutputFilePath("parse", "csv", dir)
	require.NoError(t, err)

	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasPrefix(filepath.Base(path), "parse_"))
	assert.True(t, strings.HasSuffix(path, ".csv"))
	assert.DirExists(t, dir)
}

func TestResolveOutputDirectory(t *testing.T) {
	assert.Equal(t, "custom", resolveOutputDirectory("custom"))

	cwd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cwd, ".pytree", "reports"), resolveOutputDirectory(""))
}

func TestVersionCommandInterface(t *testing.T) {
	cobraCmd := NewVersionCommand().CreateCobraCommand()
	if cobraCmd.Use != "version" {
		t.Errorf("Expected command use 'version', got '%s'", cobraCmd.Use)
	}

	var output bytes.Buffer
	cobraCmd.SetOut(&output)
	cobraCmd.SetErr(&output)
	cobraCmd.SetArgs([]string{})

	if err := cobraCmd.Execute(); err != nil {
		t.Fatalf("Version command should not fail: %v", err)
	}
	if !strings.HasPrefix(output.String(), "pytree ") {
		t.Errorf("unexpected version output: %q", output.String())
	}
}

func TestInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ".pytree.toml")

	code, stdout, stderr := runCLI("init", "--config", path)
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, "Configuration file created")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[scan]")
	assert.Contains(t, string(data), "[render]")

	code, _, stderr = runCLI("init", "--config", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "already exists")

	code, _, _ = runCLI("init", "--config", path, "--force")
	assert.Equal(t, 0, code)
}

func TestInitConfigIsLoadable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".pytree.toml")

	code, _, stderr := runCLI("init", "--config", path)
	require.Equal(t, 0, code, stderr)

	cfg, err := config.LoadConfigWithTarget("", dir)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Source)
	assert.Equal(t, domain.DefaultSourceSuffix, cfg.Scan.Suffix)
}

func TestChangedSources(t *testing.T) {
	root := writeRepo(t, map[string]string{
		"a.py":          "x = 1\n",
		"b.txt":         "text",
		"venv/lib.py":   "y = 2\n",
		"pkg/types.pyi": "z: int\n",
	})
	req := *domain.DefaultParseRequest()
	req.Root = root
	req.ExcludePatterns = []string{"venv/**"}

	paths := []string{
		filepath.Join(root, "a.py"),
		filepath.Join(root, "b.txt"),
		filepath.Join(root, "venv", "lib.py"),
		filepath.Join(root, "pkg", "types.pyi"),
		filepath.Join(root, "deleted.py"),
	}

	files := changedSources(service.NewFileReader(), req, paths)
	assert.Equal(t, []string{filepath.Join(root, "a.py")}, files)
}

func TestIgnoreOutputDir(t *testing.T) {
	assert.Nil(t, ignoreOutputDir(""))

	out := filepath.Join(string(filepath.Separator)+"repo", "trees")
	ignore := ignoreOutputDir(out)

	assert.True(t, ignore(out, true))
	assert.True(t, ignore(filepath.Join(out, "a_tree.png"), false))
	assert.False(t, ignore(out+"2", true))
	assert.False(t, ignore(filepath.Join(string(filepath.Separator)+"repo", "a.py"), false))
}
