package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/pytree/domain"
)

func TestGenerateDefaultConfigTOML(t *testing.T) {
	content, err := GenerateDefaultConfigTOML()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(content, "# pytree configuration"))
	assert.Contains(t, content, "[scan]")
	assert.Contains(t, content, "[render]")
	assert.Contains(t, content, "[output]")
	assert.Contains(t, content, `suffix = ".py"`)
	assert.Contains(t, content, "scale = 1.2")
	assert.NotContains(t, content, "{{")
}

func TestGenerateDefaultConfigTOML_RoundTrip(t *testing.T) {
	content, err := GenerateDefaultConfigTOML()
	require.NoError(t, err)

	tempDir := t.TempDir()
	writeFile(t, filepath.Join(tempDir, ".pytree.toml"), content)

	config, err := LoadConfigWithTarget("", tempDir)
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultSourceSuffix, config.Scan.Suffix)
	assert.Equal(t, domain.DefaultImageScale, config.Render.Scale)
	assert.Equal(t, domain.DefaultImageSuffix, config.Render.ImageSuffix)
	assert.Equal(t, domain.DefaultMaxPixels, config.Render.MaxPixels)
	assert.Equal(t, "text", config.Output.Format)
	assert.Equal(t, domain.DefaultReportDirectory, config.Output.Directory)
	assert.NotEmpty(t, config.Scan.ExcludePatterns)
}
