package mcp_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludo-technologies/pytree/mcp"
	"github.com/ludo-technologies/pytree/service"
)

type repositoryPayload struct {
	Root    string `json:"root"`
	Summary struct {
		TotalFiles   int `json:"total_files"`
		SuccessCount int `json:"success_count"`
		FailureCount int `json:"failure_count"`
	} `json:"summary"`
	FailedFiles []struct {
		Path        string `json:"path"`
		Diagnostics []struct {
			Line   int `json:"line"`
			Column int `json:"column"`
		} `json:"diagnostics"`
	} `json:"failed_files"`
}

type filePayload struct {
	Path        string `json:"path"`
	Success     bool   `json:"success"`
	NodeCount   int    `json:"node_count"`
	Diagnostics []struct {
		Line    int    `json:"line"`
		Message string `json:"message"`
	} `json:"diagnostics"`
}

func setupRepo(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"good.py":       "def ok():\n    return 1\n",
		"pkg/bad.py":    "def broken(:\n    pass\n",
		"tests/test.py": "def test():\n    assert True\n",
		"notes.txt":     "ignored",
	}
	for rel, content := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func callTool(
	t *testing.T,
	arguments interface{},
	handlerFunc func(*mcp.HandlerSet, context.Context, mcplib.CallToolRequest) (*mcplib.CallToolResult, error),
) *mcplib.CallToolResult {
	t.Helper()
	deps := mcp.NewTestDependencies(service.NewFileReader(), nil, "")
	h := mcp.NewHandlerSet(deps)

	req := mcplib.CallToolRequest{
		Params: mcplib.CallToolParams{
			Arguments: arguments,
		},
	}

	res, err := handlerFunc(h, context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func resultText(t *testing.T, res *mcplib.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := mcplib.AsTextContent(res.Content[0])
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return tc.Text
}

func TestHandleParseRepository_Errors(t *testing.T) {
	tests := map[string]struct {
		arguments    interface{}
		expectPrefix string
	}{
		"invalid_arguments_format": {arguments: "not-a-map", expectPrefix: "invalid arguments format"},
		"path_missing":             {arguments: map[string]interface{}{}, expectPrefix: "path parameter is required"},
		"path_not_exist":           {arguments: map[string]interface{}{"path": "/non/existing/path"}, expectPrefix: "path does not exist"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			res := callTool(t, tc.arguments, (*mcp.HandlerSet).HandleParseRepository)
			assert.True(t, res.IsError)
			assert.True(t, strings.HasPrefix(resultText(t, res), tc.expectPrefix), resultText(t, res))
		})
	}
}

func TestHandleParseRepository_Success(t *testing.T) {
	root := setupRepo(t)

	res := callTool(t, map[string]interface{}{"path": root}, (*mcp.HandlerSet).HandleParseRepository)
	require.False(t, res.IsError, resultText(t, res))

	var payload repositoryPayload
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &payload))

	assert.Equal(t, 3, payload.Summary.TotalFiles)
	assert.Equal(t, 2, payload.Summary.SuccessCount)
	assert.Equal(t, 1, payload.Summary.FailureCount)
	require.Len(t, payload.FailedFiles, 1)
	assert.Equal(t, filepath.Join(root, "pkg", "bad.py"), payload.FailedFiles[0].Path)
	assert.NotEmpty(t, payload.FailedFiles[0].Diagnostics)
}

func TestHandleParseRepository_Patterns(t *testing.T) {
	root := setupRepo(t)

	res := callTool(t, map[string]interface{}{
		"path":    root,
		"exclude": []interface{}{"pkg/**", "tests/**"},
	}, (*mcp.HandlerSet).HandleParseRepository)
	require.False(t, res.IsError, resultText(t, res))

	var payload repositoryPayload
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &payload))
	assert.Equal(t, 1, payload.Summary.TotalFiles)
	assert.Equal(t, 0, payload.Summary.FailureCount)
	assert.NotNil(t, payload.FailedFiles)
}

func TestHandleCheckFile(t *testing.T) {
	root := setupRepo(t)

	t.Run("valid file", func(t *testing.T) {
		res := callTool(t, map[string]interface{}{"path": filepath.Join(root, "good.py")}, (*mcp.HandlerSet).HandleCheckFile)
		require.False(t, res.IsError, resultText(t, res))

		var payload filePayload
		require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &payload))
		assert.True(t, payload.Success)
		assert.Empty(t, payload.Diagnostics)
		assert.Greater(t, payload.NodeCount, 0)
	})

	t.Run("file with syntax errors", func(t *testing.T) {
		res := callTool(t, map[string]interface{}{"path": filepath.Join(root, "pkg", "bad.py")}, (*mcp.HandlerSet).HandleCheckFile)
		require.False(t, res.IsError, resultText(t, res))

		var payload filePayload
		require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &payload))
		assert.False(t, payload.Success)
		require.NotEmpty(t, payload.Diagnostics)
		assert.GreaterOrEqual(t, payload.Diagnostics[0].Line, 1)
	})

	t.Run("directory", func(t *testing.T) {
		res := callTool(t, map[string]interface{}{"path": root}, (*mcp.HandlerSet).HandleCheckFile)
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "use parse_repository")
	})

	t.Run("missing", func(t *testing.T) {
		res := callTool(t, map[string]interface{}{"path": filepath.Join(root, "nope.py")}, (*mcp.HandlerSet).HandleCheckFile)
		assert.True(t, res.IsError)
		assert.True(t, strings.HasPrefix(resultText(t, res), "path does not exist"))
	})

	t.Run("invalid arguments", func(t *testing.T) {
		res := callTool(t, []string{"x"}, (*mcp.HandlerSet).HandleCheckFile)
		assert.True(t, res.IsError)
	})
}

func TestRegisterTools(t *testing.T) {
	s := server.NewMCPServer("pytree-test", "0.0.0", server.WithToolCapabilities(true))
	mcp.RegisterTools(s, nil)

	tools := s.ListTools()
	assert.Contains(t, tools, "parse_repository")
	assert.Contains(t, tools, "check_file")
}
