package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ludo-technologies/pytree/domain"
)

// HandlerSet exposes MCP tool handlers with shared dependencies.
type HandlerSet struct {
	deps *Dependencies
}

// NewHandlerSet constructs a handler set.
func NewHandlerSet(deps *Dependencies) *HandlerSet {
	if deps == nil {
		deps = NewDependencies(nil, "")
	}
	return &HandlerSet{deps: deps}
}

// repositoryResult is the parse_repository payload
type repositoryResult struct {
	Root        string              `json:"root"`
	Summary     domain.ParseSummary `json:"summary"`
	FailedFiles []domain.FileResult `json:"failed_files"`
}

// fileResult is the check_file payload
type fileResult struct {
	Path        string              `json:"path"`
	Success     bool                `json:"success"`
	NodeCount   int                 `json:"node_count"`
	Diagnostics []domain.Diagnostic `json:"diagnostics"`
}

// HandleParseRepository handles the parse_repository tool
func (h *HandlerSet) HandleParseRepository(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return mcp.NewToolResultError("path parameter is required and must be a string"), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return mcp.NewToolResultError(fmt.Sprintf("path does not exist: %s", path)), nil
	}

	cfg, err := h.deps.ConfigFor(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load configuration: %v", err)), nil
	}

	req := *domain.DefaultParseRequest()
	req.Root = path
	req.Mode = domain.ModeParse
	req.Suffix = cfg.Scan.Suffix
	req.IncludePatterns = stringSlice(args["include"], cfg.Scan.IncludePatterns)
	req.ExcludePatterns = stringSlice(args["exclude"], cfg.Scan.ExcludePatterns)

	uc, err := h.deps.BuildParseUseCase()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create parser: %v", err)), nil
	}

	response, err := uc.Execute(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("parse failed: %v", err)), nil
	}

	failed := response.FailedFiles()
	if failed == nil {
		failed = []domain.FileResult{}
	}
	return jsonResult(repositoryResult{
		Root:        response.Root,
		Summary:     response.Summary,
		FailedFiles: failed,
	})
}

// HandleCheckFile handles the check_file tool
func (h *HandlerSet) HandleCheckFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("invalid arguments format"), nil
	}

	path, ok := args["path"].(string)
	if !ok || path == "" {
		return mcp.NewToolResultError("path parameter is required and must be a string"), nil
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return mcp.NewToolResultError(fmt.Sprintf("path does not exist: %s", path)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("cannot access path: %v", err)), nil
	}
	if info.IsDir() {
		return mcp.NewToolResultError(fmt.Sprintf("path is a directory, use parse_repository: %s", path)), nil
	}

	parsed, err := h.deps.ParseService().ParseFile(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("parse failed: %v", err)), nil
	}

	diagnostics := parsed.Diagnostics
	if diagnostics == nil {
		diagnostics = []domain.Diagnostic{}
	}
	return jsonResult(fileResult{
		Path:        parsed.Path,
		Success:     len(diagnostics) == 0,
		NodeCount:   parsed.NodeCount,
		Diagnostics: diagnostics,
	})
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	jsonData, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

// stringSlice converts a JSON array argument, falling back when it is absent
func stringSlice(raw interface{}, fallback []string) []string {
	items, ok := raw.([]interface{})
	if !ok {
		return fallback
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
