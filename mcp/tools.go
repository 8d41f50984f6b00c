package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers all pytree MCP tools with the server
func RegisterTools(s *server.MCPServer, h *HandlerSet) {
	if h == nil {
		h = NewHandlerSet(nil)
	}

	s.AddTool(mcp.NewTool("parse_repository",
		mcp.WithDescription("Parse every Python file under a directory and report which files have syntax errors"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Repository root (or single file) to parse")),
		mcp.WithArray("include",
			mcp.WithStringItems(),
			mcp.Description("Glob patterns selecting files, e.g. src/**. Default: every .py file")),
		mcp.WithArray("exclude",
			mcp.WithStringItems(),
			mcp.Description("Glob patterns removing files, e.g. **/tests/**")),
	), h.HandleParseRepository)

	s.AddTool(mcp.NewTool("check_file",
		mcp.WithDescription("Parse a single Python file and return its syntax diagnostics"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the Python file")),
	), h.HandleCheckFile)
}
