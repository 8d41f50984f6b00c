package main

import (
	"fmt"
	"log"
	"os"

	"github.com/ludo-technologies/pytree/internal/version"
	"github.com/ludo-technologies/pytree/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

const serverName = "pytree"

func main() {
	// MCP uses stdout for JSON-RPC
	log.SetOutput(os.Stderr)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	server := mcpserver.NewMCPServer(
		serverName,
		version.Short(),
		mcpserver.WithToolCapabilities(true),
		mcpserver.WithLogging(),
	)

	mcp.RegisterTools(server, mcp.NewHandlerSet(mcp.NewDependencies(nil, os.Getenv("PYTREE_CONFIG"))))

	log.Printf("Starting %s MCP server %s\n", serverName, version.Short())
	log.Println("Registered tools:")
	log.Println("  - parse_repository: Syntax check every Python file under a directory")
	log.Println("  - check_file: Syntax diagnostics for a single file")
	log.Println("Server ready - waiting for MCP client connection...")

	// Blocks until the client disconnects
	if err := mcpserver.ServeStdio(server); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
