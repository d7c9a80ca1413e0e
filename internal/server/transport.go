package server

import (
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// HTTPHandlerOptions configures the HTTP transport behavior.
type HTTPHandlerOptions struct {
	// Stateless disables MCP session management. Tool sessions are
	// independent of conversation sessions, which live in the session
	// store keyed by session_id.
	Stateless bool
}

// NewHTTPHandler serves the MCP server over streamable HTTP. Mount it on
// a mux path, typically "/mcp", next to the health endpoint.
func NewHTTPHandler(s *Server, opts *HTTPHandlerOptions) http.Handler {
	if opts == nil {
		opts = &HTTPHandlerOptions{}
	}

	sdkOpts := &mcp.StreamableHTTPOptions{
		Stateless: opts.Stateless,
	}

	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return s.MCPServer()
	}, sdkOpts)
}
