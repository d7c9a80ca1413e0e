package server

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/verdana-ai/verdana/internal/agent"
	"github.com/verdana-ai/verdana/internal/retriever"
)

// Server wraps the MCP server with its dependencies.
type Server struct {
	server *mcp.Server
}

// Config holds server dependencies.
type Config struct {
	Orchestrator *agent.Orchestrator
	Retriever    *retriever.Retriever
	WebEnabled   bool
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	impl := &mcp.Implementation{
		Name:    "verdana-policy-server",
		Version: "v0.1.0",
	}

	srv := mcp.NewServer(impl, nil)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "ask",
		Description: "Ask a question about EU Green Deal and environmental policy. Returns an answer with attributed sources and a confidence score. Pass a session_id to keep multi-turn context.",
	}, makeAskHandler(cfg.Orchestrator))

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "ingest_document",
		Description: "Add a policy document to the knowledge base. The text is chunked, embedded and indexed; re-ingesting identical content is a no-op.",
	}, makeIngestHandler(cfg.Retriever))

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "delete_document",
		Description: "Remove a document and all of its chunks from the knowledge base by document id.",
	}, makeDeleteHandler(cfg.Retriever))

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "kb_status",
		Description: "Report knowledge base status: document and chunk counts, collection name, and whether web enrichment is active.",
	}, makeStatusHandler(cfg.Retriever, cfg.WebEnabled))

	return &Server{server: srv}
}

// Run starts the server on stdio transport and blocks until the client
// disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance for transport
// handlers that wrap it.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}
