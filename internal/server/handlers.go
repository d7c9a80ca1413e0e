package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/verdana-ai/verdana/internal/agent"
	"github.com/verdana-ai/verdana/internal/retriever"
	"github.com/verdana-ai/verdana/internal/storage"
)

// makeAskHandler creates the ask tool handler. The orchestrator already
// absorbs every downstream failure into a degraded response, so the
// handler itself cannot fail after input validation.
func makeAskHandler(orch *agent.Orchestrator) func(
	context.Context, *mcp.CallToolRequest, AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input AskInput) (
		*mcp.CallToolResult, AskOutput, error,
	) {
		query := strings.TrimSpace(input.Query)
		if query == "" {
			return nil, AskOutput{}, fmt.Errorf("query must not be empty")
		}

		resp := orch.Ask(ctx, agent.Request{
			Query:     query,
			SessionID: input.SessionID,
			Language:  input.Language,
		})

		return nil, AskOutput{
			Response:       resp.Text,
			Sources:        resp.Sources,
			Confidence:     resp.Confidence,
			Classification: string(resp.Classification),
			KnowledgeUsed:  resp.KnowledgeUsed,
			WebUsed:        resp.WebUsed,
			Language:       resp.Language,
		}, nil
	}
}

// makeIngestHandler creates the ingest_document tool handler.
// Chunking, embedding and upserting happen inside the retriever; a zero
// chunk count with no error means the document was already indexed.
func makeIngestHandler(ret *retriever.Retriever) func(
	context.Context, *mcp.CallToolRequest, IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input IngestInput) (
		*mcp.CallToolResult, IngestOutput, error,
	) {
		if strings.TrimSpace(input.Filename) == "" {
			return nil, IngestOutput{}, fmt.Errorf("filename must not be empty")
		}
		if strings.TrimSpace(input.Text) == "" {
			return nil, IngestOutput{}, fmt.Errorf("text must not be empty")
		}

		result, err := ret.Ingest(ctx, retriever.IngestDocument{
			Filename: input.Filename,
			Text:     input.Text,
			Language: input.Language,
		})
		if err != nil {
			return nil, IngestOutput{}, fmt.Errorf("ingest failed: %w", err)
		}

		return nil, IngestOutput{
			DocumentID:   result.DocumentID,
			ChunksStored: result.ChunksStored,
			Deduplicated: result.Deduplicated,
		}, nil
	}
}

// makeDeleteHandler creates the delete_document tool handler.
func makeDeleteHandler(ret *retriever.Retriever) func(
	context.Context, *mcp.CallToolRequest, DeleteInput,
) (*mcp.CallToolResult, DeleteOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input DeleteInput) (
		*mcp.CallToolResult, DeleteOutput, error,
	) {
		if strings.TrimSpace(input.DocumentID) == "" {
			return nil, DeleteOutput{}, fmt.Errorf("document_id must not be empty")
		}

		deleted, err := ret.Delete(ctx, input.DocumentID)
		if err != nil {
			return nil, DeleteOutput{}, fmt.Errorf("delete failed: %w", err)
		}
		return nil, DeleteOutput{ChunksDeleted: deleted}, nil
	}
}

// makeStatusHandler creates the kb_status tool handler.
func makeStatusHandler(ret *retriever.Retriever, webEnabled bool) func(
	context.Context, *mcp.CallToolRequest, StatusInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest, input StatusInput) (
		*mcp.CallToolResult, StatusOutput, error,
	) {
		stats, err := ret.Stats(ctx)
		if err != nil {
			return nil, StatusOutput{}, fmt.Errorf("storage_error: %w", err)
		}

		return nil, StatusOutput{
			TotalDocuments: stats.TotalDocuments,
			TotalChunks:    stats.TotalChunks,
			Collection:     storage.CollectionName,
			WebSearch:      webEnabled,
		}, nil
	}
}
