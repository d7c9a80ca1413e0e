// Package server exposes the policy assistant over MCP: the ask pipeline
// plus knowledge-base administration tools, served over stdio or
// streamable HTTP.
package server

import "github.com/verdana-ai/verdana/internal/agent"

// AskInput defines the input parameters for the ask tool.
type AskInput struct {
	// Query is the user's question.
	Query string `json:"query" jsonschema:"required,description=The user's question about EU environmental policy"`
	// SessionID groups turns into one conversation. Optional; stateless when empty.
	SessionID string `json:"session_id,omitempty" jsonschema:"description=Conversation session identifier for multi-turn context"`
	// Language is an ISO language-code hint, pinned on the session's first turn.
	Language string `json:"language,omitempty" jsonschema:"description=ISO language code hint (e.g. en, ro, fr)"`
}

// AskOutput is the answered query with attribution.
type AskOutput struct {
	Response       string         `json:"response"`
	Sources        []agent.Source `json:"sources"`
	Confidence     float64        `json:"confidence"`
	Classification string         `json:"query_type"`
	KnowledgeUsed  int            `json:"knowledge_used"`
	WebUsed        int            `json:"web_research_used"`
	Language       string         `json:"language"`
}

// IngestInput defines the input parameters for the ingest_document tool.
type IngestInput struct {
	// Filename names the document; its stem becomes the display title.
	Filename string `json:"filename" jsonschema:"required,description=Document filename (e.g. eu_climate_law.md)"`
	// Text is the document body, plain text or markdown.
	Text string `json:"text" jsonschema:"required,description=Full document text to chunk and index"`
	// Language is the document's ISO language code.
	Language string `json:"language,omitempty" jsonschema:"description=ISO language code of the document (default en)"`
}

// IngestOutput reports what was stored.
type IngestOutput struct {
	DocumentID   string `json:"document_id"`
	ChunksStored int    `json:"chunks_stored"`
	// Deduplicated is true when an identical document was already indexed
	// and nothing new was written.
	Deduplicated bool `json:"deduplicated"`
}

// DeleteInput defines the input parameters for the delete_document tool.
type DeleteInput struct {
	// DocumentID is the id originally returned by ingest_document.
	DocumentID string `json:"document_id" jsonschema:"required,description=ID of the document to remove"`
}

// DeleteOutput reports the cascade result.
type DeleteOutput struct {
	ChunksDeleted int `json:"chunks_deleted"`
}

// StatusInput defines the input parameters for the kb_status tool.
// The tool takes no parameters.
type StatusInput struct{}

// StatusOutput summarizes the knowledge base.
type StatusOutput struct {
	TotalDocuments int    `json:"total_documents"`
	TotalChunks    int    `json:"total_chunks"`
	Collection     string `json:"collection"`
	WebSearch      bool   `json:"web_search_enabled"`
}
