// Package config resolves all runtime configuration from the environment
// once at startup. Optional capabilities (web search, vector backend) are
// expressed as explicit flags here rather than probed at call sites.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// Vector store backend selection.
const (
	BackendQdrant = "qdrant"
	BackendMemory = "memory"
)

// ErrBadChunkConfig indicates a chunker configuration that would never
// advance (overlap >= chunk size). Fatal at startup.
var ErrBadChunkConfig = errors.New("chunk overlap must be smaller than chunk size")

// Config holds all runtime settings. Populated by Load, validated once,
// then passed by reference into component constructors.
type Config struct {
	// OpenAI
	OpenAIAPIKey string
	ChatModel    string
	Temperature  float64
	MaxTokens    int

	// Vector store
	VectorBackend string
	QdrantHost    string
	QdrantPort    int

	// Chunking
	ChunkSize    int
	ChunkOverlap int

	// Retrieval
	MaxChunks       int
	SimilarityFloor float64
	ContextBudget   int // approximate tokens

	// Web search
	TavilyAPIKey     string
	WebSearchEnabled bool

	// Session history
	HistoryCap int

	// Server
	Port       string
	ServerMode bool
}

// Load reads configuration from the environment with defaults matching
// the production deployment.
func Load() *Config {
	cfg := &Config{
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		ChatModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		Temperature:     getEnvFloat("OPENAI_TEMPERATURE", 0.7),
		MaxTokens:       getEnvInt("OPENAI_MAX_TOKENS", 1200),
		VectorBackend:   getEnv("VECTOR_BACKEND", BackendQdrant),
		QdrantHost:      getEnv("QDRANT_HOST", "localhost"),
		QdrantPort:      getEnvInt("QDRANT_PORT", 6334),
		ChunkSize:       getEnvInt("CHUNK_SIZE", 800),
		ChunkOverlap:    getEnvInt("CHUNK_OVERLAP", 300),
		MaxChunks:       getEnvInt("RAG_TOP_K", 5),
		SimilarityFloor: getEnvFloat("RAG_SIMILARITY_THRESHOLD", 0.3),
		ContextBudget:   getEnvInt("RAG_MAX_CONTEXT_TOKENS", 2000),
		TavilyAPIKey:    os.Getenv("TAVILY_API_KEY"),
		HistoryCap:      getEnvInt("SESSION_HISTORY_CAP", 20),
		Port:            getEnv("PORT", "8080"),
		ServerMode:      getEnv("SERVER_MODE", "false") == "true",
	}
	cfg.WebSearchEnabled = cfg.TavilyAPIKey != ""
	return cfg
}

// Validate enforces the fatal startup invariants. The process must refuse
// to start on any error returned here.
func (c *Config) Validate() error {
	if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}
	if c.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got %d", c.ChunkSize)
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("chunk overlap must be non-negative, got %d", c.ChunkOverlap)
	}
	if c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: size=%d overlap=%d", ErrBadChunkConfig, c.ChunkSize, c.ChunkOverlap)
	}
	switch c.VectorBackend {
	case BackendQdrant, BackendMemory:
	default:
		return fmt.Errorf("unknown vector backend %q", c.VectorBackend)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
