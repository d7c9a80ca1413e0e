package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		OpenAIAPIKey:  "sk-test",
		VectorBackend: BackendQdrant,
		ChunkSize:     800,
		ChunkOverlap:  300,
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidateRequiresAPIKey(t *testing.T) {
	cfg := validConfig()
	cfg.OpenAIAPIKey = ""
	assert.Error(t, cfg.Validate())
}

func TestValidateRejectsBadChunkRatio(t *testing.T) {
	cfg := validConfig()
	cfg.ChunkOverlap = cfg.ChunkSize
	assert.ErrorIs(t, cfg.Validate(), ErrBadChunkConfig)

	cfg.ChunkOverlap = cfg.ChunkSize + 100
	assert.ErrorIs(t, cfg.Validate(), ErrBadChunkConfig)
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	cfg := validConfig()
	cfg.VectorBackend = "postgres"
	assert.Error(t, cfg.Validate())
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("TAVILY_API_KEY", "")

	cfg := Load()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "gpt-4o-mini", cfg.ChatModel)
	assert.Equal(t, 800, cfg.ChunkSize)
	assert.Equal(t, 300, cfg.ChunkOverlap)
	assert.Equal(t, 5, cfg.MaxChunks)
	assert.InDelta(t, 0.3, cfg.SimilarityFloor, 1e-9)
	assert.Equal(t, 2000, cfg.ContextBudget)
	assert.False(t, cfg.WebSearchEnabled)
}

func TestLoadEnablesWebSearchWithKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("TAVILY_API_KEY", "tvly-test")

	cfg := Load()
	assert.True(t, cfg.WebSearchEnabled)
}
