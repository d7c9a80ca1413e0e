package agent

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/verdana-ai/verdana/internal/embedding"
)

// Message is one role-tagged entry in a completion request.
type Message struct {
	Role    string // "system", "user" or "assistant"
	Content string
}

// Completer is the opaque text-completion capability. The orchestrator's
// only obligation toward it is compliant message ordering: one system
// message, a bounded window of prior turns, then the current user turn.
type Completer interface {
	Complete(ctx context.Context, messages []Message, maxTokens int, temperature float64) (string, error)
}

// OpenAICompleter implements Completer on the OpenAI chat API.
type OpenAICompleter struct {
	client *openai.Client
	model  string
}

// NewOpenAICompleter wraps the shared OpenAI client for the given chat
// model.
func NewOpenAICompleter(client *embedding.Client, model string) *OpenAICompleter {
	return &OpenAICompleter{
		client: client.Client(),
		model:  model,
	}
}

func (c *OpenAICompleter) Complete(ctx context.Context, messages []Message, maxTokens int, temperature float64) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(c.model),
		MaxCompletionTokens: openai.Int(int64(maxTokens)),
		Temperature:         openai.Float(temperature),
	}
	for _, m := range messages {
		switch m.Role {
		case "system":
			params.Messages = append(params.Messages, openai.SystemMessage(m.Content))
		case "assistant":
			params.Messages = append(params.Messages, openai.AssistantMessage(m.Content))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(m.Content))
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
