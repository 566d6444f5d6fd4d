package models

import (
	"context"
	"fmt"
)

// NewChatModel returns a concrete ChatModel for the named provider.
func NewChatModel(ctx context.Context, provider, model, promptPrefix string) (ChatModel, error) {
	switch provider {
	case "openai":
		return NewOpenAILLM(model, promptPrefix), nil
	case "anthropic", "claude":
		return NewAnthropicLLM(model, promptPrefix), nil
	case "gemini", "google":
		return NewGeminiLLM(ctx, model, promptPrefix)
	case "ollama":
		return NewOllamaLLM(model, promptPrefix)
	case "dummy", "":
		return NewDummyLLM(promptPrefix), nil
	default:
		return nil, fmt.Errorf("unknown provider: %s", provider)
	}
}
