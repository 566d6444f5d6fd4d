package models

import (
	"context"
	"errors"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAILLM talks to the OpenAI chat completions API.
type OpenAILLM struct {
	Client       *openai.Client
	Model        string
	PromptPrefix string
}

// NewOpenAILLM reads OPENAI_API_KEY (falling back to OPENAI_KEY) from the env.
func NewOpenAILLM(model, promptPrefix string) *OpenAILLM {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		key = os.Getenv("OPENAI_KEY")
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAILLM{
		Client:       openai.NewClient(key),
		Model:        model,
		PromptPrefix: promptPrefix,
	}
}

func (o *OpenAILLM) Chat(ctx context.Context, prompt string) (string, error) {
	full := prompt
	if o.PromptPrefix != "" {
		full = fmt.Sprintf("%s\n\n%s", o.PromptPrefix, prompt)
	}

	resp, err := o.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: full},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}

var _ ChatModel = (*OpenAILLM)(nil)
