package models

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	ollama "github.com/ollama/ollama/api"
)

// OllamaLLM talks to a local or remote Ollama daemon.
type OllamaLLM struct {
	Client       *ollama.Client
	Model        string
	PromptPrefix string
}

// NewOllamaLLM reads OLLAMA_HOST from the env, defaulting to localhost.
func NewOllamaLLM(model, promptPrefix string) (*OllamaLLM, error) {
	host := os.Getenv("OLLAMA_HOST")
	if host == "" {
		host = "http://localhost:11434"
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid OLLAMA_HOST %q: %w", host, err)
	}
	client := ollama.NewClient(u, &http.Client{Timeout: 120 * time.Second})
	return &OllamaLLM{Client: client, Model: model, PromptPrefix: promptPrefix}, nil
}

func (o *OllamaLLM) Chat(ctx context.Context, prompt string) (string, error) {
	full := prompt
	if o.PromptPrefix != "" {
		full = fmt.Sprintf("%s\n\n%s", o.PromptPrefix, prompt)
	}

	var text strings.Builder
	req := &ollama.GenerateRequest{Model: o.Model, Prompt: full}
	err := o.Client.Generate(ctx, req, func(gr ollama.GenerateResponse) error {
		text.WriteString(gr.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama generate: %w", err)
	}
	return text.String(), nil
}

// ChatStream uses Ollama's native callback streaming.
func (o *OllamaLLM) ChatStream(ctx context.Context, prompt string) (<-chan StreamChunk, error) {
	full := prompt
	if o.PromptPrefix != "" {
		full = fmt.Sprintf("%s\n\n%s", o.PromptPrefix, prompt)
	}

	ch := make(chan StreamChunk, 16)
	go func() {
		defer close(ch)
		var sb strings.Builder
		req := &ollama.GenerateRequest{Model: o.Model, Prompt: full}
		err := o.Client.Generate(ctx, req, func(gr ollama.GenerateResponse) error {
			if gr.Response != "" {
				sb.WriteString(gr.Response)
				ch <- StreamChunk{Delta: gr.Response}
			}
			return nil
		})
		ch <- StreamChunk{Done: true, FullText: sb.String(), Err: err}
	}()
	return ch, nil
}

var (
	_ ChatModel = (*OllamaLLM)(nil)
	_ Streamer  = (*OllamaLLM)(nil)
)
