package embed

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"
)

// Embedder is a pluggable text-embedding provider.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ErrNotSupported is returned by providers that cannot produce embeddings.
var ErrNotSupported = errors.New("embeddings not supported by this provider")

// DummyEmbedder produces deterministic embeddings without network access.
type DummyEmbedder struct{}

func (DummyEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return DummyEmbedding(text), nil
}

// DummyEmbedding folds the input bytes into a fixed 768-dim vector.
func DummyEmbedding(text string) []float32 {
	vec := make([]float32, 768)
	for i, ch := range []byte(text) {
		vec[i%768] += float32(ch) / 255.0
	}
	return vec
}

// AutoEmbedder chooses a provider from env:
// AGENT_EMBED_PROVIDER=openai|ollama|voyage|fastembed
// AGENT_EMBED_MODEL=<model string>
// Unset or failing providers fall back to DummyEmbedder.
func AutoEmbedder() Embedder {
	provider := strings.ToLower(strings.TrimSpace(os.Getenv("AGENT_EMBED_PROVIDER")))
	model := strings.TrimSpace(os.Getenv("AGENT_EMBED_MODEL"))

	switch provider {
	case "openai":
		if e, err := NewOpenAIEmbedder(model); err == nil {
			return e
		}
	case "ollama":
		if e, err := NewOllamaEmbedder(model); err == nil {
			return e
		}
	case "voyage", "claude", "anthropic":
		if e, err := NewVoyageEmbedder(model); err == nil {
			return e
		}
	case "fastembed":
		if opts := defaultFastEmbedOptions(); opts != nil {
			if e, err := NewFastEmbedder(context.Background(), opts); err == nil {
				return e
			}
		}
	}

	log.Printf("AutoEmbedder: falling back to DummyEmbedder")
	return DummyEmbedder{}
}

// SafeEmbed never fails; any provider error yields the dummy embedding.
func SafeEmbed(ctx context.Context, e Embedder, text string) []float32 {
	if e == nil {
		return DummyEmbedding(text)
	}
	vec, err := e.Embed(ctx, text)
	if err != nil || len(vec) == 0 {
		return DummyEmbedding(text)
	}
	return vec
}
