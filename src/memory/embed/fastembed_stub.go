//go:build !fastembed

package embed

import (
	"context"
	"fmt"
)

// Options configures the local fastembed model.
type Options struct {
	Model     string
	CacheDir  string
	MaxLength int
	BatchSize int
}

type FastEmbedder struct{}

func defaultFastEmbedOptions() *Options { return nil }

func NewFastEmbedder(context.Context, *Options) (Embedder, error) {
	return nil, fmt.Errorf("fastembed support not included; rebuild with -tags fastembed")
}

func (FastEmbedder) Close() error { return nil }

func (FastEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, fmt.Errorf("fastembed support not included")
}
