//go:build fastembed

package embed

import (
	"context"
	"runtime"

	fastembed "github.com/anush008/fastembed-go"
)

// Options configures the local fastembed model.
type Options struct {
	Model     string
	CacheDir  string
	MaxLength int
	BatchSize int
}

// FastEmbedder runs an ONNX embedding model locally via fastembed.
type FastEmbedder struct {
	model *fastembed.FlagEmbedding
	batch int
}

func defaultFastEmbedOptions() *Options {
	return &Options{
		Model:     string(fastembed.BGESmallENV15),
		CacheDir:  ".fastembed",
		BatchSize: 64,
	}
}

func NewFastEmbedder(_ context.Context, opt *Options) (Embedder, error) {
	var init *fastembed.InitOptions
	if opt != nil {
		init = &fastembed.InitOptions{
			Model:     fastembed.EmbeddingModel(opt.Model),
			CacheDir:  opt.CacheDir,
			MaxLength: opt.MaxLength,
		}
	}
	m, err := fastembed.NewFlagEmbedding(init)
	if err != nil {
		return nil, err
	}
	batch := 64
	if opt != nil && opt.BatchSize > 0 {
		batch = opt.BatchSize
	}
	if max := 4 * runtime.GOMAXPROCS(0); batch > max {
		batch = max
	}
	return &FastEmbedder{model: m, batch: batch}, nil
}

func (e *FastEmbedder) Close() error {
	if e.model != nil {
		e.model.Destroy()
	}
	return nil
}

func (e *FastEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return e.model.QueryEmbed(text)
}
