package store

import (
	"context"

	"github.com/agentrelay/go-agent/src/memory/model"
)

// VectorStore is the contract for long-term knowledge backends.
type VectorStore interface {
	StoreMemory(ctx context.Context, sessionID, content string, metadata map[string]any, embedding []float32) error
	SearchMemory(ctx context.Context, queryEmbedding []float32, limit int) ([]model.MemoryRecord, error)
	DeleteMemory(ctx context.Context, ids []int64) error
	Iterate(ctx context.Context, fn func(model.MemoryRecord) bool) error
	Count(ctx context.Context) (int, error)
}

// SchemaInitializer is implemented by stores that can bootstrap their own
// schema or indexes.
type SchemaInitializer interface {
	CreateSchema(ctx context.Context, schemaPath string) error
}
