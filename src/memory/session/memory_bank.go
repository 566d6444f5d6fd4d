package session

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/agentrelay/go-agent/src/memory/embed"
	"github.com/agentrelay/go-agent/src/memory/model"
	"github.com/agentrelay/go-agent/src/memory/store"
)

// MemoryBank is a thin wrapper around a VectorStore implementation.
type MemoryBank struct {
	Store store.VectorStore
}

// NewMemoryBank creates a Postgres-backed memory bank.
func NewMemoryBank(ctx context.Context, connStr string) (*MemoryBank, error) {
	s, err := store.NewPostgresStore(ctx, connStr)
	if err != nil {
		return nil, err
	}
	return &MemoryBank{Store: s}, nil
}

// NewMemoryBankWithStore wraps a custom vector store implementation.
func NewMemoryBankWithStore(s store.VectorStore) *MemoryBank {
	return &MemoryBank{Store: s}
}

func (mb *MemoryBank) StoreMemory(ctx context.Context, sessionID, content string, metadata map[string]any, embedding []float32) error {
	if mb == nil || mb.Store == nil {
		return nil
	}
	return mb.Store.StoreMemory(ctx, sessionID, content, metadata, embedding)
}

func (mb *MemoryBank) SearchMemory(ctx context.Context, queryEmbedding []float32, limit int) ([]model.MemoryRecord, error) {
	if mb == nil || mb.Store == nil {
		return nil, nil
	}
	return mb.Store.SearchMemory(ctx, queryEmbedding, limit)
}

// CreateSchema initialises the backing store when it supports schema management.
func (mb *MemoryBank) CreateSchema(ctx context.Context, schemaPath string) error {
	if mb == nil || mb.Store == nil {
		return nil
	}
	initializer, ok := mb.Store.(store.SchemaInitializer)
	if !ok {
		return nil
	}
	return initializer.CreateSchema(ctx, schemaPath)
}

// Close releases underlying resources if the store implements io.Closer.
func (mb *MemoryBank) Close() error {
	if mb == nil || mb.Store == nil {
		return nil
	}
	if closer, ok := mb.Store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// SessionMemory layers a per-session short-term window over a MemoryBank.
type SessionMemory struct {
	Bank     *MemoryBank
	Embedder embed.Embedder

	mu        sync.RWMutex
	shortTerm map[string][]model.MemoryRecord
	window    int
}

// NewSessionMemory wraps bank with a short-term window of the given size.
func NewSessionMemory(bank *MemoryBank, window int) *SessionMemory {
	if window <= 0 {
		window = 8
	}
	return &SessionMemory{
		Bank:      bank,
		Embedder:  embed.AutoEmbedder(),
		shortTerm: make(map[string][]model.MemoryRecord),
		window:    window,
	}
}

// WithEmbedder overrides the embedding provider.
func (sm *SessionMemory) WithEmbedder(e embed.Embedder) *SessionMemory {
	if e != nil {
		sm.Embedder = e
	}
	return sm
}

// AddShortTerm appends to the session's ephemeral window, dropping the oldest
// entries once the window is full.
func (sm *SessionMemory) AddShortTerm(sessionID, content string, metadata map[string]any, embedding []float32) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	records := append(sm.shortTerm[sessionID], model.MemoryRecord{
		SessionID: sessionID,
		Content:   content,
		Metadata:  model.EncodeMetadata(metadata),
		Embedding: embedding,
	})
	if len(records) > sm.window {
		records = records[len(records)-sm.window:]
	}
	sm.shortTerm[sessionID] = records
}

// FlushToLongTerm persists the session's short-term window to the bank and
// clears it.
func (sm *SessionMemory) FlushToLongTerm(ctx context.Context, sessionID string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for _, rec := range sm.shortTerm[sessionID] {
		embedding := rec.Embedding
		if len(embedding) == 0 {
			embedding = embed.SafeEmbed(ctx, sm.Embedder, rec.Content)
		}
		if err := sm.Bank.StoreMemory(ctx, sessionID, rec.Content, model.DecodeMetadata(rec.Metadata), embedding); err != nil {
			return err
		}
	}
	delete(sm.shortTerm, sessionID)
	return nil
}

// Embed returns an embedding for text, never failing.
func (sm *SessionMemory) Embed(ctx context.Context, text string) []float32 {
	return embed.SafeEmbed(ctx, sm.Embedder, text)
}

// RetrieveContext returns the session's short-term window followed by the
// top long-term matches for the query.
func (sm *SessionMemory) RetrieveContext(ctx context.Context, sessionID, query string, limit int) ([]model.MemoryRecord, error) {
	var longTerm []model.MemoryRecord
	if sm.Bank != nil {
		records, err := sm.Bank.SearchMemory(ctx, sm.Embed(ctx, query), limit)
		if err != nil {
			return nil, err
		}
		longTerm = records
	}

	sm.mu.RLock()
	shortTerm := append([]model.MemoryRecord(nil), sm.shortTerm[sessionID]...)
	sm.mu.RUnlock()

	return append(shortTerm, longTerm...), nil
}

// KnowledgeContext renders retrieved memories as a prompt-ready block. An
// empty result means no relevant knowledge was found.
func (sm *SessionMemory) KnowledgeContext(ctx context.Context, sessionID, query string, limit int) string {
	records, err := sm.RetrieveContext(ctx, sessionID, query, limit)
	if err != nil || len(records) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("Relevant knowledge:\n")
	for i, rec := range records {
		fmt.Fprintf(&b, "%d. %s\n", i+1, strings.TrimSpace(rec.Content))
	}
	return strings.TrimRight(b.String(), "\n")
}
