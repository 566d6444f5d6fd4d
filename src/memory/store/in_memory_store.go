package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/agentrelay/go-agent/src/memory/model"
)

// InMemoryStore keeps records in process memory and ranks searches by cosine
// similarity. Intended for tests and single-process deployments.
type InMemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	records []model.MemoryRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) StoreMemory(_ context.Context, sessionID, content string, metadata map[string]any, embedding []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.records = append(s.records, model.MemoryRecord{
		ID:        s.nextID,
		SessionID: sessionID,
		Content:   content,
		Metadata:  model.EncodeMetadata(metadata),
		Embedding: append([]float32(nil), embedding...),
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

func (s *InMemoryStore) SearchMemory(_ context.Context, queryEmbedding []float32, limit int) ([]model.MemoryRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	s.mu.RLock()
	scored := make([]model.MemoryRecord, len(s.records))
	copy(scored, s.records)
	s.mu.RUnlock()

	for i := range scored {
		scored[i].Score = model.CosineSimilarity(queryEmbedding, scored[i].Embedding)
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}

func (s *InMemoryStore) DeleteMemory(_ context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.records[:0]
	for _, rec := range s.records {
		if !drop[rec.ID] {
			kept = append(kept, rec)
		}
	}
	s.records = kept
	return nil
}

func (s *InMemoryStore) Iterate(_ context.Context, fn func(model.MemoryRecord) bool) error {
	s.mu.RLock()
	snapshot := make([]model.MemoryRecord, len(s.records))
	copy(snapshot, s.records)
	s.mu.RUnlock()

	for _, rec := range snapshot {
		if !fn(rec) {
			break
		}
	}
	return nil
}

func (s *InMemoryStore) Count(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records), nil
}

var _ VectorStore = (*InMemoryStore)(nil)
