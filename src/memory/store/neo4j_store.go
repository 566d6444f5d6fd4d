package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	neo4j "github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/agentrelay/go-agent/src/memory/model"
)

// Neo4jStore is a VectorStore that persists records as Memory nodes in Neo4j.
// Embeddings are kept as float array properties and ranked in process.
type Neo4jStore struct {
	driver   neo4j.DriverWithContext
	database string
}

// NewNeo4jStore connects to the given bolt URI using basic auth.
func NewNeo4jStore(ctx context.Context, uri, username, password, database string) (*Neo4jStore, error) {
	if uri == "" {
		return nil, errors.New("neo4j uri is required")
	}
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4j connectivity: %w", err)
	}
	return &Neo4jStore{driver: driver, database: database}, nil
}

func (s *Neo4jStore) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: s.database})
}

func (s *Neo4jStore) StoreMemory(ctx context.Context, sessionID, content string, metadata map[string]any, embedding []float32) error {
	if s == nil || s.driver == nil {
		return nil
	}
	sess := s.session(ctx, neo4j.AccessModeWrite)
	defer sess.Close(ctx)

	_, err := sess.Run(ctx, `
                MERGE (c:Counter {name: 'memory_bank'})
                ON CREATE SET c.seq = 0
                SET c.seq = c.seq + 1
                WITH c.seq AS id
                CREATE (m:Memory {
                        id: id,
                        session_id: $session_id,
                        content: $content,
                        metadata: $metadata,
                        embedding: $embedding,
                        created_at: $created_at
                })
        `, map[string]any{
		"session_id": sessionID,
		"content":    content,
		"metadata":   model.EncodeMetadata(metadata),
		"embedding":  toFloat64s(embedding),
		"created_at": time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("neo4j store memory: %w", err)
	}
	return nil
}

func (s *Neo4jStore) SearchMemory(ctx context.Context, queryEmbedding []float32, limit int) ([]model.MemoryRecord, error) {
	if s == nil || s.driver == nil || limit <= 0 {
		return nil, nil
	}
	var records []model.MemoryRecord
	err := s.Iterate(ctx, func(rec model.MemoryRecord) bool {
		rec.Score = model.CosineSimilarity(queryEmbedding, rec.Embedding)
		records = append(records, rec)
		return true
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Score > records[j].Score
	})
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (s *Neo4jStore) DeleteMemory(ctx context.Context, ids []int64) error {
	if s == nil || s.driver == nil || len(ids) == 0 {
		return nil
	}
	sess := s.session(ctx, neo4j.AccessModeWrite)
	defer sess.Close(ctx)

	_, err := sess.Run(ctx, `
                MATCH (m:Memory) WHERE m.id IN $ids DETACH DELETE m
        `, map[string]any{"ids": ids})
	return err
}

func (s *Neo4jStore) Iterate(ctx context.Context, fn func(model.MemoryRecord) bool) error {
	if s == nil || s.driver == nil {
		return nil
	}
	sess := s.session(ctx, neo4j.AccessModeRead)
	defer sess.Close(ctx)

	result, err := sess.Run(ctx, `
                MATCH (m:Memory)
                RETURN m.id AS id, m.session_id AS session_id, m.content AS content,
                       m.metadata AS metadata, m.embedding AS embedding, m.created_at AS created_at
                ORDER BY m.created_at ASC
        `, nil)
	if err != nil {
		return err
	}
	for result.Next(ctx) {
		if !fn(recordFromNeo4j(result.Record())) {
			break
		}
	}
	return result.Err()
}

func (s *Neo4jStore) Count(ctx context.Context) (int, error) {
	if s == nil || s.driver == nil {
		return 0, nil
	}
	sess := s.session(ctx, neo4j.AccessModeRead)
	defer sess.Close(ctx)

	result, err := sess.Run(ctx, `MATCH (m:Memory) RETURN count(m) AS n`, nil)
	if err != nil {
		return 0, err
	}
	if result.Next(ctx) {
		if v, ok := result.Record().Get("n"); ok {
			if n, ok := v.(int64); ok {
				return int(n), nil
			}
		}
	}
	return 0, result.Err()
}

// CreateSchema ensures the uniqueness constraint on Memory ids.
func (s *Neo4jStore) CreateSchema(ctx context.Context, _ string) error {
	if s == nil || s.driver == nil {
		return nil
	}
	sess := s.session(ctx, neo4j.AccessModeWrite)
	defer sess.Close(ctx)

	_, err := sess.Run(ctx, `CREATE CONSTRAINT IF NOT EXISTS FOR (m:Memory) REQUIRE m.id IS UNIQUE`, nil)
	return err
}

func (s *Neo4jStore) Close() error {
	if s == nil || s.driver == nil {
		return nil
	}
	return s.driver.Close(context.Background())
}

func recordFromNeo4j(rec *neo4j.Record) model.MemoryRecord {
	var out model.MemoryRecord
	if rec == nil {
		return out
	}
	if v, ok := rec.Get("id"); ok {
		if id, ok := v.(int64); ok {
			out.ID = id
		}
	}
	if v, ok := rec.Get("session_id"); ok {
		out.SessionID, _ = v.(string)
	}
	if v, ok := rec.Get("content"); ok {
		out.Content, _ = v.(string)
	}
	if v, ok := rec.Get("metadata"); ok {
		out.Metadata, _ = v.(string)
	}
	if v, ok := rec.Get("embedding"); ok {
		if raw, ok := v.([]any); ok {
			vec := make([]float32, 0, len(raw))
			for _, item := range raw {
				if f, ok := item.(float64); ok {
					vec = append(vec, float32(f))
				}
			}
			out.Embedding = vec
		}
	}
	if v, ok := rec.Get("created_at"); ok {
		if text, ok := v.(string); ok {
			if ts, err := time.Parse(time.RFC3339Nano, text); err == nil {
				out.CreatedAt = ts
			}
		}
	}
	return out
}

var (
	_ VectorStore       = (*Neo4jStore)(nil)
	_ SchemaInitializer = (*Neo4jStore)(nil)
)
