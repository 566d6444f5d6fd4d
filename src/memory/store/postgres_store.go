package store

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agentrelay/go-agent/src/memory/model"
)

// PostgresStore is a VectorStore over Postgres with the pgvector extension.
type PostgresStore struct {
	DB *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	db, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return &PostgresStore{DB: db}, nil
}

func (ps *PostgresStore) StoreMemory(ctx context.Context, sessionID, content string, metadata map[string]any, embedding []float32) error {
	if ps == nil || ps.DB == nil {
		return nil
	}
	_, err := ps.DB.Exec(ctx, `
                INSERT INTO memory_bank (session_id, content, metadata, embedding)
                VALUES ($1, $2, $3::jsonb, $4::vector)
        `, sessionID, content, model.EncodeMetadata(metadata), vectorLiteral(embedding))
	return err
}

func (ps *PostgresStore) SearchMemory(ctx context.Context, queryEmbedding []float32, limit int) ([]model.MemoryRecord, error) {
	if ps == nil || ps.DB == nil || limit <= 0 {
		return nil, nil
	}
	rows, err := ps.DB.Query(ctx, `
        SELECT id, session_id, content, metadata::text, embedding::text, created_at,
               (embedding <-> $1::vector) AS distance
        FROM memory_bank
        ORDER BY embedding <-> $1::vector
        LIMIT $2
        `, vectorLiteral(queryEmbedding), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.MemoryRecord
	for rows.Next() {
		var rec model.MemoryRecord
		var embeddingText string
		var distance float64
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Content, &rec.Metadata, &embeddingText, &rec.CreatedAt, &distance); err != nil {
			return nil, err
		}
		rec.Embedding = parseVector(embeddingText)
		rec.Score = 1 - distance
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (ps *PostgresStore) DeleteMemory(ctx context.Context, ids []int64) error {
	if ps == nil || ps.DB == nil || len(ids) == 0 {
		return nil
	}
	_, err := ps.DB.Exec(ctx, `DELETE FROM memory_bank WHERE id = ANY($1)`, ids)
	return err
}

func (ps *PostgresStore) Iterate(ctx context.Context, fn func(model.MemoryRecord) bool) error {
	if ps == nil || ps.DB == nil {
		return nil
	}
	rows, err := ps.DB.Query(ctx, `
        SELECT id, session_id, content, metadata::text, embedding::text, created_at
        FROM memory_bank
        ORDER BY created_at ASC
        `)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var rec model.MemoryRecord
		var embeddingText string
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Content, &rec.Metadata, &embeddingText, &rec.CreatedAt); err != nil {
			return err
		}
		rec.Embedding = parseVector(embeddingText)
		if !fn(rec) {
			break
		}
	}
	return rows.Err()
}

func (ps *PostgresStore) Count(ctx context.Context) (int, error) {
	if ps == nil || ps.DB == nil {
		return 0, nil
	}
	var count int
	err := ps.DB.QueryRow(ctx, `SELECT COUNT(*) FROM memory_bank`).Scan(&count)
	return count, err
}

// CreateSchema applies the default schema, or the SQL file at schemaPath when given.
func (ps *PostgresStore) CreateSchema(ctx context.Context, schemaPath string) error {
	if ps == nil || ps.DB == nil {
		return nil
	}
	schema := defaultPostgresSchema
	if schemaPath != "" {
		data, err := os.ReadFile(schemaPath)
		if err != nil {
			return fmt.Errorf("read schema file: %w", err)
		}
		schema = string(data)
	}
	if _, err := ps.DB.Exec(ctx, schema); err != nil {
		return fmt.Errorf("execute schema: %w", err)
	}
	return nil
}

func (ps *PostgresStore) Close() error {
	if ps == nil || ps.DB == nil {
		return nil
	}
	ps.DB.Close()
	return nil
}

const defaultPostgresSchema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS memory_bank (
    id BIGSERIAL PRIMARY KEY,
    session_id TEXT NOT NULL,
    content TEXT NOT NULL,
    metadata JSONB,
    embedding vector(768),
    created_at TIMESTAMPTZ DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS memory_session_idx ON memory_bank (session_id);
CREATE INDEX IF NOT EXISTS memory_embedding_idx ON memory_bank USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100);
`

// vectorLiteral renders an embedding in pgvector's textual input format.
func vectorLiteral(vec []float32) string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range vec {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

func parseVector(text string) []float32 {
	text = strings.Trim(strings.TrimSpace(text), "[]")
	if text == "" {
		return nil
	}
	parts := strings.Split(text, ",")
	vec := make([]float32, 0, len(parts))
	for _, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			continue
		}
		vec = append(vec, float32(f))
	}
	return vec
}

var (
	_ VectorStore       = (*PostgresStore)(nil)
	_ SchemaInitializer = (*PostgresStore)(nil)
)
