package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"time"

	_ "modernc.org/sqlite"

	"github.com/agentrelay/go-agent/src/memory/model"
)

// SQLiteStore is a VectorStore over a local SQLite file. Embeddings are
// stored as little-endian float32 blobs and ranked in process with cosine
// similarity, so no extension is needed.
type SQLiteStore struct {
	DB *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path. Use ":memory:" for
// an ephemeral store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite pragma: %w", err)
		}
	}
	s := &SQLiteStore{DB: db}
	if err := s.CreateSchema(context.Background(), ""); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) StoreMemory(ctx context.Context, sessionID, content string, metadata map[string]any, embedding []float32) error {
	if s == nil || s.DB == nil {
		return nil
	}
	_, err := s.DB.ExecContext(ctx, `
                INSERT INTO memory_bank (session_id, content, metadata, embedding, created_at)
                VALUES (?, ?, ?, ?, ?)
        `, sessionID, content, model.EncodeMetadata(metadata), embeddingToBytes(embedding),
		time.Now().UTC().Format(time.RFC3339Nano))
	return err
}

func (s *SQLiteStore) SearchMemory(ctx context.Context, queryEmbedding []float32, limit int) ([]model.MemoryRecord, error) {
	if s == nil || s.DB == nil || limit <= 0 {
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

func (s *SQLiteStore) DeleteMemory(ctx context.Context, ids []int64) error {
	if s == nil || s.DB == nil || len(ids) == 0 {
		return nil
	}
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `DELETE FROM memory_bank WHERE id = ?`, id); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Iterate(ctx context.Context, fn func(model.MemoryRecord) bool) error {
	if s == nil || s.DB == nil {
		return nil
	}
	rows, err := s.DB.QueryContext(ctx, `
        SELECT id, session_id, content, metadata, embedding, created_at
        FROM memory_bank
        ORDER BY created_at ASC, id ASC
        `)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var rec model.MemoryRecord
		var blob []byte
		var createdAt string
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Content, &rec.Metadata, &blob, &createdAt); err != nil {
			return err
		}
		rec.Embedding = bytesToEmbedding(blob)
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			rec.CreatedAt = ts
		}
		if !fn(rec) {
			break
		}
	}
	return rows.Err()
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	if s == nil || s.DB == nil {
		return 0, nil
	}
	var count int
	err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM memory_bank`).Scan(&count)
	return count, err
}

func (s *SQLiteStore) CreateSchema(ctx context.Context, _ string) error {
	if s == nil || s.DB == nil {
		return nil
	}
	_, err := s.DB.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS memory_bank (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            session_id TEXT NOT NULL,
            content TEXT NOT NULL,
            metadata TEXT NOT NULL DEFAULT '{}',
            embedding BLOB,
            created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
        );
        CREATE INDEX IF NOT EXISTS memory_session_idx ON memory_bank (session_id);
        `)
	if err != nil {
		return fmt.Errorf("sqlite schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}

func embeddingToBytes(vec []float32) []byte {
	if len(vec) == 0 {
		return nil
	}
	out := make([]byte, 4*len(vec))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(v))
	}
	return out
}

func bytesToEmbedding(blob []byte) []float32 {
	if len(blob) < 4 {
		return nil
	}
	vec := make([]float32, len(blob)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4:]))
	}
	return vec
}

var (
	_ VectorStore       = (*SQLiteStore)(nil)
	_ SchemaInitializer = (*SQLiteStore)(nil)
)
