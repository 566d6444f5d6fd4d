package store

import (
	"context"
	"testing"
)

func TestSQLiteStoreRoundTrip(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	defer s.Close()
	ctx := context.Background()

	if err := s.StoreMemory(ctx, "s1", "rain is likely", map[string]any{"topic": "weather"}, []float32{0.9, 0.1}); err != nil {
		t.Fatalf("StoreMemory: %v", err)
	}
	if err := s.StoreMemory(ctx, "s1", "stock prices fell", nil, []float32{0.1, 0.9}); err != nil {
		t.Fatalf("StoreMemory: %v", err)
	}

	count, err := s.Count(ctx)
	if err != nil || count != 2 {
		t.Fatalf("Count = %d, %v; want 2", count, err)
	}

	results, err := s.SearchMemory(ctx, []float32{1, 0}, 1)
	if err != nil {
		t.Fatalf("SearchMemory: %v", err)
	}
	if len(results) != 1 || results[0].Content != "rain is likely" {
		t.Fatalf("SearchMemory top = %+v", results)
	}

	if err := s.DeleteMemory(ctx, []int64{results[0].ID}); err != nil {
		t.Fatalf("DeleteMemory: %v", err)
	}
	count, _ = s.Count(ctx)
	if count != 1 {
		t.Fatalf("Count after delete = %d, want 1", count)
	}
}

func TestEmbeddingBlobRoundTrip(t *testing.T) {
	vec := []float32{0.25, -1.5, 3.75}
	got := bytesToEmbedding(embeddingToBytes(vec))
	if len(got) != len(vec) {
		t.Fatalf("round trip length = %d, want %d", len(got), len(vec))
	}
	for i := range vec {
		if got[i] != vec[i] {
			t.Fatalf("round trip[%d] = %v, want %v", i, got[i], vec[i])
		}
	}
	if bytesToEmbedding(nil) != nil {
		t.Fatal("nil blob should decode to nil")
	}
}

func TestVectorLiteralParseVector(t *testing.T) {
	vec := []float32{0.5, -1, 2}
	got := parseVector(vectorLiteral(vec))
	if len(got) != 3 || got[0] != 0.5 || got[1] != -1 || got[2] != 2 {
		t.Fatalf("parseVector(vectorLiteral) = %v", got)
	}
	if parseVector("[]") != nil {
		t.Fatal("empty vector literal should parse to nil")
	}
}
