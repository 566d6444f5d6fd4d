package model

import (
	"math"
	"testing"
)

func TestCosineSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"length mismatch", []float32{1, 2}, []float32{1}, 0},
		{"empty", nil, nil, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
	}
	for _, tc := range cases {
		got := CosineSimilarity(tc.a, tc.b)
		if math.Abs(got-tc.want) > 1e-6 {
			t.Errorf("%s: CosineSimilarity = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	raw := EncodeMetadata(map[string]any{"topic": "weather", "rank": 2.0})
	meta := DecodeMetadata(raw)
	if meta["topic"] != "weather" {
		t.Fatalf("topic = %v", meta["topic"])
	}
	if meta["rank"] != 2.0 {
		t.Fatalf("rank = %v", meta["rank"])
	}
}

func TestDecodeMetadataMalformed(t *testing.T) {
	meta := DecodeMetadata("{not json")
	if meta == nil || len(meta) != 0 {
		t.Fatalf("expected empty map, got %v", meta)
	}
	if EncodeMetadata(nil) != "{}" {
		t.Fatalf("EncodeMetadata(nil) = %q", EncodeMetadata(nil))
	}
}
