package session

import (
	"context"
	"strings"
	"testing"

	"github.com/agentrelay/go-agent/src/memory/embed"
	"github.com/agentrelay/go-agent/src/memory/store"
)

func newTestSessionMemory(window int) *SessionMemory {
	bank := NewMemoryBankWithStore(store.NewInMemoryStore())
	return NewSessionMemory(bank, window).WithEmbedder(embed.DummyEmbedder{})
}

func TestAddShortTermWindow(t *testing.T) {
	sm := newTestSessionMemory(2)
	sm.AddShortTerm("s1", "first", nil, nil)
	sm.AddShortTerm("s1", "second", nil, nil)
	sm.AddShortTerm("s1", "third", nil, nil)

	records, err := sm.RetrieveContext(context.Background(), "s1", "anything", 0)
	if err != nil {
		t.Fatalf("RetrieveContext: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("window holds %d records, want 2", len(records))
	}
	if records[0].Content != "second" || records[1].Content != "third" {
		t.Fatalf("window = %q, %q; oldest entry should have been dropped", records[0].Content, records[1].Content)
	}
}

func TestFlushToLongTerm(t *testing.T) {
	sm := newTestSessionMemory(4)
	ctx := context.Background()

	sm.AddShortTerm("s1", "the sky is blue", nil, nil)
	sm.AddShortTerm("s1", "grass is green", nil, nil)
	if err := sm.FlushToLongTerm(ctx, "s1"); err != nil {
		t.Fatalf("FlushToLongTerm: %v", err)
	}

	count, err := sm.Bank.Store.Count(ctx)
	if err != nil || count != 2 {
		t.Fatalf("long-term count = %d, %v; want 2", count, err)
	}

	// Short-term window is cleared after flush.
	records, _ := sm.RetrieveContext(ctx, "s1", "sky", 0)
	for _, rec := range records {
		if rec.ID == 0 {
			t.Fatalf("short-term record %q survived flush", rec.Content)
		}
	}
}

func TestRetrieveContextCombinesLayers(t *testing.T) {
	sm := newTestSessionMemory(4)
	ctx := context.Background()

	sm.AddShortTerm("s1", "persisted fact", nil, nil)
	if err := sm.FlushToLongTerm(ctx, "s1"); err != nil {
		t.Fatalf("FlushToLongTerm: %v", err)
	}
	sm.AddShortTerm("s1", "recent fact", nil, nil)

	records, err := sm.RetrieveContext(ctx, "s1", "fact", 5)
	if err != nil {
		t.Fatalf("RetrieveContext: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Content != "recent fact" {
		t.Fatalf("short-term should come first, got %q", records[0].Content)
	}
}

func TestKnowledgeContextFormatting(t *testing.T) {
	sm := newTestSessionMemory(4)
	ctx := context.Background()

	if got := sm.KnowledgeContext(ctx, "s1", "anything", 3); got != "" {
		t.Fatalf("empty store should yield empty context, got %q", got)
	}

	sm.AddShortTerm("s1", "water boils at 100C", nil, nil)
	got := sm.KnowledgeContext(ctx, "s1", "boiling point", 3)
	if !strings.HasPrefix(got, "Relevant knowledge:") {
		t.Fatalf("context missing header: %q", got)
	}
	if !strings.Contains(got, "1. water boils at 100C") {
		t.Fatalf("context missing numbered entry: %q", got)
	}
}

func TestMemoryBankNilSafety(t *testing.T) {
	var mb *MemoryBank
	if err := mb.StoreMemory(context.Background(), "s", "c", nil, nil); err != nil {
		t.Fatalf("nil bank StoreMemory: %v", err)
	}
	records, err := mb.SearchMemory(context.Background(), nil, 5)
	if err != nil || records != nil {
		t.Fatalf("nil bank SearchMemory = %v, %v", records, err)
	}
	if err := mb.Close(); err != nil {
		t.Fatalf("nil bank Close: %v", err)
	}
}
