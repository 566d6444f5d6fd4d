package models

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDummyLLMEchoesLastLine(t *testing.T) {
	d := NewDummyLLM("")
	out, err := d.Chat(context.Background(), "system stuff\n\nHello there\n")
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}
	if !strings.Contains(out, "Hello there") {
		t.Fatalf("response %q does not echo the last line", out)
	}
}

func TestDummyLLMScript(t *testing.T) {
	d := NewDummyLLM("")
	d.Enqueue("first", "second")

	for _, want := range []string{"first", "second"} {
		got, err := d.Chat(context.Background(), "anything")
		if err != nil {
			t.Fatalf("Chat returned error: %v", err)
		}
		if got != want {
			t.Fatalf("Chat = %q, want %q", got, want)
		}
	}
	// Script exhausted, falls back to echo.
	got, _ := d.Chat(context.Background(), "tail line")
	if !strings.Contains(got, "tail line") {
		t.Fatalf("expected echo fallback, got %q", got)
	}
}

func TestDummyLLMStreamReassembles(t *testing.T) {
	d := NewDummyLLM("")
	d.Enqueue("alpha beta gamma")

	ch, err := d.ChatStream(context.Background(), "ignored")
	if err != nil {
		t.Fatalf("ChatStream returned error: %v", err)
	}
	var sb strings.Builder
	var full string
	for chunk := range ch {
		if chunk.Done {
			full = chunk.FullText
			continue
		}
		sb.WriteString(chunk.Delta)
	}
	if sb.String() != "alpha beta gamma" {
		t.Fatalf("reassembled deltas = %q", sb.String())
	}
	if full != "alpha beta gamma" {
		t.Fatalf("FullText = %q", full)
	}
}

type countingModel struct {
	calls int
	fail  bool
}

func (m *countingModel) Chat(context.Context, string) (string, error) {
	m.calls++
	if m.fail {
		return "", errors.New("backend down")
	}
	return "answer", nil
}

func TestCachedLLMHitsAndMisses(t *testing.T) {
	inner := &countingModel{}
	c := NewCachedLLM(inner, 8, time.Minute, "")

	for i := 0; i < 3; i++ {
		out, err := c.Chat(context.Background(), "same prompt")
		if err != nil {
			t.Fatalf("Chat returned error: %v", err)
		}
		if out != "answer" {
			t.Fatalf("Chat = %q", out)
		}
	}
	if inner.calls != 1 {
		t.Fatalf("inner model called %d times, want 1", inner.calls)
	}

	if _, err := c.Chat(context.Background(), "different prompt"); err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}
	if inner.calls != 2 {
		t.Fatalf("inner model called %d times, want 2", inner.calls)
	}
}

func TestCachedLLMDoesNotCacheErrors(t *testing.T) {
	inner := &countingModel{fail: true}
	c := NewCachedLLM(inner, 8, time.Minute, "")

	if _, err := c.Chat(context.Background(), "p"); err == nil {
		t.Fatal("expected error from failing backend")
	}
	inner.fail = false
	out, err := c.Chat(context.Background(), "p")
	if err != nil || out != "answer" {
		t.Fatalf("Chat after recovery = %q, %v", out, err)
	}
}

func TestCachedLLMPersistsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")

	first := NewCachedLLM(&countingModel{}, 8, time.Minute, path)
	if _, err := first.Chat(context.Background(), "persisted"); err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}

	inner := &countingModel{}
	second := NewCachedLLM(inner, 8, time.Minute, path)
	out, err := second.Chat(context.Background(), "persisted")
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}
	if out != "answer" || inner.calls != 0 {
		t.Fatalf("expected cache hit from file, got %q with %d backend calls", out, inner.calls)
	}
}

func TestNewChatModelUnknownProvider(t *testing.T) {
	if _, err := NewChatModel(context.Background(), "nope", "m", ""); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestNewChatModelDummy(t *testing.T) {
	m, err := NewChatModel(context.Background(), "dummy", "", "")
	if err != nil {
		t.Fatalf("NewChatModel returned error: %v", err)
	}
	if _, ok := m.(*DummyLLM); !ok {
		t.Fatalf("NewChatModel returned %T, want *DummyLLM", m)
	}
}
