package models

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// DummyLLM is a deterministic model for tests and demos. When scripted
// responses are queued it replays them in order; otherwise it echoes the last
// non-empty line of the prompt behind a fixed prefix.
type DummyLLM struct {
	Prefix string

	mu     sync.Mutex
	script []string
}

func NewDummyLLM(prefix string) *DummyLLM {
	if strings.TrimSpace(prefix) == "" {
		prefix = "Dummy response:"
	}
	return &DummyLLM{Prefix: prefix}
}

// Enqueue appends scripted responses consumed by subsequent Chat calls.
func (d *DummyLLM) Enqueue(responses ...string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.script = append(d.script, responses...)
}

func (d *DummyLLM) Chat(_ context.Context, prompt string) (string, error) {
	d.mu.Lock()
	if len(d.script) > 0 {
		next := d.script[0]
		d.script = d.script[1:]
		d.mu.Unlock()
		return next, nil
	}
	d.mu.Unlock()

	last := "<empty prompt>"
	lines := strings.Split(prompt, "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if candidate := strings.TrimSpace(lines[i]); candidate != "" {
			last = candidate
			break
		}
	}
	return fmt.Sprintf("%s %s", d.Prefix, last), nil
}

// ChatStream simulates streaming by splitting the Chat result into
// word-level chunks.
func (d *DummyLLM) ChatStream(ctx context.Context, prompt string) (<-chan StreamChunk, error) {
	text, err := d.Chat(ctx, prompt)
	if err != nil {
		return nil, err
	}

	ch := make(chan StreamChunk, 16)
	go func() {
		defer close(ch)
		var sb strings.Builder
		for i, word := range strings.Fields(text) {
			if i > 0 {
				word = " " + word
			}
			sb.WriteString(word)
			ch <- StreamChunk{Delta: word}
		}
		ch <- StreamChunk{Done: true, FullText: sb.String()}
	}()
	return ch, nil
}

var (
	_ ChatModel = (*DummyLLM)(nil)
	_ Streamer  = (*DummyLLM)(nil)
)
