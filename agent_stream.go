package agent

import (
	"context"
	"strings"

	"github.com/agentrelay/go-agent/src/models"
)

// StreamChat runs Chat and splits the final answer into word-level chunks,
// each suffixed with a space. There is no token-level streaming from the
// backend; the split happens after the loop completes.
func (a *Agent) StreamChat(ctx context.Context, vars map[string]any) []string {
	result := a.Chat(ctx, vars)
	words := strings.Fields(result)
	chunks := make([]string, 0, len(words))
	for _, word := range words {
		chunks = append(chunks, word+" ")
	}
	return chunks
}

// ChatStream exposes the same post-hoc word chunking as a channel of
// StreamChunk values. The final chunk carries Done and the full answer.
func (a *Agent) ChatStream(ctx context.Context, vars map[string]any) <-chan models.StreamChunk {
	ch := make(chan models.StreamChunk, 16)
	go func() {
		defer close(ch)
		result := a.Chat(ctx, vars)
		var sb strings.Builder
		for i, word := range strings.Fields(result) {
			if i > 0 {
				word = " " + word
			}
			sb.WriteString(word)
			select {
			case ch <- models.StreamChunk{Delta: word}:
			case <-ctx.Done():
				return
			}
		}
		select {
		case ch <- models.StreamChunk{Done: true, FullText: sb.String()}:
		case <-ctx.Done():
		}
	}()
	return ch
}
