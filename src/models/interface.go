package models

import "context"

// ChatModel is the minimal contract the orchestration loop needs from a
// language model backend: one prompt in, one completion out.
type ChatModel interface {
	Chat(ctx context.Context, prompt string) (string, error)
}

// StreamChunk is one unit of a streamed completion. Delta carries the new
// text; the final chunk has Done set together with the accumulated FullText
// and, on failure, a non-nil Err.
type StreamChunk struct {
	Delta    string
	Done     bool
	FullText string
	Err      error
}

// Streamer is implemented by models that can emit a completion incrementally.
type Streamer interface {
	ChatStream(ctx context.Context, prompt string) (<-chan StreamChunk, error)
}
