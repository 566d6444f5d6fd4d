package models

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/agentrelay/go-agent/src/cache"
)

// CachedLLM wraps a ChatModel and memoizes completions keyed by prompt hash.
// When FilePath is set the cache survives restarts via a JSON snapshot.
type CachedLLM struct {
	Model    ChatModel
	Cache    *cache.LRUCache
	FilePath string
}

func NewCachedLLM(model ChatModel, size int, ttl time.Duration, filePath string) *CachedLLM {
	c := &CachedLLM{
		Model:    model,
		Cache:    cache.NewLRUCache(size, ttl),
		FilePath: filePath,
	}
	if filePath != "" {
		c.load()
	}
	return c
}

func (c *CachedLLM) Chat(ctx context.Context, prompt string) (string, error) {
	key := cache.HashKey(prompt)
	if val, ok := c.Cache.Get(key); ok {
		return fmt.Sprint(val), nil
	}

	out, err := c.Model.Chat(ctx, prompt)
	if err != nil {
		return "", err
	}
	c.Cache.Set(key, out)
	c.save()
	return out, nil
}

// ChatStream replays a cache hit as a single chunk; on a miss it forwards the
// wrapped model's stream (or simulates one) and caches the final text.
func (c *CachedLLM) ChatStream(ctx context.Context, prompt string) (<-chan StreamChunk, error) {
	key := cache.HashKey(prompt)
	if val, ok := c.Cache.Get(key); ok {
		ch := make(chan StreamChunk, 1)
		text := fmt.Sprint(val)
		ch <- StreamChunk{Delta: text, Done: true, FullText: text}
		close(ch)
		return ch, nil
	}

	streamer, ok := c.Model.(Streamer)
	if !ok {
		text, err := c.Chat(ctx, prompt)
		if err != nil {
			return nil, err
		}
		ch := make(chan StreamChunk, 1)
		ch <- StreamChunk{Delta: text, Done: true, FullText: text}
		close(ch)
		return ch, nil
	}

	inner, err := streamer.ChatStream(ctx, prompt)
	if err != nil {
		return nil, err
	}
	ch := make(chan StreamChunk, 16)
	go func() {
		defer close(ch)
		for chunk := range inner {
			ch <- chunk
			if chunk.Done && chunk.Err == nil && chunk.FullText != "" {
				c.Cache.Set(key, chunk.FullText)
				c.save()
			}
		}
	}()
	return ch, nil
}

func (c *CachedLLM) load() {
	f, err := os.Open(c.FilePath)
	if err != nil {
		return
	}
	defer f.Close()

	var dump map[string]cache.Entry
	if err := json.NewDecoder(f).Decode(&dump); err == nil {
		c.Cache.Restore(dump)
	}
}

func (c *CachedLLM) save() {
	if c.FilePath == "" {
		return
	}
	// Write to a temp file, then rename, so readers never see a torn snapshot.
	tmp := c.FilePath + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return
	}
	if err := json.NewEncoder(f).Encode(c.Cache.Dump()); err != nil {
		f.Close()
		os.Remove(tmp)
		return
	}
	f.Close()
	os.Rename(tmp, c.FilePath)
}

// TryCachedModel wraps model with caching when AGENT_LLM_CACHE_SIZE is set.
// AGENT_LLM_CACHE_TTL (seconds) and AGENT_LLM_CACHE_PATH tune the wrapper.
func TryCachedModel(model ChatModel) ChatModel {
	size, err := strconv.Atoi(os.Getenv("AGENT_LLM_CACHE_SIZE"))
	if err != nil || size <= 0 {
		return model
	}

	ttl := 300 * time.Second
	if sec, err := strconv.Atoi(os.Getenv("AGENT_LLM_CACHE_TTL")); err == nil && sec > 0 {
		ttl = time.Duration(sec) * time.Second
	}

	path := os.Getenv("AGENT_LLM_CACHE_PATH")
	if path == "" {
		path = ".agent_cache.json"
	}
	return NewCachedLLM(model, size, ttl, path)
}

var (
	_ ChatModel = (*CachedLLM)(nil)
	_ Streamer  = (*CachedLLM)(nil)
)
