package tools

import (
	"context"
	"fmt"

	agent "github.com/agentrelay/go-agent"
	"github.com/agentrelay/go-agent/src/memory/embed"
	"github.com/agentrelay/go-agent/src/memory/store"
)

type searchParams struct {
	Query string `json:"query" jsonschema:"description=Natural language query to search the knowledge base with"`
	Limit int    `json:"limit,omitempty" jsonschema:"description=Maximum number of results to return; defaults to 5"`
}

// SearchTool queries a vector store for memories similar to the query.
// The query is embedded with the configured embedder before the lookup.
type SearchTool struct {
	spec      agent.ToolSpec
	validator *Validator

	store    store.VectorStore
	embedder embed.Embedder
}

func NewSearchTool(vs store.VectorStore, e embed.Embedder) *SearchTool {
	if e == nil {
		e = embed.AutoEmbedder()
	}
	schema := ReflectSchema(&searchParams{})
	return &SearchTool{
		spec: agent.ToolSpec{
			Name:        "search",
			Description: "Searches the knowledge base for entries relevant to a query",
			InputSchema: schema,
			Examples: []map[string]any{
				{"query": "deployment checklist", "limit": 3},
			},
		},
		validator: mustValidator(schema),
		store:     vs,
		embedder:  e,
	}
}

func (t *SearchTool) Spec() agent.ToolSpec { return t.spec }

func (t *SearchTool) Validate(params map[string]any) bool {
	return t.validator.Valid(params)
}

func (t *SearchTool) Execute(ctx context.Context, params, _ map[string]any) (agent.ToolResult, error) {
	var p searchParams
	if err := DecodeParams(params, &p); err != nil {
		return agent.ToolResult{}, err
	}
	if t.store == nil {
		return agent.ToolResult{}, fmt.Errorf("no knowledge base configured")
	}
	if p.Limit <= 0 {
		p.Limit = 5
	}

	queryEmbedding := embed.SafeEmbed(ctx, t.embedder, p.Query)
	records, err := t.store.SearchMemory(ctx, queryEmbedding, p.Limit)
	if err != nil {
		return agent.ToolResult{}, fmt.Errorf("search memory: %w", err)
	}

	hits := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		hits = append(hits, map[string]any{
			"content":    rec.Content,
			"score":      rec.Score,
			"session_id": rec.SessionID,
		})
	}
	return agent.ToolResult{Success: true, Value: hits}, nil
}

var _ agent.Tool = (*SearchTool)(nil)
