package main

import (
	"context"
	"fmt"
	"log"

	agent "github.com/agentrelay/go-agent"
	"github.com/agentrelay/go-agent/src/memory/embed"
	"github.com/agentrelay/go-agent/src/memory/store"
	"github.com/agentrelay/go-agent/src/models"
	"github.com/agentrelay/go-agent/src/tools"
)

// A self-contained demo: a scripted model drives one tool round trip
// against the built-in tools, no network or credentials needed.
func main() {
	ctx := context.Background()

	vs := store.NewInMemoryStore()
	seed := "The production deploy window is Tuesday 10:00 UTC."
	if err := vs.StoreMemory(ctx, "demo", seed, nil, embed.DummyEmbedding(seed)); err != nil {
		log.Fatalf("seed memory: %v", err)
	}

	registry, err := agent.NewStaticRegistry(
		tools.NewEchoTool(),
		tools.NewCalculatorTool(),
		tools.NewClockTool(),
		tools.NewSearchTool(vs, embed.DummyEmbedder{}),
	)
	if err != nil {
		log.Fatalf("registry: %v", err)
	}

	model := models.NewDummyLLM("")
	model.Enqueue(
		`Let me compute that. TOOL_CALL: calculator {"operation": "multiply", "a": 6, "b": 7}`,
		"Six times seven is 42.",
	)

	a := agent.New(ctx, agent.Definition{
		Name:        "demo",
		Description: "A demo assistant.",
		Tools:       []string{"echo", "calculator", "clock", "search"},
	}, model, registry)

	answer := a.Chat(ctx, map[string]any{"user_message": "What is 6 times 7?"})
	fmt.Println(answer)
}
