package agent

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
)

func TestChatPlainResponsePassesThrough(t *testing.T) {
	var backendCalls int32
	model := chatFunc(func(_ context.Context, _ string) (string, error) {
		atomic.AddInt32(&backendCalls, 1)
		return "Nothing to do here.", nil
	})
	a := newTestAgent(t, model)

	out := a.Chat(context.Background(), map[string]any{"user_message": "hi"})
	if out != "Nothing to do here." {
		t.Fatalf("out = %q", out)
	}
	if n := atomic.LoadInt32(&backendCalls); n != 1 {
		t.Fatalf("backend called %d times", n)
	}
}

func TestChatBackendErrorApology(t *testing.T) {
	model := chatFunc(func(_ context.Context, _ string) (string, error) {
		return "", fmt.Errorf("upstream 500")
	})
	a := newTestAgent(t, model)

	out := a.Chat(context.Background(), map[string]any{"user_message": "hi"})
	if out != backendErrorApology {
		t.Fatalf("out = %q", out)
	}
}

func TestChatToolLoopLimitHitsExactlyFiveBackendCalls(t *testing.T) {
	var backendCalls int32
	model := chatFunc(func(_ context.Context, _ string) (string, error) {
		atomic.AddInt32(&backendCalls, 1)
		return `TOOL_CALL: echo {"message": "again"}`, nil
	})
	a := newTestAgent(t, model, newStubTool("echo", nil, nil))

	out := a.Chat(context.Background(), map[string]any{"user_message": "loop"})
	if out != toolLimitApology {
		t.Fatalf("out = %q", out)
	}
	if n := atomic.LoadInt32(&backendCalls); n != 5 {
		t.Fatalf("backend called %d times, want 5", n)
	}
}

func TestChatToolRoundTrip(t *testing.T) {
	var prompts []string
	model := chatFunc(func(_ context.Context, prompt string) (string, error) {
		prompts = append(prompts, prompt)
		if len(prompts) == 1 {
			return `Let me look that up. TOOL_CALL: search {"query": "weather in Paris"}`, nil
		}
		return "It is sunny in Paris.", nil
	})
	search := newStubTool("search", nil, func(_ context.Context, params, _ map[string]any) (ToolResult, error) {
		return ToolResult{Success: true, Value: "sunny, 24C"}, nil
	})
	a := newTestAgent(t, model, search)

	out := a.Chat(context.Background(), map[string]any{"user_message": "weather?"})
	if out != "It is sunny in Paris." {
		t.Fatalf("out = %q", out)
	}
	if len(prompts) != 2 {
		t.Fatalf("backend called %d times", len(prompts))
	}

	second := prompts[1]
	if !strings.Contains(second, `TOOL_RESULT: search {"tool":"search","success":true,"result":"sunny, 24C"}`) {
		t.Fatalf("result not spliced into follow-up prompt:\n%s", second)
	}
	if strings.Contains(second, "TOOL_CALL: search") {
		t.Fatalf("directive text survived splicing:\n%s", second)
	}
	if !strings.HasSuffix(second, resultFollowUp) {
		t.Fatalf("follow-up suffix missing:\n%s", second)
	}
}

func TestChatMissingToolStillConverges(t *testing.T) {
	var prompts []string
	model := chatFunc(func(_ context.Context, prompt string) (string, error) {
		prompts = append(prompts, prompt)
		if len(prompts) == 1 {
			return `TOOL_CALL: teleport {"to": "Mars"}`, nil
		}
		return "I cannot do that.", nil
	})
	a := newTestAgent(t, model, newStubTool("echo", nil, nil))

	out := a.Chat(context.Background(), map[string]any{"user_message": "go"})
	if out != "I cannot do that." {
		t.Fatalf("out = %q", out)
	}
	if !strings.Contains(prompts[1], `{"tool":"teleport","success":false,"error":"Tool not available"}`) {
		t.Fatalf("missing-tool result not echoed:\n%s", prompts[1])
	}
}

func TestChatWithMaxToolCallsOption(t *testing.T) {
	var backendCalls int32
	model := chatFunc(func(_ context.Context, _ string) (string, error) {
		atomic.AddInt32(&backendCalls, 1)
		return `TOOL_CALL: echo {}`, nil
	})
	reg, err := NewStaticRegistry(newStubTool("echo", nil, nil))
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	def := Definition{Name: "capped", Tools: []string{"echo"}}
	a := New(context.Background(), def, model, reg, WithMaxToolCalls(2))

	if out := a.Chat(context.Background(), nil); out != toolLimitApology {
		t.Fatalf("out = %q", out)
	}
	if n := atomic.LoadInt32(&backendCalls); n != 2 {
		t.Fatalf("backend called %d times, want 2", n)
	}
}

func TestRenderSystemPromptDefaultTemplate(t *testing.T) {
	a := newTestAgent(t, noModel(), newStubTool("echo", nil, nil))
	out := a.renderSystemPrompt(nil)

	if !strings.HasPrefix(out, "You are a helpful AI assistant named test-agent. Test agent.") {
		t.Fatalf("out = %q", out)
	}
	if !strings.Contains(out, "You have access to the following tools.") {
		t.Fatalf("tool catalogue missing:\n%s", out)
	}
	if !strings.Contains(out, "- echo: stub") {
		t.Fatalf("echo entry missing:\n%s", out)
	}
}

func TestRenderSystemPromptCustomTemplateAndConfiguration(t *testing.T) {
	reg, err := NewStaticRegistry(newStubTool("echo", nil, nil))
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	def := Definition{
		Name:            "ops",
		Description:     "Ops helper.",
		PromptTemplates: map[string]string{"system": "{{agent_name}} in {{region}} at {{current_datetime}}"},
		Configuration:   map[string]any{"region": "eu-west-1"},
		Tools:           []string{"echo"},
	}
	a := New(context.Background(), def, noModel(), reg)

	out := a.renderSystemPrompt(nil)
	if !strings.HasPrefix(out, "ops in eu-west-1 at ") {
		t.Fatalf("out = %q", out)
	}
	if strings.Contains(out, "{{") {
		t.Fatalf("unrendered placeholder: %q", out)
	}
}

func TestRenderUserPromptKnowledgeContext(t *testing.T) {
	a := newTestAgent(t, noModel())

	without := a.renderUserPrompt(map[string]any{"user_message": "hi"})
	if strings.Contains(without, "Using this relevant knowledge:") {
		t.Fatalf("knowledge block rendered without context: %q", without)
	}
	if !strings.HasPrefix(without, "hi") {
		t.Fatalf("out = %q", without)
	}

	with := a.renderUserPrompt(map[string]any{
		"user_message":      "hi",
		"knowledge_context": "1. Paris is in France.",
	})
	if !strings.Contains(with, "Using this relevant knowledge:\n1. Paris is in France.") {
		t.Fatalf("knowledge block missing: %q", with)
	}
}

func TestRenderAvailableToolsParameters(t *testing.T) {
	tool := newStubTool("lookup", nil, nil)
	reg, err := NewStaticRegistry(&specTool{stubTool: tool, schema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string", "description": "What to look for"},
			"limit": map[string]any{"type": "integer"},
		},
		"required": []any{"query"},
	}})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	def := Definition{Name: "t", Tools: []string{"lookup"}}
	a := New(context.Background(), def, noModel(), reg)

	out := a.renderAvailableTools()
	if !strings.Contains(out, "TOOL_CALL: toolName {\"param1\": \"value\"}") {
		t.Fatalf("usage hint missing:\n%s", out)
	}
	if !strings.Contains(out, "query (string) [required] - What to look for; ") {
		t.Fatalf("required param malformed:\n%s", out)
	}
	if !strings.Contains(out, "limit (integer); ") {
		t.Fatalf("optional param malformed:\n%s", out)
	}
}

// specTool overrides the stub's flat schema.
type specTool struct {
	*stubTool
	schema map[string]any
}

func (s *specTool) Spec() ToolSpec {
	spec := s.stubTool.Spec()
	spec.InputSchema = s.schema
	return spec
}

func TestNewSkipsToolsThatFailToLoad(t *testing.T) {
	reg, err := NewStaticRegistry(newStubTool("echo", nil, nil))
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	def := Definition{Name: "partial", Tools: []string{"echo", "ghost"}}
	a := New(context.Background(), def, noModel(), reg)

	names := a.ToolNames()
	if len(names) != 1 || names[0] != "echo" {
		t.Fatalf("names = %v", names)
	}
}

func TestStreamChatChunks(t *testing.T) {
	model := chatFunc(func(_ context.Context, _ string) (string, error) {
		return "three word answer", nil
	})
	a := newTestAgent(t, model)

	chunks := a.StreamChat(context.Background(), map[string]any{"user_message": "hi"})
	want := []string{"three ", "word ", "answer "}
	if len(chunks) != len(want) {
		t.Fatalf("chunks = %v", chunks)
	}
	for i := range want {
		if chunks[i] != want[i] {
			t.Fatalf("chunks = %v, want %v", chunks, want)
		}
	}
}

func TestChatStreamFinalChunk(t *testing.T) {
	model := chatFunc(func(_ context.Context, _ string) (string, error) {
		return "done now", nil
	})
	a := newTestAgent(t, model)

	var deltas []string
	var final string
	for chunk := range a.ChatStream(context.Background(), map[string]any{"user_message": "hi"}) {
		if chunk.Done {
			final = chunk.FullText
			continue
		}
		deltas = append(deltas, chunk.Delta)
	}
	if final != "done now" {
		t.Fatalf("final = %q", final)
	}
	if strings.Join(deltas, "") != "done now" {
		t.Fatalf("deltas = %v", deltas)
	}
}
