package agent

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// stubTool is a configurable in-test tool. Nil hooks mean "accept
// everything" and "succeed with no value".
type stubTool struct {
	name     string
	validate func(map[string]any) bool
	execute  func(ctx context.Context, params, shared map[string]any) (ToolResult, error)
}

func newStubTool(name string,
	validate func(map[string]any) bool,
	execute func(ctx context.Context, params, shared map[string]any) (ToolResult, error),
) *stubTool {
	return &stubTool{name: name, validate: validate, execute: execute}
}

func (s *stubTool) Spec() ToolSpec {
	return ToolSpec{
		Name:        s.name,
		Description: "stub",
		InputSchema: map[string]any{"type": "object"},
	}
}

func (s *stubTool) Validate(params map[string]any) bool {
	if s.validate == nil {
		return true
	}
	return s.validate(params)
}

func (s *stubTool) Execute(ctx context.Context, params, shared map[string]any) (ToolResult, error) {
	if s.execute == nil {
		return ToolResult{Success: true}, nil
	}
	return s.execute(ctx, params, shared)
}

func newTestAgent(t *testing.T, model chatFunc, tools ...Tool) *Agent {
	t.Helper()
	reg, err := NewStaticRegistry(tools...)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	names := make([]string, 0, len(tools))
	for _, tool := range tools {
		names = append(names, tool.Spec().Name)
	}
	def := Definition{Name: "test-agent", Description: "Test agent.", Tools: names}
	return New(context.Background(), def, model, reg)
}

// chatFunc adapts a function to the chat model contract.
type chatFunc func(ctx context.Context, prompt string) (string, error)

func (f chatFunc) Chat(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

func noModel() chatFunc {
	return func(context.Context, string) (string, error) {
		return "", fmt.Errorf("model should not be called")
	}
}

func TestDispatchUnknownTool(t *testing.T) {
	a := newTestAgent(t, noModel(), newStubTool("echo", nil, nil))
	res := a.dispatch(context.Background(), PendingCall{Name: "missing", RawParams: "{}"}, nil)
	if res.Success || res.ErrorMessage != "Tool not available" {
		t.Fatalf("res = %+v", res)
	}
}

func TestDispatchInvalidJSON(t *testing.T) {
	executed := false
	tool := newStubTool("echo", nil, func(context.Context, map[string]any, map[string]any) (ToolResult, error) {
		executed = true
		return ToolResult{Success: true}, nil
	})
	a := newTestAgent(t, noModel(), tool)

	res := a.dispatch(context.Background(), PendingCall{Name: "echo", RawParams: `{"broken": `}, nil)
	if res.Success {
		t.Fatalf("res = %+v", res)
	}
	if !strings.HasPrefix(res.ErrorMessage, "Invalid JSON parameters: ") {
		t.Fatalf("error = %q", res.ErrorMessage)
	}
	if executed {
		t.Fatalf("execute ran on malformed params")
	}
}

func TestDispatchValidationFailure(t *testing.T) {
	executed := false
	tool := newStubTool("echo",
		func(map[string]any) bool { return false },
		func(context.Context, map[string]any, map[string]any) (ToolResult, error) {
			executed = true
			return ToolResult{Success: true}, nil
		})
	a := newTestAgent(t, noModel(), tool)

	res := a.dispatch(context.Background(), PendingCall{Name: "echo", RawParams: "{}"}, nil)
	if res.Success || res.ErrorMessage != "Invalid parameters for tool echo" {
		t.Fatalf("res = %+v", res)
	}
	if executed {
		t.Fatalf("execute ran after validation failed")
	}
}

func TestDispatchExecutionError(t *testing.T) {
	tool := newStubTool("flaky", nil, func(context.Context, map[string]any, map[string]any) (ToolResult, error) {
		return ToolResult{}, fmt.Errorf("upstream unreachable")
	})
	a := newTestAgent(t, noModel(), tool)

	res := a.dispatch(context.Background(), PendingCall{Name: "flaky", RawParams: "{}"}, nil)
	if res.Success || res.ErrorMessage != "upstream unreachable" {
		t.Fatalf("res = %+v", res)
	}
}

func TestDispatchPanicBecomesErrorResult(t *testing.T) {
	tool := newStubTool("boom", nil, func(context.Context, map[string]any, map[string]any) (ToolResult, error) {
		panic("kaput")
	})
	a := newTestAgent(t, noModel(), tool)

	res := a.dispatch(context.Background(), PendingCall{Name: "boom", RawParams: "{}"}, nil)
	if res.Success {
		t.Fatalf("res = %+v", res)
	}
	if res.ErrorMessage != "tool panicked: kaput" {
		t.Fatalf("error = %q", res.ErrorMessage)
	}
}

func TestDispatchTimeout(t *testing.T) {
	tool := newStubTool("slow", nil, func(ctx context.Context, _, _ map[string]any) (ToolResult, error) {
		select {
		case <-time.After(5 * time.Second):
			return ToolResult{Success: true}, nil
		case <-ctx.Done():
			return ToolResult{}, ctx.Err()
		}
	})
	a := newTestAgent(t, noModel(), tool)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	res := a.dispatch(ctx, PendingCall{Name: "slow", RawParams: "{}"}, nil)
	if res.Success || res.ErrorMessage != "tool execution timed out" {
		t.Fatalf("res = %+v", res)
	}
}

func TestDispatchBatchRunsConcurrently(t *testing.T) {
	delay := 200 * time.Millisecond
	tool := newStubTool("sleepy", nil, func(ctx context.Context, params, _ map[string]any) (ToolResult, error) {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ToolResult{}, ctx.Err()
		}
		return ToolResult{Success: true, Value: params["id"]}, nil
	})
	a := newTestAgent(t, noModel(), tool)

	calls := []PendingCall{
		{Name: "sleepy", RawParams: `{"id": "first"}`},
		{Name: "sleepy", RawParams: `{"id": "second"}`},
	}
	start := time.Now()
	results := a.dispatchBatch(context.Background(), calls, nil)
	elapsed := time.Since(start)

	if elapsed > delay+150*time.Millisecond {
		t.Fatalf("batch took %v, calls did not overlap", elapsed)
	}
	if len(results) != 2 {
		t.Fatalf("results = %+v", results)
	}
	if results[0].Value != "first" || results[1].Value != "second" {
		t.Fatalf("results out of order: %+v", results)
	}
}

func TestDispatchBatchKeepsOrderUnderSkew(t *testing.T) {
	var order int32
	tool := newStubTool("skewed", nil, func(ctx context.Context, params, _ map[string]any) (ToolResult, error) {
		if params["id"] == "a" {
			time.Sleep(120 * time.Millisecond)
		}
		atomic.AddInt32(&order, 1)
		return ToolResult{Success: true, Value: params["id"]}, nil
	})
	a := newTestAgent(t, noModel(), tool)

	calls := []PendingCall{
		{Name: "skewed", RawParams: `{"id": "a"}`},
		{Name: "skewed", RawParams: `{"id": "b"}`},
		{Name: "skewed", RawParams: `{"id": "c"}`},
	}
	results := a.dispatchBatch(context.Background(), calls, nil)
	for i, want := range []string{"a", "b", "c"} {
		if results[i].Value != want {
			t.Fatalf("result %d = %v, want %v", i, results[i].Value, want)
		}
	}
}

func TestDispatchSharesVars(t *testing.T) {
	tool := newStubTool("peek", nil, func(_ context.Context, _, shared map[string]any) (ToolResult, error) {
		return ToolResult{Success: true, Value: shared["session_id"]}, nil
	})
	a := newTestAgent(t, noModel(), tool)

	res := a.dispatch(context.Background(), PendingCall{Name: "peek", RawParams: "{}"},
		map[string]any{"session_id": "s-42"})
	if res.Value != "s-42" {
		t.Fatalf("res = %+v", res)
	}
}
