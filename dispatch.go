package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/agentrelay/go-agent/src/concurrent"
)

// toolTimeout bounds a single tool execution.
const toolTimeout = 60 * time.Second

func errorResult(msg string) ToolResult {
	return ToolResult{Success: false, ErrorMessage: msg}
}

// dispatchBatch runs every pending call of one response concurrently. The
// returned slice is index-aligned with calls regardless of completion order.
func (a *Agent) dispatchBatch(ctx context.Context, calls []PendingCall, shared map[string]any) []ToolResult {
	results, _ := concurrent.ParallelMap(ctx, calls, func(call PendingCall) (ToolResult, error) {
		return a.dispatch(ctx, call, shared), nil
	}, len(calls))
	return results
}

// dispatch resolves and runs one tool call, always producing exactly one
// result. Lookup, JSON and validation failures short-circuit before
// execution; execution errors, panics and timeouts become error results.
func (a *Agent) dispatch(ctx context.Context, call PendingCall, shared map[string]any) ToolResult {
	tool, ok := a.tools[call.Name]
	if !ok {
		log.Printf("tool not found: %s", call.Name)
		return errorResult("Tool not available")
	}

	var params map[string]any
	if err := json.Unmarshal([]byte(call.RawParams), &params); err != nil {
		return errorResult("Invalid JSON parameters: " + err.Error())
	}

	if !tool.Validate(params) {
		return errorResult("Invalid parameters for tool " + call.Name)
	}

	return runTool(ctx, call.Name, tool, params, shared)
}

func runTool(ctx context.Context, name string, tool Tool, params, shared map[string]any) ToolResult {
	ctx, cancel := context.WithTimeout(ctx, toolTimeout)
	defer cancel()

	done := make(chan ToolResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("tool %s execution panicked: %v", name, r)
				done <- errorResult(fmt.Sprintf("tool panicked: %v", r))
			}
		}()
		res, err := tool.Execute(ctx, params, shared)
		if err != nil {
			log.Printf("tool %s execution failed: %v", name, err)
			done <- errorResult(err.Error())
			return
		}
		done <- res
	}()

	select {
	case res := <-done:
		return res
	case <-ctx.Done():
		log.Printf("tool %s execution failed: %v", name, ctx.Err())
		return errorResult("tool execution timed out")
	}
}
