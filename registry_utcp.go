package agent

import (
	"context"
	"fmt"
	"strings"

	utcp "github.com/universal-tool-calling-protocol/go-utcp"
	utcptools "github.com/universal-tool-calling-protocol/go-utcp/src/tools"
)

// UTCPRegistry resolves tools from a UTCP client, so agents can carry
// remote capabilities next to in-process ones. Lookup goes through
// SearchTools and matches on the exact tool name, accepting the
// provider-qualified form ("provider.tool") as well as the bare one.
type UTCPRegistry struct {
	client      utcp.UtcpClientInterface
	searchLimit int
}

// NewUTCPRegistry wraps a UTCP client as a ToolRegistry.
func NewUTCPRegistry(client utcp.UtcpClientInterface) (*UTCPRegistry, error) {
	if client == nil {
		return nil, fmt.Errorf("utcp client is nil")
	}
	return &UTCPRegistry{client: client, searchLimit: 25}, nil
}

func (r *UTCPRegistry) find(name string) (*utcptools.Tool, error) {
	found, err := r.client.SearchTools(name, r.searchLimit)
	if err != nil {
		return nil, fmt.Errorf("utcp search for %q: %w", name, err)
	}
	for i := range found {
		if found[i].Name == name {
			return &found[i], nil
		}
	}
	// Fall back to a bare-name match against provider-qualified entries.
	for i := range found {
		if parts := strings.Split(found[i].Name, "."); parts[len(parts)-1] == name {
			return &found[i], nil
		}
	}
	return nil, fmt.Errorf("unknown tool %q", name)
}

// ToolSpecification returns the named tool's spec, translated from the
// UTCP schema form.
func (r *UTCPRegistry) ToolSpecification(_ context.Context, name string) (*ToolSpec, error) {
	t, err := r.find(name)
	if err != nil {
		return nil, err
	}
	spec := specFromUTCP(t)
	return &spec, nil
}

// Tool returns an executable wrapper that routes Execute through the
// UTCP client's CallTool.
func (r *UTCPRegistry) Tool(_ context.Context, name string) (Tool, error) {
	t, err := r.find(name)
	if err != nil {
		return nil, err
	}
	return &utcpTool{client: r.client, callName: t.Name, spec: specFromUTCP(t)}, nil
}

var _ ToolRegistry = (*UTCPRegistry)(nil)

func specFromUTCP(t *utcptools.Tool) ToolSpec {
	schema := map[string]any{
		"type": "object",
	}
	if t.Inputs.Type != "" {
		schema["type"] = t.Inputs.Type
	}
	if len(t.Inputs.Properties) > 0 {
		schema["properties"] = t.Inputs.Properties
	}
	if len(t.Inputs.Required) > 0 {
		schema["required"] = t.Inputs.Required
	}
	return ToolSpec{
		Name:        t.Name,
		Description: t.Description,
		InputSchema: schema,
	}
}

// utcpTool adapts one discovered UTCP tool to the Tool contract.
type utcpTool struct {
	client   utcp.UtcpClientInterface
	callName string
	spec     ToolSpec
}

func (t *utcpTool) Spec() ToolSpec { return t.spec }

// Validate checks that every schema-required key is present. Type checks
// are left to the remote endpoint, which owns the full schema.
func (t *utcpTool) Validate(params map[string]any) bool {
	if params == nil {
		return false
	}
	for name := range requiredSet(t.spec.InputSchema["required"]) {
		if _, ok := params[name]; !ok {
			return false
		}
	}
	return true
}

func (t *utcpTool) Execute(ctx context.Context, params, _ map[string]any) (ToolResult, error) {
	out, err := t.client.CallTool(ctx, t.callName, params)
	if err != nil {
		return ToolResult{}, fmt.Errorf("utcp call %s: %w", t.callName, err)
	}
	return ToolResult{Success: true, Value: out}, nil
}

var _ Tool = (*utcpTool)(nil)
