package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// ToolSpec describes how a tool is presented to the model.
type ToolSpec struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	InputSchema map[string]any   `json:"input_schema"`
	Examples    []map[string]any `json:"examples,omitempty"`
}

// ToolResult is the single outcome of a tool invocation. Value and
// ErrorMessage are mutually exclusive.
type ToolResult struct {
	Success      bool
	Value        any
	ErrorMessage string
}

// Tool is the capability contract invoked by the orchestration loop.
type Tool interface {
	Spec() ToolSpec
	Validate(params map[string]any) bool
	Execute(ctx context.Context, params, shared map[string]any) (ToolResult, error)
}

// ToolRegistry resolves tool names to specifications and executable
// capabilities. The two sides are independently optional: a registry may
// know a tool's spec without being able to hand out the capability, and
// vice versa.
type ToolRegistry interface {
	ToolSpecification(ctx context.Context, name string) (*ToolSpec, error)
	Tool(ctx context.Context, name string) (Tool, error)
}

// StaticRegistry is an in-memory ToolRegistry. Names are case-insensitive
// and registration order is preserved.
type StaticRegistry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

func NewStaticRegistry(tools ...Tool) (*StaticRegistry, error) {
	r := &StaticRegistry{tools: make(map[string]Tool)}
	for _, tool := range tools {
		if err := r.Register(tool); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a tool, rejecting nil tools, empty names and duplicates.
func (r *StaticRegistry) Register(tool Tool) error {
	if tool == nil {
		return fmt.Errorf("tool is nil")
	}
	name := strings.ToLower(strings.TrimSpace(tool.Spec().Name))
	if name == "" {
		return fmt.Errorf("tool has empty name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}
	r.tools[name] = tool
	r.order = append(r.order, name)
	return nil
}

// ToolSpecification returns the named tool's spec.
func (r *StaticRegistry) ToolSpecification(_ context.Context, name string) (*ToolSpec, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown tool %q", name)
	}
	spec := tool.Spec()
	return &spec, nil
}

// Tool returns the named executable capability.
func (r *StaticRegistry) Tool(_ context.Context, name string) (Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown tool %q", name)
	}
	return tool, nil
}

// Names returns the registered tool names in registration order.
func (r *StaticRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

var _ ToolRegistry = (*StaticRegistry)(nil)

// sortedKeys is a small helper for deterministic catalog listings.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
