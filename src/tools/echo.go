package tools

import (
	"context"

	agent "github.com/agentrelay/go-agent"
)

type echoParams struct {
	Message string `json:"message" jsonschema:"description=Text to echo back"`
}

// EchoTool returns its input unchanged. Mostly useful for wiring checks
// and demos.
type EchoTool struct {
	spec      agent.ToolSpec
	validator *Validator
}

func NewEchoTool() *EchoTool {
	schema := ReflectSchema(&echoParams{})
	return &EchoTool{
		spec: agent.ToolSpec{
			Name:        "echo",
			Description: "Echoes the provided message back to the caller",
			InputSchema: schema,
			Examples: []map[string]any{
				{"message": "hello"},
			},
		},
		validator: mustValidator(schema),
	}
}

func (t *EchoTool) Spec() agent.ToolSpec { return t.spec }

func (t *EchoTool) Validate(params map[string]any) bool {
	return t.validator.Valid(params)
}

func (t *EchoTool) Execute(_ context.Context, params, _ map[string]any) (agent.ToolResult, error) {
	var p echoParams
	if err := DecodeParams(params, &p); err != nil {
		return agent.ToolResult{}, err
	}
	return agent.ToolResult{Success: true, Value: p.Message}, nil
}

var _ agent.Tool = (*EchoTool)(nil)
