package tools

import (
	"context"
	"fmt"

	agent "github.com/agentrelay/go-agent"
)

type calculatorParams struct {
	Operation string  `json:"operation" jsonschema:"description=Arithmetic operation to perform,enum=add,enum=subtract,enum=multiply,enum=divide"`
	A         float64 `json:"a" jsonschema:"description=Left operand"`
	B         float64 `json:"b" jsonschema:"description=Right operand"`
}

// CalculatorTool performs basic arithmetic on two operands.
type CalculatorTool struct {
	spec      agent.ToolSpec
	validator *Validator
}

func NewCalculatorTool() *CalculatorTool {
	schema := ReflectSchema(&calculatorParams{})
	return &CalculatorTool{
		spec: agent.ToolSpec{
			Name:        "calculator",
			Description: "Performs basic arithmetic: add, subtract, multiply or divide two numbers",
			InputSchema: schema,
			Examples: []map[string]any{
				{"operation": "add", "a": 2, "b": 3},
			},
		},
		validator: mustValidator(schema),
	}
}

func (t *CalculatorTool) Spec() agent.ToolSpec { return t.spec }

func (t *CalculatorTool) Validate(params map[string]any) bool {
	return t.validator.Valid(params)
}

func (t *CalculatorTool) Execute(_ context.Context, params, _ map[string]any) (agent.ToolResult, error) {
	var p calculatorParams
	if err := DecodeParams(params, &p); err != nil {
		return agent.ToolResult{}, err
	}

	var out float64
	switch p.Operation {
	case "add":
		out = p.A + p.B
	case "subtract":
		out = p.A - p.B
	case "multiply":
		out = p.A * p.B
	case "divide":
		if p.B == 0 {
			return agent.ToolResult{}, fmt.Errorf("division by zero")
		}
		out = p.A / p.B
	default:
		return agent.ToolResult{}, fmt.Errorf("unsupported operation %q", p.Operation)
	}
	return agent.ToolResult{Success: true, Value: out}, nil
}

var _ agent.Tool = (*CalculatorTool)(nil)
