package tools

import (
	"context"
	"fmt"
	"time"

	agent "github.com/agentrelay/go-agent"
)

type clockParams struct {
	Timezone string `json:"timezone,omitempty" jsonschema:"description=IANA timezone name such as Europe/Berlin; defaults to UTC"`
}

// ClockTool reports the current time, optionally in a requested timezone.
type ClockTool struct {
	spec      agent.ToolSpec
	validator *Validator

	// now is swappable for tests.
	now func() time.Time
}

func NewClockTool() *ClockTool {
	schema := ReflectSchema(&clockParams{})
	return &ClockTool{
		spec: agent.ToolSpec{
			Name:        "clock",
			Description: "Returns the current date and time in RFC3339 format",
			InputSchema: schema,
		},
		validator: mustValidator(schema),
		now:       time.Now,
	}
}

func (t *ClockTool) Spec() agent.ToolSpec { return t.spec }

func (t *ClockTool) Validate(params map[string]any) bool {
	return t.validator.Valid(params)
}

func (t *ClockTool) Execute(_ context.Context, params, _ map[string]any) (agent.ToolResult, error) {
	var p clockParams
	if err := DecodeParams(params, &p); err != nil {
		return agent.ToolResult{}, err
	}

	loc := time.UTC
	if p.Timezone != "" {
		var err error
		loc, err = time.LoadLocation(p.Timezone)
		if err != nil {
			return agent.ToolResult{}, fmt.Errorf("unknown timezone %q", p.Timezone)
		}
	}
	now := t.now().In(loc)
	return agent.ToolResult{Success: true, Value: map[string]any{
		"now":      now.Format(time.RFC3339),
		"timezone": loc.String(),
	}}, nil
}

var _ agent.Tool = (*ClockTool)(nil)
