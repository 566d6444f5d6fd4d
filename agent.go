package agent

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/agentrelay/go-agent/src/concurrent"
	"github.com/agentrelay/go-agent/src/models"
)

// Definition is the declarative configuration an Agent is built from.
// Immutable after New.
type Definition struct {
	Name            string
	Description     string
	PromptTemplates map[string]string
	Configuration   map[string]any
	Tools           []string
}

const (
	defaultMaxToolCalls = 5

	backendErrorApology = "I encountered an error while processing your request. Please try again."
	toolLimitApology    = "I'm sorry, but I couldn't complete your request due to too many tool interactions."
	resultFollowUp      = "\n\nPlease provide a final response based on the tool results: "

	defaultSystemTemplate = "You are a helpful AI assistant named {{agent_name}}. {{agent_description}}{{available_tools}}"
	defaultUserTemplate   = "{{user_message}}\n{{#knowledge_context}}Using this relevant knowledge:\n{{knowledge_context}}{{/knowledge_context}}"
)

// Agent runs the tool-augmented chat loop: prompt the model, execute any
// TOOL_CALL directives it emits, splice the results back and re-prompt until
// the model answers without directives or the iteration cap is hit.
type Agent struct {
	definition Definition
	model      models.ChatModel
	registry   ToolRegistry

	specs     map[string]ToolSpec
	specOrder []string
	tools     map[string]Tool

	maxToolCalls int
	pool         *concurrent.WorkerPool
}

// Option tunes agent construction.
type Option func(*Agent)

// WithMaxToolCalls overrides the tool-iteration cap. The wire protocol is
// unchanged; values below one fall back to the default.
func WithMaxToolCalls(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxToolCalls = n
		}
	}
}

// WithWorkerPool shares a worker pool for catalog loading.
func WithWorkerPool(pool *concurrent.WorkerPool) Option {
	return func(a *Agent) {
		if pool != nil {
			a.pool = pool
		}
	}
}

// New builds an agent and resolves its tool catalog from the registry.
// Tools that fail to load are logged and skipped; the catalog may be a
// strict subset of the definition's tool list. It is read-only afterwards.
func New(ctx context.Context, def Definition, model models.ChatModel, registry ToolRegistry, opts ...Option) *Agent {
	a := &Agent{
		definition:   def,
		model:        model,
		registry:     registry,
		specs:        make(map[string]ToolSpec),
		tools:        make(map[string]Tool),
		maxToolCalls: defaultMaxToolCalls,
		pool:         concurrent.NewWorkerPool(8),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.loadCatalog(ctx)
	log.Printf("agent %s initialized with %d tools", def.Name, len(a.tools))
	return a
}

func (a *Agent) loadCatalog(ctx context.Context) {
	if a.registry == nil || len(a.definition.Tools) == 0 {
		return
	}

	type loaded struct {
		name string
		spec *ToolSpec
		tool Tool
	}
	entries, _ := concurrent.ParallelMap(ctx, a.definition.Tools, func(name string) (loaded, error) {
		out := loaded{name: name}
		err := a.pool.Do(ctx, func() error {
			if spec, err := a.registry.ToolSpecification(ctx, name); err != nil {
				log.Printf("failed to load tool specification %s: %v", name, err)
			} else {
				out.spec = spec
			}
			if tool, err := a.registry.Tool(ctx, name); err != nil {
				log.Printf("failed to load tool %s: %v", name, err)
			} else {
				out.tool = tool
			}
			return nil
		})
		if err != nil {
			log.Printf("failed to load tool %s: %v", name, err)
		}
		return out, nil
	}, 0)

	for _, entry := range entries {
		if entry.spec != nil {
			if _, dup := a.specs[entry.name]; !dup {
				a.specs[entry.name] = *entry.spec
				a.specOrder = append(a.specOrder, entry.name)
			}
		}
		if entry.tool != nil {
			a.tools[entry.name] = entry.tool
		}
	}
}

// Definition returns the agent's immutable configuration.
func (a *Agent) Definition() Definition {
	return a.definition
}

// ToolNames returns the names of the tools that loaded successfully.
func (a *Agent) ToolNames() []string {
	names := make([]string, 0, len(a.tools))
	for _, name := range a.specOrder {
		if _, ok := a.tools[name]; ok {
			names = append(names, name)
		}
	}
	return names
}

// Chat renders the prompts from vars and drives the tool loop to a final
// answer. Backend failures and iteration exhaustion both produce a fixed
// apology rather than an error; the caller always gets displayable text.
func (a *Agent) Chat(ctx context.Context, vars map[string]any) string {
	system := a.renderSystemPrompt(vars)
	user := a.renderUserPrompt(vars)

	var conversation strings.Builder
	conversation.WriteString(system)
	conversation.WriteString("\n\nUser: ")
	conversation.WriteString(user)
	conversation.WriteString("\nAssistant: ")

	for iteration := 0; iteration < a.maxToolCalls; iteration++ {
		response, err := a.model.Chat(ctx, conversation.String())
		if err != nil {
			log.Printf("chat execution failed: %v", err)
			return backendErrorApology
		}

		calls := ParseToolCalls(response)
		if len(calls) == 0 {
			return response
		}

		results := a.dispatchBatch(ctx, calls, vars)
		conversation.WriteString(SpliceResults(response, calls, results))
		conversation.WriteString(resultFollowUp)
	}

	log.Printf("maximum tool execution iterations (%d) reached", a.maxToolCalls)
	return toolLimitApology
}

func (a *Agent) renderSystemPrompt(vars map[string]any) string {
	merged := make(map[string]any, len(vars)+4)
	for k, v := range vars {
		merged[k] = v
	}
	merged["agent_name"] = a.definition.Name
	merged["agent_description"] = a.definition.Description
	merged["current_datetime"] = time.Now().Format(time.RFC3339)
	for k, v := range a.definition.Configuration {
		merged[k] = v
	}
	merged["available_tools"] = a.renderAvailableTools()

	template, ok := a.definition.PromptTemplates["system"]
	if !ok || template == "" {
		template = defaultSystemTemplate
	}
	return RenderTemplate(template, merged)
}

func (a *Agent) renderUserPrompt(vars map[string]any) string {
	merged := make(map[string]any, len(vars)+1)
	for k, v := range vars {
		merged[k] = v
	}
	if _, ok := merged["knowledge_context"]; !ok {
		merged["knowledge_context"] = ""
	}

	template, ok := a.definition.PromptTemplates["user"]
	if !ok || template == "" {
		template = defaultUserTemplate
	}
	return RenderTemplate(template, merged)
}

// renderAvailableTools lists the loaded tool specs, with their parameters
// pulled from each spec's input schema, plus the TOOL_CALL usage hint.
func (a *Agent) renderAvailableTools() string {
	if len(a.specOrder) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\nYou have access to the following tools. To use a tool, respond with TOOL_CALL: toolName {\"param1\": \"value\"}\n\n")
	for _, name := range a.specOrder {
		spec := a.specs[name]
		b.WriteString("- ")
		b.WriteString(spec.Name)
		b.WriteString(": ")
		b.WriteString(spec.Description)

		if props, ok := spec.InputSchema["properties"].(map[string]any); ok && len(props) > 0 {
			required := requiredSet(spec.InputSchema["required"])
			b.WriteString("\n  Parameters: ")
			for _, pname := range sortedKeys(props) {
				b.WriteString(pname)
				prop, _ := props[pname].(map[string]any)
				if ptype, ok := prop["type"].(string); ok && ptype != "" {
					b.WriteString(" (")
					b.WriteString(ptype)
					b.WriteString(")")
				}
				if required[pname] {
					b.WriteString(" [required]")
				}
				if desc, ok := prop["description"].(string); ok && desc != "" {
					b.WriteString(" - ")
					b.WriteString(desc)
				}
				b.WriteString("; ")
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func requiredSet(v any) map[string]bool {
	out := map[string]bool{}
	list, ok := v.([]any)
	if !ok {
		if names, ok := v.([]string); ok {
			for _, name := range names {
				out[name] = true
			}
		}
		return out
	}
	for _, item := range list {
		if name, ok := item.(string); ok {
			out[name] = true
		}
	}
	return out
}
