// Package tools holds the closed catalog of functions the model may invoke
// mid-conversation. Adding a tool means adding an implementation of Tool and
// registering it in NewRegistry's caller; there is no dynamic lookup beyond
// the registry built at startup.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/JoDi-2903/FlexiTime-Hackathon/internal/llm"
)

// Tool is one callable function exposed to the model.
type Tool interface {
	Schema() llm.ToolSchema
	Invoke(ctx context.Context, args map[string]string) (string, error)
}

// Registry dispatches tool invocations to the registered tools.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry builds a registry over the given tools.
func NewRegistry(ts ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	for _, t := range ts {
		name := t.Schema().Name
		if _, dup := r.tools[name]; dup {
			continue
		}
		r.tools[name] = t
		r.order = append(r.order, name)
	}
	return r
}

// Catalog returns the tool schemas in registration order, for the session's
// tool catalog snapshot.
func (r *Registry) Catalog() []llm.ToolSchema {
	out := make([]llm.ToolSchema, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].Schema())
	}
	return out
}

// Dispatch executes the invocation and always returns a result string to be
// injected back into the transcript. Unknown tools, bad arguments and tool
// failures become error payloads the model is expected to react to; the run
// never crashes on a dispatch problem.
func (r *Registry) Dispatch(ctx context.Context, inv *llm.ToolUse) string {
	if inv == nil {
		return errorPayload("empty tool invocation")
	}
	t, ok := r.tools[inv.Name]
	if !ok {
		log.Printf("tools: unknown tool requested: %s", inv.Name)
		return errorPayload(fmt.Sprintf("unknown tool: %s", inv.Name))
	}

	args, err := decodeArgs(inv.Input)
	if err != nil {
		return errorPayload(fmt.Sprintf("invalid arguments for %s: %v", inv.Name, err))
	}
	if missing := missingRequired(t.Schema(), args); missing != "" {
		return errorPayload(fmt.Sprintf("missing required argument for %s: %s", inv.Name, missing))
	}

	result, err := t.Invoke(ctx, args)
	if err != nil {
		log.Printf("tools: %s failed: %v", inv.Name, err)
		return errorPayload(fmt.Sprintf("%s failed: %v", inv.Name, err))
	}
	return result
}

func decodeArgs(raw json.RawMessage) (map[string]string, error) {
	if len(raw) == 0 {
		return map[string]string{}, nil
	}
	var loose map[string]any
	if err := json.Unmarshal(raw, &loose); err != nil {
		return nil, err
	}
	args := make(map[string]string, len(loose))
	for k, v := range loose {
		switch val := v.(type) {
		case string:
			args[k] = val
		case nil:
			args[k] = ""
		default:
			args[k] = fmt.Sprintf("%v", val)
		}
	}
	return args, nil
}

func missingRequired(schema llm.ToolSchema, args map[string]string) string {
	for _, name := range schema.InputSchema.Required {
		if _, ok := args[name]; !ok {
			return name
		}
	}
	return ""
}

func errorPayload(msg string) string {
	b, _ := json.Marshal(map[string]string{"error": msg, "status": "failed"})
	return string(b)
}
