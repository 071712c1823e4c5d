// Package tools lets Claude reach into session memory during a turn. Each
// Tool pairs a JSON Schema definition with a handler; the engine advertises
// the definitions and runs the handlers for tool_use blocks.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/becomeliminal/cortica-go/core"
)

// Handler runs one tool call. The result is sent back to Claude as JSON.
type Handler func(ctx context.Context, input json.RawMessage) (any, error)

type Tool struct {
	Name        string
	Description string
	InputSchema map[string]any
	Handler     Handler
}

// Param converts the tool to its Anthropic API definition.
func (t Tool) Param() anthropic.ToolUnionParam {
	return anthropic.ToolUnionParam{
		OfTool: &anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: properties(t.InputSchema),
				Required:   required(t.InputSchema),
			},
		},
	}
}

// Set is a collection of tools addressed by name.
type Set struct {
	tools map[string]Tool
	order []string
}

// NewSet builds a set. A duplicate or unnamed tool is a configuration error.
func NewSet(tools ...Tool) (*Set, error) {
	s := &Set{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if t.Name == "" || t.Handler == nil {
			return nil, core.Configurationf("tools.NewSet", "tool %q needs a name and a handler", t.Name)
		}
		if _, dup := s.tools[t.Name]; dup {
			return nil, core.Configurationf("tools.NewSet", "duplicate tool %q", t.Name)
		}
		s.tools[t.Name] = t
		s.order = append(s.order, t.Name)
	}
	return s, nil
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

// Params returns the API definitions in registration order.
func (s *Set) Params() []anthropic.ToolUnionParam {
	if s == nil {
		return nil
	}
	out := make([]anthropic.ToolUnionParam, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.tools[name].Param())
	}
	return out
}

// Execute runs the named tool and returns its JSON-encoded result.
func (s *Set) Execute(ctx context.Context, name string, input json.RawMessage) (string, error) {
	if s == nil {
		return "", core.Validationf("tools.Execute", "unknown tool %q", name)
	}
	t, ok := s.tools[name]
	if !ok {
		return "", core.Validationf("tools.Execute", "unknown tool %q", name)
	}

	result, err := t.Handler(ctx, input)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("encode %s result: %w", name, err)
	}
	return string(data), nil
}

// decode unmarshals tool input, reporting malformed input as a validation
// error so Claude sees it as its own mistake.
func decode(op string, input json.RawMessage, v any) error {
	if len(input) == 0 {
		return nil
	}
	if err := json.Unmarshal(input, v); err != nil {
		return core.Validationf(op, "invalid input: %v", err)
	}
	return nil
}
