// Package engine runs a Claude conversation with working memory: each user
// message is answered with the most relevant remembered context folded into
// the system prompt, then remembered itself.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/becomeliminal/cortica-go/core"
	"github.com/becomeliminal/cortica-go/cortex"
)

// Messenger is the part of the Anthropic client the engine uses.
// *anthropic.MessageService satisfies it.
type Messenger interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
	NewStreaming(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) *ssestream.Stream[anthropic.MessageStreamEventUnion]
}

// Engine answers messages with Claude and records them in a Cortex.
type Engine struct {
	messenger Messenger
	memory    *cortex.Cortex
	options   Options
	logger    *slog.Logger
}

// New creates an engine. Both collaborators are required.
func New(messenger Messenger, memory *cortex.Cortex, opts ...Option) (*Engine, error) {
	const op = "engine.New"

	if messenger == nil {
		return nil, core.Configurationf(op, "a messenger is required")
	}
	if memory == nil {
		return nil, core.Configurationf(op, "a cortex is required")
	}

	options := NewOptions(opts...)
	return &Engine{
		messenger: messenger,
		memory:    memory,
		options:   options,
		logger:    options.Logger.With("component", "engine"),
	}, nil
}

// Memory returns the engine's cortex.
func (e *Engine) Memory() *cortex.Cortex {
	return e.memory
}

// Input is one user turn.
type Input struct {
	// Message is the user's message.
	Message string

	// Metadata is stored with the remembered message.
	Metadata map[string]any

	// StreamCallback, when set, receives text deltas as they arrive.
	StreamCallback func(chunk string, done bool)
}

// Output is the assistant's reply.
type Output struct {
	Text string

	// Context is the memory block added to the system prompt ("" if none).
	Context string

	// MemoryID is the id the user message was remembered under.
	MemoryID uint64

	InputTokens  int64
	OutputTokens int64
}

// Chat answers one user message within session.
//
// Memory retrieval happens before the message is remembered, so a message
// never recalls itself. Retrieval and remembering failures are logged and do
// not fail the turn; Claude API failures do.
func (e *Engine) Chat(ctx context.Context, session *Session, input *Input) (*Output, error) {
	const op = "Engine.Chat"

	if session == nil {
		return nil, core.Validationf(op, "session is required")
	}
	if input == nil || strings.TrimSpace(input.Message) == "" {
		return nil, core.Validationf(op, "message must not be empty")
	}

	memoryContext, err := e.memory.BuildContextPrompt(ctx, input.Message, e.options.ContextBudget)
	if err != nil {
		e.logger.Warn("memory retrieval failed", "session", session.ID, "error", err)
		memoryContext = ""
	}
	if e.memory.Len() == 0 {
		memoryContext = ""
	}

	systemPrompt := e.options.SystemPrompt
	if memoryContext != "" {
		systemPrompt += "\n\n" + memoryContext
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(e.options.Model),
		MaxTokens: e.options.MaxTokens,
		Messages:  session.messagesWith(input.Message),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
	}
	if e.options.Tools.Len() > 0 {
		params.Tools = e.options.Tools.Params()
	}

	out := &Output{Context: memoryContext}

	for round := 1; ; round++ {
		var resp *anthropic.Message
		if input.StreamCallback != nil {
			resp, err = e.createMessageStreaming(ctx, params, input.StreamCallback)
		} else {
			resp, err = e.messenger.New(ctx, params)
		}
		if err != nil {
			return nil, fmt.Errorf("claude API error: %w", err)
		}

		out.InputTokens += resp.Usage.InputTokens
		out.OutputTokens += resp.Usage.OutputTokens

		var reply strings.Builder
		var toolResults []anthropic.ContentBlockParamUnion
		for _, block := range resp.Content {
			switch block.Type {
			case "text":
				reply.WriteString(block.Text)
			case "tool_use":
				toolResults = append(toolResults, e.runTool(ctx, session, block))
			}
		}
		out.Text = reply.String()

		if len(toolResults) == 0 {
			break
		}
		if round >= e.options.MaxToolRounds {
			return nil, fmt.Errorf("exceeded maximum tool rounds (%d)", e.options.MaxToolRounds)
		}

		params.Messages = append(params.Messages,
			anthropic.NewAssistantMessage(responseToBlocks(resp)...),
			anthropic.NewUserMessage(toolResults...),
		)
	}

	if input.StreamCallback != nil {
		input.StreamCallback("", true)
	}

	out.MemoryID = e.remember(ctx, session, input.Message, "user", input.Metadata)
	if e.options.RememberReplies && out.Text != "" {
		e.remember(ctx, session, out.Text, "assistant", nil)
	}

	session.addExchange(input.Message, out.Text, e.options.HistoryTurns)

	e.logger.Debug("turn complete",
		"session", session.ID,
		"turn", session.TurnCount,
		"memories", e.memory.Len(),
		"input_tokens", out.InputTokens,
		"output_tokens", out.OutputTokens,
	)
	return out, nil
}

func (e *Engine) remember(ctx context.Context, session *Session, text, role string, metadata map[string]any) uint64 {
	meta := map[string]any{"role": role, "session": session.ID}
	for k, v := range metadata {
		meta[k] = v
	}

	id, err := e.memory.Remember(ctx, text, meta)
	if err != nil {
		e.logger.Warn("remember failed", "session", session.ID, "role", role, "error", err)
		return 0
	}
	return id
}

// createMessageStreaming handles streaming API calls.
func (e *Engine) createMessageStreaming(ctx context.Context, params anthropic.MessageNewParams, callback func(string, bool)) (*anthropic.Message, error) {
	stream := e.messenger.NewStreaming(ctx, params)
	defer stream.Close()

	message := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		if err := message.Accumulate(event); err != nil {
			e.logger.Debug("stream accumulate failed", "error", err)
		}

		switch evt := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			if delta, ok := evt.Delta.AsAny().(anthropic.TextDelta); ok {
				callback(delta.Text, false)
			}
		}
	}

	if err := stream.Err(); err != nil {
		return nil, err
	}
	return &message, nil
}

// runTool executes one tool_use block. Failures go back to Claude as error
// results rather than failing the turn.
func (e *Engine) runTool(ctx context.Context, session *Session, block anthropic.ContentBlockUnion) anthropic.ContentBlockParamUnion {
	result, err := e.options.Tools.Execute(ctx, block.Name, block.Input)
	if err != nil {
		e.logger.Warn("tool failed", "session", session.ID, "tool", block.Name, "error", err)
		return anthropic.NewToolResultBlock(block.ID, err.Error(), true)
	}
	e.logger.Debug("tool executed", "session", session.ID, "tool", block.Name)
	return anthropic.NewToolResultBlock(block.ID, result, false)
}

// responseToBlocks rebuilds the assistant turn so it can be sent back with
// the tool results.
func responseToBlocks(resp *anthropic.Message) []anthropic.ContentBlockParamUnion {
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(resp.Content))
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			blocks = append(blocks, anthropic.NewTextBlock(block.Text))
		case "tool_use":
			blocks = append(blocks, anthropic.NewToolUseBlock(block.ID, block.Input, block.Name))
		}
	}
	return blocks
}
