package engine

import (
	"log/slog"

	"github.com/becomeliminal/cortica-go/tools"
)

// DefaultModel is the Claude model used when none is configured.
const DefaultModel = "claude-sonnet-4-20250514"

// DefaultSystemPrompt is the default system prompt for conversations.
const DefaultSystemPrompt = `You are a warm, attentive conversation partner.

GUIDELINES:
- Use the remembered context below when it is relevant; never recite it verbatim
- Match the user's tone, and be gentle when the conversation has been negative
- If a remembered detail conflicts with what the user says now, trust the user
- Keep answers concise unless asked for detail`

type Option func(*Options)

type Options struct {
	Model        string
	MaxTokens    int64
	SystemPrompt string

	// ContextBudget is the token budget of the memory block; 0 uses the
	// cortex default.
	ContextBudget int

	// HistoryTurns bounds the verbatim transcript sent with each request.
	HistoryTurns int

	// RememberReplies also stores the assistant's replies as memories.
	RememberReplies bool

	// Tools are offered to Claude on every turn. Tool calls are resolved
	// within the turn, up to MaxToolRounds round trips.
	Tools         *tools.Set
	MaxToolRounds int

	Logger *slog.Logger
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithMaxTokens(n int64) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithSystemPrompt(prompt string) Option {
	return func(o *Options) {
		o.SystemPrompt = prompt
	}
}

func WithContextBudget(tokens int) Option {
	return func(o *Options) {
		o.ContextBudget = tokens
	}
}

func WithHistoryTurns(n int) Option {
	return func(o *Options) {
		o.HistoryTurns = n
	}
}

func WithRememberReplies(remember bool) Option {
	return func(o *Options) {
		o.RememberReplies = remember
	}
}

func WithTools(set *tools.Set) Option {
	return func(o *Options) {
		o.Tools = set
	}
}

func WithMaxToolRounds(n int) Option {
	return func(o *Options) {
		o.MaxToolRounds = n
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Model:         DefaultModel,
		MaxTokens:     1024,
		SystemPrompt:  DefaultSystemPrompt,
		HistoryTurns:  6,
		MaxToolRounds: 4,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Model == "" {
		options.Model = DefaultModel
	}
	if options.MaxTokens <= 0 {
		options.MaxTokens = 1024
	}
	if options.SystemPrompt == "" {
		options.SystemPrompt = DefaultSystemPrompt
	}
	if options.MaxToolRounds < 1 {
		options.MaxToolRounds = 1
	}
	if options.ContextBudget < 0 {
		options.ContextBudget = 0
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	return options
}
