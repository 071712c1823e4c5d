package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/becomeliminal/cortica-go/core"
	"github.com/becomeliminal/cortica-go/engine"
	"github.com/becomeliminal/cortica-go/tools"
)

type ChatCmd struct {
	APIKey          string `help:"Anthropic API key." env:"ANTHROPIC_API_KEY"`
	Model           string `help:"Claude model." default:"claude-sonnet-4-20250514"`
	MaxTokens       int64  `help:"Maximum tokens per reply." default:"1024"`
	SystemPrompt    string `help:"Override the system prompt."`
	ContextBudget   int    `help:"Token budget of the memory block (0 uses the config default)."`
	HistoryTurns    int    `help:"Verbatim turns sent with each request." default:"6"`
	RememberReplies bool   `help:"Also remember Claude's replies."`
	Stream          bool   `help:"Stream replies as they are generated." default:"true" negatable:""`
	ShowContext     bool   `help:"Print the memory block sent with each turn."`
	Tools           bool   `help:"Let Claude search and prune memory with tools." default:"true" negatable:""`
}

func (c *ChatCmd) Run(g *Globals) error {
	if c.APIKey == "" {
		return core.Configurationf("chat", "ANTHROPIC_API_KEY is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logger := slog.Default()
	d, err := newDeps(ctx, g, logger)
	if err != nil {
		return err
	}
	defer d.Close()

	memory, err := d.NewCortex()
	if err != nil {
		return err
	}

	client := anthropic.NewClient(option.WithAPIKey(c.APIKey))

	opts := []engine.Option{
		engine.WithModel(c.Model),
		engine.WithMaxTokens(c.MaxTokens),
		engine.WithContextBudget(c.ContextBudget),
		engine.WithHistoryTurns(c.HistoryTurns),
		engine.WithRememberReplies(c.RememberReplies),
		engine.WithLogger(logger),
	}
	if c.SystemPrompt != "" {
		opts = append(opts, engine.WithSystemPrompt(c.SystemPrompt))
	}
	if c.Tools {
		set, err := tools.NewSet(tools.MemoryTools(memory)...)
		if err != nil {
			return err
		}
		opts = append(opts, engine.WithTools(set))
	}

	eng, err := engine.New(&client.Messages, memory, opts...)
	if err != nil {
		return err
	}

	session := engine.NewSession()
	fmt.Println("cortica chat. Type a message and press enter; Ctrl-D to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}

		input := &engine.Input{Message: text}
		if c.Stream {
			input.StreamCallback = func(chunk string, done bool) {
				if done {
					fmt.Println()
					return
				}
				fmt.Print(chunk)
			}
		}

		out, err := eng.Chat(ctx, session, input)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintln(os.Stderr, "error:", err)
			continue
		}

		if c.ShowContext && out.Context != "" {
			fmt.Fprintf(os.Stderr, "\n[context]\n%s\n", out.Context)
		}
		if !c.Stream {
			fmt.Println(out.Text)
		}
	}

	logger.Info("session ended", "memories", memory.Len(), "profile", memory.ProfileSummary())
	return scanner.Err()
}
