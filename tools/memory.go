package tools

import (
	"context"
	"encoding/json"

	"github.com/becomeliminal/cortica-go/cortex"
	"github.com/becomeliminal/cortica-go/profile"
)

// Names of the memory tools.
const (
	RecallMemories = "recall_memories"
	ForgetMemory   = "forget_memory"
	GetProfile     = "get_profile"
)

const maxRecall = 20

// MemoryTools returns tools that search, prune and describe c.
func MemoryTools(c *cortex.Cortex) []Tool {
	one, most := 1, maxRecall

	return []Tool{
		{
			Name: RecallMemories,
			Description: "Search what the user has said earlier in this conversation. " +
				"Use it when the memories already in the system prompt do not answer the question.",
			InputSchema: ObjectSchema(map[string]any{
				"query": StringProperty("What to look for, phrased like the memory you expect to find"),
				"limit": IntegerProperty("Maximum memories to return (default: the configured k)", &one, &most),
			}, "query"),
			Handler: func(ctx context.Context, input json.RawMessage) (any, error) {
				var in struct {
					Query string `json:"query"`
					Limit int    `json:"limit"`
				}
				if err := decode(RecallMemories, input, &in); err != nil {
					return nil, err
				}
				return c.Query(ctx, in.Query, min(in.Limit, maxRecall))
			},
		},
		{
			Name:        ForgetMemory,
			Description: "Permanently forget one memory, for example when the user asks you to forget something.",
			InputSchema: ObjectSchema(map[string]any{
				"memory_id": IntegerProperty("The id of a memory returned by recall_memories", &one, nil),
			}, "memory_id"),
			Handler: func(ctx context.Context, input json.RawMessage) (any, error) {
				var in struct {
					MemoryID uint64 `json:"memory_id"`
				}
				if err := decode(ForgetMemory, input, &in); err != nil {
					return nil, err
				}
				if err := c.Remove(ctx, in.MemoryID); err != nil {
					return nil, err
				}
				return map[string]any{"forgotten": in.MemoryID}, nil
			},
		},
		{
			Name:        GetProfile,
			Description: "Get the facts learned about the user so far (name, location, occupation, interests).",
			InputSchema: ObjectSchema(map[string]any{}),
			Handler: func(ctx context.Context, input json.RawMessage) (any, error) {
				return struct {
					profile.Snapshot
					Summary string `json:"summary,omitempty"`
				}{c.Profile(), c.ProfileSummary()}, nil
			},
		},
	}
}
