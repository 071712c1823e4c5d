// Package cortex is the entry point of the working-memory engine. A Cortex
// embeds what the user says, keeps it in a decaying memory store, tracks the
// conversation's tone and builds token-bounded context prompts from the
// memories most relevant to a new message.
package cortex

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/becomeliminal/cortica-go/core"
	"github.com/becomeliminal/cortica-go/memory"
	"github.com/becomeliminal/cortica-go/profile"
	"github.com/becomeliminal/cortica-go/prompt"
	"github.com/becomeliminal/cortica-go/tone"
)

var tracer = otel.Tracer("github.com/becomeliminal/cortica-go/cortex")

// Recall is one memory returned by Query.
type Recall struct {
	ID         uint64         `json:"id"`
	Text       string         `json:"text"`
	Score      float64        `json:"score"`
	Similarity float64        `json:"similarity"`
	Tone       *core.Tone     `json:"tone,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Cortex is safe for concurrent use; its store, tone tracker and profile
// each guard their own state.
type Cortex struct {
	embedder memory.Embedder
	store    *memory.Store
	tones    *tone.Tracker
	profile  *profile.Profile
	options  Options
	logger   *slog.Logger
}

// New creates a Cortex around embedder, which is required.
func New(embedder memory.Embedder, opts ...Option) (*Cortex, error) {
	const op = "cortex.New"

	if embedder == nil {
		return nil, core.Configurationf(op, "an embedder is required")
	}

	options := NewOptions(opts...)
	if err := options.Config.Validate(); err != nil {
		return nil, &core.Error{Op: op, Kind: core.KindConfiguration, Err: err}
	}

	logger := options.Logger.With("component", "cortex")

	storeOpts := []memory.Option{
		memory.WithHalfLife(options.Config.HalfLife),
		memory.WithEvictionFloor(options.Config.EvictionFloor),
		memory.WithLogger(options.Logger),
	}
	if options.Index != nil {
		storeOpts = append(storeOpts, memory.WithIndex(options.Index))
	}

	return &Cortex{
		embedder: embedder,
		store:    memory.NewStore(storeOpts...),
		tones:    tone.NewTracker(),
		profile:  profile.New(),
		options:  options,
		logger:   logger,
	}, nil
}

// Config returns the active configuration.
func (c *Cortex) Config() Config {
	return c.options.Config
}

// Len returns the number of stored memories.
func (c *Cortex) Len() int {
	return c.store.Len()
}

// Entries returns every stored memory in id order.
func (c *Cortex) Entries() []memory.Entry {
	return c.store.Entries()
}

// Remember stores text and returns its memory id.
//
// With Config.ReinforceSimilarity set, a message that closely matches an
// existing memory reinforces that memory and returns its id instead; its
// metadata is merged into the existing memory. Tone and profile facts are
// recorded either way.
func (c *Cortex) Remember(ctx context.Context, text string, metadata map[string]any) (id uint64, err error) {
	const op = "Cortex.Remember"

	ctx, span := tracer.Start(ctx, op)
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(text) == "" {
		return 0, core.Validationf(op, "text must not be empty")
	}

	vec, err := c.embed(ctx, text)
	if err != nil {
		return 0, err
	}
	now := c.options.Clock()

	var t *core.Tone
	if c.options.ToneInferrer != nil {
		inferred := c.options.ToneInferrer.Infer(text).Clamp()
		t = &inferred
	}

	id, reinforced := c.reinforceDuplicate(ctx, vec, now)
	if reinforced && len(metadata) > 0 {
		if err := c.store.UpdateMetadata(id, metadata); err != nil {
			return 0, err
		}
	}
	if !reinforced {
		id, err = c.store.Add(ctx, text, vec, t, metadata, now)
		if err != nil {
			return 0, err
		}
	}
	span.SetAttributes(attribute.Int64("memory.id", int64(id)), attribute.Bool("memory.reinforced", reinforced))

	if t != nil {
		c.tones.Record(*t, now)
	}
	if c.options.Identity != nil {
		if n := c.profile.Merge(c.options.Identity.Extract(text)); n > 0 {
			c.logger.Debug("profile updated", "facts", n)
		}
	}

	if _, err := c.store.EvictBelowFloor(ctx, now); err != nil {
		c.logger.Warn("eviction failed", "error", err)
	}

	c.logger.Debug("remembered", "id", id, "reinforced", reinforced, "entries", c.store.Len())
	return id, nil
}

// reinforceDuplicate reinforces the best match for vec when it clears
// Config.ReinforceSimilarity.
func (c *Cortex) reinforceDuplicate(ctx context.Context, vec []float32, now time.Time) (uint64, bool) {
	threshold := c.options.Config.ReinforceSimilarity
	if threshold <= 0 || c.store.Len() == 0 {
		return 0, false
	}

	best, err := c.store.Query(ctx, vec, 1, now)
	if err != nil {
		c.logger.Warn("duplicate probe failed", "error", err)
		return 0, false
	}
	if len(best) == 0 || best[0].Similarity < threshold {
		return 0, false
	}

	id := best[0].Entry.ID
	if err := c.store.Reinforce(id, now); err != nil {
		// removed concurrently; store a new entry instead
		return 0, false
	}
	return id, true
}

// Query returns up to k memories ranked by decayed similarity to text. A k
// of 0 uses Config.DefaultK; a negative k is a validation error.
func (c *Cortex) Query(ctx context.Context, text string, k int) (recalls []Recall, err error) {
	const op = "Cortex.Query"

	ctx, span := tracer.Start(ctx, op)
	defer func() { endSpan(span, err) }()

	results, now, err := c.rank(ctx, op, text, k)
	if err != nil {
		return nil, err
	}

	recalls = make([]Recall, len(results))
	for i, r := range results {
		recalls[i] = Recall{
			ID:         r.Entry.ID,
			Text:       r.Entry.Text,
			Score:      r.Score,
			Similarity: r.Similarity,
			Tone:       r.Entry.Tone,
			Metadata:   r.Entry.Metadata,
			CreatedAt:  r.Entry.CreatedAt,
		}
		if c.options.Config.ReinforceOnRecall {
			// Ignore ids removed since ranking.
			_ = c.store.Reinforce(r.Entry.ID, now)
		}
	}

	span.SetAttributes(attribute.Int("memory.results", len(recalls)))
	return recalls, nil
}

func (c *Cortex) rank(ctx context.Context, op, text string, k int) ([]memory.Result, time.Time, error) {
	if strings.TrimSpace(text) == "" {
		return nil, time.Time{}, core.Validationf(op, "text must not be empty")
	}
	if k < 0 {
		return nil, time.Time{}, core.Validationf(op, "k must be >= 0, got %d", k)
	}
	if k == 0 {
		k = c.options.Config.DefaultK
	}
	now := c.options.Clock()

	if c.store.Len() == 0 {
		return []memory.Result{}, now, nil
	}

	vec, err := c.embed(ctx, text)
	if err != nil {
		return nil, now, err
	}

	results, err := c.store.Query(ctx, vec, k, now)
	if err != nil {
		return nil, now, err
	}
	return results, now, nil
}

// BuildContextPrompt ranks memories against text and formats them, with the
// tone summary and the user profile when available, into a block that fits
// budget tokens. A budget of 0 uses Config.TokenBudget.
func (c *Cortex) BuildContextPrompt(ctx context.Context, text string, budget int) (out string, err error) {
	const op = "Cortex.BuildContextPrompt"

	ctx, span := tracer.Start(ctx, op)
	defer func() { endSpan(span, err) }()

	if budget < 0 {
		return "", core.Validationf(op, "token budget must be >= 0, got %d", budget)
	}
	if budget == 0 {
		budget = c.options.Config.TokenBudget
	}

	results, now, err := c.rank(ctx, op, text, 0)
	if err != nil {
		return "", err
	}

	var tones []tone.WindowSummary
	if c.tones.Len() > 0 {
		tones = c.tones.Summary(c.options.Config.windows()...)
	}

	var opts []prompt.Option
	if c.options.Config.RecencyAnnotations {
		opts = append(opts, prompt.WithRecency(now))
	}
	if c.options.Identity != nil && !c.profile.Empty() {
		opts = append(opts, prompt.WithProfile(c.profile.Summarize()))
	}

	out, err = prompt.NewBuilder(opts...).Build(results, tones, budget, c.options.Tokenizer)
	if err != nil {
		return "", err
	}

	span.SetAttributes(attribute.Int("prompt.candidates", len(results)), attribute.Int("prompt.budget", budget))
	return out, nil
}

// Reinforce resets the decay of memory id.
func (c *Cortex) Reinforce(id uint64) error {
	return c.store.Reinforce(id, c.options.Clock())
}

// Remove deletes memory id.
func (c *Cortex) Remove(ctx context.Context, id uint64) error {
	return c.store.Remove(ctx, id)
}

// UpdateMetadata merges patch into the metadata of memory id. Nil values
// delete keys.
func (c *Cortex) UpdateMetadata(id uint64, patch map[string]any) error {
	return c.store.UpdateMetadata(id, patch)
}

// Evict removes memories weaker than minStrength and returns how many.
func (c *Cortex) Evict(ctx context.Context, minStrength float64) (int, error) {
	return c.store.Evict(ctx, minStrength, c.options.Clock())
}

// Traverse walks from the memory most relevant to text through chains of
// similar memories. An empty store yields an empty sequence.
func (c *Cortex) Traverse(ctx context.Context, text string, depth int, threshold float64) (iter.Seq[memory.Entry], error) {
	const op = "Cortex.Traverse"

	if depth < 0 {
		return nil, core.Validationf(op, "depth must be >= 0, got %d", depth)
	}

	results, _, err := c.rank(ctx, op, text, 1)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return func(func(memory.Entry) bool) {}, nil
	}
	return c.store.Traverse(results[0].Entry.ID, depth, threshold)
}

// TraverseFrom walks from memory id.
func (c *Cortex) TraverseFrom(id uint64, depth int, threshold float64) (iter.Seq[memory.Entry], error) {
	return c.store.Traverse(id, depth, threshold)
}

// ToneSummary summarizes recorded tone over the configured windows.
func (c *Cortex) ToneSummary() []tone.WindowSummary {
	return c.tones.Summary(c.options.Config.windows()...)
}

// Profile returns the facts gathered about the user.
func (c *Cortex) Profile() profile.Snapshot {
	return c.profile.Snapshot()
}

// ProfileSummary describes the user in one sentence.
func (c *Cortex) ProfileSummary() string {
	return c.profile.Summarize()
}

func (c *Cortex) embed(ctx context.Context, text string) ([]float32, error) {
	vec, err := c.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if len(vec) == 0 {
		return nil, fmt.Errorf("embed: embedder returned an empty vector")
	}
	return vec, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
