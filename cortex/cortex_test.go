package cortex_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/becomeliminal/cortica-go/core"
	"github.com/becomeliminal/cortica-go/cortex"
	"github.com/becomeliminal/cortica-go/embedder/hash"
	"github.com/becomeliminal/cortica-go/memory"
	"github.com/becomeliminal/cortica-go/understanding"
)

// keywordEmbedder maps each text to a fixed vector, failing on unknown text.
type keywordEmbedder struct {
	vectors map[string][]float32
	calls   int
	mu      sync.Mutex
}

func (k *keywordEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.calls++
	v, ok := k.vectors[text]
	if !ok {
		return nil, fmt.Errorf("no vector for %q", text)
	}
	return v, nil
}

type clock struct {
	now time.Time
	mu  sync.Mutex
}

func newClock() *clock {
	return &clock{now: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestNew_RequiresEmbedder(t *testing.T) {
	_, err := cortex.New(nil)
	assert.True(t, core.IsConfiguration(err))
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := cortex.DefaultConfig()
	cfg.DefaultK = 0

	_, err := cortex.New(hash.New(8), cortex.WithConfig(cfg))
	assert.True(t, core.IsConfiguration(err))
}

func TestCortex_RememberAndQuery(t *testing.T) {
	ctx := context.Background()
	clk := newClock()
	emb := &keywordEmbedder{vectors: map[string][]float32{
		"first":  {1, 0},
		"other":  {0, 1},
		"latest": {1, 0},
		"probe":  {1, 0},
	}}
	c, err := cortex.New(emb, cortex.WithClock(clk.Now))
	require.NoError(t, err)

	first, err := c.Remember(ctx, "first", map[string]any{"role": "user"})
	require.NoError(t, err)
	clk.Advance(time.Second)
	other, err := c.Remember(ctx, "other", nil)
	require.NoError(t, err)
	clk.Advance(time.Second)
	latest, err := c.Remember(ctx, "latest", nil)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Len())

	recalls, err := c.Query(ctx, "probe", 3)
	require.NoError(t, err)
	require.Len(t, recalls, 3)
	assert.Equal(t, []uint64{latest, first, other}, []uint64{recalls[0].ID, recalls[1].ID, recalls[2].ID})
	assert.Equal(t, "user", recalls[1].Metadata["role"])
	assert.InDelta(t, 0.0, recalls[2].Score, 1e-9)
}

func TestCortex_QueryDefaultK(t *testing.T) {
	ctx := context.Background()
	cfg := cortex.DefaultConfig()
	cfg.DefaultK = 2
	c, err := cortex.New(hash.New(32), cortex.WithConfig(cfg))
	require.NoError(t, err)

	for _, s := range []string{"tea", "coffee", "juice", "water"} {
		_, err := c.Remember(ctx, s, nil)
		require.NoError(t, err)
	}

	recalls, err := c.Query(ctx, "tea", 0)
	require.NoError(t, err)
	assert.Len(t, recalls, 2)
	assert.Equal(t, "tea", recalls[0].Text)
}

func TestCortex_QueryEmptyStoreSkipsEmbedding(t *testing.T) {
	emb := &keywordEmbedder{}
	c, err := cortex.New(emb)
	require.NoError(t, err)

	recalls, err := c.Query(context.Background(), "anything", 3)
	require.NoError(t, err)
	assert.Empty(t, recalls)
	assert.Zero(t, emb.calls)
}

func TestCortex_Validation(t *testing.T) {
	ctx := context.Background()
	c, err := cortex.New(hash.New(8))
	require.NoError(t, err)

	_, err = c.Remember(ctx, "  ", nil)
	assert.True(t, core.IsValidation(err))

	_, err = c.Query(ctx, "", 1)
	assert.True(t, core.IsValidation(err))

	_, err = c.Remember(ctx, "a", nil)
	require.NoError(t, err)
	_, err = c.Remember(ctx, "b", nil)
	require.NoError(t, err)
	_, err = c.Query(ctx, "a", -3)
	assert.True(t, core.IsValidation(err))
	recalls, err := c.Query(ctx, "a", 0)
	require.NoError(t, err)
	assert.Len(t, recalls, 2, "k of 0 uses the default")

	_, err = c.BuildContextPrompt(ctx, "hi", -5)
	assert.True(t, core.IsValidation(err))

	assert.True(t, core.IsNotFound(c.Reinforce(7)))
	assert.True(t, core.IsNotFound(c.Remove(ctx, 7)))
	assert.True(t, core.IsNotFound(c.UpdateMetadata(7, map[string]any{"a": 1})))
}

func TestCortex_EmbedderErrorsPropagate(t *testing.T) {
	boom := errors.New("provider unavailable")
	calls := 0
	c, err := cortex.New(memory.EmbedderFunc(func(ctx context.Context, text string) ([]float32, error) {
		calls++
		return nil, boom
	}))
	require.NoError(t, err)

	_, err = c.Remember(context.Background(), "hello", nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls, "no retries")
	assert.Zero(t, c.Len())
}

func TestCortex_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	emb := &keywordEmbedder{vectors: map[string][]float32{
		"two":   {1, 0},
		"three": {1, 0, 0},
	}}
	c, err := cortex.New(emb)
	require.NoError(t, err)

	_, err = c.Remember(ctx, "two", nil)
	require.NoError(t, err)
	_, err = c.Remember(ctx, "three", nil)
	assert.True(t, core.IsValidation(err))
}

func TestCortex_BuildContextPrompt(t *testing.T) {
	ctx := context.Background()
	clk := newClock()
	emb := &keywordEmbedder{vectors: map[string][]float32{
		"I love jazz":           {1, 0, 0},
		"My sister is Ana":      {0, 1, 0},
		"I feel sad today":      {0, 0, 1},
		"what music do I like?": {1, 0.2, 0},
	}}
	c, err := cortex.New(emb,
		cortex.WithClock(clk.Now),
		cortex.WithToneInferrer(understanding.NewToneInferrer(understanding.DefaultLexicon())),
	)
	require.NoError(t, err)

	for _, s := range []string{"I love jazz", "My sister is Ana", "I feel sad today"} {
		_, err := c.Remember(ctx, s, nil)
		require.NoError(t, err)
		clk.Advance(time.Minute)
	}

	out, err := c.BuildContextPrompt(ctx, "what music do I like?", 1000)
	require.NoError(t, err)

	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Equal(t, "## Relevant memories", lines[0])
	assert.Equal(t, "- I love jazz", lines[1])
	assert.Equal(t, "- My sister is Ana", lines[2])
	assert.Contains(t, out, "## Tone")
	assert.Contains(t, out, "- last 3: valence +0.00, arousal +0.00 (3 samples)")

	// header plus the top bullet only
	small, err := c.BuildContextPrompt(ctx, "what music do I like?", 7)
	require.NoError(t, err)
	assert.Equal(t, "## Relevant memories\n- I love jazz", small)
}

func TestCortex_BuildContextPromptDefaultBudget(t *testing.T) {
	ctx := context.Background()
	cfg := cortex.DefaultConfig()
	cfg.TokenBudget = 3
	c, err := cortex.New(hash.New(16), cortex.WithConfig(cfg))
	require.NoError(t, err)

	_, err = c.Remember(ctx, "hello there", nil)
	require.NoError(t, err)

	out, err := c.BuildContextPrompt(ctx, "hello", 0)
	require.NoError(t, err)
	assert.Equal(t, "## Relevant memories", out)
}

func TestCortex_ProfileExtraction(t *testing.T) {
	ctx := context.Background()
	x, err := understanding.NewIdentityExtractor(understanding.DefaultIdentityMap())
	require.NoError(t, err)

	c, err := cortex.New(hash.New(64), cortex.WithProfileExtraction(x))
	require.NoError(t, err)

	for _, s := range []string{"My name is Alex.", "I'm from Austin.", "I enjoy jazz.", "I enjoy hiking."} {
		_, err := c.Remember(ctx, s, nil)
		require.NoError(t, err)
	}

	assert.Equal(t, "You're speaking with Alex from Austin who enjoys jazz, hiking.", c.ProfileSummary())
	assert.Equal(t, "Alex", c.Profile().Fields["name"])

	out, err := c.BuildContextPrompt(ctx, "jazz", 200)
	require.NoError(t, err)
	assert.Contains(t, out, "You're speaking with Alex from Austin who enjoys jazz, hiking.")
}

func TestCortex_ReinforceSimilarity(t *testing.T) {
	ctx := context.Background()
	cfg := cortex.DefaultConfig()
	cfg.ReinforceSimilarity = 0.99
	clk := newClock()
	emb := &keywordEmbedder{vectors: map[string][]float32{
		"coffee please":  {1, 0},
		"coffee, please": {1, 0.001},
		"tea":            {0, 1},
	}}
	c, err := cortex.New(emb, cortex.WithConfig(cfg), cortex.WithClock(clk.Now))
	require.NoError(t, err)

	first, err := c.Remember(ctx, "coffee please", map[string]any{"source": "first"})
	require.NoError(t, err)
	clk.Advance(time.Hour)
	again, err := c.Remember(ctx, "coffee, please", map[string]any{"topic": "second"})
	require.NoError(t, err)
	tea, err := c.Remember(ctx, "tea", nil)
	require.NoError(t, err)

	assert.Equal(t, first, again)
	assert.NotEqual(t, first, tea)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, clk.Now(), c.Entries()[0].LastReinforcedAt)
	assert.Equal(t, map[string]any{"source": "first", "topic": "second"}, c.Entries()[0].Metadata)
}

func TestCortex_ReinforceOnRecall(t *testing.T) {
	ctx := context.Background()
	cfg := cortex.DefaultConfig()
	cfg.ReinforceOnRecall = true
	clk := newClock()
	c, err := cortex.New(hash.New(16), cortex.WithConfig(cfg), cortex.WithClock(clk.Now))
	require.NoError(t, err)

	_, err = c.Remember(ctx, "jazz", nil)
	require.NoError(t, err)
	clk.Advance(24 * time.Hour)

	recalls, err := c.Query(ctx, "jazz", 1)
	require.NoError(t, err)
	require.Len(t, recalls, 1)
	assert.Less(t, recalls[0].Score, 1.0)

	assert.Equal(t, clk.Now(), c.Entries()[0].LastReinforcedAt)
}

func TestCortex_ReinforceAndEvict(t *testing.T) {
	ctx := context.Background()
	cfg := cortex.DefaultConfig()
	cfg.HalfLife = time.Hour
	clk := newClock()
	c, err := cortex.New(hash.New(16), cortex.WithConfig(cfg), cortex.WithClock(clk.Now))
	require.NoError(t, err)

	keep, err := c.Remember(ctx, "keep me", nil)
	require.NoError(t, err)
	_, err = c.Remember(ctx, "forget me", nil)
	require.NoError(t, err)

	clk.Advance(5 * time.Hour)
	require.NoError(t, c.Reinforce(keep))

	removed, err := c.Evict(ctx, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	require.Equal(t, 1, c.Len())
	assert.Equal(t, keep, c.Entries()[0].ID)
}

func TestCortex_EvictionFloor(t *testing.T) {
	ctx := context.Background()
	cfg := cortex.DefaultConfig()
	cfg.HalfLife = time.Hour
	cfg.EvictionFloor = 0.1
	clk := newClock()
	c, err := cortex.New(hash.New(16), cortex.WithConfig(cfg), cortex.WithClock(clk.Now))
	require.NoError(t, err)

	_, err = c.Remember(ctx, "old news", nil)
	require.NoError(t, err)
	clk.Advance(10 * time.Hour)
	_, err = c.Remember(ctx, "fresh news", nil)
	require.NoError(t, err)

	require.Equal(t, 1, c.Len())
	assert.Equal(t, "fresh news", c.Entries()[0].Text)
}

func TestCortex_Traverse(t *testing.T) {
	ctx := context.Background()
	emb := &keywordEmbedder{vectors: map[string][]float32{
		"a":     {1, 0},
		"b":     {0.9, 0.1},
		"c":     {0.5, 0.5},
		"d":     {0, 1},
		"start": {1, 0.01},
	}}
	c, err := cortex.New(emb)
	require.NoError(t, err)

	empty, err := c.Traverse(ctx, "start", 2, 0)
	require.NoError(t, err)
	for range empty {
		t.Fatal("empty store yields nothing")
	}

	for _, s := range []string{"a", "b", "c", "d"} {
		_, err := c.Remember(ctx, s, nil)
		require.NoError(t, err)
	}

	seq, err := c.Traverse(ctx, "start", 2, 0)
	require.NoError(t, err)
	var texts []string
	for e := range seq {
		texts = append(texts, e.Text)
	}
	assert.Equal(t, []string{"a", "b", "c"}, texts)

	_, err = c.Traverse(ctx, "start", -1, 0)
	assert.True(t, core.IsValidation(err))
}

func TestCortex_UpdateMetadataAndRemove(t *testing.T) {
	ctx := context.Background()
	c, err := cortex.New(hash.New(16))
	require.NoError(t, err)

	id, err := c.Remember(ctx, "note", map[string]any{"pinned": true})
	require.NoError(t, err)

	require.NoError(t, c.UpdateMetadata(id, map[string]any{"pinned": nil, "topic": "misc"}))
	assert.Equal(t, map[string]any{"topic": "misc"}, c.Entries()[0].Metadata)

	require.NoError(t, c.Remove(ctx, id))
	assert.Zero(t, c.Len())
}

func TestCortex_ConcurrentUse(t *testing.T) {
	ctx := context.Background()
	c, err := cortex.New(hash.New(32))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for w := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 25 {
				_, err := c.Remember(ctx, fmt.Sprintf("worker %d message %d", w, i), nil)
				assert.NoError(t, err)
				_, err = c.BuildContextPrompt(ctx, "message", 50)
				assert.NoError(t, err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 100, c.Len())
}

func TestCortex_TraverseFrom(t *testing.T) {
	ctx := context.Background()
	emb := &keywordEmbedder{vectors: map[string][]float32{
		"a": {1, 0},
		"b": {0.9, 0.1},
		"d": {0, 1},
	}}
	c, err := cortex.New(emb)
	require.NoError(t, err)

	var ids []uint64
	for _, s := range []string{"a", "b", "d"} {
		id, err := c.Remember(ctx, s, nil)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	seq, err := c.TraverseFrom(ids[1], 5, 0.5)
	require.NoError(t, err)
	var texts []string
	for e := range seq {
		texts = append(texts, e.Text)
	}
	assert.Equal(t, []string{"b", "a"}, texts, "d is below the threshold")

	_, err = c.TraverseFrom(99, 1, 0)
	assert.True(t, core.IsNotFound(err))
}

func TestCortex_ToneSummary(t *testing.T) {
	ctx := context.Background()
	tones := map[string]core.Tone{
		"great": {Valence: 0.5, Arousal: 0.5},
		"fine":  {Valence: 0, Arousal: 0},
		"meh":   {Valence: -0.1, Arousal: 0.3},
	}
	infer := cortex.ToneInferrerFunc(func(text string) core.Tone { return tones[text] })

	cfg := cortex.DefaultConfig()
	cfg.ToneWindows = []int{2, 0}
	c, err := cortex.New(hash.New(16), cortex.WithConfig(cfg), cortex.WithToneInferrer(infer))
	require.NoError(t, err)

	for _, s := range []string{"great", "fine", "meh"} {
		_, err := c.Remember(ctx, s, nil)
		require.NoError(t, err)
	}

	summary := c.ToneSummary()
	require.Len(t, summary, 2)
	assert.Equal(t, 2, summary[0].Samples)
	assert.InDelta(t, -0.05, summary[0].Valence, 1e-9)
	assert.InDelta(t, 0.15, summary[0].Arousal, 1e-9)
	assert.Equal(t, 3, summary[1].Samples)
	assert.InDelta(t, 0.4/3, summary[1].Valence, 1e-9)
}
