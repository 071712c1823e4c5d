package memory

import (
	"maps"
	"time"

	"github.com/becomeliminal/cortica-go/core"
)

// Entry is one stored utterance.
//
// Entries returned by Store are copies. The only mutations a stored entry
// ever sees are reinforcement (LastReinforcedAt), metadata updates and removal.
type Entry struct {
	ID               uint64         `json:"id"`
	Text             string         `json:"text"`
	Embedding        []float32      `json:"embedding"`
	CreatedAt        time.Time      `json:"created_at"`
	LastReinforcedAt time.Time      `json:"last_reinforced_at"`
	Tone             *core.Tone     `json:"tone,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// Strength is the decayed strength of the entry at now, in (0, 1].
// It is derived from LastReinforcedAt on every call and never stored.
func (e Entry) Strength(now time.Time, halfLife time.Duration) float64 {
	return DecayWeight(now.Sub(e.LastReinforcedAt), halfLife)
}

// Age returns how long ago the entry was created. Reinforcement does not
// change it.
func (e Entry) Age(now time.Time) time.Duration {
	if d := now.Sub(e.CreatedAt); d > 0 {
		return d
	}
	return 0
}

// GetMetadata retrieves a metadata value by key.
func (e Entry) GetMetadata(key string) (any, bool) {
	if e.Metadata == nil {
		return nil, false
	}
	v, ok := e.Metadata[key]
	return v, ok
}

// clone returns a copy that shares no mutable state with e.
// Metadata values are copied shallowly.
func (e Entry) clone() Entry {
	c := e
	c.Embedding = append([]float32(nil), e.Embedding...)
	if e.Tone != nil {
		t := *e.Tone
		c.Tone = &t
	}
	if e.Metadata != nil {
		c.Metadata = maps.Clone(e.Metadata)
	}
	return c
}

// Result is one ranked query hit.
type Result struct {
	Entry Entry `json:"entry"`

	// Score is Similarity weighted by the entry's decay at query time, in [-1, 1].
	Score float64 `json:"score"`

	// Similarity is the raw cosine similarity to the query, in [-1, 1].
	Similarity float64 `json:"similarity"`
}
