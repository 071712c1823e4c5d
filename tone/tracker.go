// Package tone keeps the running emotional tone of a conversation.
package tone

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/becomeliminal/cortica-go/core"
)

// Sample is one recorded tone reading.
type Sample struct {
	Tone core.Tone `json:"tone"`
	At   time.Time `json:"at"`
}

// Window selects the most recent N samples. N < 1 means every sample.
type Window struct {
	N int
}

// Overall covers every recorded sample.
var Overall = Window{}

// Last covers the n most recent samples.
func Last(n int) Window {
	if n < 1 {
		return Overall
	}
	return Window{N: n}
}

func (w Window) String() string {
	if w.N < 1 {
		return "overall"
	}
	return fmt.Sprintf("last %d", w.N)
}

// WindowSummary is the mean tone over one window. A window with no samples
// reports a neutral tone and Samples == 0.
type WindowSummary struct {
	Window  Window  `json:"-"`
	Label   string  `json:"window"`
	Valence float64 `json:"valence"`
	Arousal float64 `json:"arousal"`
	Samples int     `json:"samples"`
}

// Tracker is an append-only log of tone samples. Tone does not decay.
type Tracker struct {
	samples []Sample
	mu      sync.RWMutex
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Record appends a sample. Axes are clamped to [-1, 1].
func (t *Tracker) Record(tone core.Tone, at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.samples = append(t.samples, Sample{Tone: tone.Clamp(), At: at})
}

// Len returns the number of recorded samples.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.samples)
}

// Samples returns a copy of every sample in arrival order.
func (t *Tracker) Samples() []Sample {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return slices.Clone(t.samples)
}

// Summary returns one summary per window, in the order given.
func (t *Tracker) Summary(windows ...Window) []WindowSummary {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]WindowSummary, 0, len(windows))
	for _, w := range windows {
		out = append(out, summarize(t.samples, w))
	}
	return out
}

func summarize(samples []Sample, w Window) WindowSummary {
	s := WindowSummary{Window: w, Label: w.String()}

	recent := samples
	if w.N >= 1 && len(recent) > w.N {
		recent = recent[len(recent)-w.N:]
	}
	if len(recent) == 0 {
		return s
	}

	for _, sample := range recent {
		s.Valence += sample.Tone.Valence
		s.Arousal += sample.Tone.Arousal
	}
	s.Samples = len(recent)
	s.Valence /= float64(s.Samples)
	s.Arousal /= float64(s.Samples)
	return s
}
