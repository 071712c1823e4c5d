package core

import "fmt"

// Tone is an affective reading of a message on two axes.
// Valence runs from negative (-1) to positive (+1); arousal from calm (-1)
// to excited (+1).
type Tone struct {
	Valence float64 `json:"valence" yaml:"valence"`
	Arousal float64 `json:"arousal" yaml:"arousal"`
}

// Clamp returns t with both axes limited to [-1, 1].
func (t Tone) Clamp() Tone {
	return Tone{Valence: clampUnit(t.Valence), Arousal: clampUnit(t.Arousal)}
}

func (t Tone) String() string {
	return fmt.Sprintf("valence %+.2f, arousal %+.2f", t.Valence, t.Arousal)
}

func clampUnit(v float64) float64 {
	switch {
	case v < -1:
		return -1
	case v > 1:
		return 1
	}
	return v
}
