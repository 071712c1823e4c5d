package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsSentinel(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"validation", Validationf("Store.Add", "empty text"), ErrValidation},
		{"configuration", Configurationf("cortex.New", "no embedder"), ErrConfiguration},
		{"not found", NotFound("Store.Get", 7), ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.want)

			wrapped := fmt.Errorf("outer: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.want)
		})
	}
}

func TestError_KindsDoNotCrossMatch(t *testing.T) {
	err := NotFound("Store.Remove", 3)

	assert.False(t, errors.Is(err, ErrValidation))
	assert.False(t, IsConfiguration(err))
	assert.True(t, IsNotFound(err))
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.Equal(t, "", KindOf(errors.New("plain")))
}

func TestError_MatchesByKindAndOp(t *testing.T) {
	err := Validationf("Store.Query", "k must be >= 1")

	assert.ErrorIs(t, err, &Error{Kind: KindValidation})
	assert.ErrorIs(t, err, &Error{Op: "Store.Query", Kind: KindValidation})
	assert.NotErrorIs(t, err, &Error{Op: "Store.Add", Kind: KindValidation})
}

func TestError_Message(t *testing.T) {
	err := NotFound("Store.Get", 42)
	assert.Equal(t, "Store.Get (not_found): memory 42", err.Error())

	bare := &Error{Op: "Cortex.Remember", Kind: KindConfiguration}
	assert.Equal(t, "Cortex.Remember: configuration", bare.Error())
}

func TestTone_Clamp(t *testing.T) {
	got := Tone{Valence: 1.7, Arousal: -3}.Clamp()
	assert.Equal(t, Tone{Valence: 1, Arousal: -1}, got)

	inRange := Tone{Valence: 0.25, Arousal: -0.5}
	assert.Equal(t, inRange, inRange.Clamp())
}
