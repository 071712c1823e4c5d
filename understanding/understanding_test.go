package understanding_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/becomeliminal/cortica-go/core"
	"github.com/becomeliminal/cortica-go/understanding"
)

func TestToneInferrer_Default(t *testing.T) {
	inf := understanding.NewToneInferrer(understanding.DefaultLexicon())

	tests := []struct {
		name string
		text string
		want core.Tone
	}{
		{"no hits", "The meeting is on Tuesday.", core.Tone{}},
		{"positive excited", "I'm so excited, this is amazing!", core.Tone{Valence: 1, Arousal: 1}},
		{"negative calm", "I feel sad and tired.", core.Tone{Valence: -1, Arousal: -1}},
		{"mixed", "I love it but I hate the noise, I'm sad", core.Tone{Valence: -0.333, Arousal: 0.333}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := inf.Infer(tt.text)
			assert.InDelta(t, tt.want.Valence, got.Valence, 1e-9)
			assert.InDelta(t, tt.want.Arousal, got.Arousal, 1e-9)
		})
	}
}

func TestToneInferrer_CustomLexicon(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
valence:
  positive: [Sunny]
  negative: [gloomy]
arousal:
  high: [storm]
  low: [drizzle]
`), 0o600))

	lex, err := understanding.LoadLexicon(path)
	require.NoError(t, err)

	got := understanding.NewToneInferrer(lex).Infer("sunny sunny gloomy drizzle")
	assert.InDelta(t, 0.333, got.Valence, 1e-9)
	assert.InDelta(t, -1.0, got.Arousal, 1e-9)
}

func TestParseLexicon_Invalid(t *testing.T) {
	_, err := understanding.ParseLexicon([]byte("valence: [unclosed"))
	assert.True(t, core.IsValidation(err))
}

func TestIdentityExtractor_Default(t *testing.T) {
	x, err := understanding.NewIdentityExtractor(understanding.DefaultIdentityMap())
	require.NoError(t, err)

	got := x.Extract("Hi! My name is Alex. I'm from Austin and I work as an ICU nurse.")
	assert.Equal(t, map[string]string{
		"name":       "Alex",
		"location":   "Austin and I work as an ICU nurse",
		"occupation": "ICU nurse",
	}, got)
}

func TestIdentityExtractor_Interests(t *testing.T) {
	x, err := understanding.NewIdentityExtractor(understanding.DefaultIdentityMap())
	require.NoError(t, err)

	assert.Equal(t, map[string]string{"interests": "jazz"}, x.Extract("I enjoy jazz!"))
	assert.Equal(t, map[string]string{"interests": "long walks"}, x.Extract("honestly i love long walks"))
}

func TestIdentityExtractor_NoMatch(t *testing.T) {
	x, err := understanding.NewIdentityExtractor(understanding.DefaultIdentityMap())
	require.NoError(t, err)

	assert.Empty(t, x.Extract("What is the weather like tomorrow?"))
	assert.Empty(t, x.Extract("my name is."), "empty values are ignored")
}

func TestIdentityExtractor_WordBoundary(t *testing.T) {
	x, err := understanding.NewIdentityExtractor(understanding.IdentityMap{
		"location": {"i live in"},
	})
	require.NoError(t, err)

	assert.Empty(t, x.Extract("Kiwi live in New Zealand"))
	assert.Equal(t, map[string]string{"location": "Lisbon"}, x.Extract("I live in Lisbon."))
}

func TestLoadIdentityMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "identity.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name:
  - they call me
pet:
  - my dog is
`), 0o600))

	m, err := understanding.LoadIdentityMap(path)
	require.NoError(t, err)
	assert.Equal(t, understanding.IdentityMap{
		"name": {"they call me"},
		"pet":  {"my dog is"},
	}, m)

	x, err := understanding.NewIdentityExtractor(m)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "Robin", "pet": "Biscuit"},
		x.Extract("They call me Robin. My dog is Biscuit!"))

	_, err = understanding.LoadIdentityMap(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("name: [unclosed"), 0o600))
	_, err = understanding.LoadIdentityMap(bad)
	assert.True(t, core.IsValidation(err))
}
