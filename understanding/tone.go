// Package understanding extracts lightweight structure from user messages:
// a lexicon-based tone estimate and identity facts for the user profile.
// No model calls are involved.
package understanding

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/becomeliminal/cortica-go/core"
)

//go:embed lexicon.yaml
var defaultLexicon []byte

// Lexicon lists the words that push each tone axis.
type Lexicon struct {
	Valence struct {
		Positive []string `yaml:"positive"`
		Negative []string `yaml:"negative"`
	} `yaml:"valence"`
	Arousal struct {
		High []string `yaml:"high"`
		Low  []string `yaml:"low"`
	} `yaml:"arousal"`
}

// ParseLexicon decodes a YAML lexicon.
func ParseLexicon(data []byte) (Lexicon, error) {
	var lex Lexicon
	if err := yaml.Unmarshal(data, &lex); err != nil {
		return Lexicon{}, core.Validationf("understanding.ParseLexicon", "decode lexicon: %v", err)
	}
	return lex, nil
}

// LoadLexicon reads a YAML lexicon from path.
func LoadLexicon(path string) (Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Lexicon{}, fmt.Errorf("read lexicon: %w", err)
	}
	return ParseLexicon(data)
}

// DefaultLexicon returns the built-in English lexicon.
func DefaultLexicon() Lexicon {
	lex, err := ParseLexicon(defaultLexicon)
	if err != nil {
		panic(err)
	}
	return lex
}

// ToneInferrer scores text by counting lexicon hits.
type ToneInferrer struct {
	positive, negative wordSet
	high, low          wordSet
}

func NewToneInferrer(lex Lexicon) *ToneInferrer {
	return &ToneInferrer{
		positive: newWordSet(lex.Valence.Positive),
		negative: newWordSet(lex.Valence.Negative),
		high:     newWordSet(lex.Arousal.High),
		low:      newWordSet(lex.Arousal.Low),
	}
}

// Infer returns (pos-neg)/(pos+neg) per axis, rounded to three decimals.
// An axis with no hits is 0.
func (t *ToneInferrer) Infer(text string) core.Tone {
	var pos, neg, high, low int
	for _, w := range words(text) {
		if t.positive.has(w) {
			pos++
		}
		if t.negative.has(w) {
			neg++
		}
		if t.high.has(w) {
			high++
		}
		if t.low.has(w) {
			low++
		}
	}
	return core.Tone{Valence: balance(pos, neg), Arousal: balance(high, low)}
}

func balance(pos, neg int) float64 {
	total := pos + neg
	if total == 0 {
		return 0
	}
	return math.Round(float64(pos-neg)/float64(total)*1000) / 1000
}

type wordSet map[string]struct{}

func newWordSet(list []string) wordSet {
	s := make(wordSet, len(list))
	for _, w := range list {
		s[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	return s
}

func (s wordSet) has(w string) bool {
	_, ok := s[w]
	return ok
}

// words splits lowercase text on anything that is not a letter, digit,
// underscore or apostrophe.
func words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '_' && r != '\''
	})
}
