// Package hash provides a deterministic, offline embedder.
//
// Every word of the input is hashed into a pseudo-random unit direction and
// the directions are summed, so texts sharing words land near each other.
// It has no notion of meaning beyond word overlap; use it for tests, demos and
// air-gapped sessions.
package hash

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/becomeliminal/cortica-go/memory"
)

// DefaultDimensions matches all-MiniLM-L6-v2 so stores can switch embedders
// without changing dimension.
const DefaultDimensions = 384

// Embedder generates deterministic embeddings from word hashes.
type Embedder struct {
	dimensions int
}

var _ memory.Embedder = (*Embedder)(nil)

// New creates a hash embedder. A non-positive dimension uses DefaultDimensions.
func New(dimensions int) *Embedder {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &Embedder{dimensions: dimensions}
}

// Embed returns a unit vector for text. Identical texts always produce
// identical vectors.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	if len(words) == 0 {
		words = []string{text}
	}

	embedding := make([]float32, e.dimensions)
	for _, w := range words {
		e.accumulate(embedding, w)
	}

	return memory.Normalize(embedding), nil
}

// Dimensions returns the embedding size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

func (e *Embedder) accumulate(dst []float32, word string) {
	h := fnv.New64a()
	h.Write([]byte(word))
	seed := h.Sum64()

	for i := range dst {
		// LCG step, mapped to [-1, 1]
		seed = seed*6364136223846793005 + 1442695040888963407
		dst[i] += float32(int64(seed)) / float32(math.MaxInt64)
	}
}
