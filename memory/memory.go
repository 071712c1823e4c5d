package memory

import (
	"context"
	"strings"
)

// Embedder converts text to a fixed-length vector.
// Implementations: hash (offline), cache (memoizing wrapper), openai, google, onnx.
//
// The store never calls an Embedder itself; the Cortex facade embeds text and
// hands the vector to Store.Add / Store.Query.
type Embedder interface {
	// Embed converts a single text to an embedding vector. Every call made
	// against one store must return the same dimension.
	Embed(ctx context.Context, text string) ([]float32, error)
}

// EmbedderFunc adapts a plain function to the Embedder interface.
type EmbedderFunc func(ctx context.Context, text string) ([]float32, error)

func (f EmbedderFunc) Embed(ctx context.Context, text string) ([]float32, error) {
	return f(ctx, text)
}

// Tokenizer estimates how many model tokens a piece of text costs.
type Tokenizer interface {
	CountTokens(text string) int
}

// TokenizerFunc adapts a plain function to the Tokenizer interface.
type TokenizerFunc func(text string) int

func (f TokenizerFunc) CountTokens(text string) int {
	return f(text)
}

// WhitespaceTokenizer counts whitespace-separated words. It is the fallback
// used whenever no tokenizer is configured.
var WhitespaceTokenizer = TokenizerFunc(func(text string) int {
	return len(strings.Fields(text))
})

// Index computes similarities between a query vector and every stored vector.
// Store keeps entries itself; an Index only mirrors id -> vector.
//
// Implementations: the built-in flat index (default) and index/chromem.
type Index interface {
	// Insert adds the vector for id.
	Insert(ctx context.Context, id uint64, vec []float32) error

	// Delete removes id. Deleting an unknown id is not an error.
	Delete(ctx context.Context, id uint64) error

	// Similarities returns the cosine similarity of query against every
	// indexed vector, keyed by id. Zero-magnitude vectors score 0. Ids
	// missing from the map are scored by the store itself.
	Similarities(ctx context.Context, query []float32) (map[uint64]float64, error)
}
