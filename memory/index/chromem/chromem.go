// Package chromem implements memory.Index on top of chromem-go, a pure Go
// embedded vector database.
package chromem

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	chromem "github.com/philippgille/chromem-go"
	"github.com/google/uuid"

	"github.com/becomeliminal/cortica-go/memory"
)

// Index keeps one chromem collection per store.
//
// chromem normalizes every document it stores, which is undefined for the
// zero vector. Zero-magnitude vectors are therefore tracked locally and
// always score 0.
type Index struct {
	db     *chromem.DB
	col    *chromem.Collection
	zeros  map[uint64]struct{}
	logger *slog.Logger
	mu     sync.RWMutex
}

var _ memory.Index = (*Index)(nil)

// New creates an index backed by a fresh in-memory chromem database.
func New(logger *slog.Logger) (*Index, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db := chromem.NewDB()
	name := "memories_" + uuid.NewString()

	col, err := db.CreateCollection(
		name,
		nil, // embeddings are always supplied by the caller
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}

	return &Index{
		db:     db,
		col:    col,
		zeros:  map[uint64]struct{}{},
		logger: logger.With("component", "chromem"),
	}, nil
}

func docID(id uint64) string {
	return strconv.FormatUint(id, 10)
}

// Insert stores vec under id.
func (x *Index) Insert(ctx context.Context, id uint64, vec []float32) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if memory.Magnitude(vec) == 0 {
		x.zeros[id] = struct{}{}
		return nil
	}

	doc := chromem.Document{
		ID:        docID(id),
		Content:   docID(id),
		Embedding: append([]float32(nil), vec...),
	}
	if err := x.col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("add document: %w", err)
	}
	return nil
}

// Delete drops id from the collection.
func (x *Index) Delete(ctx context.Context, id uint64) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if _, ok := x.zeros[id]; ok {
		delete(x.zeros, id)
		return nil
	}
	if err := x.col.Delete(ctx, nil, nil, docID(id)); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

// Similarities returns the cosine similarity of query to every stored vector.
func (x *Index) Similarities(ctx context.Context, query []float32) (map[uint64]float64, error) {
	x.mu.RLock()
	defer x.mu.RUnlock()

	n := x.col.Count()
	out := make(map[uint64]float64, n+len(x.zeros))
	for id := range x.zeros {
		out[id] = 0
	}
	if n == 0 {
		return out, nil
	}

	// A zero query is orthogonal to everything; ids missing from the result
	// are scored locally by the store.
	if memory.Magnitude(query) == 0 {
		return out, nil
	}

	// chromem-go requires 0 < nResults <= collection size
	results, err := x.col.QueryEmbedding(ctx, query, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	for _, r := range results {
		id, err := strconv.ParseUint(r.ID, 10, 64)
		if err != nil {
			x.logger.Warn("skipping foreign document", "id", r.ID, "error", err)
			continue
		}
		out[id] = clamp(float64(r.Similarity))
	}

	x.logger.Debug("queried collection", "documents", n, "results", len(results))
	return out, nil
}

func clamp(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	}
	return v
}
