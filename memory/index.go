package memory

import (
	"context"
	"sync"
)

// flatIndex is the default Index: a map of vectors scanned on every query.
// Adequate for the tens-to-thousands of entries a session holds.
type flatIndex struct {
	vectors map[uint64][]float32
	mtx     sync.RWMutex
}

// NewFlatIndex returns an in-process brute-force Index.
func NewFlatIndex() Index {
	return &flatIndex{
		vectors: map[uint64][]float32{},
	}
}

func (f *flatIndex) Insert(ctx context.Context, id uint64, vec []float32) error {
	f.mtx.Lock()
	defer f.mtx.Unlock()

	f.vectors[id] = append([]float32(nil), vec...)
	return nil
}

func (f *flatIndex) Delete(ctx context.Context, id uint64) error {
	f.mtx.Lock()
	defer f.mtx.Unlock()

	delete(f.vectors, id)
	return nil
}

func (f *flatIndex) Similarities(ctx context.Context, query []float32) (map[uint64]float64, error) {
	f.mtx.RLock()
	defer f.mtx.RUnlock()

	out := make(map[uint64]float64, len(f.vectors))
	for id, vec := range f.vectors {
		out[id] = CosineSimilarity(vec, query)
	}
	return out, nil
}
