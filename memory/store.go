package memory

import (
	"cmp"
	"context"
	"fmt"
	"iter"
	"maps"
	"slices"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/becomeliminal/cortica-go/core"
)

// Store holds the memory entries of one session and ranks them against
// query vectors with read-time decay.
//
// Decay is never applied as a background mutation: strength is recomputed
// from LastReinforcedAt whenever an entry is scored. Entries leave the store
// only through Remove or an explicit Evict call.
//
// Store is safe for concurrent use. Mutations take the write lock; Query,
// Get and each Traverse step take the read lock.
type Store struct {
	options   Options
	entries   map[uint64]*Entry
	dimension int
	nextID    uint64
	mtx       sync.RWMutex
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	options := NewOptions(opts...)

	return &Store{
		options: options,
		entries: map[uint64]*Entry{},
	}
}

// HalfLife returns the configured decay half-life.
func (s *Store) HalfLife() time.Duration {
	return s.options.HalfLife
}

// EvictionFloor returns the configured strength floor (0 when disabled).
func (s *Store) EvictionFloor() float64 {
	return s.options.EvictionFloor
}

// Len returns the number of live entries.
func (s *Store) Len() int {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return len(s.entries)
}

// Dimension returns the embedding dimension fixed by the first Add, or 0.
func (s *Store) Dimension() int {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.dimension
}

// Add stores a new entry and returns its id. Both timestamps are set to now.
// The first successful Add fixes the store's embedding dimension.
func (s *Store) Add(ctx context.Context, text string, embedding []float32, tone *core.Tone, metadata map[string]any, now time.Time) (uint64, error) {
	const op = "Store.Add"

	text = strings.TrimSpace(text)
	if text == "" {
		return 0, core.Validationf(op, "text must not be empty")
	}
	if len(embedding) == 0 {
		return 0, core.Validationf(op, "embedding must not be empty")
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if s.dimension != 0 && len(embedding) != s.dimension {
		return 0, core.Validationf(op, "embedding dimension %d, store dimension %d", len(embedding), s.dimension)
	}

	id := s.nextID + 1
	if err := s.options.Index.Insert(ctx, id, embedding); err != nil {
		return 0, fmt.Errorf("index insert: %w", err)
	}
	s.nextID = id

	if s.dimension == 0 {
		s.dimension = len(embedding)
	}

	entry := &Entry{
		ID:               id,
		Text:             text,
		Embedding:        append([]float32(nil), embedding...),
		CreatedAt:        now,
		LastReinforcedAt: now,
	}
	if tone != nil {
		t := tone.Clamp()
		entry.Tone = &t
	}
	if len(metadata) > 0 {
		entry.Metadata = maps.Clone(metadata)
	}

	s.entries[id] = entry

	s.options.Logger.Debug("stored memory", "component", "memory", "id", id, "entries", len(s.entries))
	return id, nil
}

// Get returns a copy of the entry with the given id.
func (s *Store) Get(id uint64) (Entry, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	e, ok := s.entries[id]
	if !ok {
		return Entry{}, core.NotFound("Store.Get", id)
	}
	return e.clone(), nil
}

// Entries returns a snapshot of every live entry in id order.
func (s *Store) Entries() []Entry {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, e.clone())
	}
	slices.SortFunc(out, func(a, b Entry) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}

// Score is the cosine similarity of entry to query weighted by the entry's
// decay at now. The result stays in [-1, 1].
func (s *Store) Score(entry Entry, query []float32, now time.Time) float64 {
	return CosineSimilarity(entry.Embedding, query) * entry.Strength(now, s.options.HalfLife)
}

// Query ranks every live entry against query and returns the top k.
//
// Results are ordered by descending score; equal scores put the more
// recently reinforced entry first, then the newer id. Query never mutates
// entries.
func (s *Store) Query(ctx context.Context, query []float32, k int, now time.Time) ([]Result, error) {
	const op = "Store.Query"

	if k < 1 {
		return nil, core.Validationf(op, "k must be >= 1, got %d", k)
	}

	s.mtx.RLock()
	defer s.mtx.RUnlock()

	if len(s.entries) == 0 {
		return []Result{}, nil
	}
	if len(query) != s.dimension {
		return nil, core.Validationf(op, "query dimension %d, store dimension %d", len(query), s.dimension)
	}

	sims, err := s.options.Index.Similarities(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("index similarities: %w", err)
	}

	results := make([]Result, 0, len(s.entries))
	for id, e := range s.entries {
		sim, ok := sims[id]
		if !ok {
			sim = CosineSimilarity(e.Embedding, query)
		}
		results = append(results, Result{
			Entry:      *e,
			Similarity: sim,
			Score:      sim * e.Strength(now, s.options.HalfLife),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.Entry.LastReinforcedAt.Equal(b.Entry.LastReinforcedAt) {
			return a.Entry.LastReinforcedAt.After(b.Entry.LastReinforcedAt)
		}
		return a.Entry.ID > b.Entry.ID
	})

	if len(results) > k {
		results = results[:k]
	}
	for i := range results {
		results[i].Entry = results[i].Entry.clone()
	}

	s.options.Logger.Debug("ranked memories", "component", "memory", "candidates", len(s.entries), "returned", len(results))
	return results, nil
}

// Reinforce resets the decay clock of id to now.
func (s *Store) Reinforce(id uint64, now time.Time) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return core.NotFound("Store.Reinforce", id)
	}
	e.LastReinforcedAt = now
	return nil
}

// UpdateMetadata merges patch into the metadata of id. A nil value deletes
// the key.
func (s *Store) UpdateMetadata(id uint64, patch map[string]any) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return core.NotFound("Store.UpdateMetadata", id)
	}

	for k, v := range patch {
		if v == nil {
			delete(e.Metadata, k)
			continue
		}
		if e.Metadata == nil {
			e.Metadata = make(map[string]any, len(patch))
		}
		e.Metadata[k] = v
	}
	return nil
}

// Remove deletes id permanently.
func (s *Store) Remove(ctx context.Context, id uint64) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.entries[id]; !ok {
		return core.NotFound("Store.Remove", id)
	}
	if err := s.options.Index.Delete(ctx, id); err != nil {
		return fmt.Errorf("index delete: %w", err)
	}
	delete(s.entries, id)
	return nil
}

// Evict removes every entry whose strength at now is below minStrength and
// returns how many were removed. It runs only when called.
func (s *Store) Evict(ctx context.Context, minStrength float64, now time.Time) (int, error) {
	const op = "Store.Evict"

	if minStrength < 0 || minStrength > 1 {
		return 0, core.Validationf(op, "min strength must be within [0, 1], got %g", minStrength)
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	var weak []uint64
	for id, e := range s.entries {
		if e.Strength(now, s.options.HalfLife) < minStrength {
			weak = append(weak, id)
		}
	}
	slices.Sort(weak)

	removed := 0
	for _, id := range weak {
		if err := s.options.Index.Delete(ctx, id); err != nil {
			return removed, fmt.Errorf("index delete %d: %w", id, err)
		}
		delete(s.entries, id)
		removed++
	}

	if removed > 0 {
		s.options.Logger.Info("evicted weak memories", "component", "memory", "count", removed, "min_strength", minStrength)
	}
	return removed, nil
}

// EvictBelowFloor applies Evict with the configured eviction floor. With no
// floor configured it removes nothing.
func (s *Store) EvictBelowFloor(ctx context.Context, now time.Time) (int, error) {
	if s.options.EvictionFloor == 0 {
		return 0, nil
	}
	return s.Evict(ctx, s.options.EvictionFloor, now)
}

// Traverse walks a chain of related entries starting at seedID.
//
// The seed is yielded first. Each further hop moves to the unvisited entry
// most similar to the current one, provided that similarity is strictly
// above threshold (ties go to the lower id). The walk makes at most depth
// hops and stops early when no entry clears the threshold.
//
// The returned sequence is lazy and single-use: each hop is computed under
// the read lock as it is requested, and ranging over the sequence a second
// time yields nothing. Call Traverse again to restart.
func (s *Store) Traverse(seedID uint64, depth int, threshold float64) (iter.Seq[Entry], error) {
	const op = "Store.Traverse"

	if depth < 0 {
		return nil, core.Validationf(op, "depth must be >= 0, got %d", depth)
	}
	if _, err := s.Get(seedID); err != nil {
		return nil, core.NotFound(op, seedID)
	}

	var used atomic.Bool
	return func(yield func(Entry) bool) {
		if !used.CompareAndSwap(false, true) {
			return
		}

		current, err := s.Get(seedID)
		if err != nil {
			return // removed after Traverse returned
		}
		visited := map[uint64]struct{}{seedID: {}}
		if !yield(current) {
			return
		}

		for hop := 0; hop < depth; hop++ {
			next, ok := s.nearestUnvisited(current.Embedding, visited, threshold)
			if !ok {
				return
			}
			visited[next.ID] = struct{}{}
			if !yield(next) {
				return
			}
			current = next
		}
	}, nil
}

func (s *Store) nearestUnvisited(from []float32, visited map[uint64]struct{}, threshold float64) (Entry, bool) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	var best *Entry
	bestSim := 0.0
	for id, e := range s.entries {
		if _, seen := visited[id]; seen {
			continue
		}
		sim := CosineSimilarity(from, e.Embedding)
		if sim <= threshold {
			continue
		}
		if best == nil || sim > bestSim || (sim == bestSim && id < best.ID) {
			best, bestSim = e, sim
		}
	}

	if best == nil {
		return Entry{}, false
	}
	return best.clone(), true
}
