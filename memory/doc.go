// Package memory provides a local, in-memory vector store for session memory.
//
// The store keeps short utterances together with their embeddings and ranks
// them against a query vector. Ranking weighs cosine similarity by a
// time-decay factor computed at read time:
//
//	score = cosine(entry, query) * 0.5^(elapsed / halfLife)
//
// where elapsed is the time since the entry was last reinforced.
//
// Architecture:
//   - Store: entries, decay-aware ranking, reinforcement, eviction, traversal
//   - Index: similarity backend (flat in-process scan, or index/chromem)
//   - Embedder / Tokenizer: capability interfaces supplied by the caller
//
// Decay never deletes anything on its own. Weak memories sink in the ranking
// and are only removed by an explicit Remove or Evict.
//
// Embedders live under embedder/ (hash, cache, openai, google, onnx); the
// Cortex facade in package cortex wires an Embedder to a Store.
package memory
