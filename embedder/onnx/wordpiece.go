//go:build onnx

package onnx

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// BERT special token ids for uncased vocabularies.
const (
	unkToken = 100
	clsToken = 101
	sepToken = 102
)

// wordPiece is a minimal greedy longest-prefix WordPiece tokenizer over a
// HuggingFace tokenizer.json vocabulary.
type wordPiece struct {
	vocab map[string]int
}

func loadWordPiece(path string) (*wordPiece, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file struct {
		Model struct {
			Vocab map[string]int `json:"vocab"`
		} `json:"model"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(file.Model.Vocab) == 0 {
		return nil, fmt.Errorf("%s has no vocabulary", path)
	}

	return &wordPiece{vocab: file.Model.Vocab}, nil
}

// encode returns input ids, attention mask and token type ids padded to
// maxLen, with [CLS] and [SEP] around the truncated token sequence.
func (w *wordPiece) encode(text string, maxLen int) (ids, mask, types []int64) {
	tokens := w.tokenize(text)
	if len(tokens) > maxLen-2 {
		tokens = tokens[:maxLen-2]
	}

	ids = make([]int64, maxLen)
	mask = make([]int64, maxLen)
	types = make([]int64, maxLen)

	ids[0], mask[0] = clsToken, 1
	for i, tok := range tokens {
		ids[i+1], mask[i+1] = tok, 1
	}
	end := len(tokens) + 1
	ids[end], mask[end] = sepToken, 1

	return ids, mask, types
}

func (w *wordPiece) tokenize(text string) []int64 {
	var out []int64
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,!?;:\"'")
		if word == "" {
			continue
		}
		if id, ok := w.vocab[word]; ok {
			out = append(out, int64(id))
			continue
		}
		for _, piece := range w.split(word) {
			if id, ok := w.vocab[piece]; ok {
				out = append(out, int64(id))
			} else {
				out = append(out, unkToken)
			}
		}
	}
	return out
}

// split breaks word into the longest vocabulary pieces, prefixing
// continuations with "##". A word with any unmatched remainder becomes a
// single [UNK].
func (w *wordPiece) split(word string) []string {
	var pieces []string
	for start := 0; start < len(word); {
		end := len(word)
		for ; end > start; end-- {
			piece := word[start:end]
			if start > 0 {
				piece = "##" + piece
			}
			if _, ok := w.vocab[piece]; ok {
				pieces = append(pieces, piece)
				break
			}
		}
		if end == start {
			return []string{"[UNK]"}
		}
		start = end
	}
	return pieces
}
