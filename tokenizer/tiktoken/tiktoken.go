// Package tiktoken counts tokens with OpenAI's BPE encodings.
//
// The first use of an encoding downloads its ranks file unless a
// TIKTOKEN_CACHE_DIR with the file is present.
package tiktoken

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/becomeliminal/cortica-go/memory"
)

// DefaultEncoding is close enough to Claude's tokenizer for budgeting.
const DefaultEncoding = "cl100k_base"

// Tokenizer implements memory.Tokenizer.
type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

var _ memory.Tokenizer = (*Tokenizer)(nil)

// New loads the named encoding. An empty name uses DefaultEncoding.
func New(encoding string) (*Tokenizer, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("load encoding %s: %w", encoding, err)
	}
	return &Tokenizer{enc: enc}, nil
}

// ForModel loads the encoding registered for an OpenAI model name.
func ForModel(model string) (*Tokenizer, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		return nil, fmt.Errorf("encoding for model %s: %w", model, err)
	}
	return &Tokenizer{enc: enc}, nil
}

func (t *Tokenizer) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	return len(t.enc.Encode(text, nil, nil))
}
