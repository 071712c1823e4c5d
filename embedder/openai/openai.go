// Package openai embeds text with the OpenAI embeddings API.
package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/becomeliminal/cortica-go/core"
	"github.com/becomeliminal/cortica-go/embedder"
	"github.com/becomeliminal/cortica-go/memory"
)

// DefaultModel is used when no model is configured.
const DefaultModel = string(openai.SmallEmbedding3)

type Embedder struct {
	options embedder.Options
	client  *openai.Client
}

var _ memory.Embedder = (*Embedder)(nil)

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	rsp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(e.options.Model),
	})
	if err != nil {
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}

	if len(rsp.Data) == 0 || len(rsp.Data[0].Embedding) == 0 {
		return nil, errors.New("no response from OpenAI")
	}

	return rsp.Data[0].Embedding, nil
}

// NewEmbedder creates an OpenAI embedder. An API key is required.
func NewEmbedder(opts ...embedder.Option) (*Embedder, error) {
	options := embedder.NewOptions(opts...)
	if options.ApiKey == "" {
		return nil, core.Configurationf("openai.NewEmbedder", "api key is required")
	}
	if options.Model == "" {
		options.Model = DefaultModel
	}

	cfg := openai.DefaultConfig(options.ApiKey)
	if options.BaseURL != "" {
		cfg.BaseURL = options.BaseURL
	}

	options.Logger.Debug("openai embedder ready", "component", "embedder", "model", options.Model)

	return &Embedder{
		options: options,
		client:  openai.NewClientWithConfig(cfg),
	}, nil
}
