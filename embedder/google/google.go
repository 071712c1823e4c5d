// Package google embeds text with the Gemini embedding models.
package google

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	genaiopt "google.golang.org/api/option"

	"github.com/becomeliminal/cortica-go/core"
	"github.com/becomeliminal/cortica-go/embedder"
	"github.com/becomeliminal/cortica-go/memory"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "text-embedding-004"

type Embedder struct {
	options embedder.Options
	client  *genai.Client
}

var _ memory.Embedder = (*Embedder)(nil)

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	model := e.client.EmbeddingModel(e.options.Model)
	rsp, err := model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("google embed content: %w", err)
	}

	if rsp == nil || rsp.Embedding == nil || len(rsp.Embedding.Values) == 0 {
		return nil, errors.New("no response from Google")
	}

	return rsp.Embedding.Values, nil
}

// Close releases the underlying client.
func (e *Embedder) Close() error {
	return e.client.Close()
}

// NewEmbedder creates a Gemini embedder. An API key is required.
func NewEmbedder(ctx context.Context, opts ...embedder.Option) (*Embedder, error) {
	options := embedder.NewOptions(opts...)
	if options.ApiKey == "" {
		return nil, core.Configurationf("google.NewEmbedder", "api key is required")
	}
	if options.Model == "" {
		options.Model = DefaultModel
	}

	clientOpts := []genaiopt.ClientOption{genaiopt.WithAPIKey(options.ApiKey)}
	if options.BaseURL != "" {
		clientOpts = append(clientOpts, genaiopt.WithEndpoint(options.BaseURL))
	}

	client, err := genai.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	options.Logger.Debug("google embedder ready", "component", "embedder", "model", options.Model)

	return &Embedder{
		options: options,
		client:  client,
	}, nil
}
