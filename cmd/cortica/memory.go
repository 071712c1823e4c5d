package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/becomeliminal/cortica-go/cortex"
	"github.com/becomeliminal/cortica-go/embedder"
	"github.com/becomeliminal/cortica-go/embedder/cache"
	"github.com/becomeliminal/cortica-go/embedder/google"
	"github.com/becomeliminal/cortica-go/embedder/hash"
	"github.com/becomeliminal/cortica-go/embedder/openai"
	"github.com/becomeliminal/cortica-go/memory"
	"github.com/becomeliminal/cortica-go/memory/index/chromem"
	"github.com/becomeliminal/cortica-go/tokenizer/tiktoken"
	"github.com/becomeliminal/cortica-go/understanding"
)

// deps holds what every session shares: one embedder (and its cache), the
// tokenizer and the text analysers.
type deps struct {
	globals  *Globals
	config   cortex.Config
	embedder memory.Embedder
	options  []cortex.Option
	logger   *slog.Logger
	closers  []func()
}

func newDeps(ctx context.Context, g *Globals, logger *slog.Logger) (*deps, error) {
	d := &deps{globals: g, config: cortex.DefaultConfig(), logger: logger}

	if g.Config != "" {
		cfg, err := cortex.LoadConfig(g.Config)
		if err != nil {
			return nil, err
		}
		d.config = cfg
	}

	emb, err := d.newEmbedder(ctx)
	if err != nil {
		d.Close()
		return nil, err
	}
	if g.CacheMB > 0 {
		cached, err := cache.New(emb, cache.Config{MaxBytes: g.CacheMB << 20, Logger: logger})
		if err != nil {
			d.Close()
			return nil, err
		}
		d.closers = append(d.closers, cached.Close)
		emb = cached
	}
	d.embedder = emb

	lexicon := understanding.DefaultLexicon()
	if g.Lexicon != "" {
		if lexicon, err = understanding.LoadLexicon(g.Lexicon); err != nil {
			d.Close()
			return nil, err
		}
	}

	d.options = []cortex.Option{
		cortex.WithConfig(d.config),
		cortex.WithToneInferrer(understanding.NewToneInferrer(lexicon)),
		cortex.WithLogger(logger),
	}

	if g.Tokenizer == "tiktoken" {
		tok, err := tiktoken.New(g.Encoding)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.options = append(d.options, cortex.WithTokenizer(tok))
	}

	if g.Profile {
		identity := understanding.DefaultIdentityMap()
		if g.IdentityMap != "" {
			if identity, err = understanding.LoadIdentityMap(g.IdentityMap); err != nil {
				d.Close()
				return nil, err
			}
		}
		x, err := understanding.NewIdentityExtractor(identity)
		if err != nil {
			d.Close()
			return nil, err
		}
		d.options = append(d.options, cortex.WithProfileExtraction(x))
	}

	logger.Info("memory configured",
		"embedder", g.Embedder,
		"index", g.Index,
		"tokenizer", g.Tokenizer,
		"half_life", d.config.HalfLife,
	)
	return d, nil
}

func (d *deps) newEmbedder(ctx context.Context) (memory.Embedder, error) {
	g := d.globals
	opts := []embedder.Option{
		embedder.WithModel(g.EmbedModel),
		embedder.WithBaseURL(g.EmbedURL),
		embedder.WithLogger(d.logger),
	}

	switch g.Embedder {
	case "hash":
		return hash.New(g.Dimensions), nil
	case "openai":
		return openai.NewEmbedder(append(opts, embedder.WithApiKey(g.OpenAIKey))...)
	case "google":
		emb, err := google.NewEmbedder(ctx, append(opts, embedder.WithApiKey(g.GoogleKey))...)
		if err != nil {
			return nil, err
		}
		d.closers = append(d.closers, func() { emb.Close() })
		return emb, nil
	case "onnx":
		return d.newOnnxEmbedder()
	}
	return nil, fmt.Errorf("unknown embedder %q", g.Embedder)
}

// NewCortex builds the memory for one session.
func (d *deps) NewCortex() (*cortex.Cortex, error) {
	opts := d.options
	if d.globals.Index == "chromem" {
		idx, err := chromem.New(d.logger)
		if err != nil {
			return nil, err
		}
		opts = append(append([]cortex.Option(nil), opts...), cortex.WithIndex(idx))
	}
	return cortex.New(d.embedder, opts...)
}

func (d *deps) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		d.closers[i]()
	}
}
