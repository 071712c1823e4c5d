// Package embedder holds the options shared by the remote embedding
// providers in its subpackages.
package embedder

import "log/slog"

type Option func(*Options)

type Options struct {
	ApiKey  string
	Model   string
	BaseURL string
	Logger  *slog.Logger
}

func WithApiKey(apiKey string) Option {
	return func(o *Options) {
		o.ApiKey = apiKey
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// WithBaseURL points the client at a compatible endpoint (proxies, local
// gateways, tests).
func WithBaseURL(url string) Option {
	return func(o *Options) {
		o.BaseURL = url
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	return options
}
