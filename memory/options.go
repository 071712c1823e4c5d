package memory

import (
	"log/slog"
	"time"
)

// DefaultHalfLife is the decay half-life used when none is configured.
const DefaultHalfLife = 72 * time.Hour

type Option func(*Options)

type Options struct {
	// HalfLife is the time after which an unreinforced entry keeps half its
	// strength.
	HalfLife time.Duration

	// EvictionFloor is the strength below which EvictBelowFloor removes
	// entries. Zero disables floor eviction.
	EvictionFloor float64

	// Index computes query similarities. Defaults to a flat in-process index.
	Index Index

	Logger *slog.Logger
}

func WithHalfLife(d time.Duration) Option {
	return func(o *Options) {
		o.HalfLife = d
	}
}

func WithEvictionFloor(floor float64) Option {
	return func(o *Options) {
		o.EvictionFloor = floor
	}
}

func WithIndex(idx Index) Option {
	return func(o *Options) {
		o.Index = idx
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		HalfLife: DefaultHalfLife,
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.HalfLife <= 0 {
		options.HalfLife = DefaultHalfLife
	}
	if options.EvictionFloor < 0 {
		options.EvictionFloor = 0
	}
	if options.Index == nil {
		options.Index = NewFlatIndex()
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	return options
}
