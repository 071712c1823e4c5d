package cortex

import (
	"log/slog"
	"time"

	"github.com/becomeliminal/cortica-go/core"
	"github.com/becomeliminal/cortica-go/memory"
	"github.com/becomeliminal/cortica-go/understanding"
)

// ToneInferrer estimates the tone of a message.
type ToneInferrer interface {
	Infer(text string) core.Tone
}

// ToneInferrerFunc adapts a plain function to ToneInferrer.
type ToneInferrerFunc func(text string) core.Tone

func (f ToneInferrerFunc) Infer(text string) core.Tone {
	return f(text)
}

type Option func(*Options)

type Options struct {
	Config       Config
	ToneInferrer ToneInferrer
	Tokenizer    memory.Tokenizer
	Index        memory.Index
	Identity     *understanding.IdentityExtractor
	Clock        func() time.Time
	Logger       *slog.Logger
}

func WithConfig(cfg Config) Option {
	return func(o *Options) {
		o.Config = cfg
	}
}

// WithToneInferrer records a tone sample for every remembered message.
func WithToneInferrer(t ToneInferrer) Option {
	return func(o *Options) {
		o.ToneInferrer = t
	}
}

// WithTokenizer sets the tokenizer used to budget context prompts.
func WithTokenizer(t memory.Tokenizer) Option {
	return func(o *Options) {
		o.Tokenizer = t
	}
}

// WithIndex replaces the default flat similarity index.
func WithIndex(idx memory.Index) Option {
	return func(o *Options) {
		o.Index = idx
	}
}

// WithProfileExtraction feeds identity facts found in remembered messages
// into the user profile.
func WithProfileExtraction(x *understanding.IdentityExtractor) Option {
	return func(o *Options) {
		o.Identity = x
	}
}

func WithClock(clock func() time.Time) Option {
	return func(o *Options) {
		o.Clock = clock
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

func NewOptions(opts ...Option) Options {
	options := Options{
		Config: DefaultConfig(),
	}
	for _, opt := range opts {
		opt(&options)
	}
	if options.Tokenizer == nil {
		options.Tokenizer = memory.WhitespaceTokenizer
	}
	if options.Clock == nil {
		options.Clock = time.Now
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}
	return options
}
