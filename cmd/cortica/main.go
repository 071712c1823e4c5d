// Command cortica runs session memory as an interactive chat or a
// WebSocket server.
package main

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

// Globals are the flags shared by every command.
type Globals struct {
	Config   string `help:"Path to a YAML cortex config." env:"CORTICA_CONFIG"`
	LogLevel string `help:"Log level (debug, info, warn, error)." default:"info" env:"CORTICA_LOG_LEVEL"`

	// Embedding
	Embedder      string `help:"Embedding backend." enum:"hash,openai,google,onnx" default:"hash" env:"CORTICA_EMBEDDER"`
	EmbedModel    string `help:"Embedding model for remote backends (backend default when empty)."`
	EmbedURL      string `help:"Override the embedding API base URL."`
	Dimensions    int    `help:"Vector size of the hash embedder." default:"384"`
	OpenAIKey     string `help:"OpenAI API key." env:"OPENAI_API_KEY"`
	GoogleKey     string `help:"Google AI API key." env:"GOOGLE_API_KEY"`
	OnnxModel     string `help:"Path to the ONNX sentence model." default:"models/all-MiniLM-L6-v2/model.onnx"`
	OnnxTokenizer string `help:"Path to the model's tokenizer.json." default:"models/all-MiniLM-L6-v2/tokenizer.json"`
	CacheMB       int64  `help:"Embedding cache size in MiB (0 disables)." default:"64"`

	// Ranking and budgeting
	Index     string `help:"Similarity index." enum:"flat,chromem" default:"flat"`
	Tokenizer string `help:"Token counter for prompt budgets." enum:"whitespace,tiktoken" default:"whitespace"`
	Encoding  string `help:"tiktoken encoding." default:"cl100k_base"`
	Profile   bool   `help:"Extract user profile facts from remembered text." default:"true" negatable:""`

	// Text analysis
	Lexicon     string `help:"YAML tone lexicon replacing the built-in one."`
	IdentityMap string `help:"YAML identity trigger phrases replacing the built-in ones."`
}

var cli struct {
	Globals

	Chat  ChatCmd  `cmd:"" default:"1" help:"Chat with Claude, backed by session memory."`
	Serve ServeCmd `cmd:"" help:"Serve session memory over WebSocket."`
}

func main() {
	_ = godotenv.Load()

	kctx := kong.Parse(&cli,
		kong.Name("cortica"),
		kong.Description("Working memory for conversational agents."),
		kong.UsageOnError(),
	)

	logger, err := newLogger(cli.LogLevel)
	kctx.FatalIfErrorf(err)
	slog.SetDefault(logger)

	kctx.FatalIfErrorf(kctx.Run(&cli.Globals))
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}
