//go:build onnx

// Package onnx runs a local sentence-transformer (all-MiniLM-L6-v2 or a
// compatible BERT export) through ONNX Runtime.
//
// Build with -tags onnx; the ONNX Runtime shared library must be installed.
package onnx

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/becomeliminal/cortica-go/core"
	"github.com/becomeliminal/cortica-go/memory"
)

const (
	defaultDimensions = 384
	maxSequenceLength = 128
)

// Config configures the ONNX embedder.
type Config struct {
	// ModelPath is the path to the ONNX model file.
	ModelPath string

	// TokenizerPath is the path to the tokenizer.json file.
	TokenizerPath string

	// SharedLibraryPath locates libonnxruntime. Empty uses the runtime's
	// platform default lookup.
	SharedLibraryPath string

	// Dimensions is the embedding vector size (default: 384).
	Dimensions int

	Logger *slog.Logger
}

// Embedder generates embeddings using ONNX Runtime.
type Embedder struct {
	session    *ort.DynamicAdvancedSession
	tokenizer  *wordPiece
	dimensions int
	logger     *slog.Logger

	// sessions are not safe for concurrent Run calls
	mu sync.Mutex
}

var _ memory.Embedder = (*Embedder)(nil)

var initOnce sync.Once
var initErr error

// New loads the model and tokenizer.
func New(cfg Config) (*Embedder, error) {
	const op = "onnx.New"

	if cfg.ModelPath == "" {
		return nil, core.Configurationf(op, "model path is required")
	}
	if cfg.TokenizerPath == "" {
		return nil, core.Configurationf(op, "tokenizer path is required")
	}
	if cfg.Dimensions <= 0 {
		cfg.Dimensions = defaultDimensions
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	logger := cfg.Logger.With("component", "onnx")

	initOnce.Do(func() {
		if cfg.SharedLibraryPath != "" {
			ort.SetSharedLibraryPath(cfg.SharedLibraryPath)
		}
		initErr = ort.InitializeEnvironment()
	})
	if initErr != nil {
		return nil, fmt.Errorf("initialize onnx runtime: %w", initErr)
	}

	tokenizer, err := loadWordPiece(cfg.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	logger.Info("loaded model", "path", cfg.ModelPath, "dimensions", cfg.Dimensions, "vocab", len(tokenizer.vocab))

	return &Embedder{
		session:    session,
		tokenizer:  tokenizer,
		dimensions: cfg.Dimensions,
		logger:     logger,
	}, nil
}

// Embed runs the model and mean-pools the token states into one unit vector.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	inputIDs, attentionMask, tokenTypeIDs := e.tokenizer.encode(text, maxSequenceLength)

	shape := ort.NewShape(1, int64(maxSequenceLength))
	var inputs []ort.Value
	for _, data := range [][]int64{inputIDs, attentionMask, tokenTypeIDs} {
		tensor, err := ort.NewTensor(shape, data)
		if err != nil {
			return nil, fmt.Errorf("create input tensor: %w", err)
		}
		defer tensor.Destroy()
		inputs = append(inputs, tensor)
	}

	outputs := []ort.Value{nil}
	e.mu.Lock()
	err := e.session.Run(inputs, outputs)
	e.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("onnx inference: %w", err)
	}
	defer func() {
		for _, out := range outputs {
			if out != nil {
				out.Destroy()
			}
		}
	}()

	tensor, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output tensor type %T", outputs[0])
	}

	embedding, err := pool(tensor.GetData(), tensor.GetShape(), attentionMask, e.dimensions)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("embedded text", "tokens", countAttended(attentionMask))
	return memory.Normalize(embedding), nil
}

// Dimensions returns the embedding vector size.
func (e *Embedder) Dimensions() int {
	return e.dimensions
}

// Close releases ONNX resources.
func (e *Embedder) Close() error {
	if e.session != nil {
		return e.session.Destroy()
	}
	return nil
}

// pool reduces model output to one vector. Output shaped [1, dim] is already
// pooled; [1, seq, dim] is mean-pooled over attended tokens.
func pool(data []float32, shape ort.Shape, mask []int64, dim int) ([]float32, error) {
	switch len(shape) {
	case 2:
		if len(data) < dim {
			return nil, fmt.Errorf("output dimension %d, expected %d", len(data), dim)
		}
		return append([]float32(nil), data[:dim]...), nil

	case 3:
		if shape[0] != 1 {
			return nil, fmt.Errorf("expected batch size 1, got %d", shape[0])
		}
		if shape[2] != int64(dim) {
			return nil, fmt.Errorf("hidden size %d, expected %d", shape[2], dim)
		}

		out := make([]float32, dim)
		attended := 0
		for i := 0; i < int(shape[1]) && i < len(mask); i++ {
			if mask[i] == 0 {
				continue
			}
			attended++
			row := data[i*dim : (i+1)*dim]
			for j, v := range row {
				out[j] += v
			}
		}
		if attended == 0 {
			return out, nil
		}
		for j := range out {
			out[j] /= float32(attended)
		}
		return out, nil
	}
	return nil, fmt.Errorf("unexpected output shape %v", shape)
}

func countAttended(mask []int64) int {
	n := 0
	for _, m := range mask {
		n += int(m)
	}
	return n
}
