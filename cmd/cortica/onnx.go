//go:build onnx

package main

import (
	"github.com/becomeliminal/cortica-go/embedder/onnx"
	"github.com/becomeliminal/cortica-go/memory"
)

func (d *deps) newOnnxEmbedder() (memory.Embedder, error) {
	emb, err := onnx.New(onnx.Config{
		ModelPath:     d.globals.OnnxModel,
		TokenizerPath: d.globals.OnnxTokenizer,
		Logger:        d.logger,
	})
	if err != nil {
		return nil, err
	}
	d.closers = append(d.closers, func() { emb.Close() })
	return emb, nil
}
