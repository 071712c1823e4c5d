//go:build !onnx

package main

import (
	"github.com/becomeliminal/cortica-go/core"
	"github.com/becomeliminal/cortica-go/memory"
)

func (d *deps) newOnnxEmbedder() (memory.Embedder, error) {
	return nil, core.Configurationf("onnx", "this binary was built without the onnx tag")
}
