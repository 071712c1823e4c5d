//go:build onnx

package onnx

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ort "github.com/yalue/onnxruntime_go"
)

func testVocab(t *testing.T) *wordPiece {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tokenizer.json")
	body := `{"model":{"vocab":{"[UNK]":100,"[CLS]":101,"[SEP]":102,"hello":7592,"play":2377,"##ing":2075}}}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	w, err := loadWordPiece(path)
	require.NoError(t, err)
	return w
}

func TestWordPiece_Encode(t *testing.T) {
	w := testVocab(t)

	ids, mask, types := w.encode("Hello, playing zzz!", 8)
	assert.Equal(t, []int64{101, 7592, 2377, 2075, 100, 102, 0, 0}, ids)
	assert.Equal(t, []int64{1, 1, 1, 1, 1, 1, 0, 0}, mask)
	assert.Equal(t, make([]int64, 8), types)
}

func TestWordPiece_Truncates(t *testing.T) {
	w := testVocab(t)

	ids, mask, _ := w.encode("hello hello hello hello hello", 4)
	assert.Equal(t, []int64{101, 7592, 7592, 102}, ids)
	assert.Equal(t, []int64{1, 1, 1, 1}, mask)
}

func TestPool_MeanOverAttended(t *testing.T) {
	data := []float32{
		1, 3,
		3, 5,
		100, 100,
	}
	out, err := pool(data, ort.NewShape(1, 3, 2), []int64{1, 1, 0}, 2)
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 4}, out)

	_, err = pool(data, ort.NewShape(1, 3, 4), []int64{1, 1, 0}, 2)
	assert.Error(t, err)
}
