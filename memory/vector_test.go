package memory

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 0}, 0},
		{"length mismatch", []float32{1, 0}, []float32{1, 0, 0}, 0},
		{"empty", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CosineSimilarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestCosineSimilarity_ScaleInvariant(t *testing.T) {
	a := []float32{0.3, -1.2, 2.5, 0.01}
	b := []float32{1.1, 0.4, -0.7, 3}

	base := CosineSimilarity(a, b)
	for _, factor := range []float32{0.001, 0.5, 7, 1000} {
		scaled := make([]float32, len(a))
		for i := range a {
			scaled[i] = a[i] * factor
		}
		assert.InDelta(t, base, CosineSimilarity(scaled, b), 1e-6, "factor %v", factor)
	}
}

func TestNormalize(t *testing.T) {
	got := Normalize([]float32{3, 4})
	assert.InDelta(t, 0.6, got[0], 1e-6)
	assert.InDelta(t, 0.8, got[1], 1e-6)
	assert.InDelta(t, 1.0, Magnitude(got), 1e-6)

	zero := Normalize([]float32{0, 0, 0})
	assert.Equal(t, []float32{0, 0, 0}, zero)
}

func TestDecayWeight(t *testing.T) {
	halfLife := time.Hour

	assert.Equal(t, 1.0, DecayWeight(0, halfLife))
	assert.Equal(t, 1.0, DecayWeight(-time.Minute, halfLife))
	assert.InDelta(t, 0.5, DecayWeight(time.Hour, halfLife), 1e-12)
	assert.InDelta(t, 0.25, DecayWeight(2*time.Hour, halfLife), 1e-12)
	assert.Equal(t, 1.0, DecayWeight(time.Hour, 0), "non-positive half-life disables decay")
}

func TestDecayWeight_StrictlyDecreasing(t *testing.T) {
	halfLife := 3 * time.Hour
	prev := math.Inf(1)
	for elapsed := time.Duration(0); elapsed <= 48*time.Hour; elapsed += 17 * time.Minute {
		w := DecayWeight(elapsed, halfLife)
		assert.Less(t, w, prev, "elapsed %s", elapsed)
		assert.Greater(t, w, 0.0)
		prev = w
	}
}
