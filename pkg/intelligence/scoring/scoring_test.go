package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCombineScores(t *testing.T) {
	tests := []struct {
		name    string
		weights []float64
		scores  []float64
		want    float64
	}{
		{"weighted average", []float64{1, 3}, []float64{1, 0.5}, 0.625},
		{"equal weights", []float64{1, 1}, []float64{0.2, 0.4}, 0.3},
		{"zero weight sum divides by one", []float64{0, 0}, []float64{0.9, 0.9}, 0},
		{"empty inputs", nil, nil, 0},
		{"extra scores ignored", []float64{1}, []float64{0.4, 1, 1}, 0.4},
		{"missing score counts as zero", []float64{1, 1}, []float64{0.8}, 0.4},
		{"clamped above", []float64{1}, []float64{7}, 1},
		{"clamped below", []float64{1}, []float64{-3}, 0},
		{"negative weights cancelling", []float64{1, -1}, []float64{0.3, 0.1}, 0.2},
		{"nan score ignored", []float64{1, 1}, []float64{math.NaN(), 1}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CombineScores(tt.weights, tt.scores)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestCombineScoresAlwaysInUnitRange(t *testing.T) {
	values := []float64{-10, -1, -0.5, 0, 0.25, 0.5, 1, 2, 100, math.Inf(1), math.NaN()}
	for _, w1 := range values {
		for _, w2 := range values {
			for _, s1 := range values {
				for _, s2 := range values {
					got := CombineScores([]float64{w1, w2}, []float64{s1, s2})
					if got < 0 || got > 1 || math.IsNaN(got) {
						t.Fatalf("CombineScores(%v,%v | %v,%v) = %v, out of [0,1]", w1, w2, s1, s2, got)
					}
				}
			}
		}
	}
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(math.NaN()))
	assert.Equal(t, 0.0, Clamp01(-0.1))
	assert.Equal(t, 1.0, Clamp01(1.5))
	assert.Equal(t, 0.42, Clamp01(0.42))
}
