// Package scoring combines weighted confidence signals.
package scoring

import "math"

// CombineScores returns the weighted average of scores, clamped to [0,1].
//
// Weights and scores are matched by index over the weights slice: a weight
// without a score contributes zero, scores past len(weights) are ignored.
// When the weights sum to zero the divisor falls back to 1, so a misconfigured
// weight set yields 0 rather than an error.
func CombineScores(weights, scores []float64) float64 {
	var sum, total float64
	for i, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			continue
		}
		total += w
		if i >= len(scores) {
			continue
		}
		s := scores[i]
		if math.IsNaN(s) || math.IsInf(s, 0) {
			continue
		}
		sum += w * s
	}
	if total == 0 {
		total = 1
	}
	return Clamp01(sum / total)
}

// Clamp01 bounds v to [0,1]; NaN becomes 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
