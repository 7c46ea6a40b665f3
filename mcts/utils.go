package mcts

import (
	"github.com/chewxy/math32"
)

// finite returns true if no value in a is NaN or infinite.
func finite(a []float32) bool {
	for _, v := range a {
		if math32.IsInf(v, 0) || math32.IsNaN(v) {
			return false
		}
	}
	return true
}
