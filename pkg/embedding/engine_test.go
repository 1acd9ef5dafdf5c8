package embedding

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestL2NormalizeUnitLength(t *testing.T) {
	v := l2Normalize([]float32{3, 4})
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)

	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(sumSq), 1e-5)
}

func TestL2NormalizeZeroVector(t *testing.T) {
	v := l2Normalize([]float32{0, 0, 0})
	assert.Equal(t, []float32{0, 0, 0}, v)
}

func TestMeanPoolWeightsByAttentionMask(t *testing.T) {
	// two tokens of dim 2: [1,1] and [3,3], second token masked out
	hidden := []float32{1, 1, 3, 3}
	mask := []int64{1, 0}

	out := meanPool(hidden, mask, 2, 2)
	assert.Equal(t, []float32{1, 1}, out)
}

func TestMeanPoolAllMasked(t *testing.T) {
	hidden := []float32{1, 1}
	mask := []int64{0}
	out := meanPool(hidden, mask, 1, 2)
	assert.Equal(t, []float32{0, 0}, out)
}
