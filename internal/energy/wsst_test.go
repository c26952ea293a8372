package energy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWSST_MatchesBruteForceSquaredNorm(t *testing.T) {
	src := gradientSource(12, 12)
	w := NewWSST(src, 4, 3)

	var want Energy
	for y := 2; y < 5; y++ {
		for x := 0; x < 4; x++ {
			for c := 0; c < 3; c++ {
				v := src.At(x, y, c)
				want += Energy(v * v)
			}
		}
	}
	assert.Equal(t, want, w.Calculate(0, 2, 4, 3))
}

func TestWSST_NonMultipleSizeReturnsMin(t *testing.T) {
	src := gradientSource(12, 12)
	w := NewWSST(src, 4, 4)
	assert.Equal(t, EnergyMin, w.Calculate(0, 0, 3, 4))
	assert.Equal(t, EnergyMin, w.Calculate(0, 0, 4, 5))
}

func TestWSSTMasked_ExcludesNonKnownPixels(t *testing.T) {
	src := gradientSource(8, 8)
	mask := &KnownMask{W: 8, H: 8, Known: make([]bool, 64)}
	w := NewWSSTMasked(src, mask, 4, 4)
	assert.Equal(t, Energy(0), w.Calculate(0, 0, 4, 4))
}

func TestWSST_GetBlockDims(t *testing.T) {
	w := NewWSST(gradientSource(8, 8), 3, 5)
	assert.Equal(t, 3, w.GetBlockWidth())
	assert.Equal(t, 5, w.GetBlockHeight())
}
