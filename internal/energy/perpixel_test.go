package energy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func gradientSource(w, h int) *Source {
	s := NewSource(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			s.Set(x, y, 0, float64((x*7+y*3)%256))
			s.Set(x, y, 1, float64((x*3+y*11)%256))
			s.Set(x, y, 2, float64((x+y*5)%256))
		}
	}
	return s
}

func TestPerPixel_Immediate_ZeroForIdenticalWindow(t *testing.T) {
	src := gradientSource(16, 16)
	p := NewPerPixel(src, nil)
	assert.Equal(t, Energy(0), p.Immediate(2, 2, 2, 2, 4, 4, false))
}

func TestPerPixel_Immediate_Symmetric(t *testing.T) {
	src := gradientSource(16, 16)
	p := NewPerPixel(src, nil)
	ab := p.Immediate(1, 1, 5, 5, 4, 4, false)
	ba := p.Immediate(5, 5, 1, 1, 4, 4, false)
	assert.Equal(t, ab, ba)
	assert.Greater(t, ab, Energy(0))
}

func TestPerPixel_Immediate_MaskedSkipsNonKnownPixels(t *testing.T) {
	src := gradientSource(8, 8)
	mask := &KnownMask{W: 8, H: 8, Known: make([]bool, 64)}
	// Nothing known: masked SSD must be zero regardless of image content.
	p := NewPerPixel(src, mask)
	assert.Equal(t, Energy(0), p.Immediate(0, 0, 4, 4, 4, 4, true))
}

func TestPerPixel_Batch_MatchesImmediate(t *testing.T) {
	src := gradientSource(20, 20)
	p := NewPerPixel(src, nil)

	batch := p.OpenBatch(2, 2, 4, 4, false)
	var handles []int
	var positions [][2]int
	for by := 0; by < 10; by++ {
		for bx := 0; bx < 10; bx++ {
			positions = append(positions, [2]int{bx, by})
			handles = append(handles, batch.Queue(bx, by))
		}
	}
	batch.Process()

	for i, h := range handles {
		want := p.Immediate(2, 2, positions[i][0], positions[i][1], 4, 4, false)
		assert.Equal(t, want, batch.Get(h))
	}
}

func TestPerPixel_Batch_AboveAsyncThreshold(t *testing.T) {
	src := gradientSource(40, 40)
	p := NewPerPixel(src, nil)

	batch := p.OpenBatch(0, 0, 2, 2, false)
	handles := make([]int, MinCalculationsForAsyncBatch+5)
	for i := range handles {
		handles[i] = batch.Queue(i%30, i/30)
	}
	batch.Process()
	for i, h := range handles {
		want := p.Immediate(0, 0, i%30, i/30, 2, 2, false)
		assert.Equal(t, want, batch.Get(h))
	}
}
