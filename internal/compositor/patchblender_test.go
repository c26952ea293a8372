package compositor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidPatchImage(w, h int, c RGB) *ImageFloat {
	img := NewImageFloat(w, h)
	for i := range img.Pix {
		img.Pix[i] = c
	}
	return img
}

func TestPatchBlenderNone_Overwrites(t *testing.T) {
	dest := NewImageFloat(8, 8)
	b := NewPatchBlenderNone(Input{}, nil, dest)
	patch := solidPatchImage(4, 4, RGB{R: 10, G: 20, B: 30})
	b.Blend(Patch{DestLeft: 2, DestTop: 2}, patch)
	b.Close()
	assert.Equal(t, RGB{R: 10, G: 20, B: 30}, dest.At(2, 2))
}

func TestPatchBlenderPriority_FeatherAlphaPeaksAtCenter(t *testing.T) {
	input := Input{
		PatchWidth: 20, PatchHeight: 20,
		Patches: []Patch{{Priority: 0}, {Priority: 1}},
	}
	dest := NewImageFloat(20, 20)
	b := NewPatchBlenderPriority(input, nil, dest).(*patchBlenderPriority)

	center := b.featherAlpha[10*20+10]
	corner := b.featherAlpha[0]
	assert.Greater(t, center, corner)
	assert.InDelta(t, 1.0, center, 0.01)
}

func TestPatchBlenderPriority_CloseNormalizesByWeight(t *testing.T) {
	input := Input{
		PatchWidth: 4, PatchHeight: 4,
		Patches: []Patch{{Priority: 0}, {Priority: 1}},
	}
	dest := NewImageFloat(4, 4)
	b := NewPatchBlenderPriority(input, nil, dest)

	patch := solidPatchImage(4, 4, RGB{R: 100, G: 100, B: 100})
	b.Blend(Patch{DestLeft: 0, DestTop: 0, Priority: 1}, patch)
	b.Close()

	// After normalizing, any pixel touched by the uniform patch should read
	// back close to the patch's own color (weights cancel out).
	center := dest.At(2, 2)
	require.InDelta(t, 100, center.R, 1)
	require.InDelta(t, 100, center.G, 1)
	require.InDelta(t, 100, center.B, 1)
}

func TestInverseLerp(t *testing.T) {
	assert.Equal(t, 0.0, inverseLerp(-5, 0, 10))
	assert.Equal(t, 1.0, inverseLerp(15, 0, 10))
	assert.InDelta(t, 0.5, inverseLerp(5, 0, 10), 1e-9)
}
