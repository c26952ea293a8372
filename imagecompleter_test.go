package imagecompleter

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func checkerboardImage(w, h int) *Image {
	img := NewImage(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x/4+y/4)%2 == 0 {
				img.Set(x, y, Pixel{R: 200, G: 200, B: 200})
			} else {
				img.Set(x, y, Pixel{R: 40, G: 40, B: 40})
			}
		}
	}
	return img
}

func centerHoleMask(w, h, holeW, holeH int) *Mask {
	values := make([]MaskValue, w*h)
	x0, y0 := (w-holeW)/2, (h-holeH)/2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x >= x0 && x < x0+holeW && y >= y0 && y < y0+holeH {
				values[y*w+x] = Unknown
			} else {
				values[y*w+x] = Known
			}
		}
	}
	return NewMask(w, h, values)
}

func TestComplete_FillsHoleAndLeavesKnownUntouched(t *testing.T) {
	const w, h = 48, 48
	input := checkerboardImage(w, h)
	mask := centerHoleMask(w, h, 16, 16)
	output := NewImage(w, h)

	settings := DefaultSettings(w, h)
	settings.LowResolutionPassesMax = 1 // keep the test fast

	ok, err := Complete(settings, input, mask, output, nil, nil)
	require.NoError(t, err)
	require.True(t, ok)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if mask.Value(x, y) == Known {
				assert.Equal(t, input.At(x, y), output.At(x, y), "known pixel (%d,%d) changed", x, y)
			}
		}
	}
}

func TestComplete_RoundTripsPatchesThroughReaderWriter(t *testing.T) {
	const w, h = 48, 48
	input := checkerboardImage(w, h)
	mask := centerHoleMask(w, h, 16, 16)
	output := NewImage(w, h)

	settings := DefaultSettings(w, h)
	settings.LowResolutionPassesMax = 1

	var patchBuf bytes.Buffer
	ok, err := Complete(settings, input, mask, output, nil, &patchBuf)
	require.NoError(t, err)
	require.True(t, ok)
	require.Greater(t, patchBuf.Len(), 0)

	replayedOutput := NewImage(w, h)
	ok, err = Complete(settings, input, mask, replayedOutput, bytes.NewReader(patchBuf.Bytes()), nil)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, output.Pix, replayedOutput.Pix)
}

func TestComplete_RejectsMismatchedDimensions(t *testing.T) {
	input := NewImage(16, 16)
	mask := centerHoleMask(8, 8, 2, 2)
	output := NewImage(16, 16)
	settings := DefaultSettings(16, 16)

	_, err := Complete(settings, input, mask, output, nil, nil)
	assert.ErrorIs(t, err, ErrImageMaskSizeMismatch)
}

func TestComplete_RejectsAllKnownMask(t *testing.T) {
	const w, h = 16, 16
	input := NewImage(w, h)
	mask := solidMask(w, h, Known)
	output := NewImage(w, h)
	settings := DefaultSettings(w, h)

	_, err := Complete(settings, input, mask, output, nil, nil)
	assert.ErrorIs(t, err, ErrMaskAllKnown)
}

func TestComplete_RejectsAllUnknownMask(t *testing.T) {
	const w, h = 16, 16
	input := NewImage(w, h)
	mask := solidMask(w, h, Unknown)
	output := NewImage(w, h)
	settings := DefaultSettings(w, h)

	_, err := Complete(settings, input, mask, output, nil, nil)
	assert.ErrorIs(t, err, ErrMaskAllUnknown)
}

func TestCompositeToImage_DebugPatchOrderReturnsInputSizedImage(t *testing.T) {
	const w, h = 32, 32
	input := checkerboardImage(w, h)
	mask := centerHoleMask(w, h, 12, 12)

	settings := DefaultSettings(w, h)
	settings.LowResolutionPassesMax = 0
	settings.CompositorPatchType = CompositorPatchTypeDebugPatchOrder
	settings.CompositorPatchBlender = CompositorPatchBlenderNone

	ctx := &NodeContext{
		Settings: &settings,
		Mask:     mask,
		LabelSet: NewLabelSet(mask, w, h, settings.PatchWidth, settings.PatchHeight),
		Energy:   NewEnergyCalculator(input, mask, settings.PatchWidth, settings.PatchHeight),
	}
	ns := NewNodeSet(ctx)
	require.NotEmpty(t, ns.Nodes())
	patches := NewPriorityBpRunner(ns, &settings).RunAndGetPatches()
	require.NotEmpty(t, patches)

	out := CompositeToImage(settings, input, mask, patches)
	require.NotNil(t, out)
	assert.Equal(t, w, out.Width)
	assert.Equal(t, h, out.Height)
}
