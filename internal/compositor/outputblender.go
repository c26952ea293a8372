package compositor

// OutputBlenderNone copies whichever pixels the mask marks unknown
// straight from the blended-patches image, leaving known pixels
// untouched — a hard seam at the mask boundary.
type OutputBlenderNone struct{}

func (OutputBlenderNone) Blend(input Input, patchesBlended *ImageFloat, outOriginal *ImageFloat) {
	for y := 0; y < outOriginal.Height; y++ {
		for x := 0; x < outOriginal.Width; x++ {
			if input.Mask(x, y) == Unknown {
				outOriginal.Set(x, y, patchesBlended.At(x, y))
			}
		}
	}
}

// OutputBlenderSoftMask feathers the hard mask into a soft alpha with a
// two-pass box blur before compositing, so the seam between original and
// completed pixels falls off gradually instead of a hard edge.
type OutputBlenderSoftMask struct {
	BlurRadius int
}

func NewOutputBlenderSoftMask() *OutputBlenderSoftMask {
	return &OutputBlenderSoftMask{BlurRadius: 2}
}

func (b *OutputBlenderSoftMask) Blend(input Input, patchesBlended *ImageFloat, outOriginal *ImageFloat) {
	w, h := outOriginal.Width, outOriginal.Height
	hard := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if input.Mask(x, y) != Known {
				hard[y*w+x] = 1
			}
		}
	}

	radius := b.BlurRadius
	if radius < 1 {
		radius = 1
	}
	horiz := boxBlur1D(hard, w, h, radius, true)
	soft := boxBlur1D(horiz, w, h, radius, false)

	// The blur softens the hard mask's edge in both directions, which
	// would let Unknown cells end up with a<1 and leak the original hole
	// content through. Unknown cells must always composite at full patch
	// weight, so re-clamp them back to 1 after blurring.
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if input.Mask(x, y) != Known {
				soft[y*w+x] = 1
			}
		}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			a := soft[y*w+x]
			orig := outOriginal.At(x, y)
			patched := patchesBlended.At(x, y)
			outOriginal.Set(x, y, orig.Scale(1-a).Add(patched.Scale(a)))
		}
	}
}

// boxBlur1D runs a single-pass box blur along rows (horizontal=true) or
// columns, using a running sum so each output touches O(1) input samples
// regardless of radius.
func boxBlur1D(src []float64, w, h, radius int, horizontal bool) []float64 {
	out := make([]float64, w*h)
	window := 2*radius + 1
	if horizontal {
		for y := 0; y < h; y++ {
			row := src[y*w : y*w+w]
			sum := 0.0
			for x := -radius; x <= radius; x++ {
				sum += clampedSample(row, x)
			}
			for x := 0; x < w; x++ {
				out[y*w+x] = sum / float64(window)
				sum -= clampedSample(row, x-radius)
				sum += clampedSample(row, x+radius+1)
			}
		}
	} else {
		for x := 0; x < w; x++ {
			col := make([]float64, h)
			for y := 0; y < h; y++ {
				col[y] = src[y*w+x]
			}
			sum := 0.0
			for y := -radius; y <= radius; y++ {
				sum += clampedSample(col, y)
			}
			for y := 0; y < h; y++ {
				out[y*w+x] = sum / float64(window)
				sum -= clampedSample(col, y-radius)
				sum += clampedSample(col, y+radius+1)
			}
		}
	}
	return out
}

func clampedSample(s []float64, i int) float64 {
	if i < 0 {
		i = 0
	} else if i >= len(s) {
		i = len(s) - 1
	}
	return s[i]
}

// OutputBlenderDebugSoftMaskIntensity writes the soft alpha mask itself
// as a grayscale image, a diagnostic for tuning the blur radius.
type OutputBlenderDebugSoftMaskIntensity struct {
	BlurRadius int
}

func (b *OutputBlenderDebugSoftMaskIntensity) Blend(input Input, patchesBlended *ImageFloat, outOriginal *ImageFloat) {
	w, h := outOriginal.Width, outOriginal.Height
	hard := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if input.Mask(x, y) != Known {
				hard[y*w+x] = 1
			}
		}
	}
	radius := b.BlurRadius
	if radius < 1 {
		radius = 1
	}
	soft := boxBlur1D(boxBlur1D(hard, w, h, radius, true), w, h, radius, false)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := soft[y*w+x] * 255
			outOriginal.Set(x, y, RGB{R: v, G: v, B: v})
		}
	}
}
