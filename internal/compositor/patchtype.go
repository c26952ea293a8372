package compositor

import "math"

// patchTypeNormal copies patch pixels straight from the input image at
// the patch's source rectangle.
type patchTypeNormal struct {
	input      *ImageFloat
	patchW, patchH int
}

// NewPatchTypeNormal is a PatchTypeFactory for the default patch type.
func NewPatchTypeNormal(input Input, outputImageFloat *ImageFloat) PatchType {
	return &patchTypeNormal{input: input.InputImage, patchW: input.PatchWidth, patchH: input.PatchHeight}
}

func (t *patchTypeNormal) Get(p Patch) *ImageFloat {
	out := NewImageFloat(t.patchW, t.patchH)
	for y := 0; y < t.patchH; y++ {
		sy := p.SrcTop + y
		if sy < 0 || sy >= t.input.Height {
			continue
		}
		for x := 0; x < t.patchW; x++ {
			sx := p.SrcLeft + x
			if sx < 0 || sx >= t.input.Width {
				continue
			}
			out.Set(x, y, t.input.At(sx, sy))
		}
	}
	return out
}

// patchTypeDebugPatchOrder fills a patch with a rainbow color keyed by
// its solve order: red for the earliest (least confident), violet for
// the latest (most confident), a quick visual check of the priority
// schedule without needing the real pixel data.
type patchTypeDebugPatchOrder struct {
	patchW, patchH int
	totalPatches   int
}

func NewPatchTypeDebugPatchOrder(input Input, outputImageFloat *ImageFloat) PatchType {
	return &patchTypeDebugPatchOrder{patchW: input.PatchWidth, patchH: input.PatchHeight, totalPatches: len(input.Patches)}
}

func (t *patchTypeDebugPatchOrder) Get(p Patch) *ImageFloat {
	frac := 0.0
	if t.totalPatches > 1 {
		frac = float64(p.Order) / float64(t.totalPatches-1)
	}
	color := hsvToRGB(frac*300.0, 1, 1) // 0=red through 300=violet
	out := NewImageFloat(t.patchW, t.patchH)
	for i := range out.Pix {
		out.Pix[i] = color
	}
	return out
}

func hsvToRGB(h, s, v float64) RGB {
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c
	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	return RGB{R: (r + m) * 255, G: (g + m) * 255, B: (b + m) * 255}
}
