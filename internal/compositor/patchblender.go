package compositor

// patchBlenderNone simply overwrites: the latest patch drawn at a pixel
// wins, no feathering or weighting.
type patchBlenderNone struct {
	dest *ImageFloat
}

func NewPatchBlenderNone(input Input, outputImageFloat, patchesBlended *ImageFloat) PatchBlender {
	return &patchBlenderNone{dest: patchesBlended}
}

func (b *patchBlenderNone) Blend(p Patch, patchImage *ImageFloat) {
	blitPatch(b.dest, p, patchImage, func(x, y int, c RGB, weight float64) RGB { return c })
}

func (b *patchBlenderNone) Close() {}

// patchBlenderPriority accumulates every patch into the destination
// weighted by alpha(priority) * feather(cell), then normalizes by the
// accumulated weight sum on Close — the original library's
// PatchBlenderPriority. Alpha rises from 0.66 (lowest-priority patch) to
// 1.0 (highest-priority patch); feather is a 10%-of-side falloff at
// every edge so adjacent patches blend rather than show hard seams.
type patchBlenderPriority struct {
	dest            *ImageFloat
	priorityLowest  float64
	priorityHighest float64
	featherAlpha    []float64 // patchW*patchH
	patchW, patchH  int
	weightSum       []float64 // per destination pixel
}

const (
	featherSidePercentage     = 0.10
	alphaOfLowestPriority     = 0.66
	alphaOfHighestPriority    = 1.0
)

func NewPatchBlenderPriority(input Input, outputImageFloat, patchesBlended *ImageFloat) PatchBlender {
	b := &patchBlenderPriority{
		dest:           patchesBlended,
		patchW:         input.PatchWidth,
		patchH:         input.PatchHeight,
		weightSum:      make([]float64, patchesBlended.Width*patchesBlended.Height),
		priorityLowest: 0,
		priorityHighest: 1,
	}
	if len(input.Patches) > 0 {
		b.priorityLowest = input.Patches[0].Priority
		b.priorityHighest = input.Patches[len(input.Patches)-1].Priority
	}

	featherW := float64(b.patchW) * featherSidePercentage
	featherH := float64(b.patchH) * featherSidePercentage
	b.featherAlpha = make([]float64, b.patchW*b.patchH)
	for y := 0; y < b.patchH; y++ {
		top := inverseLerp(float64(y), -1, featherH)
		bottom := inverseLerp(float64(y), float64(b.patchH), float64(b.patchH-1)-featherH)
		for x := 0; x < b.patchW; x++ {
			left := inverseLerp(float64(x), -1, featherW)
			right := inverseLerp(float64(x), float64(b.patchW), float64(b.patchW-1)-featherW)
			a := top * bottom * left * right
			if a <= 0 {
				a = 0.0001
			}
			b.featherAlpha[y*b.patchW+x] = a
		}
	}
	return b
}

func inverseLerp(v, a, b float64) float64 {
	if a == b {
		return 1
	}
	t := (v - a) / (b - a)
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return t
}

func (b *patchBlenderPriority) Blend(p Patch, patchImage *ImageFloat) {
	weight := lerp(alphaOfLowestPriority, alphaOfHighestPriority, inverseLerp(p.Priority, b.priorityLowest, b.priorityHighest))

	rowsNum := patchImage.Height
	colsNum := patchImage.Width
	for y := 0; y < rowsNum; y++ {
		dy := p.DestTop + y
		if dy < 0 || dy >= b.dest.Height {
			continue
		}
		for x := 0; x < colsNum; x++ {
			dx := p.DestLeft + x
			if dx < 0 || dx >= b.dest.Width {
				continue
			}
			pixelWeight := weight * b.featherAlpha[y*b.patchW+x]
			b.dest.AddAt(dx, dy, patchImage.At(x, y).Scale(pixelWeight))
			b.weightSum[dy*b.dest.Width+dx] += pixelWeight
		}
	}
}

func lerp(a, b, t float64) float64 { return a + t*(b-a) }

func (b *patchBlenderPriority) Close() {
	for i, w := range b.weightSum {
		if w > 0 {
			b.dest.Pix[i] = b.dest.Pix[i].Scale(1 / w)
		}
	}
}

// blitPatch is a shared helper for blenders (like None) that don't need
// per-pixel weighting, just a transform applied while copying.
func blitPatch(dest *ImageFloat, p Patch, patchImage *ImageFloat, transform func(x, y int, c RGB, weight float64) RGB) {
	for y := 0; y < patchImage.Height; y++ {
		dy := p.DestTop + y
		if dy < 0 || dy >= dest.Height {
			continue
		}
		for x := 0; x < patchImage.Width; x++ {
			dx := p.DestLeft + x
			if dx < 0 || dx >= dest.Width {
				continue
			}
			dest.Set(dx, dy, transform(x, y, patchImage.At(x, y), 1))
		}
	}
}
