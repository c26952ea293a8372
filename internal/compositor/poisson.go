package compositor

import "gonum.org/v1/gonum/mat"

// patchTypePoisson produces patch pixels via Poisson (gradient-domain)
// blending instead of a straight copy: the source patch's interior
// gradients are kept, but the solution is constrained to match the
// destination's existing neighbors at the patch border, avoiding a
// visible seam even without feathering. Solved per channel by Gauss-Seidel
// relaxation over a gonum dense matrix, since the patch sizes involved
// (tens of pixels a side) make a handful of relaxation sweeps cheaper
// than assembling and factoring a sparse system.
type patchTypePoisson struct {
	input          *ImageFloat
	output         *ImageFloat
	patchW, patchH int
	sweeps         int
}

func NewPatchTypePoisson(input Input, outputImageFloat *ImageFloat) PatchType {
	return &patchTypePoisson{
		input:  input.InputImage,
		output: outputImageFloat,
		patchW: input.PatchWidth,
		patchH: input.PatchHeight,
		sweeps: 64,
	}
}

func (t *patchTypePoisson) Get(p Patch) *ImageFloat {
	w, h := t.patchW, t.patchH

	guidance := [3]*mat.Dense{mat.NewDense(h, w, nil), mat.NewDense(h, w, nil), mat.NewDense(h, w, nil)}
	for y := 0; y < h; y++ {
		sy := clampIndex(p.SrcTop+y, t.input.Height)
		for x := 0; x < w; x++ {
			sx := clampIndex(p.SrcLeft+x, t.input.Width)
			c := t.input.At(sx, sy)
			guidance[0].Set(y, x, c.R)
			guidance[1].Set(y, x, c.G)
			guidance[2].Set(y, x, c.B)
		}
	}

	solved := [3]*mat.Dense{mat.NewDense(h, w, nil), mat.NewDense(h, w, nil), mat.NewDense(h, w, nil)}
	for ch := 0; ch < 3; ch++ {
		solved[ch].Copy(guidance[ch])
	}

	boundary := func(x, y int) (RGB, bool) {
		if x >= 0 && x < w && y >= 0 && y < h {
			return RGB{}, false
		}
		dx, dy := p.DestLeft+x, p.DestTop+y
		if dx < 0 || dx >= t.output.Width || dy < 0 || dy >= t.output.Height {
			return RGB{}, false
		}
		return t.output.At(dx, dy), true
	}

	for sweep := 0; sweep < t.sweeps; sweep++ {
		for ch := 0; ch < 3; ch++ {
			s := solved[ch]
			g := guidance[ch]
			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					lap := g.At(y, x)*4 - neighborSum(g, x, y, w, h)
					sum, count := 0.0, 0
					if v, ok := boundary(x-1, y); ok {
						sum += v.channel(ch)
						count++
					} else if x-1 >= 0 {
						sum += s.At(y, x-1)
						count++
					}
					if v, ok := boundary(x+1, y); ok {
						sum += v.channel(ch)
						count++
					} else if x+1 < w {
						sum += s.At(y, x+1)
						count++
					}
					if v, ok := boundary(x, y-1); ok {
						sum += v.channel(ch)
						count++
					} else if y-1 >= 0 {
						sum += s.At(y-1, x)
						count++
					}
					if v, ok := boundary(x, y+1); ok {
						sum += v.channel(ch)
						count++
					} else if y+1 < h {
						sum += s.At(y+1, x)
						count++
					}
					if count > 0 {
						s.Set(y, x, (sum+lap)/float64(count))
					}
				}
			}
		}
	}

	out := NewImageFloat(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Set(x, y, RGB{R: solved[0].At(y, x), G: solved[1].At(y, x), B: solved[2].At(y, x)})
		}
	}
	return out
}

func (c RGB) channel(i int) float64 {
	switch i {
	case 0:
		return c.R
	case 1:
		return c.G
	default:
		return c.B
	}
}

func neighborSum(m *mat.Dense, x, y, w, h int) float64 {
	sum := 0.0
	if x-1 >= 0 {
		sum += m.At(y, x-1)
	} else {
		sum += m.At(y, x)
	}
	if x+1 < w {
		sum += m.At(y, x+1)
	} else {
		sum += m.At(y, x)
	}
	if y-1 >= 0 {
		sum += m.At(y-1, x)
	} else {
		sum += m.At(y, x)
	}
	if y+1 < h {
		sum += m.At(y+1, x)
	} else {
		sum += m.At(y, x)
	}
	return sum
}

func clampIndex(v, limit int) int {
	if v < 0 {
		return 0
	}
	if v >= limit {
		return limit - 1
	}
	return v
}
