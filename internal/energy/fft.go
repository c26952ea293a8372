package energy

import (
	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/lafarren-go/imagecompleter/internal/pool"
)

// FFT is the FFT-accelerated SSD calculator (spec §4.6). It exploits
// Σ(A-B)^2 = ΣA^2 - 2ΣA·B + ΣB^2 (and the masked variant
// Σ M·(A-B)^2 = Σ(M·A)^2 - 2Σ(M·A)·B + Σ M·B^2): the ΣA^2/Σ(M·A)^2 term
// comes from a WSST, the cross term Σ A·B is a 2D correlation computed
// once per batch via FFT (shared across every queried B position), and
// the ΣB^2 term is a second WSST lookup when unmasked; the masked Σ M·B^2
// term is a second FFT correlation against the squared image.
//
// The 2D transform is done as a row-then-column decomposition using
// gonum's real-to-complex and complex-to-complex 1D FFTs, the standard
// separable construction for an N-dimensional FFT.
type FFT struct {
	image      *Source
	mask       *KnownMask
	unmaskedSq *WSST // WSST over image^2, unmasked
	maskedSq   *WSST // WSST over image^2, masked (nil if mask is nil)

	fftW, fftH int
	rowFFT     *fourier.FFT
	colFFT     *fourier.CmplxFFT

	// imageSpectrum[c] is the forward 2D half-spectrum of channel c's
	// zero-padded image, precomputed once per pyramid level.
	imageSpectrum [3][]complex128

	// imageSqSpectrum[c] is the forward 2D half-spectrum of channel c's
	// squared, zero-padded image (||pixel||^2 per channel), used to
	// correlate a masked A window's Known/Unknown pattern against B's
	// squared norms for the masked third term (spec §4.6 step 3).
	imageSqSpectrum [3][]complex128
}

// NewFFT precomputes the image's per-channel spectra and WSSTs. patchW,
// patchH size the convolution padding (fftW = imageW+patchW-1, etc., per
// spec §4.6).
func NewFFT(image *Source, mask *KnownMask, patchW, patchH int) *FFT {
	f := &FFT{
		image: image,
		mask:  mask,
		fftW:  image.W + patchW - 1,
		fftH:  image.H + patchH - 1,
	}
	f.unmaskedSq = NewWSST(image, patchW, patchH)
	if mask != nil {
		f.maskedSq = NewWSSTMasked(image, mask, patchW, patchH)
	}

	f.rowFFT = fourier.NewFFT(f.fftW)
	f.colFFT = fourier.NewCmplxFFT(f.fftH)

	for c := 0; c < 3; c++ {
		plane := make([]float64, f.fftW*f.fftH)
		sqPlane := make([]float64, f.fftW*f.fftH)
		for y := 0; y < image.H; y++ {
			for x := 0; x < image.W; x++ {
				v := image.At(x, y, c)
				plane[y*f.fftW+x] = v
				sqPlane[y*f.fftW+x] = v * v
			}
		}
		f.imageSpectrum[c] = f.forward2D(plane)
		f.imageSqSpectrum[c] = f.forward2D(sqPlane)
	}
	return f
}

// forward2D applies the row FFT (real->half-complex) then the column FFT
// (complex->complex) to a fftH x fftW real plane, returning a
// fftH x (fftW/2+1) complex half-spectrum, row-major.
func (f *FFT) forward2D(plane []float64) []complex128 {
	halfW := f.fftW/2 + 1
	rows := make([]complex128, f.fftH*halfW)
	row := make([]complex128, halfW)
	for y := 0; y < f.fftH; y++ {
		f.rowFFT.Coefficients(row, plane[y*f.fftW:(y+1)*f.fftW])
		copy(rows[y*halfW:(y+1)*halfW], row)
	}

	out := make([]complex128, f.fftH*halfW)
	col := make([]complex128, f.fftH)
	colOut := make([]complex128, f.fftH)
	for x := 0; x < halfW; x++ {
		for y := 0; y < f.fftH; y++ {
			col[y] = rows[y*halfW+x]
		}
		f.colFFT.Coefficients(colOut, col)
		for y := 0; y < f.fftH; y++ {
			out[y*halfW+x] = colOut[y]
		}
	}
	return out
}

// inverse2D is the exact inverse of forward2D.
func (f *FFT) inverse2D(spectrum []complex128) []float64 {
	halfW := f.fftW/2 + 1
	rows := make([]complex128, f.fftH*halfW)
	col := make([]complex128, f.fftH)
	colOut := make([]complex128, f.fftH)
	for x := 0; x < halfW; x++ {
		for y := 0; y < f.fftH; y++ {
			col[y] = spectrum[y*halfW+x]
		}
		f.colFFT.Sequence(colOut, col)
		for y := 0; y < f.fftH; y++ {
			rows[y*halfW+x] = colOut[y] / complex(float64(f.fftH), 0)
		}
	}

	out := make([]float64, f.fftW*f.fftH)
	rowOut := make([]float64, f.fftW)
	for y := 0; y < f.fftH; y++ {
		f.rowFFT.Sequence(rowOut, rows[y*halfW:(y+1)*halfW])
		for x := 0; x < f.fftW; x++ {
			out[y*f.fftW+x] = rowOut[x] / float64(f.fftW)
		}
	}
	return out
}

// Immediate falls back to a direct convolution lookup by opening a
// one-query batch; the FFT calculator's value is in amortizing the
// transform cost across many queries sharing the same A window, so a
// single Immediate call pays the full transform cost once.
func (f *FFT) Immediate(aLeft, aTop, bLeft, bTop, w, h int, masked bool) Energy {
	b := f.OpenBatch(aLeft, aTop, w, h, masked)
	handle := b.Queue(bLeft, bTop)
	b.Process()
	return b.Get(handle)
}

type fftBatch struct {
	calc           *FFT
	aLeft, aTop    int
	w, h           int
	masked         bool
	firstTerm      Energy
	secondAndThird [][]float64 // per channel, fftH x fftW spatial result
	maskedThird    [][]float64 // per channel, Σ M·B^2 spatial result; nil unless masked
	queries        []perPixelQuery
}

// OpenBatch precomputes the batch-wide convolution (step 2/3 of spec
// §4.6) once; Queue/Get then just index into the result.
func (f *FFT) OpenBatch(aLeft, aTop, w, h int, masked bool) Batch {
	batch := &fftBatch{calc: f, aLeft: aLeft, aTop: aTop, w: w, h: h, masked: masked}

	if masked && f.maskedSq != nil {
		batch.firstTerm = f.maskedSq.Calculate(aLeft, aTop, w, h)
	} else {
		batch.firstTerm = f.unmaskedSq.Calculate(aLeft, aTop, w, h)
	}

	// maskKernel(x,y) is the A window's Known/Unknown pattern (1/0),
	// reverse-filled the same way as the -2A kernel below, so that
	// correlating it against the squared image field via FFT yields
	// Σ M(x,y)·B(bLeft+x,bTop+y)^2 for every queried B position at once.
	var maskKernel []float64
	if masked && f.mask != nil {
		maskKernel = pool.GetFloat64(f.fftW * f.fftH)
		for y := 0; y < h; y++ {
			iy := aTop + y
			known := iy >= 0 && iy < f.image.H
			for x := 0; x < w; x++ {
				ix := aLeft + x
				v := 0.0
				if known && ix >= 0 && ix < f.image.W && f.mask.At(ix, iy) {
					v = 1
				}
				rx := w - 1 - x
				ry := h - 1 - y
				maskKernel[ry*f.fftW+rx] = v
			}
		}
	}

	var maskKernelSpectrum []complex128
	if maskKernel != nil {
		maskKernelSpectrum = f.forward2D(maskKernel)
		pool.PutFloat64(maskKernel)
	}

	batch.secondAndThird = make([][]float64, 3)
	if maskKernelSpectrum != nil {
		batch.maskedThird = make([][]float64, 3)
	}
	for c := 0; c < 3; c++ {
		// Build the reverse-filled spatial kernel of -2*A (or -2*M*A),
		// placed so correlation falls out of circular convolution. Pooled:
		// this fftW*fftH plane is reallocated on every OpenBatch call (one
		// per SendMessages per neighbor edge), and its size is fixed for
		// the lifetime of a pyramid level.
		kernel := pool.GetFloat64(f.fftW * f.fftH)
		for y := 0; y < h; y++ {
			iy := aTop + y
			if iy < 0 || iy >= f.image.H {
				continue
			}
			for x := 0; x < w; x++ {
				ix := aLeft + x
				if ix < 0 || ix >= f.image.W {
					continue
				}
				v := f.image.At(ix, iy, c)
				if masked && f.mask != nil && !f.mask.At(ix, iy) {
					v = 0
				}
				// reverse-fill: kernel(w-1-x, h-1-y)
				rx := w - 1 - x
				ry := h - 1 - y
				kernel[ry*f.fftW+rx] = -2 * v
			}
		}
		kernelSpectrum := f.forward2D(kernel)
		pool.PutFloat64(kernel)
		product := make([]complex128, len(kernelSpectrum))
		imgSpec := f.imageSpectrum[c]
		for i := range product {
			product[i] = kernelSpectrum[i] * imgSpec[i]
		}
		batch.secondAndThird[c] = f.inverse2D(product)

		if maskKernelSpectrum != nil {
			maskProduct := make([]complex128, len(maskKernelSpectrum))
			imgSqSpec := f.imageSqSpectrum[c]
			for i := range maskProduct {
				maskProduct[i] = maskKernelSpectrum[i] * imgSqSpec[i]
			}
			batch.maskedThird[c] = f.inverse2D(maskProduct)
		}
	}

	return batch
}

func (b *fftBatch) Queue(bLeft, bTop int) int {
	b.queries = append(b.queries, perPixelQuery{bLeft: bLeft, bTop: bTop})
	return len(b.queries) - 1
}

func (b *fftBatch) Process() {
	for i := range b.queries {
		q := &b.queries[i]
		var cross, maskedSq float64
		inBounds := true
		x := q.bLeft + b.w - 1
		y := q.bTop + b.h - 1
		if x < 0 || y < 0 || x >= b.calc.fftW || y >= b.calc.fftH {
			inBounds = false
		}
		if inBounds {
			for c := 0; c < 3; c++ {
				cross += b.secondAndThird[c][y*b.calc.fftW+x]
				if b.maskedThird != nil {
					maskedSq += b.maskedThird[c][y*b.calc.fftW+x]
				}
			}
		}

		var thirdTerm Energy
		if b.maskedThird != nil {
			// Σ M·B^2, the A window's Known/Unknown pattern correlated
			// against B's squared norms (spec §4.6 step 3, masked case).
			thirdTerm = Energy(maskedSq)
		} else {
			thirdTerm = b.calc.unmaskedSq.Calculate(q.bLeft, q.bTop, b.w, b.h)
		}
		q.result = b.firstTerm + Energy(cross) + thirdTerm
	}
}

func (b *fftBatch) Get(handle int) Energy {
	return b.queries[handle].result
}
