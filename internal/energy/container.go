package energy

import (
	"sync"
	"time"
)

// Container holds one per-pixel calculator and a lazily-allocated FFT
// calculator per pyramid level, and routes each batch to one of them
// (spec §4.7).
//
// Routing is decided by a single measurement per Container: the first
// batch with at least MinCalculationsForAsyncBatch queries and a window
// that is a whole multiple of the patch size is run on both calculators
// and timed, and the winner is then used for every later batch with such
// a window, whatever its query count. Batches before that measurement,
// and batches whose window is not a patch multiple, use the per-pixel
// calculator. There is no separate measurement per window size or batch
// size; measuredBucket records the measured window's pixel count and is
// not consulted when routing.
type Container struct {
	mu sync.Mutex

	image *Source
	mask  *KnownMask

	perPixel *PerPixel
	fft      *FFT // lazily built

	patchW, patchH int

	resolved       bool
	fftWins        bool
	measuredBucket int
}

// NewContainer builds the per-pixel calculator eagerly (cheap) and
// defers FFT setup (expensive: full-image transforms) until first use.
func NewContainer(image *Source, mask *KnownMask, patchW, patchH int) *Container {
	return &Container{
		image:    image,
		mask:     mask,
		perPixel: NewPerPixel(image, mask),
		patchW:   patchW,
		patchH:   patchH,
	}
}

func (c *Container) ensureFFT() *FFT {
	if c.fft == nil {
		c.fft = NewFFT(c.image, c.mask, c.patchW, c.patchH)
	}
	return c.fft
}

// Immediate always uses the per-pixel calculator: a single query never
// amortizes the FFT calculator's setup cost.
func (c *Container) Immediate(aLeft, aTop, bLeft, bTop, w, h int, masked bool) Energy {
	return c.perPixel.Immediate(aLeft, aTop, bLeft, bTop, w, h, masked)
}

// OpenBatch routes the batch by the measurer described above. The batch
// size isn't known until Queue calls accumulate, so routing happens
// lazily at the first Process() call: a deferredBatch buffers queries
// itself and only opens the real per-pixel/FFT batch once it knows how
// many queries it has.
func (c *Container) OpenBatch(aLeft, aTop, w, h int, masked bool) Batch {
	return &deferredBatch{
		container: c,
		aLeft:     aLeft, aTop: aTop, w: w, h: h, masked: masked,
	}
}

type deferredBatch struct {
	container   *Container
	aLeft, aTop int
	w, h        int
	masked      bool
	queries     []perPixelQuery
	resolved    Batch
}

func (b *deferredBatch) Queue(bLeft, bTop int) int {
	b.queries = append(b.queries, perPixelQuery{bLeft: bLeft, bTop: bTop})
	return len(b.queries) - 1
}

// Process routes to whichever calculator the measurer has already
// settled on, or — for the first batch large enough to bother — wall-
// clocks both calculators running this exact batch and keeps the
// winner's already-computed result, so measuring never throws away work.
func (b *deferredBatch) Process() {
	c := b.container
	n := len(b.queries)
	// The FFT calculator's WSST terms only cover patch-multiple windows.
	fftUsable := b.w%c.patchW == 0 && b.h%c.patchH == 0

	c.mu.Lock()
	if c.resolved || n < MinCalculationsForAsyncBatch || !fftUsable {
		useFFT := c.resolved && c.fftWins && fftUsable
		c.mu.Unlock()

		var target Calculator = c.perPixel
		if useFFT {
			target = c.ensureFFT()
		}
		inner := target.OpenBatch(b.aLeft, b.aTop, b.w, b.h, b.masked)
		for _, q := range b.queries {
			inner.Queue(q.bLeft, q.bTop)
		}
		inner.Process()
		b.resolved = inner
		return
	}

	ppBatch := c.perPixel.OpenBatch(b.aLeft, b.aTop, b.w, b.h, b.masked)
	for _, q := range b.queries {
		ppBatch.Queue(q.bLeft, q.bTop)
	}
	start := time.Now()
	ppBatch.Process()
	perPixelElapsed := time.Since(start)

	fft := c.ensureFFT()
	fftBatch := fft.OpenBatch(b.aLeft, b.aTop, b.w, b.h, b.masked)
	for _, q := range b.queries {
		fftBatch.Queue(q.bLeft, q.bTop)
	}
	start = time.Now()
	fftBatch.Process()
	fftElapsed := time.Since(start)

	// Prefer per-pixel when within 5% of FFT's time: its memory
	// footprint is far smaller.
	fftWins := fftElapsed < time.Duration(float64(perPixelElapsed)*0.95)
	c.resolved = true
	c.fftWins = fftWins
	c.measuredBucket = b.w * b.h
	c.mu.Unlock()

	if fftWins {
		b.resolved = fftBatch
	} else {
		b.resolved = ppBatch
	}
}

func (b *deferredBatch) Get(handle int) Energy {
	return b.resolved.Get(handle)
}
