package energy

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// PerPixel is the per-pixel SSD calculator (spec §4.5). Queued batches
// whose size reaches MinCalculationsForAsyncBatch are fanned out across a
// fixed worker pool, one goroutine per hardware thread minus the caller,
// the same way the teacher's internal/lossy/encode_parallel.go spreads
// macroblock rows across a GOMAXPROCS(0)-sized pool: a shared atomic
// cursor lets idle workers claim the next unit of work instead of being
// handed a static partition.
type PerPixel struct {
	image *Source
	mask  *KnownMask

	numWorkers int
}

// NewPerPixel builds a per-pixel calculator over image, whose pixels are
// masked by mask when a batch requests A-side masking.
func NewPerPixel(image *Source, mask *KnownMask) *PerPixel {
	n := runtime.GOMAXPROCS(0) - 1
	if n < 1 {
		n = 1
	}
	return &PerPixel{image: image, mask: mask, numWorkers: n}
}

func (p *PerPixel) clip(left, top, w, h int) (l, t, cw, ch int) {
	l, t = left, top
	cw, ch = w, h
	if l < 0 {
		cw += l
		l = 0
	}
	if t < 0 {
		ch += t
		t = 0
	}
	if l+cw > p.image.W {
		cw = p.image.W - l
	}
	if t+ch > p.image.H {
		ch = p.image.H - t
	}
	if cw < 0 {
		cw = 0
	}
	if ch < 0 {
		ch = 0
	}
	return
}

// Immediate computes the SSD between A at (aLeft,aTop) and B at
// (bLeft,bTop), both w x h, clipping both windows together to the
// image's bounds (a clip on either side is mirrored on the other, so the
// compared regions stay aligned).
func (p *PerPixel) Immediate(aLeft, aTop, bLeft, bTop, w, h int, masked bool) Energy {
	dx := bLeft - aLeft
	dy := bTop - aTop

	al, at, cw, ch := p.clip(aLeft, aTop, w, h)
	al, at, cw, ch = p.clipPair(al, at, cw, ch, dx, dy)

	var total Energy
	for y := 0; y < ch; y++ {
		ay := at + y
		by := ay + dy
		for x := 0; x < cw; x++ {
			ax := al + x
			bx := ax + dx
			if masked && !p.mask.At(ax, ay) {
				continue
			}
			var d Energy
			for c := 0; c < 3; c++ {
				diff := p.image.At(ax, ay, c) - p.image.At(bx, by, c)
				d += Energy(diff * diff)
			}
			total += d
		}
	}
	return total
}

// clipPair additionally shrinks a window so that its (dx,dy)-shifted
// partner also stays in bounds.
func (p *PerPixel) clipPair(left, top, w, h, dx, dy int) (int, int, int, int) {
	if left+dx < 0 {
		shrink := -(left + dx)
		left += shrink
		w -= shrink
	}
	if top+dy < 0 {
		shrink := -(top + dy)
		top += shrink
		h -= shrink
	}
	if left+w+dx > p.image.W {
		w = p.image.W - dx - left
	}
	if top+h+dy > p.image.H {
		h = p.image.H - dy - top
	}
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return left, top, w, h
}

type perPixelQuery struct {
	bLeft, bTop int
	result      Energy
}

type perPixelBatch struct {
	calc            *PerPixel
	aLeft, aTop, w, h int
	masked          bool
	queries         []perPixelQuery
}

func (p *PerPixel) OpenBatch(aLeft, aTop, w, h int, masked bool) Batch {
	return &perPixelBatch{calc: p, aLeft: aLeft, aTop: aTop, w: w, h: h, masked: masked}
}

func (b *perPixelBatch) Queue(bLeft, bTop int) int {
	b.queries = append(b.queries, perPixelQuery{bLeft: bLeft, bTop: bTop})
	return len(b.queries) - 1
}

func (b *perPixelBatch) Process() {
	n := len(b.queries)
	if n == 0 {
		return
	}
	if n < MinCalculationsForAsyncBatch || b.calc.numWorkers <= 1 {
		for i := range b.queries {
			q := &b.queries[i]
			q.result = b.calc.Immediate(b.aLeft, b.aTop, q.bLeft, q.bTop, b.w, b.h, b.masked)
		}
		return
	}

	var cursor atomic.Int64
	var wg sync.WaitGroup
	workers := b.calc.numWorkers
	if workers > n {
		workers = n
	}
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for {
				idx := cursor.Add(1) - 1
				if int(idx) >= n {
					return
				}
				q := &b.queries[idx]
				q.result = b.calc.Immediate(b.aLeft, b.aTop, q.bLeft, q.bTop, b.w, b.h, b.masked)
			}
		}()
	}
	wg.Wait()
}

func (b *perPixelBatch) Get(handle int) Energy {
	return b.queries[handle].result
}
