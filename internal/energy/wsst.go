package energy

// WSST is a windowed sum-squared table (spec §4.4): for any rectangle
// whose width/height are multiples of blockWidth/blockHeight, at any
// position, Calculate returns sum(||pixel||^2) over the rectangle in
// O(1). It is a 2D summed-area table of per-pixel squared norms, padded
// by blockWidth/blockHeight on the top/left (see
// http://www.cs.sfu.ca/~torsten/Publications/Papers/icip02.pdf, cited by
// the original implementation this engine's FFT path is ported from).
type WSST struct {
	blockWidth, blockHeight int
	tableWidth, tableHeight int
	table                   []Energy // row-major, tableWidth*tableHeight
}

// NewWSST builds an unmasked WSST over image.
func NewWSST(image *Source, blockWidth, blockHeight int) *WSST {
	return buildWSST(image, nil, blockWidth, blockHeight)
}

// NewWSSTMasked builds a WSST where pixels not Known in mask contribute
// zero.
func NewWSSTMasked(image *Source, mask *KnownMask, blockWidth, blockHeight int) *WSST {
	return buildWSST(image, mask, blockWidth, blockHeight)
}

func buildWSST(image *Source, mask *KnownMask, blockWidth, blockHeight int) *WSST {
	w := &WSST{
		blockWidth:  blockWidth,
		blockHeight: blockHeight,
		tableWidth:  blockWidth + image.W,
		tableHeight: blockHeight + image.H,
	}

	// perPixel[y][x] = ||pixel(x,y)||^2 (masked to 0 if applicable),
	// padded on the left/top by blockWidth/blockHeight so that windowed
	// prefix-sum differencing never indexes negatively.
	perPixel := make([]Energy, w.tableWidth*w.tableHeight)
	for y := 0; y < image.H; y++ {
		for x := 0; x < image.W; x++ {
			if mask != nil && !mask.At(x, y) {
				continue
			}
			var sq float64
			for c := 0; c < 3; c++ {
				v := image.At(x, y, c)
				sq += v * v
			}
			perPixel[(y+blockHeight)*w.tableWidth+(x+blockWidth)] = Energy(sq)
		}
	}

	// 2D prefix sum (summed-area table) over perPixel, so that any
	// rectangle's sum is four lookups.
	sat := make([]Energy, len(perPixel))
	for y := 0; y < w.tableHeight; y++ {
		var rowSum Energy
		for x := 0; x < w.tableWidth; x++ {
			rowSum += perPixel[y*w.tableWidth+x]
			above := Energy(0)
			if y > 0 {
				above = sat[(y-1)*w.tableWidth+x]
			}
			sat[y*w.tableWidth+x] = rowSum + above
		}
	}
	w.table = sat
	return w
}

func (w *WSST) GetBlockWidth() int  { return w.blockWidth }
func (w *WSST) GetBlockHeight() int { return w.blockHeight }

func (w *WSST) sumRect(x0, y0, x1, y1 int) Energy {
	get := func(x, y int) Energy {
		if x < 0 || y < 0 {
			return 0
		}
		return w.table[y*w.tableWidth+x]
	}
	return get(x1-1, y1-1) - get(x0-1, y1-1) - get(x1-1, y0-1) + get(x0-1, y0-1)
}

// Calculate returns the sum of squared pixel norms over the
// width x height rectangle at (left, top) in the original (unpadded)
// image coordinate space. width and height must be multiples of
// blockWidth/blockHeight; if not, EnergyMin is returned per spec.
func (w *WSST) Calculate(left, top, width, height int) Energy {
	if width%w.blockWidth != 0 || height%w.blockHeight != 0 {
		return EnergyMin
	}
	px0 := left + w.blockWidth
	py0 := top + w.blockHeight
	return w.sumRect(px0, py0, px0+width, py0+height)
}
