package imagecompleter

// MaskValue is the tri-valued (plus Indeterminate at coarser pyramid
// levels) classification of a mask cell.
type MaskValue int8

const (
	// Unknown cells must be filled by the completion engine.
	Unknown MaskValue = iota
	// Known cells are valid sources and are never overwritten.
	Known
	// Ignored cells neither contribute energy nor receive fill.
	Ignored
	// Indeterminate only appears at pyramid levels above 0, meaning the
	// down-sampled block mixed Unknown and Known children.
	Indeterminate
)

// DecodeMaskByte converts a grayscale mask byte to a MaskValue using the
// closest of {0: Unknown, 128: Ignored, 255: Known}; ties resolve toward
// the lower intensity.
func DecodeMaskByte(b uint8) MaskValue {
	v := int(b)
	distUnknown := v - 0
	distIgnored := abs(v - 128)
	distKnown := 255 - v
	if distUnknown <= distIgnored && distUnknown <= distKnown {
		return Unknown
	}
	if distIgnored <= distKnown {
		return Ignored
	}
	return Known
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Mask is a MaskLod: it stores a pyramid of levels of detail so that
// region queries over large rectangles can resolve in time proportional
// to the number of LOD blocks touched rather than to every pixel.
//
// Level 0 holds one MaskValue per pixel (no Indeterminate possible).
// Level L covers 2^L x 2^L blocks of level 0. Construction of level L+1
// stops being built once a level is entirely Indeterminate, or once a
// level is 1x1.
type Mask struct {
	Width, Height int

	lods []lodLevel // lods[0] is the finest (pixel) level

	levels []maskSnapshot // ScaleDown/ScaleUp stack
}

type lodLevel struct {
	width, height int
	values        []MaskValue
}

type maskSnapshot struct {
	width, height int
	lods          []lodLevel
}

// NewMask builds a MaskLod pyramid from pixel-level values (row-major,
// length width*height).
func NewMask(width, height int, values []MaskValue) *Mask {
	m := &Mask{Width: width, Height: height}
	cp := make([]MaskValue, len(values))
	copy(cp, values)
	m.lods = []lodLevel{{width: width, height: height, values: cp}}
	m.buildLods()
	return m
}

func (m *Mask) buildLods() {
	for {
		prev := m.lods[len(m.lods)-1]
		if prev.width <= 1 && prev.height <= 1 {
			return
		}
		next := coarsenLod(prev)
		m.lods = append(m.lods, next)
		if allIndeterminate(next.values) {
			return
		}
	}
}

func allIndeterminate(values []MaskValue) bool {
	for _, v := range values {
		if v != Indeterminate {
			return false
		}
	}
	return true
}

// coarsenLod halves a LOD level, applying the odd-edge rule shared with
// label-set coarsening (see oddEdgeBlockStart in label.go): the final
// row/column of an odd dimension aggregates a 3-wide/3-tall block of
// children instead of 2, so the trailing cell isn't dropped. A coarse
// block's value is the shared value of its children, or Indeterminate if
// they disagree or any child is itself Indeterminate, so region queries
// descend into every mixed block. Indeterminate is collapsed to Unknown
// only when the mask itself is scaled down (see collapseIndeterminate).
func coarsenLod(prev lodLevel) lodLevel {
	newW := (prev.width + 1) / 2
	newH := (prev.height + 1) / 2
	out := make([]MaskValue, newW*newH)

	oddX, oddY := oddEdgeBlockStart(prev.width, prev.height)

	for by := 0; by < newH; by++ {
		y0, bh := childBlockRange(by, newH, prev.height, oddY)
		for bx := 0; bx < newW; bx++ {
			x0, bw := childBlockRange(bx, newW, prev.width, oddX)

			first := true
			var agreed MaskValue
			mixed := false
			for yy := y0; yy < y0+bh; yy++ {
				for xx := x0; xx < x0+bw; xx++ {
					v := prev.values[yy*prev.width+xx]
					if v == Indeterminate {
						mixed = true
					}
					if first {
						agreed = v
						first = false
					} else if v != agreed {
						mixed = true
					}
				}
			}
			if mixed {
				out[by*newW+bx] = Indeterminate
			} else {
				out[by*newW+bx] = agreed
			}
		}
	}
	return lodLevel{width: newW, height: newH, values: out}
}

// oddEdgeBlockStart mirrors the original library's
// GetCoordinatesToIncludeOddEdge: returns the finer-resolution coordinate
// at which the final coarse block should widen to 3 cells instead of 2,
// or -1 if the dimension is even and no widening is needed.
func oddEdgeBlockStart(width, height int) (oddX, oddY int) {
	oddX, oddY = -1, -1
	if width&1 == 1 {
		oddX = width - 3
	}
	if height&1 == 1 {
		oddY = height - 3
	}
	return
}

// childBlockRange returns the start and size (2 or 3) of the block of
// children at finer-level coordinate for coarse index `idx` out of
// `coarseCount` coarse cells spanning `fineCount` fine cells, widened at
// oddStart if idx is the last coarse cell and oddStart >= 0.
func childBlockRange(idx, coarseCount, fineCount, oddStart int) (start, size int) {
	start = idx * 2
	size = 2
	if idx == coarseCount-1 && oddStart >= 0 {
		start = oddStart
		size = 3
	}
	if start+size > fineCount {
		size = fineCount - start
	}
	return
}

// GetLowestLod returns the coarsest level built (GetHighestLod is always 0).
func (m *Mask) GetLowestLod() int { return len(m.lods) - 1 }

// Value returns the mask's pixel-level classification at (x, y).
// Out-of-bounds coordinates are treated as Known.
func (m *Mask) Value(x, y int) MaskValue {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		return Known
	}
	lvl := m.lods[0]
	return lvl.values[y*lvl.width+x]
}

// RegionXywhHasAny reports whether any cell in the x,y,w,h rectangle
// (exclusive width/height, out-of-bounds treated as Known) equals value.
// It descends the LOD pyramid from the coarsest level whose block size is
// <= the region span, returning as soon as a matching block is found.
func (m *Mask) RegionXywhHasAny(x, y, w, h int, value MaskValue) bool {
	return m.regionQuery(x, y, w, h, value, true)
}

// RegionXywhHasAll reports whether every cell in the rectangle equals
// value, returning as soon as a non-matching block is found.
func (m *Mask) RegionXywhHasAll(x, y, w, h int, value MaskValue) bool {
	return m.regionQuery(x, y, w, h, value, false)
}

func (m *Mask) regionQuery(x, y, w, h int, value MaskValue, any bool) bool {
	lod := m.pickStartLod(w, h)
	return m.regionQueryAtLod(lod, x, y, w, h, value, any)
}

// pickStartLod returns the highest (coarsest) LOD whose block size
// (2^lod) does not exceed the smaller of w, h.
func (m *Mask) pickStartLod(w, h int) int {
	span := w
	if h < span {
		span = h
	}
	lod := 0
	for lod < m.GetLowestLod() {
		blockSize := 1 << uint(lod+1)
		if blockSize > span {
			break
		}
		lod++
	}
	return lod
}

func (m *Mask) regionQueryAtLod(lod, x, y, w, h int, value MaskValue, any bool) bool {
	if w <= 0 || h <= 0 {
		return !any
	}
	blockSize := 1 << uint(lod)
	lvl := m.lods[lod]

	x0 := x
	y0 := y
	x1 := x + w
	y1 := y + h

	bx0 := floorDiv(x0, blockSize)
	by0 := floorDiv(y0, blockSize)
	bx1 := ceilDiv(x1, blockSize)
	by1 := ceilDiv(y1, blockSize)

	for by := by0; by < by1; by++ {
		for bx := bx0; bx < bx1; bx++ {
			cellX := bx * blockSize
			cellY := by * blockSize
			var v MaskValue
			if cellX < 0 || cellY < 0 || bx >= lvl.width || by >= lvl.height {
				v = Known
			} else {
				v = lvl.values[by*lvl.width+bx]
			}

			if v == Indeterminate {
				if lod == 0 {
					// Level 0 never produces Indeterminate; defensive only.
					continue
				}
				// Descend one level, restricted to this block's overlap
				// with the queried rectangle.
				subX0 := max(x0, cellX)
				subY0 := max(y0, cellY)
				subX1 := min(x1, cellX+blockSize)
				subY1 := min(y1, cellY+blockSize)
				result := m.regionQueryAtLod(lod-1, subX0, subY0, subX1-subX0, subY1-subY0, value, any)
				if any && result {
					return true
				}
				if !any && !result {
					return false
				}
				continue
			}

			if any && v == value {
				return true
			}
			if !any && v != value {
				return false
			}
		}
	}
	return !any
}

func floorDiv(a, b int) int {
	if a >= 0 {
		return a / b
	}
	return -((-a + b - 1) / b)
}

func ceilDiv(a, b int) int {
	if a >= 0 {
		return (a + b - 1) / b
	}
	return -((-a) / b)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Depth reports how many ScaleDown levels are currently pushed.
func (m *Mask) Depth() int { return len(m.levels) }

// ScaleDown replaces the mask with its next-coarser pyramid level
// (level 1 of the LOD stack becomes the new level 0), collapsing any
// Indeterminate cells to Unknown so coarse levels err toward completion.
func (m *Mask) ScaleDown() {
	m.levels = append(m.levels, maskSnapshot{width: m.Width, height: m.Height, lods: m.lods})

	if len(m.lods) < 2 {
		// Already at the coarsest LOD; duplicate it so scaling remains
		// well-defined at the pyramid's lowest-resolution pass.
		top := m.lods[len(m.lods)-1]
		collapsed := collapseIndeterminate(top)
		m.Width, m.Height = collapsed.width, collapsed.height
		m.lods = []lodLevel{collapsed}
		return
	}

	next := collapseIndeterminate(m.lods[1])
	m.Width, m.Height = next.width, next.height
	m.lods = m.lods[1:]
	m.lods[0] = next
}

func collapseIndeterminate(lvl lodLevel) lodLevel {
	out := make([]MaskValue, len(lvl.values))
	for i, v := range lvl.values {
		if v == Indeterminate {
			out[i] = Unknown
		} else {
			out[i] = v
		}
	}
	return lodLevel{width: lvl.width, height: lvl.height, values: out}
}

// ScaleUp restores the parent level pushed by the matching ScaleDown.
func (m *Mask) ScaleUp() {
	n := len(m.levels) - 1
	snap := m.levels[n]
	m.levels = m.levels[:n]
	m.Width, m.Height, m.lods = snap.width, snap.height, snap.lods
}
