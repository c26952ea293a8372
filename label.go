package imagecompleter

// Label is a candidate source patch position: the top-left corner of a
// patchWidth x patchHeight rectangle that lies entirely within the
// image's Known region.
type Label struct {
	Left, Top int
}

// LabelSet holds every valid label at the current pyramid depth, backed
// by a bit grid (one bit per candidate top-left position) that accelerates
// scaling between pyramid levels, matching the original library's
// LabelBitArray-backed LabelSet.
type LabelSet struct {
	width, height     int // bit-grid dimensions at the current depth
	patchW, patchH    int
	bits              []bool // row-major, width*height
	labels            []Label

	levels []labelLevel
}

type labelLevel struct {
	width, height  int
	patchW, patchH int
	bits           []bool
	labels         []Label
}

// NewLabelSet enumerates every (x, y) with 0 <= x <= imgW-patchW,
// 0 <= y <= imgH-patchH whose patchW x patchH window lies entirely in
// mask's Known region. This is always called at the finest pyramid level.
func NewLabelSet(mask *Mask, imgW, imgH, patchW, patchH int) *LabelSet {
	width := imgW - patchW + 1
	height := imgH - patchH + 1
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}

	ls := &LabelSet{width: width, height: height, patchW: patchW, patchH: patchH}
	ls.bits = make([]bool, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if mask.RegionXywhHasAll(x, y, patchW, patchH, Known) {
				ls.bits[y*width+x] = true
				ls.labels = append(ls.labels, Label{Left: x, Top: y})
			}
		}
	}
	return ls
}

// Size returns the number of valid labels at the current depth.
func (ls *LabelSet) Size() int { return len(ls.labels) }

// At returns the i-th label.
func (ls *LabelSet) At(i int) Label { return ls.labels[i] }

// PatchSize returns the current level's patch dimensions.
func (ls *LabelSet) PatchSize() (w, h int) { return ls.patchW, ls.patchH }

// ExpandLowToCurrent maps a coarse-level label to up to 9 finer labels
// that are valid at the current (finer) resolution, mirroring
// GetLowToCurrentResolutionMapping: it scans the finer bit grid's
// corresponding 2x2 (or widened 3x2/2x3/3x3 at odd edges) block.
//
// ExpandLowToCurrent must be called on the LabelSet *before* ScaleUp, i.e.
// while it still holds the coarse bit grid whose odd-edge geometry
// produced lowLabel, and finer must be the already-scaled-up LabelSet.
func ExpandLowToCurrent(coarse, finer *LabelSet, lowLabel Label) []Label {
	baseX := lowLabel.Left * 2
	baseY := lowLabel.Top * 2

	oddX, oddY := oddEdgeBlockStart(finer.width, finer.height)

	blockW := 2
	blockH := 2
	if lowLabel.Left == coarse.width-1 && oddX >= 0 {
		baseX = oddX
		blockW = 3
	}
	if lowLabel.Top == coarse.height-1 && oddY >= 0 {
		baseY = oddY
		blockH = 3
	}

	var out []Label
	for dy := 0; dy < blockH; dy++ {
		y := baseY + dy
		if y < 0 || y >= finer.height {
			continue
		}
		for dx := 0; dx < blockW; dx++ {
			x := baseX + dx
			if x < 0 || x >= finer.width {
				continue
			}
			if finer.bits[y*finer.width+x] {
				out = append(out, Label{Left: x, Top: y})
			}
		}
	}
	return out
}

// Depth reports how many ScaleDown levels are currently pushed.
func (ls *LabelSet) Depth() int { return len(ls.levels) }

// ScaleDown halves the bit grid: a coarse bit is set if any of its 2x2
// (or odd-edge-widened) children were set in the finer grid, matching
// the original's coarsening copy-constructor. Patch dimensions are halved
// in place (rounding up), and the finer level is pushed so ScaleUp can
// restore it.
func (ls *LabelSet) ScaleDown() {
	ls.levels = append(ls.levels, labelLevel{
		width: ls.width, height: ls.height,
		patchW: ls.patchW, patchH: ls.patchH,
		bits: ls.bits, labels: ls.labels,
	})

	newW := (ls.width + 1) / 2
	newH := (ls.height + 1) / 2
	newBits := make([]bool, newW*newH)
	var newLabels []Label

	oddX, oddY := oddEdgeBlockStart(ls.width, ls.height)

	for by := 0; by < newH; by++ {
		y0, bh := childBlockRange(by, newH, ls.height, oddY)
		for bx := 0; bx < newW; bx++ {
			x0, bw := childBlockRange(bx, newW, ls.width, oddX)
			any := false
			for yy := y0; yy < y0+bh && !any; yy++ {
				for xx := x0; xx < x0+bw; xx++ {
					if ls.bits[yy*ls.width+xx] {
						any = true
						break
					}
				}
			}
			if any {
				newBits[by*newW+bx] = true
				newLabels = append(newLabels, Label{Left: bx, Top: by})
			}
		}
	}

	ls.width, ls.height = newW, newH
	ls.bits, ls.labels = newBits, newLabels
	ls.patchW = (ls.patchW + 1) / 2
	ls.patchH = (ls.patchH + 1) / 2
}

// PeekParent returns a snapshot of the level the matching ScaleDown
// pushed, without popping it — used by NodeSet.ScaleUp, which needs to
// know the finer level's label geometry before this label set itself
// scales back up to it.
func (ls *LabelSet) PeekParent() *LabelSet {
	n := len(ls.levels) - 1
	lvl := ls.levels[n]
	return &LabelSet{width: lvl.width, height: lvl.height, patchW: lvl.patchW, patchH: lvl.patchH, bits: lvl.bits, labels: lvl.labels}
}

// ScaleUp restores the parent level pushed by the matching ScaleDown.
func (ls *LabelSet) ScaleUp() {
	n := len(ls.levels) - 1
	lvl := ls.levels[n]
	ls.levels = ls.levels[:n]
	ls.width, ls.height = lvl.width, lvl.height
	ls.patchW, ls.patchH = lvl.patchW, lvl.patchH
	ls.bits, ls.labels = lvl.bits, lvl.labels
}
