package imagecompleter

// Pixel is a 3-channel 8-bit RGB sample, the only component layout this
// engine supports; other channel counts and component types are not
// handled.
type Pixel struct {
	R, G, B uint8
}

// SSD returns the sum of squared channel differences between two pixels,
// widened to avoid overflow: max per-channel diff is 255, squared is
// 65025, times 3 channels is under 2^18, comfortably inside an int32.
func (p Pixel) SSD(o Pixel) int32 {
	dr := int32(p.R) - int32(o.R)
	dg := int32(p.G) - int32(o.G)
	db := int32(p.B) - int32(o.B)
	return dr*dr + dg*dg + db*db
}

// SquaredNorm returns SSD against the zero pixel, i.e. sum of squared
// channel values, used by the windowed sum-squared table.
func (p Pixel) SquaredNorm() int32 {
	r := int32(p.R)
	g := int32(p.G)
	b := int32(p.B)
	return r*r + g*g + b*b
}

// Image is a row-major rectangular pixel buffer. It mirrors Scalable's
// ScaleUp/Depth but can't implement the interface exactly: ScaleDown needs
// the parent level's mask (to know which pixels are Known and may
// contribute to the average), so it takes that extra argument instead of
// matching Scalable's zero-argument signature. ScaleDown replaces the
// current view with a half-resolution image formed by averaging each 2x2
// block of the parent resolution, weighted by the parent mask so only
// Known pixels contribute. ScaleUp discards the current level and
// restores the parent.
type Image struct {
	Width, Height int
	Pix           []Pixel

	levels []imageLevel
}

type imageLevel struct {
	width, height int
	pix           []Pixel
}

// NewImage allocates a width x height image with zeroed pixels.
func NewImage(width, height int) *Image {
	return &Image{Width: width, Height: height, Pix: make([]Pixel, width*height)}
}

// NewImageFrom copies pix (must have len == width*height) into a new Image.
func NewImageFrom(width, height int, pix []Pixel) *Image {
	cp := make([]Pixel, len(pix))
	copy(cp, pix)
	return &Image{Width: width, Height: height, Pix: cp}
}

func (img *Image) index(x, y int) int { return y*img.Width + x }

// At returns the pixel at (x, y). Out-of-bounds reads clamp to the nearest
// edge pixel, which is never observed in practice since callers clip
// windows to the image rectangle before sampling.
func (img *Image) At(x, y int) Pixel {
	if x < 0 {
		x = 0
	} else if x >= img.Width {
		x = img.Width - 1
	}
	if y < 0 {
		y = 0
	} else if y >= img.Height {
		y = img.Height - 1
	}
	return img.Pix[img.index(x, y)]
}

// Set writes the pixel at (x, y). The caller must ensure (x, y) is in bounds.
func (img *Image) Set(x, y int, p Pixel) {
	img.Pix[img.index(x, y)] = p
}

// Depth reports how many levels have been pushed by ScaleDown.
func (img *Image) Depth() int { return len(img.levels) }

// ScaleDown replaces the image with a half-resolution average of 2x2
// blocks, restricted to pixels whose coincident cell in parentMask is
// Known. A block with no Known contributor is left zero; the pyramid
// orchestrator guarantees such a block's mask cell is never Known at the
// coarser level, so it is never sampled (see invariant 1 in spec's
// testable properties).
func (img *Image) ScaleDown(parentMask *Mask) {
	img.levels = append(img.levels, imageLevel{width: img.Width, height: img.Height, pix: img.Pix})

	newW := (img.Width + 1) / 2
	newH := (img.Height + 1) / 2
	newPix := make([]Pixel, newW*newH)

	for by := 0; by < newH; by++ {
		for bx := 0; bx < newW; bx++ {
			var sumR, sumG, sumB, count int32
			for dy := 0; dy < 2; dy++ {
				py := by*2 + dy
				if py >= img.Height {
					continue
				}
				for dx := 0; dx < 2; dx++ {
					px := bx*2 + dx
					if px >= img.Width {
						continue
					}
					if parentMask.Value(px, py) != Known {
						continue
					}
					p := img.At(px, py)
					sumR += int32(p.R)
					sumG += int32(p.G)
					sumB += int32(p.B)
					count++
				}
			}
			if count > 0 {
				newPix[by*newW+bx] = Pixel{
					R: uint8(sumR / count),
					G: uint8(sumG / count),
					B: uint8(sumB / count),
				}
			}
		}
	}

	img.Width, img.Height, img.Pix = newW, newH, newPix
}

// ScaleUp discards the current level's data and restores the parent level
// pushed by the matching ScaleDown.
func (img *Image) ScaleUp() {
	n := len(img.levels) - 1
	lvl := img.levels[n]
	img.levels = img.levels[:n]
	img.Width, img.Height, img.Pix = lvl.width, lvl.height, lvl.pix
}
