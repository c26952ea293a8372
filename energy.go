package imagecompleter

import "github.com/lafarren-go/imagecompleter/internal/energy"

// Energy, Belief and the calculator/batch contracts are re-exported from
// internal/energy so node.go and the public API can refer to them without
// creating an import cycle (internal/energy works on raw pixel planes,
// not this package's Image/Mask, precisely to avoid that cycle).
type Energy = energy.Energy

const (
	EnergyMin = energy.EnergyMin
	EnergyMax = energy.EnergyMax
)

// Belief is an aggregated, negated energy score: higher is better.
type Belief float64

const BeliefMin = Belief(-1 << 48)

type EnergyCalculator = energy.Calculator
type EnergyBatch = energy.Batch

// buildEnergySource converts an Image into the float64 plane
// internal/energy operates on.
func buildEnergySource(img *Image) *energy.Source {
	src := energy.NewSource(img.Width, img.Height)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			p := img.At(x, y)
			src.Set(x, y, 0, float64(p.R))
			src.Set(x, y, 1, float64(p.G))
			src.Set(x, y, 2, float64(p.B))
		}
	}
	return src
}

// buildKnownMask converts a Mask into the bool plane internal/energy
// operates on for A-side masking.
func buildKnownMask(mask *Mask) *energy.KnownMask {
	km := &energy.KnownMask{W: mask.Width, H: mask.Height, Known: make([]bool, mask.Width*mask.Height)}
	for y := 0; y < mask.Height; y++ {
		for x := 0; x < mask.Width; x++ {
			km.Known[y*mask.Width+x] = mask.Value(x, y) == Known
		}
	}
	return km
}

// NewEnergyCalculator builds the energy-calculator container for one
// pyramid level (spec §4.7).
func NewEnergyCalculator(img *Image, mask *Mask, patchW, patchH int) EnergyCalculator {
	return energy.NewContainer(buildEnergySource(img), buildKnownMask(mask), patchW, patchH)
}
