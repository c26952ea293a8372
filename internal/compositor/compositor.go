package compositor

// Patch is a solved label ready for composition: a source rectangle
// copied to a destination rectangle, carrying the priority its owning
// node had when solved.
type Patch struct {
	SrcLeft, SrcTop   int
	DestLeft, DestTop int
	Priority          float64
	Order             int // 0-based position in ascending-priority order, for PatchTypeDebugPatchOrder
}

// MaskValue mirrors the root package's tri-valued mask so this package
// doesn't need to import it (avoiding a dependency cycle, since the root
// package imports this one).
type MaskValue int8

const (
	Unknown MaskValue = iota
	Known
	Ignored
)

// Input bundles everything a Compose call needs: the original input
// image and mask (read-only), the patch list in ascending-priority
// order, and patch/image geometry.
type Input struct {
	InputImage        *ImageFloat
	Mask              func(x, y int) MaskValue
	MaskWidth, MaskHeight int
	Patches           []Patch
	PatchWidth, PatchHeight int
}

// PatchType decides how a patch's pixels are obtained.
type PatchType interface {
	Get(p Patch) *ImageFloat
}

// PatchBlender decides how overlapping patches combine into a working
// "patches blended" image, supplied to its factory at construction time.
// Close must be called after every patch has been blended, to perform
// any end-of-pass normalization (e.g. dividing accumulated weights).
type PatchBlender interface {
	Blend(p Patch, patchImage *ImageFloat)
	Close()
}

// OutputBlender merges the blended-patches image with the original input
// image into the final output.
type OutputBlender interface {
	Blend(input Input, patchesBlended *ImageFloat, outOriginal *ImageFloat)
}

// PatchTypeFactory and PatchBlenderFactory construct a role instance
// bound to this Compose call's working images, mirroring the original
// library's per-role Factory objects.
type PatchTypeFactory func(input Input, outputImageFloat *ImageFloat) PatchType
type PatchBlenderFactory func(input Input, outputImageFloat, patchesBlended *ImageFloat) PatchBlender

// Compose is the compositor's single entry point (spec §4.12): build a
// float working copy of the input, run each patch through PatchType then
// PatchBlender, close the blender, then run OutputBlender to merge the
// result into a copy of the original, returning the final 8-bit image
// bytes (row-major RGB triples).
func Compose(input Input, patchTypeFactory PatchTypeFactory, patchBlenderFactory PatchBlenderFactory, outputBlender OutputBlender) []byte {
	outputImageFloat := NewImageFloat(input.InputImage.Width, input.InputImage.Height)
	copy(outputImageFloat.Pix, input.InputImage.Pix)

	patchesBlended := NewImageFloat(input.InputImage.Width, input.InputImage.Height)

	if len(input.Patches) > 0 {
		patchType := patchTypeFactory(input, outputImageFloat)
		patchBlender := patchBlenderFactory(input, outputImageFloat, patchesBlended)

		for _, patch := range input.Patches {
			patchImage := patchType.Get(patch)
			patchBlender.Blend(patch, patchImage)
		}
		patchBlender.Close()
	}

	outputBlender.Blend(input, patchesBlended, outputImageFloat)

	return outputImageFloat.ToBytes()
}
