// Package imagecompleter fills the Unknown region of an image from its
// own Known region using the Priority-BP algorithm of Komodakis and
// Tziritas: a coarse-to-fine image pyramid, a Markov Random Field over
// lattice-spaced patch candidates, and a feathered compositor.
package imagecompleter

import (
	"fmt"
	"io"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/lafarren-go/imagecompleter/internal/compositor"
)

const maxImageDimension = 32767

// Complete is the engine's single public operation (spec §4.14): it
// validates inputs, either replays patches from patchesReader or solves
// the pyramid fresh, optionally records the solved patches to
// patchesWriter, and composites the result into output. Either io
// argument may be nil. Complete returns false (with a non-nil error)
// rather than panicking on any invalid input, matching the original
// library's "no exceptions escape the core" policy.
func Complete(settings Settings, input *Image, mask *Mask, output *Image, patchesReader io.Reader, patchesWriter io.Writer) (bool, error) {
	return CompleteWithLogger(settings, input, mask, output, patchesReader, patchesWriter, nil)
}

// CompleteWithLogger is Complete with an explicit logger for solve
// progress; a nil logger falls back to logrus's standard logger.
func CompleteWithLogger(settings Settings, input *Image, mask *Mask, output *Image, patchesReader io.Reader, patchesWriter io.Writer, log *logrus.Logger) (bool, error) {
	return CompleteAdvanced(settings, input, mask, output, patchesReader, patchesWriter, log, nil)
}

// CompleteAdvanced is Complete with every collaborator the CLI's -sd flag
// needs exposed: a logger, and a dumpLevel hook invoked with each pyramid
// level's solved patches (coarsest first) so a caller can render an
// intermediate preview per low-resolution pass. The settings value passed
// to dumpLevel is that level's own scaled Settings, not the finest
// level's, so its PatchWidth/PatchHeight always match the accompanying
// image/mask. dumpLevel is skipped entirely if patchesReader is set,
// since no pyramid solve happens.
func CompleteAdvanced(settings Settings, input *Image, mask *Mask, output *Image, patchesReader io.Reader, patchesWriter io.Writer, log *logrus.Logger, dumpLevel func(depth int, settings Settings, image *Image, mask *Mask, patches []Patch)) (bool, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	if err := validateInputs(settings, input, mask, output); err != nil {
		return false, err
	}

	var patches []Patch
	if patchesReader != nil {
		var err error
		patches, err = ReadPatches(patchesReader)
		if err != nil {
			return false, fmt.Errorf("imagecompleter: complete: %w", err)
		}
	} else {
		settingsCopy := settings
		pyramid := NewPyramid(&settingsCopy, input, mask, log)
		pyramid.DumpLevel = dumpLevel
		patches = pyramid.Solve()

		if patchesWriter != nil {
			if err := WritePatches(patchesWriter, patches); err != nil {
				return false, fmt.Errorf("imagecompleter: complete: %w", err)
			}
		}
	}

	composite(settings, input, mask, output, patches)
	return true, nil
}

func validateInputs(settings Settings, input *Image, mask *Mask, output *Image) error {
	if err := settings.Validate(); err != nil {
		return err
	}
	if input.Width == 0 || input.Height == 0 {
		return ErrEmptyImage
	}
	if input.Width > maxImageDimension || input.Height > maxImageDimension {
		return ErrImageTooLarge
	}
	if input.Width != mask.Width || input.Height != mask.Height {
		return ErrImageMaskSizeMismatch
	}
	if output.Width != input.Width || output.Height != input.Height {
		return ErrImageMaskSizeMismatch
	}

	sawUnknown, sawKnown := false, false
	for y := 0; y < mask.Height && !(sawUnknown && sawKnown); y++ {
		for x := 0; x < mask.Width; x++ {
			switch mask.Value(x, y) {
			case Unknown:
				sawUnknown = true
			case Known:
				sawKnown = true
			}
		}
	}
	if !sawUnknown {
		return ErrMaskAllKnown
	}
	if !sawKnown {
		return ErrMaskAllUnknown
	}
	return nil
}

// composite bridges this package's Image/Mask/Patch/Settings types into
// internal/compositor's primitive-typed Input, dispatches to the
// settings-selected PatchType/PatchBlender/OutputBlender roles, and
// writes the resulting 8-bit pixels into output.
func composite(settings Settings, input *Image, mask *Mask, output *Image, patches []Patch) {
	result := CompositeToImage(settings, input, mask, patches)
	copy(output.Pix, result.Pix)
}

// CompositeToImage runs the compositor and returns a freshly allocated
// Image, the same size as input, with the patches applied. Exposed for
// callers (such as the CLI's -sd low-resolution-pass dump) that want a
// preview of an intermediate pyramid level without an existing output
// buffer to write into.
func CompositeToImage(settings Settings, input *Image, mask *Mask, patches []Patch) *Image {
	sorted := make([]Patch, len(patches))
	copy(sorted, patches)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Priority < sorted[j].Priority })

	inputFloat := compositor.NewImageFloat(input.Width, input.Height)
	for y := 0; y < input.Height; y++ {
		for x := 0; x < input.Width; x++ {
			p := input.At(x, y)
			inputFloat.Set(x, y, compositor.RGB{R: float64(p.R), G: float64(p.G), B: float64(p.B)})
		}
	}

	compositorPatches := make([]compositor.Patch, len(sorted))
	for i, p := range sorted {
		compositorPatches[i] = compositor.Patch{
			SrcLeft:  int(p.SrcLeft),
			SrcTop:   int(p.SrcTop),
			DestLeft: int(p.DestLeft),
			DestTop:  int(p.DestTop),
			Priority: float64(p.Priority),
			Order:    i,
		}
	}

	maskFn := func(x, y int) compositor.MaskValue {
		switch mask.Value(x, y) {
		case Known:
			return compositor.Known
		case Ignored:
			return compositor.Ignored
		default:
			return compositor.Unknown
		}
	}

	cin := compositor.Input{
		InputImage: inputFloat,
		Mask:       maskFn,
		MaskWidth:  mask.Width,
		MaskHeight: mask.Height,
		Patches:    compositorPatches,
		PatchWidth: settings.PatchWidth,
		PatchHeight: settings.PatchHeight,
	}

	patchTypeFactory := patchTypeFactoryFor(settings.CompositorPatchType)
	patchBlenderFactory := patchBlenderFactoryFor(settings.CompositorPatchBlender)
	outputBlender := outputBlenderFor(settings.CompositorOutputBlender)

	pix := compositor.Compose(cin, patchTypeFactory, patchBlenderFactory, outputBlender)
	out := NewImage(input.Width, input.Height)
	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			i := (y*out.Width + x) * 3
			out.Set(x, y, Pixel{R: pix[i], G: pix[i+1], B: pix[i+2]})
		}
	}
	return out
}

func patchTypeFactoryFor(t CompositorPatchType) compositor.PatchTypeFactory {
	switch t {
	case CompositorPatchTypeDebugPatchOrder:
		return compositor.NewPatchTypeDebugPatchOrder
	case CompositorPatchTypePoisson:
		return compositor.NewPatchTypePoisson
	default:
		return compositor.NewPatchTypeNormal
	}
}

func patchBlenderFactoryFor(b CompositorPatchBlender) compositor.PatchBlenderFactory {
	if b == CompositorPatchBlenderNone {
		return compositor.NewPatchBlenderNone
	}
	return compositor.NewPatchBlenderPriority
}

func outputBlenderFor(b CompositorOutputBlender) compositor.OutputBlender {
	switch b {
	case CompositorOutputBlenderNone:
		return compositor.OutputBlenderNone{}
	case CompositorOutputBlenderDebugSoftMaskIntensity:
		return &compositor.OutputBlenderDebugSoftMaskIntensity{BlurRadius: 2}
	default:
		return compositor.NewOutputBlenderSoftMask()
	}
}
