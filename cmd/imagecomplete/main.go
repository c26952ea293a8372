// Command imagecomplete is the CLI collaborator around the
// imagecompleter engine: decode an image and a grayscale mask, solve or
// replay patches, and write the completed output.
package main

import (
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"io"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	imagecompleter "github.com/lafarren-go/imagecompleter"
)

type cliFlags struct {
	inputPath  string
	maskPath   string
	outputPath string

	showSettings bool
	dumpPasses   bool

	lowResPasses string
	iterations   int
	gapX, gapY   int
	postPruneMin, postPruneMax int
	patchType    string
	patchBlender string

	patchesInPath  string
	patchesOutPath string
}

func main() {
	os.Exit(run())
}

func run() int {
	f := &cliFlags{}
	cmd := &cobra.Command{
		Use:           "imagecomplete",
		Short:         "Fill the unknown region of an image using Priority-BP",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return execute(f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.inputPath, "ii", "", "input image path (required)")
	flags.StringVar(&f.maskPath, "im", "", "mask image path (required unless -ss)")
	flags.StringVar(&f.outputPath, "io", "", "output image path (required unless -ss)")
	flags.BoolVar(&f.showSettings, "ss", false, "show computed default settings and exit")
	flags.BoolVar(&f.dumpPasses, "sd", false, "dump each low-resolution pass as a separate output image")
	flags.StringVar(&f.lowResPasses, "sp", "auto", "max low-resolution passes (N or \"auto\")")
	flags.IntVar(&f.iterations, "si", 0, "iterations (>= 1); 0 keeps the computed default")
	flags.IntVar(&f.gapX, "sw", 0, "lattice gap X; 0 keeps the computed default")
	flags.IntVar(&f.gapY, "sh", 0, "lattice gap Y; 0 keeps the computed default")
	flags.IntVar(&f.postPruneMin, "smn", 0, "post-prune min labels; 0 keeps the computed default")
	flags.IntVar(&f.postPruneMax, "smx", 0, "post-prune max labels; 0 keeps the computed default")
	flags.StringVar(&f.patchType, "sct", "normal", "patch type: normal|poisson|debug-patch-order")
	flags.StringVar(&f.patchBlender, "scb", "priority", "patch blender: priority|none")
	flags.StringVar(&f.patchesInPath, "pi", "", "read patches from this file instead of solving")
	flags.StringVar(&f.patchesOutPath, "po", "", "write solved patches to this file")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func execute(f *cliFlags) error {
	log := logrus.StandardLogger()

	if f.inputPath == "" {
		return fmt.Errorf("imagecomplete: -ii is required")
	}
	inputImg, err := decodeImage(f.inputPath)
	if err != nil {
		return fmt.Errorf("imagecomplete: read input image: %w", err)
	}

	settings := imagecompleter.DefaultSettings(inputImg.Width, inputImg.Height)
	if err := applySettingsFlags(&settings, f); err != nil {
		return err
	}

	if f.showSettings {
		printSettings(settings)
		return nil
	}

	if f.maskPath == "" {
		return fmt.Errorf("imagecomplete: -im is required unless -ss")
	}
	if f.outputPath == "" {
		return fmt.Errorf("imagecomplete: -io is required unless -ss")
	}

	mask, err := decodeMask(f.maskPath, inputImg.Width, inputImg.Height)
	if err != nil {
		return fmt.Errorf("imagecomplete: read mask image: %w", err)
	}

	output := imagecompleter.NewImage(inputImg.Width, inputImg.Height)

	var patchesIn *os.File
	if f.patchesInPath != "" {
		patchesIn, err = os.Open(f.patchesInPath)
		if err != nil {
			return fmt.Errorf("imagecomplete: open patches input: %w", err)
		}
		defer patchesIn.Close()
	}

	var patchesOut *os.File
	if f.patchesOutPath != "" {
		patchesOut, err = os.Create(f.patchesOutPath)
		if err != nil {
			return fmt.Errorf("imagecomplete: create patches output: %w", err)
		}
		defer patchesOut.Close()
	}

	var dumpLevel func(depth int, levelSettings imagecompleter.Settings, img *imagecompleter.Image, m *imagecompleter.Mask, patches []imagecompleter.Patch)
	if f.dumpPasses {
		dumpLevel = func(depth int, levelSettings imagecompleter.Settings, img *imagecompleter.Image, m *imagecompleter.Mask, patches []imagecompleter.Patch) {
			preview := imagecompleter.CompositeToImage(levelSettings, img, m, patches)
			path := fmt.Sprintf("%s.pass%d.png", f.outputPath, depth)
			if err := encodeImage(path, preview); err != nil {
				log.WithError(err).Warn("imagecomplete: failed to write low-resolution pass dump")
			}
		}
	}

	var readerArg io.Reader
	if patchesIn != nil {
		readerArg = patchesIn
	}
	var writerArg io.Writer
	if patchesOut != nil {
		writerArg = patchesOut
	}

	ok, err := imagecompleter.CompleteAdvanced(settings, inputImg, mask, output, readerArg, writerArg, log, dumpLevel)
	if err != nil {
		return fmt.Errorf("imagecomplete: %w", err)
	}
	if !ok {
		return fmt.Errorf("imagecomplete: completion failed")
	}

	if err := encodeImage(f.outputPath, output); err != nil {
		return fmt.Errorf("imagecomplete: write output image: %w", err)
	}
	return nil
}

func applySettingsFlags(settings *imagecompleter.Settings, f *cliFlags) error {
	if f.lowResPasses != "" && f.lowResPasses != "auto" {
		n, err := strconv.Atoi(f.lowResPasses)
		if err != nil {
			return fmt.Errorf("imagecomplete: -sp must be an integer or \"auto\": %w", err)
		}
		settings.LowResolutionPassesMax = n
	}
	if f.iterations > 0 {
		settings.NumIterations = f.iterations
	}
	if f.gapX > 0 {
		settings.LatticeGapX = f.gapX
		settings.PatchWidth = f.gapX * 2
	}
	if f.gapY > 0 {
		settings.LatticeGapY = f.gapY
		settings.PatchHeight = f.gapY * 2
	}
	if f.postPruneMin > 0 {
		settings.PostPruneLabelsMin = f.postPruneMin
	}
	if f.postPruneMax > 0 {
		settings.PostPruneLabelsMax = f.postPruneMax
	}

	switch f.patchType {
	case "normal":
		settings.CompositorPatchType = imagecompleter.CompositorPatchTypeNormal
	case "poisson":
		settings.CompositorPatchType = imagecompleter.CompositorPatchTypePoisson
	case "debug-patch-order":
		settings.CompositorPatchType = imagecompleter.CompositorPatchTypeDebugPatchOrder
	default:
		return fmt.Errorf("imagecomplete: unrecognized -sct %q", f.patchType)
	}

	switch f.patchBlender {
	case "priority":
		settings.CompositorPatchBlender = imagecompleter.CompositorPatchBlenderPriority
	case "none":
		settings.CompositorPatchBlender = imagecompleter.CompositorPatchBlenderNone
	default:
		return fmt.Errorf("imagecomplete: unrecognized -scb %q", f.patchBlender)
	}

	if err := settings.Validate(); err != nil {
		return err
	}
	return nil
}

func printSettings(s imagecompleter.Settings) {
	fmt.Printf("LowResolutionPassesMax: %d\n", s.LowResolutionPassesMax)
	fmt.Printf("NumIterations: %d\n", s.NumIterations)
	fmt.Printf("LatticeGapX: %d\n", s.LatticeGapX)
	fmt.Printf("LatticeGapY: %d\n", s.LatticeGapY)
	fmt.Printf("PatchWidth: %d\n", s.PatchWidth)
	fmt.Printf("PatchHeight: %d\n", s.PatchHeight)
	fmt.Printf("ConfidenceBeliefThreshold: %v\n", s.ConfidenceBeliefThreshold)
	fmt.Printf("PruneBeliefThreshold: %v\n", s.PruneBeliefThreshold)
	fmt.Printf("PruneEnergySimilarThreshold: %v\n", s.PruneEnergySimilarThreshold)
	fmt.Printf("PostPruneLabelsMin: %d\n", s.PostPruneLabelsMin)
	fmt.Printf("PostPruneLabelsMax: %d\n", s.PostPruneLabelsMax)
}

func decodeImage(path string) (*imagecompleter.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := imagecompleter.NewImage(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			out.Set(x, y, imagecompleter.Pixel{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)})
		}
	}
	return out, nil
}

func decodeMask(path string, wantW, wantH int) (*imagecompleter.Mask, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w != wantW || h != wantH {
		return nil, fmt.Errorf("mask dimensions %dx%d do not match input image %dx%d", w, h, wantW, wantH)
	}

	values := make([]imagecompleter.MaskValue, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			gray := color.GrayModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			values[y*w+x] = imagecompleter.DecodeMaskByte(gray.Y)
		}
	}
	return imagecompleter.NewMask(w, h, values), nil
}

func encodeImage(path string, img *imagecompleter.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	rgba := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			p := img.At(x, y)
			rgba.SetRGBA(x, y, color.RGBA{R: p.R, G: p.G, B: p.B, A: 255})
		}
	}
	return png.Encode(f, rgba)
}
