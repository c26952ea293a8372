package imagecompleter

// CompositorPatchType selects how a solved patch's pixels are obtained
// during composition.
type CompositorPatchType int

const (
	CompositorPatchTypeNormal CompositorPatchType = iota
	CompositorPatchTypeDebugPatchOrder
	CompositorPatchTypePoisson
)

// CompositorPatchBlender selects how overlapping patches combine.
type CompositorPatchBlender int

const (
	CompositorPatchBlenderPriority CompositorPatchBlender = iota
	CompositorPatchBlenderNone
)

// CompositorOutputBlender selects how the blended-patches image merges
// with the original input into the final output.
type CompositorOutputBlender int

const (
	CompositorOutputBlenderSoftMask CompositorOutputBlender = iota
	CompositorOutputBlenderNone
	CompositorOutputBlenderDebugSoftMaskIntensity
)

// AutoLowResolutionPasses requests that the pyramid orchestrator recurse
// until the size/patch floors in spec §4.11 are hit, rather than stopping
// at a caller-fixed depth.
const AutoLowResolutionPasses = -1

const (
	latticeGapMin        = 4
	patchToLatticeRatio  = 2
	patchSideMin         = latticeGapMin * patchToLatticeRatio
	postPruneLabelMin    = 3
	postPruneLabelMax    = postPruneLabelMin * 64
	numIterationsDefault = 2
)

// Settings holds every validated, scalable tunable of the completion
// engine. A scaled-down copy halves the lattice gap, recomputes patch
// dimensions from it, and widens the post-prune label bounds 4x so
// coarser levels keep more candidates to absorb the coarsening error.
type Settings struct {
	LowResolutionPassesMax int // >= -1 (AutoLowResolutionPasses) or >= 0
	NumIterations          int // >= 1

	LatticeGapX, LatticeGapY int // >= latticeGapMin
	PatchWidth, PatchHeight  int // == 2 * gap

	ConfidenceBeliefThreshold   Energy
	PruneBeliefThreshold        Energy
	PruneEnergySimilarThreshold Energy

	PostPruneLabelsMin int // >= postPruneLabelMin
	PostPruneLabelsMax int // >= PostPruneLabelsMin

	CompositorPatchType    CompositorPatchType
	CompositorPatchBlender CompositorPatchBlender
	CompositorOutputBlender CompositorOutputBlender

	levels []settingsLevel
}

type settingsLevel Settings

// DefaultSettings derives lattice gap and thresholds from an image's
// dimensions the way the original library's SettingsConstruct did:
// gap = max(4, floor(4 * dim / 100)), clamped so the x/y gap ratio never
// exceeds 2, then thresholds derived from a heuristic per-patch SSD
// baseline (ssd0).
func DefaultSettings(imageWidth, imageHeight int) Settings {
	const imageSizeAtGapMin = 100.0
	widthScale := float64(imageWidth) / imageSizeAtGapMin
	heightScale := float64(imageHeight) / imageSizeAtGapMin

	gapX := lerpInt(0, latticeGapMin, widthScale)
	gapY := lerpInt(0, latticeGapMin, heightScale)
	if gapX < latticeGapMin {
		gapX = latticeGapMin
	}
	if gapY < latticeGapMin {
		gapY = latticeGapMin
	}

	const gapRatioMax = 2.0
	ratio := float64(gapX) / float64(gapY)
	if ratio > gapRatioMax {
		gapX = int(float64(gapY) * gapRatioMax)
	} else if 1/ratio > gapRatioMax {
		gapY = int(float64(gapX) * gapRatioMax)
	}

	return settingsFromGap(gapX, gapY)
}

func lerpInt(a, b int, t float64) int {
	return int(float64(a) + t*float64(b-a))
}

func settingsFromGap(gapX, gapY int) Settings {
	patchW := gapX * patchToLatticeRatio
	patchH := gapY * patchToLatticeRatio

	const ssd0ComponentDiff = Energy(0.15 * 255.0)
	ssd0ComponentDiffSq := ssd0ComponentDiff * ssd0ComponentDiff
	ssd0RgbDiffSq := 3 * ssd0ComponentDiffSq
	ssd0 := Energy(patchW*patchH) * ssd0RgbDiffSq

	return Settings{
		LowResolutionPassesMax:      AutoLowResolutionPasses,
		NumIterations:               numIterationsDefault,
		LatticeGapX:                 gapX,
		LatticeGapY:                 gapY,
		PatchWidth:                  patchW,
		PatchHeight:                 patchH,
		ConfidenceBeliefThreshold:   -ssd0,
		PruneBeliefThreshold:        -2 * ssd0,
		PruneEnergySimilarThreshold: ssd0 / 2,
		PostPruneLabelsMin:          postPruneLabelMin,
		PostPruneLabelsMax:          postPruneLabelMin * 4,
		CompositorPatchType:         CompositorPatchTypeNormal,
		CompositorPatchBlender:      CompositorPatchBlenderPriority,
		CompositorOutputBlender:     CompositorOutputBlenderSoftMask,
	}
}

// Validate checks every field and, rather than stopping at the first
// problem, collects every violation into a *SettingsError (nil if valid),
// matching AreSettingsValid's exhaustive-handler behavior.
func (s *Settings) Validate() error {
	errs := &SettingsError{}

	if s.LowResolutionPassesMax < AutoLowResolutionPasses {
		errs.add("LowResolutionPassesMax", "must be >= -1")
	}
	if s.NumIterations < 1 {
		errs.add("NumIterations", "must be >= 1")
	}
	if s.LatticeGapX < latticeGapMin {
		errs.add("LatticeGapX", "must be >= 4")
	}
	if s.LatticeGapY < latticeGapMin {
		errs.add("LatticeGapY", "must be >= 4")
	}
	if s.PatchWidth < patchSideMin {
		errs.add("PatchWidth", "must be >= 8")
	}
	if s.PatchHeight < patchSideMin {
		errs.add("PatchHeight", "must be >= 8")
	}
	if s.PostPruneLabelsMin < postPruneLabelMin {
		errs.add("PostPruneLabelsMin", "must be >= 3")
	}
	if s.PostPruneLabelsMax < s.PostPruneLabelsMin {
		errs.add("PostPruneLabelsMax", "must be >= PostPruneLabelsMin")
	}
	if s.CompositorPatchType < CompositorPatchTypeNormal || s.CompositorPatchType > CompositorPatchTypePoisson {
		errs.add("CompositorPatchType", "unrecognized patch type")
	}
	if s.CompositorPatchBlender < CompositorPatchBlenderPriority || s.CompositorPatchBlender > CompositorPatchBlenderNone {
		errs.add("CompositorPatchBlender", "unrecognized patch blender")
	}
	if s.CompositorOutputBlender < CompositorOutputBlenderSoftMask || s.CompositorOutputBlender > CompositorOutputBlenderDebugSoftMaskIntensity {
		errs.add("CompositorOutputBlender", "unrecognized output blender")
	}

	if len(errs.Fields) == 0 {
		return nil
	}
	return errs
}

// Depth reports how many ScaleDown levels are currently pushed.
func (s *Settings) Depth() int { return len(s.levels) }

// ScaleDown halves the lattice gap, recomputes patch dimensions from the
// halved gap (rather than halving patchWidth/Height directly, to avoid
// even/odd drift), and widens the post-prune label bounds 4x.
func (s *Settings) ScaleDown() {
	s.levels = append(s.levels, settingsLevel(*s))

	s.LatticeGapX /= 2
	s.LatticeGapY /= 2
	if s.LatticeGapX < 1 {
		s.LatticeGapX = 1
	}
	if s.LatticeGapY < 1 {
		s.LatticeGapY = 1
	}
	s.PatchWidth = s.LatticeGapX * patchToLatticeRatio
	s.PatchHeight = s.LatticeGapY * patchToLatticeRatio

	const postPruneScaleMultiplier = 4
	s.PostPruneLabelsMin *= postPruneScaleMultiplier
	s.PostPruneLabelsMax *= postPruneScaleMultiplier
}

// ScaleUp restores the parent level pushed by the matching ScaleDown.
func (s *Settings) ScaleUp() {
	n := len(s.levels) - 1
	lvl := s.levels[n]
	s.levels = s.levels[:n]
	*s = Settings(lvl)
}
