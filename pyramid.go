package imagecompleter

import "github.com/sirupsen/logrus"

// minRecurseImageDim and minRecursePatchHalf are the floors from spec
// §4.11 below which recursing one level deeper is no longer worthwhile.
const (
	minRecurseImageDim  = 50
	minRecursePatchHalf = patchSideMin / 2
)

// Pyramid is the coarse-to-fine orchestrator: it owns the one mutable
// Image, Mask, LabelSet, Settings and NodeSet instance used at every
// level, scaling all five in lockstep in the exact order the image
// scaler's dependency on the mask requires (spec §4.11's "settings,
// image, mask, label set, node set").
type Pyramid struct {
	settings *Settings
	image    *Image
	mask     *Mask
	labelSet *LabelSet
	nodeSet  *NodeSet
	ctx      *NodeContext

	log *logrus.Logger

	// DumpLevel, if non-nil, is invoked with each level's solved patches
	// right after that level's Priority-BP run (coarsest level first),
	// letting a caller (e.g. the CLI's -sd flag) render an intermediate
	// preview per low-resolution pass. settings is that level's own
	// scaled Settings value (PatchWidth/PatchHeight match image/mask at
	// that depth), not the finest level's.
	DumpLevel func(depth int, settings Settings, image *Image, mask *Mask, patches []Patch)
}

// NewPyramid builds the finest-level label set, energy calculator and
// node lattice, ready for Solve.
func NewPyramid(settings *Settings, image *Image, mask *Mask, log *logrus.Logger) *Pyramid {
	if log == nil {
		log = logrus.StandardLogger()
	}
	labelSet := NewLabelSet(mask, image.Width, image.Height, settings.PatchWidth, settings.PatchHeight)
	calc := NewEnergyCalculator(image, mask, settings.PatchWidth, settings.PatchHeight)

	ctx := &NodeContext{Settings: settings, Mask: mask, LabelSet: labelSet, Energy: calc}
	nodeSet := NewNodeSet(ctx)

	return &Pyramid{settings: settings, image: image, mask: mask, labelSet: labelSet, nodeSet: nodeSet, ctx: ctx, log: log}
}

// Solve recurses to the coarsest permitted level, solving bottom-up and
// carrying labels forward on the way back to depth 0, then performs one
// final Priority-BP solve at depth 0 using those carried-forward labels,
// returning the resulting patches ascending by priority.
func (p *Pyramid) Solve() []Patch {
	p.recurse(0)
	p.log.WithFields(logrus.Fields{"depth": 0, "nodes": len(p.nodeSet.Nodes())}).Debug("imagecompleter: solving depth 0")
	runner := NewPriorityBpRunner(p.nodeSet, p.settings)
	patches := runner.RunAndGetPatches()
	if p.DumpLevel != nil {
		p.DumpLevel(0, *p.settings, p.image, p.mask, patches)
	}
	return patches
}

func (p *Pyramid) shouldRecurse(depth int) bool {
	s := p.settings
	if s.PatchWidth/2 < minRecursePatchHalf {
		return false
	}
	if s.PatchHeight/2 < minRecursePatchHalf {
		return false
	}
	if p.image.Width/2 < minRecurseImageDim {
		return false
	}
	if p.image.Height/2 < minRecurseImageDim {
		return false
	}
	if s.LowResolutionPassesMax != AutoLowResolutionPasses && depth > s.LowResolutionPassesMax {
		return false
	}
	return true
}

func (p *Pyramid) recurse(depth int) {
	if !p.shouldRecurse(depth) {
		p.log.WithFields(logrus.Fields{"depth": depth, "nodes": len(p.nodeSet.Nodes())}).Debug("imagecompleter: solving coarsest level")
		runner := NewPriorityBpRunner(p.nodeSet, p.settings)
		if p.DumpLevel != nil {
			p.DumpLevel(depth, *p.settings, p.image, p.mask, runner.RunAndGetPatches())
		} else {
			runner.Run()
		}
		return
	}

	p.settings.ScaleDown()
	p.image.ScaleDown(p.mask)
	// mask and labelSet both satisfy Scalable with no extra arguments, so
	// the pair scales as a unit via the shared ordering helper; settings
	// scales first (above) and image can't join the group since its
	// ScaleDown needs the parent mask, so it keeps its own call.
	scaleDownAll(p.mask, p.labelSet)
	p.ctx.Energy = NewEnergyCalculator(p.image, p.mask, p.settings.PatchWidth, p.settings.PatchHeight)
	p.nodeSet.ScaleDown()

	p.recurse(depth + 1)

	p.log.WithFields(logrus.Fields{"depth": depth + 1, "nodes": len(p.nodeSet.Nodes())}).Debug("imagecompleter: solving level")
	runner := NewPriorityBpRunner(p.nodeSet, p.settings)
	if p.DumpLevel != nil {
		p.DumpLevel(depth+1, *p.settings, p.image, p.mask, runner.RunAndGetPatches())
	} else {
		runner.Run()
	}

	coarseNodes := p.nodeSet.Nodes()
	finerLabelSetView := p.labelSet.PeekParent()
	p.nodeSet.ScaleUp(p.labelSet, finerLabelSetView, coarseNodes)
	scaleUpAll(p.mask, p.labelSet)
	p.image.ScaleUp()
	p.settings.ScaleUp()
	p.ctx.Energy = NewEnergyCalculator(p.image, p.mask, p.settings.PatchWidth, p.settings.PatchHeight)
}
