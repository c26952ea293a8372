package imagecompleter

// Scalable is satisfied as-is by Settings, Mask and LabelSet: ScaleDown
// pushes a new, coarser resolution onto an internal stack; ScaleUp pops
// it back off; Depth reports how many ScaleDown calls are currently
// pending a ScaleUp. Image and NodeSet participate in the same five-
// subsystem pyramid but need extra arguments (Image.ScaleDown takes the
// parent mask; NodeSet.ScaleUp takes the label sets and coarse nodes
// needed to carry labels forward), so they keep their own matching
// method names without formally implementing this interface.
//
// All five subsystems must always be scaled in lockstep and in the exact
// order settings, image, mask, labels, nodes — see the pyramid
// orchestrator in pyramid.go, which is the only caller of ScaleDown/ScaleUp.
type Scalable interface {
	ScaleDown()
	ScaleUp()
	Depth() int
}

// scaleDownAll and scaleUpAll apply the pyramid orchestrator's required
// ordering to a fixed set of Scalable subsystems, so the ordering is
// expressed once instead of at every call site.
func scaleDownAll(items ...Scalable) {
	for _, s := range items {
		s.ScaleDown()
	}
}

func scaleUpAll(items ...Scalable) {
	for i := len(items) - 1; i >= 0; i-- {
		items[i].ScaleUp()
	}
}
