package imagecompleter

// NodeSet owns every MRF node at the current pyramid level: their
// lattice construction, neighbor wiring, priorities and commit state.
type NodeSet struct {
	ctx   *NodeContext
	nodes []*Node

	priorities map[*Node]Priority
	committed  map[*Node]bool

	levels []nodeSetLevel
}

type nodeSetLevel struct {
	nodes      []*Node
	priorities map[*Node]Priority
	committed  map[*Node]bool
}

// NewNodeSet places lattice points at (k*gapX, j*gapY) over a grid padded
// by one gap in every direction, creating a node only where its
// patchW x patchH neighborhood touches at least one Unknown cell, then
// wires orthogonal neighbors.
func NewNodeSet(ctx *NodeContext) *NodeSet {
	ns := &NodeSet{
		ctx:        ctx,
		priorities: make(map[*Node]Priority),
		committed:  make(map[*Node]bool),
	}

	gapX, gapY := ctx.Settings.LatticeGapX, ctx.Settings.LatticeGapY
	patchW, patchH := ctx.Settings.PatchWidth, ctx.Settings.PatchHeight

	minK := -1
	maxK := ctx.Mask.Width/gapX + 1
	minJ := -1
	maxJ := ctx.Mask.Height/gapY + 1

	grid := make(map[[2]int]*Node)
	for j := minJ; j <= maxJ; j++ {
		y := j * gapY
		for k := minK; k <= maxK; k++ {
			x := k * gapX
			left := x - patchW/2
			top := y - patchH/2
			if !ctx.Mask.RegionXywhHasAny(left, top, patchW, patchH, Unknown) {
				continue
			}
			n := NewNode(ctx, x, y)
			grid[[2]int{k, j}] = n
			ns.nodes = append(ns.nodes, n)
		}
	}

	for j := minJ; j <= maxJ; j++ {
		for k := minK; k <= maxK; k++ {
			n, ok := grid[[2]int{k, j}]
			if !ok {
				continue
			}
			if right, ok := grid[[2]int{k + 1, j}]; ok {
				n.AddNeighbor(right, EdgeRight)
			}
			if down, ok := grid[[2]int{k, j + 1}]; ok {
				n.AddNeighbor(down, EdgeDown)
			}
		}
	}

	for _, n := range ns.nodes {
		ns.priorities[n] = PriorityMin
	}
	return ns
}

// Nodes returns every node at the current level, in lattice-scan order.
func (ns *NodeSet) Nodes() []*Node { return ns.nodes }

// UpdatePriority recomputes and stores a node's priority.
func (ns *NodeSet) UpdatePriority(n *Node) {
	ns.priorities[n] = n.CalculatePriority()
}

// GetPriority returns a node's last-computed priority.
func (ns *NodeSet) GetPriority(n *Node) Priority { return ns.priorities[n] }

// SetCommitted marks whether a node has already been assigned a label
// this iteration (forward pass) or not yet (backward pass).
func (ns *NodeSet) SetCommitted(n *Node, committed bool) { ns.committed[n] = committed }

// IsCommitted reports a node's current commit state.
func (ns *NodeSet) IsCommitted(n *Node) bool { return ns.committed[n] }

// PickHighestPriorityUncommitted returns the uncommitted node with the
// highest priority, or nil if every node is committed.
func (ns *NodeSet) PickHighestPriorityUncommitted() *Node {
	var best *Node
	var bestPriority Priority
	for _, n := range ns.nodes {
		if ns.committed[n] {
			continue
		}
		p := ns.priorities[n]
		if best == nil || p > bestPriority {
			best = n
			bestPriority = p
		}
	}
	return best
}

// Depth reports how many ScaleDown levels are currently pushed.
func (ns *NodeSet) Depth() int { return len(ns.levels) }

// ScaleDown saves the current (finer) node set and builds a fresh,
// coarser lattice from ctx's now-coarser Mask/Settings/LabelSet. The
// caller must have already scaled ctx.Mask, ctx.Settings and
// ctx.LabelSet (and swapped ctx.Energy) before calling this, matching
// the pyramid orchestrator's fixed ordering (spec §4.11).
func (ns *NodeSet) ScaleDown() {
	ns.levels = append(ns.levels, nodeSetLevel{nodes: ns.nodes, priorities: ns.priorities, committed: ns.committed})

	fresh := NewNodeSet(ns.ctx)
	ns.nodes = fresh.nodes
	ns.priorities = fresh.priorities
	ns.committed = fresh.committed
}

// ScaleUp restores the finer node set saved by the matching ScaleDown,
// then seeds each restored node's label info from the coarse solve just
// completed: every coarse node's surviving (pruned) labels expand via
// LabelSet.ExpandLowToCurrent into up to 9 finer labels, each inheriting
// a copy of the coarse label's messages — carrying the coarse solution
// forward as a head start for the finer level's message passing, the
// same role ScaleUp plays in the original library.
//
// coarseLabelSet and coarseNodes must be the coarse level's label set
// and node set, captured by the caller before this call (the pyramid
// orchestrator already holds both).
func (ns *NodeSet) ScaleUp(coarseLabelSet, finerLabelSet *LabelSet, coarseNodes []*Node) {
	n := len(ns.levels) - 1
	lvl := ns.levels[n]
	ns.levels = ns.levels[:n]

	finerNodes := lvl.nodes
	ns.nodes, ns.priorities, ns.committed = finerNodes, lvl.priorities, lvl.committed

	gapRatioX := 2
	gapRatioY := 2
	finerByPos := make(map[[2]int]*Node, len(finerNodes))
	for _, fn := range finerNodes {
		finerByPos[[2]int{fn.X(), fn.Y()}] = fn
	}

	for _, cn := range coarseNodes {
		fn, ok := finerByPos[[2]int{cn.X() * gapRatioX, cn.Y() * gapRatioY}]
		if !ok {
			continue
		}
		fn.labelInfoSet = nil
		fn.populateLabelInfoSetIfNeeded()
		seeded := make(map[Label]bool)
		for _, cli := range cn.labelInfoSet {
			for _, fineLabel := range ExpandLowToCurrent(coarseLabelSet, finerLabelSet, cli.Label) {
				for i := range fn.labelInfoSet {
					if fn.labelInfoSet[i].Label == fineLabel && !seeded[fineLabel] {
						fn.labelInfoSet[i].Messages = cli.Messages
						seeded[fineLabel] = true
					}
				}
			}
		}
	}
}
