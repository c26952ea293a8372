package imagecompleter

import "sort"

// PriorityBpRunner executes the Priority-BP algorithm at a single pyramid
// level: assign initial priorities, then repeat forward/backward message
// passes, then read off each node's best label as a solved Patch.
type PriorityBpRunner struct {
	nodeSet *NodeSet
	settings *Settings

	forwardOrder []*Node
}

func NewPriorityBpRunner(nodeSet *NodeSet, settings *Settings) *PriorityBpRunner {
	return &PriorityBpRunner{nodeSet: nodeSet, settings: settings}
}

// Run performs NumIterations rounds of ForwardPass followed by
// BackwardPass, after initializing every node's priority and marking all
// nodes uncommitted.
func (r *PriorityBpRunner) Run() {
	for _, n := range r.nodeSet.Nodes() {
		r.nodeSet.UpdatePriority(n)
		r.nodeSet.SetCommitted(n, false)
	}
	for i := 0; i < r.settings.NumIterations; i++ {
		r.ForwardPass()
		r.BackwardPass()
	}
}

// ForwardPass repeatedly takes the highest-priority uncommitted node,
// prunes its labels, commits it, appends it to the forward order, and
// has it message every still-uncommitted neighbor (updating that
// neighbor's priority afterward).
func (r *PriorityBpRunner) ForwardPass() {
	r.forwardOrder = r.forwardOrder[:0]
	n := len(r.nodeSet.Nodes())
	for i := 0; i < n; i++ {
		node := r.nodeSet.PickHighestPriorityUncommitted()
		if node == nil {
			break
		}
		node.PruneLabels()
		r.forwardOrder = append(r.forwardOrder, node)
		r.nodeSet.SetCommitted(node, true)
		r.processNeighbors(node, false)
	}
}

// BackwardPass replays the forward order in reverse, un-committing each
// node and having it message every now-committed neighbor.
func (r *PriorityBpRunner) BackwardPass() {
	for i := len(r.forwardOrder) - 1; i >= 0; i-- {
		node := r.forwardOrder[i]
		r.nodeSet.SetCommitted(node, false)
		r.processNeighbors(node, true)
	}
}

// processNeighbors sends messages from node to every neighbor whose
// commit state equals wantCommitted, then refreshes that neighbor's
// priority.
func (r *PriorityBpRunner) processNeighbors(node *Node, wantCommitted bool) {
	for e := NeighborEdge(0); e < NumNeighborEdges; e++ {
		neighbor := node.GetNeighbor(e)
		if neighbor == nil {
			continue
		}
		if r.nodeSet.IsCommitted(neighbor) != wantCommitted {
			continue
		}
		node.SendMessages(neighbor)
		r.nodeSet.UpdatePriority(neighbor)
	}
}

// RunAndGetPatches runs Run and returns the solved patches, sorted
// ascending by priority (spec §4.10) so a later compositing pass overlays
// more-confident patches atop less-confident ones.
func (r *PriorityBpRunner) RunAndGetPatches() []Patch {
	r.Run()

	patches := make([]Patch, 0, len(r.nodeSet.Nodes()))
	for _, node := range r.nodeSet.Nodes() {
		if len(node.labelInfoSet) == 0 {
			continue
		}
		label := node.BestLabel()
		patches = append(patches, Patch{
			SrcLeft:  int32(label.Left),
			SrcTop:   int32(label.Top),
			DestLeft: int32(node.GetLeft()),
			DestTop:  int32(node.GetTop()),
			Priority: float32(r.nodeSet.GetPriority(node)),
		})
	}

	sort.Slice(patches, func(i, j int) bool { return patches[i].Priority < patches[j].Priority })
	return patches
}
