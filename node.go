package imagecompleter

import "sort"

// NeighborEdge identifies one of a node's four lattice-orthogonal edges.
// The order matches the original library's NeighborEdge enum and is used
// to index into a LabelInfo's per-edge message array.
type NeighborEdge int

const (
	EdgeLeft NeighborEdge = iota
	EdgeUp
	EdgeRight
	EdgeDown
	NumNeighborEdges
)

// Opposite returns the edge a neighbor uses to point back at this node.
func (e NeighborEdge) Opposite() NeighborEdge {
	switch e {
	case EdgeLeft:
		return EdgeRight
	case EdgeRight:
		return EdgeLeft
	case EdgeUp:
		return EdgeDown
	case EdgeDown:
		return EdgeUp
	}
	return e
}

// NodeContext consolidates the external references every node needs.
// Settings, Mask and LabelSet are the same instances throughout a
// pyramid level's lifetime (they scale in place); Energy is swapped out
// by the pyramid orchestrator whenever it enters or leaves a level, since
// a level's energy calculator operates over that level's own image/mask.
type NodeContext struct {
	Settings *Settings
	Mask     *Mask
	LabelSet *LabelSet
	Energy   EnergyCalculator
}

// LabelInfo is a node's per-candidate-label state: the label itself and
// the four inbound messages received from its neighbors, indexed by the
// edge each message arrived on.
type LabelInfo struct {
	Label    Label
	Messages [NumNeighborEdges]Energy
}

// Node is a single Markov Random Field vertex at a lattice point whose
// patch neighborhood intersects the Unknown region.
type Node struct {
	ctx *NodeContext

	x, y           int // lattice point, current pyramid level
	patchW, patchH int

	neighbors [NumNeighborEdges]*Node

	labelInfoSet        []LabelInfo
	overlapsKnownRegion bool
	hasPrunedOnce       bool
}

// NewNode creates a node at lattice point (x, y). Its overlapsKnownRegion
// flag is computed once, from whether its patch rectangle touches any
// Known cell. It is reported by OverlapsKnownRegion and consulted only by
// calculateBeliefSlow; message passing, pruning and priority computation
// evaluate label energies regardless of it.
func NewNode(ctx *NodeContext, x, y int) *Node {
	n := &Node{ctx: ctx, x: x, y: y, patchW: ctx.Settings.PatchWidth, patchH: ctx.Settings.PatchHeight}
	n.overlapsKnownRegion = ctx.Mask.RegionXywhHasAny(n.GetLeft(), n.GetTop(), n.patchW, n.patchH, Known)
	return n
}

// GetLeft and GetTop return the image-space top-left of any label placed
// at this node: the lattice point is the patch's center, not its corner.
func (n *Node) GetLeft() int { return n.x - n.patchW/2 }
func (n *Node) GetTop() int  { return n.y - n.patchH/2 }

func (n *Node) X() int { return n.x }
func (n *Node) Y() int { return n.y }

// OverlapsKnownRegion reports whether this node's patch rectangle touches
// any Known cell.
func (n *Node) OverlapsKnownRegion() bool { return n.overlapsKnownRegion }

// AddNeighbor links this node to neighbor along edge, and neighbor back
// to this node along the opposite edge. Returns false if the edge slot
// was already occupied.
func (n *Node) AddNeighbor(neighbor *Node, edge NeighborEdge) bool {
	if n.neighbors[edge] != nil {
		return false
	}
	n.neighbors[edge] = neighbor
	neighbor.neighbors[edge.Opposite()] = n
	return true
}

// GetNeighbor returns the neighbor along edge, or nil.
func (n *Node) GetNeighbor(edge NeighborEdge) *Node { return n.neighbors[edge] }

// GetNeighborEdge returns the edge on this node that points at other.
// other must be an existing neighbor.
func (n *Node) GetNeighborEdge(other *Node) NeighborEdge {
	for e := NeighborEdge(0); e < NumNeighborEdges; e++ {
		if n.neighbors[e] == other {
			return e
		}
	}
	return NumNeighborEdges
}

// populateLabelInfoSetIfNeeded copies the global label set into this
// node's own label set with cleared messages, the first time the node is
// touched at a given pyramid level.
func (n *Node) populateLabelInfoSetIfNeeded() {
	if n.labelInfoSet != nil {
		return
	}
	size := n.ctx.LabelSet.Size()
	n.labelInfoSet = make([]LabelInfo, size)
	for i := 0; i < size; i++ {
		n.labelInfoSet[i].Label = n.ctx.LabelSet.At(i)
	}
}

// computeOverlap returns the rectangle shared by this node's and
// neighbor's patchW x patchH footprints.
func computeOverlap(n, neighbor *Node) (left, top, w, h int) {
	aLeft, aTop := n.GetLeft(), n.GetTop()
	bLeft, bTop := neighbor.GetLeft(), neighbor.GetTop()

	left = max(aLeft, bLeft)
	top = max(aTop, bTop)
	right := min(aLeft+n.patchW, bLeft+neighbor.patchW)
	bottom := min(aTop+n.patchH, bTop+neighbor.patchH)
	w = right - left
	h = bottom - top
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return
}

// SendMessages computes and stores, into neighbor's label info, every
// belief-propagation message this node sends along their shared edge
// (spec §4.9's send_messages). For each neighbor label q, the message is
// the minimum over this node's candidate labels p of:
//
//	energy(p) + overlapEnergy(p, q) + sum of this node's inbound messages
//	on every edge except the one connecting to neighbor
//
// followed by subtracting the global minimum so the smallest message is
// always 0 (standard BP normalization, spec invariant 5).
func (n *Node) SendMessages(neighbor *Node) {
	n.populateLabelInfoSetIfNeeded()
	neighbor.populateLabelInfoSetIfNeeded()

	qEdgeInP := n.GetNeighborEdge(neighbor)
	pEdgeInQ := neighbor.GetNeighborEdge(n)

	nLeft, nTop := n.GetLeft(), n.GetTop()

	pLabelEnergies := make([]Energy, len(n.labelInfoSet))
	if len(n.labelInfoSet) > 0 {
		batch := n.ctx.Energy.OpenBatch(nLeft, nTop, n.patchW, n.patchH, true)
		handles := make([]int, len(n.labelInfoSet))
		for i, li := range n.labelInfoSet {
			handles[i] = batch.Queue(li.Label.Left, li.Label.Top)
		}
		batch.Process()
		for i, h := range handles {
			pLabelEnergies[i] = batch.Get(h)
		}
	}

	overlapLeft, overlapTop, overlapW, overlapH := computeOverlap(n, neighbor)
	qLen := len(neighbor.labelInfoSet)
	if qLen == 0 || overlapW <= 0 || overlapH <= 0 {
		return
	}

	messages := make([]Energy, qLen)
	var messagesMin Energy

	for pi, pli := range n.labelInfoSet {
		aLeft := pli.Label.Left + (overlapLeft - nLeft)
		aTop := pli.Label.Top + (overlapTop - nTop)

		batch := n.ctx.Energy.OpenBatch(aLeft, aTop, overlapW, overlapH, false)
		qHandles := make([]int, qLen)
		for qi, qli := range neighbor.labelInfoSet {
			bLeft := qli.Label.Left + (overlapLeft - neighbor.GetLeft())
			bTop := qli.Label.Top + (overlapTop - neighbor.GetTop())
			qHandles[qi] = batch.Queue(bLeft, bTop)
		}
		batch.Process()

		var sumOtherMessages Energy
		for r := NeighborEdge(0); r < NumNeighborEdges; r++ {
			if r == qEdgeInP {
				continue
			}
			sumOtherMessages += pli.Messages[r]
		}

		for qi := range neighbor.labelInfoSet {
			overlapEnergy := batch.Get(qHandles[qi])
			candidate := pLabelEnergies[pi] + overlapEnergy + sumOtherMessages
			if pi == 0 || candidate < messages[qi] {
				messages[qi] = candidate
			}
			if (pi == 0 && qi == 0) || candidate < messagesMin {
				messagesMin = candidate
			}
		}
	}

	for qi := range neighbor.labelInfoSet {
		neighbor.labelInfoSet[qi].Messages[pEdgeInQ] = messages[qi] - messagesMin
	}
}

// PruneLabels keeps the highest-belief candidates, applying the three
// bounds from spec §4.9/§4.3: always keep at least PostPruneLabelsMin,
// never keep more than PostPruneLabelsMax, and otherwise stop once belief
// falls below PruneBeliefThreshold. On the very first prune only, a
// candidate is additionally rejected if its SSD against any already-kept
// candidate is below PruneEnergySimilarThreshold (de-duplicates
// near-identical source patches before they ever get a chance to persist).
func (n *Node) PruneLabels() {
	n.populateLabelInfoSetIfNeeded()
	if len(n.labelInfoSet) == 0 {
		n.hasPrunedOnce = true
		return
	}

	nLeft, nTop := n.GetLeft(), n.GetTop()
	batch := n.ctx.Energy.OpenBatch(nLeft, nTop, n.patchW, n.patchH, true)
	handles := make([]int, len(n.labelInfoSet))
	for i, li := range n.labelInfoSet {
		handles[i] = batch.Queue(li.Label.Left, li.Label.Top)
	}
	batch.Process()

	type candidate struct {
		idx    int
		belief Belief
	}
	candidates := make([]candidate, len(n.labelInfoSet))
	for i, li := range n.labelInfoSet {
		e := batch.Get(handles[i])
		candidates[i] = candidate{idx: i, belief: n.calculateBeliefFast(e, li.Messages)}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].belief > candidates[j].belief })

	maxLabels := n.ctx.Settings.PostPruneLabelsMax
	minLabels := n.ctx.Settings.PostPruneLabelsMin
	threshold := Belief(n.ctx.Settings.PruneBeliefThreshold)

	kept := make([]LabelInfo, 0, maxLabels)
	for _, c := range candidates {
		if len(kept) >= maxLabels {
			break
		}
		keep := len(kept) < minLabels || c.belief > threshold
		if !keep {
			continue
		}
		li := n.labelInfoSet[c.idx]
		if !n.hasPrunedOnce {
			similar := false
			for _, k := range kept {
				e := n.ctx.Energy.Immediate(li.Label.Left, li.Label.Top, k.Label.Left, k.Label.Top, n.patchW, n.patchH, false)
				if e < n.ctx.Settings.PruneEnergySimilarThreshold {
					similar = true
					break
				}
			}
			if similar {
				continue
			}
		}
		kept = append(kept, li)
	}
	if len(kept) == 0 && len(n.labelInfoSet) > 0 {
		kept = append(kept, n.labelInfoSet[candidates[0].idx])
	}
	n.labelInfoSet = kept
	n.hasPrunedOnce = true
}

// CalculatePriority returns 1/|confusion set| where the confusion set is
// every candidate label whose belief is within ConfidenceBeliefThreshold
// of the best; PriorityMin if no candidates exist. Nodes with a small,
// confident confusion set get scheduled first.
func (n *Node) CalculatePriority() Priority {
	n.populateLabelInfoSetIfNeeded()
	if len(n.labelInfoSet) == 0 {
		return PriorityMin
	}

	nLeft, nTop := n.GetLeft(), n.GetTop()
	batch := n.ctx.Energy.OpenBatch(nLeft, nTop, n.patchW, n.patchH, true)
	handles := make([]int, len(n.labelInfoSet))
	for i, li := range n.labelInfoSet {
		handles[i] = batch.Queue(li.Label.Left, li.Label.Top)
	}
	batch.Process()

	beliefs := make([]Belief, len(n.labelInfoSet))
	beliefMax := BeliefMin
	for i, li := range n.labelInfoSet {
		e := batch.Get(handles[i])
		b := n.calculateBeliefFast(e, li.Messages)
		beliefs[i] = b
		if b > beliefMax {
			beliefMax = b
		}
	}

	threshold := Belief(n.ctx.Settings.ConfidenceBeliefThreshold)
	confusionSetSize := 0
	for _, b := range beliefs {
		if b-beliefMax > threshold {
			confusionSetSize++
		}
	}
	if confusionSetSize == 0 {
		return PriorityMin
	}
	return Priority(1.0 / float64(confusionSetSize))
}

// calculateBeliefFast computes belief when the label's energy is already
// known: belief = -energy - sum(messages).
func (n *Node) calculateBeliefFast(labelEnergy Energy, messages [NumNeighborEdges]Energy) Belief {
	b := Belief(-labelEnergy)
	for _, m := range messages {
		b -= Belief(m)
	}
	return b
}

// calculateBeliefSlow computes belief for a label whose energy isn't
// already known: it's EnergyMin (no penalty) if the node doesn't overlap
// any Known region at all, since there's nothing to compare against.
func (n *Node) calculateBeliefSlow(label Label, messages [NumNeighborEdges]Energy) Belief {
	var e Energy
	if n.overlapsKnownRegion {
		nLeft, nTop := n.GetLeft(), n.GetTop()
		e = n.ctx.Energy.Immediate(nLeft, nTop, label.Left, label.Top, n.patchW, n.patchH, true)
	}
	return n.calculateBeliefFast(e, messages)
}

// BestLabel returns the node's highest-belief surviving label, valid
// after PruneLabels has sorted and trimmed the label info set.
func (n *Node) BestLabel() Label {
	return n.labelInfoSet[0].Label
}
