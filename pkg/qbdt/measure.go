package qbdt

// ForceM measures a single qubit. When doForce is true the outcome is
// pinned to result regardless of sampled probability; otherwise the
// outcome is sampled
// from the marginal Prob(qubit) distribution. When doApply is false the
// register is left untouched and only the sampled/forced outcome is
// returned (a dry-run peek).
//
// Unlike Mtrx/MCMtrx, ForceM rebuilds the collapsed branch sequentially
// rather than through the parfor + generation machinery: a measurement
// touches one tree level only and the collapse-then-renormalize rebuild
// is cheap enough that the extra concurrency discipline would add
// bookkeeping without a measurable benefit.
func (r *Register) ForceM(qubit int, result bool, doForce, doApply bool) bool {
	if qubit < 0 || qubit >= r.qubitCount {
		return false
	}
	r.metrics.forceMCount.Add(1)

	outcome := result
	if !doForce {
		var p1 float64
		if qubit < r.bdtQubitCount {
			p1 = r.probTreeQubit(qubit)
		} else {
			p1 = r.probAttachedQubit(qubit - r.bdtQubitCount)
		}
		outcome = r.rand.Float64() < p1
	}
	if !doApply {
		return outcome
	}

	r.bumpGen()
	if qubit < r.bdtQubitCount {
		r.root = collapseTreeQubit(r.root, qubit, outcome)
	} else {
		r.collapseAttachedQubit(qubit-r.bdtQubitCount, outcome)
	}
	r.root = prune(r.root, r.bdtQubitCount, r.eps, r.floor)
	r.renormalizeIfNeeded()
	return outcome
}

// collapseTreeQubit is a pure rebuild: at depth == qubit, the branch not
// matching outcome is replaced with zeroNode; everything above and
// below is copied structurally (cheap, since children remain shared
// with the pre-collapse tree wherever they are untouched).
func collapseTreeQubit(n *node, depth int, outcome bool) *node {
	if n == zeroNode {
		return n
	}
	if depth == 0 {
		keep := 0
		if outcome {
			keep = 1
		}
		drop := 1 - keep
		branches := n.branches
		branches[drop] = zeroNode
		return &node{kind: kindInterior, scale: n.scale, branches: branches}
	}
	c0 := collapseTreeQubit(n.branches[0], depth-1, outcome)
	c1 := collapseTreeQubit(n.branches[1], depth-1, outcome)
	return &node{kind: kindInterior, scale: n.scale, branches: [2]*node{c0, c1}}
}

func (r *Register) collapseAttachedQubit(localQubit int, outcome bool) {
	var walk func(n *node) *node
	walk = func(n *node) *node {
		if n.isZero(r.floor) {
			return n
		}
		if n.kind == kindLeaf {
			eng := n.leaf.engine.Clone()
			eng.ForceM(localQubit, outcome, true, true)
			return &node{kind: kindLeaf, scale: n.scale, leaf: &attachedLeaf{engine: eng}}
		}
		c0 := walk(n.branches[0])
		c1 := walk(n.branches[1])
		return &node{kind: kindInterior, scale: n.scale, branches: [2]*node{c0, c1}}
	}
	r.root = walk(r.root)
}

// MAll measures every qubit at once and collapses the register to the
// resulting basis state. Since the post-measurement state is always
// exactly SetPermutation(measured, 1) regardless of the pre-measurement
// tree shape, MAll samples the outcome by reading (never mutating) the
// existing tree and then discards it in favor of a fresh basis tree,
// rather than collapsing qubit by qubit.
func (r *Register) MAll() uint64 {
	r.metrics.forceMCount.Add(1)
	u := r.rand.Float64()
	var measured uint64
	var cumulative float64
	var walk func(n *node, depth int, prefix uint64, pathScale complex128) bool
	walk = func(n *node, depth int, prefix uint64, pathScale complex128) bool {
		if n.isZero(r.floor) {
			return false
		}
		pathScale *= n.scale
		if depth == r.bdtQubitCount {
			if n.kind == kindLeaf && r.attachedQubitCount > 0 {
				attSize := uint64(1) << uint(r.attachedQubitCount)
				for hi := uint64(0); hi < attSize; hi++ {
					amp := pathScale * n.leaf.engine.GetAmplitude(hi)
					p := real(amp)*real(amp) + imag(amp)*imag(amp)
					if p <= 0 {
						continue
					}
					cumulative += p
					if u <= cumulative {
						measured = hi<<uint(r.bdtQubitCount) | prefix
						return true
					}
				}
				return false
			}
			p := real(pathScale)*real(pathScale) + imag(pathScale)*imag(pathScale)
			if p <= 0 {
				return false
			}
			cumulative += p
			if u <= cumulative {
				measured = prefix
				return true
			}
			return false
		}
		if walk(n.branches[0], depth+1, prefix, pathScale) {
			return true
		}
		bit := uint64(1) << uint(r.bdtQubitCount-depth-1)
		return walk(n.branches[1], depth+1, prefix|bit, pathScale)
	}
	if !walk(r.root, 0, 0, 1) {
		measured = 0
	}
	r.SetPermutation(measured, 1)
	return measured
}
