package qbdt

import "math/cmplx"

// structurallyEqual implements Prune step 2's equivalence test: same
// scale to tolerance and the same descendants, up to shared-pointer
// identity or recursive equivalence. Leaf equivalence is restricted to
// pointer identity — comparing two independent dense engines for
// amplitude-level equality is not attempted, since the tree-compression
// payoff is almost entirely in the interior-node case and engines
// compare cheaply by reference after a Branch-preserving Compose/Attach.
func structurallyEqual(a, b *node, eps float64) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if cmplx.Abs(a.scale-b.scale) > eps {
		return false
	}
	if a.kind != b.kind {
		return false
	}
	if a.kind == kindLeaf {
		return false
	}
	return structurallyEqual(a.branches[0], b.branches[0], eps) &&
		structurallyEqual(a.branches[1], b.branches[1], eps)
}

// prune walks depth levels of t in post-order (children before parent),
// applying the three canonicalization steps of spec §4.1: zero-collapse,
// equal-child-collapse, and factor normalization. depth bounds how far
// down pruning needs to look — callers pass the deepest level a gate
// could have touched, since untouched subtrees are already canonical.
func prune(t *node, depth int, eps, floor float64) *node {
	if t == zeroNode || depth == 0 || t.kind == kindLeaf {
		return t
	}

	c0 := prune(t.branches[0], depth-1, eps, floor)
	c1 := prune(t.branches[1], depth-1, eps, floor)

	z0 := c0.isZero(floor)
	z1 := c1.isZero(floor)
	if z0 {
		c0 = zeroNode
	}
	if z1 {
		c1 = zeroNode
	}

	switch {
	case z0 && z1:
		return zeroNode
	case structurallyEqual(c0, c1, eps):
		factor := c0.scale
		rep := c0
		if factor != 1 {
			rep = c0.withScale(1)
		}
		return newInteriorNode(t.scale*factor, rep, rep)
	default:
		dom := c0
		if cmplx.Abs(c1.scale) > cmplx.Abs(dom.scale) {
			dom = c1
		}
		factor := dom.scale
		if cmplx.Abs(factor) <= floor {
			return newInteriorNode(t.scale, c0, c1)
		}
		inv := 1 / factor
		return newInteriorNode(t.scale*factor, c0.withScale(c0.scale*inv), c1.withScale(c1.scale*inv))
	}
}

// popStateVector pushes each interior node's scale down into its
// children by multiplication, resetting its own scale to 1, so a
// subsequent Prune can do canonical factor extraction from a clean
// slate. Used after bulk writes (SetQuantumState/SetTraversal).
func popStateVector(t *node, depth int) *node {
	if t == zeroNode || depth == 0 || t.kind == kindLeaf {
		return t
	}
	c0 := t.branches[0].withScale(t.branches[0].scale * t.scale)
	c1 := t.branches[1].withScale(t.branches[1].scale * t.scale)
	return newInteriorNode(1, popStateVector(c0, depth-1), popStateVector(c1, depth-1))
}
