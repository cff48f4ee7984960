package qbdt

// removeSeparableAtDepth verifies the length-qubit slice starting at tree
// depth start is independent of every bit outside [start, start+length),
// and if so detaches one representative of it, returning the rewritten
// remainder (with the slice skipped over) and the detached sub-tree.
// Fails with ErrNotSeparable, leaving the caller free to discard the
// partial result, if any ancestor's two children disagree once the
// slice is peeled out.
func removeSeparableAtDepth(t *node, start, length int, eps, floor float64) (remainder, removed *node, err error) {
	if start == 0 {
		return peelSeparable(t, length, eps, floor)
	}
	if t == zeroNode {
		return zeroNode, zeroNode, nil
	}
	if t.kind == kindLeaf {
		return nil, nil, ErrNotSeparable
	}
	r0, x0, err := removeSeparableAtDepth(t.branches[0], start-1, length, eps, floor)
	if err != nil {
		return nil, nil, err
	}
	r1, x1, err := removeSeparableAtDepth(t.branches[1], start-1, length, eps, floor)
	if err != nil {
		return nil, nil, err
	}
	if !structurallyEqual(x0, x1, eps) {
		return nil, nil, ErrNotSeparable
	}
	return newInteriorNode(t.scale, r0, r1), x0, nil
}

// peelSeparable descends length levels from t (already at the boundary
// depth), requiring both children to be structurally equal at every
// level — i.e. the slice's state does not depend on the bits above it —
// and builds the detached representative as it unwinds.
func peelSeparable(t *node, length int, eps, floor float64) (remainder, removed *node, err error) {
	if length == 0 {
		return t, newInteriorNode(1, nil, nil), nil
	}
	if t == zeroNode {
		return zeroNode, zeroNode, nil
	}
	if t.kind == kindLeaf {
		return nil, nil, ErrNotSeparable
	}
	if !structurallyEqual(t.branches[0], t.branches[1], eps) {
		return nil, nil, ErrNotSeparable
	}
	restChild, removedChild, err := peelSeparable(t.branches[0], length-1, eps, floor)
	if err != nil {
		return nil, nil, err
	}
	removed = newInteriorNode(1, removedChild, removedChild)
	remainder = restChild.withScale(restChild.scale * t.scale)
	return remainder, removed, nil
}
