package qbdt

// insertAtDepth splices sub (depth-`length` tree) between depth
// start-1 and depth start of t, attaching a clone of sub at every path
// of length start. The combined tree's depth grows by length.
func insertAtDepth(t, sub *node, start int) *node {
	if start == 0 {
		if t == zeroNode {
			return zeroNode
		}
		return sub.withScale(sub.scale * t.scale)
	}
	if t == zeroNode {
		return zeroNode
	}
	c0 := insertAtDepth(t.branches[0], sub, start-1)
	c1 := insertAtDepth(t.branches[1], sub, start-1)
	return newInteriorNode(t.scale, c0, c1)
}
