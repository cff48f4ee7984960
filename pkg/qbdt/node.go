package qbdt

import (
	"sync"

	"github.com/kegliz/qcore/pkg/engine"
)

type nodeKind uint8

const (
	kindInterior nodeKind = iota
	kindLeaf
)

// node is a single vertex of the binary decision tree: a complex scale
// plus, for interior nodes, two child edges, or for leaf nodes, an
// attached dense sub-engine. Node variants expose a common capability
// set (scale, branches, Branch, shallowClone) via tagged dispatch rather
// than an interface, matching §9's "tagged variants recommended over
// open inheritance".
type node struct {
	kind     nodeKind
	scale    complex128
	branches [2]*node
	leaf     *attachedLeaf

	mu        sync.Mutex
	branchGen uint64
	mutGen    uint64
}

// attachedLeaf wraps the opaque dense sub-state-vector engine held by a
// leaf beyond the tree's depth.
type attachedLeaf struct {
	engine engine.Backend
}

// zeroNode is the canonical shared sentinel for the "zero child" logical
// form: scale == 0, children irrelevant. Branching it is a no-op and
// every zero-scale subtree is normalized to point at this single object
// during Prune, so pointer identity is a valid zero test.
var zeroNode = &node{kind: kindInterior, scale: 0}

func newInteriorNode(scale complex128, c0, c1 *node) *node {
	return &node{kind: kindInterior, scale: scale, branches: [2]*node{c0, c1}}
}

func newLeafNode(scale complex128, eng engine.Backend) *node {
	return &node{kind: kindLeaf, scale: scale, leaf: &attachedLeaf{engine: eng}}
}

func isZeroScale(scale complex128, floor float64) bool {
	return real(scale)*real(scale)+imag(scale)*imag(scale) <= floor*floor
}

func (n *node) isZero(floor float64) bool {
	return n == zeroNode || isZeroScale(n.scale, floor)
}

func (n *node) withScale(scale complex128) *node {
	if n == zeroNode {
		return zeroNode
	}
	c := n.shallowClone()
	c.scale = scale
	return c
}

// shallowClone copies this node's own fields into a fresh node. For
// interior nodes the branch pointers are copied by value (grandchildren
// remain shared until their own Branch is called); for leaf nodes the
// underlying engine is deep-cloned via engine.Backend.Clone, since two
// leaf nodes must never alias the same mutable dense engine once they
// have diverged in the tree.
func (n *node) shallowClone() *node {
	if n == zeroNode {
		return zeroNode
	}
	switch n.kind {
	case kindLeaf:
		return newLeafNode(n.scale, n.leaf.engine.Clone())
	default:
		return newInteriorNode(n.scale, n.branches[0], n.branches[1])
	}
}

// branch unshares this node's children for traversal generation gen,
// returning them. It is idempotent within one generation: concurrent
// callers racing to branch the same shared ancestor are serialized by
// the node's mutex, and the first one to run wins — later callers in the
// same generation observe the already-unshared children rather than
// re-cloning, so no mutation is ever silently lost on an orphaned clone.
// A later generation (the next gate call) re-clones, since the tree may
// have been re-shared by Prune since the last branch.
func (n *node) branch(gen uint64) (*node, *node) {
	if n == zeroNode || n.kind == kindLeaf {
		return nil, nil
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.branchGen == gen {
		return n.branches[0], n.branches[1]
	}
	n.branches[0] = n.branches[0].shallowClone()
	n.branches[1] = n.branches[1].shallowClone()
	n.branchGen = gen
	return n.branches[0], n.branches[1]
}

// branchAndMutate unshares n's children (once per generation, as branch
// does) and then applies mutate to them (also once per generation),
// under the same lock. This is what lets many fan-out workers converge
// on the same shared ancestor at the gate's target depth and apply the
// gate's 2x2 action exactly once, regardless of how many path indices
// alias to this node.
func (n *node) branchAndMutate(gen uint64, mutate func(c0, c1 *node) (*node, *node)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.branchGen != gen {
		n.branches[0] = n.branches[0].shallowClone()
		n.branches[1] = n.branches[1].shallowClone()
		n.branchGen = gen
	}
	if n.mutGen != gen {
		n.branches[0], n.branches[1] = mutate(n.branches[0], n.branches[1])
		n.mutGen = gen
	}
}

// leafBranchAndApply is branchAndMutate's counterpart for AttachedLeaf
// nodes: clone the engine once per generation, then apply the gate to it
// once per generation.
func (n *node) leafBranchAndApply(gen uint64, apply func(eng engine.Backend)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.branchGen != gen {
		n.leaf = &attachedLeaf{engine: n.leaf.engine.Clone()}
		n.branchGen = gen
	}
	if n.mutGen != gen {
		apply(n.leaf.engine)
		n.mutGen = gen
	}
}
