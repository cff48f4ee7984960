package qbdt

import "github.com/kegliz/qcore/pkg/engine"

// Compose concatenates other's qubits into this register starting at
// tree depth start, mutating the receiver in place and returning an
// error only on an invalid position.
//
// Spec describes rotating tree qubits so an insertion boundary that
// straddles the attached region lines up with bdtQubitCount before
// splicing. Our layout keeps attached qubits as a fixed trailing dense
// block (§6 bit-order convention), so InsertAtDepth already grafts
// other's subtree — interior or leaf alike — at any start within the
// tree region without needing that rotation; it is only a splice point
// landing inside the attached region itself (start > bdtQubitCount)
// that our layout cannot express without unpacking the dense engine
// back into tree structure, which this module does not implement.
// That case returns ErrInvalidQubitIndex rather than silently
// mis-splicing.
func (r *Register) Compose(other *Register, start int) error {
	if start < 0 || start > r.bdtQubitCount {
		return ErrInvalidQubitIndex
	}
	r.bumpGen()
	r.root = insertAtDepth(r.root, other.root, start)
	r.bdtQubitCount += other.bdtQubitCount
	r.attachedQubitCount += other.attachedQubitCount
	r.qubitCount += other.qubitCount
	r.root = prune(r.root, r.bdtQubitCount, r.eps, r.floor)
	r.renormalizeIfNeeded()
	return nil
}

// Attach splices a dense sub-engine below the tree as new trailing
// attached qubits. If the register already has attached qubits, the
// new engine is tensored into every reachable leaf's existing engine
// via engine.Backend.Compose; otherwise every non-zero terminal node at
// depth bdtQubitCount becomes a fresh AttachedLeaf wrapping a clone of
// eng, carrying the terminal's prior scale.
func (r *Register) Attach(eng engine.Backend) {
	r.bumpGen()
	newAttached := eng.GetQubitCount()
	var walk func(n *node, depth int) *node
	walk = func(n *node, depth int) *node {
		if n == zeroNode {
			return n
		}
		if depth == r.bdtQubitCount {
			if n.kind == kindLeaf {
				return newLeafNode(n.scale, n.leaf.engine.Compose(eng.Clone()))
			}
			return newLeafNode(n.scale, eng.Clone())
		}
		c0 := walk(n.branches[0], depth+1)
		c1 := walk(n.branches[1], depth+1)
		return &node{kind: kindInterior, scale: n.scale, branches: [2]*node{c0, c1}}
	}
	r.root = walk(r.root, 0)
	r.attachedQubitCount += newAttached
	r.qubitCount += newAttached
	r.root = prune(r.root, r.bdtQubitCount, r.eps, r.floor)
}

// Decompose detaches a separable range of length tree qubits starting
// at start, returning a new register holding them.
//
// Spec's "rotate so the range starts at position 0" handling for a
// range overlapping the attached region is not implemented for the
// same reason Compose restricts its splice point: unpacking a dense
// engine back into tree structure is out of scope here. A range that
// extends past bdtQubitCount is reported as ErrNotSeparable rather than
// attempted.
func (r *Register) Decompose(start, length int) (*Register, error) {
	if start < 0 || length < 0 || start+length > r.bdtQubitCount {
		return nil, ErrNotSeparable
	}
	r.bumpGen()
	remainder, removed, err := removeSeparableAtDepth(r.root, start, length, r.eps, r.floor)
	if err != nil {
		return nil, err
	}
	r.root = prune(remainder, r.bdtQubitCount-length, r.eps, r.floor)
	r.bdtQubitCount -= length
	r.qubitCount -= length

	dest := &Register{
		bdtQubitCount:   length,
		qubitCount:      length,
		root:            prune(removed, length, r.eps, r.floor),
		eps:             r.eps,
		floor:           r.floor,
		normalizationOn: r.normalizationOn,
		rand:            r.rand,
		log:             r.log,
	}
	dest.gen = 1
	return dest, nil
}

// SumSqrDiff returns 1 - |<this|other>|^2, clamped to [0,1]. When both
// registers share the same tree/attached partition the inner product is
// computed by walking both trees together, short-circuiting as soon as
// either side's accumulated path scale is zero; otherwise it falls back
// to a dense comparison over the full state vector.
func (r *Register) SumSqrDiff(other *Register) float64 {
	var inner complex128
	if r.bdtQubitCount == other.bdtQubitCount && r.attachedQubitCount == other.attachedQubitCount {
		inner = r.innerProductAligned(other)
	} else {
		inner = r.innerProductDense(other)
	}
	mag := real(inner)*real(inner) + imag(inner)*imag(inner)
	diff := 1 - mag
	if diff < 0 {
		return 0
	}
	if diff > 1 {
		return 1
	}
	return diff
}

func (r *Register) innerProductAligned(other *Register) complex128 {
	var walk func(a, b *node, depth int) complex128
	walk = func(a, b *node, depth int) complex128 {
		if a.isZero(r.floor) || b.isZero(other.floor) {
			return 0
		}
		factor := cmplxConj(a.scale) * b.scale
		if depth == r.bdtQubitCount {
			if a.kind == kindLeaf && b.kind == kindLeaf {
				return factor * leafInnerProduct(a.leaf.engine, b.leaf.engine)
			}
			return factor
		}
		return factor * (walk(a.branches[0], b.branches[0], depth+1) + walk(a.branches[1], b.branches[1], depth+1))
	}
	return walk(r.root, other.root, 0)
}

func leafInnerProduct(a, b engine.Backend) complex128 {
	n := a.GetQubitCount()
	size := uint64(1) << uint(n)
	var sum complex128
	for i := uint64(0); i < size; i++ {
		sum += cmplxConj(a.GetAmplitude(i)) * b.GetAmplitude(i)
	}
	return sum
}

func (r *Register) innerProductDense(other *Register) complex128 {
	size := uint64(1) << uint(r.qubitCount)
	a := make([]complex128, size)
	b := make([]complex128, size)
	r.GetQuantumState(a)
	other.GetQuantumState(b)
	var sum complex128
	for i := range a {
		sum += cmplxConj(a[i]) * b[i]
	}
	return sum
}

func cmplxConj(c complex128) complex128 {
	return complex(real(c), -imag(c))
}
