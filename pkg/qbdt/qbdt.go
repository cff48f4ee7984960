// Package qbdt implements the quantum binary decision tree register: a
// compressed tree representation of an N-qubit amplitude vector with
// on-the-fly pruning, plus the public QBDT surface described in spec §4.2.
package qbdt

import (
	"math"
	"math/cmplx"
	"sync"

	"github.com/kegliz/qcore/internal/config"
	"github.com/kegliz/qcore/internal/logger"
	"github.com/kegliz/qcore/internal/qmath"
	"github.com/kegliz/qcore/pkg/engine"
)

// RandSource is the randomness collaborator Register draws from for
// measurement sampling and the optional global phase. Any qmath.Source
// satisfies it.
type RandSource = qmath.Source

// Register is the public quantum-register surface backed by the tree:
// permutation init, amplitude read/write, gates, measurement,
// compose/decompose, and the flat state-vector fallback.
type Register struct {
	bdtQubitCount      int
	attachedQubitCount int
	qubitCount         int

	root       *node
	isStateVec bool

	eps             float64
	floor           float64
	normalizationOn bool
	globalPhase     bool
	rand            qmath.Source

	genMu sync.Mutex
	gen   uint64

	log     logger.Logger
	metrics Metrics
}

// NewRegister builds a register of totalQubits qubits. By default all
// qubits live in the tree (attachedQubitCount == 0); WithAttachedQubitCount
// moves the high-order qubits into a dense AttachedLeaf engine instead.
func NewRegister(totalQubits int, opts ...Option) *Register {
	cfg := defaultsFrom(config.New())
	for _, opt := range opts {
		opt(&cfg)
	}

	r := &Register{
		attachedQubitCount: cfg.attachedQubitCount,
		qubitCount:         totalQubits,
		bdtQubitCount:      totalQubits - cfg.attachedQubitCount,
		eps:                cfg.eps,
		floor:              cfg.floor,
		normalizationOn:    cfg.normalizationOn,
		globalPhase:        cfg.globalPhase,
		rand:               cfg.rand,
		log:                *logger.NewLogger(logger.LoggerOptions{Debug: cfg.debug}),
	}
	r.SetPermutation(cfg.initState, 1)
	return r
}

// Metrics returns a point-in-time snapshot of this register's counters.
func (r *Register) Metrics() Snapshot { return r.metrics.snapshot() }

func (r *Register) BdtQubitCount() int      { return r.bdtQubitCount }
func (r *Register) AttachedQubitCount() int { return r.attachedQubitCount }
func (r *Register) QubitCount() int         { return r.qubitCount }
func (r *Register) IsStateVec() bool        { return r.isStateVec }

// bumpGen starts a new mutation generation and returns it. Every gate
// call that mutates the tree calls this exactly once, before dispatch.
func (r *Register) bumpGen() uint64 {
	r.genMu.Lock()
	defer r.genMu.Unlock()
	r.gen++
	return r.gen
}

func (r *Register) newAttachedEngine(initState uint64) engine.Backend {
	return engine.NewDense(r.attachedQubitCount, initState>>uint(r.bdtQubitCount), r.rand)
}

// SetPermutation resets the register to a pure basis state, building a
// linear path of depth bdtQubitCount where the selected bit at each
// level has scale 1 and the other is the zero node.
func (r *Register) SetPermutation(initState uint64, phase complex128) {
	r.bumpGen()
	r.isStateVec = false
	if r.globalPhase {
		theta := r.rand.Float64() * 2 * math.Pi
		phase *= cmplx.Exp(complex(0, theta))
	}
	r.root = buildBasisTree(initState, r.bdtQubitCount, r.attachedQubitCount, r.newAttachedEngine, phase)
	r.log.Debug().Uint64("perm", initState).Msg("qbdt: SetPermutation")
}

func buildBasisTree(initState uint64, remaining, attachedQubitCount int, newEngine func(uint64) engine.Backend, scale complex128) *node {
	if remaining == 0 {
		if attachedQubitCount > 0 {
			return newLeafNode(scale, newEngine(initState))
		}
		return newInteriorNode(scale, nil, nil)
	}
	bit := (initState >> uint(remaining-1)) & 1
	child := buildBasisTree(initState, remaining-1, attachedQubitCount, newEngine, scale)
	if bit == 0 {
		return newInteriorNode(1, child, zeroNode)
	}
	return newInteriorNode(1, zeroNode, child)
}

// GetAmplitude descends the tree along the bits of perm (MSB-first
// within the tree, then attached-engine order for the high bits),
// multiplying scales and short-circuiting on zero.
func (r *Register) GetAmplitude(perm uint64) complex128 {
	amp := complex128(1)
	n := r.root
	for depth := 0; depth < r.bdtQubitCount; depth++ {
		if n.isZero(r.floor) {
			return 0
		}
		amp *= n.scale
		bit := (perm >> uint(r.bdtQubitCount-1-depth)) & 1
		n = n.branches[bit]
	}
	if n.isZero(r.floor) {
		return 0
	}
	amp *= n.scale
	if n.kind == kindLeaf {
		amp *= n.leaf.engine.GetAmplitude(perm >> uint(r.bdtQubitCount))
	}
	return amp
}

// ProbAll is |GetAmplitude(perm)|^2, clamped to [0,1].
func (r *Register) ProbAll(perm uint64) float64 {
	a := r.GetAmplitude(perm)
	p := real(a) * real(a) + imag(a) * imag(a)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// GetQuantumState fills out (length 2^qubitCount) with the full
// amplitude vector, basis index in the §6 bit-order convention.
func (r *Register) GetQuantumState(out []complex128) {
	r.walkFull(func(index uint64, amp complex128) {
		out[index] = amp
	})
}

// GetProbs is GetQuantumState followed by |amp|^2.
func (r *Register) GetProbs(out []float64) {
	r.walkFull(func(index uint64, amp complex128) {
		out[index] = real(amp)*real(amp) + imag(amp)*imag(amp)
	})
}

func (r *Register) walkFull(visit func(index uint64, amp complex128)) {
	var walk func(n *node, depth int, prefix uint64, amp complex128)
	walk = func(n *node, depth int, prefix uint64, amp complex128) {
		if n.isZero(r.floor) {
			return
		}
		amp *= n.scale
		if depth == r.bdtQubitCount {
			if n.kind == kindLeaf && r.attachedQubitCount > 0 {
				attSize := uint64(1) << uint(r.attachedQubitCount)
				for hi := uint64(0); hi < attSize; hi++ {
					a := n.leaf.engine.GetAmplitude(hi)
					if a == 0 {
						continue
					}
					visit(hi<<uint(r.bdtQubitCount)|prefix, amp*a)
				}
				return
			}
			visit(prefix, amp)
			return
		}
		walk(n.branches[0], depth+1, prefix, amp)
		walk(n.branches[1], depth+1, prefix|(uint64(1)<<uint(r.bdtQubitCount-depth-1)), amp)
	}
	walk(r.root, 0, 0, 1)
}

// SetQuantumState rebuilds the register from a full amplitude vector: a
// fresh, uncompressed complete tree is constructed (every interior scale
// 1, the true amplitude sitting at the depth-bdtQubitCount boundary),
// then PopStateVector (a no-op here, since interior scales start at 1)
// and Prune canonicalize it — matching spec's "branch at every node
// during construction, then PopStateVector + Prune" without needing
// the copy-on-write machinery for what is, in this case, a brand new
// tree with no external sharers.
func (r *Register) SetQuantumState(in []complex128) {
	r.bumpGen()
	r.isStateVec = false
	if r.attachedQubitCount == 0 {
		r.root = buildCompleteTree(in, r.bdtQubitCount, 0)
	} else {
		r.root = r.buildCompleteTreeAttached(in, r.bdtQubitCount, 0)
	}
	r.root = popStateVector(r.root, r.bdtQubitCount)
	r.root = prune(r.root, r.bdtQubitCount, r.eps, r.floor)
}

func buildCompleteTree(in []complex128, remaining int, prefix uint64) *node {
	if remaining == 0 {
		return newInteriorNode(in[prefix], nil, nil)
	}
	width := uint(remaining - 1)
	c0 := buildCompleteTree(in, remaining-1, prefix)
	c1 := buildCompleteTree(in, remaining-1, prefix|(uint64(1)<<width))
	return newInteriorNode(1, c0, c1)
}

func (r *Register) buildCompleteTreeAttached(in []complex128, remaining int, prefix uint64) *node {
	if remaining == 0 {
		attSize := uint64(1) << uint(r.attachedQubitCount)
		eng := engine.NewDense(r.attachedQubitCount, 0, r.rand)
		for hi := uint64(0); hi < attSize; hi++ {
			eng.SetAmplitude(hi, in[hi<<uint(r.bdtQubitCount)|prefix])
		}
		return newLeafNode(1, eng)
	}
	width := uint(remaining - 1)
	c0 := r.buildCompleteTreeAttached(in, remaining-1, prefix)
	c1 := r.buildCompleteTreeAttached(in, remaining-1, prefix|(uint64(1)<<width))
	return newInteriorNode(1, c0, c1)
}

// Prob is the marginal probability of measuring qubit as 1.
func (r *Register) Prob(qubit int) float64 {
	if qubit < 0 || qubit >= r.qubitCount {
		return 0
	}
	if qubit < r.bdtQubitCount {
		return r.probTreeQubit(qubit)
	}
	return r.probAttachedQubit(qubit - r.bdtQubitCount)
}

func (r *Register) probTreeQubit(qubit int) float64 {
	var total float64
	var walk func(n *node, depth int, pathScale complex128)
	walk = func(n *node, depth int, pathScale complex128) {
		if n.isZero(r.floor) {
			return
		}
		pathScale *= n.scale
		if depth == qubit {
			c1 := n.branches[1]
			if !c1.isZero(r.floor) {
				amp := pathScale * c1.scale
				total += real(amp) * real(amp) + imag(amp) * imag(amp)
			}
			return
		}
		walk(n.branches[0], depth+1, pathScale)
		walk(n.branches[1], depth+1, pathScale)
	}
	walk(r.root, 0, 1)
	return total
}

// probAttachedQubit sums, over every tree path reaching an attached
// engine, |pathScale|^2 * engine.Prob(local), computing Prob once per
// distinct engine. This is a deliberate replica of
// the teacher source's incoherent-sum treatment flagged in spec §9: it
// is not generally correct for an attached engine entangled across
// multiple tree paths reaching it with different relative phases, since
// probabilities from distinct paths are summed as if independent. It is
// kept as specified rather than silently "fixed", and is exact whenever
// each attached engine is reached by only one surviving tree path (the
// common case once Prune has run).
func (r *Register) probAttachedQubit(localQubit int) float64 {
	type cached struct {
		prob float64
	}
	cache := map[engine.Backend]*cached{}
	var total float64
	var walk func(n *node, depth int, pathScale complex128)
	walk = func(n *node, depth int, pathScale complex128) {
		if n.isZero(r.floor) {
			return
		}
		pathScale *= n.scale
		if depth == r.bdtQubitCount {
			if n.kind != kindLeaf {
				return
			}
			eng := n.leaf.engine
			c, ok := cache[eng]
			if !ok {
				c = &cached{prob: eng.Prob(localQubit)}
				cache[eng] = c
			}
			weight := real(pathScale) * real(pathScale) + imag(pathScale) * imag(pathScale)
			total += weight * c.prob
			return
		}
		walk(n.branches[0], depth+1, pathScale)
		walk(n.branches[1], depth+1, pathScale)
	}
	walk(r.root, 0, 1)
	return total
}

// renormalizeIfNeeded checks the register's total probability against 1
// and, if drifted beyond eps, either renormalizes (when configured) or
// records ErrNumericalDrift in the metrics for the caller to observe.
func (r *Register) renormalizeIfNeeded() {
	total := r.totalProb()
	drift := math.Abs(total - 1)
	if drift <= r.eps {
		return
	}
	if !r.normalizationOn {
		r.metrics.recordError(ErrNumericalDrift)
		r.log.Warn().Float64("total_prob", total).Msg("qbdt: numerical drift detected, normalization disabled")
		return
	}
	r.metrics.renormalizes.Add(1)
	r.log.Warn().Float64("total_prob", total).Msg("qbdt: renormalizing after drift")
	if total <= r.floor {
		return
	}
	inv := complex(1/math.Sqrt(total), 0)
	r.root = r.root.withScale(r.root.scale * inv)
}

func (r *Register) totalProb() float64 {
	var total float64
	r.walkFull(func(_ uint64, amp complex128) {
		total += real(amp)*real(amp) + imag(amp)*imag(amp)
	})
	return total
}
