// Package qunit implements the QUnit/QUnitMulti shard-keeping register
// of spec.md §4.3: each qubit starts on its own single-qubit engine.Backend
// shard, and Entangle merges shards on demand via engine.Backend.Compose.
package qunit

import (
	"math"
	"math/cmplx"
	"sync"

	"github.com/kegliz/qcore/internal/qmath"
	"github.com/kegliz/qcore/pkg/engine"
)

// Unit is the base QUnit register: one engine.Backend shard per qubit,
// merged lazily by Entangle and split again by SeparateBit/Detach.
type Unit struct {
	mu         sync.Mutex
	qubitCount int
	shards     []engine.Backend // shards[q] is the engine currently holding qubit q
	localIndex []int            // localIndex[q] is q's bit position within shards[q]
	rand       qmath.Source
	eps        float64
	floor      float64
	metrics    Metrics
}

// NewUnit builds a qubitCount-qubit register with every qubit on its own
// single-qubit shard, initialized to the bits of initState.
func NewUnit(qubitCount int, initState uint64, rand qmath.Source, eps, floor float64) *Unit {
	u := &Unit{
		qubitCount: qubitCount,
		shards:     make([]engine.Backend, qubitCount),
		localIndex: make([]int, qubitCount),
		rand:       rand,
		eps:        eps,
		floor:      floor,
	}
	for q := 0; q < qubitCount; q++ {
		bit := (initState >> uint(q)) & 1
		u.shards[q] = engine.NewDense(1, bit, rand)
		u.localIndex[q] = 0
	}
	return u
}

func (u *Unit) GetQubitCount() int { return u.qubitCount }

// Metrics returns a point-in-time snapshot of this unit's counters.
func (u *Unit) Metrics() Snapshot { return u.metrics.snapshot() }

// shardQubits returns every qubit index currently sharing eng, in
// ascending order. Shards aren't tracked with a reverse index since
// qubitCount is expected to stay small enough that an O(n) scan per
// Entangle/SeparateBit call is not a bottleneck.
func (u *Unit) shardQubits(eng engine.Backend) []int {
	var qs []int
	for q := 0; q < u.qubitCount; q++ {
		if u.shards[q] == eng {
			qs = append(qs, q)
		}
	}
	return qs
}

// Entangle merges the shards backing every qubit in qubits into one
// engine via engine.Backend.Compose, returning the merged engine.
// Qubits already sharing a single shard are a no-op.
func (u *Unit) Entangle(qubits []int) (engine.Backend, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.entangleLocked(qubits)
}

func (u *Unit) entangleLocked(qubits []int) (engine.Backend, error) {
	distinct := make([]engine.Backend, 0, len(qubits))
	seen := map[engine.Backend]bool{}
	for _, q := range qubits {
		if q < 0 || q >= u.qubitCount {
			return nil, ErrInvalidQubitIndex
		}
		s := u.shards[q]
		if !seen[s] {
			seen[s] = true
			distinct = append(distinct, s)
		}
	}
	if len(distinct) <= 1 {
		if len(distinct) == 0 {
			return nil, ErrInvalidQubitIndex
		}
		return distinct[0], nil
	}

	offsets := make(map[engine.Backend]int, len(distinct))
	width := 0
	for _, s := range distinct {
		offsets[s] = width
		width += s.GetQubitCount()
	}
	merged := distinct[0]
	for _, s := range distinct[1:] {
		merged = merged.Compose(s)
	}
	for q := 0; q < u.qubitCount; q++ {
		if off, ok := offsets[u.shards[q]]; ok {
			u.localIndex[q] += off
			u.shards[q] = merged
		}
	}
	u.metrics.entangleCount.Add(1)
	return merged, nil
}

// SeparateBit attempts to split qubit out of its current shard into its
// own single-qubit engine, leaving the remainder on a shrunk shard.
// Separability is tested by checking that the shard's amplitudes factor
// into (single-qubit vector) ⊗ (remainder vector) within epsilon; if
// they don't, ErrNotSeparable is returned and the register is left
// unchanged.
func (u *Unit) SeparateBit(qubit int) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.separateBitLocked(qubit)
}

func (u *Unit) separateBitLocked(qubit int) error {
	if qubit < 0 || qubit >= u.qubitCount {
		return ErrInvalidQubitIndex
	}
	shard := u.shards[qubit]
	n := shard.GetQubitCount()
	if n == 1 {
		return nil
	}
	local := u.localIndex[qubit]
	alpha, beta, rest, ok := factorOutBit(shard, local, n, u.eps, u.floor)
	if !ok {
		return ErrNotSeparable
	}

	single := engine.NewDense(1, 0, u.rand)
	single.SetAmplitude(0, alpha)
	single.SetAmplitude(1, beta)

	remainder := engine.NewDense(n-1, 0, u.rand)
	for r, a := range rest {
		remainder.SetAmplitude(uint64(r), a)
	}

	u.shards[qubit] = single
	u.localIndex[qubit] = 0
	for q := 0; q < u.qubitCount; q++ {
		if u.shards[q] != shard || q == qubit {
			continue
		}
		old := u.localIndex[q]
		if old > local {
			u.localIndex[q] = old - 1
		}
		u.shards[q] = remainder
	}
	u.metrics.separateCount.Add(1)
	return nil
}

// factorOutBit tests whether shard's state factors as a single qubit at
// bit position local tensored with the remaining n-1 qubits, returning
// the extracted single-qubit amplitudes and the remainder's amplitude
// vector (indexed by the other n-1 bits, with `local` squeezed out and
// higher bits shifted down by one) when it does.
func factorOutBit(shard engine.Backend, local, n int, eps, floor float64) (alpha, beta complex128, rest []complex128, ok bool) {
	restSize := 1 << uint(n-1)
	amp0 := make([]complex128, restSize)
	amp1 := make([]complex128, restSize)
	for r := 0; r < restSize; r++ {
		amp0[r] = shard.GetAmplitude(insertBit(r, local, 0))
		amp1[r] = shard.GetAmplitude(insertBit(r, local, 1))
	}

	var ratio complex128
	haveRatio := false
	for r := range amp0 {
		if cmplx.Abs(amp0[r]) > floor {
			ratio = amp1[r] / amp0[r]
			haveRatio = true
			break
		}
	}
	if !haveRatio {
		// amp0 is entirely zero: the qubit is pinned to |1>.
		norm := vectorNorm(amp1)
		if norm <= floor {
			return 0, 0, nil, false
		}
		rest = scaleVector(amp1, complex(1/norm, 0))
		return 0, complex(norm, 0), rest, true
	}
	for r := range amp0 {
		if cmplx.Abs(amp1[r]-ratio*amp0[r]) > eps {
			return 0, 0, nil, false
		}
	}
	scale := vectorNorm(amp0)
	if scale <= floor {
		return 0, 0, nil, false
	}
	beta = ratio
	denom := cmplx.Sqrt(complex(1, 0) + beta*cmplx.Conj(beta))
	alpha = complex(1, 0) / denom
	beta /= denom
	rest = scaleVector(amp0, denom)
	return alpha, beta, rest, true
}

func insertBit(r, pos, bit int) uint64 {
	low := r & ((1 << uint(pos)) - 1)
	high := (r >> uint(pos)) << uint(pos+1)
	return uint64(high | (bit << uint(pos)) | low)
}

func vectorNorm(v []complex128) float64 {
	var sum float64
	for _, a := range v {
		sum += real(a)*real(a) + imag(a)*imag(a)
	}
	return math.Sqrt(sum)
}

func scaleVector(v []complex128, c complex128) []complex128 {
	out := make([]complex128, len(v))
	for i, a := range v {
		out[i] = a * c
	}
	return out
}

// Detach separates qubit (via SeparateBit) and returns its now-private
// single-qubit engine.
func (u *Unit) Detach(qubit int) (engine.Backend, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if err := u.separateBitLocked(qubit); err != nil {
		return nil, err
	}
	return u.shards[qubit], nil
}

// Clone deep-copies every distinct shard and rebuilds the index arrays
// to point at the clones.
func (u *Unit) Clone() *Unit {
	u.mu.Lock()
	defer u.mu.Unlock()
	clones := map[engine.Backend]engine.Backend{}
	out := &Unit{
		qubitCount: u.qubitCount,
		shards:     make([]engine.Backend, u.qubitCount),
		localIndex: append([]int(nil), u.localIndex...),
		rand:       u.rand,
		eps:        u.eps,
		floor:      u.floor,
	}
	for q, s := range u.shards {
		c, ok := clones[s]
		if !ok {
			c = s.Clone()
			clones[s] = c
		}
		out.shards[q] = c
	}
	return out
}

// GetQuantumState entangles every qubit into one engine (in ascending
// order, a no-op for already-merged shards) and reads out its full
// amplitude vector.
func (u *Unit) GetQuantumState(out []complex128) {
	u.mu.Lock()
	defer u.mu.Unlock()
	all := make([]int, u.qubitCount)
	for i := range all {
		all[i] = i
	}
	merged, err := u.entangleLocked(all)
	if err != nil {
		return
	}
	size := uint64(1) << uint(u.qubitCount)
	for perm := uint64(0); perm < size; perm++ {
		out[perm] = translateAmplitude(merged, u.localIndex, perm)
	}
}

// translateAmplitude reads merged's amplitude at the permutation
// obtained by moving each bit of perm (in qubit order) to its local
// position inside merged.
func translateAmplitude(merged engine.Backend, localIndex []int, perm uint64) complex128 {
	var mapped uint64
	for q, local := range localIndex {
		bit := (perm >> uint(q)) & 1
		mapped |= bit << uint(local)
	}
	return merged.GetAmplitude(mapped)
}

// GetProbs is GetQuantumState followed by |amp|^2.
func (u *Unit) GetProbs(out []float64) {
	size := uint64(1) << uint(u.qubitCount)
	amps := make([]complex128, size)
	u.GetQuantumState(amps)
	for i, a := range amps {
		out[i] = real(a)*real(a) + imag(a)*imag(a)
	}
}
