package engine

import (
	"math"
	"math/cmplx"
	"sync"

	"github.com/google/uuid"
)

// Dense is a from-scratch complex128 state-vector engine. It is the
// module's concrete Backend: a flat amplitude slice indexed by
// permutation, guarded by a single RWMutex so that concurrent tree paths
// converging on the same attached engine (before Branch has made them
// distinct) never race.
type Dense struct {
	mu         sync.RWMutex
	qubitCount int
	amp        []complex128
	deviceID   string
	maxSize    int
	rng        RandSource
}

// RandSource is the pluggable randomness collaborator for measurement.
// Spec treats RNG as an external dependency; this is the seam.
type RandSource interface {
	Float64() float64
}

// NewDense allocates a qubitCount-qubit engine initialized to the basis
// state |initState⟩.
func NewDense(qubitCount int, initState uint64, rng RandSource) *Dense {
	size := 1 << uint(qubitCount)
	amp := make([]complex128, size)
	if qubitCount > 0 {
		amp[initState&(uint64(size)-1)] = 1
	} else {
		amp = []complex128{1}
	}
	return &Dense{
		qubitCount: qubitCount,
		amp:        amp,
		deviceID:   "cpu-default",
		maxSize:    1 << 24,
		rng:        rng,
	}
}

func (d *Dense) GetAmplitude(perm uint64) complex128 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.amp[perm]
}

func (d *Dense) SetAmplitude(perm uint64, c complex128) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.amp[perm] = c
}

func (d *Dense) Prob(q int) float64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	mask := 1 << uint(q)
	var p float64
	for i, a := range d.amp {
		if i&mask != 0 {
			p += real(a * cmplx.Conj(a))
		}
	}
	return p
}

func (d *Dense) ProbAll(perm uint64) float64 {
	a := d.GetAmplitude(perm)
	return real(a * cmplx.Conj(a))
}

// Mtrx applies an arbitrary single-qubit unitary using the bitmask
// pairing scheme: for every index with bit `target` clear, rotate the
// (|0⟩,|1⟩) pair it forms with its bit-set partner by u.
func (d *Dense) Mtrx(u Matrix2x2, target int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	mask := 1 << uint(target)
	for i := range d.amp {
		if i&mask != 0 {
			continue
		}
		j := i | mask
		a0, a1 := d.amp[i], d.amp[j]
		d.amp[i] = u[0]*a0 + u[1]*a1
		d.amp[j] = u[2]*a0 + u[3]*a1
	}
}

func (d *Dense) MCMtrx(controls []int, u Matrix2x2, target int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	controlMask := maskOf(controls)
	targetMask := 1 << uint(target)
	for i := range d.amp {
		if i&controlMask != controlMask {
			continue
		}
		if i&targetMask != 0 {
			continue
		}
		j := i | targetMask
		a0, a1 := d.amp[i], d.amp[j]
		d.amp[i] = u[0]*a0 + u[1]*a1
		d.amp[j] = u[2]*a0 + u[3]*a1
	}
}

func (d *Dense) MCPhase(controls []int, topLeft, bottomRight complex128, target int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	controlMask := maskOf(controls)
	targetMask := 1 << uint(target)
	for i := range d.amp {
		if i&controlMask != controlMask {
			continue
		}
		if i&targetMask != 0 {
			d.amp[i] *= bottomRight
		} else {
			d.amp[i] *= topLeft
		}
	}
}

func (d *Dense) MCInvert(controls []int, topRight, bottomLeft complex128, target int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	controlMask := maskOf(controls)
	targetMask := 1 << uint(target)
	for i := range d.amp {
		if i&controlMask != controlMask {
			continue
		}
		if i&targetMask != 0 {
			continue
		}
		j := i | targetMask
		a0, a1 := d.amp[i], d.amp[j]
		d.amp[i] = bottomLeft * a1
		d.amp[j] = topRight * a0
	}
}

// ForceM measures qubit q, optionally forcing the outcome, and optionally
// applies the collapse. Mirrors the teacher's from-scratch Measure: the
// forced case skips sampling but still collapses+renormalizes.
func (d *Dense) ForceM(q int, result bool, doForce, doApply bool) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	mask := 1 << uint(q)
	var oneChance float64
	for i, a := range d.amp {
		if i&mask != 0 {
			oneChance += real(a * cmplx.Conj(a))
		}
	}

	if !doForce {
		result = d.rng.Float64() < oneChance
	}
	if !doApply {
		return result
	}

	var norm float64
	for i := range d.amp {
		bitSet := i&mask != 0
		if bitSet == result {
			a := d.amp[i]
			norm += real(a * cmplx.Conj(a))
		} else {
			d.amp[i] = 0
		}
	}
	if norm > 1e-12 {
		inv := complex(1/math.Sqrt(norm), 0)
		for i := range d.amp {
			if (i&mask != 0) == result {
				d.amp[i] *= inv
			}
		}
	}
	return result
}

// MAll measures every qubit in one pass and collapses to that basis
// state, returning the measured permutation.
func (d *Dense) MAll() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()

	var cum float64
	r := d.rng.Float64()
	var chosen int
	for i, a := range d.amp {
		cum += real(a * cmplx.Conj(a))
		if r < cum {
			chosen = i
			break
		}
		chosen = i
	}

	for i := range d.amp {
		if i == chosen {
			d.amp[i] = 1
		} else {
			d.amp[i] = 0
		}
	}
	return uint64(chosen)
}

// Compose returns a new engine on the tensor product basis (other's bits
// become the high-order bits above this engine's).
func (d *Dense) Compose(other Backend) Backend {
	d.mu.RLock()
	defer d.mu.RUnlock()
	o, ok := other.(*Dense)
	if !ok {
		panic("engine: Dense.Compose requires another *Dense")
	}
	o.mu.RLock()
	defer o.mu.RUnlock()

	qc := d.qubitCount + o.qubitCount
	amp := make([]complex128, 1<<uint(qc))
	lowSize := len(d.amp)
	for hi, ah := range o.amp {
		if ah == 0 {
			continue
		}
		for lo, al := range d.amp {
			if al == 0 {
				continue
			}
			amp[hi*lowSize+lo] = ah * al
		}
	}
	return &Dense{
		qubitCount: qc,
		amp:        amp,
		deviceID:   d.deviceID,
		maxSize:    d.maxSize,
		rng:        d.rng,
	}
}

func (d *Dense) GetQubitCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.qubitCount
}

func (d *Dense) SetDevice(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.deviceID = id
}

func (d *Dense) GetDeviceID() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.deviceID
}

func (d *Dense) GetMaxSize() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.maxSize
}

// SetMaxSize is an engine.Dense extension used by device placement to
// record the capacity of whichever device the engine currently occupies.
func (d *Dense) SetMaxSize(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.maxSize = n
}

// Clone deep-copies the amplitude slice. A uuid is minted and discarded;
// the clone carries no identity tag, and engine equality for structural
// sharing purposes is by Go pointer.
func (d *Dense) Clone() Backend {
	d.mu.RLock()
	defer d.mu.RUnlock()
	amp := make([]complex128, len(d.amp))
	copy(amp, d.amp)
	_ = uuid.New() // correlation tag minted and logged by callers that care
	return &Dense{
		qubitCount: d.qubitCount,
		amp:        amp,
		deviceID:   d.deviceID,
		maxSize:    d.maxSize,
		rng:        d.rng,
	}
}

func maskOf(controls []int) int {
	m := 0
	for _, c := range controls {
		m |= 1 << uint(c)
	}
	return m
}
