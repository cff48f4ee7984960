// Package qmath supplies the pluggable randomness collaborator used by
// qbdt.Register and engine.Dense for measurement sampling and optional
// global-phase draws. Spec treats the RNG as an external dependency; this
// package is the seam, with two concrete sources.
package qmath

import (
	"math/rand"

	"github.com/itsubaki/q"
)

// Source is the minimal randomness contract gate and measurement code
// depends on. Both qbdt.RandSource and engine.RandSource are satisfied by
// any Source.
type Source interface {
	Float64() float64
}

// MathSource wraps math/rand. It is the default: no example repo ships an
// ecosystem RNG library, and the spec explicitly treats RNG as an
// external, pluggable collaborator rather than something to implement
// against a particular package, so *rand.Rand is the one deliberate
// standard-library dependency in this module's core.
type MathSource struct {
	r *rand.Rand
}

// NewMathSource builds a MathSource seeded deterministically, so tests
// that construct one directly get reproducible sequences.
func NewMathSource(seed int64) *MathSource {
	return &MathSource{r: rand.New(rand.NewSource(seed))}
}

func (s *MathSource) Float64() float64 { return s.r.Float64() }

// QRand wraps an itsubaki/q register to draw a single random bit via
// Hadamard-then-measure, exactly as the original util.go does.
type QRand struct {
	*q.Q
}

func (qrand QRand) RandomBit() int64 {
	q0 := qrand.Zero()
	qrand.H(q0)
	m0 := qrand.Measure(q0)
	return m0.Int()
}

// HardwareSource builds Float64 draws out of 53 independent QRand bits
// (one per mantissa bit of a float64 in [0,1)), so that enabling the
// hardware-RNG flag (§6) routes measurement sampling through the
// itsubaki/q-backed bit source instead of math/rand.
type HardwareSource struct {
	newReg func() *q.Q
}

// NewHardwareSource takes a constructor instead of a single *q.Q because
// itsubaki/q registers accumulate qubits on every Zero() call; a fresh
// register per draw keeps memory bounded across a long measurement run.
func NewHardwareSource(newReg func() *q.Q) *HardwareSource {
	if newReg == nil {
		newReg = q.New
	}
	return &HardwareSource{newReg: newReg}
}

func (s *HardwareSource) Float64() float64 {
	const mantissaBits = 53
	var bits uint64
	for i := 0; i < mantissaBits; i++ {
		qrand := QRand{s.newReg()}
		bits = (bits << 1) | uint64(qrand.RandomBit())
	}
	return float64(bits) / float64(uint64(1)<<mantissaBits)
}
