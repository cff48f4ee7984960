package qbdt

import (
	"math"
	"testing"

	"github.com/kegliz/qcore/internal/qmath"
	"github.com/kegliz/qcore/pkg/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hadamard() engine.Matrix2x2 {
	return engine.Matrix2x2{
		complex(1/math.Sqrt2, 0), complex(1/math.Sqrt2, 0),
		complex(1/math.Sqrt2, 0), complex(-1/math.Sqrt2, 0),
	}
}

func pauliX() engine.Matrix2x2 { return engine.Matrix2x2{0, 1, 1, 0} }

func TestSetPermutationThenGetAmplitude(t *testing.T) {
	r := NewRegister(3, WithInitialBasisState(0b101))
	assert.Equal(t, complex128(1), r.GetAmplitude(0b101))
	assert.Equal(t, complex128(0), r.GetAmplitude(0b000))
}

func TestBellStateViaHAndCNOT(t *testing.T) {
	r := NewRegister(3, WithInitialBasisState(0))
	require.NoError(t, r.Mtrx(hadamard(), 0))
	require.NoError(t, r.MCInvert([]int{0}, 1, 1, 1))

	assert.InDelta(t, 0.5, r.ProbAll(0b000), 1e-9)
	assert.InDelta(t, 0.5, r.ProbAll(0b011), 1e-9)
	assert.InDelta(t, 0, r.ProbAll(0b001), 1e-9)
	assert.InDelta(t, 0, r.ProbAll(0b010), 1e-9)
}

func TestSetPermutationThenMAllIsDeterministic(t *testing.T) {
	r := NewRegister(4, WithInitialBasisState(0b1011))
	got := r.MAll()
	assert.Equal(t, uint64(0b1011), got)
}

func TestHTwiceIsIdentity(t *testing.T) {
	r := NewRegister(1, WithInitialBasisState(0))
	h := hadamard()
	require.NoError(t, r.Mtrx(h, 0))
	require.NoError(t, r.Mtrx(h, 0))
	assert.InDelta(t, 1, real(r.GetAmplitude(0)), 1e-9)
	assert.InDelta(t, 0, real(r.GetAmplitude(1)), 1e-9)
}

func TestSetQuantumStateRoundTrip(t *testing.T) {
	r := NewRegister(2)
	in := []complex128{
		complex(1/math.Sqrt2, 0), 0, 0, complex(1/math.Sqrt2, 0),
	}
	r.SetQuantumState(in)
	out := make([]complex128, 4)
	r.GetQuantumState(out)
	for i := range in {
		assert.InDelta(t, real(in[i]), real(out[i]), 1e-9)
		assert.InDelta(t, imag(in[i]), imag(out[i]), 1e-9)
	}
}

func TestProbSumsToOne(t *testing.T) {
	r := NewRegister(3, WithInitialBasisState(0))
	require.NoError(t, r.Mtrx(hadamard(), 0))
	require.NoError(t, r.Mtrx(hadamard(), 1))
	require.NoError(t, r.MCInvert([]int{0}, 1, 1, 2))

	probs := make([]float64, 8)
	r.GetProbs(probs)
	var sum float64
	for _, p := range probs {
		sum += p
	}
	assert.InDelta(t, 1, sum, 1e-9)
}

func TestForceMIsConsistentWithProb(t *testing.T) {
	r := NewRegister(1, WithInitialBasisState(1))
	got := r.ForceM(0, false, false, true)
	assert.True(t, got)
	assert.InDelta(t, 1, r.Prob(0), 1e-9)
}

func TestAttachedQubitGateDelegatesToEngine(t *testing.T) {
	r := NewRegister(2, WithAttachedQubitCount(1), WithInitialBasisState(0))
	require.NoError(t, r.Mtrx(pauliX(), 1))
	assert.InDelta(t, 1, r.ProbAll(0b10), 1e-9)
}

func TestMCMtrxRejectsAttachedControlOnTreeTarget(t *testing.T) {
	r := NewRegister(2, WithAttachedQubitCount(1), WithInitialBasisState(0))
	err := r.MCInvert([]int{1}, 1, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidQubitIndex)
}

func TestMCMtrxAttachedTargetWithAttachedControlStillWorks(t *testing.T) {
	r := NewRegister(2, WithAttachedQubitCount(2), WithInitialBasisState(0b01))
	require.NoError(t, r.MCInvert([]int{0}, 1, 1, 1))
	assert.InDelta(t, 1, r.ProbAll(0b11), 1e-9)
}

func TestDecomposeRecoversSeparableFactor(t *testing.T) {
	parent := NewRegister(4, WithInitialBasisState(0))
	require.NoError(t, parent.Mtrx(hadamard(), 0))
	require.NoError(t, parent.MCInvert([]int{0}, 1, 1, 1))

	dest, err := parent.Decompose(2, 2)
	require.NoError(t, err)
	assert.InDelta(t, 1, dest.ProbAll(0b00), 1e-9)
	assert.InDelta(t, 0.5, parent.ProbAll(0b00), 1e-9)
	assert.InDelta(t, 0.5, parent.ProbAll(0b11), 1e-9)
}

func TestSumSqrDiffOfRegisterWithItself(t *testing.T) {
	r := NewRegister(2, WithInitialBasisState(0))
	require.NoError(t, r.Mtrx(hadamard(), 0))
	require.NoError(t, r.MCInvert([]int{0}, 1, 1, 1))
	diff := r.SumSqrDiff(r)
	assert.InDelta(t, 0, diff, 1e-6)
}

func TestInvalidQubitIndexIsReported(t *testing.T) {
	r := NewRegister(2)
	err := r.Mtrx(pauliX(), 5)
	assert.ErrorIs(t, err, ErrInvalidQubitIndex)
}

func TestRandSourceAliasSatisfiesQmathSource(t *testing.T) {
	var rs RandSource = qmath.NewMathSource(1)
	_ = rs.Float64()
}
