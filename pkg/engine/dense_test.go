package engine

import (
	"math"
	"testing"

	"github.com/kegliz/qcore/internal/qmath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDenseBasisState(t *testing.T) {
	d := NewDense(2, 0b10, qmath.NewMathSource(1))
	assert.Equal(t, complex128(1), d.GetAmplitude(0b10))
	assert.Equal(t, complex128(0), d.GetAmplitude(0b00))
}

func TestMtrxHadamardProduces5050(t *testing.T) {
	d := NewDense(1, 0, qmath.NewMathSource(1))
	h := Matrix2x2{
		complex(1/math.Sqrt2, 0), complex(1/math.Sqrt2, 0),
		complex(1/math.Sqrt2, 0), complex(-1/math.Sqrt2, 0),
	}
	d.Mtrx(h, 0)
	assert.InDelta(t, 0.5, d.Prob(0), 1e-9)
}

func TestMCMtrxCNOTFlipsOnlyWhenControlSet(t *testing.T) {
	d := NewDense(2, 0b01, qmath.NewMathSource(1))
	x := Matrix2x2{0, 1, 1, 0}
	d.MCMtrx([]int{0}, x, 1)
	assert.Equal(t, complex128(1), d.GetAmplitude(0b11))
}

func TestForceMCollapsesAndRenormalizes(t *testing.T) {
	d := NewDense(1, 0, qmath.NewMathSource(1))
	h := Matrix2x2{
		complex(1/math.Sqrt2, 0), complex(1/math.Sqrt2, 0),
		complex(1/math.Sqrt2, 0), complex(-1/math.Sqrt2, 0),
	}
	d.Mtrx(h, 0)
	got := d.ForceM(0, true, true, true)
	assert.True(t, got)
	assert.InDelta(t, 1.0, d.Prob(0), 1e-9)
}

func TestComposeTensorsBases(t *testing.T) {
	a := NewDense(1, 1, qmath.NewMathSource(1))
	b := NewDense(1, 0, qmath.NewMathSource(1))
	merged := a.Compose(b)
	require.Equal(t, 2, merged.GetQubitCount())
	assert.Equal(t, complex128(1), merged.GetAmplitude(0b01))
}

func TestCloneIsIndependent(t *testing.T) {
	d := NewDense(1, 0, qmath.NewMathSource(1))
	c := d.Clone()
	c.SetAmplitude(0, 0)
	c.SetAmplitude(1, 1)
	assert.Equal(t, complex128(1), d.GetAmplitude(0))
	assert.Equal(t, complex128(1), c.GetAmplitude(1))
}

func TestMAllCollapsesToBasisState(t *testing.T) {
	d := NewDense(1, 1, qmath.NewMathSource(1))
	got := d.MAll()
	assert.Equal(t, uint64(1), got)
	assert.Equal(t, complex128(1), d.GetAmplitude(1))
}
