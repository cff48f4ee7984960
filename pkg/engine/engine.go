// Package engine defines the opaque dense state-vector backend contract
// that attached leaves and QUnit shards are generic over, plus Dense, a
// from-scratch reference implementation of it.
package engine

// Matrix2x2 is a single-qubit unitary in row-major order:
//
//	[ M00 M01 ]
//	[ M10 M11 ]
type Matrix2x2 [4]complex128

// Backend is the dense sub-state-vector engine an AttachedLeaf wraps, and
// the per-shard engine a QUnit register drives. Implementations must be
// internally thread-safe, or serialize access themselves: multiple tree
// paths may reach the same attached engine before Branch has had a chance
// to make them distinct.
type Backend interface {
	GetAmplitude(perm uint64) complex128
	SetAmplitude(perm uint64, c complex128)

	Prob(q int) float64
	ProbAll(perm uint64) float64

	ForceM(q int, result bool, doForce, doApply bool) bool
	MAll() uint64

	Mtrx(u Matrix2x2, target int)
	MCMtrx(controls []int, u Matrix2x2, target int)
	MCPhase(controls []int, topLeft, bottomRight complex128, target int)
	MCInvert(controls []int, topRight, bottomLeft complex128, target int)

	Compose(other Backend) Backend

	GetQubitCount() int

	SetDevice(id string)
	GetDeviceID() string
	GetMaxSize() int

	Clone() Backend
}
