package builder

import (
	"fmt"

	"github.com/kegliz/qcore/qc/circuit"
	"github.com/kegliz/qcore/qc/dag"
	"github.com/kegliz/qcore/qc/gate"
)

// Builder implements a *fluent* declarative DSL for building quantum circuits.
type Builder interface {
	// Single-qubit gates
	H(q int) Builder
	X(q int) Builder
	S(q int) Builder

	// Multi-qubit gates
	CNOT(ctrl, tgt int) Builder
	CZ(ctrl, tgt int) Builder
	SWAP(q1, q2 int) Builder
	Toffoli(c1, c2, tgt int) Builder
	Fredkin(ctrl, t1, t2 int) Builder

	// Measurement
	Measure(q, cbit int) Builder

	// Finalise
	BuildDAG() (dag.DAGReader, error)
	BuildCircuit() (circuit.Circuit, error) // convenience facade
}

// New returns a fresh Builder with the requested qubits/classical bits.
func New(opts ...Option) Builder { return newBuilder(opts...) }

type b struct {
	dagBuilder dag.DAGBuilder
	err        error
	built      bool
}

func newBuilder(opts ...Option) *b {
	cfg := config{qubits: 1}
	for _, o := range opts {
		o(&cfg)
	}
	return &b{dagBuilder: dag.New(cfg.qubits, cfg.clbits)}
}

func (b *b) bail(err error) Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

func (b *b) ready() bool { return !b.built && b.err == nil }

func (b *b) add(g gate.Gate, qubits ...int) Builder {
	if !b.ready() {
		return b
	}
	if err := b.dagBuilder.AddGate(g, qubits); err != nil {
		return b.bail(err)
	}
	return b
}

func (b *b) H(q int) Builder              { return b.add(gate.H(), q) }
func (b *b) X(q int) Builder              { return b.add(gate.X(), q) }
func (b *b) S(q int) Builder              { return b.add(gate.S(), q) }
func (b *b) CNOT(c, t int) Builder        { return b.add(gate.CNOT(), c, t) }
func (b *b) CZ(c, t int) Builder          { return b.add(gate.CZ(), c, t) }
func (b *b) SWAP(q1, q2 int) Builder      { return b.add(gate.Swap(), q1, q2) }
func (b *b) Toffoli(a, bq, t int) Builder { return b.add(gate.Toffoli(), a, bq, t) }
func (b *b) Fredkin(c, t1, t2 int) Builder { return b.add(gate.Fredkin(), c, t1, t2) }

func (b *b) Measure(q, cbit int) Builder {
	if !b.ready() {
		return b
	}
	if err := b.dagBuilder.AddMeasure(q, cbit); err != nil {
		return b.bail(err)
	}
	return b
}

// BuildDAG validates the internal DAG and returns it as a DAGReader. The
// builder becomes invalid after this call.
func (b *b) BuildDAG() (dag.DAGReader, error) {
	if b.built {
		return nil, fmt.Errorf("builder: BuildDAG or BuildCircuit already called: %w", dag.ErrBuild)
	}
	if b.err != nil {
		return nil, b.err
	}
	if err := b.dagBuilder.Validate(); err != nil {
		return nil, err
	}
	b.built = true

	reader, ok := b.dagBuilder.(dag.DAGReader)
	if !ok {
		return nil, fmt.Errorf("builder: internal error - DAG does not implement DAGReader")
	}
	return reader, nil
}

// BuildCircuit is syntactic sugar for the common case where the caller
// immediately converts the DAG into the immutable, layout-annotated
// Circuit facade.
func (b *b) BuildCircuit() (circuit.Circuit, error) {
	reader, err := b.BuildDAG()
	if err != nil {
		return nil, err
	}
	return circuit.FromDAG(reader), nil
}

type config struct {
	qubits int
	clbits int
}
type Option func(*config)

func Q(n int) Option { return func(c *config) { c.qubits = n } }
func C(n int) Option { return func(c *config) { c.clbits = n } }
