package circuit

import (
	"sort"

	"github.com/kegliz/qcore/qc/dag"
	"github.com/kegliz/qcore/qc/gate"
)

// Operation is one gate or measurement placed at a computed layout slot.
type Operation struct {
	G        gate.Gate
	Qubits   []int // absolute qubit indices
	Cbit     int   // absolute classical bit index, -1 if none
	TimeStep int   // layout column
	Line     int   // layout row, the lowest qubit index the op touches
}

// Circuit is the read-only, layout-annotated view a runner consumes: a
// validated DAG flattened into topologically-sorted operations with
// timestep/line coordinates attached.
type Circuit interface {
	Qubits() int
	Clbits() int
	Operations() []Operation
	Depth() int
	MaxStep() int
}

type circuit struct {
	qubits, clbits int
	ops            []Operation
}

// FromDAG lays out a validated DAG: each node's timestep is one past the
// latest timestep among its parents, and its line is the smallest qubit
// index it touches, breaking topological-order ties for stable rendering.
func FromDAG(d dag.DAGReader) Circuit {
	nodes := d.Operations()
	timestepOf := make(map[dag.NodeID]int, len(nodes))
	ops := make([]Operation, len(nodes))
	maxStep := 0

	for i, n := range nodes {
		step := 0
		for _, p := range n.Parents() {
			if s := timestepOf[p] + 1; s > step {
				step = s
			}
		}
		timestepOf[n.ID] = step
		if step > maxStep {
			maxStep = step
		}
		ops[i] = Operation{
			G:        n.G,
			Qubits:   append([]int(nil), n.Qubits...),
			Cbit:     n.Cbit,
			TimeStep: step,
			Line:     minInt(n.Qubits),
		}
	}

	sort.SliceStable(ops, func(i, j int) bool {
		if ops[i].TimeStep != ops[j].TimeStep {
			return ops[i].TimeStep < ops[j].TimeStep
		}
		return ops[i].Line < ops[j].Line
	})

	return &circuit{qubits: d.Qubits(), clbits: d.Clbits(), ops: ops}
}

func minInt(xs []int) int {
	if len(xs) == 0 {
		return -1
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}

func (c *circuit) Qubits() int { return c.qubits }
func (c *circuit) Clbits() int { return c.clbits }

// Depth is one past the highest timestep in the layout.
func (c *circuit) Depth() int { return c.MaxStep() + 1 }

func (c *circuit) MaxStep() int {
	max := -1
	for _, o := range c.ops {
		if o.TimeStep > max {
			max = o.TimeStep
		}
	}
	return max
}

func (c *circuit) Operations() []Operation { return c.ops }
