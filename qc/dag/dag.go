package dag

import (
	"fmt"
	"sync/atomic"

	"github.com/kegliz/qcore/qc/gate"
)

// NodeID is stable across passes/serialisation.
type NodeID uint64

var idCtr uint64

// Node holds one DAG vertex: a gate or measurement application.
type Node struct {
	ID     NodeID
	G      gate.Gate
	Qubits []int // logical qubit indices, len == G.QubitSpan()
	Cbit   int   // classical target, -1 if none

	parents  []NodeID
	children []NodeID
	depth    int // timestep, filled in by Validate
}

// Parents returns a copy of the parent node IDs.
func (n *Node) Parents() []NodeID {
	out := make([]NodeID, len(n.parents))
	copy(out, n.parents)
	return out
}

// DAGBuilder is the mutation surface used while assembling a circuit.
type DAGBuilder interface {
	AddGate(g gate.Gate, qs []int) error
	AddMeasure(q, c int) error
	Validate() error
	Qubits() int
	Clbits() int
}

// DAGReader is the read surface exposed once a DAG is frozen.
type DAGReader interface {
	Operations() []*Node // topological order
	Depth() int
	Qubits() int
	Clbits() int
}

// DAG is mutable until Validate() freezes it; it implements both
// DAGBuilder and DAGReader.
type DAG struct {
	qubits, clbits int

	nodes map[NodeID]*Node
	last  []NodeID // most recent op touching each qubit, 0 if none yet

	valid     bool
	topoOrder []*Node
	depth     int
}

// New creates an empty DAG over qb qubits and cb classical bits.
func New(qb, cb int) *DAG {
	return &DAG{
		qubits: qb,
		clbits: cb,
		nodes:  make(map[NodeID]*Node),
		last:   make([]NodeID, qb),
		depth:  -1,
	}
}

func nextID() NodeID { return NodeID(atomic.AddUint64(&idCtr, 1)) }

func (d *DAG) Qubits() int { return d.qubits }
func (d *DAG) Clbits() int { return d.clbits }

// AddGate appends a gate application over qs, wiring it to the most
// recent op on each of those qubits as a dependency.
func (d *DAG) AddGate(g gate.Gate, qs []int) error {
	if d.valid {
		return ErrValidated
	}
	if err := d.checkGate(g, qs); err != nil {
		return err
	}
	n := &Node{ID: nextID(), G: g, Qubits: append([]int(nil), qs...), Cbit: -1}
	d.link(n, qs)
	return nil
}

// AddMeasure appends a measurement of qubit q into classical bit c.
func (d *DAG) AddMeasure(q, c int) error {
	if d.valid {
		return ErrValidated
	}
	if q < 0 || q >= d.qubits {
		return ErrBadQubit
	}
	if c < 0 || c >= d.clbits {
		return ErrBadClbit
	}
	n := &Node{ID: nextID(), G: gate.Measure(), Qubits: []int{q}, Cbit: c}
	d.link(n, []int{q})
	return nil
}

// link registers n as the newest op on every qubit in qs, wiring it to
// whatever was previously last on each of those qubits.
func (d *DAG) link(n *Node, qs []int) {
	d.nodes[n.ID] = n
	seen := make(map[NodeID]struct{}, len(qs))
	for _, q := range qs {
		if prev := d.last[q]; prev != 0 {
			if _, dup := seen[prev]; !dup {
				seen[prev] = struct{}{}
				n.parents = append(n.parents, prev)
				d.nodes[prev].children = append(d.nodes[prev].children, n.ID)
			}
		}
		d.last[q] = n.ID
	}
}

// Validate freezes the DAG: checks acyclicity and computes topological
// order plus per-node depth. A no-op once already valid.
func (d *DAG) Validate() error {
	if d.valid {
		return nil
	}
	order, err := d.topoSortWithDepth()
	if err != nil {
		return err
	}
	d.topoOrder = order
	d.depth = 0
	for _, n := range order {
		if n.depth+1 > d.depth {
			d.depth = n.depth + 1
		}
	}
	d.valid = true
	return nil
}

// Operations returns a copy of the nodes in topological order, or nil
// if Validate hasn't run yet.
func (d *DAG) Operations() []*Node {
	if !d.valid {
		return nil
	}
	out := make([]*Node, len(d.topoOrder))
	copy(out, d.topoOrder)
	return out
}

func (d *DAG) Depth() int { return d.depth }

func (d *DAG) checkGate(g gate.Gate, qs []int) error {
	if len(qs) != g.QubitSpan() {
		return ErrSpan
	}
	seen := make(map[int]bool, len(qs))
	for _, q := range qs {
		if q < 0 || q >= d.qubits {
			return ErrBadQubit
		}
		if seen[q] {
			return fmt.Errorf("dag: duplicate qubit %d specified for gate %s", q, g.Name())
		}
		seen[q] = true
	}
	return nil
}

// topoSortWithDepth runs Kahn's algorithm and derives each node's depth
// (one past the deepest parent) in the same pass, detecting cycles by
// comparing the number of nodes it manages to drain against the total.
func (d *DAG) topoSortWithDepth() ([]*Node, error) {
	inDeg := make(map[NodeID]int, len(d.nodes))
	for id, n := range d.nodes {
		inDeg[id] = len(n.parents)
	}

	queue := make([]NodeID, 0, len(d.nodes))
	for id, deg := range inDeg {
		if deg == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]*Node, 0, len(d.nodes))
	for head := 0; head < len(queue); head++ {
		n := d.nodes[queue[head]]
		n.depth = 0
		for _, pID := range n.parents {
			if pd := d.nodes[pID].depth + 1; pd > n.depth {
				n.depth = pd
			}
		}
		order = append(order, n)

		for _, childID := range n.children {
			inDeg[childID]--
			if inDeg[childID] == 0 {
				queue = append(queue, childID)
			}
		}
	}

	if len(order) != len(d.nodes) {
		return nil, d.reportCycle()
	}
	return order, nil
}

// reportCycle runs a DFS purely to name a node on the cycle Kahn's
// algorithm already proved exists, for a more useful error message.
func (d *DAG) reportCycle() error {
	const unvisited, visiting, done = 0, 1, 2
	state := make(map[NodeID]int, len(d.nodes))

	var dfs func(NodeID) error
	dfs = func(id NodeID) error {
		switch state[id] {
		case visiting:
			return fmt.Errorf("dag: cycle detected involving node %d (%s)", id, d.nodes[id].G.Name())
		case done:
			return nil
		}
		state[id] = visiting
		for _, childID := range d.nodes[id].children {
			if err := dfs(childID); err != nil {
				return err
			}
		}
		state[id] = done
		return nil
	}

	for id := range d.nodes {
		if state[id] == unvisited {
			if err := dfs(id); err != nil {
				return err
			}
		}
	}
	return fmt.Errorf("dag: cycle detected but could not be isolated")
}
