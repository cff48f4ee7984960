package gate

import "strings"

// Gate is the *minimal* contract each quantum gate must fulfil. The
// interface is tiny on purpose so the DAG builder and simulators can
// depend on it without pulling in any presentation concern.
type Gate interface {
	Name() string    // canonical name e.g. "H", "CNOT"
	QubitSpan() int  // how many qubits it acts on
	Targets() []int  // relative indices of target qubits (within the span)
	Controls() []int // relative indices of control qubits (within the span)
}

var byAlias = map[string]func() Gate{
	"h":       H,
	"x":       X,
	"y":       Y,
	"z":       Z,
	"s":       S,
	"swap":    Swap,
	"cx":      CNOT,
	"cnot":    CNOT,
	"cz":      CZ,
	"t":       Toffoli,
	"toffoli": Toffoli,
	"ccx":     Toffoli,
	"fredkin": Fredkin,
	"cswap":   Fredkin,
	"m":       Measure,
	"measure": Measure,
	"meas":    Measure,
}

// Factory returns an immutable gate by many common aliases.
//
//	g, _ := gate.Factory("cx")  // -> same instance as CNOT()
func Factory(name string) (Gate, error) {
	ctor, ok := byAlias[norm(name)]
	if !ok {
		return nil, ErrUnknownGate{name}
	}
	return ctor(), nil
}

// ErrUnknownGate is returned by Factory when the label isn't recognised.
type ErrUnknownGate struct{ Name string }

func (e ErrUnknownGate) Error() string { return "qcircuit: unknown gate " + e.Name }

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
