package qunit

import "fmt"

var (
	// ErrDeviceCapacityExceeded names the condition where Entangle would
	// produce an engine larger than every registered device's maxSize. No
	// function in this package returns it: EntangleInCurrentBasis moves
	// an engine that does not fit its current device to the default
	// device instead.
	ErrDeviceCapacityExceeded = fmt.Errorf("qunit: entangled engine exceeds every device's maxSize")
	// ErrNotSeparable mirrors qbdt.ErrNotSeparable for the shard model:
	// SeparateBit/Decompose requested a qubit that does not factor out of
	// its current shard within epsilon.
	ErrNotSeparable = fmt.Errorf("qunit: qubit is not separable from its shard within epsilon")
	// ErrInvalidQubitIndex reports an out-of-range qubit index.
	ErrInvalidQubitIndex = fmt.Errorf("qunit: qubit index out of range")
)
