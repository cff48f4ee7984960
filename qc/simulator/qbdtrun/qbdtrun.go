// Package qbdtrun wires pkg/qbdt.Register into the qc/simulator runner
// surface, the same role qc/simulator/itsu plays for itsubaki/q: it
// translates the circuit DSL's named gates into register operations and
// reads each MEASURE into its classical bit via ForceM.
package qbdtrun

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"

	"github.com/kegliz/qcore/internal/logger"
	"github.com/kegliz/qcore/pkg/engine"
	"github.com/kegliz/qcore/pkg/qbdt"
	"github.com/kegliz/qcore/qc/circuit"
	"github.com/kegliz/qcore/qc/simulator"
)

var (
	hadamard = engine.Matrix2x2{
		complex(1/math.Sqrt2, 0), complex(1/math.Sqrt2, 0),
		complex(1/math.Sqrt2, 0), complex(-1/math.Sqrt2, 0),
	}
	pauliX = engine.Matrix2x2{0, 1, 1, 0}
	pauliY = engine.Matrix2x2{0, complex(0, -1), complex(0, 1), 0}
	pauliZ = engine.Matrix2x2{1, 0, 0, -1}
	sGate  = engine.Matrix2x2{1, 0, 0, complex(0, 1)}
)

// QBDTOneShotRunner runs a circuit once against a fresh qbdt.Register,
// mirroring qc/simulator/itsu.ItsuOneShotRunner's metrics shape.
type QBDTOneShotRunner struct {
	log     logger.Logger
	metrics runnerMetrics
}

type runnerMetrics struct {
	totalExecutions atomic.Int64
	successfulRuns  atomic.Int64
	failedRuns      atomic.Int64
	totalTime       atomic.Int64
	lastError       atomic.Value
}

// NewQBDTOneShotRunner constructs a runner backed by the tree register.
func NewQBDTOneShotRunner() *QBDTOneShotRunner {
	return &QBDTOneShotRunner{
		log: *logger.NewLogger(logger.LoggerOptions{Debug: false}),
	}
}

func (s *QBDTOneShotRunner) RunOnce(c circuit.Circuit) (string, error) {
	start := time.Now()
	defer func() {
		s.metrics.totalExecutions.Add(1)
		s.metrics.totalTime.Add(int64(time.Since(start)))
	}()

	result, err := runOnce(c)
	if err != nil {
		s.metrics.failedRuns.Add(1)
		s.metrics.lastError.Store(err.Error())
	} else {
		s.metrics.successfulRuns.Add(1)
	}
	return result, err
}

func runOnce(c circuit.Circuit) (string, error) {
	reg := qbdt.NewRegister(c.Qubits())
	cbits := make([]byte, c.Clbits())
	for i := range cbits {
		cbits[i] = '0'
	}

	for i, op := range c.Operations() {
		for _, qIndex := range op.Qubits {
			if qIndex < 0 || qIndex >= c.Qubits() {
				return "", fmt.Errorf("qbdtrun: invalid qubit index %d for gate %s (op %d)", qIndex, op.G.Name(), i)
			}
		}
		var err error
		switch op.G.Name() {
		case "H":
			err = reg.Mtrx(hadamard, op.Qubits[0])
		case "X":
			err = reg.Mtrx(pauliX, op.Qubits[0])
		case "Y":
			err = reg.Mtrx(pauliY, op.Qubits[0])
		case "Z":
			err = reg.Mtrx(pauliZ, op.Qubits[0])
		case "S":
			err = reg.Mtrx(sGate, op.Qubits[0])
		case "CNOT":
			err = reg.MCInvert([]int{op.Qubits[0]}, 1, 1, op.Qubits[1])
		case "CZ":
			err = reg.MCPhase([]int{op.Qubits[0]}, 1, -1, op.Qubits[1])
		case "SWAP":
			err = swap(reg, op.Qubits[0], op.Qubits[1])
		case "TOFFOLI":
			err = reg.MCInvert([]int{op.Qubits[0], op.Qubits[1]}, 1, 1, op.Qubits[2])
		case "FREDKIN":
			err = fredkin(reg, op.Qubits[0], op.Qubits[1], op.Qubits[2])
		case "MEASURE":
			if op.Cbit < 0 || op.Cbit >= len(cbits) {
				return "", fmt.Errorf("qbdtrun: invalid classical bit index %d for MEASURE (op %d)", op.Cbit, i)
			}
			if reg.ForceM(op.Qubits[0], false, false, true) {
				cbits[op.Cbit] = '1'
			} else {
				cbits[op.Cbit] = '0'
			}
		default:
			return "", fmt.Errorf("qbdtrun: unsupported gate %s (op %d) encountered in runOnce", op.G.Name(), i)
		}
		if err != nil {
			return "", fmt.Errorf("qbdtrun: gate %s (op %d): %w", op.G.Name(), i, err)
		}
	}
	return string(cbits), nil
}

// swap is expressed as the usual three-CNOT decomposition, matching the
// circuit DSL's SWAP semantics without needing a dedicated 4x4 path in
// the register.
func swap(reg *qbdt.Register, a, b int) error {
	if err := reg.MCInvert([]int{a}, 1, 1, b); err != nil {
		return err
	}
	if err := reg.MCInvert([]int{b}, 1, 1, a); err != nil {
		return err
	}
	return reg.MCInvert([]int{a}, 1, 1, b)
}

func fredkin(reg *qbdt.Register, ctrl, a, b int) error {
	if err := reg.MCInvert([]int{b}, 1, 1, a); err != nil {
		return err
	}
	if err := reg.MCInvert([]int{ctrl, a}, 1, 1, b); err != nil {
		return err
	}
	return reg.MCInvert([]int{b}, 1, 1, a)
}

func (s *QBDTOneShotRunner) GetBackendInfo() simulator.BackendInfo {
	return simulator.BackendInfo{
		Name:        "QBDT Tree Simulator",
		Version:     "v0.1.0",
		Description: "Quantum binary decision tree simulator with dense attached-leaf fallback",
		Vendor:      "qcore",
		Capabilities: map[string]bool{
			"metrics_collection": true,
			"circuit_validation": false,
		},
		Metadata: map[string]string{
			"backend_type": "qbdt_simulator",
			"language":     "go",
		},
	}
}

func (s *QBDTOneShotRunner) GetMetrics() simulator.ExecutionMetrics {
	totalExec := s.metrics.totalExecutions.Load()
	totalTimeNs := s.metrics.totalTime.Load()
	var avgTime time.Duration
	if totalExec > 0 {
		avgTime = time.Duration(totalTimeNs / totalExec)
	}
	lastErr, _ := s.metrics.lastError.Load().(string)
	return simulator.ExecutionMetrics{
		TotalExecutions: totalExec,
		SuccessfulRuns:  s.metrics.successfulRuns.Load(),
		FailedRuns:      s.metrics.failedRuns.Load(),
		AverageTime:     avgTime,
		TotalTime:       time.Duration(totalTimeNs),
		LastError:       lastErr,
	}
}

func (s *QBDTOneShotRunner) ResetMetrics() {
	s.metrics.totalExecutions.Store(0)
	s.metrics.successfulRuns.Store(0)
	s.metrics.failedRuns.Store(0)
	s.metrics.totalTime.Store(0)
	s.metrics.lastError.Store("")
}

func init() {
	simulator.MustRegisterRunner("qbdt", func() simulator.OneShotRunner {
		return NewQBDTOneShotRunner()
	})
}

var _ simulator.OneShotRunner = (*QBDTOneShotRunner)(nil)
