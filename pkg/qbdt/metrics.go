package qbdt

import "sync/atomic"

// Metrics mirrors the teacher's atomics-based ItsuMetrics shape: plain
// atomic counters, no locking, safe to read concurrently with gate
// dispatch.
type Metrics struct {
	gateCount      atomic.Int64
	branchCount    atomic.Int64
	pruneCollapses atomic.Int64
	forceMCount    atomic.Int64
	renormalizes   atomic.Int64
	lastError      atomic.Value // string
}

// Snapshot is the read-only point-in-time view returned by Register.Metrics.
type Snapshot struct {
	GateCount      int64
	BranchCount    int64
	PruneCollapses int64
	ForceMCount    int64
	Renormalizes   int64
	LastError      string
}

func (m *Metrics) snapshot() Snapshot {
	lastErr, _ := m.lastError.Load().(string)
	return Snapshot{
		GateCount:      m.gateCount.Load(),
		BranchCount:    m.branchCount.Load(),
		PruneCollapses: m.pruneCollapses.Load(),
		ForceMCount:    m.forceMCount.Load(),
		Renormalizes:   m.renormalizes.Load(),
		LastError:      lastErr,
	}
}

func (m *Metrics) recordError(err error) {
	if err != nil {
		m.lastError.Store(err.Error())
	}
}
