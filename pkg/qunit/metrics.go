package qunit

import "sync/atomic"

// Metrics mirrors qbdt.Metrics' shape for the shard-keeping register:
// atomic counters safe to read concurrently with Entangle/Redistribute.
type Metrics struct {
	entangleCount     atomic.Int64
	separateCount     atomic.Int64
	redistributeCount atomic.Int64
	migrationCount    atomic.Int64
	lastError         atomic.Value
}

type Snapshot struct {
	EntangleCount     int64
	SeparateCount     int64
	RedistributeCount int64
	MigrationCount    int64
	LastError         string
}

func (m *Metrics) snapshot() Snapshot {
	lastErr, _ := m.lastError.Load().(string)
	return Snapshot{
		EntangleCount:     m.entangleCount.Load(),
		SeparateCount:     m.separateCount.Load(),
		RedistributeCount: m.redistributeCount.Load(),
		MigrationCount:    m.migrationCount.Load(),
		LastError:         lastErr,
	}
}

func (m *Metrics) recordError(err error) {
	if err != nil {
		m.lastError.Store(err.Error())
	}
}
