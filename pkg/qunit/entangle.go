package qunit

import "github.com/kegliz/qcore/pkg/engine"

// EntangleInCurrentBasis merges the shards behind qubits exactly as
// Entangle does, but first checks whether the merged size would exceed
// the first shard's current device capacity; if so, that shard is
// migrated to the default device before the merge, so the combined
// engine never ends up stranded on a device too small to hold it.
// RedistributeQEngines runs afterward to settle every engine's final
// placement.
func (m *Multi) EntangleInCurrentBasis(qubits []int) (engine.Backend, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(qubits) == 0 {
		return nil, ErrInvalidQubitIndex
	}
	first := qubits[0]
	if first < 0 || first >= m.qubitCount {
		return nil, ErrInvalidQubitIndex
	}

	same := true
	firstShard := m.shards[first]
	combinedSize := 0
	seen := map[engine.Backend]bool{}
	for _, q := range qubits {
		if q < 0 || q >= m.qubitCount {
			return nil, ErrInvalidQubitIndex
		}
		if m.shards[q] != firstShard {
			same = false
		}
		if !seen[m.shards[q]] {
			seen[m.shards[q]] = true
			combinedSize += m.shards[q].GetQubitCount()
		}
	}
	if same {
		return firstShard, nil
	}

	mergedAmplitudes := 1 << uint(combinedSize)
	if def, err := m.devices.Default(); err == nil {
		desc, err := m.devices.Get(firstShard.GetDeviceID())
		// An engine on a device the registry doesn't recognize (e.g. a
		// freshly constructed engine.Dense's "cpu-default" tag before
		// any placement has run) is treated the same as one that
		// doesn't fit: migrate it to the default device rather than
		// assume unbounded capacity.
		if err != nil || mergedAmplitudes > desc.MaxSize {
			firstShard.SetDevice(def.ID)
		}
	}

	merged, err := m.entangleLocked(qubits)
	if err != nil {
		return nil, err
	}
	m.redistributeLocked()
	return merged, nil
}
