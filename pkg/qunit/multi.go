package qunit

import (
	"github.com/kegliz/qcore/internal/device"
	"github.com/kegliz/qcore/internal/qmath"
	"github.com/kegliz/qcore/pkg/engine"
)

// hybridThreshold is the minimum engine size (in qubits) worth migrating
// across devices; single-qubit and below-threshold shards stay wherever
// they are, typically CPU, per spec.md §4.3.
const hybridThreshold = 2

// Multi is QUnitMulti: a Unit layered with device-aware placement.
// EntangleInCurrentBasis/Detach/SeparateBit/Clone all redistribute
// afterward; Entangle, promoted from Unit, does not. Redistribution
// keeps an engine on its current device whenever that device has no
// load yet, without checking the device's capacity.
type Multi struct {
	*Unit
	devices *device.Registry
}

// NewMulti builds a QUnitMulti register backed by reg for device
// lookups (device.Default() when reg is nil).
func NewMulti(qubitCount int, initState uint64, rand qmath.Source, eps, floor float64, reg *device.Registry) *Multi {
	if reg == nil {
		reg = device.Default()
	}
	return &Multi{Unit: NewUnit(qubitCount, initState, rand, eps, floor), devices: reg}
}

// QInfo pairs a distinct backing engine with the device it currently
// occupies.
type QInfo struct {
	Engine   engine.Backend
	DeviceID string
}

// GetQInfos collects one QInfo per distinct backing engine, sorted by
// engine size descending for best-fit placement.
func (m *Multi) GetQInfos() []QInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.qInfosLocked()
}

func (m *Multi) qInfosLocked() []QInfo {
	seen := map[engine.Backend]bool{}
	var infos []QInfo
	for _, s := range m.shards {
		if seen[s] {
			continue
		}
		seen[s] = true
		infos = append(infos, QInfo{Engine: s, DeviceID: s.GetDeviceID()})
	}
	for i := 1; i < len(infos); i++ {
		for j := i; j > 0 && infos[j].Engine.GetQubitCount() > infos[j-1].Engine.GetQubitCount(); j-- {
			infos[j], infos[j-1] = infos[j-1], infos[j]
		}
	}
	return infos
}

// RedistributeQEngines bin-packs every distinct engine across registered
// devices: walking engines largest-first, each goes to its current
// device if that device's running load is still zero, else to the
// default device if the default's load ties or beats the current
// device's, else to whichever device has the smallest running load that
// still has room for it.
func (m *Multi) RedistributeQEngines() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.redistributeLocked()
}

func (m *Multi) redistributeLocked() {
	infos := m.qInfosLocked()
	descs := m.devices.All()
	if len(descs) == 0 {
		return
	}
	devSizes := make(map[string]int, len(descs))
	maxSize := make(map[string]int, len(descs))
	for _, d := range descs {
		devSizes[d.ID] = 0
		maxSize[d.ID] = d.MaxSize
	}
	def, err := m.devices.Default()
	if err != nil {
		return
	}

	for _, info := range infos {
		size := info.Engine.GetQubitCount()
		if size < hybridThreshold {
			continue
		}
		engineSize := 1 << uint(size)

		chosen := info.DeviceID
		switch {
		case devSizes[info.DeviceID] == 0:
			// current device is idle, keep it.
		case devSizes[def.ID] <= devSizes[info.DeviceID]:
			chosen = def.ID
		default:
			best := ""
			bestLoad := -1
			for id, load := range devSizes {
				if load+engineSize > maxSize[id] {
					continue
				}
				if bestLoad == -1 || load < bestLoad {
					best = id
					bestLoad = load
				}
			}
			if best != "" {
				chosen = best
			}
		}
		if chosen != info.DeviceID {
			info.Engine.SetDevice(chosen)
			m.metrics.migrationCount.Add(1)
		}
		devSizes[chosen] += engineSize
	}
	m.metrics.redistributeCount.Add(1)
}

// Detach separates qubit and redistributes.
func (m *Multi) Detach(qubit int) (engine.Backend, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.separateBitLocked(qubit); err != nil {
		return nil, err
	}
	m.redistributeLocked()
	return m.shards[qubit], nil
}

// SeparateBit separates qubit and redistributes.
func (m *Multi) SeparateBit(qubit int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.separateBitLocked(qubit); err != nil {
		return err
	}
	m.redistributeLocked()
	return nil
}

// Clone deep-copies the unit, inherits the same device registry, and
// redistributes the copy's engines.
func (m *Multi) Clone() *Multi {
	c := &Multi{Unit: m.Unit.Clone(), devices: m.devices}
	c.RedistributeQEngines()
	return c
}

// GetQuantumState forces full entanglement of every qubit into one
// engine, then reads it out.
func (m *Multi) GetQuantumState(out []complex128) {
	m.mu.Lock()
	all := make([]int, m.qubitCount)
	for i := range all {
		all[i] = i
	}
	_, err := m.entangleLocked(all)
	if err == nil {
		m.redistributeLocked()
	}
	m.mu.Unlock()
	m.Unit.GetQuantumState(out)
}

// GetProbs is GetQuantumState followed by |amp|^2.
func (m *Multi) GetProbs(out []float64) {
	size := uint64(1) << uint(m.qubitCount)
	amps := make([]complex128, size)
	m.GetQuantumState(amps)
	for i, a := range amps {
		out[i] = real(a)*real(a) + imag(a)*imag(a)
	}
}
