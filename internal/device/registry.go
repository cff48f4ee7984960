// Package device is the process-wide accelerator device registry: a
// read-mostly table of device descriptors (id, maximum state-vector
// capacity) consulted by QUnitMulti's redistribution policy. Grounded on
// qc/simulator.RunnerRegistry's register/lookup shape, generalized from
// named runner factories to device descriptors.
package device

import (
	"sync"

	"github.com/google/uuid"
)

// Descriptor is the external device interface of §6: an id and the
// maximum amplitude-slice size (in qubits' worth of state, i.e. 2^n
// amplitudes) the device can hold.
type Descriptor struct {
	ID      string
	MaxSize int
}

// Registry is a process-wide table of devices. The first device
// registered becomes the default (assumed largest, per §7's
// DeviceCapacityExceeded recovery policy).
type Registry struct {
	mu         sync.RWMutex
	devices    map[string]Descriptor
	order      []string
	defaultID  string
	hasDefault bool
}

// NewRegistry builds an empty registry. Most callers want the
// process-wide Default() registry instead; NewRegistry exists for tests
// that need isolated device topologies.
func NewRegistry() *Registry {
	return &Registry{devices: make(map[string]Descriptor)}
}

// Register adds a device descriptor. If id is empty, a uuid is minted,
// mirroring qservice's id-minting convention.
func (r *Registry) Register(id string, maxSize int) Descriptor {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id == "" {
		id = uuid.New().String()
	}
	d := Descriptor{ID: id, MaxSize: maxSize}
	if _, exists := r.devices[id]; !exists {
		r.order = append(r.order, id)
	}
	r.devices[id] = d
	if !r.hasDefault {
		r.defaultID = id
		r.hasDefault = true
	}
	return d
}

// Get looks up a device by id.
func (r *Registry) Get(id string) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.devices[id]
	if !ok {
		return Descriptor{}, ErrUnknownDevice
	}
	return d, nil
}

// Default returns the registry's default device (the first registered).
func (r *Registry) Default() (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.hasDefault {
		return Descriptor{}, ErrNoDevices
	}
	return r.devices[r.defaultID], nil
}

// All returns every registered device in registration order.
func (r *Registry) All() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.devices[id])
	}
	return out
}

// process-wide default registry, initialized lazily with a single CPU
// device of generous capacity. Mirrors §9's "Global mutable state":
// initialized once, treated as read-mostly thereafter.
var (
	processOnce     sync.Once
	processRegistry *Registry
)

// Default returns the process-wide device registry, registering a
// single default CPU device on first use.
func Default() *Registry {
	processOnce.Do(func() {
		processRegistry = NewRegistry()
		processRegistry.Register("cpu-default", 1<<24)
	})
	return processRegistry
}
