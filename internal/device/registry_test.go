package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstRegisteredBecomesDefault(t *testing.T) {
	r := NewRegistry()
	first := r.Register("dev-a", 1024)
	r.Register("dev-b", 2048)

	def, err := r.Default()
	require.NoError(t, err)
	assert.Equal(t, first, def)
}

func TestGetUnknownDeviceErrors(t *testing.T) {
	r := NewRegistry()
	r.Register("dev-a", 1024)
	_, err := r.Get("missing")
	assert.ErrorIs(t, err, ErrUnknownDevice)
}

func TestDefaultOnEmptyRegistryErrors(t *testing.T) {
	r := NewRegistry()
	_, err := r.Default()
	assert.ErrorIs(t, err, ErrNoDevices)
}

func TestRegisterMintsIDWhenEmpty(t *testing.T) {
	r := NewRegistry()
	d := r.Register("", 16)
	assert.NotEmpty(t, d.ID)
}

func TestAllReturnsRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	r.Register("dev-a", 1)
	r.Register("dev-b", 2)
	r.Register("dev-c", 3)
	ids := []string{}
	for _, d := range r.All() {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"dev-a", "dev-b", "dev-c"}, ids)
}

func TestProcessDefaultRegistryIsSingleton(t *testing.T) {
	a := Default()
	b := Default()
	assert.Same(t, a, b)
}
