package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	c := New()
	assert.Equal(t, uint64(0), c.InitialBasisState())
	assert.False(t, c.GlobalRandomPhase())
	assert.True(t, c.NormalizationOn())
	assert.False(t, c.HardwareRNG())
	assert.InDelta(t, 1e-12, c.AmplitudeFloor(), 0)
	assert.InDelta(t, 1e-9, c.SeparabilityEps(), 0)
}

func TestSetOverridesDefault(t *testing.T) {
	c := New()
	c.Set(KeyDebug, true)
	assert.True(t, c.Debug())
}

func TestEnvPrefixOverride(t *testing.T) {
	os.Setenv("QCORE_DEBUG", "true")
	defer os.Unsetenv("QCORE_DEBUG")
	c := New()
	assert.True(t, c.Debug())
}
