// Package config is the viper-backed settings loader for every
// construction-time knob listed in spec §6: initial basis state, global
// random phase, normalization-on, hardware-RNG, device id, amplitude
// floor, separability threshold, concurrency threshold. Mirrors the
// teacher's implied config.Config (c.GetBool("debug")-style accessors),
// extended with the register-level settings this module adds.
package config

import (
	"strings"

	"github.com/spf13/viper"
)

// Keys for every recognized setting, exported so callers building a
// custom *viper.Viper (e.g. from a config file) use matching names.
const (
	KeyInitialBasisState    = "qbdt.initial_basis_state"
	KeyGlobalRandomPhase    = "qbdt.global_random_phase"
	KeyNormalizationOn      = "qbdt.normalization_on"
	KeyHardwareRNG          = "qbdt.hardware_rng"
	KeyDeviceID             = "qbdt.device_id"
	KeyAmplitudeFloor       = "qbdt.amplitude_floor"
	KeySeparabilityEps      = "qbdt.separability_epsilon"
	KeyConcurrencyThreshold = "qbdt.concurrency_threshold"
	KeyDebug                = "debug"
)

// Config wraps a *viper.Viper with typed accessors for the settings
// above, falling back to documented defaults when unset.
type Config struct {
	v *viper.Viper
}

// New builds a Config with defaults pre-populated; env vars of the form
// QCORE_QBDT_AMPLITUDE_FLOOR override the matching key, mirroring the
// teacher's viper setup for its own settings.
func New() *Config {
	v := viper.New()
	v.SetEnvPrefix("QCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyInitialBasisState, uint64(0))
	v.SetDefault(KeyGlobalRandomPhase, false)
	v.SetDefault(KeyNormalizationOn, true)
	v.SetDefault(KeyHardwareRNG, false)
	v.SetDefault(KeyDeviceID, "")
	v.SetDefault(KeyAmplitudeFloor, 1e-12)
	v.SetDefault(KeySeparabilityEps, 1e-9)
	v.SetDefault(KeyConcurrencyThreshold, 1<<10)
	v.SetDefault(KeyDebug, false)

	return &Config{v: v}
}

func (c *Config) InitialBasisState() uint64  { return c.v.GetUint64(KeyInitialBasisState) }
func (c *Config) GlobalRandomPhase() bool    { return c.v.GetBool(KeyGlobalRandomPhase) }
func (c *Config) NormalizationOn() bool      { return c.v.GetBool(KeyNormalizationOn) }
func (c *Config) HardwareRNG() bool          { return c.v.GetBool(KeyHardwareRNG) }
func (c *Config) DeviceID() string           { return c.v.GetString(KeyDeviceID) }
func (c *Config) AmplitudeFloor() float64    { return c.v.GetFloat64(KeyAmplitudeFloor) }
func (c *Config) SeparabilityEps() float64   { return c.v.GetFloat64(KeySeparabilityEps) }
func (c *Config) ConcurrencyThreshold() int  { return c.v.GetInt(KeyConcurrencyThreshold) }
func (c *Config) Debug() bool                { return c.v.GetBool(KeyDebug) }

// Set overrides a single key, for tests and programmatic tuning.
func (c *Config) Set(key string, value interface{}) { c.v.Set(key, value) }
