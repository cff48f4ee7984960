package qbdt

import (
	"github.com/kegliz/qcore/internal/config"
	"github.com/kegliz/qcore/internal/qmath"
)

type registerConfig struct {
	attachedQubitCount int
	initState          uint64
	globalPhase        bool
	normalizationOn    bool
	eps                float64
	floor              float64
	rand               qmath.Source
	debug              bool
}

// Option configures NewRegister, teacher style (compare qc/builder.New).
type Option func(*registerConfig)

// WithAttachedQubitCount sets how many of the highest-order qubits live
// in a dense AttachedLeaf engine rather than tree structure.
func WithAttachedQubitCount(n int) Option {
	return func(c *registerConfig) { c.attachedQubitCount = n }
}

// WithInitialBasisState sets the basis permutation SetPermutation starts from.
func WithInitialBasisState(perm uint64) Option {
	return func(c *registerConfig) { c.initState = perm }
}

// WithGlobalRandomPhase enables the optional random global phase on SetPermutation.
func WithGlobalRandomPhase(on bool) Option {
	return func(c *registerConfig) { c.globalPhase = on }
}

// WithNormalizationOn toggles auto-renormalization on detected numerical drift.
func WithNormalizationOn(on bool) Option {
	return func(c *registerConfig) { c.normalizationOn = on }
}

// WithEpsilon overrides the structural-equivalence/magnitude comparison tolerance.
func WithEpsilon(eps float64) Option {
	return func(c *registerConfig) { c.eps = eps }
}

// WithAmplitudeFloor overrides the zero-collapse threshold.
func WithAmplitudeFloor(floor float64) Option {
	return func(c *registerConfig) { c.floor = floor }
}

// WithRandSource injects the measurement/phase sampling collaborator.
func WithRandSource(r qmath.Source) Option {
	return func(c *registerConfig) { c.rand = r }
}

// WithDebugLogging raises the register's logger to debug level.
func WithDebugLogging(on bool) Option {
	return func(c *registerConfig) { c.debug = on }
}

// defaultsFrom seeds a registerConfig from a config.Config, so options
// not explicitly supplied fall back to the process configuration.
func defaultsFrom(cfg *config.Config) registerConfig {
	var rand qmath.Source = qmath.NewMathSource(1)
	if cfg.HardwareRNG() {
		rand = qmath.NewHardwareSource(nil)
	}
	return registerConfig{
		attachedQubitCount: 0,
		initState:          cfg.InitialBasisState(),
		globalPhase:        cfg.GlobalRandomPhase(),
		normalizationOn:    cfg.NormalizationOn(),
		eps:                cfg.SeparabilityEps(),
		floor:              cfg.AmplitudeFloor(),
		rand:               rand,
		debug:              cfg.Debug(),
	}
}
