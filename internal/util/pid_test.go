package util

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPidConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     PidConfig
		wantErr bool
	}{
		{"valid", PidConfig{Zero: 0, GainP: 1, GainI: 0.5, GainD: 0.1}, false},
		{"zero integral and derivative", PidConfig{GainP: 1}, false},
		{"negative zero is allowed", PidConfig{Zero: -5, GainP: 1}, false},
		{"zero is NaN", PidConfig{Zero: math.NaN(), GainP: 1}, true},
		{"zero is infinite", PidConfig{Zero: math.Inf(-1), GainP: 1}, true},
		{"p is zero", PidConfig{GainP: 0}, true},
		{"p is negative", PidConfig{GainP: -1}, true},
		{"p is NaN", PidConfig{GainP: math.NaN()}, true},
		{"p is infinite", PidConfig{GainP: math.Inf(1)}, true},
		{"i is negative", PidConfig{GainP: 1, GainI: -0.1}, true},
		{"i is NaN", PidConfig{GainP: 1, GainI: math.NaN()}, true},
		{"d is negative", PidConfig{GainP: 1, GainD: -0.1}, true},
		{"d is infinite", PidConfig{GainP: 1, GainD: math.Inf(1)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidPidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOneSidedPid_ProportionalOnly(t *testing.T) {
	// GIVEN
	cfg := PidConfig{Zero: 0, GainP: 1}
	pid := OneSidedPid{}

	// WHEN
	output := pid.Run(cfg, 25, 100)

	// THEN
	assert.Equal(t, 25.0, output)
}

func TestOneSidedPid_ZeroBias(t *testing.T) {
	// GIVEN
	cfg := PidConfig{Zero: 30, GainP: 2}
	pid := OneSidedPid{}

	// WHEN
	output := pid.Run(cfg, -5, 100)

	// THEN
	assert.Equal(t, 20.0, output)
}

func TestOneSidedPid_NeverNegative(t *testing.T) {
	// GIVEN
	cfg := PidConfig{GainP: 1}
	pid := OneSidedPid{}

	// WHEN
	output := pid.Run(cfg, -50, 100)

	// THEN
	assert.Equal(t, 0.0, output)
}

func TestOneSidedPid_DerivativeSkippedOnFirstSample(t *testing.T) {
	// GIVEN
	cfg := PidConfig{GainP: 1, GainD: 2}
	pid := OneSidedPid{}

	// WHEN
	first := pid.Run(cfg, 10, 100)
	second := pid.Run(cfg, 15, 100)

	// THEN
	assert.Equal(t, 10.0, first)
	// p = 15, d = 2 * (15 - 10)
	assert.Equal(t, 25.0, second)
}

func TestOneSidedPid_IntegralAccumulates(t *testing.T) {
	// GIVEN
	cfg := PidConfig{GainP: 1, GainI: 0.5}
	pid := OneSidedPid{}

	// WHEN
	pid.Run(cfg, 10, 100)
	output := pid.Run(cfg, 10, 100)

	// THEN
	assert.Equal(t, 10.0, pid.Integral())
	assert.Equal(t, 20.0, output)
}

func TestOneSidedPid_OutputAlwaysWithinLimits(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 50; run++ {
		// GIVEN
		cfg := PidConfig{
			Zero:  rng.Float64()*200 - 100,
			GainP: rng.Float64()*5 + 0.001,
			GainI: rng.Float64() * 2,
			GainD: rng.Float64() * 2,
		}
		pid := OneSidedPid{}

		for step := 0; step < 200; step++ {
			// WHEN
			err := rng.Float64()*400 - 200
			output := pid.Run(cfg, err, 100)

			// THEN
			assert.GreaterOrEqual(t, output, 0.0)
			assert.LessOrEqual(t, output, 100.0)
		}
	}
}

func TestOneSidedPid_AntiWindup(t *testing.T) {
	// GIVEN
	cfg := PidConfig{GainP: 1, GainI: 1}
	pid := OneSidedPid{}

	// WHEN
	// saturate for a long time with a large positive error
	for i := 0; i < 100; i++ {
		output := pid.Run(cfg, 50, 100)
		assert.Equal(t, 100.0, output)
	}

	// THEN
	// pd = 50, so the integral may contribute at most 50
	assert.LessOrEqual(t, pid.Integral(), 50.0)

	// WHEN
	// the error drops to zero, stale windup must not keep the output pinned
	output := pid.Run(cfg, 0, 100)

	// THEN
	// pd = 0, integral is clamped to at most 50
	assert.LessOrEqual(t, output, 50.0)
}

func TestOneSidedPid_AntiWindupWhenPdExceedsLimit(t *testing.T) {
	// GIVEN
	cfg := PidConfig{GainP: 10, GainI: 1}
	pid := OneSidedPid{}

	// WHEN
	for i := 0; i < 20; i++ {
		pid.Run(cfg, 20, 100)
	}

	// THEN
	// pd = 200 > 100, so the integral is clamped to [-200, 0]
	assert.Equal(t, 0.0, pid.Integral())
}

func TestOneSidedPid_ResetIntegral(t *testing.T) {
	// GIVEN
	cfg := PidConfig{GainP: 1, GainI: 1}
	pid := OneSidedPid{}
	pid.Run(cfg, 10, 100)
	assert.NotZero(t, pid.Integral())

	// WHEN
	pid.ResetIntegral()

	// THEN
	assert.Zero(t, pid.Integral())
}
