package util

import (
	"errors"
	"math"
)

var ErrInvalidPidConfig = errors.New("invalid pid configuration")

// PidConfig holds the tuning of a OneSidedPid
type PidConfig struct {
	// Output at zero error
	Zero float64 `json:"zero"`
	// Proportional gain, must be > 0
	GainP float64 `json:"p"`
	// Integral gain, must be >= 0
	GainI float64 `json:"i"`
	// Derivative gain, must be >= 0
	GainD float64 `json:"d"`
}

// Validate checks that the zero output is finite, that all gains are finite
// and non-negative, and that the proportional gain is strictly positive.
func (c PidConfig) Validate() error {
	if !isFinite(c.Zero) {
		return ErrInvalidPidConfig
	}
	if !isFinite(c.GainP) || c.GainP <= 0 {
		return ErrInvalidPidConfig
	}
	if !isFinite(c.GainI) || c.GainI < 0 {
		return ErrInvalidPidConfig
	}
	if !isFinite(c.GainD) || c.GainD < 0 {
		return ErrInvalidPidConfig
	}
	return nil
}

// OneSidedPid is a PID loop that can only push its output in one direction,
// i.e. the output is always within [0, outputLimit].
type OneSidedPid struct {
	// previous error, for the derivative term
	prevError float64
	hasPrev   bool

	// accumulated integral term, pre-multiplied by the integral gain
	integral float64
}

// Run advances the loop by one step.
//
// The error and output are expected to have the same sign, i.e. a large
// positive error produces a large positive output.
func (p *OneSidedPid) Run(cfg PidConfig, err float64, outputLimit float64) float64 {
	proportional := cfg.GainP * err

	// pre-multiplied, so changing GainI later does not cause a jump
	p.integral += err * cfg.GainI

	derivative := 0.0
	if p.hasPrev {
		derivative = (err - p.prevError) * cfg.GainD
	}
	p.prevError = err
	p.hasPrev = true

	// clamp the integral to the range in which it can still affect the output
	outPd := cfg.Zero + proportional + derivative
	var integralMin, integralMax float64
	if outPd > outputLimit {
		integralMin, integralMax = -outPd, 0
	} else if outPd < 0 {
		integralMin, integralMax = 0, outputLimit-outPd
	} else {
		integralMin, integralMax = -outPd, outputLimit-outPd
	}
	p.integral = Coerce(p.integral, integralMin, integralMax)

	return Coerce(outPd+p.integral, 0, outputLimit)
}

// Integral returns the current (gain-multiplied) integral accumulator
func (p *OneSidedPid) Integral() float64 {
	return p.integral
}

// ResetIntegral clears the integral accumulator
func (p *OneSidedPid) ResetIntegral() {
	p.integral = 0
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
