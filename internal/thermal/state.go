package thermal

import (
	"fmt"
	"math"
	"time"

	"github.com/markusressel/thermal2go/internal/util"
)

// State is the externally visible state of the thermal control loop
type State uint8

const (
	// Boot waits for each active input to report in at least once
	Boot State = iota
	// Running is the normal closed loop control
	Running
	// Overheated means one or more components entered their critical
	// temperature range. Fans are at full speed, and the loop drops into
	// Uncontrollable if the components do not recover in time.
	Overheated
	// Uncontrollable means the temperature cannot be controlled. The system
	// is powered down until Reset is called.
	Uncontrollable
)

func (s State) String() string {
	switch s {
	case Boot:
		return "Boot"
	case Running:
		return "Running"
	case Overheated:
		return "Overheated"
	case Uncontrollable:
		return "Uncontrollable"
	default:
		return "Unknown"
	}
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for _, candidate := range []State{Boot, Running, Overheated, Uncontrollable} {
		if candidate.String() == string(text) {
			*s = candidate
			return nil
		}
	}
	return fmt.Errorf("%w: unknown state '%s'", ErrInvalidParameter, text)
}

// ReadingKind tells whether a TemperatureReading holds a value
type ReadingKind uint8

const (
	// ReadingMissing means the input has not reported since the last reset
	ReadingMissing ReadingKind = iota
	// ReadingValid means a value was read at Time
	ReadingValid
	// ReadingInactive means the input is intentionally not sampled
	ReadingInactive
)

func (k ReadingKind) String() string {
	switch k {
	case ReadingValid:
		return "valid"
	case ReadingInactive:
		return "inactive"
	default:
		return "missing"
	}
}

// TemperatureReading is the last known state of one input channel
type TemperatureReading struct {
	Kind  ReadingKind `json:"kind"`
	Time  time.Time   `json:"time,omitempty"`
	Value Celsius     `json:"value,omitempty"`
}

// ControlResult is the outcome of one iteration of the state machine
type ControlResult struct {
	// PowerDown is set if the system has to be powered down,
	// Pwm is only meaningful otherwise
	PowerDown bool
	Pwm       PWMDuty
}

func pwmResult(duty PWMDuty) ControlResult {
	return ControlResult{Pwm: duty}
}

var powerDownResult = ControlResult{PowerDown: true}

// controlState is the safety state machine together with its per-state payload.
// values is nil in Uncontrollable, pid is only used in Running and
// overheatedSince only in Overheated.
type controlState struct {
	state           State
	values          []TemperatureReading
	pid             util.OneSidedPid
	overheatedSince time.Time
}

func bootState(inputs int) controlState {
	return controlState{
		state:  Boot,
		values: make([]TemperatureReading, inputs),
	}
}

func (s *controlState) writeTemperature(index int, now time.Time, value Celsius) {
	if s.state == Uncontrollable {
		return
	}
	s.values[index] = TemperatureReading{Kind: ReadingValid, Time: now, Value: value}
}

func (s *controlState) writeInactive(index int) {
	if s.state == Uncontrollable {
		return
	}
	s.values[index] = TemperatureReading{Kind: ReadingInactive}
}

func (s *controlState) enterRunning() {
	s.state = Running
	s.pid = util.OneSidedPid{}
}

func (s *controlState) enterOverheated(now time.Time) {
	s.state = Overheated
	s.overheatedSince = now
}

func (s *controlState) enterUncontrollable() {
	s.state = Uncontrollable
	s.values = nil
	s.pid = util.OneSidedPid{}
}

// inputSummary is the result of evaluating all active inputs at a given time
type inputSummary struct {
	// every input has either reported or is inactive
	allReported bool
	anyPowerDown bool
	anyCritical  bool
	// every active input is below its critical temperature minus the hysteresis
	allSubcritical bool
	// smallest target margin across all active inputs, +Inf if there is none
	worstMargin Celsius
}

func evaluateInputs(values []TemperatureReading, inputs []InputChannel, now time.Time, hysteresis Celsius) inputSummary {
	summary := inputSummary{
		allReported:    true,
		allSubcritical: true,
		worstMargin:    Celsius(math.Inf(1)),
	}
	for i, v := range values {
		switch v.Kind {
		case ReadingMissing:
			summary.allReported = false
		case ReadingInactive:
			// ignored, but does not keep us from leaving Boot
		case ReadingValid:
			props := inputs[i].Properties
			temperature := ProjectTemperature(v.Value, v.Time, now, props.SlewRate)

			summary.anyPowerDown = summary.anyPowerDown || temperature >= props.PowerDownTemperature
			summary.anyCritical = summary.anyCritical || temperature >= props.CriticalTemperature
			summary.allSubcritical = summary.allSubcritical && temperature < props.CriticalTemperature-hysteresis
			summary.worstMargin = min(summary.worstMargin, props.TargetTemperature-temperature)
		}
	}
	return summary
}

// pidError is the error fed into the PID loop.
// The worst margin is adjusted by the target margin, so the loop overcools
// the system: a negative worst margin (overheating) becomes a positive error
// and thereby a positive fan duty.
func (s inputSummary) pidError(targetMargin Celsius) float64 {
	worst := s.worstMargin
	if math.IsInf(float64(worst), 1) {
		// no active input: hold the target temperature
		worst = 0
	}
	return float64(targetMargin - worst)
}

func (s *controlState) runPid(cfg util.PidConfig, err float64) PWMDuty {
	return PWMDuty(s.pid.Run(cfg, err, float64(MaxPWMDuty)))
}

// step advances the state machine by one tick
func (s *controlState) step(now time.Time, tc *ThermalControl) ControlResult {
	if s.state == Uncontrollable {
		return powerDownResult
	}

	summary := evaluateInputs(s.values, tc.inputs, now, tc.overheatHysteresis)
	if summary.anyPowerDown {
		s.enterUncontrollable()
		return powerDownResult
	}

	switch s.state {
	case Boot:
		if !summary.allReported {
			return pwmResult(MaxPWMDuty)
		}
		s.enterRunning()
		return pwmResult(s.runPid(tc.pidConfig, summary.pidError(tc.targetMargin)))

	case Running:
		if summary.anyCritical {
			s.enterOverheated(now)
			return pwmResult(MaxPWMDuty)
		}
		return pwmResult(s.runPid(tc.pidConfig, summary.pidError(tc.targetMargin)))

	case Overheated:
		if summary.allSubcritical {
			s.enterRunning()
			return pwmResult(s.runPid(tc.pidConfig, summary.pidError(tc.targetMargin)))
		}
		if now.After(s.overheatedSince.Add(tc.overheatTimeout)) {
			s.enterUncontrollable()
			return powerDownResult
		}
		return pwmResult(MaxPWMDuty)
	}

	return powerDownResult
}
