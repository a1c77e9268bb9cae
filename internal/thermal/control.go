package thermal

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/markusressel/thermal2go/internal/ui"
	"github.com/markusressel/thermal2go/internal/util"
)

// ThermalControl runs the closed loop control of all configured fans.
//
// It is not safe for concurrent use, every method is expected to be called
// from the goroutine that drives RunControl.
type ThermalControl struct {
	inputs      []InputChannel
	miscSensors []TemperatureSensor
	fans        []Fan

	board     Board
	telemetry Telemetry

	defaultPid util.PidConfig
	pidConfig  util.PidConfig

	// target margin, > 0 overcools the system
	targetMargin Celsius

	overheatHysteresis Celsius
	overheatTimeout    time.Duration

	// no sensors are active initially
	powerMode PowerBitmask

	state controlState

	// last applied result, for status reporting only
	lastResult ControlResult
}

// New creates a ThermalControl in the Boot state.
// OverheatHysteresis and OverheatTimeout are used as given, zero included.
func New(cfg Config, board Board, telemetry Telemetry) (*ThermalControl, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if board == nil {
		return nil, errors.New("missing board")
	}
	if telemetry == nil {
		telemetry = NoopTelemetry{}
	}

	return &ThermalControl{
		inputs:             cfg.Inputs,
		miscSensors:        cfg.MiscSensors,
		fans:               cfg.Fans,
		board:              board,
		telemetry:          telemetry,
		defaultPid:         cfg.DefaultPid,
		pidConfig:          cfg.DefaultPid,
		overheatHysteresis: cfg.OverheatHysteresis,
		overheatTimeout:    cfg.OverheatTimeout,
		state:              bootState(len(cfg.Inputs)),
	}, nil
}

// SetPid replaces the PID configuration. If the integral gain is 0, the
// accumulated integral is cleared, since it could never wind down otherwise.
func (tc *ThermalControl) SetPid(cfg util.PidConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParameter, err)
	}
	if tc.state.state == Running && cfg.GainI == 0 {
		tc.state.pid.ResetIntegral()
	}
	tc.pidConfig = cfg
	return nil
}

// Pid returns the active PID configuration
func (tc *ThermalControl) Pid() util.PidConfig {
	return tc.pidConfig
}

// SetMargin sets the target margin, which must be finite and >= 0
func (tc *ThermalControl) SetMargin(margin Celsius) error {
	value := float64(margin)
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
		return fmt.Errorf("%w: margin %v", ErrInvalidParameter, value)
	}
	tc.targetMargin = margin
	return nil
}

func (tc *ThermalControl) Margin() Celsius {
	return tc.targetMargin
}

// Reset returns to Boot, restores the default PID configuration
// and removes any overcooling margin.
func (tc *ThermalControl) Reset(now time.Time) {
	tc.resetState(now)
	tc.pidConfig = tc.defaultPid
	tc.targetMargin = 0
}

func (tc *ThermalControl) resetState(now time.Time) {
	tc.state = bootState(len(tc.inputs))
	tc.traceState(now)
}

func (tc *ThermalControl) State() State {
	return tc.state.state
}

func (tc *ThermalControl) traceState(now time.Time) {
	ui.Debug("Thermal control state: %s", tc.state.state)
	tc.telemetry.Trace(TraceRecord{Time: now, Kind: TraceAutoState, State: tc.state.state})
}

func (tc *ThermalControl) post(now time.Time, sensorId string, value float64) {
	if err := tc.telemetry.Post(sensorId, value); err != nil {
		tc.telemetry.Trace(TraceRecord{Time: now, Kind: TracePostFailed})
		ui.Warning("Unable to post value of sensor %s: %v", sensorId, err)
	}
}

func (tc *ThermalControl) noData(now time.Time, sensorId string, reason NoDataReason) {
	if err := tc.telemetry.NoData(sensorId, reason); err != nil {
		tc.telemetry.Trace(TraceRecord{Time: now, Kind: TracePostFailed})
		ui.Warning("Unable to post missing value of sensor %s: %v", sensorId, err)
	}
}

// ReadSensors reads all fan RPM and temperature sensors, posts the results
// to telemetry and records the input readings in the state machine.
//
// A change of the power mode resets the state machine to Boot, since a new
// set of inputs may be required to come online.
func (tc *ThermalControl) ReadSensors(now time.Time) {
	for index, fan := range tc.fans {
		if !fan.Actuator.Supports(FeatureRpmSensor) {
			continue
		}
		rpm, err := fan.Actuator.ReadRpm()
		if err != nil {
			tc.telemetry.Trace(failureRecord(now, TraceFanReadFailed, GroupFan, index, err))
			tc.noData(now, fan.ID, NoDataReasonOf(err))
			continue
		}
		tc.post(now, fan.ID, float64(rpm))
	}

	for index, sensor := range tc.miscSensors {
		value, err := sensor.Source.ReadTemperature()
		if err != nil {
			tc.telemetry.Trace(failureRecord(now, TraceMiscReadFailed, GroupMisc, index, err))
			tc.noData(now, sensor.ID, NoDataReasonOf(err))
			continue
		}
		tc.post(now, sensor.ID, float64(value))
	}

	previousPowerMode := tc.powerMode
	tc.powerMode = tc.board.PowerMode()
	if previousPowerMode != tc.powerMode {
		ui.Info("Power mode changed from %s to %s", previousPowerMode, tc.powerMode)
		tc.telemetry.Trace(TraceRecord{Time: now, Kind: TracePowerModeChanged, PowerMode: tc.powerMode})
		tc.resetState(now)
	}

	for index, input := range tc.inputs {
		// inputs which are not powered in the current mode are not read at all
		if !tc.powerMode.Intersects(input.PowerModeMask) {
			tc.state.writeInactive(index)
			tc.noData(now, input.Sensor.ID, NoDataDeviceOff)
			continue
		}

		value, err := input.Sensor.Source.ReadTemperature()
		if err != nil {
			if input.Removable && IsNotPresent(err) {
				tc.state.writeInactive(index)
			} else {
				// the stale reading is kept, if the failure persists the
				// projected temperature will eventually force a safe state
				tc.telemetry.Trace(failureRecord(now, TraceSensorReadFailed, GroupInput, index, err))
			}
			tc.noData(now, input.Sensor.ID, NoDataReasonOf(err))
			continue
		}
		tc.state.writeTemperature(index, now, value)
		tc.post(now, input.Sensor.ID, float64(value))
	}
}

// RunControl reads all sensors, advances the state machine and applies
// the result to the fans (or powers the system down).
//
// now must not decrease between calls.
func (tc *ThermalControl) RunControl(now time.Time) error {
	tc.ReadSensors(now)

	previous := tc.state.state
	result := tc.state.step(now, tc)
	if tc.state.state != previous {
		tc.traceState(now)
	}
	tc.lastResult = result

	if result.PowerDown {
		if err := tc.board.PowerDown(); err != nil {
			tc.telemetry.Trace(TraceRecord{Time: now, Kind: TracePowerDownFailed})
			ui.Error("Power down failed: %v", err)
		}
		return tc.SetPwm(MinPWMDuty)
	}

	tc.telemetry.Trace(TraceRecord{Time: now, Kind: TraceControlPwm, Value: float64(result.Pwm)})
	return tc.SetPwm(result.Pwm)
}

// SetPwm sets the duty cycle of every fan.
//
// All fans are attempted even if one of them fails, the last failure
// is returned.
func (tc *ThermalControl) SetPwm(duty PWMDuty) error {
	if duty > MaxPWMDuty {
		return fmt.Errorf("%w: %d", ErrInvalidPWM, duty)
	}
	var lastErr error
	for _, fan := range tc.fans {
		if err := fan.Actuator.SetPwm(duty); err != nil {
			ui.Warning("Unable to set PWM of fan %s: %v", fan.ID, err)
			lastErr = err
		}
	}
	return newDeviceError(lastErr)
}

// SetFanPwm sets the duty cycle of a single fan, independent of the control loop
func (tc *ThermalControl) SetFanPwm(index int, duty PWMDuty) error {
	if duty > MaxPWMDuty {
		return fmt.Errorf("%w: %d", ErrInvalidPWM, duty)
	}
	if index < 0 || index >= len(tc.fans) {
		return fmt.Errorf("%w: no fan with index %d", ErrInvalidParameter, index)
	}
	return newDeviceError(tc.fans[index].Actuator.SetPwm(duty))
}

// FanIndex returns the index of the fan with the given id
func (tc *ThermalControl) FanIndex(id string) (int, bool) {
	for index, fan := range tc.fans {
		if fan.ID == id {
			return index, true
		}
	}
	return -1, false
}

// SetWatchdog configures the watchdog of every fan that has one.
//
// All fans are attempted even if one of them fails, the last failure
// is returned.
func (tc *ThermalControl) SetWatchdog(wd WatchdogConfig) error {
	var lastErr error
	for _, fan := range tc.fans {
		if !fan.Actuator.Supports(FeatureWatchdog) {
			continue
		}
		if err := fan.Actuator.SetWatchdog(wd); err != nil {
			ui.Warning("Unable to set watchdog of fan %s: %v", fan.ID, err)
			lastErr = err
		}
	}
	return newDeviceError(lastErr)
}
