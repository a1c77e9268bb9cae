package thermal

import (
	"time"

	"github.com/markusressel/thermal2go/internal/util"
)

// InputStatus is the last known reading of one input channel
type InputStatus struct {
	ID      string             `json:"id"`
	Reading TemperatureReading `json:"reading"`
	// Projected is the worst-case temperature at the time of the snapshot,
	// only set for valid readings
	Projected Celsius `json:"projected,omitempty"`
	Margin    Celsius `json:"margin,omitempty"`
}

// Status is a point in time copy of the control loop state
type Status struct {
	Time      time.Time      `json:"time"`
	State     State          `json:"state"`
	PowerMode PowerBitmask   `json:"powerMode"`
	Margin    Celsius        `json:"margin"`
	Pid       util.PidConfig `json:"pid"`
	Integral  float64        `json:"integral"`
	PowerDown bool           `json:"powerDown"`
	Pwm       PWMDuty        `json:"pwm"`
	Inputs    []InputStatus  `json:"inputs"`
}

// Status takes a snapshot of the current state, projecting every valid
// reading to now.
func (tc *ThermalControl) Status(now time.Time) Status {
	status := Status{
		Time:      now,
		State:     tc.state.state,
		PowerMode: tc.powerMode,
		Margin:    tc.targetMargin,
		Pid:       tc.pidConfig,
		PowerDown: tc.lastResult.PowerDown,
		Pwm:       tc.lastResult.Pwm,
		Inputs:    make([]InputStatus, len(tc.inputs)),
	}
	if tc.state.state == Running {
		status.Integral = tc.state.pid.Integral()
	}

	for i, input := range tc.inputs {
		entry := InputStatus{ID: input.Sensor.ID}
		if i < len(tc.state.values) {
			entry.Reading = tc.state.values[i]
		}
		if entry.Reading.Kind == ReadingValid {
			props := input.Properties
			entry.Projected = ProjectTemperature(entry.Reading.Value, entry.Reading.Time, now, props.SlewRate)
			entry.Margin = props.TargetTemperature - entry.Projected
		}
		status.Inputs[i] = entry
	}
	return status
}
