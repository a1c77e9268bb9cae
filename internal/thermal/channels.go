package thermal

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/markusressel/thermal2go/internal/util"
)

const (
	DefaultOverheatHysteresis Celsius = 1.0
	DefaultOverheatTimeout            = 60 * time.Second
)

// ThermalProperties describes the thermal limits of a particular part in the system
type ThermalProperties struct {
	// Target temperature for this part
	TargetTemperature Celsius `json:"target"`

	// At the critical temperature, fans are turned up to 100% in an
	// attempt to cool the part.
	CriticalTemperature Celsius `json:"critical"`

	// Temperature at which the system is powered down. This should be
	// below the part's nonrecoverable temperature.
	PowerDownTemperature Celsius `json:"powerDown"`

	// Maximum slew rate of the temperature in °C per second, used to model
	// the worst-case temperature when samples are dropped.
	SlewRate float64 `json:"slew"`
}

// NewThermalProperties creates ThermalProperties, making sure that
// powerDown > critical > target and slew >= 0.
func NewThermalProperties(target, critical, powerDown Celsius, slew float64) (ThermalProperties, error) {
	p := ThermalProperties{
		TargetTemperature:    target,
		CriticalTemperature:  critical,
		PowerDownTemperature: powerDown,
		SlewRate:             slew,
	}
	return p, p.Validate()
}

func (p ThermalProperties) Validate() error {
	for _, v := range []float64{float64(p.TargetTemperature), float64(p.CriticalTemperature), float64(p.PowerDownTemperature), p.SlewRate} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: thermal properties must be finite", ErrInvalidParameter)
		}
	}
	if p.CriticalTemperature <= p.TargetTemperature {
		return fmt.Errorf("%w: critical temperature %.1f must be above target temperature %.1f", ErrInvalidParameter, p.CriticalTemperature, p.TargetTemperature)
	}
	if p.PowerDownTemperature <= p.CriticalTemperature {
		return fmt.Errorf("%w: power down temperature %.1f must be above critical temperature %.1f", ErrInvalidParameter, p.PowerDownTemperature, p.CriticalTemperature)
	}
	if p.SlewRate < 0 {
		return fmt.Errorf("%w: slew rate must be >= 0", ErrInvalidParameter)
	}
	return nil
}

// TemperatureSensor binds a TemperatureSource to the id used for telemetry
type TemperatureSensor struct {
	ID     string
	Source TemperatureSource
}

// InputChannel is a temperature sensor associated with a particular
// component in the system
type InputChannel struct {
	Sensor     TemperatureSensor
	Properties ThermalProperties

	// Bits set for every power mode in which this input is sampled
	PowerModeMask PowerBitmask

	// If the device reports that it is not present, ignore it
	Removable bool
}

// Fan binds a FanActuator to the id used for telemetry
type Fan struct {
	ID       string
	Actuator FanActuator
}

// Config is the board specific configuration of a ThermalControl
type Config struct {
	Inputs []InputChannel
	// MiscSensors are read and reported, but not used for control
	MiscSensors []TemperatureSensor
	Fans        []Fan

	// DefaultPid is used initially and restored on Reset
	DefaultPid util.PidConfig

	// How much the temperature has to drop below critical before
	// returning from Overheated to Running
	OverheatHysteresis Celsius
	// How long to wait in Overheated before powering down
	OverheatTimeout time.Duration
}

func (c Config) validate() error {
	if len(c.Fans) == 0 {
		return errors.New("at least one fan is required")
	}
	for i, fan := range c.Fans {
		if fan.Actuator == nil {
			return fmt.Errorf("fan %d (%s): missing actuator", i, fan.ID)
		}
	}
	for i, input := range c.Inputs {
		if input.Sensor.Source == nil {
			return fmt.Errorf("input %d (%s): missing temperature source", i, input.Sensor.ID)
		}
		if err := input.Properties.Validate(); err != nil {
			return fmt.Errorf("input %d (%s): %w", i, input.Sensor.ID, err)
		}
	}
	for i, sensor := range c.MiscSensors {
		if sensor.Source == nil {
			return fmt.Errorf("misc sensor %d (%s): missing temperature source", i, sensor.ID)
		}
	}
	if err := c.DefaultPid.Validate(); err != nil {
		return fmt.Errorf("default pid: %w", ErrInvalidParameter)
	}
	if c.OverheatHysteresis < 0 || math.IsNaN(float64(c.OverheatHysteresis)) || math.IsInf(float64(c.OverheatHysteresis), 0) {
		return fmt.Errorf("%w: overheat hysteresis must be finite and >= 0", ErrInvalidParameter)
	}
	if c.OverheatTimeout < 0 {
		return fmt.Errorf("%w: overheat timeout must be >= 0", ErrInvalidParameter)
	}
	return nil
}
