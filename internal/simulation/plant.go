package simulation

import (
	"errors"
	"time"

	"github.com/markusressel/thermal2go/internal/thermal"
)

// Plant is a first order thermal model of a single heat source cooled by a fan.
//
//	dT/dt = HeatRate - (LeakRate + CoolRate * duty/100) * (T - Ambient)
type Plant struct {
	Ambient     thermal.Celsius
	Temperature thermal.Celsius
	// HeatRate is the heating in °C per second from the load
	HeatRate float64
	// LeakRate is the passive cooling per second and °C above ambient
	LeakRate float64
	// CoolRate is the additional cooling per second and °C above ambient at full duty
	CoolRate float64
	// Off stops the load, e.g. after a power down
	Off bool
}

const integrationStep = 100 * time.Millisecond

// Step advances the model by elapsed, with the fan running at duty
func (p *Plant) Step(elapsed time.Duration, duty thermal.PWMDuty) {
	for elapsed > 0 {
		dt := min(elapsed, integrationStep)
		elapsed -= dt

		heat := p.HeatRate
		if p.Off {
			heat = 0
		}
		cooling := (p.LeakRate + p.CoolRate*float64(duty)/float64(thermal.MaxPWMDuty)) * float64(p.Temperature-p.Ambient)
		p.Temperature += thermal.Celsius((heat - cooling) * dt.Seconds())
	}
}

// Equilibrium returns the temperature the plant settles at with a constant duty
func (p *Plant) Equilibrium(duty thermal.PWMDuty) thermal.Celsius {
	rate := p.LeakRate + p.CoolRate*float64(duty)/float64(thermal.MaxPWMDuty)
	if rate <= 0 {
		return thermal.Celsius(1e9)
	}
	return p.Ambient + thermal.Celsius(p.HeatRate/rate)
}

// Sensor reads the temperature of a Plant. Every DropEvery-th read times out
// if DropEvery is > 0.
type Sensor struct {
	Plant     *Plant
	DropEvery int

	reads int
}

func (s *Sensor) ReadTemperature() (thermal.Celsius, error) {
	s.reads++
	if s.DropEvery > 0 && s.reads%s.DropEvery == 0 {
		return 0, thermal.NewBusError(thermal.CodeTimeout, errors.New("simulated sample drop"))
	}
	return s.Plant.Temperature, nil
}

// Fan is a simulated fan with a linear duty to RPM curve.
// A Broken fan rejects every duty and does not cool.
type Fan struct {
	MaxRpm thermal.Rpm
	Broken bool

	duty     thermal.PWMDuty
	watchdog thermal.WatchdogConfig
}

func (f *Fan) SetPwm(duty thermal.PWMDuty) error {
	if f.Broken {
		return errors.New("simulated fan failure")
	}
	f.duty = duty
	return nil
}

func (f *Fan) ReadRpm() (thermal.Rpm, error) {
	return thermal.Rpm(float64(f.MaxRpm) * float64(f.duty) / float64(thermal.MaxPWMDuty)), nil
}

func (f *Fan) SetWatchdog(wd thermal.WatchdogConfig) error {
	f.watchdog = wd
	return nil
}

func (f *Fan) Supports(feature thermal.Feature) bool {
	return feature == thermal.FeatureRpmSensor || feature == thermal.FeatureWatchdog
}

// Duty returns the duty the fan is currently running at
func (f *Fan) Duty() thermal.PWMDuty {
	return f.duty
}

// Board is a simulated board with a fixed power mode. Powering down turns
// off the load of the plant.
type Board struct {
	Mask  thermal.PowerBitmask
	Plant *Plant

	PoweredDown bool
}

func (b *Board) PowerMode() thermal.PowerBitmask {
	return b.Mask
}

func (b *Board) PowerDown() error {
	b.PoweredDown = true
	if b.Plant != nil {
		b.Plant.Off = true
	}
	return nil
}
