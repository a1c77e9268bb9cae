package simulation

import (
	"time"

	"github.com/markusressel/thermal2go/internal/thermal"
	"github.com/markusressel/thermal2go/internal/ui"
	"github.com/markusressel/thermal2go/internal/util"
)

const (
	sensorId = "plant"
	fanId    = "fan"
)

type Config struct {
	Plant      Plant
	Properties thermal.ThermalProperties
	Pid        util.PidConfig
	// Tick is the simulated interval between control ticks
	Tick time.Duration
	// DropEvery makes every n-th sensor read fail, 0 disables dropouts
	DropEvery int
	// BrokenFan makes every pwm write fail
	BrokenFan          bool
	MaxRpm             thermal.Rpm
	OverheatHysteresis thermal.Celsius
	OverheatTimeout    time.Duration
}

// DefaultConfig is a plant that settles at 50°C with a fan duty of around 60%
func DefaultConfig() Config {
	return Config{
		Plant: Plant{
			Ambient:     25,
			Temperature: 25,
			HeatRate:    1,
			LeakRate:    0.01,
			CoolRate:    0.05,
		},
		Properties: thermal.ThermalProperties{
			TargetTemperature:    50,
			CriticalTemperature:  80,
			PowerDownTemperature: 95,
			SlewRate:             1,
		},
		Pid:                util.PidConfig{GainP: 5, GainI: 0.2},
		Tick:               time.Second,
		MaxRpm:             3000,
		OverheatHysteresis: thermal.DefaultOverheatHysteresis,
		OverheatTimeout:    thermal.DefaultOverheatTimeout,
	}
}

// Sample is the state of the simulation after one control tick
type Sample struct {
	Elapsed     time.Duration   `json:"elapsed"`
	Temperature thermal.Celsius `json:"temperature"`
	Duty        thermal.PWMDuty `json:"duty"`
	State       thermal.State   `json:"state"`
}

// Simulation drives a ThermalControl with a simulated plant in simulated time
type Simulation struct {
	plant *Plant
	fan   *Fan
	board *Board
	tc    *thermal.ThermalControl

	tick    time.Duration
	start   time.Time
	now     time.Time
	elapsed time.Duration
}

// New creates a simulation. telemetry may be nil.
func New(cfg Config, telemetry thermal.Telemetry) (*Simulation, error) {
	if cfg.Tick <= 0 {
		cfg.Tick = time.Second
	}
	plant := cfg.Plant
	fan := &Fan{MaxRpm: cfg.MaxRpm, Broken: cfg.BrokenFan}
	board := &Board{Mask: 1, Plant: &plant}

	tc, err := thermal.New(thermal.Config{
		Inputs: []thermal.InputChannel{{
			Sensor:        thermal.TemperatureSensor{ID: sensorId, Source: &Sensor{Plant: &plant, DropEvery: cfg.DropEvery}},
			Properties:    cfg.Properties,
			PowerModeMask: 1,
		}},
		Fans:               []thermal.Fan{{ID: fanId, Actuator: fan}},
		DefaultPid:         cfg.Pid,
		OverheatHysteresis: cfg.OverheatHysteresis,
		OverheatTimeout:    cfg.OverheatTimeout,
	}, board, telemetry)
	if err != nil {
		return nil, err
	}

	start := time.Unix(0, 0).UTC()
	return &Simulation{
		plant: &plant,
		fan:   fan,
		board: board,
		tc:    tc,
		tick:  cfg.Tick,
		start: start,
		now:   start,
	}, nil
}

// Step advances the plant by one tick with the current fan duty and runs
// the control loop once.
func (s *Simulation) Step() Sample {
	s.plant.Step(s.tick, s.fan.Duty())
	s.now = s.now.Add(s.tick)
	s.elapsed += s.tick

	previous := s.tc.State()
	if err := s.tc.RunControl(s.now); err != nil {
		ui.Debug("Simulated control tick failed: %v", err)
	}
	if state := s.tc.State(); state != previous {
		ui.Debug("%s: %s -> %s at %.1f°C", s.elapsed, previous, state, s.plant.Temperature)
	}

	return Sample{
		Elapsed:     s.elapsed,
		Temperature: s.plant.Temperature,
		Duty:        s.fan.Duty(),
		State:       s.tc.State(),
	}
}

// Run executes the given number of steps
func (s *Simulation) Run(steps int) []Sample {
	samples := make([]Sample, 0, steps)
	for i := 0; i < steps; i++ {
		samples = append(samples, s.Step())
	}
	return samples
}

// PoweredDown tells whether the control loop powered down the simulated system
func (s *Simulation) PoweredDown() bool {
	return s.board.PoweredDown
}

// Control gives access to the simulated ThermalControl, e.g. to change its margin
func (s *Simulation) Control() *thermal.ThermalControl {
	return s.tc
}
