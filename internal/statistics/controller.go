package statistics

import (
	"github.com/markusressel/thermal2go/internal/thermal"
	"github.com/prometheus/client_golang/prometheus"
)

const controllerSubsystem = "controller"

var allStates = []thermal.State{thermal.Boot, thermal.Running, thermal.Overheated, thermal.Uncontrollable}

// StatusProvider returns the latest status snapshot of the control loop
type StatusProvider func() thermal.Status

type ControllerCollector struct {
	status StatusProvider

	state     *prometheus.Desc
	pwm       *prometheus.Desc
	margin    *prometheus.Desc
	integral  *prometheus.Desc
	powerDown *prometheus.Desc
	projected *prometheus.Desc
	headroom  *prometheus.Desc
}

func NewControllerCollector(status StatusProvider) *ControllerCollector {
	return &ControllerCollector{
		status: status,
		state: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "state"),
			"1 for the current state of the control loop, 0 otherwise",
			[]string{"state"}, nil,
		),
		pwm: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "pwm"),
			"Duty cycle in percent computed by the last control tick",
			nil, nil,
		),
		margin: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "target_margin"),
			"Target margin to the target temperature in °C",
			nil, nil,
		),
		integral: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "pid_integral"),
			"Integral term of the PID controller",
			nil, nil,
		),
		powerDown: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "power_down"),
			"1 if the last control tick requested a power down",
			nil, nil,
		),
		projected: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "input_projected_temperature"),
			"Worst-case projected temperature of the input in °C",
			[]string{"id"}, nil,
		),
		headroom: prometheus.NewDesc(prometheus.BuildFQName(namespace, controllerSubsystem, "input_margin"),
			"Distance of the projected temperature to the target temperature of the input in °C",
			[]string{"id"}, nil,
		),
	}
}

func (collector *ControllerCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.state
	ch <- collector.pwm
	ch <- collector.margin
	ch <- collector.integral
	ch <- collector.powerDown
	ch <- collector.projected
	ch <- collector.headroom
}

// Collect implements required collect function for all prometheus collectors
func (collector *ControllerCollector) Collect(ch chan<- prometheus.Metric) {
	status := collector.status()

	for _, state := range allStates {
		value := 0.0
		if state == status.State {
			value = 1
		}
		ch <- prometheus.MustNewConstMetric(collector.state, prometheus.GaugeValue, value, state.String())
	}
	ch <- prometheus.MustNewConstMetric(collector.pwm, prometheus.GaugeValue, float64(status.Pwm))
	ch <- prometheus.MustNewConstMetric(collector.margin, prometheus.GaugeValue, float64(status.Margin))
	ch <- prometheus.MustNewConstMetric(collector.integral, prometheus.GaugeValue, status.Integral)
	ch <- prometheus.MustNewConstMetric(collector.powerDown, prometheus.GaugeValue, boolToFloat(status.PowerDown))

	for _, input := range status.Inputs {
		if input.Reading.Kind != thermal.ReadingValid {
			continue
		}
		ch <- prometheus.MustNewConstMetric(collector.projected, prometheus.GaugeValue, float64(input.Projected), input.ID)
		ch <- prometheus.MustNewConstMetric(collector.headroom, prometheus.GaugeValue, float64(input.Margin), input.ID)
	}
}

func boolToFloat(value bool) float64 {
	if value {
		return 1
	}
	return 0
}
