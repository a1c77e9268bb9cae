package statistics

import (
	"github.com/markusressel/thermal2go/internal/fans"
	"github.com/prometheus/client_golang/prometheus"
)

const fanSubsystem = "fan"

type FanCollector struct {
	fans []fans.Fan
	pwm  *prometheus.Desc
}

func NewFanCollector(fans []fans.Fan) *FanCollector {
	return &FanCollector{
		fans: fans,
		pwm: prometheus.NewDesc(prometheus.BuildFQName(namespace, fanSubsystem, "pwm"),
			"Last duty cycle in percent written to the fan",
			[]string{"id", "label"}, nil,
		),
	}
}

func (collector *FanCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.pwm
}

// Collect implements required collect function for all prometheus collectors
func (collector *FanCollector) Collect(ch chan<- prometheus.Metric) {
	for _, fan := range collector.fans {
		duty, ok := fan.GetLastSetPwm()
		if !ok {
			continue
		}
		ch <- prometheus.MustNewConstMetric(collector.pwm, prometheus.GaugeValue, float64(duty), fan.GetId(), fan.GetLabel())
	}
}
