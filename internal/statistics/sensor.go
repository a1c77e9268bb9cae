package statistics

import (
	"github.com/markusressel/thermal2go/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus"
)

const subsystemSensor = "sensor"

// SensorCollector exports the latest telemetry of every sensor and fan
type SensorCollector struct {
	store *telemetry.Store
	value *prometheus.Desc
	valid *prometheus.Desc
}

func NewSensorCollector(store *telemetry.Store) *SensorCollector {
	return &SensorCollector{
		store: store,
		value: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystemSensor, "value"),
			"Current value of the sensor",
			[]string{"id"}, nil,
		),
		valid: prometheus.NewDesc(prometheus.BuildFQName(namespace, subsystemSensor, "valid"),
			"1 if the last read of the sensor succeeded",
			[]string{"id", "reason"}, nil,
		),
	}
}

func (collector *SensorCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- collector.value
	ch <- collector.valid
}

// Collect implements required collect function for all prometheus collectors
func (collector *SensorCollector) Collect(ch chan<- prometheus.Metric) {
	for _, value := range collector.store.All() {
		ch <- prometheus.MustNewConstMetric(collector.valid, prometheus.GaugeValue, boolToFloat(value.Valid), value.ID, value.Reason)
		if value.Valid {
			ch <- prometheus.MustNewConstMetric(collector.value, prometheus.GaugeValue, value.Value, value.ID)
		}
	}
}
