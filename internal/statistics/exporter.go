package statistics

import "github.com/prometheus/client_golang/prometheus"

const (
	namespace = "thermal2go"
)

func Register(collector prometheus.Collector) {
	prometheus.MustRegister(collector)
}
