package configuration

import "github.com/markusressel/thermal2go/internal/util"

type ApiConfig struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
}

type StatisticsConfig struct {
	Enabled bool `json:"enabled"`
	Port    int  `json:"port"`
}

type TelemetryConfig struct {
	// TraceSize is the number of trace records kept in memory
	TraceSize int `json:"traceSize"`
	// HistorySize is the number of values kept per sensor
	HistorySize int `json:"historySize"`
	// MaxTransitions is the number of state transitions kept in the database, 0 keeps all of them
	MaxTransitions int `json:"maxTransitions"`
}

type PidConfig struct {
	Zero float64 `json:"zero"`
	P    float64 `json:"p"`
	I    float64 `json:"i"`
	D    float64 `json:"d"`
}

func (c PidConfig) ToPidConfig() util.PidConfig {
	return util.PidConfig{Zero: c.Zero, GainP: c.P, GainI: c.I, GainD: c.D}
}
