package thermal

// TemperatureSource reads one physical temperature sensor.
// Failures should be returned as *SensorReadError, anything else
// is treated as a bus error with an unknown code.
type TemperatureSource interface {
	ReadTemperature() (Celsius, error)
}

// FanActuator drives one physical fan
type FanActuator interface {
	SetPwm(duty PWMDuty) error
	ReadRpm() (Rpm, error)
	// SetWatchdog is only called if Supports(FeatureWatchdog) is true
	SetWatchdog(wd WatchdogConfig) error
	Supports(feature Feature) bool
}

// Board provides the board specific state the control loop depends on
type Board interface {
	// PowerMode returns the bitmask of currently active power modes
	PowerMode() PowerBitmask
	// PowerDown drops the system into its low power state
	PowerDown() error
}

// Telemetry receives every reading taken by the control loop
type Telemetry interface {
	Post(sensorId string, value float64) error
	NoData(sensorId string, reason NoDataReason) error
	Trace(record TraceRecord)
}

// NoopTelemetry discards everything
type NoopTelemetry struct{}

func (NoopTelemetry) Post(string, float64) error { return nil }
func (NoopTelemetry) NoData(string, NoDataReason) error { return nil }
func (NoopTelemetry) Trace(TraceRecord) {}

var _ Telemetry = NoopTelemetry{}
