package thermal

import (
	"errors"

	"github.com/stretchr/testify/mock"
)

type MockSource struct {
	Value Celsius
	Err   error
	Reads int
}

func (s *MockSource) ReadTemperature() (Celsius, error) {
	s.Reads++
	if s.Err != nil {
		return 0, s.Err
	}
	return s.Value, nil
}

type MockFan struct {
	PWM       PWMDuty
	PwmWrites int
	RPM       Rpm
	Watchdog  WatchdogConfig
	Features  []Feature
	PwmErr    error
	RpmErr    error
	WdErr     error
}

func (f *MockFan) SetPwm(duty PWMDuty) error {
	f.PwmWrites++
	if f.PwmErr != nil {
		return f.PwmErr
	}
	f.PWM = duty
	return nil
}

func (f *MockFan) ReadRpm() (Rpm, error) {
	return f.RPM, f.RpmErr
}

func (f *MockFan) SetWatchdog(wd WatchdogConfig) error {
	if f.WdErr != nil {
		return f.WdErr
	}
	f.Watchdog = wd
	return nil
}

func (f *MockFan) Supports(feature Feature) bool {
	for _, it := range f.Features {
		if it == feature {
			return true
		}
	}
	return false
}

type MockBoard struct {
	mock.Mock
}

func (b *MockBoard) PowerMode() PowerBitmask {
	args := b.Called()
	return args.Get(0).(PowerBitmask)
}

func (b *MockBoard) PowerDown() error {
	args := b.Called()
	return args.Error(0)
}

type postedValue struct {
	ID    string
	Value float64
}

type missingValue struct {
	ID     string
	Reason NoDataReason
}

type MockTelemetry struct {
	Posted  []postedValue
	Missing []missingValue
	Traces  []TraceRecord
	PostErr error
}

func (t *MockTelemetry) Post(sensorId string, value float64) error {
	t.Posted = append(t.Posted, postedValue{sensorId, value})
	return t.PostErr
}

func (t *MockTelemetry) NoData(sensorId string, reason NoDataReason) error {
	t.Missing = append(t.Missing, missingValue{sensorId, reason})
	return t.PostErr
}

func (t *MockTelemetry) Trace(record TraceRecord) {
	t.Traces = append(t.Traces, record)
}

func (t *MockTelemetry) tracesOf(kind TraceKind) []TraceRecord {
	var result []TraceRecord
	for _, it := range t.Traces {
		if it.Kind == kind {
			result = append(result, it)
		}
	}
	return result
}

var errFanBroken = errors.New("fan broken")
