package thermal

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/markusressel/thermal2go/internal/util"
	"github.com/stretchr/testify/assert"
)

var t0 = time.Unix(1_000_000, 0)

func defaultProperties() ThermalProperties {
	return ThermalProperties{
		TargetTemperature:    50,
		CriticalTemperature:  80,
		PowerDownTemperature: 95,
		SlewRate:             1,
	}
}

type fixture struct {
	control   *ThermalControl
	sources   []*MockSource
	fans      []*MockFan
	board     *MockBoard
	telemetry *MockTelemetry
}

// createFixture creates a ThermalControl with one input per given (initial) value
// and two fans, using a P-only PID with gain 1.
func createFixture(t *testing.T, values ...Celsius) *fixture {
	f := &fixture{
		board:     &MockBoard{},
		telemetry: &MockTelemetry{},
	}
	cfg := Config{
		DefaultPid:         util.PidConfig{GainP: 1},
		OverheatHysteresis: DefaultOverheatHysteresis,
		OverheatTimeout:    DefaultOverheatTimeout,
	}
	for i, value := range values {
		source := &MockSource{Value: value}
		f.sources = append(f.sources, source)
		cfg.Inputs = append(cfg.Inputs, InputChannel{
			Sensor:        TemperatureSensor{ID: string(rune('a' + i)), Source: source},
			Properties:    defaultProperties(),
			PowerModeMask: 0b1,
		})
	}
	for i := 0; i < 2; i++ {
		fan := &MockFan{Features: []Feature{FeatureRpmSensor}}
		f.fans = append(f.fans, fan)
		cfg.Fans = append(cfg.Fans, Fan{ID: string(rune('x' + i)), Actuator: fan})
	}
	f.board.On("PowerMode").Return(PowerBitmask(0b1))

	control, err := New(cfg, f.board, f.telemetry)
	assert.NoError(t, err)
	f.control = control
	return f
}

func (f *fixture) assertFanPwm(t *testing.T, expected PWMDuty) {
	for _, fan := range f.fans {
		assert.Equal(t, expected, fan.PWM)
	}
}

func TestThermalControl_New_InvalidConfig(t *testing.T) {
	// GIVEN
	board := &MockBoard{}
	cfg := Config{
		Fans:       []Fan{{ID: "fan", Actuator: &MockFan{}}},
		DefaultPid: util.PidConfig{GainP: 1},
		Inputs: []InputChannel{{
			Sensor:     TemperatureSensor{ID: "in", Source: &MockSource{}},
			Properties: ThermalProperties{TargetTemperature: 80, CriticalTemperature: 70, PowerDownTemperature: 90},
		}},
	}

	// WHEN
	control, err := New(cfg, board, nil)

	// THEN
	assert.Nil(t, control)
	assert.ErrorIs(t, err, ErrInvalidParameter)
}

func TestThermalControl_New_RequiresFan(t *testing.T) {
	// WHEN
	_, err := New(Config{DefaultPid: util.PidConfig{GainP: 1}}, &MockBoard{}, nil)

	// THEN
	assert.Error(t, err)
}

func TestThermalControl_StaysInBootUntilAllInputsReported(t *testing.T) {
	// GIVEN
	f := createFixture(t, 60, 60)
	f.sources[1].Err = NewSensorReadError(NoData, nil)

	// WHEN
	err := f.control.RunControl(t0)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, Boot, f.control.State())
	f.assertFanPwm(t, MaxPWMDuty)
}

func TestThermalControl_BootToRunning(t *testing.T) {
	// GIVEN
	f := createFixture(t, 60, 55)

	// WHEN
	err := f.control.RunControl(t0)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, Running, f.control.State())
	// worst margin is 50 - 60 = -10
	f.assertFanPwm(t, 10)
	assert.Len(t, f.telemetry.tracesOf(TraceControlPwm), 1)
}

func TestThermalControl_EndToEndProjection(t *testing.T) {
	// GIVEN
	f := createFixture(t, 70, 60)
	assert.NoError(t, f.control.RunControl(t0))
	assert.Equal(t, Running, f.control.State())
	f.assertFanPwm(t, 20)

	// WHEN
	// no new samples for 5 seconds
	for _, source := range f.sources {
		source.Err = NewBusError(CodeTimeout, nil)
	}
	err := f.control.RunControl(t0.Add(5 * time.Second))

	// THEN
	// projected temperatures are 75 and 65, worst margin is -25
	assert.NoError(t, err)
	assert.Equal(t, Running, f.control.State())
	f.assertFanPwm(t, 25)
	assert.Len(t, f.telemetry.tracesOf(TraceSensorReadFailed), 2)
}

func TestThermalControl_StaleReadingEventuallyOverheats(t *testing.T) {
	// GIVEN
	f := createFixture(t, 70)
	assert.NoError(t, f.control.RunControl(t0))
	f.sources[0].Err = NewSensorReadError(CorruptReply, nil)

	// WHEN
	assert.NoError(t, f.control.RunControl(t0.Add(9*time.Second)))
	stateBefore := f.control.State()
	assert.NoError(t, f.control.RunControl(t0.Add(10*time.Second)))

	// THEN
	assert.Equal(t, Running, stateBefore)
	assert.Equal(t, Overheated, f.control.State())
	f.assertFanPwm(t, MaxPWMDuty)
}

func TestThermalControl_RunningToOverheated(t *testing.T) {
	// GIVEN
	f := createFixture(t, 60, 20)
	assert.NoError(t, f.control.RunControl(t0))

	// WHEN
	f.sources[0].Value = 80
	err := f.control.RunControl(t0.Add(time.Second))

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, Overheated, f.control.State())
	f.assertFanPwm(t, MaxPWMDuty)
}

func TestThermalControl_OverheatedToRunning(t *testing.T) {
	// GIVEN
	f := createFixture(t, 60, 20)
	assert.NoError(t, f.control.RunControl(t0))
	f.sources[0].Value = 85
	assert.NoError(t, f.control.RunControl(t0.Add(time.Second)))

	// WHEN
	// within the hysteresis, stays overheated
	f.sources[0].Value = 79
	assert.NoError(t, f.control.RunControl(t0.Add(2*time.Second)))
	stateWithinHysteresis := f.control.State()
	f.sources[0].Value = 78
	err := f.control.RunControl(t0.Add(3 * time.Second))

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, Overheated, stateWithinHysteresis)
	assert.Equal(t, Running, f.control.State())
	// fresh pid, error is 0 - (50 - 78)
	f.assertFanPwm(t, 28)
}

func TestThermalControl_ZeroOverheatHysteresisIsKept(t *testing.T) {
	// GIVEN
	board := &MockBoard{}
	board.On("PowerMode").Return(PowerBitmask(0b1))
	source := &MockSource{Value: 60}
	fan := &MockFan{}
	control, err := New(Config{
		Inputs: []InputChannel{{
			Sensor:        TemperatureSensor{ID: "in", Source: source},
			Properties:    defaultProperties(),
			PowerModeMask: 0b1,
		}},
		Fans:               []Fan{{ID: "fan", Actuator: fan}},
		DefaultPid:         util.PidConfig{GainP: 1},
		OverheatHysteresis: 0,
		OverheatTimeout:    DefaultOverheatTimeout,
	}, board, nil)
	assert.NoError(t, err)
	assert.NoError(t, control.RunControl(t0))
	source.Value = 85
	assert.NoError(t, control.RunControl(t0.Add(time.Second)))
	stateOverheated := control.State()

	// WHEN
	// below critical, but within the default hysteresis
	source.Value = 79.5
	err = control.RunControl(t0.Add(2 * time.Second))

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, Overheated, stateOverheated)
	assert.Equal(t, Running, control.State())
}

func TestThermalControl_OverheatTimeout(t *testing.T) {
	// GIVEN
	f := createFixture(t, 60)
	f.board.On("PowerDown").Return(nil)
	assert.NoError(t, f.control.RunControl(t0))
	f.sources[0].Value = 85
	assert.NoError(t, f.control.RunControl(t0.Add(time.Second)))
	overheatedAt := t0.Add(time.Second)

	// WHEN
	assert.NoError(t, f.control.RunControl(overheatedAt.Add(DefaultOverheatTimeout)))
	stateAtTimeout := f.control.State()
	err := f.control.RunControl(overheatedAt.Add(DefaultOverheatTimeout + time.Second))

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, Overheated, stateAtTimeout)
	assert.Equal(t, Uncontrollable, f.control.State())
	f.board.AssertNumberOfCalls(t, "PowerDown", 1)
	f.assertFanPwm(t, MinPWMDuty)
}

func TestThermalControl_PowerDownPreemptsBoot(t *testing.T) {
	// GIVEN
	f := createFixture(t, 95, 20)
	f.sources[1].Err = NewSensorReadError(NoData, nil)
	f.board.On("PowerDown").Return(nil)

	// WHEN
	err := f.control.RunControl(t0)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, Uncontrollable, f.control.State())
	f.board.AssertCalled(t, "PowerDown")
	f.assertFanPwm(t, MinPWMDuty)
}

func TestThermalControl_PowerDownPreemptsOverheated(t *testing.T) {
	// GIVEN
	f := createFixture(t, 60)
	f.board.On("PowerDown").Return(nil)
	assert.NoError(t, f.control.RunControl(t0))
	f.sources[0].Value = 85
	assert.NoError(t, f.control.RunControl(t0.Add(time.Second)))

	// WHEN
	f.sources[0].Value = 96
	err := f.control.RunControl(t0.Add(2 * time.Second))

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, Uncontrollable, f.control.State())
}

func TestThermalControl_UncontrollableUntilReset(t *testing.T) {
	// GIVEN
	f := createFixture(t, 100)
	f.board.On("PowerDown").Return(nil)
	assert.NoError(t, f.control.RunControl(t0))

	// WHEN
	f.sources[0].Value = 20
	assert.NoError(t, f.control.RunControl(t0.Add(time.Second)))
	stateBeforeReset := f.control.State()
	f.control.Reset(t0.Add(2 * time.Second))
	stateAfterReset := f.control.State()
	assert.NoError(t, f.control.RunControl(t0.Add(3*time.Second)))

	// THEN
	assert.Equal(t, Uncontrollable, stateBeforeReset)
	assert.Equal(t, Boot, stateAfterReset)
	assert.Equal(t, Running, f.control.State())
	f.board.AssertNumberOfCalls(t, "PowerDown", 2)
}

func TestThermalControl_PowerDownFailureIsTraced(t *testing.T) {
	// GIVEN
	f := createFixture(t, 100)
	f.board.On("PowerDown").Return(errors.New("gpio broken"))

	// WHEN
	err := f.control.RunControl(t0)

	// THEN
	assert.NoError(t, err)
	assert.Len(t, f.telemetry.tracesOf(TracePowerDownFailed), 1)
	f.assertFanPwm(t, MinPWMDuty)
}

func TestThermalControl_RemovableNotPresentIsInactive(t *testing.T) {
	// GIVEN
	f := createFixture(t, 60, 90)
	f.control.inputs[1].Removable = true
	f.sources[1].Err = NewBusError(CodeNoDevice, nil)

	// WHEN
	err := f.control.RunControl(t0)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, Running, f.control.State())
	f.assertFanPwm(t, 10)
	assert.Contains(t, f.telemetry.Missing, missingValue{"b", NoDataDeviceNotPresent})
	assert.Empty(t, f.telemetry.tracesOf(TraceSensorReadFailed))
}

func TestThermalControl_NonRemovableNotPresentBlocksBoot(t *testing.T) {
	// GIVEN
	f := createFixture(t, 60, 60)
	f.sources[1].Err = NewBusError(CodeNoDevice, nil)

	// WHEN
	err := f.control.RunControl(t0)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, Boot, f.control.State())
	f.assertFanPwm(t, MaxPWMDuty)
	assert.Len(t, f.telemetry.tracesOf(TraceSensorReadFailed), 1)
}

func TestThermalControl_PowerModeChangeResetsToBoot(t *testing.T) {
	// GIVEN
	f := createFixture(t, 60, 70)
	f.control.inputs[1].PowerModeMask = 0b10
	f.board.ExpectedCalls = nil
	f.board.On("PowerMode").Return(PowerBitmask(0b11)).Once()
	f.board.On("PowerMode").Return(PowerBitmask(0b01))
	assert.NoError(t, f.control.RunControl(t0))
	f.assertFanPwm(t, 20)

	// WHEN
	err := f.control.RunControl(t0.Add(time.Second))

	// THEN
	assert.NoError(t, err)
	// second input is off now, so only the first one counts
	assert.Equal(t, Running, f.control.State())
	f.assertFanPwm(t, 10)
	assert.Equal(t, 1, f.sources[1].Reads)
	assert.Contains(t, f.telemetry.Missing, missingValue{"b", NoDataDeviceOff})

	changes := f.telemetry.tracesOf(TracePowerModeChanged)
	assert.Len(t, changes, 2)
	assert.Equal(t, PowerBitmask(0b01), changes[1].PowerMode)
}

func TestThermalControl_InactiveInputsOnly(t *testing.T) {
	// GIVEN
	f := createFixture(t, 90)
	f.control.inputs[0].PowerModeMask = 0b10

	// WHEN
	err := f.control.RunControl(t0)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, Running, f.control.State())
	assert.Equal(t, 0, f.sources[0].Reads)
	f.assertFanPwm(t, 0)
}

func TestThermalControl_ReadSensors(t *testing.T) {
	// GIVEN
	f := createFixture(t, 42)
	f.fans[0].RPM = 1200
	f.fans[1].Features = nil
	misc := &MockSource{Err: NewBusError(CodeBusy, nil)}
	f.control.miscSensors = []TemperatureSensor{{ID: "misc", Source: misc}}

	// WHEN
	f.control.ReadSensors(t0)

	// THEN
	assert.Equal(t, []postedValue{{"x", 1200}, {"a", 42}}, f.telemetry.Posted)
	assert.Equal(t, []missingValue{{"misc", NoDataDeviceUnavailable}}, f.telemetry.Missing)
	assert.Len(t, f.telemetry.tracesOf(TraceMiscReadFailed), 1)
}

func TestThermalControl_FanReadFailure(t *testing.T) {
	// GIVEN
	f := createFixture(t, 42)
	f.fans[0].RpmErr = NewBusError(CodeTimeout, nil)

	// WHEN
	f.control.ReadSensors(t0)

	// THEN
	assert.Contains(t, f.telemetry.Missing, missingValue{"x", NoDataDeviceTimeout})
	traces := f.telemetry.tracesOf(TraceFanReadFailed)
	assert.Len(t, traces, 1)
	assert.Equal(t, GroupFan, traces[0].Group)
	assert.Equal(t, CodeTimeout, traces[0].Code)
}

func TestThermalControl_PostFailureDoesNotAbort(t *testing.T) {
	// GIVEN
	f := createFixture(t, 60)
	f.telemetry.PostErr = errors.New("sink full")

	// WHEN
	err := f.control.RunControl(t0)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, Running, f.control.State())
	assert.NotEmpty(t, f.telemetry.tracesOf(TracePostFailed))
}

func TestThermalControl_SetPid(t *testing.T) {
	// GIVEN
	f := createFixture(t, 60)
	valid := util.PidConfig{Zero: 10, GainP: 2, GainI: 0.5, GainD: 0.1}

	// WHEN
	err := f.control.SetPid(valid)
	errInvalid := f.control.SetPid(util.PidConfig{GainP: 0})

	// THEN
	assert.NoError(t, err)
	assert.ErrorIs(t, errInvalid, ErrInvalidParameter)
	assert.Equal(t, valid, f.control.Pid())
}

func TestThermalControl_SetPidRejectsNonFiniteZero(t *testing.T) {
	// GIVEN
	f := createFixture(t, 79)
	assert.NoError(t, f.control.RunControl(t0))

	// WHEN
	errNaN := f.control.SetPid(util.PidConfig{Zero: math.NaN(), GainP: 1})
	errInf := f.control.SetPid(util.PidConfig{Zero: math.Inf(1), GainP: 1})
	assert.NoError(t, f.control.RunControl(t0.Add(time.Second)))

	// THEN
	assert.ErrorIs(t, errNaN, ErrInvalidParameter)
	assert.ErrorIs(t, errInf, ErrInvalidParameter)
	assert.Equal(t, Running, f.control.State())
	// default pid still in place, error is 0 - (50 - 79)
	f.assertFanPwm(t, 29)
}

func TestThermalControl_SetPidZeroIntegralClearsAccumulator(t *testing.T) {
	// GIVEN
	f := createFixture(t, 60)
	assert.NoError(t, f.control.SetPid(util.PidConfig{GainP: 1, GainI: 1}))
	assert.NoError(t, f.control.RunControl(t0))
	assert.NoError(t, f.control.RunControl(t0.Add(time.Second)))
	integralBefore := f.control.Status(t0).Integral

	// WHEN
	err := f.control.SetPid(util.PidConfig{GainP: 1, GainI: 0})

	// THEN
	assert.NoError(t, err)
	assert.Greater(t, integralBefore, 0.0)
	assert.Equal(t, 0.0, f.control.Status(t0).Integral)
}

func TestThermalControl_SetMargin(t *testing.T) {
	// GIVEN
	f := createFixture(t, 48)

	// WHEN
	err := f.control.SetMargin(5)
	assert.NoError(t, f.control.RunControl(t0))

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, Celsius(5), f.control.Margin())
	// error is 5 - (50 - 48)
	f.assertFanPwm(t, 3)

	assert.ErrorIs(t, f.control.SetMargin(-1), ErrInvalidParameter)
	assert.ErrorIs(t, f.control.SetMargin(Celsius(math.NaN())), ErrInvalidParameter)
	assert.ErrorIs(t, f.control.SetMargin(Celsius(math.Inf(1))), ErrInvalidParameter)
	assert.Equal(t, Celsius(5), f.control.Margin())
}

func TestThermalControl_ResetRestoresDefaults(t *testing.T) {
	// GIVEN
	f := createFixture(t, 60)
	assert.NoError(t, f.control.SetPid(util.PidConfig{GainP: 3}))
	assert.NoError(t, f.control.SetMargin(4))
	assert.NoError(t, f.control.RunControl(t0))

	// WHEN
	f.control.Reset(t0)

	// THEN
	assert.Equal(t, Boot, f.control.State())
	assert.Equal(t, util.PidConfig{GainP: 1}, f.control.Pid())
	assert.Equal(t, Celsius(0), f.control.Margin())
}

func TestThermalControl_SetPwm(t *testing.T) {
	// GIVEN
	f := createFixture(t, 60)
	f.fans[0].PwmErr = errFanBroken

	// WHEN
	err := f.control.SetPwm(42)
	errInvalid := f.control.SetPwm(101)

	// THEN
	assert.ErrorIs(t, err, ErrDevice)
	assert.ErrorIs(t, err, errFanBroken)
	assert.Equal(t, PWMDuty(42), f.fans[1].PWM)
	assert.ErrorIs(t, errInvalid, ErrInvalidPWM)
	assert.Equal(t, 1, f.fans[0].PwmWrites)
	assert.Equal(t, 1, f.fans[1].PwmWrites)
}

func TestThermalControl_SetFanPwm(t *testing.T) {
	// GIVEN
	f := createFixture(t, 60)

	// WHEN
	index, ok := f.control.FanIndex("y")
	err := f.control.SetFanPwm(index, 30)

	// THEN
	assert.True(t, ok)
	assert.NoError(t, err)
	assert.Equal(t, PWMDuty(0), f.fans[0].PWM)
	assert.Equal(t, PWMDuty(30), f.fans[1].PWM)

	_, ok = f.control.FanIndex("missing")
	assert.False(t, ok)
	assert.ErrorIs(t, f.control.SetFanPwm(5, 30), ErrInvalidParameter)
	assert.ErrorIs(t, f.control.SetFanPwm(0, 200), ErrInvalidPWM)
}

func TestThermalControl_SetWatchdog(t *testing.T) {
	// GIVEN
	f := createFixture(t, 60)
	f.fans[0].Features = []Feature{FeatureWatchdog}
	f.fans[1].Features = nil

	// WHEN
	err := f.control.SetWatchdog(Watchdog10s)

	// THEN
	assert.NoError(t, err)
	assert.Equal(t, Watchdog10s, f.fans[0].Watchdog)
	assert.Equal(t, WatchdogDisabled, f.fans[1].Watchdog)
}

func TestThermalControl_SetWatchdogReportsLastError(t *testing.T) {
	// GIVEN
	f := createFixture(t, 60)
	f.fans[0].Features = []Feature{FeatureWatchdog}
	f.fans[0].WdErr = errFanBroken
	f.fans[1].Features = []Feature{FeatureWatchdog}

	// WHEN
	err := f.control.SetWatchdog(Watchdog5s)

	// THEN
	assert.ErrorIs(t, err, ErrDevice)
	assert.Equal(t, Watchdog5s, f.fans[1].Watchdog)
}

func TestThermalControl_Status(t *testing.T) {
	// GIVEN
	f := createFixture(t, 70)
	assert.NoError(t, f.control.RunControl(t0))

	// WHEN
	status := f.control.Status(t0.Add(2 * time.Second))

	// THEN
	assert.Equal(t, Running, status.State)
	assert.Equal(t, PWMDuty(20), status.Pwm)
	assert.False(t, status.PowerDown)
	assert.Len(t, status.Inputs, 1)
	assert.Equal(t, ReadingValid, status.Inputs[0].Reading.Kind)
	assert.Equal(t, Celsius(72), status.Inputs[0].Projected)
	assert.Equal(t, Celsius(-22), status.Inputs[0].Margin)
}

func TestThermalControl_TracesStateTransitions(t *testing.T) {
	// GIVEN
	f := createFixture(t, 60)
	f.board.On("PowerDown").Return(nil)

	// WHEN
	assert.NoError(t, f.control.RunControl(t0))
	f.sources[0].Value = 99
	assert.NoError(t, f.control.RunControl(t0.Add(time.Second)))

	// THEN
	var states []State
	for _, it := range f.telemetry.tracesOf(TraceAutoState) {
		states = append(states, it.State)
	}
	// the initial power mode change resets to Boot first
	assert.Equal(t, []State{Boot, Running, Uncontrollable}, states)
	f.board.AssertExpectations(t)
}
