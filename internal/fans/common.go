package fans

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/markusressel/thermal2go/internal/configuration"
	"github.com/markusressel/thermal2go/internal/thermal"
	"github.com/markusressel/thermal2go/internal/util"
	cmap "github.com/orcaman/concurrent-map/v2"
)

const (
	MaxPwmValue = 255
	MinPwmValue = 0
)

type ControlMode int

const (
	// ControlModeDisabled completely disables control, resulting in a 100% voltage/PWM signal output
	ControlModeDisabled ControlMode = 0
	// ControlModePWM enables manual, fixed speed control via setting the pwm value
	ControlModePWM ControlMode = 1
	// ControlModeAutomatic enables automatic control by the integrated control of the mainboard
	ControlModeAutomatic ControlMode = 2
)

var (
	FanMap = cmap.New[Fan]()
)

type Fan interface {
	thermal.FanActuator

	GetId() string
	GetLabel() string

	GetConfig() configuration.FanConfig

	// GetLastSetPwm returns the last duty that was written successfully
	GetLastSetPwm() (thermal.PWMDuty, bool)

	// Restore hands control of the fan back to whatever controlled it before thermal2go
	Restore() error
}

func NewFan(config configuration.FanConfig) (Fan, error) {
	if config.HwMon != nil {
		return &HwMonFan{
			Label:              config.ID,
			Index:              config.HwMon.Index,
			PwmOutput:          config.HwMon.PwmOutput,
			RpmInput:           config.HwMon.RpmInput,
			Config:             config,
			OriginalPwmEnabled: -1,
		}, nil
	}

	if config.File != nil {
		return &FileFan{
			Config: config,
		}, nil
	}

	if config.Cmd != nil {
		return &CmdFan{
			Config: config,
		}, nil
	}

	return nil, fmt.Errorf("no matching fan type for fan: %s", config.ID)
}

// NewFans creates all fans of the given configurations and registers them in FanMap
func NewFans(configs []configuration.FanConfig) ([]Fan, error) {
	var result []Fan
	for _, config := range configs {
		fan, err := NewFan(config)
		if err != nil {
			return nil, err
		}
		FanMap.Set(fan.GetId(), fan)
		result = append(result, fan)
	}
	return result, nil
}

// DutyToRaw converts a duty cycle to the raw [0..255] pwm value used by sysfs
func DutyToRaw(duty thermal.PWMDuty) int {
	return int(math.Round(float64(duty) * MaxPwmValue / float64(thermal.MaxPWMDuty)))
}

// RawToDuty converts a raw [0..255] pwm value to a duty cycle
func RawToDuty(raw int) thermal.PWMDuty {
	raw = util.Coerce(raw, MinPwmValue, MaxPwmValue)
	return thermal.PWMDuty(math.Round(float64(raw) * float64(thermal.MaxPWMDuty) / MaxPwmValue))
}

// parseRpm decodes the textual rpm reading of a fan
func parseRpm(text string) (thermal.Rpm, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid rpm value '%s': %w", text, err)
	}
	if value < 0 || math.IsNaN(value) {
		return 0, fmt.Errorf("invalid rpm value '%s'", text)
	}
	return thermal.Rpm(util.Coerce(value, 0, math.MaxUint16)), nil
}

func unsupported(fan Fan, feature string) error {
	return fmt.Errorf("fan %s: %s is not supported", fan.GetId(), feature)
}

// lastPwm remembers the last duty written to a fan, it is safe for concurrent use
type lastPwm struct {
	// duty + 1, 0 if nothing was written yet
	value atomic.Int32
}

func (p *lastPwm) set(duty thermal.PWMDuty) {
	p.value.Store(int32(duty) + 1)
}

func (p *lastPwm) get() (thermal.PWMDuty, bool) {
	value := p.value.Load()
	if value == 0 {
		return 0, false
	}
	return thermal.PWMDuty(value - 1), true
}
