package fans

import (
	"errors"
	"fmt"
	"os"

	"github.com/markusressel/thermal2go/internal/configuration"
	"github.com/markusressel/thermal2go/internal/thermal"
	"github.com/markusressel/thermal2go/internal/ui"
	"github.com/markusressel/thermal2go/internal/util"
)

type HwMonFan struct {
	Label              string                  `json:"label"`
	Index              int                     `json:"index"`
	RpmInput           string                  `json:"rpmInput"`
	PwmOutput          string                  `json:"pwmOutput"`
	Config             configuration.FanConfig `json:"config"`
	OriginalPwmEnabled int                     `json:"originalPwmEnabled"`

	lastSetPwm     lastPwm
	controlEnabled bool
}

func (fan *HwMonFan) GetId() string {
	return fan.Config.ID
}

func (fan *HwMonFan) GetLabel() string {
	return fan.Label
}

func (fan *HwMonFan) GetConfig() configuration.FanConfig {
	return fan.Config
}

func (fan *HwMonFan) SetPwm(duty thermal.PWMDuty) error {
	if len(fan.PwmOutput) <= 0 {
		return fmt.Errorf("fan %s: pwm output not resolved", fan.GetId())
	}
	if !fan.controlEnabled && fan.hasPwmEnable() {
		if fan.OriginalPwmEnabled < 0 {
			if original, err := fan.GetPwmEnabled(); err == nil {
				fan.OriginalPwmEnabled = original
			}
		}
		if err := fan.SetPwmEnabled(ControlModePWM); err != nil {
			return fmt.Errorf("fan %s: %w", fan.GetId(), err)
		}
	}
	fan.controlEnabled = true

	raw := DutyToRaw(duty)
	ui.Debug("Setting %s (%s) to %d%% (%d) ...", fan.GetId(), fan.Label, duty, raw)
	if err := util.WriteIntToFile(raw, fan.PwmOutput); err != nil {
		return fmt.Errorf("fan %s: %w", fan.GetId(), err)
	}
	fan.lastSetPwm.set(duty)
	return nil
}

func (fan *HwMonFan) ReadRpm() (thermal.Rpm, error) {
	if !fan.Supports(thermal.FeatureRpmSensor) {
		return 0, unsupported(fan, "rpm sensor")
	}
	text, err := util.ReadStringFromFile(fan.RpmInput)
	if err != nil {
		return 0, fmt.Errorf("fan %s: %w", fan.GetId(), err)
	}
	return parseRpm(text)
}

func (fan *HwMonFan) SetWatchdog(wd thermal.WatchdogConfig) error {
	return unsupported(fan, "watchdog")
}

func (fan *HwMonFan) Supports(feature thermal.Feature) bool {
	switch feature {
	case thermal.FeatureRpmSensor:
		return len(fan.RpmInput) > 0
	}
	return false
}

func (fan *HwMonFan) GetLastSetPwm() (thermal.PWMDuty, bool) {
	return fan.lastSetPwm.get()
}

// hasPwmEnable reports whether the driver exposes a pwmX_enable attribute
func (fan *HwMonFan) hasPwmEnable() bool {
	_, err := os.Stat(fan.PwmOutput + "_enable")
	return err == nil
}

func (fan *HwMonFan) GetPwmEnabled() (int, error) {
	return util.ReadIntFromFile(fan.PwmOutput + "_enable")
}

// SetPwmEnabled writes the given value to pwmX_enable
// Possible values (unsure if these are true for all scenarios):
// 0 - no control (results in max speed)
// 1 - manual pwm control
// 2 - motherboard pwm control
func (fan *HwMonFan) SetPwmEnabled(value ControlMode) error {
	pwmEnabledFilePath := fan.PwmOutput + "_enable"
	err := util.WriteIntToFile(int(value), pwmEnabledFilePath)
	if err != nil {
		return err
	}
	currentValue, err := util.ReadIntFromFile(pwmEnabledFilePath)
	if err != nil || currentValue != int(value) {
		return errors.New(fmt.Sprintf("PWM mode stuck to %d", currentValue))
	}
	return nil
}

func (fan *HwMonFan) Restore() error {
	if !fan.controlEnabled || fan.OriginalPwmEnabled < 0 {
		return nil
	}
	err := fan.SetPwmEnabled(ControlMode(fan.OriginalPwmEnabled))
	if err != nil {
		return fmt.Errorf("fan %s: unable to restore pwm_enable=%d: %w", fan.GetId(), fan.OriginalPwmEnabled, err)
	}
	fan.controlEnabled = false
	return nil
}
