package fans

import (
	"fmt"
	"strconv"

	"github.com/markusressel/thermal2go/internal/configuration"
	"github.com/markusressel/thermal2go/internal/thermal"
	"github.com/markusressel/thermal2go/internal/util"
)

// FileFan writes raw pwm values to a file, e.g. a sysfs attribute of a driver
// that is not exposed through hwmon.
type FileFan struct {
	Config configuration.FanConfig `json:"config"`

	lastSetPwm lastPwm
}

func (fan *FileFan) GetId() string {
	return fan.Config.ID
}

func (fan *FileFan) GetLabel() string {
	return fan.Config.File.Path
}

func (fan *FileFan) GetConfig() configuration.FanConfig {
	return fan.Config
}

func (fan *FileFan) SetPwm(duty thermal.PWMDuty) error {
	filePath, err := util.ExpandPath(fan.Config.File.Path)
	if err != nil {
		return err
	}
	if err := util.WriteIntToFileAtomic(DutyToRaw(duty), filePath); err != nil {
		return fmt.Errorf("fan %s: %w", fan.GetId(), err)
	}
	fan.lastSetPwm.set(duty)
	return nil
}

func (fan *FileFan) ReadRpm() (thermal.Rpm, error) {
	if !fan.Supports(thermal.FeatureRpmSensor) {
		return 0, unsupported(fan, "rpm sensor")
	}
	filePath, err := util.ExpandPath(fan.Config.File.RpmPath)
	if err != nil {
		return 0, err
	}
	text, err := util.ReadStringFromFile(filePath)
	if err != nil {
		return 0, fmt.Errorf("fan %s: %w", fan.GetId(), err)
	}
	return parseRpm(text)
}

func (fan *FileFan) SetWatchdog(wd thermal.WatchdogConfig) error {
	if !fan.Supports(thermal.FeatureWatchdog) {
		return unsupported(fan, "watchdog")
	}
	filePath, err := util.ExpandPath(fan.Config.File.WatchdogPath)
	if err != nil {
		return err
	}
	seconds := strconv.Itoa(int(wd.Timeout().Seconds()))
	if err := util.WriteStringToFileAtomic(seconds, filePath); err != nil {
		return fmt.Errorf("fan %s: %w", fan.GetId(), err)
	}
	return nil
}

func (fan *FileFan) Supports(feature thermal.Feature) bool {
	switch feature {
	case thermal.FeatureRpmSensor:
		return len(fan.Config.File.RpmPath) > 0
	case thermal.FeatureWatchdog:
		return len(fan.Config.File.WatchdogPath) > 0
	}
	return false
}

func (fan *FileFan) GetLastSetPwm() (thermal.PWMDuty, bool) {
	return fan.lastSetPwm.get()
}

func (fan *FileFan) Restore() error {
	return nil
}
