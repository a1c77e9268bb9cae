package fans

import (
	"fmt"
	"strconv"

	"github.com/markusressel/thermal2go/internal/configuration"
	"github.com/markusressel/thermal2go/internal/thermal"
	"github.com/markusressel/thermal2go/internal/ui"
	"github.com/markusressel/thermal2go/internal/util"
)

type CmdFan struct {
	Config configuration.FanConfig `json:"config"`

	lastSetPwm lastPwm
}

func (fan *CmdFan) GetId() string {
	return fan.Config.ID
}

func (fan *CmdFan) GetLabel() string {
	return fan.Config.Cmd.SetPwm.Exec
}

func (fan *CmdFan) GetConfig() configuration.FanConfig {
	return fan.Config
}

func (fan *CmdFan) SetPwm(duty thermal.PWMDuty) error {
	conf := fan.Config.Cmd.SetPwm
	args := util.ReplacePlaceholders(conf.Args, map[string]string{
		"pwm": strconv.Itoa(int(duty)),
	})

	_, err := util.SafeCmdExecution(conf.Exec, args, conf.Timeout)
	if err != nil {
		return fmt.Errorf("fan %s: %w", fan.GetId(), err)
	}
	fan.lastSetPwm.set(duty)
	return nil
}

func (fan *CmdFan) ReadRpm() (thermal.Rpm, error) {
	if !fan.Supports(thermal.FeatureRpmSensor) {
		return 0, unsupported(fan, "rpm sensor")
	}

	conf := fan.Config.Cmd.GetRpm
	result, err := util.SafeCmdExecution(conf.Exec, conf.Args, conf.Timeout)
	if err != nil {
		return 0, fmt.Errorf("fan %s: %w", fan.GetId(), err)
	}

	rpm, err := parseRpm(result)
	if err != nil {
		ui.Warning("Unable to read rpm from command output: %s", conf.Exec)
		return 0, err
	}
	return rpm, nil
}

func (fan *CmdFan) SetWatchdog(wd thermal.WatchdogConfig) error {
	if !fan.Supports(thermal.FeatureWatchdog) {
		return unsupported(fan, "watchdog")
	}

	conf := fan.Config.Cmd.SetWatchdog
	args := util.ReplacePlaceholders(conf.Args, map[string]string{
		"seconds": strconv.Itoa(int(wd.Timeout().Seconds())),
	})
	_, err := util.SafeCmdExecution(conf.Exec, args, conf.Timeout)
	if err != nil {
		return fmt.Errorf("fan %s: %w", fan.GetId(), err)
	}
	return nil
}

func (fan *CmdFan) Supports(feature thermal.Feature) bool {
	switch feature {
	case thermal.FeatureRpmSensor:
		return fan.Config.Cmd.GetRpm != nil
	case thermal.FeatureWatchdog:
		return fan.Config.Cmd.SetWatchdog != nil
	}
	return false
}

func (fan *CmdFan) GetLastSetPwm() (thermal.PWMDuty, bool) {
	return fan.lastSetPwm.get()
}

func (fan *CmdFan) Restore() error {
	return nil
}
