package sensors

import (
	"github.com/markusressel/thermal2go/internal/configuration"
	"github.com/markusressel/thermal2go/internal/thermal"
	"github.com/markusressel/thermal2go/internal/ui"
	"github.com/markusressel/thermal2go/internal/util"
)

type CmdSensor struct {
	Config configuration.SensorConfig `json:"configuration"`
}

func (sensor CmdSensor) GetId() string {
	return sensor.Config.ID
}

func (sensor CmdSensor) GetLabel() string {
	return sensor.Config.Cmd.Exec
}

func (sensor CmdSensor) GetConfig() configuration.SensorConfig {
	return sensor.Config
}

func (sensor CmdSensor) ReadTemperature() (thermal.Celsius, error) {
	cmd := sensor.Config.Cmd
	result, err := util.SafeCmdExecution(cmd.Exec, cmd.Args, cmd.Timeout)
	if err != nil {
		return 0, readFailure(err)
	}

	value, err := parseMillidegrees(result)
	if err != nil {
		ui.Debug("sensor %s: unable to parse command output '%s': %v", sensor.GetId(), result, err)
		return 0, err
	}
	return value, nil
}
