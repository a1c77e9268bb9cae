package sensors

import (
	"github.com/markusressel/thermal2go/internal/configuration"
	"github.com/markusressel/thermal2go/internal/thermal"
	"github.com/markusressel/thermal2go/internal/util"
)

type FileSensor struct {
	Config configuration.SensorConfig `json:"configuration"`
}

func (sensor FileSensor) GetId() string {
	return sensor.Config.ID
}

func (sensor FileSensor) GetLabel() string {
	return sensor.Config.File.Path
}

func (sensor FileSensor) GetConfig() configuration.SensorConfig {
	return sensor.Config
}

func (sensor FileSensor) ReadTemperature() (thermal.Celsius, error) {
	filePath, err := util.ExpandPath(sensor.Config.File.Path)
	if err != nil {
		return 0, readFailure(err)
	}

	text, err := util.ReadStringFromFile(filePath)
	if err != nil {
		return 0, readFailure(err)
	}
	return parseMillidegrees(text)
}
