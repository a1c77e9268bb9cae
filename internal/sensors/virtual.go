package sensors

import (
	"fmt"

	"github.com/markusressel/thermal2go/internal/configuration"
	"github.com/markusressel/thermal2go/internal/thermal"
	"github.com/markusressel/thermal2go/internal/util"
)

// VirtualSensor combines the readings of other sensors.
// It fails as soon as one of its sources fails.
type VirtualSensor struct {
	Config  configuration.SensorConfig  `json:"configuration"`
	Sources []thermal.TemperatureSource `json:"-"`
}

func (sensor VirtualSensor) GetId() string {
	return sensor.Config.ID
}

func (sensor VirtualSensor) GetLabel() string {
	return fmt.Sprintf("%s of %v", sensor.Config.Virtual.Function, sensor.Config.Virtual.Sensors)
}

func (sensor VirtualSensor) GetConfig() configuration.SensorConfig {
	return sensor.Config
}

func (sensor VirtualSensor) ReadTemperature() (thermal.Celsius, error) {
	values := make([]float64, 0, len(sensor.Sources))
	for _, source := range sensor.Sources {
		value, err := source.ReadTemperature()
		if err != nil {
			return 0, err
		}
		values = append(values, float64(value))
	}
	if len(values) <= 0 {
		return 0, thermal.NewSensorReadError(thermal.NoData, nil)
	}

	switch sensor.Config.Virtual.Function {
	case configuration.FunctionMinimum:
		return thermal.Celsius(util.Min(values)), nil
	case configuration.FunctionAverage:
		return thermal.Celsius(util.Avg(values)), nil
	case configuration.FunctionMaximum:
		return thermal.Celsius(util.Max(values)), nil
	default:
		return 0, fmt.Errorf("unsupported function: %s", sensor.Config.Virtual.Function)
	}
}
