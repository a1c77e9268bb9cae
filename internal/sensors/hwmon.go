package sensors

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/markusressel/thermal2go/internal/configuration"
	"github.com/markusressel/thermal2go/internal/thermal"
	"github.com/markusressel/thermal2go/internal/util"
)

type HwmonSensor struct {
	Label  string                     `json:"label"`
	Index  int                        `json:"index"`
	Input  string                     `json:"input"`
	Config configuration.SensorConfig `json:"configuration"`
}

func (sensor HwmonSensor) GetId() string {
	return sensor.Config.ID
}

func (sensor HwmonSensor) GetLabel() string {
	if len(sensor.Label) > 0 {
		return sensor.Label
	}
	return fmt.Sprintf("%s temp%d", sensor.Config.HwMon.Platform, sensor.Index)
}

func (sensor HwmonSensor) GetConfig() configuration.SensorConfig {
	return sensor.Config
}

func (sensor HwmonSensor) ReadTemperature() (thermal.Celsius, error) {
	if len(sensor.Input) <= 0 {
		return 0, thermal.NewBusError(thermal.CodeNoDevice, errors.New("hwmon temperature input not resolved"))
	}
	if sensor.isFaulty() {
		return 0, thermal.NewSensorReadError(thermal.SensorFailure, errors.New(sensor.faultPath()))
	}
	text, err := util.ReadStringFromFile(sensor.Input)
	if err != nil {
		return 0, readFailure(err)
	}
	return parseMillidegrees(text)
}

func (sensor HwmonSensor) faultPath() string {
	return strings.TrimSuffix(sensor.Input, "_input") + "_fault"
}

// isFaulty checks the optional temp*_fault flag of the chip
func (sensor HwmonSensor) isFaulty() bool {
	if _, err := os.Stat(sensor.faultPath()); err != nil {
		return false
	}
	value, err := util.ReadIntFromFile(sensor.faultPath())
	return err == nil && value != 0
}
