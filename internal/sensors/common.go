package sensors

import (
	"fmt"

	"github.com/markusressel/thermal2go/internal/configuration"
	"github.com/markusressel/thermal2go/internal/thermal"
	cmap "github.com/orcaman/concurrent-map/v2"
)

var (
	SensorMap = cmap.New[Sensor]()
)

type Sensor interface {
	thermal.TemperatureSource

	GetId() string
	GetLabel() string

	GetConfig() configuration.SensorConfig
}

// NewSensor creates the sensor for a single, non virtual configuration
func NewSensor(config configuration.SensorConfig) (Sensor, error) {
	if config.HwMon != nil {
		return &HwmonSensor{
			Index:  config.HwMon.Index,
			Input:  config.HwMon.TempInput,
			Config: config,
		}, nil
	}

	if config.File != nil {
		return &FileSensor{
			Config: config,
		}, nil
	}

	if config.Cmd != nil {
		return &CmdSensor{
			Config: config,
		}, nil
	}

	if config.Disk != nil {
		return &DiskSensor{
			Config: config,
		}, nil
	}

	return nil, fmt.Errorf("no matching sensor type for sensor: %s", config.ID)
}

// NewSensors creates all sensors of the given configurations and registers them
// in SensorMap. Virtual sensors are created once all sensors they reference exist.
func NewSensors(configs []configuration.SensorConfig) (map[string]Sensor, error) {
	result := map[string]Sensor{}

	var pending []configuration.SensorConfig
	for _, config := range configs {
		if config.Virtual != nil {
			pending = append(pending, config)
			continue
		}
		sensor, err := NewSensor(config)
		if err != nil {
			return nil, err
		}
		result[config.ID] = sensor
	}

	for len(pending) > 0 {
		var remaining []configuration.SensorConfig
		for _, config := range pending {
			sources, ok := lookupSources(result, config.Virtual.Sensors)
			if !ok {
				remaining = append(remaining, config)
				continue
			}
			result[config.ID] = &VirtualSensor{
				Config:  config,
				Sources: sources,
			}
		}
		if len(remaining) == len(pending) {
			return nil, fmt.Errorf("unable to resolve virtual sensor: %s", remaining[0].ID)
		}
		pending = remaining
	}

	for id, sensor := range result {
		SensorMap.Set(id, sensor)
	}
	return result, nil
}

func lookupSources(sensors map[string]Sensor, ids []string) ([]thermal.TemperatureSource, bool) {
	var sources []thermal.TemperatureSource
	for _, id := range ids {
		sensor, ok := sensors[id]
		if !ok {
			return nil, false
		}
		sources = append(sources, sensor)
	}
	return sources, true
}
