package sensor

import (
	"fmt"

	"github.com/markusressel/thermal2go/internal"
	"github.com/markusressel/thermal2go/internal/configuration"
	"github.com/markusressel/thermal2go/internal/sensors"
	"github.com/markusressel/thermal2go/internal/ui"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"golang.org/x/exp/slices"
)

var sensorId string

var Command = &cobra.Command{
	Use:              "sensor",
	Short:            "Print the current temperature of a sensor in °C",
	Long:             ``,
	TraverseChildren: true,
	Args:             cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pterm.DisableOutput()

		sensor, err := getSensor(sensorId)
		if err != nil {
			return err
		}

		value, err := sensor.ReadTemperature()
		if err != nil {
			return err
		}
		fmt.Printf("%.1f", value)
		return nil
	},
}

func init() {
	Command.PersistentFlags().StringVarP(
		&sensorId,
		"id", "i",
		"",
		"Sensor ID as specified in the config",
	)
	_ = Command.MarkPersistentFlagRequired("id")
}

func getSensor(id string) (sensors.Sensor, error) {
	configuration.ReadConfigFile()

	devices, err := internal.InitializeDevices(&configuration.CurrentConfig)
	if err != nil {
		ui.Fatal("%v", err)
	}

	sensor, ok := devices.Sensors[id]
	if !ok {
		var availableSensorIds []string
		for it := range devices.Sensors {
			availableSensorIds = append(availableSensorIds, it)
		}
		slices.Sort(availableSensorIds)
		return nil, fmt.Errorf("no sensor with id found: %s, options: %s", id, availableSensorIds)
	}
	return sensor, nil
}
