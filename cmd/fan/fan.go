package fan

import (
	"fmt"

	"github.com/markusressel/thermal2go/internal/configuration"
	"github.com/markusressel/thermal2go/internal/fans"
	"github.com/markusressel/thermal2go/internal/hwmon"
	"github.com/spf13/cobra"
)

var fanId string

var Command = &cobra.Command{
	Use:              "fan",
	Short:            "Fan related commands",
	Long:             ``,
	TraverseChildren: true,
}

func init() {
	Command.PersistentFlags().StringVarP(
		&fanId,
		"id", "i",
		"",
		"Fan ID as specified in the config",
	)
	_ = Command.MarkPersistentFlagRequired("id")
}

func getFan(id string) (fans.Fan, error) {
	configuration.ReadConfigFile()

	for _, config := range configuration.CurrentConfig.Fans {
		if config.ID != id {
			continue
		}
		if config.HwMon != nil {
			controllers := hwmon.GetChips()
			if err := hwmon.UpdateFanConfigFromHwMonControllers(controllers, &config); err != nil {
				return nil, err
			}
		}
		return fans.NewFan(config)
	}

	return nil, fmt.Errorf("no fan with id found: %s", id)
}
