package fan

import (
	"fmt"

	"github.com/markusressel/thermal2go/internal/thermal"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var rpmCmd = &cobra.Command{
	Use:   "rpm",
	Short: "Get the current RPM reading of a fan",
	Long:  ``,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pterm.DisableOutput()

		fan, err := getFan(fanId)
		if err != nil {
			return err
		}
		if !fan.Supports(thermal.FeatureRpmSensor) {
			return fmt.Errorf("fan %s has no rpm sensor", fan.GetId())
		}

		rpm, err := fan.ReadRpm()
		if err != nil {
			return err
		}
		fmt.Printf("%d", rpm)
		return nil
	},
}

func init() {
	Command.AddCommand(rpmCmd)
}
