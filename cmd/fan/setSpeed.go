package fan

import (
	"fmt"
	"strconv"

	"github.com/markusressel/thermal2go/internal/thermal"
	"github.com/markusressel/thermal2go/internal/ui"
	"github.com/spf13/cobra"
)

var setSpeedCmd = &cobra.Command{
	Use:   "setSpeed",
	Short: "Set the speed of a fan to the given duty cycle in percent ([0..100])",
	Long:  ``,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		duty, err := parseDuty(args[0])
		if err != nil {
			return err
		}

		fan, err := getFan(fanId)
		if err != nil {
			return err
		}
		if err := fan.SetPwm(duty); err != nil {
			return err
		}
		ui.Success("Fan %s set to %d%%", fan.GetId(), duty)
		return nil
	},
}

func parseDuty(text string) (thermal.PWMDuty, error) {
	value, err := strconv.Atoi(text)
	if err != nil {
		return 0, fmt.Errorf("%w: '%s' is not a number", thermal.ErrInvalidPWM, text)
	}
	if value < int(thermal.MinPWMDuty) || value > int(thermal.MaxPWMDuty) {
		return 0, fmt.Errorf("%w: %d is not in range [%d..%d]", thermal.ErrInvalidPWM, value, thermal.MinPWMDuty, thermal.MaxPWMDuty)
	}
	return thermal.PWMDuty(value), nil
}

func init() {
	Command.AddCommand(setSpeedCmd)
}
