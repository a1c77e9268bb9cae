package history

import (
	"strconv"

	"github.com/markusressel/thermal2go/cmd/global"
	"github.com/markusressel/thermal2go/internal/configuration"
	"github.com/markusressel/thermal2go/internal/persistence"
	"github.com/markusressel/thermal2go/internal/ui"
	"github.com/spf13/cobra"
	"github.com/tomlazar/table"
)

const timeFormat = "2006-01-02 15:04:05"

var (
	limit int
	clearAll bool
)

var Command = &cobra.Command{
	Use:   "history",
	Short: "Print the recorded state transitions of the control loop",
	Long:  ``,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configuration.ReadConfigFile()
		p := persistence.NewPersistence(configuration.CurrentConfig.DbPath, configuration.CurrentConfig.Telemetry.MaxTransitions)

		if clearAll {
			if err := p.DeleteTransitions(); err != nil {
				return err
			}
			ui.Success("Deleted all recorded transitions")
			return nil
		}

		transitions, err := p.LoadTransitions(limit)
		if err != nil {
			return err
		}
		if len(transitions) <= 0 {
			ui.Info("No transitions recorded yet")
			return nil
		}
		return global.PrintTables(transitionTable(transitions))
	},
}

func transitionTable(transitions []persistence.Transition) table.Table {
	var rows [][]string
	for idx, transition := range transitions {
		rows = append(rows, []string{
			strconv.Itoa(idx + 1),
			transition.Time.Local().Format(timeFormat),
			transition.Session.String()[:8],
			transition.From.String(),
			transition.To.String(),
			transition.PowerMode.String(),
		})
	}
	return table.Table{
		Headers: []string{"#", "Time", "Session", "From", "To", "Power mode"},
		Rows:    rows,
	}
}

func init() {
	Command.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum number of transitions to print, 0 prints all of them")
	Command.Flags().BoolVarP(&clearAll, "clear", "", false, "Delete all recorded transitions")
}
