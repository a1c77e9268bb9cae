package cmd

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/markusressel/thermal2go/cmd/global"
	"github.com/markusressel/thermal2go/internal/hwmon"
	"github.com/markusressel/thermal2go/internal/ui"
	"github.com/spf13/cobra"
	"github.com/tomlazar/table"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect devices",
	Long:  `Detects all fans and temperature sensors of hwmon chips and prints them as a list`,
	Run: func(cmd *cobra.Command, args []string) {
		controllers := hwmon.GetChips()

		for _, controller := range controllers {
			if len(controller.Name) <= 0 {
				continue
			}
			if len(controller.Fans) <= 0 && len(controller.Sensors) <= 0 {
				continue
			}

			ui.Println("> %s (platform: %s)", controller.Name, controller.Platform)

			var fanRows [][]string
			for _, fan := range controller.Fans {
				pwmText := "N/A"
				if len(fan.PwmOutput) > 0 {
					_, pwmText = filepath.Split(fan.PwmOutput)
				}
				fanRows = append(fanRows, []string{
					"", strconv.Itoa(fan.Index), fan.Label, strconv.Itoa(int(fan.Rpm)), pwmText,
				})
			}
			fanTable := table.Table{
				Headers: []string{"Fans   ", "Index", "Label", "RPM", "PWM output"},
				Rows:    fanRows,
			}

			var sensorRows [][]string
			for _, sensor := range controller.Sensors {
				_, file := filepath.Split(sensor.Path)
				labelAndFile := fmt.Sprintf("%s (%s)", sensor.Label, file)

				maxText := "N/A"
				if sensor.Max >= 0 {
					maxText = strconv.Itoa(sensor.Max)
				}
				sensorRows = append(sensorRows, []string{
					"", strconv.Itoa(sensor.Index), labelAndFile, fmt.Sprintf("%.1f", sensor.Value), maxText,
				})
			}
			sensorTable := table.Table{
				Headers: []string{"Sensors", "Index", "Label", "Value", "Max"},
				Rows:    sensorRows,
			}

			if err := global.PrintTables(fanTable, sensorTable); err != nil {
				ui.Fatal("Error printing table: %v", err)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)
}
