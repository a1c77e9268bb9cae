package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/markusressel/thermal2go/cmd/global"
	"github.com/markusressel/thermal2go/internal/configuration"
	"github.com/markusressel/thermal2go/internal/ui"
	"github.com/spf13/cobra"
	"github.com/tomlazar/table"
	"gopkg.in/yaml.v3"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Prints the effective configuration, including all defaults",
	Long:  ``,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := readAndValidate(); err != nil {
			ui.Error("Validation failed: %v", err)
			os.Exit(1)
		}

		out, err := toYaml(configuration.CurrentConfig)
		if err != nil {
			return err
		}
		ui.PrintSection("Configuration")
		ui.Println("%s", out)

		ui.PrintSection("Inputs")
		return global.PrintTables(inputTable(configuration.CurrentConfig))
	},
}

// toYaml converts the configuration to yaml, using the same keys as the configuration file
func toYaml(config configuration.Configuration) (string, error) {
	data, err := json.Marshal(config)
	if err != nil {
		return "", err
	}
	var tree interface{}
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return "", err
	}
	out, err := yaml.Marshal(tree)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func inputTable(config configuration.Configuration) table.Table {
	var rows [][]string
	for _, input := range config.Inputs {
		modes := "all"
		if len(input.PowerModes) > 0 {
			modes = strings.Join(input.PowerModes, ", ")
		}
		rows = append(rows, []string{
			input.Sensor,
			fmt.Sprintf("%.1f", input.Target),
			fmt.Sprintf("%.1f", input.Critical),
			fmt.Sprintf("%.1f", input.PowerDown),
			fmt.Sprintf("%.2f", input.Slew),
			modes,
			fmt.Sprintf("%v", input.Removable),
		})
	}
	return table.Table{
		Headers: []string{"Sensor", "Target", "Critical", "Power down", "Slew (°C/s)", "Power modes", "Removable"},
		Rows:    rows,
	}
}

func init() {
	Command.AddCommand(showCmd)
}
