package config

import (
	"github.com/markusressel/thermal2go/internal/configuration"
	"github.com/markusressel/thermal2go/internal/ui"
	"github.com/spf13/cobra"
)

var Command = &cobra.Command{
	Use:              "config",
	Short:            "Configuration related commands",
	Long:             ``,
	TraverseChildren: true,
}

// readAndValidate reads the configuration file given by the root command (-c)
func readAndValidate() error {
	configPath, err := configuration.DetectAndReadConfigFile()
	if err != nil {
		return err
	}
	ui.Info("Using configuration file at: %s", configPath)
	configuration.LoadConfig()
	return configuration.Validate(configPath)
}
