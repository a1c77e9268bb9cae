package cmd

import (
	"github.com/markusressel/thermal2go/internal/ui"
	"github.com/spf13/cobra"
)

// Version is set at build time
var Version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of thermal2go",
	Long:  `All software has versions. This is thermal2go's`,
	Run: func(cmd *cobra.Command, args []string) {
		ui.Println("%s", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
