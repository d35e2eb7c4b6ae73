package cmd

import (
	"github.com/spf13/cobra"

	"github.com/justyntemme/filespanel/internal/app"
)

var guiCmd = &cobra.Command{
	Use:   "gui",
	Short: "Open the files panel window",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app.Main(mgr, cfg)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(guiCmd)
}
