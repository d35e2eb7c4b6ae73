package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/justyntemme/filespanel/internal/app"
)

var (
	treeCollapsed bool
	treeDotfiles  bool
)

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the project tree",
	Long: `Reads the project root through the configured driver and prints it.
With --collapsed only the root's children are listed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("dotfiles") {
			cfg.UI.ShowDotfiles = treeDotfiles
		}
		return withHeadless(cmd, func(ctx context.Context, h *app.Headless) error {
			return h.Render(cmd.OutOrStdout(), !treeCollapsed)
		})
	},
}

func init() {
	treeCmd.Flags().BoolVar(&treeCollapsed, "collapsed", false, "skip the contents of collapsed folders")
	treeCmd.Flags().BoolVar(&treeDotfiles, "dotfiles", false, "include dot-files (overrides config)")
	rootCmd.AddCommand(treeCmd)
}
