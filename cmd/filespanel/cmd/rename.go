package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/justyntemme/filespanel/internal/app"
)

var renameCmd = &cobra.Command{
	Use:   "rename <path> <new-name>",
	Short: "Rename an entry in place",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, name := resolvePath(cfg, args[0]), args[1]
		return withHeadless(cmd, func(ctx context.Context, h *app.Headless) error {
			if err := h.Rename(ctx, path, name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "renamed %s to %s\n", path, name)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(renameCmd)
}
