package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/justyntemme/filespanel/internal/app"
	"github.com/justyntemme/filespanel/internal/tree"
)

var mvMode string

var mvCmd = &cobra.Command{
	Use:   "mv <source> <target>",
	Short: "Move an entry as if dragged onto target",
	Long: `Moves source relative to target. With --mode over (the default)
target must be a folder and source lands inside it; before and after
place source next to target in target's folder.

Existing entries are never replaced.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, ok := tree.ParseHitMode(mvMode)
		if !ok {
			return fmt.Errorf("unknown mode %q (want over, before or after)", mvMode)
		}
		src, dest := resolvePath(cfg, args[0]), resolvePath(cfg, args[1])
		return withHeadless(cmd, func(ctx context.Context, h *app.Headless) error {
			if err := h.Move(ctx, src, dest, mode); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "moved %s %s %s\n", src, mode, dest)
			return nil
		})
	},
}

func init() {
	mvCmd.Flags().StringVarP(&mvMode, "mode", "m", "over", "drop position: over, before or after")
	rootCmd.AddCommand(mvCmd)
}
