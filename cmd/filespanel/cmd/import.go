package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/justyntemme/filespanel/internal/fs"
	"github.com/justyntemme/filespanel/internal/store"
)

var importDB string

var importCmd = &cobra.Command{
	Use:   "import <directory> [tree-path]",
	Short: "Copy a directory listing into the SQLite tree",
	Long: `Reads directory from disk and records every entry under tree-path
(default "/") in the SQLite tree used by --driver sqlite. File contents
are not copied.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		dst := "/"
		if len(args) == 2 {
			dst = args[1]
		}
		dbPath := cfg.Driver.SQLitePath
		if importDB != "" {
			dbPath = importDB
		}

		db := store.NewDB()
		if err := db.Open(dbPath); err != nil {
			return fmt.Errorf("open %s: %w", dbPath, err)
		}
		defer db.Close()

		ctx, cancel := contextWithTimeout(cmd)
		defer cancel()
		n, err := db.Import(ctx, fs.NewLocal(cfg.Project.Ignore...), filepath.ToSlash(src), dst)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "imported %d entries into %s\n", n, dbPath)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importDB, "db", "", "SQLite file (default: driver.sqlitePath from config)")
	rootCmd.AddCommand(importCmd)
}
