package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/justyntemme/filespanel/internal/app"
	"github.com/justyntemme/filespanel/internal/config"
	"github.com/justyntemme/filespanel/internal/logging"
)

var (
	cfgFile    string
	rootDir    string
	driverKind string
	logLevel   string
	timeout    time.Duration

	// set by setup before any command runs
	mgr *config.Manager
	cfg config.Config
)

var rootCmd = &cobra.Command{
	Use:   "filespanel",
	Short: "Project files panel over the local disk, a SQLite tree or an S3 bucket",
	Long: `filespanel shows a project directory as a tree and moves or renames
entries by drag and drop. The same operations are available from the
command line:

  filespanel tree                 # print the project tree
  filespanel mv a.txt docs        # move a.txt into docs
  filespanel rename a.txt b.txt   # rename in place

Running 'filespanel' without arguments opens the window.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return guiCmd.RunE(cmd, args)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.config/filespanel/config.json)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "root", "r", "", "project root (overrides config)")
	rootCmd.PersistentFlags().StringVar(&driverKind, "driver", "", "backend: local, sqlite or s3 (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (overrides config)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "how long command-line operations wait for the backend")
}

func setup() error {
	mgr = config.NewManager()
	var err error
	if cfgFile != "" {
		err = mgr.LoadFrom(cfgFile)
	} else {
		err = mgr.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cfg = mgr.Get()
	if err := applyOverrides(&cfg); err != nil {
		return err
	}

	if err := logging.Init(logging.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("failed to init logging: %w", err)
	}
	if perr := mgr.ParseError(); perr != nil {
		logging.Warn("config file is invalid, using defaults",
			zap.String("path", mgr.Path()),
			zap.Error(perr))
	}
	return nil
}

// applyOverrides folds command-line flags into c. Overrides are never saved.
func applyOverrides(c *config.Config) error {
	if driverKind != "" {
		switch driverKind {
		case config.DriverLocal, config.DriverSQLite, config.DriverS3:
			c.Driver.Kind = driverKind
		default:
			return fmt.Errorf("unknown driver %q", driverKind)
		}
	}
	if rootDir != "" {
		c.Project.Root = rootDir
	}
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	c.Project.Root = resolvePath(*c, c.Project.Root)
	return nil
}

// resolvePath makes a path given on the command line absolute for the local
// driver. Paths of other drivers are already rooted in their own namespace.
func resolvePath(c config.Config, p string) string {
	if c.Driver.Kind != config.DriverLocal {
		return p
	}
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return filepath.ToSlash(p)
}

func contextWithTimeout(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), timeout)
}

// withHeadless loads the project and hands it to fn.
func withHeadless(cmd *cobra.Command, fn func(ctx context.Context, h *app.Headless) error) error {
	ctx, cancel := contextWithTimeout(cmd)
	defer cancel()

	logger := logging.L()
	driver, closeDriver, err := app.OpenDriver(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDriver()

	h, err := app.NewHeadless(ctx, app.SessionOptions{
		Driver:       driver,
		Root:         cfg.Project.Root,
		Workers:      cfg.Driver.Workers,
		Logger:       logger,
		ShowDotfiles: cfg.UI.ShowDotfiles,
	})
	if err != nil {
		return err
	}
	defer h.Close()

	if err := h.Load(ctx); err != nil {
		return err
	}
	return fn(ctx, h)
}
