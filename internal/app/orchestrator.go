package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gioui.org/app"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/unit"
	"gioui.org/widget/material"
	"go.uber.org/zap"

	"github.com/justyntemme/filespanel/internal/config"
	"github.com/justyntemme/filespanel/internal/debug"
	"github.com/justyntemme/filespanel/internal/events"
	"github.com/justyntemme/filespanel/internal/logging"
	"github.com/justyntemme/filespanel/internal/panel"
	"github.com/justyntemme/filespanel/internal/plugin"
	"github.com/justyntemme/filespanel/internal/ui"
)

// Orchestrator owns the window and routes TreeView gestures to the panel.
type Orchestrator struct {
	window  *app.Window
	theme   *material.Theme
	view    *ui.TreeView
	session *Session
	config  *config.Manager
	cfg     config.Config
	logger  *zap.Logger

	cancel      context.CancelFunc
	closeDriver func()
	// toast is written and drawn under the session lock.
	toast ui.Toast
}

// NewOrchestrator opens the driver named by cfg. Settings changed from the
// window are saved through cfgMgr; cfg may carry command-line overrides that
// are never saved.
func NewOrchestrator(ctx context.Context, cfgMgr *config.Manager, cfg config.Config) (*Orchestrator, error) {
	logger := logging.Named("app")

	ctx, cancel := context.WithCancel(ctx)
	driver, closeDriver, err := OpenDriver(ctx, cfg, logger)
	if err != nil {
		cancel()
		return nil, err
	}

	th := material.NewTheme()
	o := &Orchestrator{
		window:      new(app.Window),
		theme:       th,
		view:        ui.NewTreeView(th, cfg.Hotkeys),
		config:      cfgMgr,
		cfg:         cfg,
		logger:      logger,
		cancel:      cancel,
		closeDriver: closeDriver,
	}
	o.view.SetDarkMode(cfg.IsDarkMode())
	o.window.Option(app.Title("Files"), app.Size(unit.Dp(360), unit.Dp(720)))

	var opener func(string) error
	if cfg.Driver.Kind == config.DriverLocal {
		opener = platformOpen
	}
	o.session, err = NewSession(ctx, SessionOptions{
		Driver:       driver,
		Widget:       o.view,
		Root:         cfg.Project.Root,
		Workers:      cfg.Driver.Workers,
		Logger:       logger,
		ShowDotfiles: cfg.UI.ShowDotfiles,
		OnToggleHidden: func(show bool) {
			if err := cfgMgr.SetShowDotfiles(show); err != nil {
				logger.Warn("failed to save dot-file setting", zap.Error(err))
			}
		},
		Opener:   opener,
		OnChange: o.window.Invalidate,
	})
	if err != nil {
		closeDriver()
		cancel()
		return nil, err
	}

	bus := o.session.Bus()
	bus.Subscribe(events.EventConfigDialogRequested, func(e events.Event) {
		o.toast.Show(e.(events.ConfigDialogRequested).Content, ui.ToastInfo)
	})
	bus.Subscribe(events.EventMoveFailed, func(e events.Event) {
		mf := e.(events.MoveFailed)
		o.toast.Show(fmt.Sprintf("Could not move %s: %v", mf.Item.Name, mf.Err), ui.ToastError)
	})

	if cfg.Watcher.Enabled {
		if err := o.session.Watch(cfg.Debounce()); err != nil {
			logger.Warn("file watching disabled", zap.Error(err))
		}
	}
	if cfg.Metrics.Addr != "" {
		if _, err := ServeMetrics(ctx, cfg.Metrics.Addr, logger); err != nil {
			logger.Warn("metrics disabled", zap.String("addr", cfg.Metrics.Addr), zap.Error(err))
		}
	}
	return o, nil
}

// Run opens the project and processes window events until the window closes.
func (o *Orchestrator) Run() error {
	defer o.cancel()
	defer o.closeDriver()
	defer o.session.Close()

	root := o.cfg.Project.Root
	debug.Log(debug.APP, "opening project %s", root)
	o.session.OpenProject(root)

	var ops op.Ops
	for {
		switch e := o.window.Event().(type) {
		case app.DestroyEvent:
			return e.Err
		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)
			o.session.Frame(func(p *panel.Panel) {
				o.layout(gtx, p)
			})
			e.Frame(gtx.Ops)
		}
	}
}

// bind points the view's drag callbacks at p. They run inside Layout, which
// already holds the session lock.
func (o *Orchestrator) bind(p *panel.Panel) {
	o.view.DropPolicy = p.DragEnter
	o.view.CanDrag = p.DragStart
	o.view.IsPending = func(key string) bool {
		return p.StateOf(key) == panel.PendingMove
	}
}

func (o *Orchestrator) layout(gtx layout.Context, p *panel.Panel) {
	o.bind(p)

	var evts []ui.UIEvent
	layout.Stack{}.Layout(gtx,
		layout.Expanded(func(gtx layout.Context) layout.Dimensions {
			var dims layout.Dimensions
			dims, evts = o.view.Layout(gtx)
			return dims
		}),
		layout.Stacked(func(gtx layout.Context) layout.Dimensions {
			gtx.Constraints.Min = gtx.Constraints.Max
			return o.toast.Layout(gtx, o.theme)
		}),
	)

	for _, evt := range evts {
		o.handleUIEvent(p, evt)
	}
	if len(evts) > 0 {
		gtx.Execute(op.InvalidateCmd{})
	}
}

func (o *Orchestrator) handleUIEvent(p *panel.Panel, evt ui.UIEvent) {
	var err error
	switch evt.Action {
	case ui.ActionClick:
		err = p.Click(evt.Key)
	case ui.ActionDoubleClick:
		err = p.DoubleClick(evt.Key)
	case ui.ActionDrop:
		err = p.DragDrop(evt.DestKey, evt.Key, evt.Mode)
	case ui.ActionStartRename:
		err = p.StartRename(evt.Key)
	case ui.ActionRename:
		err = p.SubmitRename(evt.Key, evt.Text)
	case ui.ActionCancelRename:
		err = p.CancelRename(evt.Key)
	case ui.ActionRefresh:
		p.Refresh()
	case ui.ActionToggleHidden:
		err = o.session.Plugins().HandleClick(plugin.HiddenFilesID)
	}
	if err == nil {
		return
	}

	o.logger.Warn("gesture rejected",
		zap.Stringer("action", evt.Action),
		zap.String("key", evt.Key),
		zap.Error(err))
	if shownInToast(err) {
		o.toast.Show(err.Error(), ui.ToastError)
	}
	if evt.Action == ui.ActionDrop || evt.Action == ui.ActionRename {
		// the view may already show the rejected result
		if root := p.Tree(); root != nil {
			o.view.Reload(root)
		}
	}
}

// shownInToast reports whether err is worth telling the user about.
// Unknown keys and stale drops are expected while the tree reloads.
func shownInToast(err error) bool {
	return errors.Is(err, panel.ErrInvalidName) || errors.Is(err, panel.ErrPathExists) ||
		errors.Is(err, panel.ErrRootImmutable) || errors.Is(err, panel.ErrConflictingMutation)
}

var _ panel.Relocator = (*ui.TreeView)(nil)

// Main starts the GUI on cfg's project and never returns.
func Main(cfgMgr *config.Manager, cfg config.Config) {
	go func() {
		o, err := NewOrchestrator(context.Background(), cfgMgr, cfg)
		if err != nil {
			logging.Error("failed to start", zap.Error(err))
			os.Exit(1)
		}
		if err := o.Run(); err != nil {
			logging.Error("window closed with error", zap.Error(err))
			os.Exit(1)
		}
		os.Exit(0)
	}()
	app.Main()
}
