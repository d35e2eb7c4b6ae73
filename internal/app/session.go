package app

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/justyntemme/filespanel/internal/debug"
	"github.com/justyntemme/filespanel/internal/events"
	"github.com/justyntemme/filespanel/internal/fs"
	"github.com/justyntemme/filespanel/internal/gateway"
	"github.com/justyntemme/filespanel/internal/panel"
	"github.com/justyntemme/filespanel/internal/plugin"
	"github.com/justyntemme/filespanel/internal/tree"
)

type SessionOptions struct {
	Driver  gateway.Driver
	Widget  panel.Widget
	Root    string
	Workers int
	Logger  *zap.Logger

	ShowDotfiles bool
	// OnToggleHidden persists the dot-file setting.
	OnToggleHidden func(show bool)
	// Opener opens a file of the local driver; nil disables opening.
	Opener func(path string) error
	// OnChange is called after every state change, outside the lock.
	OnChange func()
}

// Session wires a panel to a driver. Every panel call goes through Do and
// every backend delivery through the deliver loop, both behind one lock.
type Session struct {
	mu sync.Mutex

	bus     *events.Bus
	panel   *panel.Panel
	plugins *plugin.Registry
	hidden  *plugin.HiddenFiles
	async   *gateway.Async
	widget  panel.Widget
	logger  *zap.Logger

	opener   func(path string) error
	onChange func()

	watcher *DirectoryWatcher
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	unsubs  []func()
}

func NewSession(ctx context.Context, opts SessionOptions) (*Session, error) {
	if opts.Driver == nil {
		return nil, errors.New("session: no driver")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Session{
		bus:      events.NewBus(),
		widget:   opts.Widget,
		logger:   logger,
		opener:   opts.Opener,
		onChange: opts.OnChange,
	}
	s.async = gateway.NewAsync(opts.Driver, logger.Named("gateway"))
	s.panel = panel.New(panel.Options{
		Gateway: s.async,
		Widget:  opts.Widget,
		Bus:     s.bus,
		Logger:  logger.Named("panel"),
		Root:    opts.Root,
	})

	s.plugins = plugin.NewRegistry(s.bus, logger.Named("plugin"))
	s.hidden = plugin.NewHiddenFiles(opts.ShowDotfiles, func(show bool) {
		if opts.OnToggleHidden != nil {
			opts.OnToggleHidden(show)
		}
		s.panel.Refresh()
	})
	if err := s.plugins.Add(plugin.HiddenFilesID, s.hidden); err != nil {
		return nil, err
	}

	s.unsubs = append(s.unsubs,
		s.bus.Subscribe(events.EventItemMoved, s.onMoveSettled),
		s.bus.Subscribe(events.EventMoveFailed, s.onMoveSettled),
		s.bus.Subscribe(events.EventOpenRequested, s.onOpen),
		s.bus.SubscribeAll(func(e events.Event) {
			debug.Log(debug.BUS, "event: %s %+v", e.Type(), e)
		}),
	)

	s.ctx, s.cancel = context.WithCancel(ctx)
	s.async.Start(s.ctx, opts.Workers)
	s.wg.Add(1)
	go s.deliver()
	return s, nil
}

// Bus returns the session's event bus.
func (s *Session) Bus() *events.Bus { return s.bus }

// Plugins returns the session's plugin registry.
func (s *Session) Plugins() *plugin.Registry { return s.plugins }

// Do runs fn with exclusive access to the panel.
func (s *Session) Do(fn func(p *panel.Panel) error) error {
	s.mu.Lock()
	err := fn(s.panel)
	s.mu.Unlock()
	s.changed()
	return err
}

// Frame runs fn with exclusive access to the panel without signalling a
// change. The window lays out inside it so widget reloads never overlap a
// frame.
func (s *Session) Frame(fn func(p *panel.Panel)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.panel)
}

// OpenProject switches to root and reads it.
func (s *Session) OpenProject(root string) {
	s.Do(func(p *panel.Panel) error {
		s.bus.Publish(events.ProjectOpened{Root: root})
		p.Refresh()
		return nil
	})
}

func (s *Session) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

func (s *Session) deliver() {
	defer s.wg.Done()
	for {
		select {
		case <-s.ctx.Done():
			return
		case resp := <-s.async.ResponseChan:
			s.mu.Lock()
			s.async.Deliver(resp)
			s.mu.Unlock()
			s.changed()
		}
	}
}

// Idle reports whether no backend request is outstanding.
func (s *Session) Idle() bool {
	if s.async.Pending() > 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.panel.Pending() == 0 && s.async.Pending() == 0
}

// Wait blocks until the session is idle or ctx is done.
func (s *Session) Wait(ctx context.Context) error {
	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for !s.Idle() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// onMoveSettled puts the widget back in line with the panel: a confirmed
// move shows the backend's path, a failed one undoes the optimistic drop.
func (s *Session) onMoveSettled(events.Event) {
	if s.widget != nil && s.panel.Tree() != nil {
		s.widget.Reload(s.panel.Tree())
	}
}

func (s *Session) onOpen(e events.Event) {
	item := e.(events.OpenRequested).Item
	if s.opener == nil {
		s.logger.Info("open not supported by this driver", zap.String("path", item.Path))
		return
	}
	if err := s.opener(filepath.FromSlash(item.Path)); err != nil {
		s.logger.Error("open failed", zap.String("path", item.Path), zap.Error(err))
	}
}

// Watch refreshes the panel whenever the local directory tree changes.
// Drivers other than the local filesystem are not watched.
func (s *Session) Watch(debounce time.Duration) error {
	if _, ok := s.async.Driver().(*fs.Local); !ok {
		return nil
	}
	w, err := NewDirectoryWatcher(debounce)
	if err != nil {
		return err
	}
	s.watcher = w
	s.unsubs = append(s.unsubs, s.bus.Subscribe(events.EventBeforeRefresh, func(e events.Event) {
		w.Sync(folderPaths(e.(events.BeforeRefresh).Root))
	}))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-s.ctx.Done():
				return
			case dir, ok := <-w.Notify():
				if !ok {
					return
				}
				debug.Log(debug.WATCH, "change under %s, refreshing", dir)
				s.Do(func(p *panel.Panel) error {
					p.Refresh()
					return nil
				})
			}
		}
	}()
	return nil
}

func folderPaths(root *tree.Node) []string {
	var out []string
	tree.Walk(root, func(n *tree.Node, _ int) bool {
		if !n.IsFolder {
			return false
		}
		out = append(out, filepath.FromSlash(n.Path))
		return true
	})
	return out
}

// Close stops the workers and the watcher. Outstanding callbacks are
// dropped.
func (s *Session) Close() {
	s.cancel()
	if s.watcher != nil {
		s.watcher.Close()
	}
	s.async.Close()
	s.wg.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, unsub := range s.unsubs {
		unsub()
	}
	s.unsubs = nil
	s.hidden.Detach()
	s.panel.Close()
}
