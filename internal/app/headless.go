package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/justyntemme/filespanel/internal/events"
	"github.com/justyntemme/filespanel/internal/panel"
	"github.com/justyntemme/filespanel/internal/tree"
)

// ErrNotFound is returned when a path is not part of the loaded tree.
var ErrNotFound = errors.New("path not in tree")

// console is the widget of a Headless session. It only remembers the last
// tree it was shown.
type console struct {
	root    *tree.Node
	editing string
}

func (c *console) Reload(root *tree.Node) { c.root = root }
func (c *console) StartEdit(key string)   { c.editing = key }

func (c *console) EndEdit(key string) string {
	if c.editing == key {
		c.editing = ""
	}
	return ""
}

// Headless drives a panel from the command line: every operation is issued
// like a gesture and then waits for the backend to answer.
type Headless struct {
	session *Session
	console *console
	root    string

	// failures holds the last backend rejection per key; guarded by the
	// session lock.
	failures map[string]error
}

// NewHeadless starts a session on opts.Driver. opts.Widget is replaced.
func NewHeadless(ctx context.Context, opts SessionOptions) (*Headless, error) {
	h := &Headless{
		console:  &console{},
		root:     opts.Root,
		failures: make(map[string]error),
	}
	opts.Widget = h.console
	s, err := NewSession(ctx, opts)
	if err != nil {
		return nil, err
	}
	h.session = s

	s.unsubs = append(s.unsubs,
		s.bus.Subscribe(events.EventMoveFailed, func(e events.Event) {
			mf := e.(events.MoveFailed)
			h.failures[mf.Item.Key] = mf.Err
		}),
		s.bus.Subscribe(events.EventItemMoved, func(e events.Event) {
			delete(h.failures, e.(events.ItemMoved).Item.Key)
		}),
	)
	return h, nil
}

// Session returns the underlying session.
func (h *Headless) Session() *Session { return h.session }

// Load reads the project root and waits for the snapshot.
func (h *Headless) Load(ctx context.Context) error {
	h.session.OpenProject(h.root)
	if err := h.session.Wait(ctx); err != nil {
		return err
	}
	var loaded bool
	h.session.Frame(func(p *panel.Panel) { loaded = p.Tree() != nil })
	if !loaded {
		return fmt.Errorf("could not read %s", h.root)
	}
	return nil
}

// Render writes the loaded tree to w. With all set, collapsed folders are
// listed too.
func (h *Headless) Render(w io.Writer, all bool) error {
	var err error
	h.session.Frame(func(p *panel.Panel) {
		err = Render(w, p.Tree(), all)
	})
	return err
}

// Move drops the node at src relative to the node at dest and waits for
// the backend.
func (h *Headless) Move(ctx context.Context, src, dest string, mode tree.HitMode) error {
	var key string
	err := h.session.Do(func(p *panel.Panel) error {
		dragged, target := tree.FindByPath(p.Tree(), src), tree.FindByPath(p.Tree(), dest)
		switch {
		case dragged == nil:
			return fmt.Errorf("%w: %s", ErrNotFound, src)
		case target == nil:
			return fmt.Errorf("%w: %s", ErrNotFound, dest)
		}
		key = dragged.Key
		delete(h.failures, key)
		return p.DragDrop(target.Key, dragged.Key, mode)
	})
	if err != nil {
		return err
	}
	return h.settle(ctx, key)
}

// Rename gives the node at path a new name and waits for the backend.
func (h *Headless) Rename(ctx context.Context, path, name string) error {
	var key string
	err := h.session.Do(func(p *panel.Panel) error {
		n := tree.FindByPath(p.Tree(), path)
		if n == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		key = n.Key
		delete(h.failures, key)
		if err := p.StartRename(n.Key); err != nil {
			return err
		}
		return p.SubmitRename(n.Key, name)
	})
	if err != nil {
		return err
	}
	return h.settle(ctx, key)
}

func (h *Headless) settle(ctx context.Context, key string) error {
	if err := h.session.Wait(ctx); err != nil {
		return err
	}
	var err error
	h.session.Frame(func(*panel.Panel) { err = h.failures[key] })
	return err
}

// Close stops the session.
func (h *Headless) Close() { h.session.Close() }

// Render writes root as an indented listing. Folders end in a slash; files
// show their size and age.
func Render(w io.Writer, root *tree.Node, all bool) error {
	if root == nil {
		return errors.New("no tree loaded")
	}
	var werr error
	tree.Walk(root, func(n *tree.Node, depth int) bool {
		if werr != nil {
			return false
		}
		indent := strings.Repeat("  ", depth)
		if n.IsFolder {
			_, werr = fmt.Fprintf(w, "%s%s/\n", indent, n.Name)
			return depth == 0 || all || n.Expanded
		}
		line := fmt.Sprintf("%s%-*s %8s", indent, 40-len(indent), n.Name, humanize.Bytes(uint64(n.Size)))
		if !n.ModTime.IsZero() {
			line += "  " + humanize.Time(n.ModTime)
		}
		_, werr = fmt.Fprintln(w, line)
		return false
	})
	return werr
}
