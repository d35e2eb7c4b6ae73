// Package panel keeps a tree widget in sync with a storage backend.
//
// A Panel turns widget gestures into backend requests and applies backend
// answers to its tree. It is not safe for concurrent use: every method and
// every gateway callback must run on the goroutine that owns the panel.
package panel

import (
	"errors"

	"go.uber.org/zap"

	"github.com/justyntemme/filespanel/internal/debug"
	"github.com/justyntemme/filespanel/internal/events"
	"github.com/justyntemme/filespanel/internal/expansion"
	"github.com/justyntemme/filespanel/internal/gateway"
	"github.com/justyntemme/filespanel/internal/metrics"
	"github.com/justyntemme/filespanel/internal/pathutil"
	"github.com/justyntemme/filespanel/internal/tree"
)

var (
	ErrConflictingMutation = errors.New("node or a relative has a pending move")
	ErrUnknownNode         = errors.New("unknown node")
	ErrInvalidDrop         = errors.New("invalid drop")
	ErrInvalidName         = errors.New("invalid name")
	ErrPathExists          = errors.New("destination already exists")
	ErrRootImmutable       = errors.New("root cannot be moved or renamed")
	ErrNotEditing          = errors.New("node is not being edited")
)

// State is the mutation state of one node.
type State int

const (
	Idle State = iota
	Editing
	PendingMove
)

func (s State) String() string {
	switch s {
	case Editing:
		return "editing"
	case PendingMove:
		return "pending-move"
	default:
		return "idle"
	}
}

// Widget is the visual tree the panel drives.
type Widget interface {
	// Reload replaces the displayed tree.
	Reload(root *tree.Node)
	// StartEdit opens the inline rename editor on key.
	StartEdit(key string)
	// EndEdit closes the editor on key and returns its text.
	EndEdit(key string) string
}

// Relocator is implemented by widgets that can show a dropped node at its
// destination before the backend confirms the move.
type Relocator interface {
	Relocate(key, destKey string, mode tree.HitMode)
}

type Options struct {
	Gateway   gateway.Gateway
	Widget    Widget
	Bus       *events.Bus
	Expansion *expansion.Store
	Logger    *zap.Logger
	// Root is the path read by Refresh.
	Root string
}

type Panel struct {
	gw        gateway.Gateway
	widget    Widget
	bus       *events.Bus
	expansion *expansion.Store
	logger    *zap.Logger

	root    string
	tree    *tree.Node
	index   map[string]*tree.Node
	states  map[string]State
	focused string

	// gen is bumped by every Refresh and project switch; read completions
	// carrying an older value are dropped.
	gen uint64

	unsubscribe func()
}

func New(opts Options) *Panel {
	p := &Panel{
		gw:        opts.Gateway,
		widget:    opts.Widget,
		bus:       opts.Bus,
		expansion: opts.Expansion,
		logger:    opts.Logger,
		root:      pathutil.Canonical(opts.Root),
		index:     make(map[string]*tree.Node),
		states:    make(map[string]State),
	}
	if p.bus == nil {
		p.bus = events.NewBus()
	}
	if p.expansion == nil {
		p.expansion = expansion.New()
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	if p.widget == nil {
		p.widget = nopWidget{}
	}
	p.unsubscribe = p.bus.Subscribe(events.EventProjectOpened, p.onProjectOpened)
	return p
}

// Close detaches the panel from the bus.
func (p *Panel) Close() {
	if p.unsubscribe != nil {
		p.unsubscribe()
		p.unsubscribe = nil
	}
}

func (p *Panel) onProjectOpened(e events.Event) {
	opened := e.(events.ProjectOpened)
	p.expansion.Reset()
	p.focused = ""
	p.root = pathutil.Canonical(opened.Root)
	p.gen++
	p.logger.Info("project opened", zap.String("root", p.root))
	debug.Log(debug.TREE, "project opened: root=%q gen=%d", p.root, p.gen)
}

// Tree returns the current root node, or nil before the first populate.
func (p *Panel) Tree() *tree.Node { return p.tree }

// Root returns the path Refresh reads.
func (p *Panel) Root() string { return p.root }

// Focused returns the focused node, or nil.
func (p *Panel) Focused() *tree.Node {
	if p.focused == "" {
		return nil
	}
	return p.index[p.focused]
}

// StateOf returns the mutation state of key.
func (p *Panel) StateOf(key string) State {
	return p.states[key]
}

// Expansion returns the expansion store.
func (p *Panel) Expansion() *expansion.Store { return p.expansion }

// Bus returns the event bus the panel publishes on.
func (p *Panel) Bus() *events.Bus { return p.bus }

// Pending returns the number of nodes waiting for a move answer.
func (p *Panel) Pending() int {
	n := 0
	for _, s := range p.states {
		if s == PendingMove {
			n++
		}
	}
	return n
}

func (p *Panel) node(key string) (*tree.Node, error) {
	n, ok := p.index[key]
	if !ok {
		return nil, ErrUnknownNode
	}
	return n, nil
}

func (p *Panel) isRoot(n *tree.Node) bool {
	return p.tree != nil && n == p.tree
}

func (p *Panel) setState(key string, s State) {
	if s == Idle {
		delete(p.states, key)
	} else {
		p.states[key] = s
	}
	debug.Log(debug.TREE, "state: %s -> %s", key, s)
}

// Click focuses key. An open rename editor on the previously focused node
// is committed first. Folders toggle their expansion.
func (p *Panel) Click(key string) error {
	n, err := p.node(key)
	if err != nil {
		return err
	}

	if p.focused != "" && p.states[p.focused] == Editing {
		p.commitEdit(p.focused)
	}
	p.focused = key

	if n.IsFolder {
		n.Expanded = p.expansion.RecordToggle(n)
	}

	debug.Log(debug.TREE, "click: %s folder=%v expanded=%v", key, n.IsFolder, n.Expanded)
	p.bus.Publish(events.ItemClicked{Item: n.Item()})
	return nil
}

func (p *Panel) commitEdit(key string) {
	text := p.widget.EndEdit(key)
	if err := p.SubmitRename(key, text); err != nil {
		p.logger.Warn("rename on focus change failed", zap.String("key", key), zap.Error(err))
	}
}

// DoubleClick notifies observers; files are also handed to the opener.
func (p *Panel) DoubleClick(key string) error {
	n, err := p.node(key)
	if err != nil {
		return err
	}
	item := n.Item()
	p.bus.Publish(events.ItemDoubleClicked{Item: item})
	if !n.IsFolder {
		p.bus.Publish(events.OpenRequested{Item: item})
	}
	return nil
}

// Populate installs a fresh snapshot. Only nodes[0] is used; an empty
// slice keeps the current tree.
func (p *Panel) Populate(nodes []*tree.Node) {
	if len(nodes) == 0 || nodes[0] == nil {
		debug.Log(debug.TREE, "populate: empty snapshot ignored")
		return
	}
	root := nodes[0]

	p.expansion.Restore(root)
	p.bus.Publish(events.BeforeRefresh{Root: root})

	p.tree = root
	p.index = tree.Index(root)

	for key, s := range p.states {
		if s == Editing {
			delete(p.states, key)
		}
	}
	if _, ok := p.index[p.focused]; !ok {
		p.focused = ""
	}

	metrics.SetTreeNodes(len(p.index))
	debug.Log(debug.TREE, "populate: root=%q nodes=%d", root.Path, len(p.index))
	p.widget.Reload(root)
}

type nopWidget struct{}

func (nopWidget) Reload(*tree.Node) {}
func (nopWidget) StartEdit(string)  {}
func (nopWidget) EndEdit(string) string {
	return ""
}
