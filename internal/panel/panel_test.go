package panel

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/filespanel/internal/events"
	"github.com/justyntemme/filespanel/internal/expansion"
	"github.com/justyntemme/filespanel/internal/gateway"
	"github.com/justyntemme/filespanel/internal/tree"
)

type moveCall struct {
	from tree.Item
	to   gateway.MoveSpec
	done func(error)
}

type readCall struct {
	root string
	done func([]*tree.Node, error)
}

// fakeGateway holds callbacks until the test resolves them.
type fakeGateway struct {
	moves []moveCall
	reads []readCall
}

func (g *fakeGateway) ReadDirectory(root string, done func([]*tree.Node, error)) {
	g.reads = append(g.reads, readCall{root: root, done: done})
}

func (g *fakeGateway) Move(from tree.Item, to gateway.MoveSpec, done func(error)) {
	g.moves = append(g.moves, moveCall{from: from, to: to, done: done})
}

type relocation struct {
	key, destKey string
	mode         tree.HitMode
}

type fakeWidget struct {
	reloads     []*tree.Node
	edits       []string
	ended       []string
	editText    map[string]string
	relocations []relocation
}

func (w *fakeWidget) Reload(root *tree.Node) { w.reloads = append(w.reloads, root) }
func (w *fakeWidget) StartEdit(key string)   { w.edits = append(w.edits, key) }
func (w *fakeWidget) EndEdit(key string) string {
	w.ended = append(w.ended, key)
	return w.editText[key]
}
func (w *fakeWidget) Relocate(key, destKey string, mode tree.HitMode) {
	w.relocations = append(w.relocations, relocation{key, destKey, mode})
}

type fixture struct {
	panel  *Panel
	gw     *fakeGateway
	widget *fakeWidget
	bus    *events.Bus
	store  *expansion.Store
	got    []events.Event
}

// snapshot returns a fresh copy of:
//
//	/proj
//	├── a.txt
//	├── b/
//	│   └── x.go
//	└── z.md
func snapshot() *tree.Node {
	root := tree.NewFolder("/proj",
		tree.NewFile("/proj/a.txt"),
		tree.NewFolder("/proj/b", tree.NewFile("/proj/b/x.go")),
		tree.NewFile("/proj/z.md"),
	)
	root.Expanded = true
	return root
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		gw:     &fakeGateway{},
		widget: &fakeWidget{editText: map[string]string{}},
		bus:    events.NewBus(),
		store:  expansion.New(),
	}
	f.bus.SubscribeAll(func(e events.Event) { f.got = append(f.got, e) })
	f.panel = New(Options{
		Gateway:   f.gw,
		Widget:    f.widget,
		Bus:       f.bus,
		Expansion: f.store,
		Root:      "/proj",
	})
	t.Cleanup(f.panel.Close)
	f.panel.Populate([]*tree.Node{snapshot()})
	f.got = nil
	return f
}

func (f *fixture) node(t *testing.T, key string) *tree.Node {
	t.Helper()
	n := tree.Find(f.panel.Tree(), key)
	require.NotNil(t, n, "node %s", key)
	return n
}

func (f *fixture) types() []events.EventType {
	var out []events.EventType
	for _, e := range f.got {
		out = append(out, e.Type())
	}
	return out
}

func TestDropFileOverFolder(t *testing.T) {
	f := newFixture(t)

	require.True(t, f.panel.DragStart("/proj/a.txt"))
	require.NoError(t, f.panel.DragDrop("/proj/b", "/proj/a.txt", tree.Over))

	require.Len(t, f.gw.moves, 1)
	assert.Equal(t, "/proj/a.txt", f.gw.moves[0].from.Path)
	assert.Equal(t, "/proj/b/a.txt", f.gw.moves[0].to.Path)
	assert.Equal(t, []relocation{{"/proj/a.txt", "/proj/b", tree.Over}}, f.widget.relocations)
	assert.Equal(t, PendingMove, f.panel.StateOf("/proj/a.txt"))
	assert.Equal(t, "/proj/a.txt", f.node(t, "/proj/a.txt").Path, "path unchanged before confirmation")

	f.gw.moves[0].done(nil)

	a := f.node(t, "/proj/a.txt")
	assert.Equal(t, "/proj/b/a.txt", a.Path)
	assert.Same(t, f.node(t, "/proj/b"), tree.Parent(f.panel.Tree(), "/proj/a.txt"))
	assert.Equal(t, Idle, f.panel.StateOf("/proj/a.txt"))

	require.Len(t, f.got, 1)
	moved := f.got[0].(events.ItemMoved)
	assert.Equal(t, "/proj/a.txt", moved.OldPath)
	assert.Equal(t, "/proj/b/a.txt", moved.NewPath)
	assert.Equal(t, "/proj/b/a.txt", moved.Item.Path)
}

func TestDropBesideFileUsesItsFolder(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.panel.DragDrop("/proj/b/x.go", "/proj/z.md", tree.Before))
	require.Len(t, f.gw.moves, 1)
	assert.Equal(t, "/proj/b/z.md", f.gw.moves[0].to.Path)

	f.gw.moves[0].done(nil)
	b := f.node(t, "/proj/b")
	require.Len(t, b.Children, 2)
	assert.Equal(t, "z.md", b.Children[0].Name)
	assert.Equal(t, "x.go", b.Children[1].Name)
}

func TestRenameFile(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.panel.StartRename("/proj/a.txt"))
	assert.Equal(t, Editing, f.panel.StateOf("/proj/a.txt"))
	assert.Equal(t, []string{"/proj/a.txt"}, f.widget.edits)

	require.NoError(t, f.panel.SubmitRename("/proj/a.txt", "c.txt"))
	require.Len(t, f.gw.moves, 1)
	assert.Equal(t, "/proj/c.txt", f.gw.moves[0].to.Path)

	f.gw.moves[0].done(nil)
	a := f.node(t, "/proj/a.txt")
	assert.Equal(t, "/proj/c.txt", a.Path)
	assert.Equal(t, "c.txt", a.Name)
}

func TestRenameFolderWithTrailingSeparator(t *testing.T) {
	f := newFixture(t)
	root := snapshot()
	b := tree.Find(root, "/proj/b")
	b.Path = "/proj/b/"
	f.panel.Populate([]*tree.Node{root})

	require.NoError(t, f.panel.StartRename("/proj/b"))
	require.NoError(t, f.panel.SubmitRename("/proj/b", "d"))
	require.Len(t, f.gw.moves, 1)
	assert.Equal(t, "/proj/d", f.gw.moves[0].to.Path)

	f.gw.moves[0].done(nil)
	assert.Equal(t, "/proj/d", f.node(t, "/proj/b").Path)
	assert.Equal(t, "/proj/d/x.go", f.node(t, "/proj/b/x.go").Path)
}

func TestFailedMoveLeavesPathsUntouched(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.panel.DragDrop("/proj/b", "/proj/a.txt", tree.Over))
	f.gw.moves[0].done(&gateway.BackendError{Op: "move", Path: "/proj/a.txt", Err: errors.New("denied")})

	assert.Equal(t, "/proj/a.txt", f.node(t, "/proj/a.txt").Path)
	assert.Same(t, f.panel.Tree(), tree.Parent(f.panel.Tree(), "/proj/a.txt"))
	assert.Equal(t, Idle, f.panel.StateOf("/proj/a.txt"))

	require.Len(t, f.got, 1)
	failed := f.got[0].(events.MoveFailed)
	assert.ErrorIs(t, failed.Err, gateway.ErrBackendUnavailable)
	assert.Equal(t, "/proj/b/a.txt", failed.NewPath)
	assert.Empty(t, f.gw.reads, "no automatic refresh")
}

func TestSecondMutationRejectedWhilePending(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.panel.DragDrop("/proj/b", "/proj/a.txt", tree.Over))
	err := f.panel.DragDrop("/proj/z.md", "/proj/a.txt", tree.After)
	assert.ErrorIs(t, err, ErrConflictingMutation)
	assert.ErrorIs(t, f.panel.StartRename("/proj/a.txt"), ErrConflictingMutation)
	assert.False(t, f.panel.DragStart("/proj/a.txt"))

	assert.Len(t, f.gw.moves, 1)

	f.gw.moves[0].done(nil)
	assert.True(t, f.panel.DragStart("/proj/a.txt"))
}

func TestFolderLockedWhileChildPending(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.panel.StartRename("/proj/b/x.go"))
	require.NoError(t, f.panel.SubmitRename("/proj/b/x.go", "y.go"))

	assert.ErrorIs(t, f.panel.StartRename("/proj/b"), ErrConflictingMutation)
	assert.False(t, f.panel.DragStart("/proj/b"))
	assert.ErrorIs(t, f.panel.DragDrop("/proj/z.md", "/proj/b", tree.After), ErrConflictingMutation)
	assert.Equal(t, Idle, f.panel.StateOf("/proj/b"))
	require.Len(t, f.gw.moves, 1)

	f.gw.moves[0].done(nil)
	require.NoError(t, f.panel.StartRename("/proj/b"))
	require.NoError(t, f.panel.SubmitRename("/proj/b", "d"))
	require.Len(t, f.gw.moves, 2)
	f.gw.moves[1].done(nil)

	assert.Equal(t, "/proj/d", f.node(t, "/proj/b").Path)
	assert.Equal(t, "/proj/d/y.go", f.node(t, "/proj/b/x.go").Path)
}

func TestSubtreeLockedWhileFolderPending(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.panel.StartRename("/proj/b"))
	require.NoError(t, f.panel.SubmitRename("/proj/b", "d"))

	assert.ErrorIs(t, f.panel.StartRename("/proj/b/x.go"), ErrConflictingMutation)
	assert.False(t, f.panel.DragStart("/proj/b/x.go"))
	assert.ErrorIs(t, f.panel.DragDrop("/proj/a.txt", "/proj/b/x.go", tree.Before), ErrConflictingMutation)
	assert.ErrorIs(t, f.panel.DragDrop("/proj/b", "/proj/a.txt", tree.Over), ErrConflictingMutation)
	assert.ErrorIs(t, f.panel.DragDrop("/proj/b/x.go", "/proj/a.txt", tree.After), ErrConflictingMutation)
	require.Len(t, f.gw.moves, 1)

	// unrelated nodes stay free
	assert.True(t, f.panel.DragStart("/proj/a.txt"))
	require.NoError(t, f.panel.StartRename("/proj/z.md"))
	require.NoError(t, f.panel.SubmitRename("/proj/z.md", "w.md"))
	require.Len(t, f.gw.moves, 2)

	f.gw.moves[0].done(nil)
	f.gw.moves[1].done(nil)
	require.NoError(t, f.panel.StartRename("/proj/b/x.go"))
	require.NoError(t, f.panel.SubmitRename("/proj/b/x.go", "y.go"))
	require.Len(t, f.gw.moves, 3)
	assert.Equal(t, "/proj/d/y.go", f.gw.moves[2].to.Path)
}

func TestSubmitRejectedWhenParentStartsMoving(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.panel.StartRename("/proj/b/x.go"))
	require.NoError(t, f.panel.StartRename("/proj/b"))
	require.NoError(t, f.panel.SubmitRename("/proj/b", "d"))
	require.Len(t, f.gw.moves, 1)

	assert.ErrorIs(t, f.panel.SubmitRename("/proj/b/x.go", "y.go"), ErrConflictingMutation)
	assert.Equal(t, Idle, f.panel.StateOf("/proj/b/x.go"))
	assert.Len(t, f.gw.moves, 1)
}

func TestDropWhileEditingIsInvalid(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.panel.StartRename("/proj/a.txt"))
	assert.False(t, f.panel.DragStart("/proj/a.txt"))
	assert.ErrorIs(t, f.panel.DragDrop("/proj/b", "/proj/a.txt", tree.Over), ErrInvalidDrop)
	assert.Equal(t, Editing, f.panel.StateOf("/proj/a.txt"))
	assert.Empty(t, f.gw.moves)
}

func TestDragEnter(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, tree.SiblingHitModes, f.panel.DragEnter("/proj/a.txt"))
	assert.Equal(t, tree.AllHitModes, f.panel.DragEnter("/proj/b"))
	assert.Equal(t, tree.HitModes(tree.Over), f.panel.DragEnter("/proj"))
	assert.Equal(t, tree.HitModes(0), f.panel.DragEnter("/missing"))
}

func TestInvalidDrops(t *testing.T) {
	f := newFixture(t)

	assert.ErrorIs(t, f.panel.DragDrop("/proj/z.md", "/proj/a.txt", tree.Over), ErrInvalidDrop)
	assert.ErrorIs(t, f.panel.DragDrop("/proj/b/x.go", "/proj/b", tree.After), ErrInvalidDrop)
	assert.ErrorIs(t, f.panel.DragDrop("/proj/b", "/proj/b", tree.Over), ErrInvalidDrop)
	assert.ErrorIs(t, f.panel.DragDrop("/proj/b", "/proj", tree.Over), ErrRootImmutable)
	assert.ErrorIs(t, f.panel.DragDrop("/nope", "/proj/a.txt", tree.Over), ErrUnknownNode)
	assert.False(t, f.panel.DragStart("/proj"))
	assert.False(t, f.panel.DragStart("/nope"))
	assert.Empty(t, f.gw.moves)
}

func TestVoidDropReordersWithoutBackend(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.panel.DragDrop("/proj/a.txt", "/proj/z.md", tree.Before))

	assert.Empty(t, f.gw.moves)
	assert.Len(t, f.widget.relocations, 1)
	names := []string{}
	for _, c := range f.panel.Tree().Children {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"z.md", "a.txt", "b"}, names)
	assert.Equal(t, Idle, f.panel.StateOf("/proj/z.md"))
}

func TestDropOntoExistingNameRejected(t *testing.T) {
	f := newFixture(t)
	root := snapshot()
	b := tree.Find(root, "/proj/b")
	tree.Append(b, tree.NewFile("/proj/b/a.txt"))
	f.panel.Populate([]*tree.Node{root})

	assert.ErrorIs(t, f.panel.DragDrop("/proj/b", "/proj/a.txt", tree.Over), ErrPathExists)
	assert.Empty(t, f.gw.moves)
	assert.Equal(t, Idle, f.panel.StateOf("/proj/a.txt"))
}

func TestSubmitRenameEdgeCases(t *testing.T) {
	f := newFixture(t)

	assert.ErrorIs(t, f.panel.SubmitRename("/proj/a.txt", "c.txt"), ErrNotEditing)

	require.NoError(t, f.panel.StartRename("/proj/a.txt"))
	require.NoError(t, f.panel.SubmitRename("/proj/a.txt", ""))
	assert.Equal(t, Idle, f.panel.StateOf("/proj/a.txt"))

	require.NoError(t, f.panel.StartRename("/proj/a.txt"))
	require.NoError(t, f.panel.SubmitRename("/proj/a.txt", "a.txt"))

	require.NoError(t, f.panel.StartRename("/proj/a.txt"))
	assert.ErrorIs(t, f.panel.SubmitRename("/proj/a.txt", "x/y"), ErrInvalidName)
	assert.Equal(t, Idle, f.panel.StateOf("/proj/a.txt"))

	require.NoError(t, f.panel.StartRename("/proj/a.txt"))
	assert.ErrorIs(t, f.panel.SubmitRename("/proj/a.txt", "z.md"), ErrPathExists)

	assert.ErrorIs(t, f.panel.StartRename("/proj"), ErrRootImmutable)
	assert.Empty(t, f.gw.moves)
}

func TestCancelRename(t *testing.T) {
	f := newFixture(t)

	assert.ErrorIs(t, f.panel.CancelRename("/proj/a.txt"), ErrNotEditing)
	require.NoError(t, f.panel.StartRename("/proj/a.txt"))
	require.NoError(t, f.panel.CancelRename("/proj/a.txt"))

	assert.Equal(t, Idle, f.panel.StateOf("/proj/a.txt"))
	assert.Equal(t, []string{"/proj/a.txt"}, f.widget.ended)
	assert.Empty(t, f.gw.moves)
}

func TestRenameFocused(t *testing.T) {
	f := newFixture(t)

	assert.ErrorIs(t, f.panel.RenameFocused(), ErrUnknownNode)
	require.NoError(t, f.panel.Click("/proj/z.md"))
	require.NoError(t, f.panel.RenameFocused())
	assert.Equal(t, Editing, f.panel.StateOf("/proj/z.md"))
}

func TestClickCommitsOpenEdit(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.panel.StartRename("/proj/a.txt"))
	f.widget.editText["/proj/a.txt"] = "c.txt"

	require.NoError(t, f.panel.Click("/proj/z.md"))

	assert.Equal(t, []string{"/proj/a.txt"}, f.widget.ended)
	require.Len(t, f.gw.moves, 1)
	assert.Equal(t, "/proj/c.txt", f.gw.moves[0].to.Path)
	assert.Equal(t, "/proj/z.md", f.panel.Focused().Key)
	assert.Equal(t, []events.EventType{events.EventItemClicked}, f.types())
}

func TestClickFolderTogglesAndPublishes(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.panel.Click("/proj/b"))
	assert.True(t, f.node(t, "/proj/b").Expanded)
	state, ok := f.store.Expanded("/proj/b")
	require.True(t, ok)
	assert.True(t, state)

	require.NoError(t, f.panel.Click("/proj/a.txt"))
	_, ok = f.store.Expanded("/proj/a.txt")
	assert.False(t, ok, "files are not recorded")

	require.Len(t, f.got, 2)
	assert.Equal(t, "/proj/b", f.got[0].(events.ItemClicked).Item.Key)
	assert.ErrorIs(t, f.panel.Click("/nope"), ErrUnknownNode)
}

func TestDoubleClick(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.panel.DoubleClick("/proj/a.txt"))
	require.NoError(t, f.panel.DoubleClick("/proj/b"))

	assert.Equal(t, []events.EventType{
		events.EventItemDoubleClicked,
		events.EventOpenRequested,
		events.EventItemDoubleClicked,
	}, f.types())
}

func TestToggleSurvivesRefresh(t *testing.T) {
	for _, defaultExpanded := range []bool{false, true} {
		f := newFixture(t)
		require.NoError(t, f.panel.Click("/proj/b"))
		want := f.node(t, "/proj/b").Expanded

		f.panel.Refresh()
		require.Len(t, f.gw.reads, 1)
		assert.Equal(t, "/proj", f.gw.reads[0].root)

		fresh := snapshot()
		tree.Find(fresh, "/proj/b").Expanded = defaultExpanded
		f.gw.reads[0].done([]*tree.Node{fresh}, nil)

		assert.Equal(t, want, f.node(t, "/proj/b").Expanded, "default=%v", defaultExpanded)
		assert.Same(t, fresh, f.widget.reloads[len(f.widget.reloads)-1])
	}
}

func TestPopulateRestoresOnceAndPublishesBeforeReload(t *testing.T) {
	f := newFixture(t)
	f.store.Set("/proj/b", true)

	var seen *tree.Node
	f.bus.Subscribe(events.EventBeforeRefresh, func(e events.Event) {
		seen = e.(events.BeforeRefresh).Root
		assert.True(t, tree.Find(seen, "/proj/b").Expanded, "restore runs before the hook")
		seen.Children = seen.Children[1:]
	})

	reloads := len(f.widget.reloads)
	root := snapshot()
	f.panel.Populate([]*tree.Node{root})

	assert.Same(t, root, seen)
	assert.Len(t, f.widget.reloads, reloads+1)
	assert.Nil(t, tree.Find(f.panel.Tree(), "/proj/a.txt"), "hook edits are kept")
	assert.ErrorIs(t, f.panel.Click("/proj/a.txt"), ErrUnknownNode)
}

func TestPopulateEmptyKeepsTree(t *testing.T) {
	f := newFixture(t)
	before := f.panel.Tree()
	reloads := len(f.widget.reloads)

	f.panel.Populate(nil)
	f.panel.Populate([]*tree.Node{})

	assert.Same(t, before, f.panel.Tree())
	assert.Len(t, f.widget.reloads, reloads)
}

func TestPopulateDropsEditsAndVanishedFocus(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.panel.Click("/proj/a.txt"))
	require.NoError(t, f.panel.StartRename("/proj/z.md"))

	root := snapshot()
	tree.Detach(root, "/proj/z.md")
	f.panel.Populate([]*tree.Node{root})

	assert.Equal(t, Idle, f.panel.StateOf("/proj/z.md"))
	assert.Nil(t, f.panel.Focused())
}

func TestPendingMoveSurvivesRefresh(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.panel.DragDrop("/proj/b", "/proj/a.txt", tree.Over))

	f.panel.Refresh()
	f.gw.reads[0].done([]*tree.Node{snapshot()}, nil)

	assert.Equal(t, PendingMove, f.panel.StateOf("/proj/a.txt"))
	f.gw.moves[0].done(nil)
	assert.Equal(t, "/proj/b/a.txt", f.node(t, "/proj/a.txt").Path)
}

func TestStaleRefreshDropped(t *testing.T) {
	f := newFixture(t)

	f.panel.Refresh()
	f.panel.Refresh()
	require.Len(t, f.gw.reads, 2)

	newer := snapshot()
	older := snapshot()
	f.gw.reads[1].done([]*tree.Node{newer}, nil)
	f.gw.reads[0].done([]*tree.Node{older}, nil)

	assert.Same(t, newer, f.panel.Tree())
}

func TestRefreshErrorKeepsTree(t *testing.T) {
	f := newFixture(t)
	before := f.panel.Tree()

	f.panel.Refresh()
	f.gw.reads[0].done(nil, &gateway.BackendError{Op: "read", Path: "/proj", Err: errors.New("offline")})

	assert.Same(t, before, f.panel.Tree())
}

func TestProjectOpenedResetsState(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.panel.Click("/proj/b"))
	f.panel.Refresh()
	require.Equal(t, 1, f.store.Len())

	f.bus.Publish(events.ProjectOpened{Root: "/other/"})

	assert.Equal(t, 0, f.store.Len())
	assert.Nil(t, f.panel.Focused())
	assert.Equal(t, "/other", f.panel.Root())

	// the read issued for the old project is stale now
	old := snapshot()
	f.gw.reads[0].done([]*tree.Node{old}, nil)
	assert.NotSame(t, old, f.panel.Tree())

	f.panel.Refresh()
	require.Len(t, f.gw.reads, 2)
	assert.Equal(t, "/other", f.gw.reads[1].root)

	fresh := snapshot()
	f.gw.reads[1].done([]*tree.Node{fresh}, nil)
	assert.False(t, f.node(t, "/proj/b").Expanded, "snapshot default after reset")
}

func TestCloseUnsubscribes(t *testing.T) {
	f := newFixture(t)
	f.panel.Close()

	f.bus.Publish(events.ProjectOpened{Root: "/other"})
	assert.Equal(t, "/proj", f.panel.Root())
}
