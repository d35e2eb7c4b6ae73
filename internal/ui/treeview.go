package ui

import (
	"image"
	"image/color"

	"gioui.org/font"
	"gioui.org/io/event"
	"gioui.org/io/key"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/text"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"github.com/dustin/go-humanize"

	"github.com/justyntemme/filespanel/internal/config"
	"github.com/justyntemme/filespanel/internal/debug"
	"github.com/justyntemme/filespanel/internal/tree"
)

const (
	rowHeightDp = 28
	indentDp    = 16
)

// TreeView renders a file tree and turns pointer and keyboard input into
// UIEvents. It keeps its own copy of the tree, refreshed by Reload, so a
// dropped row can be shown at its destination before the backend answers.
//
// TreeView is not safe for concurrent use; Reload and the edit methods must
// run on the goroutine that calls Layout.
type TreeView struct {
	Theme *material.Theme

	// DropPolicy returns the hit modes a row accepts. Nil accepts all.
	DropPolicy func(destKey string) tree.HitModes
	// CanDrag vetoes drags. Nil allows all.
	CanDrag func(key string) bool
	// IsPending greys out rows waiting for the backend.
	IsPending func(key string) bool

	root  *entry
	index map[string]*entry

	list    layout.List
	touches map[string]*ClickAndDraggable
	hotkeys *config.HotkeyMatcher
	keyTag  bool

	focused string
	editing string
	editor  widget.Editor
	grabbed bool // editor needs focus on the next frame

	dragKey   string
	hoverKey  string
	hoverMode tree.HitMode

	events []UIEvent
}

func NewTreeView(th *material.Theme, hotkeys config.HotkeysConfig) *TreeView {
	v := &TreeView{
		Theme:   th,
		index:   make(map[string]*entry),
		touches: make(map[string]*ClickAndDraggable),
		hotkeys: config.NewHotkeyMatcher(hotkeys),
	}
	v.list.Axis = layout.Vertical
	v.editor.SingleLine = true
	v.editor.Submit = true
	return v
}

// SetDarkMode switches the palette.
func (v *TreeView) SetDarkMode(dark bool) {
	applyPalette(dark)
	if v.Theme != nil {
		v.Theme.Palette.Bg = colBackground
		v.Theme.Palette.Fg = colText
		v.Theme.Palette.ContrastBg = colAccent
	}
}

// Reload replaces the widget's tree with a copy of root.
func (v *TreeView) Reload(root *tree.Node) {
	if root == nil {
		v.root, v.index = nil, make(map[string]*entry)
		return
	}
	v.root = mirror(root, nil)
	v.index = indexEntries(v.root)

	for k := range v.touches {
		if _, ok := v.index[k]; !ok {
			delete(v.touches, k)
		}
	}
	if _, ok := v.index[v.editing]; !ok {
		v.editing = ""
	}
	if _, ok := v.index[v.dragKey]; !ok {
		v.dragKey, v.hoverKey = "", ""
	}
	debug.Log(debug.UI, "treeview: reload %q, %d entries", v.root.path, len(v.index))
}

// StartEdit opens the inline editor on key, prefilled with its name.
func (v *TreeView) StartEdit(key string) {
	e, ok := v.index[key]
	if !ok {
		return
	}
	v.editing = key
	v.editor.SetText(e.name)
	v.editor.SetCaret(len(e.name), 0)
	v.grabbed = true
}

// EndEdit closes the editor on key and returns its text.
func (v *TreeView) EndEdit(key string) string {
	if v.editing != key {
		return ""
	}
	v.editing = ""
	return v.editor.Text()
}

// Relocate shows key at its drop destination.
func (v *TreeView) Relocate(key, destKey string, mode tree.HitMode) {
	e, dest := v.index[key], v.index[destKey]
	if !relocate(e, dest, mode) {
		debug.Log(debug.UI, "treeview: relocate %s %s %s refused", key, mode, destKey)
		return
	}
	if mode == tree.Over {
		dest.expanded = true
	}
}

// Editing returns the key under edit, if any.
func (v *TreeView) Editing() string { return v.editing }

func (v *TreeView) emit(e UIEvent) {
	debug.Log(debug.UI, "treeview: %s key=%s dest=%s mode=%s", e.Action, e.Key, e.DestKey, e.Mode)
	v.events = append(v.events, e)
}

func (v *TreeView) allowed(key string) tree.HitModes {
	if v.DropPolicy == nil {
		return tree.AllHitModes
	}
	return v.DropPolicy(key)
}

func (v *TreeView) touch(key string) *ClickAndDraggable {
	t, ok := v.touches[key]
	if !ok {
		t = new(ClickAndDraggable)
		v.touches[key] = t
	}
	return t
}

// Layout draws the tree and returns the gestures of this frame.
func (v *TreeView) Layout(gtx layout.Context) (layout.Dimensions, []UIEvent) {
	v.events = v.events[:0]
	v.processHotkeys(gtx)
	v.processEditor(gtx)

	rows := project(v.root)
	rowH := gtx.Dp(unit.Dp(rowHeightDp))

	paint.FillShape(gtx.Ops, colBackground, clip.Rect{Max: gtx.Constraints.Max}.Op())
	dims := v.list.Layout(gtx, len(rows), func(gtx layout.Context, i int) layout.Dimensions {
		gtx.Constraints.Min.Y, gtx.Constraints.Max.Y = rowH, rowH
		gtx.Constraints.Min.X = gtx.Constraints.Max.X
		return v.layoutRow(gtx, rows, i, rowH)
	})

	area := clip.Rect{Max: dims.Size}.Push(gtx.Ops)
	event.Op(gtx.Ops, &v.keyTag)
	area.Pop()

	out := make([]UIEvent, len(v.events))
	copy(out, v.events)
	return dims, out
}

func (v *TreeView) processHotkeys(gtx layout.Context) {
	filters := v.hotkeys.Filters(&v.keyTag)
	if len(filters) == 0 {
		return
	}
	for {
		ev, ok := gtx.Event(filters...)
		if !ok {
			break
		}
		k, ok := ev.(key.Event)
		if !ok || k.State != key.Press || v.editing != "" {
			continue
		}
		switch {
		case v.hotkeys.Rename.Matches(k) && v.focused != "":
			v.emit(UIEvent{Action: ActionStartRename, Key: v.focused})
		case v.hotkeys.Refresh.Matches(k):
			v.emit(UIEvent{Action: ActionRefresh})
		case v.hotkeys.Open.Matches(k) && v.focused != "":
			v.emit(UIEvent{Action: ActionDoubleClick, Key: v.focused})
		case v.hotkeys.ToggleHidden.Matches(k):
			v.emit(UIEvent{Action: ActionToggleHidden})
		case v.hotkeys.Escape.Matches(k):
			v.dragKey, v.hoverKey = "", ""
		}
	}
}

func (v *TreeView) processEditor(gtx layout.Context) {
	if v.editing == "" {
		return
	}
	editKey := v.editing
	for {
		ev, ok := v.editor.Update(gtx)
		if !ok {
			break
		}
		if _, ok := ev.(widget.SubmitEvent); ok {
			text := v.EndEdit(editKey)
			v.emit(UIEvent{Action: ActionRename, Key: editKey, Text: text})
			return
		}
	}
	v.processEscape(gtx, editKey)
}

func (v *TreeView) processEscape(gtx layout.Context, editKey string) {
	for {
		ev, ok := gtx.Event(key.Filter{Focus: &v.editor, Name: key.NameEscape})
		if !ok {
			break
		}
		if e, ok := ev.(key.Event); ok && e.State == key.Press {
			v.emit(UIEvent{Action: ActionCancelRename, Key: editKey})
			return
		}
	}
}

func (v *TreeView) layoutRow(gtx layout.Context, rows []row, i, rowH int) layout.Dimensions {
	r := rows[i]
	e := r.e
	t := v.touch(e.key)

	shadow := func(gtx layout.Context) layout.Dimensions {
		if v.dragKey != e.key {
			return layout.Dimensions{}
		}
		return v.layoutShadow(gtx, e)
	}

	dims, click, release := t.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return v.layoutRowContent(gtx, r, t.Hovered())
	}, shadow)

	if click != nil {
		gtx.Execute(key.FocusCmd{Tag: &v.keyTag})
		v.focused = e.key
		if click.NumClicks >= 2 {
			v.emit(UIEvent{Action: ActionDoubleClick, Key: e.key})
		} else {
			if e.isFolder {
				e.expanded = !e.expanded
			}
			v.emit(UIEvent{Action: ActionClick, Key: e.key})
		}
	}

	if t.Dragging() && v.dragKey == "" && (v.CanDrag == nil || v.CanDrag(e.key)) {
		v.dragKey = e.key
		debug.Log(debug.UI, "treeview: drag start %s", e.key)
	}
	if v.dragKey == e.key && t.Dragging() {
		v.hoverKey, v.hoverMode = "", 0
		if target, mode, ok := hitTest(rows, rowH, float32(i*rowH)+t.Point().Y, v.allowed); ok && target != e {
			v.hoverKey, v.hoverMode = target.key, mode
		}
		gtx.Execute(op.InvalidateCmd{})
	}

	if release != nil && v.dragKey == e.key {
		target, mode, ok := hitTest(rows, rowH, float32(i*rowH)+release.Position.Y, v.allowed)
		if ok && target != e {
			v.emit(UIEvent{Action: ActionDrop, Key: e.key, DestKey: target.key, Mode: mode})
		}
		v.dragKey, v.hoverKey, v.hoverMode = "", "", 0
	}
	return dims
}

func (v *TreeView) layoutRowContent(gtx layout.Context, r row, hovered bool) layout.Dimensions {
	e := r.e
	size := gtx.Constraints.Min

	// Priority: drop target > selected > hover
	var bg color.NRGBA
	switch {
	case v.hoverKey == e.key && v.hoverMode == tree.Over:
		bg = colDropTarget
	case v.focused == e.key || v.editing == e.key:
		bg = colSelected
	case hovered && v.dragKey == "":
		bg = colHover
	}
	if bg.A > 0 {
		paint.FillShape(gtx.Ops, bg, clip.Rect{Max: size}.Op())
	}
	if v.hoverKey == e.key && v.hoverMode != tree.Over {
		line := gtx.Dp(unit.Dp(2))
		rect := image.Rect(0, 0, size.X, line)
		if v.hoverMode == tree.After {
			rect = image.Rect(0, size.Y-line, size.X, size.Y)
		}
		paint.FillShape(gtx.Ops, colDropLine, clip.Rect(rect).Op())
	}

	textColor, weight := colText, font.Normal
	if e.isFolder {
		textColor, weight = colDirBlue, font.Bold
	}
	if v.IsPending != nil && v.IsPending(e.key) {
		textColor = colPending
	}

	indent := unit.Dp(float32(r.depth * indentDp))
	return layout.Inset{Left: unit.Dp(8), Right: unit.Dp(12)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{Axis: layout.Horizontal, Alignment: layout.Middle}.Layout(gtx,
			layout.Rigid(layout.Spacer{Width: indent}.Layout),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				gtx.Constraints.Min.X = gtx.Dp(unit.Dp(16))
				glyph := ""
				if e.isFolder {
					glyph = "▸"
					if e.expanded {
						glyph = "▾"
					}
				}
				lbl := material.Body2(v.Theme, glyph)
				lbl.Color = colGray
				return lbl.Layout(gtx)
			}),
			layout.Rigid(layout.Spacer{Width: unit.Dp(4)}.Layout),
			layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
				if v.editing == e.key {
					return v.layoutEditor(gtx, textColor, weight)
				}
				lbl := material.Body1(v.Theme, e.name)
				lbl.Color, lbl.Font.Weight, lbl.MaxLines = textColor, weight, 1
				return lbl.Layout(gtx)
			}),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				if e.isFolder {
					return layout.Dimensions{}
				}
				lbl := material.Body2(v.Theme, humanize.Bytes(uint64(e.size)))
				lbl.Color, lbl.Alignment, lbl.MaxLines = colGray, text.End, 1
				return lbl.Layout(gtx)
			}),
		)
	})
}

func (v *TreeView) layoutEditor(gtx layout.Context, textColor color.NRGBA, weight font.Weight) layout.Dimensions {
	if v.grabbed {
		gtx.Execute(key.FocusCmd{Tag: &v.editor})
		v.grabbed = false
	}
	ed := material.Editor(v.Theme, &v.editor, "")
	ed.TextSize = unit.Sp(14)
	ed.Color = textColor
	ed.Font.Weight = weight
	return widget.Border{Color: colAccent, Width: unit.Dp(1)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Inset{Left: unit.Dp(4), Right: unit.Dp(4)}.Layout(gtx, ed.Layout)
	})
}

func (v *TreeView) layoutShadow(gtx layout.Context, e *entry) layout.Dimensions {
	h := gtx.Dp(unit.Dp(rowHeightDp))
	rr := clip.RRect{
		Rect: image.Rect(0, 0, gtx.Constraints.Max.X, h),
		NE:   gtx.Dp(4), NW: gtx.Dp(4), SE: gtx.Dp(4), SW: gtx.Dp(4),
	}
	paint.FillShape(gtx.Ops, colDragShadow, rr.Op(gtx.Ops))
	return layout.Inset{Top: unit.Dp(4), Left: unit.Dp(12)}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		lbl := material.Body2(v.Theme, e.name)
		lbl.Color, lbl.MaxLines = colText, 1
		return lbl.Layout(gtx)
	})
}
