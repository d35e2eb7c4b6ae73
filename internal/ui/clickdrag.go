package ui

import (
	"image"

	"gioui.org/f32"
	"gioui.org/gesture"
	"gioui.org/io/event"
	"gioui.org/io/key"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
)

// ClickAndDraggable handles click and drag gestures on the same area.
//
// gesture.Drag only activates after a 3dp movement threshold, so click
// events are processed first and a drag is reported only once the pointer
// moved.
type ClickAndDraggable struct {
	click gesture.Click
	drag  gesture.Drag

	clickPos f32.Point // press position, widget-relative
	dragPos  f32.Point // offset from clickPos

	pid         pointer.ID
	dragStarted bool
}

// Dragging reports whether a drag past the threshold is in progress.
func (c *ClickAndDraggable) Dragging() bool {
	return c.drag.Dragging() && c.dragStarted
}

// Hovered reports whether a pointer is inside the area.
func (c *ClickAndDraggable) Hovered() bool {
	return c.click.Hovered()
}

// Point returns the current pointer position relative to the widget.
func (c *ClickAndDraggable) Point() f32.Point {
	return c.clickPos.Add(c.dragPos)
}

// ClickEvent represents a click event with position and modifier information
type ClickEvent struct {
	Position  image.Point
	Modifiers key.Modifiers
	NumClicks int
}

// ReleaseEvent ends a drag. Position is widget-relative and may lie far
// outside the widget.
type ReleaseEvent struct {
	Position f32.Point
}

// Layout renders w and handles click/drag interactions. While a drag is in
// progress the shadow widget is drawn at the pointer.
func (c *ClickAndDraggable) Layout(gtx layout.Context, w, shadow layout.Widget) (layout.Dimensions, *ClickEvent, *ReleaseEvent) {
	if !gtx.Enabled() {
		return w(gtx), nil, nil
	}

	var (
		clickEvent   *ClickEvent
		releaseEvent *ReleaseEvent
	)

	// Events are delivered for the hit area registered last frame.
	for {
		e, ok := c.click.Update(gtx.Source)
		if !ok {
			break
		}
		switch e.Kind {
		case gesture.KindClick:
			if !c.dragStarted {
				clickEvent = &ClickEvent{
					Position:  e.Position,
					Modifiers: e.Modifiers,
					NumClicks: e.NumClicks,
				}
			}
		case gesture.KindCancel:
			c.dragStarted = false
		}
	}

	for {
		e, ok := c.drag.Update(gtx.Metric, gtx.Source, gesture.Both)
		if !ok {
			break
		}
		switch e.Kind {
		case pointer.Press:
			c.clickPos = e.Position
			c.dragPos = f32.Point{}
			c.pid = e.PointerID
			c.dragStarted = false
		case pointer.Drag:
			if e.PointerID == c.pid {
				c.dragStarted = true
				c.dragPos = e.Position.Sub(c.clickPos)
			}
		case pointer.Release:
			if c.dragStarted && e.PointerID == c.pid {
				releaseEvent = &ReleaseEvent{Position: e.Position}
			}
			c.dragStarted = false
		case pointer.Cancel:
			c.dragStarted = false
		}
	}

	dims := w(gtx)

	defer clip.Rect{Max: dims.Size}.Push(gtx.Ops).Pop()
	c.click.Add(gtx.Ops)
	c.drag.Add(gtx.Ops)
	event.Op(gtx.Ops, c)

	if shadow != nil && c.drag.Pressed() && c.dragStarted {
		rec := op.Record(gtx.Ops)
		op.Offset(c.dragPos.Round()).Add(gtx.Ops)
		shadow(gtx)
		op.Defer(gtx.Ops, rec.Stop())
	}

	return dims, clickEvent, releaseEvent
}
