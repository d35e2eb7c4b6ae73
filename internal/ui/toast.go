package ui

import (
	"image"
	"image/color"
	"time"

	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget/material"
)

// ToastKind selects the toast colours.
type ToastKind int

const (
	ToastInfo ToastKind = iota
	ToastError
)

// toastDuration is how long toasts are displayed
const toastDuration = 4 * time.Second

// Toast is a message shown over the bottom of the tree until it expires.
// It is not safe for concurrent use.
type Toast struct {
	message   string
	kind      ToastKind
	expiresAt time.Time

	now func() time.Time
}

// Show replaces the current message.
func (t *Toast) Show(message string, kind ToastKind) {
	t.message, t.kind = message, kind
	t.expiresAt = t.clock().Add(toastDuration)
}

// Hide drops the current message.
func (t *Toast) Hide() { t.message = "" }

// Message returns the message on screen, or "" once it expired.
func (t *Toast) Message() string {
	if t.message != "" && t.clock().After(t.expiresAt) {
		t.message = ""
	}
	return t.message
}

func (t *Toast) clock() time.Time {
	if t.now != nil {
		return t.now()
	}
	return time.Now()
}

func (t *Toast) colors() (bg, fg color.NRGBA) {
	if t.kind == ToastError {
		return color.NRGBA{R: 200, G: 50, B: 50, A: 240}, color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	}
	return color.NRGBA{R: 60, G: 60, B: 60, A: 240}, color.NRGBA{R: 255, G: 255, B: 255, A: 255}
}

// Layout draws the toast at the bottom centre of the constraints.
func (t *Toast) Layout(gtx layout.Context, th *material.Theme) layout.Dimensions {
	message := t.Message()
	if message == "" {
		return layout.Dimensions{}
	}
	// redraw once more when it expires
	gtx.Execute(op.InvalidateCmd{At: t.expiresAt})

	bgColor, textColor := t.colors()
	return layout.S.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.UniformInset(unit.Dp(12)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
			return layout.Center.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				gtx.Constraints.Max.X = min(gtx.Constraints.Max.X, gtx.Dp(unit.Dp(420)))

				// Measure text first
				macro := op.Record(gtx.Ops)
				textDims := layout.Inset{
					Top: unit.Dp(8), Bottom: unit.Dp(8),
					Left: unit.Dp(12), Right: unit.Dp(12),
				}.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
					label := material.Body2(th, message)
					label.Color = textColor
					label.MaxLines = 3
					return label.Layout(gtx)
				})
				call := macro.Stop()

				rr := gtx.Dp(unit.Dp(6))
				paint.FillShape(gtx.Ops, bgColor, clip.RRect{
					Rect: image.Rectangle{Max: textDims.Size},
					NE:   rr, NW: rr, SE: rr, SW: rr,
				}.Op(gtx.Ops))
				call.Add(gtx.Ops)
				return textDims
			})
		})
	})
}
