package ui

import "image/color"

// Theme colors - these are variables so they can be swapped for dark mode
var (
	colBackground = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	colText       = color.NRGBA{R: 0, G: 0, B: 0, A: 255}
	colGray       = color.NRGBA{R: 100, G: 100, B: 100, A: 255}
	colLightGray  = color.NRGBA{R: 200, G: 200, B: 200, A: 255}
	colDirBlue    = color.NRGBA{R: 0, G: 0, B: 128, A: 255}
	colSelected   = color.NRGBA{R: 200, G: 220, B: 255, A: 255}
	colHover      = color.NRGBA{R: 235, G: 240, B: 250, A: 255}
	colDropTarget = color.NRGBA{R: 180, G: 230, B: 190, A: 255}
	colDropLine   = color.NRGBA{R: 40, G: 167, B: 69, A: 255}
	colPending    = color.NRGBA{R: 150, G: 150, B: 150, A: 255}
	colAccent     = color.NRGBA{R: 66, G: 133, B: 244, A: 255}
	colDragShadow = color.NRGBA{R: 200, G: 220, B: 255, A: 200}
)

type palette struct {
	background, text, gray, lightGray, dirBlue color.NRGBA
	selected, hover, dropTarget, dropLine       color.NRGBA
	pending, accent, dragShadow                 color.NRGBA
}

var lightPalette = palette{
	background: colBackground, text: colText, gray: colGray, lightGray: colLightGray,
	dirBlue: colDirBlue, selected: colSelected, hover: colHover, dropTarget: colDropTarget,
	dropLine: colDropLine, pending: colPending, accent: colAccent, dragShadow: colDragShadow,
}

var darkPalette = palette{
	background: color.NRGBA{R: 30, G: 30, B: 30, A: 255},
	text:       color.NRGBA{R: 230, G: 230, B: 230, A: 255},
	gray:       color.NRGBA{R: 160, G: 160, B: 160, A: 255},
	lightGray:  color.NRGBA{R: 80, G: 80, B: 80, A: 255},
	dirBlue:    color.NRGBA{R: 130, G: 170, B: 255, A: 255},
	selected:   color.NRGBA{R: 45, G: 70, B: 110, A: 255},
	hover:      color.NRGBA{R: 50, G: 50, B: 55, A: 255},
	dropTarget: color.NRGBA{R: 40, G: 90, B: 55, A: 255},
	dropLine:   color.NRGBA{R: 90, G: 200, B: 120, A: 255},
	pending:    color.NRGBA{R: 110, G: 110, B: 110, A: 255},
	accent:     color.NRGBA{R: 100, G: 160, B: 255, A: 255},
	dragShadow: color.NRGBA{R: 45, G: 70, B: 110, A: 200},
}

// applyPalette swaps the package colors.
func applyPalette(dark bool) {
	p := lightPalette
	if dark {
		p = darkPalette
	}
	colBackground, colText, colGray, colLightGray = p.background, p.text, p.gray, p.lightGray
	colDirBlue, colSelected, colHover = p.dirBlue, p.selected, p.hover
	colDropTarget, colDropLine, colPending = p.dropTarget, p.dropLine, p.pending
	colAccent, colDragShadow = p.accent, p.dragShadow
}
