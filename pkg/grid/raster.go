package grid

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Cell size of the built-in 7x13 face.
const (
	CellWidth  = 7
	CellHeight = 13
)

var (
	Background = color.RGBA{0x10, 0x14, 0x18, 0xff}
	Foreground = color.RGBA{0xd0, 0xe0, 0xd0, 0xff}
)

// Rasterize clears dst and draws cells onto it, cols per row. Zero cells are
// left blank.
func Rasterize(dst *image.RGBA, cells []rune, cols int) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(Foreground), Face: face}
	ascent := face.Metrics().Ascent
	for i, r := range cells {
		if r == 0 || r == ' ' {
			continue
		}
		x, y := GetGridCoords(i, cols)
		d.Dot = fixed.Point26_6{
			X: fixed.I(x * CellWidth),
			Y: fixed.I(y*CellHeight) + ascent,
		}
		d.DrawString(string(r))
	}
}
