package epd2in13

import (
	"image"
	"image/color"
)

const (
	// Device width in pixels.
	DisplayWidth = 122
	// Device width in bytes. The last 6 bits of each row are padding.
	DisplayWidthBytes = (DisplayWidth + 7) / 8
	// Device height in pixels.
	DisplayHeight = 250
	// Full buffer size in bytes.
	BufSize = DisplayWidthBytes * DisplayHeight
)

// Rotation orients the logical drawing surface on the physical panel.
type Rotation int

const (
	Rotate0 Rotation = iota
	Rotate90
	Rotate180
	Rotate270
)

var palette = color.Palette{color.White, color.Black}

// Image is the panel framebuffer: a bit per pixel, MSB first, 1 is white.
// At Rotate90/Rotate270 the logical bounds are 250x122 and coordinates are
// mapped onto the portrait panel at write time.
type Image struct {
	// Pix is laid out in physical panel order, row-major.
	Pix []byte
	rot Rotation
}

// NewImage returns an all-white framebuffer with the given orientation.
func NewImage(rot Rotation) *Image {
	img := &Image{Pix: make([]byte, BufSize), rot: rot}
	img.Clear()
	return img
}

// Clear repaints the framebuffer white.
func (i *Image) Clear() {
	for p := range i.Pix {
		i.Pix[p] = 0xFF
	}
}

// Rotation reports the logical orientation.
func (i *Image) Rotation() Rotation { return i.rot }

func (i *Image) ColorModel() color.Model { return color.Palette(palette) }

func (i *Image) Bounds() image.Rectangle {
	if i.rot == Rotate90 || i.rot == Rotate270 {
		return image.Rect(0, 0, DisplayHeight, DisplayWidth)
	}
	return image.Rect(0, 0, DisplayWidth, DisplayHeight)
}

// physical maps a logical point to panel coordinates.
func (i *Image) physical(x, y int) (int, int) {
	switch i.rot {
	case Rotate90:
		return DisplayWidth - 1 - y, x
	case Rotate180:
		return DisplayWidth - 1 - x, DisplayHeight - 1 - y
	case Rotate270:
		return y, DisplayHeight - 1 - x
	}
	return x, y
}

// Set writes one pixel. Points outside the bounds are clipped, never an
// error: the rasterizer draws through this without bounds bookkeeping.
func (i *Image) Set(x, y int, c color.Color) {
	if !(image.Point{x, y}.In(i.Bounds())) {
		return
	}
	px, py := i.physical(x, y)
	idx := px/8 + py*DisplayWidthBytes
	bit := byte(0x80 >> (uint(px) % 8))
	if palette.Index(c) == 1 {
		i.Pix[idx] &^= bit
	} else {
		i.Pix[idx] |= bit
	}
}

func (i *Image) At(x, y int) color.Color {
	if !(image.Point{x, y}.In(i.Bounds())) {
		return color.White
	}
	px, py := i.physical(x, y)
	idx := px/8 + py*DisplayWidthBytes
	bit := byte(0x80 >> (uint(px) % 8))
	if i.Pix[idx]&bit == 0 {
		return color.Black
	}
	return color.White
}
