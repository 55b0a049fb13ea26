// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package epd

import "fmt"

// Grid is a row-major block of palette indices.
type Grid struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewGrid allocates a zeroed grid.
func NewGrid(width, height int) *Grid {
	return &Grid{Width: width, Height: height, Pix: make([]uint8, width*height)}
}

// At returns the index stored at (x, y).
func (g *Grid) At(x, y int) uint8 {
	return g.Pix[y*g.Width+x]
}

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	c := &Grid{Width: g.Width, Height: g.Height, Pix: make([]uint8, len(g.Pix))}
	copy(c.Pix, g.Pix)
	return c
}

// FrameBuffer holds the image to be shown, as palette indices. Every stored
// value is a valid index: out-of-palette writes are dropped silently so that
// interactive drawing code can be sloppy about colors.
type FrameBuffer struct {
	grid        *Grid
	paletteSize int
}

// NewFrameBuffer returns a buffer for the model, filled with index 0.
func NewFrameBuffer(m DisplayModel) *FrameBuffer {
	return &FrameBuffer{
		grid:        NewGrid(m.Width, m.Height),
		paletteSize: len(m.Palette),
	}
}

// Width returns the buffer width in pixels.
func (f *FrameBuffer) Width() int { return f.grid.Width }

// Height returns the buffer height in pixels.
func (f *FrameBuffer) Height() int { return f.grid.Height }

// PaletteSize returns the number of valid color indices.
func (f *FrameBuffer) PaletteSize() int { return f.paletteSize }

func (f *FrameBuffer) valid(c int) bool {
	return c >= 0 && c < f.paletteSize
}

func (f *FrameBuffer) offset(x, y int) (int, error) {
	if x < 0 || y < 0 || x >= f.grid.Width || y >= f.grid.Height {
		return 0, fmt.Errorf("%w: (%d,%d) not in %dx%d", ErrOutOfBounds, x, y, f.grid.Width, f.grid.Height)
	}
	return y*f.grid.Width + x, nil
}

// SetPixel sets one pixel. A color index outside the palette is ignored.
func (f *FrameBuffer) SetPixel(x, y, c int) error {
	if !f.valid(c) {
		return nil
	}
	i, err := f.offset(x, y)
	if err != nil {
		return err
	}
	f.grid.Pix[i] = uint8(c)
	return nil
}

// Pixel returns the color index at (x, y).
func (f *FrameBuffer) Pixel(x, y int) (int, error) {
	i, err := f.offset(x, y)
	if err != nil {
		return 0, err
	}
	return int(f.grid.Pix[i]), nil
}

// Fill sets every pixel to c. Invalid indices are ignored.
func (f *FrameBuffer) Fill(c int) {
	if !f.valid(c) {
		return
	}
	for i := range f.grid.Pix {
		f.grid.Pix[i] = uint8(c)
	}
}

// SetImage replaces the whole buffer with width*height row-major indices.
// Entries outside the palette leave the previous pixel in place.
func (f *FrameBuffer) SetImage(data []uint8) error {
	if want := f.grid.Width * f.grid.Height; len(data) != want {
		return &ShapeError{Want: want, Got: len(data)}
	}
	for i, v := range data {
		if f.valid(int(v)) {
			f.grid.Pix[i] = v
		}
	}
	return nil
}

// Render returns a copy of the buffer with the requested reflections.
// hFlip mirrors left to right, vFlip mirrors top to bottom.
func (f *FrameBuffer) Render(hFlip, vFlip bool) *Grid {
	src := f.grid
	out := NewGrid(src.Width, src.Height)
	for y := 0; y < src.Height; y++ {
		sy := y
		if vFlip {
			sy = src.Height - 1 - y
		}
		row := src.Pix[sy*src.Width : (sy+1)*src.Width]
		dst := out.Pix[y*src.Width : (y+1)*src.Width]
		if !hFlip {
			copy(dst, row)
			continue
		}
		for x := range dst {
			dst[x] = row[src.Width-1-x]
		}
	}
	return out
}
