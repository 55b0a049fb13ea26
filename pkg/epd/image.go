// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package epd

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// FromImage scales src to the model resolution and maps every pixel to the
// nearest palette color. The result is ready for FrameBuffer.SetImage.
func FromImage(src image.Image, m DisplayModel) []uint8 {
	dst := image.NewPaletted(image.Rect(0, 0, m.Width, m.Height), m.Palette.ColorPalette())
	if src.Bounds().Dx() == m.Width && src.Bounds().Dy() == m.Height {
		draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	} else {
		rgba := image.NewNRGBA(dst.Bounds())
		draw.CatmullRom.Scale(rgba, rgba.Bounds(), src, src.Bounds(), draw.Src, nil)
		draw.Draw(dst, dst.Bounds(), rgba, image.Point{}, draw.Src)
	}

	out := make([]uint8, m.Width*m.Height)
	for y := 0; y < m.Height; y++ {
		copy(out[y*m.Width:(y+1)*m.Width], dst.Pix[y*dst.Stride:y*dst.Stride+m.Width])
	}
	return out
}

// ToImage renders a grid with the given palette, for previews and the
// emulator's output.
func ToImage(g *Grid, p Palette) *image.Paletted {
	pal := p.ColorPalette()
	if len(pal) == 0 {
		pal = color.Palette{color.White}
	}
	img := image.NewPaletted(image.Rect(0, 0, g.Width, g.Height), pal)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			v := g.At(x, y)
			if int(v) >= len(pal) {
				v = 0
			}
			img.Pix[y*img.Stride+x] = v
		}
	}
	return img
}
