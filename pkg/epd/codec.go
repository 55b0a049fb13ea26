// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package epd

// Palette indices with a fixed meaning in both codecs.
const (
	IndexGround = 0
	IndexInk    = 1
)

// Pack2bpp encodes a grid for the wireless link.
//
// Each pixel yields two bits, low then high:
//
//	low  = 0 if v == 1 else 1
//	high = 1 if v > 1 else 0
//
// so 0 -> (1,0), 1 -> (0,0) and every index from 2 up -> (1,1). Palettes with
// more than three colors lose information; the remote only knows three.
// Bits are packed LSB-first, four pixels per byte, row-major. A partial last
// byte is zero-padded.
func Pack2bpp(g *Grid) []byte {
	out := make([]byte, (len(g.Pix)*2+7)/8)
	for i, v := range g.Pix {
		low, high := pixelBits(v)
		bit := uint(i*2) % 8
		out[i/4] |= low<<bit | high<<(bit+1)
	}
	return out
}

func pixelBits(v uint8) (low, high byte) {
	if v != IndexInk {
		low = 1
	}
	if v > IndexInk {
		high = 1
	}
	return low, high
}

// Unpack2bpp decodes a wireless frame back to palette indices. The accent
// code and the unused (0,1) code both map to index 2.
func Unpack2bpp(data []byte, width, height int) *Grid {
	g := NewGrid(width, height)
	for i := range g.Pix {
		if i/4 >= len(data) {
			break
		}
		code := data[i/4] >> (uint(i*2) % 8) & 0x3
		switch code {
		case 0b01:
			g.Pix[i] = IndexGround
		case 0b00:
			g.Pix[i] = IndexInk
		default:
			g.Pix[i] = 2
		}
	}
	return g
}

// PackPlanes encodes a grid for a wired controller: one 1bpp plane for
// ink versus ground and, when the palette has an accent color, a second
// plane marking accent pixels. A cleared bit means "draw". Bits are packed
// MSB-first over the flattened grid.
func PackPlanes(g *Grid, paletteSize int) [][]byte {
	n := (len(g.Pix) + 7) / 8
	ink := make([]byte, n)
	planes := [][]byte{ink}

	var accent []byte
	if paletteSize > 2 {
		accent = make([]byte, n)
		planes = append(planes, accent)
	}

	for i, v := range g.Pix {
		mask := byte(0x80 >> (i & 7))
		if v != IndexInk {
			ink[i>>3] |= mask
		}
		if accent != nil && v <= IndexInk {
			accent[i>>3] |= mask
		}
	}
	return planes
}
