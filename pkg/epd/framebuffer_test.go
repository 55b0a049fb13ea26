// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package epd

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func smallModel(w, h int, p Palette) DisplayModel {
	return DisplayModel{Key: "test", Name: "test", Width: w, Height: h, Palette: p}
}

func TestFrameBuffer_DefaultsToGround(t *testing.T) {
	fb := NewFrameBuffer(smallModel(3, 2, PaletteBWR))
	g := fb.Render(false, false)
	assert.Equal(t, []uint8{0, 0, 0, 0, 0, 0}, g.Pix)
	assert.Equal(t, 3, fb.PaletteSize())
}

func TestFrameBuffer_SetPixel(t *testing.T) {
	fb := NewFrameBuffer(smallModel(3, 2, PaletteBWR))

	require.NoError(t, fb.SetPixel(2, 1, 1))
	v, err := fb.Pixel(2, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	t.Run("out of palette is a no-op", func(t *testing.T) {
		require.NoError(t, fb.SetPixel(2, 1, 3))
		require.NoError(t, fb.SetPixel(2, 1, -1))
		v, _ := fb.Pixel(2, 1)
		assert.Equal(t, 1, v)
	})

	t.Run("out of bounds", func(t *testing.T) {
		before := fb.Render(false, false)
		err := fb.SetPixel(3, 0, 1)
		assert.True(t, errors.Is(err, ErrOutOfBounds))
		err = fb.SetPixel(0, -1, 1)
		assert.ErrorIs(t, err, ErrOutOfBounds)
		assert.Equal(t, before, fb.Render(false, false))
	})
}

func TestFrameBuffer_SetImage(t *testing.T) {
	fb := NewFrameBuffer(smallModel(3, 2, PaletteBWR))

	require.NoError(t, fb.SetImage([]uint8{0, 1, 2, 2, 1, 0}))
	assert.Equal(t, []uint8{0, 1, 2, 2, 1, 0}, fb.Render(false, false).Pix)

	t.Run("invalid entries keep previous value", func(t *testing.T) {
		require.NoError(t, fb.SetImage([]uint8{9, 0, 9, 0, 9, 1}))
		assert.Equal(t, []uint8{0, 0, 2, 0, 1, 1}, fb.Render(false, false).Pix)
	})

	t.Run("wrong shape", func(t *testing.T) {
		err := fb.SetImage(make([]uint8, 5))
		var shapeErr *ShapeError
		require.ErrorAs(t, err, &shapeErr)
		assert.Equal(t, 6, shapeErr.Want)
		assert.Equal(t, 5, shapeErr.Got)
	})
}

func TestFrameBuffer_Fill(t *testing.T) {
	fb := NewFrameBuffer(smallModel(2, 2, PaletteBW))
	fb.Fill(1)
	assert.Equal(t, []uint8{1, 1, 1, 1}, fb.Render(false, false).Pix)
	fb.Fill(2)
	assert.Equal(t, []uint8{1, 1, 1, 1}, fb.Render(false, false).Pix)
}

func TestFrameBuffer_Render(t *testing.T) {
	fb := NewFrameBuffer(smallModel(3, 2, PaletteBWR))
	require.NoError(t, fb.SetImage([]uint8{0, 1, 2, 1, 2, 0}))

	tests := []struct {
		name         string
		hFlip, vFlip bool
		want         []uint8
	}{
		{"identity", false, false, []uint8{0, 1, 2, 1, 2, 0}},
		{"horizontal", true, false, []uint8{2, 1, 0, 0, 2, 1}},
		{"vertical", false, true, []uint8{1, 2, 0, 0, 1, 2}},
		{"both", true, true, []uint8{0, 2, 1, 2, 1, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := fb.Render(tt.hFlip, tt.vFlip)
			assert.Equal(t, tt.want, g.Pix)
		})
	}

	assert.Equal(t, []uint8{0, 1, 2, 1, 2, 0}, fb.Render(false, false).Pix, "source must be untouched")
}

func TestFrameBuffer_RenderInvolution(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		w := rapid.IntRange(1, 16).Draw(t, "w")
		h := rapid.IntRange(1, 16).Draw(t, "h")
		pix := rapid.SliceOfN(rapid.Uint8Range(0, 2), w*h, w*h).Draw(t, "pix")
		hFlip := rapid.Bool().Draw(t, "hFlip")
		vFlip := rapid.Bool().Draw(t, "vFlip")

		fb := NewFrameBuffer(smallModel(w, h, PaletteBWR))
		if err := fb.SetImage(pix); err != nil {
			t.Fatal(err)
		}
		once := NewFrameBuffer(smallModel(w, h, PaletteBWR))
		if err := once.SetImage(fb.Render(hFlip, vFlip).Pix); err != nil {
			t.Fatal(err)
		}
		twice := once.Render(hFlip, vFlip)
		if !assert.ObjectsAreEqual(pix, twice.Pix) {
			t.Fatalf("double flip is not identity: %v != %v", pix, twice.Pix)
		}
	})
}
