// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package epd

import (
	"fmt"
	"image/color"
	"strings"
)

// Color is one of the inks an e-paper panel can show.
type Color int

// Supported colors
const (
	Black Color = iota
	White
	Red
	Green
	Blue
	Gray
	Yellow
	Orange
)

var colorNames = [...]string{
	Black:  "BLACK",
	White:  "WHITE",
	Red:    "RED",
	Green:  "GREEN",
	Blue:   "BLUE",
	Gray:   "GRAY",
	Yellow: "YELLOW",
	Orange: "ORANGE",
}

var colorRGB = [...]color.NRGBA{
	Black:  {0, 0, 0, 255},
	White:  {255, 255, 255, 255},
	Red:    {255, 0, 0, 255},
	Green:  {0, 255, 0, 255},
	Blue:   {0, 0, 255, 255},
	Gray:   {128, 128, 128, 255},
	Yellow: {255, 255, 0, 255},
	Orange: {255, 128, 0, 255},
}

func (c Color) String() string {
	if c < 0 || int(c) >= len(colorNames) {
		return fmt.Sprintf("Color(%d)", int(c))
	}
	return colorNames[c]
}

// RGBA returns the nominal screen color of the ink.
func (c Color) RGBA() color.NRGBA {
	if c < 0 || int(c) >= len(colorRGB) {
		return color.NRGBA{}
	}
	return colorRGB[c]
}

// Palette is the ordered list of inks of a display model. The frame buffer
// stores indices into it.
type Palette []Color

// Index returns the palette index of c, or -1 when the model cannot show it.
func (p Palette) Index(c Color) int {
	for i, pc := range p {
		if pc == c {
			return i
		}
	}
	return -1
}

// ColorPalette converts the palette for use with the image packages.
func (p Palette) ColorPalette() color.Palette {
	out := make(color.Palette, len(p))
	for i, c := range p {
		out[i] = c.RGBA()
	}
	return out
}

func (p Palette) String() string {
	names := make([]string, len(p))
	for i, c := range p {
		names[i] = c.String()
	}
	return strings.Join(names, ",")
}

// Palettes in the order the display catalog refers to them.
var (
	PaletteBW      = Palette{White, Black}
	PaletteBWR     = Palette{White, Black, Red}
	PaletteBWGray  = Palette{White, Black, Gray}
	PaletteBWGrayR = Palette{White, Black, Gray, Red}
	PaletteBWY     = Palette{White, Black, Yellow}
	Palette7Color  = Palette{White, Black, Green, Blue, Red, Yellow, Orange}
)

// ColorMode is the accent variant a panel was built with.
type ColorMode string

// Supported color modes
const (
	ModeBlack  ColorMode = "black"
	ModeRed    ColorMode = "red"
	ModeYellow ColorMode = "yellow"
	ModeMulti  ColorMode = "multi"
)

// ParseColorMode validates a color mode name.
func ParseColorMode(s string) (ColorMode, error) {
	switch m := ColorMode(strings.ToLower(s)); m {
	case ModeBlack, ModeRed, ModeYellow, ModeMulti:
		return m, nil
	}
	return "", &ConfigurationError{Field: "color", Value: s, Reason: "color mode is not supported"}
}
