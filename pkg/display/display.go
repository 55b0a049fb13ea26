// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package display ties a display model, its frame buffer and orientation to
// the target that shows frames, either a wired panel or a remote controller.
package display

import (
	"fmt"

	"github.com/Thermoquad/inkling/pkg/epd"
)

// Target shows rendered frames.
type Target interface {
	Push(g *epd.Grid) error
	Clear() error
	Close() error
	String() string
}

// Display is one e-paper panel and its frame buffer.
type Display struct {
	*epd.FrameBuffer

	model  epd.DisplayModel
	color  epd.ColorMode
	hFlip  bool
	vFlip  bool
	border int
	target Target
}

// Options select how frames are oriented.
type Options struct {
	Color epd.ColorMode
	HFlip bool
	VFlip bool
}

// New looks up model and prepares an empty frame buffer for it.
func New(model string, target Target, opts Options) (*Display, error) {
	m, err := epd.LookupModel(model)
	if err != nil {
		return nil, err
	}
	color := opts.Color
	if color == "" {
		color = epd.ModeBlack
	}
	if _, err := epd.ParseColorMode(string(color)); err != nil {
		return nil, err
	}
	return &Display{
		FrameBuffer: epd.NewFrameBuffer(m),
		model:       m,
		color:       color,
		hFlip:       opts.HFlip,
		vFlip:       opts.VFlip,
		target:      target,
	}, nil
}

func (d *Display) String() string {
	return fmt.Sprintf("%s on %s", d.model, d.target)
}

// Model returns the display model.
func (d *Display) Model() epd.DisplayModel {
	return d.model
}

// Color returns the configured color mode.
func (d *Display) Color() epd.ColorMode {
	return d.color
}

// Palette returns the model's palette.
func (d *Display) Palette() epd.Palette {
	return d.model.Palette
}

// SetBorder records the border color index and hands it to targets that
// can paint a border. Out-of-palette values are ignored.
func (d *Display) SetBorder(c int) {
	if c < 0 || c >= d.PaletteSize() {
		return
	}
	d.border = c
	if b, ok := d.target.(interface{ SetBorder(int) }); ok {
		b.SetBorder(c)
	}
}

// Border returns the border color index.
func (d *Display) Border() int {
	return d.border
}

// Render returns the frame as it will be sent, orientation applied.
func (d *Display) Render() *epd.Grid {
	return d.FrameBuffer.Render(d.hFlip, d.vFlip)
}

// Show pushes the current frame to the target.
func (d *Display) Show() error {
	return d.target.Push(d.Render())
}

// Clear blanks the panel. The frame buffer is left untouched.
func (d *Display) Clear() error {
	return d.target.Clear()
}

// Close releases the target.
func (d *Display) Close() error {
	return d.target.Close()
}
