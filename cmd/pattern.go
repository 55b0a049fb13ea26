// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"image"
	"image/png"
	"os"

	"github.com/Thermoquad/inkling/pkg/display"
	"github.com/Thermoquad/inkling/pkg/epd"
	"github.com/fogleman/gg"
	"github.com/spf13/cobra"
)

var (
	patternAll     bool
	patternPreview string
)

var patternCmd = &cobra.Command{
	Use:   "pattern",
	Short: "Show a test pattern",
	Long: `Render the test pattern, an ink square and an accent rectangle on a
ground background, and push it. Panels without an accent color draw the
rectangle in ink.

With --preview the frame is written to a PNG file as it would be sent,
orientation applied, and nothing is pushed.`,
	Args: cobra.NoArgs,
	RunE: runPattern,
}

func init() {
	rootCmd.AddCommand(patternCmd)
	patternCmd.Flags().BoolVar(&patternAll, "all", false, "Push to every configured display")
	patternCmd.Flags().StringVar(&patternPreview, "preview", "", "Write the frame to this PNG instead of pushing")
	patternCmd.Flags().DurationVar(&showTimeout, "timeout", 0, "Give up on a transfer after this long (overrides config)")
}

// renderPattern draws the test pattern at the model's resolution.
func renderPattern(m epd.DisplayModel) image.Image {
	accent := epd.Black
	if len(m.Palette) > 2 {
		accent = m.Palette[2]
	}

	dc := gg.NewContext(m.Width, m.Height)
	dc.SetColor(epd.White.RGBA())
	dc.Clear()

	dc.SetColor(epd.Black.RGBA())
	dc.DrawRectangle(100, 100, 100, 100)
	dc.Fill()

	dc.SetColor(accent.RGBA())
	dc.DrawRectangle(350, 150, 100, 200)
	dc.Fill()

	return dc.Image()
}

func drawPattern(d *display.Display) error {
	if err := d.SetImage(epd.FromImage(renderPattern(d.Model()), d.Model())); err != nil {
		return err
	}
	return d.Show()
}

func writePreview(path string, d *display.Display) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, epd.ToImage(d.Render(), d.Palette())); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func runPattern(cmd *cobra.Command, _ []string) error {
	if patternPreview != "" {
		dc, err := selectedDisplay(cmd)
		if err != nil {
			return err
		}
		d, err := display.New(dc.Model, nil, display.Options{
			Color: epd.ColorMode(dc.Color),
			HFlip: dc.HFlip,
			VFlip: dc.VFlip,
		})
		if err != nil {
			return err
		}
		if err := d.SetImage(epd.FromImage(renderPattern(d.Model()), d.Model())); err != nil {
			return err
		}
		return writePreview(patternPreview, d)
	}

	displays, err := selectDisplays(cmd, patternAll)
	if err != nil {
		return err
	}
	applyTimeout(cmd, displays)
	return pushAll(cmd, displays, drawPattern)
}
