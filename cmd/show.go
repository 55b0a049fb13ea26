// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"time"

	"github.com/Thermoquad/inkling/internal/config"
	"github.com/Thermoquad/inkling/pkg/display"
	"github.com/Thermoquad/inkling/pkg/epd"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	_ "golang.org/x/image/bmp"
	"golang.org/x/sync/errgroup"
)

var (
	showAll     bool
	showTUI     bool
	showTimeout time.Duration
)

var showCmd = &cobra.Command{
	Use:   "show <image>",
	Short: "Show an image on one or more displays",
	Long: `Decode an image (PNG, JPEG, GIF or BMP), scale it to the display
resolution, map it onto the display palette and push it.

Examples:
  # Push to the first configured display
  inkling show photo.png

  # Push to every configured display in parallel
  inkling show --all photo.png

  # Ad-hoc target with a progress view
  inkling show --model epd2in7b --color red --address 00:11:22:33:44:55 --tui photo.png

Exit codes:
  0 - Frame delivered
  1 - Transfer failed or timed out
  2 - Connection error`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().BoolVar(&showAll, "all", false, "Push to every configured display")
	showCmd.Flags().BoolVar(&showTUI, "tui", false, "Show transfer progress")
	showCmd.Flags().DurationVar(&showTimeout, "timeout", 0, "Give up on a transfer after this long (overrides config)")
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	log.Debug().
		Str("path", path).
		Str("format", format).
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Msg("image loaded")
	return img, nil
}

// applyTimeout lets --timeout override the configured transfer timeout.
func applyTimeout(cmd *cobra.Command, displays []config.DisplayConfig) {
	if !cmd.Flags().Changed("timeout") {
		return
	}
	for i := range displays {
		displays[i].Timeout = showTimeout.String()
	}
}

// showImage returns a push function drawing img on a display.
func showImage(img image.Image) func(*display.Display) error {
	return func(d *display.Display) error {
		if err := d.SetImage(epd.FromImage(img, d.Model())); err != nil {
			return err
		}
		return d.Show()
	}
}

func runShow(cmd *cobra.Command, args []string) error {
	img, err := loadImage(args[0])
	if err != nil {
		return err
	}
	displays, err := selectDisplays(cmd, showAll)
	if err != nil {
		return err
	}
	applyTimeout(cmd, displays)

	if showTUI && len(displays) == 1 {
		return runWithProgress(cmd.Context(), displays[0], showImage(img))
	}
	return pushAll(cmd, displays, showImage(img))
}

// pushAll pushes to every display in parallel and returns the most severe
// failure.
func pushAll(cmd *cobra.Command, displays []config.DisplayConfig, fn func(*display.Display) error) error {
	errs := make([]error, len(displays))
	var g errgroup.Group
	for i, d := range displays {
		i, d := i, d
		g.Go(func() error {
			errs[i] = pushTo(cmd.Context(), d, nil, fn)
			return nil
		})
	}
	_ = g.Wait()

	var worst error
	for _, err := range errs {
		if err == nil {
			continue
		}
		if worst == nil || ExitCode(err) > ExitCode(worst) {
			worst = err
		}
	}
	if worst != nil && len(displays) > 1 {
		return fmt.Errorf("%w (%d of %d displays failed)", worst, countErrors(errs), len(displays))
	}
	return worst
}

func countErrors(errs []error) int {
	n := 0
	for _, err := range errs {
		if err != nil {
			n++
		}
	}
	return n
}
