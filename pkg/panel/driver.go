// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package panel drives e-paper panels wired directly to the host.
package panel

import (
	"fmt"

	"github.com/Thermoquad/inkling/pkg/epd"
	"github.com/rs/zerolog/log"
)

// Driver is a panel controller on the local bus.
type Driver interface {
	// Init resets the controller and powers it up.
	Init() error
	// Display uploads one plane per palette layer and refreshes the panel.
	Display(planes ...[]byte) error
	// ReadBusy blocks until the controller is idle.
	ReadBusy() error
	// Sleep puts the controller into deep sleep.
	Sleep() error
	// Clear sets the panel to the ground color.
	Clear() error
}

// Target shows frames on a wired panel.
type Target struct {
	drv   Driver
	model epd.DisplayModel

	// BusyWait makes Push wait for the refresh to finish and put the
	// controller to sleep afterwards.
	BusyWait bool
}

// NewTarget binds a driver to the model it controls.
func NewTarget(drv Driver, m epd.DisplayModel) *Target {
	return &Target{drv: drv, model: m, BusyWait: true}
}

func (t *Target) String() string {
	return fmt.Sprintf("wired %s", t.model.Key)
}

func (t *Target) setup() error {
	if err := t.drv.Init(); err != nil {
		return fmt.Errorf("panel init: %w", err)
	}
	return t.drv.ReadBusy()
}

// Push encodes g into bit planes and displays it.
func (t *Target) Push(g *epd.Grid) error {
	if err := t.setup(); err != nil {
		return err
	}

	planes := epd.PackPlanes(g, len(t.model.Palette))
	log.Debug().Str("model", t.model.Key).Int("planes", len(planes)).Msg("display")
	if err := t.drv.Display(planes...); err != nil {
		return fmt.Errorf("panel display: %w", err)
	}

	if !t.BusyWait {
		return nil
	}
	if err := t.drv.ReadBusy(); err != nil {
		return err
	}
	return t.drv.Sleep()
}

// Clear blanks the panel using the controller's own clear.
func (t *Target) Clear() error {
	if err := t.setup(); err != nil {
		return err
	}
	return t.drv.Clear()
}

// SetBorder selects the border color by palette index when the driver
// supports it. It takes effect on the next Push or Clear.
func (t *Target) SetBorder(c int) {
	if b, ok := t.drv.(interface{ SetBorder(byte) }); ok {
		b.SetBorder(BorderByte(c))
	}
}

// Close puts the controller to sleep.
func (t *Target) Close() error {
	return t.drv.Sleep()
}
