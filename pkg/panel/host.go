// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package panel

import (
	"fmt"
	"time"

	"github.com/Thermoquad/inkling/pkg/epd"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// Wiring names the host resources a panel is connected to. Pin names are
// periph names such as "GPIO25".
type Wiring struct {
	SPI  string // "" selects the first SPI port
	DC   string
	CS   string
	RST  string
	Busy string
}

// HatWiring is the pinout of the Waveshare e-Paper HAT.
var HatWiring = Wiring{DC: "GPIO25", CS: "GPIO8", RST: "GPIO17", Busy: "GPIO24"}

// Open initializes the host drivers and connects to the panel for model m.
// The returned closer releases the SPI port.
func Open(w Wiring, m epd.DisplayModel) (*Dev, spi.PortCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("panel: periph host init failed: %w", err)
	}

	port, err := spireg.Open(w.SPI)
	if err != nil {
		return nil, nil, fmt.Errorf("panel: failed to open SPI port: %w", err)
	}

	pins := make([]gpio.PinIO, 4)
	for i, name := range []string{w.DC, w.CS, w.RST, w.Busy} {
		p := gpioreg.ByName(name)
		if p == nil {
			_ = port.Close()
			return nil, nil, fmt.Errorf("panel: gpio %q not found", name)
		}
		pins[i] = p
	}
	if err := pins[1].Out(gpio.High); err != nil {
		_ = port.Close()
		return nil, nil, fmt.Errorf("panel: cs pin: %w", err)
	}

	planes := 1
	if len(m.Palette) > 2 {
		planes = 2
	}
	dev, err := New(port, pins[0], pins[1], pins[2], pins[3], Opts{
		Width:       m.Width,
		Height:      m.Height,
		Planes:      planes,
		BusyLevel:   gpio.Low,
		BusyTimeout: 60 * time.Second,
	})
	if err != nil {
		_ = port.Close()
		return nil, nil, err
	}
	return dev, port, nil
}
