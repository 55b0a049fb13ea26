// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package panel

import (
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// Controller commands shared by the UC81xx family used on the larger
// Waveshare panels.
const (
	cmdPanelSetting     = 0x00
	cmdPowerOff         = 0x02
	cmdPowerOn          = 0x04
	cmdBoosterSoftStart = 0x06
	cmdDeepSleep        = 0x07
	cmdDataStart1       = 0x10
	cmdDisplayRefresh   = 0x12
	cmdDataStart2       = 0x13
	cmdVCOMInterval     = 0x50
	cmdResolution       = 0x61

	deepSleepCheck = 0xA5
)

// ErrBusyTimeout is returned when the busy line never clears.
var ErrBusyTimeout = errors.New("panel: controller stayed busy")

// Opts describes the wiring-independent properties of a panel.
type Opts struct {
	Width  int
	Height int

	// Planes is 1 for black and white panels, 2 with an accent color.
	Planes int

	// BusyLevel is the level of the busy line while the controller works.
	BusyLevel gpio.Level

	// BusyTimeout bounds ReadBusy. Zero waits forever.
	BusyTimeout time.Duration

	// Border is the VCOM and data interval byte, which selects the border
	// color.
	Border byte
}

// Dev is a UC81xx panel controller on SPI.
type Dev struct {
	c    spi.Conn
	dc   gpio.PinOut
	cs   gpio.PinOut
	rst  gpio.PinOut
	busy gpio.PinIn
	opts Opts

	poll  time.Duration
	sleep func(time.Duration)
}

// New connects to the controller on p.
func New(p spi.Port, dc, cs, rst gpio.PinOut, busy gpio.PinIn, opts Opts) (*Dev, error) {
	c, err := p.Connect(4*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("panel: failed to connect SPI: %w", err)
	}
	if opts.Planes == 0 {
		opts.Planes = 1
	}
	if opts.Border == 0 {
		opts.Border = 0x77
	}
	if err := busy.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("panel: busy pin: %w", err)
	}
	return &Dev{
		c:     c,
		dc:    dc,
		cs:    cs,
		rst:   rst,
		busy:  busy,
		opts:  opts,
		poll:  100 * time.Millisecond,
		sleep: time.Sleep,
	}, nil
}

// borderVBD holds the VBD bits of the VCOM and data interval setting for
// the ground, ink and accent border colors.
var borderVBD = [...]byte{0x77, 0x37, 0xB7}

// BorderByte returns the VCOM and data interval byte that paints the border
// with palette index c. Unknown indices select the ground color.
func BorderByte(c int) byte {
	if c < 0 || c >= len(borderVBD) {
		return borderVBD[0]
	}
	return borderVBD[c]
}

// SetBorder sets the byte sent by the next Init.
func (d *Dev) SetBorder(b byte) {
	d.opts.Border = b
}

func (d *Dev) String() string {
	return fmt.Sprintf("panel.Dev{%s, Width: %d, Height: %d}", d.c, d.opts.Width, d.opts.Height)
}

// planeSize is the byte length of one plane.
func (d *Dev) planeSize() int {
	return (d.opts.Width*d.opts.Height + 7) / 8
}

// Init resets the controller and powers it up.
func (d *Dev) Init() error {
	eh := errorHandler{d: d}

	eh.reset()
	eh.sendCommand(cmdBoosterSoftStart)
	eh.sendData([]byte{0x17, 0x17, 0x17})
	eh.sendCommand(cmdPowerOn)
	if eh.err != nil {
		return eh.err
	}
	if err := d.ReadBusy(); err != nil {
		return err
	}

	panel := byte(0x0F)
	if d.opts.Planes == 1 {
		panel = 0x1F
	}
	eh.sendCommand(cmdPanelSetting)
	eh.sendData([]byte{panel})
	eh.sendCommand(cmdResolution)
	eh.sendData([]byte{
		byte(d.opts.Width >> 8), byte(d.opts.Width),
		byte(d.opts.Height >> 8), byte(d.opts.Height),
	})
	eh.sendCommand(cmdVCOMInterval)
	eh.sendData([]byte{d.opts.Border, 0x07})
	return eh.err
}

// Display uploads the planes and refreshes the panel. The first plane is
// ink versus ground, the optional second one marks accent pixels.
func (d *Dev) Display(planes ...[]byte) error {
	if len(planes) == 0 || len(planes) > 2 {
		return fmt.Errorf("panel: got %d planes, want 1 or 2", len(planes))
	}
	for i, p := range planes {
		if len(p) != d.planeSize() {
			return fmt.Errorf("panel: plane %d has %d bytes, want %d", i, len(p), d.planeSize())
		}
	}

	eh := errorHandler{d: d}
	if len(planes) == 1 {
		eh.sendCommand(cmdDataStart2)
		eh.sendData(planes[0])
	} else {
		eh.sendCommand(cmdDataStart1)
		eh.sendData(planes[0])
		eh.sendCommand(cmdDataStart2)
		eh.sendData(planes[1])
	}
	eh.sendCommand(cmdDisplayRefresh)
	if eh.err != nil {
		return eh.err
	}
	d.sleep(100 * time.Millisecond)
	return nil
}

// ReadBusy waits until the busy line is released.
func (d *Dev) ReadBusy() error {
	var waited time.Duration
	for d.busy.Read() == d.opts.BusyLevel {
		if d.opts.BusyTimeout > 0 && waited >= d.opts.BusyTimeout {
			return ErrBusyTimeout
		}
		d.sleep(d.poll)
		waited += d.poll
	}
	return nil
}

// Sleep powers the controller off and enters deep sleep.
func (d *Dev) Sleep() error {
	eh := errorHandler{d: d}
	eh.sendCommand(cmdPowerOff)
	if eh.err != nil {
		return eh.err
	}
	if err := d.ReadBusy(); err != nil {
		return err
	}
	eh.sendCommand(cmdDeepSleep)
	eh.sendData([]byte{deepSleepCheck})
	return eh.err
}

// Clear fills every plane with the ground color and refreshes.
func (d *Dev) Clear() error {
	planes := make([][]byte, d.opts.Planes)
	for i := range planes {
		planes[i] = make([]byte, d.planeSize())
		for j := range planes[i] {
			planes[i][j] = 0xFF
		}
	}
	if err := d.Display(planes...); err != nil {
		return err
	}
	return d.ReadBusy()
}

// errorHandler is a wrapper for error management.
type errorHandler struct {
	d   *Dev
	err error
}

func (eh *errorHandler) out(p gpio.PinOut, l gpio.Level) {
	if eh.err != nil {
		return
	}
	eh.err = p.Out(l)
}

func (eh *errorHandler) tx(w []byte) {
	if eh.err != nil {
		return
	}
	limit := len(w)
	if l, ok := eh.d.c.(conn.Limits); ok && l.MaxTxSize() > 0 {
		limit = l.MaxTxSize()
	}
	for len(w) > 0 && eh.err == nil {
		n := len(w)
		if n > limit {
			n = limit
		}
		eh.err = eh.d.c.Tx(w[:n], nil)
		w = w[n:]
	}
}

func (eh *errorHandler) reset() {
	eh.out(eh.d.rst, gpio.High)
	eh.d.sleep(200 * time.Millisecond)
	eh.out(eh.d.rst, gpio.Low)
	eh.d.sleep(2 * time.Millisecond)
	eh.out(eh.d.rst, gpio.High)
	eh.d.sleep(200 * time.Millisecond)
}

func (eh *errorHandler) sendCommand(cmd byte) {
	eh.out(eh.d.dc, gpio.Low)
	eh.out(eh.d.cs, gpio.Low)
	eh.tx([]byte{cmd})
	eh.out(eh.d.cs, gpio.High)
}

func (eh *errorHandler) sendData(data []byte) {
	eh.out(eh.d.dc, gpio.High)
	eh.out(eh.d.cs, gpio.Low)
	eh.tx(data)
	eh.out(eh.d.cs, gpio.High)
}
