// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package panel

import (
	"errors"
	"testing"
	"time"

	"github.com/Thermoquad/inkling/pkg/epd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/spi/spitest"
)

func newTestDev(t *testing.T, opts Opts) (*Dev, *spitest.Record, *gpiotest.Pin) {
	t.Helper()
	rec := &spitest.Record{}
	busy := &gpiotest.Pin{N: "busy", L: gpio.High}
	dev, err := New(rec, &gpiotest.Pin{N: "dc"}, &gpiotest.Pin{N: "cs"}, &gpiotest.Pin{N: "rst"}, busy, opts)
	require.NoError(t, err)
	dev.sleep = func(time.Duration) {}
	return dev, rec, busy
}

func writes(ops []conntest.IO) [][]byte {
	out := make([][]byte, len(ops))
	for i, op := range ops {
		out[i] = op.W
	}
	return out
}

func TestDev_Init(t *testing.T) {
	dev, rec, _ := newTestDev(t, Opts{Width: 640, Height: 384, Planes: 2})
	require.NoError(t, dev.Init())

	assert.Equal(t, [][]byte{
		{cmdBoosterSoftStart}, {0x17, 0x17, 0x17},
		{cmdPowerOn},
		{cmdPanelSetting}, {0x0F},
		{cmdResolution}, {0x02, 0x80, 0x01, 0x80},
		{cmdVCOMInterval}, {0x77, 0x07},
	}, writes(rec.Ops))
}

func TestDev_InitBorder(t *testing.T) {
	dev, rec, _ := newTestDev(t, Opts{Width: 8, Height: 2})
	dev.SetBorder(BorderByte(1))
	require.NoError(t, dev.Init())

	ops := writes(rec.Ops)
	assert.Equal(t, []byte{0x37, 0x07}, ops[len(ops)-1])
	assert.Equal(t, byte(0x77), BorderByte(9))
}

func TestDev_Display(t *testing.T) {
	t.Run("two planes", func(t *testing.T) {
		dev, rec, _ := newTestDev(t, Opts{Width: 8, Height: 2, Planes: 2})
		require.NoError(t, dev.Display([]byte{0xB6, 0xFF}, []byte{0xDB, 0xFF}))
		assert.Equal(t, [][]byte{
			{cmdDataStart1}, {0xB6, 0xFF},
			{cmdDataStart2}, {0xDB, 0xFF},
			{cmdDisplayRefresh},
		}, writes(rec.Ops))
	})

	t.Run("one plane", func(t *testing.T) {
		dev, rec, _ := newTestDev(t, Opts{Width: 8, Height: 1})
		require.NoError(t, dev.Display([]byte{0x0F}))
		assert.Equal(t, [][]byte{{cmdDataStart2}, {0x0F}, {cmdDisplayRefresh}}, writes(rec.Ops))
	})

	t.Run("wrong plane size", func(t *testing.T) {
		dev, rec, _ := newTestDev(t, Opts{Width: 8, Height: 2})
		assert.Error(t, dev.Display([]byte{0x00}))
		assert.Error(t, dev.Display())
		assert.Empty(t, rec.Ops)
	})
}

func TestDev_ReadBusyTimeout(t *testing.T) {
	dev, _, busy := newTestDev(t, Opts{Width: 8, Height: 1, BusyLevel: gpio.Low, BusyTimeout: time.Second})
	busy.L = gpio.Low

	err := dev.ReadBusy()
	assert.True(t, errors.Is(err, ErrBusyTimeout))
}

func TestDev_SleepAndClear(t *testing.T) {
	dev, rec, _ := newTestDev(t, Opts{Width: 8, Height: 1, Planes: 2})

	require.NoError(t, dev.Clear())
	require.NoError(t, dev.Sleep())
	assert.Equal(t, [][]byte{
		{cmdDataStart1}, {0xFF},
		{cmdDataStart2}, {0xFF},
		{cmdDisplayRefresh},
		{cmdPowerOff},
		{cmdDeepSleep}, {deepSleepCheck},
	}, writes(rec.Ops))
}

// recordingDriver logs the calls a Target makes.
type recordingDriver struct {
	calls  []string
	planes [][]byte
	border byte
}

func (d *recordingDriver) SetBorder(b byte) { d.border = b }

func (d *recordingDriver) Init() error     { d.calls = append(d.calls, "init"); return nil }
func (d *recordingDriver) ReadBusy() error { d.calls = append(d.calls, "busy"); return nil }
func (d *recordingDriver) Sleep() error    { d.calls = append(d.calls, "sleep"); return nil }
func (d *recordingDriver) Clear() error    { d.calls = append(d.calls, "clear"); return nil }
func (d *recordingDriver) Display(planes ...[]byte) error {
	d.calls = append(d.calls, "display")
	d.planes = planes
	return nil
}

func TestTarget_Push(t *testing.T) {
	m := epd.DisplayModel{Key: "test", Width: 4, Height: 2, Palette: epd.PaletteBWR}
	g := &epd.Grid{Width: 4, Height: 2, Pix: []uint8{0, 1, 2, 0, 1, 1, 1, 1}}

	drv := &recordingDriver{}
	require.NoError(t, NewTarget(drv, m).Push(g))
	assert.Equal(t, []string{"init", "busy", "display", "busy", "sleep"}, drv.calls)
	assert.Equal(t, epd.PackPlanes(g, 3), drv.planes)

	drv = &recordingDriver{}
	tgt := NewTarget(drv, m)
	tgt.BusyWait = false
	require.NoError(t, tgt.Push(g))
	assert.Equal(t, []string{"init", "busy", "display"}, drv.calls)
}

func TestTarget_Clear(t *testing.T) {
	drv := &recordingDriver{}
	m := epd.DisplayModel{Key: "test", Width: 4, Height: 2, Palette: epd.PaletteBW}
	require.NoError(t, NewTarget(drv, m).Clear())
	assert.Equal(t, []string{"init", "busy", "clear"}, drv.calls)
}

func TestTarget_SetBorder(t *testing.T) {
	drv := &recordingDriver{}
	m := epd.DisplayModel{Key: "test", Width: 4, Height: 2, Palette: epd.PaletteBWR}
	NewTarget(drv, m).SetBorder(2)
	assert.Equal(t, byte(0xB7), drv.border)
}
