// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Thermoquad/inkling/internal/config"
	"github.com/Thermoquad/inkling/pkg/epd"
	"github.com/Thermoquad/inkling/pkg/transfer"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores every flag to its default so tests do not see each
// other's Changed state.
func resetFlags(t *testing.T) {
	t.Helper()
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	rootCmd.PersistentFlags().VisitAll(reset)
	for _, c := range rootCmd.Commands() {
		c.Flags().VisitAll(reset)
	}
}

// execute runs the root command against an in-memory config file.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(t)
	t.Cleanup(func() { resetFlags(t) })

	prevFs := appFs
	appFs = afero.NewMemMapFs()
	t.Cleanup(func() { appFs = prevFs })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--config", "/inkling.yaml"}, args...))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(errors.New("boom")))
	assert.Equal(t, 2, ExitCode(connectionError(errors.New("refused"))))
	assert.Equal(t, 1, ExitCode(transferError(errors.New("rejected"))))

	wrapped := errors.Join(errors.New("other"), connectionError(errors.New("refused")))
	assert.Equal(t, 2, ExitCode(wrapped))
	assert.Contains(t, connectionError(errors.New("refused")).Error(), "connection error: refused")
}

func TestModelsCommand(t *testing.T) {
	out, err := execute(t, "models")
	require.NoError(t, err)

	for _, key := range []string{"epd1in54", "epd7in5b", "epd2in13b"} {
		assert.Contains(t, out, key)
	}
	assert.Contains(t, out, "640x384")
	assert.Contains(t, out, "MODEL")
}

func TestPatternPreview(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pattern.png")
	_, err := execute(t, "--model", "epd7in5b", "--color", "red", "pattern", "--preview", path)
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)

	pal, ok := img.(*image.Paletted)
	require.True(t, ok, "preview should be paletted")
	assert.Equal(t, image.Rect(0, 0, 640, 384), pal.Bounds())
	assert.Equal(t, uint8(0), pal.ColorIndexAt(10, 10))
	assert.Equal(t, uint8(1), pal.ColorIndexAt(150, 150))
	assert.Equal(t, uint8(2), pal.ColorIndexAt(400, 250))
	assert.Equal(t, uint8(0), pal.ColorIndexAt(300, 150))
}

func TestPatternPreview_Flipped(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pattern.png")
	_, err := execute(t, "--model", "epd7in5b", "--color", "red", "--hflip", "pattern", "--preview", path)
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)

	pal := img.(*image.Paletted)
	assert.Equal(t, uint8(1), pal.ColorIndexAt(639-150, 150))
	assert.Equal(t, uint8(0), pal.ColorIndexAt(150, 150))
}

func TestRenderPattern_BlackWhitePanel(t *testing.T) {
	m, err := epd.LookupModel("epd4in2")
	require.NoError(t, err)

	pix := epd.FromImage(renderPattern(m), m)
	at := func(x, y int) uint8 { return pix[y*m.Width+x] }

	assert.Equal(t, uint8(1), at(150, 150))
	assert.Equal(t, uint8(1), at(375, 250), "accent falls back to ink")
	assert.Equal(t, uint8(0), at(5, 5))
}

func TestShow_MissingImage(t *testing.T) {
	_, err := execute(t, "--model", "epd2in7", "--transport", "wired", "show", "/does/not/exist.png")
	require.Error(t, err)
	assert.Equal(t, 1, ExitCode(err))
}

func TestSelectDisplays(t *testing.T) {
	resetFlags(t)
	t.Cleanup(func() { resetFlags(t) })

	prev := cfg
	t.Cleanup(func() { cfg = prev })
	cfg = &config.Config{Displays: []config.DisplayConfig{
		{Name: "kitchen", Model: "epd2in7b", Color: "red", Transport: "rfcomm", Address: "00:11:22:33:44:55"},
		{Name: "hall", Model: "epd4in2", Transport: "serial", Port: "/dev/rfcomm0"},
	}}
	cfg.Normalize()

	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().AddFlagSet(rootCmd.PersistentFlags())

	t.Run("default is the first entry", func(t *testing.T) {
		got, err := selectDisplays(cmd, false)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "kitchen", got[0].Name)
	})

	t.Run("all", func(t *testing.T) {
		got, err := selectDisplays(cmd, true)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("flags override the entry", func(t *testing.T) {
		require.NoError(t, cmd.ParseFlags([]string{"--display", "hall", "--port", "/dev/ttyUSB1", "--vflip"}))
		got, err := selectDisplays(cmd, false)
		require.NoError(t, err)
		assert.Equal(t, "/dev/ttyUSB1", got[0].Port)
		assert.Equal(t, config.TransportSerial, got[0].Transport)
		assert.True(t, got[0].VFlip)
	})

	t.Run("url implies websocket", func(t *testing.T) {
		resetFlags(t)
		require.NoError(t, cmd.ParseFlags([]string{"--url", "ws://bridge/ws"}))
		got, err := selectDisplays(cmd, false)
		require.NoError(t, err)
		assert.Equal(t, config.TransportWebSocket, got[0].Transport)
		assert.Equal(t, "ws://bridge/ws", got[0].URL)
	})

	t.Run("unknown display", func(t *testing.T) {
		resetFlags(t)
		require.NoError(t, cmd.ParseFlags([]string{"--display", "attic"}))
		_, err := selectDisplays(cmd, false)
		assert.ErrorContains(t, err, `"attic" not found`)
	})

	t.Run("invalid override", func(t *testing.T) {
		resetFlags(t)
		require.NoError(t, cmd.ParseFlags([]string{"--transport", "serial"}))
		_, err := selectDisplays(cmd, false)
		assert.ErrorContains(t, err, "needs a port")
	})
}

func TestWithTimeout(t *testing.T) {
	err := withTimeout(0, func() error { return errors.New("direct") })
	assert.EqualError(t, err, "direct")

	err = withTimeout(time.Second, func() error { return nil })
	assert.NoError(t, err)

	release := make(chan struct{})
	defer close(release)
	err = withTimeout(10*time.Millisecond, func() error {
		<-release
		return nil
	})
	assert.ErrorIs(t, err, errTransferTimeout)
}

func TestIsWatchedEvent(t *testing.T) {
	path := "/srv/frame.png"
	assert.True(t, isWatchedEvent(fsnotify.Event{Name: "/srv/frame.png", Op: fsnotify.Write}, path))
	assert.True(t, isWatchedEvent(fsnotify.Event{Name: "/srv/./frame.png", Op: fsnotify.Create}, path))
	assert.False(t, isWatchedEvent(fsnotify.Event{Name: "/srv/frame.png", Op: fsnotify.Chmod}, path))
	assert.False(t, isWatchedEvent(fsnotify.Event{Name: "/srv/other.png", Op: fsnotify.Write}, path))
}

func TestFrameWriter(t *testing.T) {
	m, err := epd.LookupModel("epd1in54b")
	require.NoError(t, err)
	grid := epd.NewGrid(m.Width, m.Height)
	grid.Pix[0] = 2

	path := filepath.Join(t.TempDir(), "frame.png")
	var out bytes.Buffer
	write := frameWriter(&out, path)

	write(transfer.Frame{DeviceID: 200, Payload: []byte{1, 2}})
	assert.Contains(t, out.String(), "unknown device id 200")
	assert.NoFileExists(t, path)

	write(transfer.Frame{DeviceID: m.ID, Model: m, Known: true, Grid: grid})
	assert.Contains(t, out.String(), "saved to "+path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, uint8(2), img.(*image.Paletted).ColorIndexAt(0, 0))
}

func TestProgressModel(t *testing.T) {
	var m tea.Model = newProgressModel("kitchen")

	m, _ = m.Update(transferEventMsg(transfer.Event{
		State: transfer.AwaitChunkAck, Chunk: 1, Chunks: 4, Sent: 500, Total: 1000,
	}))
	view := m.View()
	assert.Contains(t, view, "kitchen")
	assert.Contains(t, view, "AWAIT_CHUNK_ACK")
	assert.Contains(t, view, "2/4")
	assert.Contains(t, view, "500/1000")

	m, cmd := m.Update(pushDoneMsg{err: errors.New("rejected")})
	require.NotNil(t, cmd)
	assert.True(t, m.(progressModel).done)
	assert.True(t, strings.Contains(m.View(), "FAILED: rejected"))
}
