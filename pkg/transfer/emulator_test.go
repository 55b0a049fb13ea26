// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transfer

import (
	"context"
	"io"
	"net"
	"testing"

	"github.com/Thermoquad/inkling/pkg/epd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// pipeLink reads replies of the emulator's fixed length.
type pipeLink struct {
	conn net.Conn
}

func (l pipeLink) Send(p []byte) error {
	_, err := l.conn.Write(p)
	return err
}

func (l pipeLink) Receive() ([]byte, error) {
	buf := make([]byte, len(epd.Ack))
	_, err := io.ReadFull(l.conn, buf)
	return buf, err
}

func TestEmulator_ReceivesFrame(t *testing.T) {
	defer goleak.VerifyNone(t)

	host, remote := net.Pipe()
	m, err := epd.LookupModel("epd2in13b")
	require.NoError(t, err)

	fb := epd.NewFrameBuffer(m)
	for x := 0; x < m.Width; x++ {
		require.NoError(t, fb.SetPixel(x, x, 1))
		require.NoError(t, fb.SetPixel(x, m.Height-1, 2))
	}
	sent := fb.Render(false, false)

	frames := make(chan Frame, 1)
	emu := NewEmulator(remote)
	emu.OnFrame = func(f Frame) { frames <- f }

	done := make(chan error, 1)
	go func() { done <- emu.Serve(context.Background()) }()

	ok, err := New(pipeLink{conn: host}, m.ID).Transfer(epd.Pack2bpp(sent))
	require.NoError(t, err)
	require.True(t, ok)

	f := <-frames
	assert.True(t, f.Known)
	assert.Equal(t, "epd2in13b", f.Model.Key)
	assert.Equal(t, sent.Pix, f.Grid.Pix)

	require.NoError(t, host.Close())
	require.NoError(t, <-done)
	require.NoError(t, remote.Close())
}

func TestEmulator_CustomReply(t *testing.T) {
	defer goleak.VerifyNone(t)

	host, remote := net.Pipe()
	emu := NewEmulator(remote)
	emu.Reply = []byte("No!")

	var kinds []epd.MessageKind
	emu.OnMessage = func(m *epd.Message) { kinds = append(kinds, m.Kind) }

	done := make(chan error, 1)
	go func() { done <- emu.Serve(context.Background()) }()

	ok, err := New(pipeLink{conn: host}, 8).Transfer([]byte{0x71})
	assert.False(t, ok)
	var protoErr *ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.Equal(t, AwaitInitAck, protoErr.Step)

	require.NoError(t, host.Close())
	require.NoError(t, <-done)
	assert.Equal(t, []epd.MessageKind{epd.MessageInit}, kinds)
}
