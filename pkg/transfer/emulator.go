// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/Thermoquad/inkling/pkg/epd"
	"github.com/rs/zerolog/log"
)

// Frame is a complete image received by an Emulator.
type Frame struct {
	DeviceID uint8
	Model    epd.DisplayModel
	Known    bool // Model is valid
	Payload  []byte
	Grid     *epd.Grid // decoded pixels, nil for unknown models
}

// Emulator plays the remote display controller: it decodes INIT, LOAD and
// STOP from the stream and acknowledges each one.
type Emulator struct {
	rw io.ReadWriter

	// Reply is sent after every message. Defaults to the acknowledgment.
	Reply []byte
	// OnMessage is called for every decoded message.
	OnMessage func(*epd.Message)
	// OnFrame is called when a STOP completes a frame.
	OnFrame func(Frame)

	frame  Frame
	chunks int
}

// NewEmulator creates an emulator on rw.
func NewEmulator(rw io.ReadWriter) *Emulator {
	return &Emulator{rw: rw, Reply: epd.Ack}
}

// Serve processes the stream until it ends or ctx is done. Reads are not
// interruptible, so callers close the stream to stop a blocked Serve.
func (e *Emulator) Serve(ctx context.Context) error {
	decoder := epd.NewDecoder()
	buf := make([]byte, epd.ReadSize)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := e.rw.Read(buf)
		for i := 0; i < n; i++ {
			msg, decErr := decoder.DecodeByte(buf[i])
			if decErr != nil {
				log.Warn().Err(decErr).Msg("emulator: dropping byte")
				continue
			}
			if msg == nil {
				continue
			}
			if err := e.handle(msg); err != nil {
				return err
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("emulator read: %w", err)
		}
	}
}

func (e *Emulator) handle(msg *epd.Message) error {
	if e.OnMessage != nil {
		e.OnMessage(msg)
	}

	switch msg.Kind {
	case epd.MessageInit:
		e.frame = Frame{DeviceID: msg.DeviceID}
		e.chunks = 0
		for _, m := range epd.Models() {
			if m.ID == msg.DeviceID {
				e.frame.Model, e.frame.Known = m, true
				break
			}
		}
	case epd.MessageLoad:
		want := epd.ExpectedOffset(e.chunks, len(msg.Payload))
		if msg.Header.Offset != want {
			log.Warn().
				Uint32("offset", msg.Header.Offset).
				Uint32("expected", want).
				Int("chunk", e.chunks).
				Msg("emulator: unexpected LOAD offset")
		}
		e.frame.Payload = append(e.frame.Payload, msg.Payload...)
		e.chunks++
	case epd.MessageStop:
		f := e.frame
		if f.Known {
			f.Grid = epd.Unpack2bpp(f.Payload, f.Model.Width, f.Model.Height)
		}
		if e.OnFrame != nil {
			e.OnFrame(f)
		}
		e.frame = Frame{DeviceID: f.DeviceID, Model: f.Model, Known: f.Known}
		e.chunks = 0
	}

	if _, err := e.rw.Write(e.Reply); err != nil {
		return fmt.Errorf("emulator reply: %w", err)
	}
	return nil
}
