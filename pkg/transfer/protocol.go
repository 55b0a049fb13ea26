// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package transfer pushes one frame to a remote display controller:
//
//	INIT -> ack -> (LOAD -> ack)* -> STOP -> ack
//
// Every message waits for the literal acknowledgment before the next one is
// sent. Anything else aborts the transfer; there is no retry and no resume,
// the caller starts over with a fresh INIT.
package transfer

import (
	"fmt"

	"github.com/Thermoquad/inkling/pkg/epd"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Link is the part of a link.Session a transfer uses.
type Link interface {
	Send(p []byte) error
	Receive() ([]byte, error)
}

// Protocol runs transfers for one display model over one link.
type Protocol struct {
	link     Link
	deviceID uint8
	clock    clockwork.Clock
	progress func(Event)

	state State
	stats Statistics
}

// Option configures a Protocol.
type Option func(*Protocol)

// WithProgress registers a callback invoked on every state change.
func WithProgress(fn func(Event)) Option {
	return func(p *Protocol) { p.progress = fn }
}

// WithClock sets the clock used for statistics.
func WithClock(c clockwork.Clock) Option {
	return func(p *Protocol) { p.clock = c }
}

// New creates a protocol driver sending INIT with deviceID.
func New(l Link, deviceID uint8, opts ...Option) *Protocol {
	p := &Protocol{
		link:     l,
		deviceID: deviceID,
		clock:    clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns the state the last transfer ended in.
func (p *Protocol) State() State {
	return p.state
}

// Statistics returns a copy of the last transfer's statistics.
func (p *Protocol) Statistics() Statistics {
	s := p.stats
	s.CalculateRates()
	return s
}

// Transfer sends payload as one frame.
//
// It returns true once the remote acknowledged STOP. A rejected step yields
// false and a *ProtocolError; a link failure yields false and that error. In
// both cases the link may hold a half-read reply and should be closed.
func (p *Protocol) Transfer(payload []byte) (bool, error) {
	p.stats.Reset(p.clock.Now())
	chunks := epd.ChunkCount(len(payload))
	ev := Event{Chunks: chunks, Total: len(payload)}

	log.Debug().
		Uint8("device_id", p.deviceID).
		Int("bytes", len(payload)).
		Int("chunks", chunks).
		Msg("transfer starting")
	p.enter(Idle, ev)

	trace(&epd.Message{Kind: epd.MessageInit, DeviceID: p.deviceID})
	if err := p.send(epd.EncodeInit(p.deviceID)); err != nil {
		return p.fail(ev, err)
	}
	p.enter(AwaitInitAck, ev)
	if err := p.awaitAck(AwaitInitAck, 0); err != nil {
		return p.fail(ev, err)
	}

	for i := 0; i < chunks; i++ {
		chunk := epd.Chunk(payload, i)
		ev.Chunk = i
		p.enter(Sending, ev)

		header := epd.EncodeLoadHeader(i, len(chunk))
		if h, ok := epd.DecodeLoadHeader(header); ok {
			trace(&epd.Message{Kind: epd.MessageLoad, Header: h, Payload: chunk})
		}
		if err := p.send(header); err != nil {
			return p.fail(ev, err)
		}
		if err := p.send(chunk); err != nil {
			return p.fail(ev, err)
		}

		p.enter(AwaitChunkAck, ev)
		if err := p.awaitAck(AwaitChunkAck, i); err != nil {
			return p.fail(ev, err)
		}
		p.stats.Chunks++
		p.stats.PayloadSize += len(chunk)
		ev.Sent += len(chunk)
	}

	trace(&epd.Message{Kind: epd.MessageStop})
	if err := p.send(epd.EncodeStop()); err != nil {
		return p.fail(ev, err)
	}
	p.enter(AwaitStopAck, ev)
	if err := p.awaitAck(AwaitStopAck, 0); err != nil {
		return p.fail(ev, err)
	}

	p.stats.EndTime = p.clock.Now()
	p.enter(Done, ev)
	log.Debug().
		Int("chunks", p.stats.Chunks).
		Dur("duration", p.stats.Duration()).
		Msg("transfer done")
	return true, nil
}

func (p *Protocol) send(b []byte) error {
	if err := p.link.Send(b); err != nil {
		return err
	}
	p.stats.WireBytes += len(b)
	return nil
}

func (p *Protocol) awaitAck(step State, chunk int) error {
	start := p.clock.Now()
	reply, err := p.link.Receive()
	p.stats.Replies++
	p.stats.ReplyTime += p.clock.Since(start)
	p.stats.EndTime = p.clock.Now()
	if err != nil {
		return fmt.Errorf("waiting for reply in %s: %w", step, err)
	}
	if !epd.IsAck(reply) {
		return &ProtocolError{Step: step, Chunk: chunk, Reply: reply}
	}
	return nil
}

func (p *Protocol) enter(s State, ev Event) {
	p.state = s
	if p.progress != nil {
		ev.State = s
		p.progress(ev)
	}
}

func (p *Protocol) fail(ev Event, err error) (bool, error) {
	p.stats.EndTime = p.clock.Now()
	ev.Err = err
	p.enter(Failed, ev)
	log.Warn().Err(err).Msg("transfer failed")
	return false, err
}

func trace(m *epd.Message) {
	log.Debug().Msg(epd.FormatMessage(m))
}
