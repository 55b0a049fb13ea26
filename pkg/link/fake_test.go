// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"errors"
	"io"
	"time"

	"github.com/jonboulle/clockwork"
)

// replyEvent is data the fake remote sends after a delay.
type replyEvent struct {
	after time.Duration
	data  []byte
	eof   bool
}

// scriptedConn plays a fixed reply script against a fake clock. Waiting for
// readability advances the clock by the wait actually spent.
type scriptedConn struct {
	clock    *clockwork.FakeClock
	events   []replyEvent
	pending  []byte
	eof      bool
	maxWaits int

	waits         int
	nonblockCalls []bool
	writes        [][]byte
	writeLimit    int
	closed        bool
}

var errScriptExhausted = errors.New("reply script exhausted")

func newScriptedConn(clock *clockwork.FakeClock, events ...replyEvent) *scriptedConn {
	return &scriptedConn{clock: clock, events: events, maxWaits: 1000}
}

func (c *scriptedConn) WaitReadable(timeout time.Duration) (bool, error) {
	c.waits++
	if len(c.pending) > 0 || c.eof {
		return true, nil
	}
	if len(c.events) == 0 {
		if c.waits > c.maxWaits {
			return false, errScriptExhausted
		}
		c.clock.Advance(timeout)
		return false, nil
	}

	ev := &c.events[0]
	if ev.after > timeout {
		ev.after -= timeout
		c.clock.Advance(timeout)
		return false, nil
	}
	c.clock.Advance(ev.after)
	c.pending = append(c.pending, ev.data...)
	c.eof = ev.eof
	c.events = c.events[1:]
	return true, nil
}

func (c *scriptedConn) Read(p []byte) (int, error) {
	if len(c.pending) == 0 {
		if c.eof {
			return 0, io.EOF
		}
		return 0, nil
	}
	n := copy(p, c.pending)
	c.pending = c.pending[n:]
	return n, nil
}

func (c *scriptedConn) Write(p []byte) (int, error) {
	if c.closed {
		return 0, io.ErrClosedPipe
	}
	n := len(p)
	if c.writeLimit > 0 && n > c.writeLimit {
		n = c.writeLimit
	}
	c.writes = append(c.writes, append([]byte(nil), p[:n]...))
	return n, nil
}

func (c *scriptedConn) Close() error {
	c.closed = true
	return nil
}

func (c *scriptedConn) SetNonblock(nonblocking bool) error {
	c.nonblockCalls = append(c.nonblockCalls, nonblocking)
	return nil
}

func (c *scriptedConn) lastNonblock() bool {
	return c.nonblockCalls[len(c.nonblockCalls)-1]
}

// fakeDialer hands out the same scripted connection and counts dials.
type fakeDialer struct {
	conn  *scriptedConn
	dials int
	err   error
}

func (d *fakeDialer) Dial() (Conn, error) {
	d.dials++
	if d.err != nil {
		return nil, d.err
	}
	d.conn.closed = false
	return d.conn, nil
}

func (d *fakeDialer) String() string { return "fake" }
