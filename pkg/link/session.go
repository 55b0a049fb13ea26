// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"fmt"
	"time"

	"github.com/Thermoquad/inkling/internal/syncutil"
	"github.com/Thermoquad/inkling/pkg/epd"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// State is the connection state of a Session.
type State int

// Session states
const (
	Unopened State = iota
	Open
)

func (s State) String() string {
	if s == Open {
		return "open"
	}
	return "unopened"
}

// Session is the connection to one remote display controller.
//
// The connection is opened on first use and kept until Close. Session is a
// sync.Locker: hold it around a whole transfer so two transfers never
// interleave on one link.
type Session struct {
	syncutil.Mutex

	dialer       Dialer
	conn         Conn
	clock        clockwork.Clock
	quiescence   time.Duration
	pollInterval time.Duration
}

// Option configures a Session.
type Option func(*Session)

// WithClock sets the clock used by the receive loop.
func WithClock(c clockwork.Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithQuiescence sets how long the link must be quiet before a partial reply
// is returned.
func WithQuiescence(d time.Duration) Option {
	return func(s *Session) { s.quiescence = d }
}

// WithPollInterval sets the readability wait of one receive iteration.
func WithPollInterval(d time.Duration) Option {
	return func(s *Session) { s.pollInterval = d }
}

// NewSession creates an unopened session.
func NewSession(d Dialer, opts ...Option) *Session {
	s := &Session{
		dialer:       d,
		clock:        clockwork.NewRealClock(),
		quiescence:   DefaultQuiescence,
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// String describes the remote end.
func (s *Session) String() string {
	return s.dialer.String()
}

// State reports whether a connection is held.
func (s *Session) State() State {
	if s.conn == nil {
		return Unopened
	}
	return Open
}

// EnsureOpen opens the connection in non-blocking mode unless one is
// already open.
func (s *Session) EnsureOpen() error {
	if s.conn != nil {
		return nil
	}

	conn, err := s.dialer.Dial()
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", s.dialer, err)
	}
	if err := conn.SetNonblock(true); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to configure %s: %w", s.dialer, err)
	}

	s.conn = conn
	log.Debug().Str("remote", s.dialer.String()).Msg("link opened")
	return nil
}

// Send writes p in blocking mode.
func (s *Session) Send(p []byte) error {
	if err := s.EnsureOpen(); err != nil {
		return err
	}
	if err := s.conn.SetNonblock(false); err != nil {
		return fmt.Errorf("failed to switch to blocking mode: %w", err)
	}

	for written := 0; written < len(p); {
		n, err := s.conn.Write(p[written:])
		if err != nil {
			return fmt.Errorf("failed to send to %s: %w", s.dialer, err)
		}
		written += n
	}

	log.Debug().Str("data", epd.FormatBytes(p)).Msg("tx")
	return nil
}

// Receive collects one reply from the remote. The connection is switched to
// non-blocking mode for the duration and back to blocking on return.
func (s *Session) Receive() (reply []byte, err error) {
	if err := s.EnsureOpen(); err != nil {
		return nil, err
	}
	if err := s.conn.SetNonblock(true); err != nil {
		return nil, fmt.Errorf("failed to switch to non-blocking mode: %w", err)
	}
	defer func() {
		if restoreErr := s.conn.SetNonblock(false); restoreErr != nil && err == nil {
			err = fmt.Errorf("failed to restore blocking mode: %w", restoreErr)
		}
	}()

	reply, err = receive(s.conn, s.clock, s.quiescence, s.pollInterval)
	log.Debug().Str("data", epd.FormatBytes(reply)).Msg("rx")
	return reply, err
}

// Close drops the connection. The next operation reopens it.
func (s *Session) Close() error {
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	log.Debug().Str("remote", s.dialer.String()).Msg("link closed")
	return err
}
