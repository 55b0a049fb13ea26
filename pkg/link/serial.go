// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// DefaultBaudRate is used for serial ports when none is configured. RFCOMM
// ttys ignore it.
const DefaultBaudRate = 115200

// SerialConn wraps a serial port, typically a /dev/rfcommN tty bound to the
// controller with rfcomm(1).
//
// Serial ports have no readiness API, so WaitReadable performs a timed read
// and keeps what it got for the next Read.
type SerialConn struct {
	port        serial.Port
	stash       []byte
	nonblocking bool
}

// OpenSerial opens a serial port connection
func OpenSerial(portName string, baudRate int) (*SerialConn, error) {
	if baudRate <= 0 {
		baudRate = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", portName, err)
	}
	return NewSerialConn(port), nil
}

// NewSerialConn wraps an already open port.
func NewSerialConn(port serial.Port) *SerialConn {
	return &SerialConn{port: port}
}

func (s *SerialConn) Read(p []byte) (int, error) {
	if len(s.stash) > 0 {
		n := copy(p, s.stash)
		s.stash = s.stash[n:]
		return n, nil
	}
	if s.nonblocking {
		return 0, nil
	}
	return s.port.Read(p)
}

func (s *SerialConn) Write(p []byte) (int, error) {
	n, err := s.port.Write(p)
	if err != nil {
		return n, err
	}
	return n, s.port.Drain()
}

// Close closes the port.
func (s *SerialConn) Close() error {
	return s.port.Close()
}

// SetNonblock switches between stash-only reads and blocking reads.
func (s *SerialConn) SetNonblock(nonblocking bool) error {
	s.nonblocking = nonblocking
	if nonblocking {
		return nil
	}
	return s.port.SetReadTimeout(serial.NoTimeout)
}

// WaitReadable reads with a timeout and stashes the result.
func (s *SerialConn) WaitReadable(timeout time.Duration) (bool, error) {
	if len(s.stash) > 0 {
		return true, nil
	}
	if err := s.port.SetReadTimeout(timeout); err != nil {
		return false, err
	}
	buf := make([]byte, 256)
	n, err := s.port.Read(buf)
	if err != nil {
		return false, err
	}
	s.stash = append(s.stash, buf[:n]...)
	return n > 0, nil
}
