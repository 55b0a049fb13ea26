// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

//go:build !linux

package link

import (
	"errors"
	"time"
)

// ErrRFCOMMUnsupported is returned by DialRFCOMM on systems without native
// RFCOMM sockets. Bind the device to a serial tty and use the serial backend.
var ErrRFCOMMUnsupported = errors.New("native rfcomm sockets are only supported on linux")

// RFCOMMConn is unavailable on this platform.
type RFCOMMConn struct{}

// DialRFCOMM always fails on this platform.
func DialRFCOMM(address string, channel uint8) (*RFCOMMConn, error) {
	if _, err := ParseAddress(address); err != nil {
		return nil, err
	}
	return nil, ErrRFCOMMUnsupported
}

func (c *RFCOMMConn) Read([]byte) (int, error)  { return 0, ErrRFCOMMUnsupported }
func (c *RFCOMMConn) Write([]byte) (int, error) { return 0, ErrRFCOMMUnsupported }

// Close is a no-op.
func (c *RFCOMMConn) Close() error { return nil }

// SetNonblock always fails on this platform.
func (c *RFCOMMConn) SetNonblock(bool) error { return ErrRFCOMMUnsupported }

// WaitReadable always fails on this platform.
func (c *RFCOMMConn) WaitReadable(time.Duration) (bool, error) {
	return false, ErrRFCOMMUnsupported
}
