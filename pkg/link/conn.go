// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package link carries protocol bytes between the host and a remote display
// controller. A Session owns one connection, opened lazily, and implements the
// reply collection rules of the controller firmware.
package link

import (
	"io"
	"time"
)

// Conn is a byte stream to a remote display controller.
//
// Backends report end of stream as io.EOF. A non-blocking Read with nothing
// buffered returns 0, nil.
type Conn interface {
	io.Reader
	io.Writer
	io.Closer

	// SetNonblock switches the stream between non-blocking reads and
	// blocking full writes.
	SetNonblock(nonblocking bool) error

	// WaitReadable blocks until data can be read or timeout passes.
	WaitReadable(timeout time.Duration) (bool, error)
}

// Dialer opens connections for a Session.
type Dialer interface {
	Dial() (Conn, error)

	// String describes the remote end for logs.
	String() string
}

// DialerFunc adapts a function to the Dialer interface.
type DialerFunc struct {
	Name string
	Fn   func() (Conn, error)
}

// Dial calls d.Fn.
func (d DialerFunc) Dial() (Conn, error) { return d.Fn() }

func (d DialerFunc) String() string { return d.Name }
