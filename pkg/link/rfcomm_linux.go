// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

//go:build linux

package link

import (
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/sys/unix"
)

// RFCOMMConn is a native Bluetooth RFCOMM socket.
type RFCOMMConn struct {
	fd int
}

// DialRFCOMM connects to channel on the device with the given address.
func DialRFCOMM(address string, channel uint8) (*RFCOMMConn, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return nil, err
	}

	fd, err := unix.Socket(unix.AF_BLUETOOTH, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, unix.BTPROTO_RFCOMM)
	if err != nil {
		return nil, fmt.Errorf("rfcomm socket: %w", err)
	}

	sa := &unix.SockaddrRFCOMM{Channel: channel, Addr: addr.reversed()}
	for {
		err = unix.Connect(fd, sa)
		if !errors.Is(err, unix.EINTR) {
			break
		}
	}
	if err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("rfcomm connect %s channel %d: %w", address, channel, err)
	}
	return &RFCOMMConn{fd: fd}, nil
}

func (c *RFCOMMConn) Read(p []byte) (int, error) {
	n, err := unix.Read(c.fd, p)
	switch {
	case errors.Is(err, unix.EAGAIN), errors.Is(err, unix.EINTR):
		return 0, nil
	case err != nil:
		return 0, err
	case n == 0 && len(p) > 0:
		return 0, io.EOF
	}
	return n, nil
}

func (c *RFCOMMConn) Write(p []byte) (int, error) {
	for {
		n, err := unix.Write(c.fd, p)
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if err != nil {
			return 0, err
		}
		return n, nil
	}
}

// Close closes the socket.
func (c *RFCOMMConn) Close() error {
	return unix.Close(c.fd)
}

// SetNonblock toggles O_NONBLOCK on the socket.
func (c *RFCOMMConn) SetNonblock(nonblocking bool) error {
	return unix.SetNonblock(c.fd, nonblocking)
}

// WaitReadable polls the socket for input.
func (c *RFCOMMConn) WaitReadable(timeout time.Duration) (bool, error) {
	fds := []unix.PollFd{{Fd: int32(c.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, int(timeout/time.Millisecond))
	if errors.Is(err, unix.EINTR) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if fds[0].Revents&unix.POLLNVAL != 0 {
		return false, unix.EBADF
	}
	// Hangups count as readable so the next Read reports the end of stream.
	return n > 0 && fds[0].Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0, nil
}
