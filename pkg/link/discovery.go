// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// ServiceNotFoundError reports that a device offers no RFCOMM service.
type ServiceNotFoundError struct {
	Address string
	Err     error
}

func (e *ServiceNotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no RFCOMM service found on %s: %v", e.Address, e.Err)
	}
	return fmt.Sprintf("no RFCOMM service found on %s", e.Address)
}

func (e *ServiceNotFoundError) Unwrap() error { return e.Err }

// ServiceResolver looks up the RFCOMM channel a device listens on.
type ServiceResolver interface {
	ResolveChannel(ctx context.Context, address string) (uint8, error)
}

// SDPResolver queries the device's service records with sdptool(1).
type SDPResolver struct {
	// Command defaults to "sdptool".
	Command string
	Timeout time.Duration
}

// ResolveChannel runs "sdptool browse" and returns the channel of the last
// RFCOMM record.
func (r SDPResolver) ResolveChannel(ctx context.Context, address string) (uint8, error) {
	name := r.Command
	if name == "" {
		name = "sdptool"
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	out, err := exec.CommandContext(ctx, name, "browse", address).Output()
	if err != nil {
		return 0, &ServiceNotFoundError{Address: address, Err: err}
	}
	channel, ok := ParseSDPChannel(out)
	if !ok {
		return 0, &ServiceNotFoundError{Address: address}
	}
	return channel, nil
}

// ParseSDPChannel extracts the RFCOMM channel from sdptool browse output.
// When several services are listed the last one wins.
func ParseSDPChannel(out []byte) (uint8, bool) {
	var (
		channel  uint8
		found    bool
		inRFCOMM bool
	)
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, "Service Name:"), strings.HasPrefix(line, "Service RecHandle:"):
			inRFCOMM = false
		case strings.HasPrefix(line, `"RFCOMM"`):
			inRFCOMM = true
		case inRFCOMM && strings.HasPrefix(line, "Channel:"):
			v, err := strconv.ParseUint(strings.TrimSpace(strings.TrimPrefix(line, "Channel:")), 10, 8)
			if err == nil && v > 0 {
				channel, found = uint8(v), true
			}
			inRFCOMM = false
		}
	}
	return channel, found
}

// StaticResolver always returns the same channel.
type StaticResolver uint8

// ResolveChannel returns r.
func (r StaticResolver) ResolveChannel(context.Context, string) (uint8, error) {
	return uint8(r), nil
}

// RFCOMMDialer dials a native RFCOMM socket on a resolved channel.
type RFCOMMDialer struct {
	Address string
	Channel uint8
}

// NewRFCOMMDialer resolves the device's RFCOMM channel once. A resolver
// failure is returned as *ServiceNotFoundError.
func NewRFCOMMDialer(ctx context.Context, address string, resolver ServiceResolver) (*RFCOMMDialer, error) {
	if _, err := ParseAddress(address); err != nil {
		return nil, err
	}
	channel, err := resolver.ResolveChannel(ctx, address)
	if err != nil {
		var notFound *ServiceNotFoundError
		if errors.As(err, &notFound) {
			return nil, err
		}
		return nil, &ServiceNotFoundError{Address: address, Err: err}
	}
	return &RFCOMMDialer{Address: address, Channel: channel}, nil
}

// Dial connects to the device.
func (d *RFCOMMDialer) Dial() (Conn, error) {
	c, err := DialRFCOMM(d.Address, d.Channel)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (d *RFCOMMDialer) String() string {
	return fmt.Sprintf("RFCOMM: %s channel %d", d.Address, d.Channel)
}

// SerialDialer opens a serial port.
type SerialDialer struct {
	Port     string
	BaudRate int
}

// Dial opens the port.
func (d *SerialDialer) Dial() (Conn, error) {
	c, err := OpenSerial(d.Port, d.BaudRate)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (d *SerialDialer) String() string {
	return fmt.Sprintf("Serial: %s @ %d baud", d.Port, d.BaudRate)
}

// WebSocketDialer connects through a WebSocket bridge.
type WebSocketDialer struct {
	URL           string
	Username      string
	Password      string
	SkipSSLVerify bool
}

// Dial opens the WebSocket.
func (d *WebSocketDialer) Dial() (Conn, error) {
	c, err := OpenWebSocket(d.URL, d.Username, d.Password, d.SkipSSLVerify)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (d *WebSocketDialer) String() string {
	return fmt.Sprintf("WebSocket: %s", d.URL)
}
