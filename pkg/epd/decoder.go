// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package epd

import "fmt"

// MessageKind identifies a decoded protocol message.
type MessageKind int

// Message kinds
const (
	MessageInit MessageKind = iota
	MessageLoad
	MessageStop
)

func (k MessageKind) String() string {
	switch k {
	case MessageInit:
		return "INIT"
	case MessageLoad:
		return "LOAD"
	case MessageStop:
		return "STOP"
	default:
		return "UNKNOWN"
	}
}

// Message is one complete host-to-display message.
type Message struct {
	Kind     MessageKind
	DeviceID uint8      // INIT
	Header   LoadHeader // LOAD
	Payload  []byte     // LOAD
}

// Decoder implements the display-side view of the protocol, one byte at a
// time. It is what the remote firmware does and is used by the emulator and
// by tests.
type Decoder struct {
	state   int
	header  []byte
	payload []byte
	want    int
}

// NewDecoder creates a decoder waiting for a message tag.
func NewDecoder() *Decoder {
	return &Decoder{
		header:  make([]byte, 0, HeaderSize),
		payload: make([]byte, 0, ChunkSize),
	}
}

// Reset drops any partial message.
func (d *Decoder) Reset() {
	d.state = stateIdle
	d.header = d.header[:0]
	d.payload = d.payload[:0]
	d.want = 0
}

// DecodeByte processes one byte. It returns a message once one is complete,
// nil while a message is in progress, and an error for bytes that cannot
// start or continue a message.
func (d *Decoder) DecodeByte(b byte) (*Message, error) {
	switch d.state {
	case stateIdle:
		switch b {
		case TagInit:
			d.state = stateInitID
			return nil, nil
		case TagLoad:
			d.header = append(d.header[:0], b)
			d.state = stateLoadLength
			return nil, nil
		case TagStop:
			return &Message{Kind: MessageStop}, nil
		default:
			return nil, fmt.Errorf("unexpected byte 0x%02X while idle", b)
		}

	case stateInitID:
		d.Reset()
		return &Message{Kind: MessageInit, DeviceID: b}, nil

	case stateLoadLength:
		d.header = append(d.header, b)
		if len(d.header) == 3 {
			d.state = stateLoadOffset
		}
		return nil, nil

	case stateLoadOffset:
		d.header = append(d.header, b)
		if len(d.header) < HeaderSize {
			return nil, nil
		}
		h, _ := DecodeLoadHeader(d.header)
		if h.PayloadLen() < 0 || h.PayloadLen() > ChunkSize {
			d.Reset()
			return nil, fmt.Errorf("invalid LOAD length: %d", h.Length)
		}
		d.want = h.PayloadLen()
		if d.want == 0 {
			d.Reset()
			return &Message{Kind: MessageLoad, Header: h}, nil
		}
		d.state = stateLoadPayload
		return nil, nil

	case stateLoadPayload:
		d.payload = append(d.payload, b)
		if len(d.payload) < d.want {
			return nil, nil
		}
		h, _ := DecodeLoadHeader(d.header)
		msg := &Message{Kind: MessageLoad, Header: h, Payload: append([]byte(nil), d.payload...)}
		d.Reset()
		return msg, nil

	default:
		d.Reset()
		return nil, fmt.Errorf("invalid state: %d", d.state)
	}
}
