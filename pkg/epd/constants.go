// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package epd holds the e-paper data model shared by the wired and wireless
// paths: display models and palettes, the palette-indexed frame buffer, the
// pixel codecs and the messages of the wireless image-transfer protocol.
//
// The wire format is fixed by the remote display controller firmware:
//
//	INIT  'I' <model id>
//	LOAD  'L' <len u16le> <offset u24le> <payload, up to 250 bytes>
//	STOP  'S'
//	ACK   "Ok!"
package epd

// Message tags
const (
	TagInit = 'I'
	TagLoad = 'L'
	TagStop = 'S'
)

// Transport limits. The remote firmware receives into a fixed 256 byte
// buffer, so chunking is not negotiated.
const (
	TransportMTU = 256
	HeaderSize   = 6
	ChunkSize    = TransportMTU - HeaderSize // 250

	// ReadSize is the largest single read taken from the link.
	ReadSize = 256
)

// Ack is the literal acknowledgment sent by the remote for every step.
var Ack = []byte("Ok!")

// ReplyTerminator ends an acknowledgment when it is the last byte of a read.
const ReplyTerminator = '!'

// offsetMask keeps the LOAD offset field to 24 bits.
const offsetMask = 0xFFFFFF

// Decoder states (firmware side)
const (
	stateIdle = iota
	stateInitID
	stateLoadLength
	stateLoadOffset
	stateLoadPayload
)
