// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package epd

import (
	"bytes"
	"encoding/binary"
)

// EncodeInit builds the INIT message selecting the remote display model.
func EncodeInit(deviceID uint8) []byte {
	return []byte{TagInit, deviceID}
}

// EncodeStop builds the STOP message that commits the frame to the panel.
func EncodeStop() []byte {
	return []byte{TagStop}
}

// EncodeLoadHeader builds the 6 byte header announcing chunk index of
// payloadLen bytes.
//
// The firmware expects the layout of a packed little-endian <tag, u16, u32>
// triple with the last byte cut off, so the offset is computed as a 32 bit
// value and truncated to 24 bits on the wire.
func EncodeLoadHeader(index, payloadLen int) []byte {
	length := payloadLen + HeaderSize
	offset := uint32(index*TransportMTU + length)

	var full [7]byte
	full[0] = TagLoad
	binary.LittleEndian.PutUint16(full[1:3], uint16(length))
	binary.LittleEndian.PutUint32(full[3:7], offset)

	header := make([]byte, HeaderSize)
	copy(header, full[:HeaderSize])
	return header
}

// Chunk returns the payload slice of chunk index, or nil past the end.
func Chunk(payload []byte, index int) []byte {
	start := index * ChunkSize
	if start >= len(payload) {
		return nil
	}
	end := start + ChunkSize
	if end > len(payload) {
		end = len(payload)
	}
	return payload[start:end]
}

// ChunkCount returns the number of LOAD messages needed for n payload bytes.
func ChunkCount(n int) int {
	return (n + ChunkSize - 1) / ChunkSize
}

// IsAck reports whether a reply is the literal acknowledgment.
func IsAck(reply []byte) bool {
	return bytes.Equal(reply, Ack)
}

// LoadHeader is a decoded LOAD header.
type LoadHeader struct {
	Length int    // header plus payload bytes
	Offset uint32 // 24 bit running offset
}

// PayloadLen returns the number of payload bytes following the header.
func (h LoadHeader) PayloadLen() int {
	return h.Length - HeaderSize
}

// DecodeLoadHeader parses a 6 byte LOAD header.
func DecodeLoadHeader(b []byte) (LoadHeader, bool) {
	if len(b) < HeaderSize || b[0] != TagLoad {
		return LoadHeader{}, false
	}
	return LoadHeader{
		Length: int(binary.LittleEndian.Uint16(b[1:3])),
		Offset: uint32(b[3]) | uint32(b[4])<<8 | uint32(b[5])<<16,
	}, true
}

// ExpectedOffset returns the offset field a well-formed LOAD for chunk index
// carries.
func ExpectedOffset(index, payloadLen int) uint32 {
	return uint32(index*TransportMTU+payloadLen+HeaderSize) & offsetMask
}
