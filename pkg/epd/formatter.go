// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package epd

import (
	"fmt"
	"strings"
)

// FormatMessage formats a decoded message into a human-readable string
func FormatMessage(m *Message) string {
	switch m.Kind {
	case MessageInit:
		name := "unknown model"
		for _, dm := range Models() {
			if dm.ID == m.DeviceID {
				name = dm.Key
				break
			}
		}
		return fmt.Sprintf("INIT id=%d (%s)", m.DeviceID, name)
	case MessageLoad:
		return fmt.Sprintf("LOAD len=%d offset=%d payload=%d bytes", m.Header.Length, m.Header.Offset, len(m.Payload))
	case MessageStop:
		return "STOP"
	default:
		return m.Kind.String()
	}
}

// FormatBytes formats raw link bytes as hex, with a printable rendering when
// every byte is ASCII, e.g. replies like "Ok!".
func FormatBytes(b []byte) string {
	if len(b) == 0 {
		return "<empty>"
	}
	var sb strings.Builder
	printable := true
	for i, c := range b {
		if i > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%02X", c)
		if c < 0x20 || c > 0x7E {
			printable = false
		}
	}
	if printable {
		fmt.Fprintf(&sb, " %q", string(b))
	}
	return sb.String()
}
