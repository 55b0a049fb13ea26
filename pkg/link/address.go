// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"fmt"
	"strconv"
	"strings"
)

// Address is a Bluetooth device address in display order.
type Address [6]byte

// ParseAddress parses "AA:BB:CC:DD:EE:FF" (case-insensitive, ':' or '-').
func ParseAddress(s string) (Address, error) {
	var a Address
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ':' || r == '-' })
	if len(parts) != len(a) {
		return a, fmt.Errorf("invalid bluetooth address %q", s)
	}
	for i, p := range parts {
		if len(p) != 2 {
			return a, fmt.Errorf("invalid bluetooth address %q", s)
		}
		v, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return a, fmt.Errorf("invalid bluetooth address %q", s)
		}
		a[i] = byte(v)
	}
	return a, nil
}

func (a Address) String() string {
	return fmt.Sprintf("%02X:%02X:%02X:%02X:%02X:%02X", a[0], a[1], a[2], a[3], a[4], a[5])
}

// reversed returns the little-endian byte order used by the kernel.
func (a Address) reversed() [6]uint8 {
	var r [6]uint8
	for i := range a {
		r[i] = a[len(a)-1-i]
	}
	return r
}
