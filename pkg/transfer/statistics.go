// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transfer

import (
	"fmt"
	"strings"
	"time"
)

// Statistics tracks one frame transfer
type Statistics struct {
	StartTime time.Time
	EndTime   time.Time

	// Counters
	Chunks      int // LOAD messages acknowledged
	PayloadSize int // bytes of pixel data acknowledged
	WireBytes   int // all bytes sent, headers included
	Replies     int
	ReplyTime   time.Duration // total time spent waiting for replies

	// Rates (calculated)
	Throughput float64 // payload bytes/sec
}

// Duration returns the transfer time so far, or in total once finished.
func (s *Statistics) Duration() time.Duration {
	if s.EndTime.IsZero() || s.EndTime.Before(s.StartTime) {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

// CalculateRates calculates throughput
func (s *Statistics) CalculateRates() {
	if d := s.Duration().Seconds(); d > 0 {
		s.Throughput = float64(s.PayloadSize) / d
	}
}

// String returns a formatted statistics summary
func (s *Statistics) String() string {
	s.CalculateRates()

	var b strings.Builder
	fmt.Fprintf(&b, "=== Transfer (%.2f seconds) ===\n", s.Duration().Seconds())
	fmt.Fprintf(&b, "Chunks:          %8d\n", s.Chunks)
	fmt.Fprintf(&b, "Payload:         %8d bytes\n", s.PayloadSize)
	fmt.Fprintf(&b, "On the wire:     %8d bytes\n", s.WireBytes)
	if s.Replies > 0 {
		fmt.Fprintf(&b, "Avg reply wait:  %8.1f ms\n", float64(s.ReplyTime.Microseconds())/float64(s.Replies)/1000)
	}
	fmt.Fprintf(&b, "Throughput:      %8.1f bytes/sec\n", s.Throughput)
	b.WriteString("==============================\n")
	return b.String()
}

// Reset resets all statistics counters
func (s *Statistics) Reset(now time.Time) {
	*s = Statistics{StartTime: now}
}
