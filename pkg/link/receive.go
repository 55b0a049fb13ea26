// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"fmt"
	"time"

	"github.com/Thermoquad/inkling/pkg/epd"
	"github.com/jonboulle/clockwork"
)

// Receive loop timing used by the controller firmware.
const (
	DefaultQuiescence   = 10 * time.Millisecond
	DefaultPollInterval = 100 * time.Millisecond
)

// receive collects one reply.
//
// It stops when the most recent read ends in the terminator, or when the link
// has been quiet for quiescence after at least one byte arrived. A reply that
// never starts is waited for indefinitely. The terminator is only checked on
// the latest read, so "Ok" followed by "!" in a later read ends the loop
// but a '!' in the middle of a read does not.
func receive(c Conn, clock clockwork.Clock, quiescence, poll time.Duration) ([]byte, error) {
	var resp []byte
	buf := make([]byte, epd.ReadSize)

	start := clock.Now()
	for clock.Since(start) < quiescence || len(resp) == 0 {
		ready, err := c.WaitReadable(poll)
		if err != nil {
			return resp, fmt.Errorf("wait for reply: %w", err)
		}
		if !ready {
			continue
		}

		n, err := c.Read(buf)
		if n > 0 {
			resp = append(resp, buf[:n]...)
			if buf[n-1] == epd.ReplyTerminator {
				break
			}
			start = clock.Now()
		}
		if err != nil {
			return resp, err
		}
	}
	return resp, nil
}
