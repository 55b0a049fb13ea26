// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package transfer

import "fmt"

// State is a step of a frame transfer.
type State int

// Transfer states
const (
	Idle State = iota
	AwaitInitAck
	Sending
	AwaitChunkAck
	AwaitStopAck
	Done
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case AwaitInitAck:
		return "AWAIT_INIT_ACK"
	case Sending:
		return "SENDING"
	case AwaitChunkAck:
		return "AWAIT_CHUNK_ACK"
	case AwaitStopAck:
		return "AWAIT_STOP_ACK"
	case Done:
		return "DONE"
	case Failed:
		return "FAILED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether no further transitions follow.
func (s State) Terminal() bool {
	return s == Done || s == Failed
}

// Event describes a state change, for progress displays.
type Event struct {
	State  State
	Chunk  int // index of the chunk being sent or acknowledged
	Chunks int // total chunks in this transfer
	Sent   int // payload bytes acknowledged so far
	Total  int // payload size
	Err    error
}

// Fraction returns the acknowledged share of the payload in [0, 1].
func (e Event) Fraction() float64 {
	if e.State == Done {
		return 1
	}
	if e.Total == 0 {
		return 0
	}
	return float64(e.Sent) / float64(e.Total)
}
