// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"io"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceive(t *testing.T) {
	ms := time.Millisecond
	tests := []struct {
		name   string
		events []replyEvent
		want   string
	}{
		{
			name:   "ack in one read",
			events: []replyEvent{{after: 2 * ms, data: []byte("Ok!")}},
			want:   "Ok!",
		},
		{
			name: "terminator in a later read",
			events: []replyEvent{
				{after: 2 * ms, data: []byte("Ok")},
				{after: 5 * ms, data: []byte("!")},
			},
			want: "Ok!",
		},
		{
			name: "one byte per read",
			events: []replyEvent{
				{after: 2 * ms, data: []byte("O")},
				{after: 3 * ms, data: []byte("k")},
				{after: 3 * ms, data: []byte("!")},
			},
			want: "Ok!",
		},
		{
			name:   "unterminated reply ends after quiet period",
			events: []replyEvent{{after: 2 * ms, data: []byte("Ok")}},
			want:   "Ok",
		},
		{
			name: "terminator not at end of read",
			events: []replyEvent{
				{after: 2 * ms, data: []byte("Ok!x")},
				{after: 500 * ms, data: []byte("late!")},
			},
			want: "Ok!x",
		},
		{
			name: "data inside one poll window is still collected",
			events: []replyEvent{
				{after: 2 * ms, data: []byte("Err")},
				{after: 50 * ms, data: []byte("or")},
			},
			want: "Error",
		},
		{
			name:   "silent remote is waited for",
			events: []replyEvent{{after: 10 * time.Second, data: []byte("Ok!")}},
			want:   "Ok!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := clockwork.NewFakeClock()
			conn := newScriptedConn(clock, tt.events...)

			got, err := receive(conn, clock, DefaultQuiescence, DefaultPollInterval)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(got))
		})
	}
}

func TestReceive_WaitsIndefinitely(t *testing.T) {
	clock := clockwork.NewFakeClock()
	conn := newScriptedConn(clock, replyEvent{after: 30 * time.Second, data: []byte("Ok!")})
	start := clock.Now()

	got, err := receive(conn, clock, DefaultQuiescence, DefaultPollInterval)
	require.NoError(t, err)
	assert.Equal(t, "Ok!", string(got))
	assert.Equal(t, 30*time.Second, clock.Since(start))
	assert.Equal(t, 300, conn.waits)
}

func TestReceive_EndOfStream(t *testing.T) {
	clock := clockwork.NewFakeClock()
	conn := newScriptedConn(clock, replyEvent{after: time.Millisecond, data: []byte("O"), eof: true})

	got, err := receive(conn, clock, DefaultQuiescence, DefaultPollInterval)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "O", string(got))
}

func TestReceive_WaitError(t *testing.T) {
	clock := clockwork.NewFakeClock()
	conn := newScriptedConn(clock)
	conn.maxWaits = 3

	_, err := receive(conn, clock, DefaultQuiescence, DefaultPollInterval)
	assert.ErrorIs(t, err, errScriptExhausted)
}

func TestReceive_StopsOnTerminatorWithoutWaiting(t *testing.T) {
	clock := clockwork.NewFakeClock()
	conn := newScriptedConn(clock,
		replyEvent{after: 2 * time.Millisecond, data: []byte("O")},
		replyEvent{after: 3 * time.Millisecond, data: []byte("k")},
		replyEvent{after: 3 * time.Millisecond, data: []byte("!")},
	)
	start := clock.Now()

	_, err := receive(conn, clock, DefaultQuiescence, DefaultPollInterval)
	require.NoError(t, err)
	assert.Equal(t, 8*time.Millisecond, clock.Since(start))
	assert.Equal(t, 3, conn.waits)
}
