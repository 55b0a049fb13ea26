// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSession(events ...replyEvent) (*Session, *fakeDialer) {
	clock := clockwork.NewFakeClock()
	d := &fakeDialer{conn: newScriptedConn(clock, events...)}
	return NewSession(d, WithClock(clock)), d
}

func TestSession_EnsureOpenIsIdempotent(t *testing.T) {
	s, d := newTestSession()
	assert.Equal(t, Unopened, s.State())

	require.NoError(t, s.EnsureOpen())
	require.NoError(t, s.EnsureOpen())

	assert.Equal(t, Open, s.State())
	assert.Equal(t, 1, d.dials)
	assert.Equal(t, []bool{true}, d.conn.nonblockCalls)
}

func TestSession_DialError(t *testing.T) {
	s, d := newTestSession()
	d.err = errors.New("host is down")

	err := s.EnsureOpen()
	assert.ErrorIs(t, err, d.err)
	assert.Equal(t, Unopened, s.State())
}

func TestSession_SendWritesEverythingBlocking(t *testing.T) {
	s, d := newTestSession()
	d.conn.writeLimit = 4

	payload := []byte("L\x10\x00\x10\x01\x00")
	require.NoError(t, s.Send(payload))

	assert.False(t, d.conn.lastNonblock())
	var joined []byte
	for _, w := range d.conn.writes {
		joined = append(joined, w...)
	}
	assert.Equal(t, payload, joined)
	assert.Len(t, d.conn.writes, 2)
}

func TestSession_ReceiveRestoresBlocking(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		s, d := newTestSession(replyEvent{after: time.Millisecond, data: []byte("Ok!")})
		reply, err := s.Receive()
		require.NoError(t, err)
		assert.Equal(t, "Ok!", string(reply))
		assert.Equal(t, []bool{true, true, false}, d.conn.nonblockCalls)
	})

	t.Run("error", func(t *testing.T) {
		s, d := newTestSession()
		d.conn.maxWaits = 1
		_, err := s.Receive()
		assert.ErrorIs(t, err, errScriptExhausted)
		assert.False(t, d.conn.lastNonblock())
	})
}

func TestSession_CloseResets(t *testing.T) {
	s, d := newTestSession()
	require.NoError(t, s.EnsureOpen())
	require.NoError(t, s.Close())

	assert.Equal(t, Unopened, s.State())
	assert.True(t, d.conn.closed)
	require.NoError(t, s.Close())

	require.NoError(t, s.EnsureOpen())
	assert.Equal(t, 2, d.dials)
}

func TestSession_IsLocker(t *testing.T) {
	s, _ := newTestSession()
	var l sync.Locker = s

	l.Lock()
	done := make(chan struct{})
	go func() {
		l.Lock()
		defer l.Unlock()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("second transfer entered while the first held the session")
	case <-time.After(20 * time.Millisecond):
	}
	l.Unlock()
	<-done
}
