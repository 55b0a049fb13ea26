// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package display

import (
	"fmt"

	"github.com/Thermoquad/inkling/pkg/epd"
	"github.com/Thermoquad/inkling/pkg/link"
	"github.com/Thermoquad/inkling/pkg/transfer"
)

// Remote shows frames on a display controller reached over a link.
type Remote struct {
	session *link.Session
	model   epd.DisplayModel
	opts    []transfer.Option

	last transfer.Statistics
}

// NewRemote creates a target sending frames for model m over session.
func NewRemote(session *link.Session, m epd.DisplayModel, opts ...transfer.Option) *Remote {
	return &Remote{session: session, model: m, opts: opts}
}

func (r *Remote) String() string {
	return r.session.String()
}

// Open connects the session ahead of the first push.
func (r *Remote) Open() error {
	r.session.Lock()
	defer r.session.Unlock()
	return r.session.EnsureOpen()
}

// Push encodes g and runs one transfer. The session is held for the whole
// transfer and closed if the transfer does not complete, so the next push
// starts on a fresh connection.
func (r *Remote) Push(g *epd.Grid) error {
	return r.send(epd.Pack2bpp(g))
}

// Clear sends an all-ground frame.
func (r *Remote) Clear() error {
	return r.send(epd.Pack2bpp(epd.NewGrid(r.model.Width, r.model.Height)))
}

func (r *Remote) send(payload []byte) error {
	r.session.Lock()
	defer r.session.Unlock()

	if err := r.session.EnsureOpen(); err != nil {
		return err
	}

	p := transfer.New(r.session, r.model.ID, r.opts...)
	ok, err := p.Transfer(payload)
	r.last = p.Statistics()
	if ok {
		return nil
	}
	_ = r.session.Close()
	if err == nil {
		err = fmt.Errorf("transfer to %s did not complete", r.session)
	}
	return err
}

// Statistics returns the statistics of the last transfer.
func (r *Remote) Statistics() transfer.Statistics {
	return r.last
}

// Close closes the session.
func (r *Remote) Close() error {
	r.session.Lock()
	defer r.session.Unlock()
	return r.session.Close()
}
