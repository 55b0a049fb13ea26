// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/Thermoquad/inkling/internal/config"
	"github.com/Thermoquad/inkling/pkg/display"
	"github.com/Thermoquad/inkling/pkg/epd"
	"github.com/Thermoquad/inkling/pkg/link"
	"github.com/Thermoquad/inkling/pkg/panel"
	"github.com/Thermoquad/inkling/pkg/transfer"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var errTransferTimeout = errors.New("transfer timed out")

// GetPassword retrieves password from environment or prompts user
func GetPassword() (string, error) {
	if pw := os.Getenv("INKLING_PASSWORD"); pw != "" {
		return pw, nil
	}

	fmt.Fprint(os.Stderr, "Password: ")

	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		// Fallback to regular input if terminal functions fail
		reader := bufio.NewReader(os.Stdin)
		password, err := reader.ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		fmt.Fprintln(os.Stderr)
		return strings.TrimSpace(password), nil
	}

	fmt.Fprintln(os.Stderr)
	return string(passwordBytes), nil
}

// selectDisplays returns the display entries a command acts on, with the
// ad-hoc flags applied. all selects every configured entry.
func selectDisplays(cmd *cobra.Command, all bool) ([]config.DisplayConfig, error) {
	var selected []config.DisplayConfig
	if all {
		selected = append(selected, cfg.Displays...)
		if len(selected) == 0 {
			return nil, errors.New("no displays configured")
		}
		for i := range selected {
			applyFlags(cmd, &selected[i])
		}
	} else {
		d, err := selectedDisplay(cmd)
		if err != nil {
			return nil, err
		}
		selected = []config.DisplayConfig{d}
	}

	for _, d := range selected {
		if err := d.Validate(); err != nil {
			return nil, err
		}
	}
	return selected, nil
}

// selectedDisplay returns the --display entry with the ad-hoc flags
// applied, without checking that it can be reached.
func selectedDisplay(cmd *cobra.Command) (config.DisplayConfig, error) {
	d, err := cfg.Display(displayName)
	if err != nil && !cmd.Flags().Changed("model") {
		return config.DisplayConfig{}, err
	}
	applyFlags(cmd, &d)
	return d, nil
}

func applyFlags(cmd *cobra.Command, d *config.DisplayConfig) {
	changed := cmd.Flags().Changed
	if changed("model") {
		d.Model = modelKey
	}
	if changed("color") {
		d.Color = colorMode
	}
	if changed("transport") {
		d.Transport = strings.ToLower(transport)
	}
	if changed("address") {
		d.Address = btAddress
	}
	if changed("channel") {
		d.Channel = rfChannel
	}
	if changed("port") {
		d.Port = portName
		if !changed("transport") {
			d.Transport = config.TransportSerial
		}
	}
	if changed("baud") {
		d.Baud = baudRate
	}
	if changed("url") {
		d.URL = wsURL
		if !changed("transport") {
			d.Transport = config.TransportWebSocket
		}
	}
	if changed("username") {
		d.Username = wsUsername
	}
	if changed("no-ssl-verify") {
		d.NoSSLVerify = noSSLVerify
	}
	if changed("hflip") {
		d.HFlip = hFlip
	}
	if changed("vflip") {
		d.VFlip = vFlip
	}

	tmp := config.Config{Displays: []config.DisplayConfig{*d}}
	tmp.Normalize()
	*d = tmp.Displays[0]
}

// newDialer builds the link dialer for a wireless display entry.
func newDialer(ctx context.Context, d config.DisplayConfig) (link.Dialer, error) {
	switch d.Transport {
	case config.TransportRFCOMM:
		var resolver link.ServiceResolver = link.SDPResolver{Timeout: 30 * time.Second}
		if d.Channel != 0 {
			resolver = link.StaticResolver(d.Channel)
		}
		dialer, err := link.NewRFCOMMDialer(ctx, d.Address, resolver)
		if err != nil {
			return nil, err
		}
		return dialer, nil

	case config.TransportSerial:
		return &link.SerialDialer{Port: d.Port, BaudRate: d.Baud}, nil

	case config.TransportWebSocket:
		password := ""
		if d.Username != "" {
			var err error
			password, err = GetPassword()
			if err != nil {
				return nil, err
			}
		}
		return &link.WebSocketDialer{
			URL:           d.URL,
			Username:      d.Username,
			Password:      password,
			SkipSSLVerify: d.NoSSLVerify,
		}, nil
	}
	return nil, fmt.Errorf("transport %q has no link", d.Transport)
}

// wiredTarget releases the SPI port after the panel goes to sleep.
type wiredTarget struct {
	*panel.Target
	port io.Closer
}

func (w *wiredTarget) Close() error {
	err := w.Target.Close()
	if cerr := w.port.Close(); err == nil {
		err = cerr
	}
	return err
}

func wiring(d config.DisplayConfig) panel.Wiring {
	w := panel.HatWiring
	for dst, src := range map[*string]string{
		&w.SPI:  d.Wiring.SPI,
		&w.DC:   d.Wiring.DC,
		&w.CS:   d.Wiring.CS,
		&w.RST:  d.Wiring.RST,
		&w.Busy: d.Wiring.Busy,
	} {
		if src != "" {
			*dst = src
		}
	}
	return w
}

// target is an opened display ready for pushes.
type target struct {
	name    string
	display *display.Display
	remote  *display.Remote // nil for wired panels
	timeout time.Duration
}

// openDisplay connects to the display described by d. progress, when set,
// receives transfer events of wireless pushes.
func openDisplay(ctx context.Context, d config.DisplayConfig, progress func(transfer.Event)) (*target, error) {
	m, err := epd.LookupModel(d.Model)
	if err != nil {
		return nil, err
	}
	color, err := epd.ParseColorMode(d.Color)
	if err != nil {
		return nil, err
	}
	quiescence, poll, timeout, err := d.Durations()
	if err != nil {
		return nil, err
	}

	t := &target{name: d.Name, timeout: timeout}
	var tgt display.Target

	if d.Transport == config.TransportWired {
		dev, port, err := panel.Open(wiring(d), m)
		if err != nil {
			return nil, connectionError(err)
		}
		tgt = &wiredTarget{Target: panel.NewTarget(dev, m), port: port}
	} else {
		dialer, err := newDialer(ctx, d)
		if err != nil {
			return nil, connectionError(err)
		}
		var opts []link.Option
		if quiescence > 0 {
			opts = append(opts, link.WithQuiescence(quiescence))
		}
		if poll > 0 {
			opts = append(opts, link.WithPollInterval(poll))
		}
		var topts []transfer.Option
		if progress != nil {
			topts = append(topts, transfer.WithProgress(progress))
		}
		t.remote = display.NewRemote(link.NewSession(dialer, opts...), m, topts...)
		if err := t.remote.Open(); err != nil {
			return nil, connectionError(err)
		}
		tgt = t.remote
	}

	t.display, err = display.New(m.Key, tgt, display.Options{Color: color, HFlip: d.HFlip, VFlip: d.VFlip})
	if err != nil {
		_ = tgt.Close()
		return nil, err
	}
	if d.Border != 0 {
		t.display.SetBorder(d.Border)
	}

	log.Info().Str("display", t.name).Str("target", t.display.String()).Msg("display ready")
	return t, nil
}

// push runs fn against the display, racing it against the transfer
// timeout. A timed out push keeps running in the background and its
// connection must not be reused.
func (t *target) push(fn func(*display.Display) error) error {
	err := withTimeout(t.timeout, func() error { return fn(t.display) })
	if err != nil {
		log.Warn().Err(err).Str("display", t.name).Msg("push failed")
		return transferError(fmt.Errorf("%s: %w", t.name, err))
	}

	if t.remote != nil {
		s := t.remote.Statistics()
		log.Info().
			Str("display", t.name).
			Int("chunks", s.Chunks).
			Int("bytes", s.PayloadSize).
			Dur("duration", s.Duration()).
			Float64("throughput", s.Throughput).
			Msg("frame delivered")
	} else {
		log.Info().Str("display", t.name).Msg("frame delivered")
	}
	return nil
}

func (t *target) close() {
	if err := t.display.Close(); err != nil {
		log.Debug().Err(err).Str("display", t.name).Msg("close failed")
	}
}

// withTimeout runs fn and gives up waiting after timeout. Zero waits
// forever.
func withTimeout(timeout time.Duration, fn func() error) error {
	if timeout <= 0 {
		return fn()
	}

	done := make(chan error, 1)
	go func() { done <- fn() }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("%w after %s", errTransferTimeout, timeout)
	}
}

// pushTo opens d, runs fn and closes the display again unless the push
// timed out.
func pushTo(ctx context.Context, d config.DisplayConfig, progress func(transfer.Event), fn func(*display.Display) error) error {
	t, err := openDisplay(ctx, d, progress)
	if err != nil {
		return err
	}
	err = t.push(fn)
	if !errors.Is(err, errTransferTimeout) {
		t.close()
	}
	return err
}
