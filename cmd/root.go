// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Thermoquad/inkling/internal/config"
	"github.com/Thermoquad/inkling/internal/logging"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var (
	configPath  string
	displayName string
	logLevel    string
	logFile     string

	// Ad-hoc target flags, applied over the selected display entry
	modelKey    string
	colorMode   string
	transport   string
	btAddress   string
	rfChannel   uint8
	portName    string
	baudRate    int
	wsURL       string
	wsUsername  string
	noSSLVerify bool
	hFlip       bool
	vFlip       bool

	appFs     = afero.NewOsFs()
	cfg       *config.Config
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "inkling",
	Short: "Waveshare e-Paper display pusher",
	Long: `Inkling - Push images to Waveshare e-Paper displays.

Displays are reached over Bluetooth RFCOMM, a serial tty, a WebSocket bridge
or wired directly to the host's SPI bus. Targets come from the config file
(--config, default ~/.config/inkling/config.yaml) and can be overridden with
flags.

Connection modes:
  RFCOMM:    --address 00:11:22:33:44:55 [--channel 1]
  Serial:    --transport serial --port /dev/rfcomm0 [--baud 115200]
  WebSocket: --transport websocket --url ws://host/path [--username user]
  Wired:     --transport wired

For WebSocket authentication, the password is read from the INKLING_PASSWORD
environment variable, or prompted interactively if not set.

Exit codes:
  0 - Success
  1 - Transfer failed
  2 - Connection error`,
	Version:           "1.0.0",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(*cobra.Command, []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "Config file (.yaml or .toml)")
	pf.StringVarP(&displayName, "display", "d", "", "Display entry from the config file")
	pf.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.StringVar(&logFile, "log-file", "", "Also write logs to this file")

	pf.StringVarP(&modelKey, "model", "m", "", "Display model, e.g. epd7in5b")
	pf.StringVar(&colorMode, "color", "", "Color mode (black, red, yellow, multi)")
	pf.StringVarP(&transport, "transport", "t", "", "Transport (rfcomm, serial, websocket, wired)")
	pf.StringVarP(&btAddress, "address", "a", "", "Bluetooth address")
	pf.Uint8Var(&rfChannel, "channel", 0, "RFCOMM channel (0 queries SDP)")
	pf.StringVarP(&portName, "port", "p", "", "Serial port device")
	pf.IntVarP(&baudRate, "baud", "b", 115200, "Baud rate (serial only)")
	pf.StringVarP(&wsURL, "url", "u", "", "WebSocket URL (ws:// or wss://)")
	pf.StringVar(&wsUsername, "username", "", "Username for HTTP Basic auth")
	pf.BoolVar(&noSSLVerify, "no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")
	pf.BoolVar(&hFlip, "hflip", false, "Mirror the frame left to right")
	pf.BoolVar(&vFlip, "vflip", false, "Mirror the frame top to bottom")
}

func setup(cmd *cobra.Command, _ []string) error {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	c, err := config.Load(appFs, path)
	if err != nil {
		return err
	}
	cfg = c

	level := cfg.LogLevel
	if cmd.Flags().Changed("log-level") {
		level = logLevel
	}
	file := cfg.LogFile
	if cmd.Flags().Changed("log-file") {
		file = logFile
	}
	logCloser, err = logging.Setup(level, file, os.Stderr)
	return err
}

// ExitError carries the process exit code for a failed command.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error { return e.Err }

func connectionError(err error) error {
	return &ExitError{Code: 2, Err: fmt.Errorf("connection error: %w", err)}
}

func transferError(err error) error {
	return &ExitError{Code: 1, Err: err}
}

// ExitCode maps an error returned by Execute to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}
