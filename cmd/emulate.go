// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Thermoquad/inkling/pkg/epd"
	"github.com/Thermoquad/inkling/pkg/link"
	"github.com/Thermoquad/inkling/pkg/transfer"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	emulateOut    string
	emulateReply  string
	emulateListen string
)

var emulateCmd = &cobra.Command{
	Use:   "emulate",
	Short: "Play the display controller on a serial port or WebSocket",
	Long: `Act as the remote display controller: decode INIT, LOAD and STOP,
answer each one and write every completed frame to a PNG file.

Serial mode reads from --port, for example one end of a socat pty pair or
an RFCOMM tty bound with rfcomm(1). WebSocket mode (--listen) accepts bridge
connections on the given address.

Examples:
  inkling emulate --port /dev/pts/4 --out frame.png
  inkling emulate --listen :8080 --reply 'No!'

Press Ctrl+C to exit.`,
	Args: cobra.NoArgs,
	RunE: runEmulate,
}

func init() {
	rootCmd.AddCommand(emulateCmd)
	emulateCmd.Flags().StringVarP(&emulateOut, "out", "o", "frame.png", "PNG file for received frames")
	emulateCmd.Flags().StringVar(&emulateReply, "reply", string(epd.Ack), "Reply sent after every message")
	emulateCmd.Flags().StringVar(&emulateListen, "listen", "", "Serve WebSocket bridge connections on this address")
}

// frameWriter saves frames from known models to path.
func frameWriter(out io.Writer, path string) func(transfer.Frame) {
	return func(f transfer.Frame) {
		if !f.Known {
			fmt.Fprintf(out, "Frame for unknown device id %d (%d bytes) not saved\n", f.DeviceID, len(f.Payload))
			return
		}
		if err := writeFrame(path, f); err != nil {
			log.Error().Err(err).Str("path", path).Msg("failed to save frame")
			return
		}
		fmt.Fprintf(out, "Frame %s saved to %s\n", f.Model, path)
	}
}

func writeFrame(path string, f transfer.Frame) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(file, epd.ToImage(f.Grid, f.Model.Palette)); err != nil {
		_ = file.Close()
		return err
	}
	return file.Close()
}

func newEmulator(rw io.ReadWriter, out io.Writer) *transfer.Emulator {
	emu := transfer.NewEmulator(rw)
	emu.Reply = []byte(emulateReply)
	emu.OnMessage = func(m *epd.Message) {
		fmt.Fprintf(out, "[%s] %s\n", time.Now().Format("15:04:05.000"), epd.FormatMessage(m))
	}
	emu.OnFrame = frameWriter(out, emulateOut)
	return emu
}

func runEmulate(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Inkling - Display Emulator\n")

	if emulateListen != "" {
		return serveBridge(ctx, out)
	}
	if portName == "" {
		return errors.New("either --port or --listen must be specified")
	}

	conn, err := link.OpenSerial(portName, baudRate)
	if err != nil {
		return connectionError(err)
	}
	fmt.Fprintf(out, "Port: %s @ %d baud\n", portName, baudRate)
	fmt.Fprintf(out, "Press Ctrl+C to exit\n\n")

	// Serve blocks in Read; closing the port releases it.
	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	err = newEmulator(conn, out).Serve(ctx)
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func serveBridge(ctx context.Context, out io.Writer) error {
	upgrader := websocket.Upgrader{}
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}
		conn := link.NewWebSocketConn(ws)
		defer conn.Close()

		log.Info().Str("remote", r.RemoteAddr).Msg("bridge client connected")
		if err := newEmulator(conn, out).Serve(r.Context()); err != nil {
			log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("bridge client failed")
		}
	})

	srv := &http.Server{Addr: emulateListen, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	fmt.Fprintf(out, "Listening: ws://%s/\n", emulateListen)
	fmt.Fprintf(out, "Press Ctrl+C to exit\n\n")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return connectionError(err)
	}
	return nil
}
