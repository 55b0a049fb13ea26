// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/Thermoquad/inkling/pkg/link"
	"github.com/spf13/cobra"
)

var devicesTimeout int

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List paired Bluetooth devices offering a serial port",
	Long: `Ask BlueZ over D-Bus for paired devices that advertise the Serial Port
Profile. With --channel 0 the RFCOMM channel is resolved per push via SDP.

Exit codes:
  0 - At least one device found
  1 - No devices found
  2 - BlueZ not reachable`,
	Args: cobra.NoArgs,
	RunE: runDevices,
}

func init() {
	rootCmd.AddCommand(devicesCmd)
	devicesCmd.Flags().IntVar(&devicesTimeout, "timeout", 5, "Timeout in seconds for the D-Bus query")
}

func runDevices(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(devicesTimeout)*time.Second)
	defer cancel()

	devices, err := link.ListDevices(ctx)
	if err != nil {
		return connectionError(err)
	}

	out := cmd.OutOrStdout()
	for _, d := range devices {
		state := "paired"
		if d.Connected {
			state = "connected"
		}
		fmt.Fprintf(out, "%s  %-24s %s\n", d.Address, d.Name, state)
	}

	fmt.Fprintf(out, "\n--- %d device(s) ---\n", len(devices))
	if len(devices) == 0 {
		return &ExitError{Code: 1, Err: fmt.Errorf("no paired serial port devices")}
	}
	return nil
}
