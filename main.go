// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad
//
// Inkling - Waveshare e-Paper display pusher
//
// A CLI tool for pushing images to e-Paper displays over Bluetooth RFCOMM,
// serial, WebSocket bridges or a directly wired SPI bus.

package main

import (
	"os"

	"github.com/Thermoquad/inkling/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}
