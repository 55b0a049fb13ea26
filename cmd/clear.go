// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"github.com/Thermoquad/inkling/pkg/display"
	"github.com/spf13/cobra"
)

var clearAll bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Blank one or more displays",
	Long: `Set the panel to its ground color. Wired panels use the controller's
own clear; remote displays receive an all-ground frame.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		displays, err := selectDisplays(cmd, clearAll)
		if err != nil {
			return err
		}
		applyTimeout(cmd, displays)
		return pushAll(cmd, displays, (*display.Display).Clear)
	},
}

func init() {
	rootCmd.AddCommand(clearCmd)
	clearCmd.Flags().BoolVar(&clearAll, "all", false, "Clear every configured display")
	clearCmd.Flags().DurationVar(&showTimeout, "timeout", 0, "Give up on a transfer after this long (overrides config)")
}
